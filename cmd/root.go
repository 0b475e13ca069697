package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/chrisdamba/orderpulse/internal/logger"
	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *models.Config
)

var rootCmd = &cobra.Command{
	Use:   "orderpulse",
	Short: "Simulates and analyses live delivery orders",
	Long: `orderpulse keeps a live collection of delivery orders, generates a daily batch of demo orders,
moves in-transit orders around and delivers some of them, and builds analytics charts from the result.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading .env file: %w", err)
		}

		var err error
		cfg, err = models.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		if err := logger.InitLogger(cfg.Stage, cfg.LogLevel); err != nil {
			return fmt.Errorf("error initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.orderpulse.yaml)")
	flags.Int64("seed", 0, "Random seed for demo data and movement (0 = time based)")
	flags.String("order-store", models.OrderStoreMemory, "Order repository backend: memory or postgres")
	flags.String("kv-store", models.KVStoreFile, "Key-value backend: memory, file, postgres or s3")
	flags.String("kv-file-path", "orderpulse-state.json", "State file for the file key-value backend")
	flags.String("database-url", "", "Postgres connection string")
	flags.String("timezone", models.DefaultTimezoneLocal, "Time zone for hour buckets and date filters")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("stage", "dev", "Deployment stage; prod switches to JSON logs")

	for key, flag := range map[string]string{
		"seed":         "seed",
		"order_store":  "order-store",
		"kv_store":     "kv-store",
		"kv_file_path": "kv-file-path",
		"database_url": "database-url",
		"timezone":     "timezone",
		"log_level":    "log-level",
		"stage":        "stage",
	} {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}

	rootCmd.AddCommand(runCmd, generateCmd, statsCmd, ordersCmd, chartCmd, exportCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
