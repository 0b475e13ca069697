package cmd

import (
	"fmt"

	"github.com/chrisdamba/orderpulse/internal/app"
	"github.com/chrisdamba/orderpulse/internal/logger"
	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	generateCount int
	generateDaily bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create demo orders",
	Long: `Create demo orders. With --count a fixed number is created; with --daily a random batch is
created unless one was already generated today.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if generateCount <= 0 && !generateDaily {
			return fmt.Errorf("either --count or --daily is required")
		}

		ctx := cmd.Context()
		a, err := app.New(ctx, cfg, logger.Log)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Store.Refresh(ctx); err != nil {
			return err
		}

		max := int64(generateCount)
		if generateDaily {
			max = -1
		}
		bar := progressbar.Default(max, "generating orders")
		a.Generator.OnOrderCreated = func(_ models.Order, done, total int) {
			if bar.GetMax() != total {
				bar.ChangeMax(total)
			}
			_ = bar.Set(done)
		}

		var created []models.Order
		generated := true
		if generateDaily {
			created, generated, err = a.Generator.GenerateDailyOrders(ctx)
		} else {
			created, err = a.Generator.GenerateDemoOrders(ctx, generateCount)
		}
		_ = bar.Finish()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), generateSummary(created, generated, a.Generator.Today()))
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVar(&generateCount, "count", 0, "Number of demo orders to create")
	generateCmd.Flags().BoolVar(&generateDaily, "daily", false, "Create today's random batch if it has not been created yet")
	generateCmd.MarkFlagsMutuallyExclusive("count", "daily")
}

func generateSummary(created []models.Order, generated bool, today string) string {
	if !generated {
		return fmt.Sprintf("demo orders already generated for %s", today)
	}
	return fmt.Sprintf("created %d orders", len(created))
}
