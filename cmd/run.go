package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrisdamba/orderpulse/internal/app"
	"github.com/chrisdamba/orderpulse/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a live session until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, logger.Log, app.WithEvents())
		if err != nil {
			return err
		}
		defer a.Close()

		if cfg.MetricsAddr != "" {
			srv := serveMetrics(cfg.MetricsAddr)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		return a.Simulator.Run(ctx)
	},
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}

func init() {
	runCmd.Flags().String("event-output", "none", "Where to publish order events: none, console, file, kafka or postgres")
	runCmd.Flags().String("event-output-path", "output", "Base directory for file event output")
	runCmd.Flags().String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	runCmd.Flags().String("metrics-addr", "", "Address for the Prometheus /metrics endpoint (disabled when empty)")
	runCmd.Flags().Duration("jitter-interval", 2500*time.Millisecond, "Interval between location updates")
	runCmd.Flags().Duration("delivery-interval", 2*time.Minute, "Interval between delivery rounds")

	for key, flag := range map[string]string{
		"event_output":      "event-output",
		"event_output_path": "event-output-path",
		"kafka_broker_list": "kafka-broker-list",
		"metrics_addr":      "metrics-addr",
		"jitter_interval":   "jitter-interval",
		"delivery_interval": "delivery-interval",
	} {
		cobra.CheckErr(viper.BindPFlag(key, runCmd.Flags().Lookup(flag)))
	}
}
