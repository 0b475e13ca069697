package cmd

import (
	"fmt"
	"path"

	"github.com/chrisdamba/orderpulse/internal/app"
	"github.com/chrisdamba/orderpulse/internal/cloudwriter"
	"github.com/chrisdamba/orderpulse/internal/logger"
	"github.com/chrisdamba/orderpulse/internal/output"
	"github.com/spf13/cobra"
	"github.com/xitongsys/parquet-go/source"
	"go.uber.org/zap"
)

var (
	exportOutput string
	exportBucket string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a parquet snapshot of all orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.New(ctx, cfg, logger.Log)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Store.Refresh(ctx); err != nil {
			return err
		}
		orders := a.Store.Orders()

		var fw source.ParquetFile
		target := exportOutput
		if exportBucket != "" {
			client, err := a.S3Client(ctx)
			if err != nil {
				return err
			}
			target = path.Join(cfg.S3.Prefix, exportOutput)
			w, err := cloudwriter.NewS3WriterFactory(client).NewWriter(exportBucket, target)
			if err != nil {
				return fmt.Errorf("failed to create cloud file writer: %w", err)
			}
			fw = output.NewCloudParquetFile(w)
			target = fmt.Sprintf("s3://%s/%s", exportBucket, target)
		} else {
			fw, err = output.NewLocalParquetFile(exportOutput)
			if err != nil {
				return err
			}
		}

		if err := output.ExportOrdersParquet(orders, fw); err != nil {
			return err
		}
		logger.Log.Info("exported orders", zap.Int("orders", len(orders)), zap.String("target", target))
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d orders to %s\n", len(orders), target)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "orders.parquet", "Output file, or object key when --bucket is set")
	exportCmd.Flags().StringVar(&exportBucket, "bucket", "", "Upload to this S3 bucket instead of the local filesystem")
}
