package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/chrisdamba/orderpulse/internal/app"
	"github.com/chrisdamba/orderpulse/internal/logger"
	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/spf13/cobra"
)

var (
	chartKind      string
	chartDimension string
	chartMetric    string
	chartStatus    string
	chartFrom      string
	chartTo        string
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Manage saved analytics charts",
}

var chartAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Compute a chart from the current orders and save it",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := models.ChartQuery{
			Kind:      models.ChartKind(chartKind),
			Dimension: models.Dimension(chartDimension),
			Metric:    models.Metric(chartMetric),
			Filters:   models.ChartFilters{Status: models.OrderStatus(chartStatus)},
		}
		var err error
		if q.Filters.FromDate, err = parseDay(chartFrom); err != nil {
			return err
		}
		if q.Filters.ToDate, err = parseDay(chartTo); err != nil {
			return err
		}
		if err := q.Validate(); err != nil {
			return err
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
		chart, err := a.Registry.AddChart(ctx, q)
		if err != nil {
			return err
		}
		return printJSON(cmd, chart)
	},
}

var chartListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), cfg, logger.Log)
		if err != nil {
			return err
		}
		defer a.Close()
		return printJSON(cmd, a.Registry.Charts())
	},
}

var chartRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Remove a saved chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid chart id %q: %w", args[0], err)
		}
		a, err := app.New(cmd.Context(), cfg, logger.Log)
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.Registry.RemoveChart(cmd.Context(), id) {
			fmt.Fprintf(cmd.OutOrStdout(), "no chart with id %d\n", id)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed chart %d\n", id)
		return nil
	},
}

var chartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every saved chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), cfg, logger.Log)
		if err != nil {
			return err
		}
		defer a.Close()

		a.Registry.Clear(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "cleared all charts")
		return nil
	},
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return &t, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	flags := chartAddCmd.Flags()
	flags.StringVar(&chartKind, "type", string(models.ChartKindBar), "Chart type: bar, line, pie or doughnut")
	flags.StringVar(&chartDimension, "x", string(models.DimensionDate), "Grouping: date, hour, status or customer")
	flags.StringVar(&chartMetric, "y", string(models.MetricOrderCount), "Metric: orderCount, totalRevenue or avgOrderValue")
	flags.StringVar(&chartStatus, "status", "", "Only include orders with this status")
	flags.StringVar(&chartFrom, "from", "", "Only include orders created on or after this day (YYYY-MM-DD)")
	flags.StringVar(&chartTo, "to", "", "Only include orders created on or before this day (YYYY-MM-DD)")

	chartCmd.AddCommand(chartAddCmd, chartListCmd, chartRemoveCmd, chartClearCmd)
}
