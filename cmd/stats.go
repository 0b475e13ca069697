package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/chrisdamba/orderpulse/internal/app"
	"github.com/chrisdamba/orderpulse/internal/logger"
	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show today's order count, revenue and top orders",
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
		m := a.Store.Metrics()

		out := cmd.OutOrStdout()
		if statsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		}

		fmt.Fprintf(out, "Date:     %s\nOrders:   %d\nRevenue:  %.2f\n\n", m.Date, m.TotalOrders, m.TotalRevenue)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCUSTOMER\tSTATUS\tAMOUNT")
		for _, o := range m.TopOrders {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", o.ID, o.CustomerName, o.Status, o.Amount)
		}
		return w.Flush()
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print the summary as JSON")
}
