package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/chrisdamba/orderpulse/internal/app"
	"github.com/chrisdamba/orderpulse/internal/logger"
	"github.com/chrisdamba/orderpulse/internal/store"
	"github.com/spf13/cobra"
)

var (
	ordersSelect string
	ordersJSON   bool
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Inspect the order collection",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all orders, optionally selecting one by id",
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
		if ordersSelect != "" {
			if err := selectOrder(a.Store, ordersSelect); err != nil {
				return err
			}
		}

		if ordersJSON {
			return printJSON(cmd, struct {
				Orders   interface{} `json:"orders"`
				Selected interface{} `json:"selected"`
			}{a.Store.Orders(), a.Store.Selected()})
		}
		return writeOrderTable(cmd.OutOrStdout(), a.Store)
	},
}

func selectOrder(st *store.Store, id string) error {
	for _, o := range st.Orders() {
		if o.ID == id {
			st.Select(&o)
			return nil
		}
	}
	return fmt.Errorf("order %q not found", id)
}

// writeOrderTable prints every order; the selected one is starred.
func writeOrderTable(out io.Writer, st *store.Store) error {
	selectedID := ""
	if sel := st.Selected(); sel != nil {
		selectedID = sel.ID
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tID\tCUSTOMER\tSTATUS\tAMOUNT\tLAT\tLNG\tCREATED")
	for _, o := range st.Orders() {
		mark := ""
		if o.ID != "" && o.ID == selectedID {
			mark = "*"
		}
		created := ""
		if o.CreatedAt != nil {
			created = o.CreatedAt.UTC().Format("2006-01-02 15:04")
		}
		pos := o.Position()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.5f\t%.5f\t%s\n",
			mark, o.ID, o.CustomerName, o.Status, o.Amount, pos.Lat, pos.Lon, created)
	}
	return w.Flush()
}

func init() {
	ordersListCmd.Flags().StringVar(&ordersSelect, "select", "", "Id of the order to select and highlight")
	ordersListCmd.Flags().BoolVar(&ordersJSON, "json", false, "Print orders and the selection as JSON")
	ordersCmd.AddCommand(ordersListCmd)
}
