package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/tripsplit/internal/export"
)

func newExportCommand() *cobra.Command {
	var file string
	var kind string
	var places int32

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write balances, settlements or expenses of a trip file as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, in, err := loadSummary(file)
			if err != nil {
				return err
			}
			digits := export.Places(summary.BaseCurrency, places)
			out := cmd.OutOrStdout()

			switch kind {
			case "balances":
				return export.WriteBalancesCSV(out, summary, digits)
			case "settlements":
				return export.WriteSettlementsCSV(out, summary, digits)
			case "expenses":
				return export.WriteExpensesCSV(out, summary.BaseCurrency, in.Expenses, digits)
			}
			return fmt.Errorf("unknown export kind %q (want balances, settlements or expenses)", kind)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "trip file (required)")
	_ = cmd.MarkFlagRequired("file")
	cmd.Flags().StringVar(&kind, "kind", "balances", "what to export: balances, settlements or expenses")
	cmd.Flags().Int32Var(&places, "places", export.CurrencyPlaces, "decimal places for amounts, -1 for the currency minor unit")

	return cmd
}
