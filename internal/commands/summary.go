package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/export"
	"github.com/mmynk/tripsplit/internal/snapshot"
)

func newSummaryCommand() *cobra.Command {
	var file string
	var asJSON bool
	var places int32

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show balances and suggested settlements for a trip file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, _, err := loadSummary(file)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return printSummary(cmd.OutOrStdout(), summary, export.Places(summary.BaseCurrency, places))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "trip file (required)")
	_ = cmd.MarkFlagRequired("file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON with exact amounts")
	cmd.Flags().Int32Var(&places, "places", export.CurrencyPlaces, "decimal places for amounts, -1 for the currency minor unit")

	return cmd
}

// loadSummary reads a trip file and runs the engine on it.
func loadSummary(path string) (*calculator.Summary, calculator.SummaryInput, error) {
	snap, err := snapshot.Load(path)
	if err != nil {
		return nil, calculator.SummaryInput{}, err
	}
	in := snapshot.SummaryInput(snap)
	summary, err := calculator.ComputeSummary(in)
	if err != nil {
		return nil, in, fmt.Errorf("computing summary: %w", err)
	}
	slog.Debug("Summary computed",
		"trip_id", summary.TripID,
		"expenses", summary.ExpenseCount,
		"transfers", len(summary.SuggestedSettlements),
	)
	return summary, in, nil
}

func printSummary(w io.Writer, s *calculator.Summary, places int32) error {
	names := make(map[calculator.EntityRef]string, len(s.Participants))
	for _, b := range s.Participants {
		names[b.Entity] = b.DisplayName
	}
	label := func(ref calculator.EntityRef) string {
		if n := names[ref]; n != "" {
			return n
		}
		return ref.Key()
	}

	fmt.Fprintf(w, "Trip %s: %d expenses, total %s %s\n\n",
		s.TripID, s.ExpenseCount, s.TotalExpenses.StringFixed(places), s.BaseCurrency)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PARTICIPANT\tPAID\tOWED\tNET\t")
	for _, b := range s.Participants {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			label(b.Entity),
			b.TotalPaid.StringFixed(places),
			b.TotalOwed.StringFixed(places),
			b.NetBalance.StringFixed(places),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.SuggestedSettlements) == 0 {
		_, err := fmt.Fprintln(w, "\nAll settled up.")
		return err
	}
	fmt.Fprintln(w, "\nSuggested settlements:")
	for _, st := range s.SuggestedSettlements {
		fmt.Fprintf(w, "  %s pays %s %s %s\n", label(st.From), label(st.To), st.Amount.StringFixed(places), s.BaseCurrency)
	}
	return nil
}
