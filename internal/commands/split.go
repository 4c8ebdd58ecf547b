package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mmynk/tripsplit/internal/calculator"
)

func newSplitCommand() *cobra.Command {
	var mode string
	var amount string
	var currency string

	cmd := &cobra.Command{
		Use:   "split type:id[=value]...",
		Short: "Preview how an expense would be split",
		Long: `Preview how an expense would be split among participants.

Participants are written as type:id. Exact and percentage splits append the
participant's value, e.g. user:alice=60 guest:bob=40.`,
		Example: "  tripsplit split --amount 100 --currency EUR user:alice guest:bob group:smiths",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			splitMode := calculator.SplitMode(mode)

			shares := make([]calculator.Share, len(args))
			for i, arg := range args {
				shares[i], err = parseShare(arg, splitMode)
				if err != nil {
					return err
				}
			}

			splits, err := calculator.ResolveSplits(splitMode, total, currency, shares)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, sp := range splits {
				fmt.Fprintf(tw, "%s\t%s %s\n", sp.Entity, sp.Amount.StringFixed(calculator.MinorUnits(currency)), strings.ToUpper(currency))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(calculator.SplitEqual), "split mode: equal, exact or percentage")
	cmd.Flags().StringVar(&amount, "amount", "", "expense amount (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&currency, "currency", "EUR", "expense currency")

	return cmd
}

// parseShare reads "type:id" or "type:id=value".
func parseShare(arg string, mode calculator.SplitMode) (calculator.Share, error) {
	refPart, valuePart, hasValue := strings.Cut(arg, "=")
	ref, err := calculator.ParseEntityRef(refPart)
	if err != nil {
		return calculator.Share{}, err
	}
	share := calculator.Share{Entity: ref}

	if mode == calculator.SplitEqual {
		if hasValue {
			return calculator.Share{}, fmt.Errorf("%s: equal splits take no value", arg)
		}
		return share, nil
	}
	if !hasValue {
		return calculator.Share{}, fmt.Errorf("%s: %s splits need a value, e.g. %s=10", arg, mode, refPart)
	}
	share.Value, err = decimal.NewFromString(valuePart)
	if err != nil {
		return calculator.Share{}, fmt.Errorf("%s: invalid value: %w", arg, err)
	}
	return share, nil
}
