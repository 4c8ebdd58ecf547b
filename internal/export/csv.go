// Package export renders trip summaries and expenses as CSV. Amounts are
// rounded for display here and nowhere else.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/mmynk/tripsplit/internal/calculator"
)

var (
	balancesHeader    = []string{"entity_type", "entity_id", "display_name", "total_paid", "total_owed", "net_balance", "currency"}
	settlementsHeader = []string{"from_type", "from_id", "from_name", "to_type", "to_id", "to_name", "amount", "currency"}
	expensesHeader    = []string{"expense_id", "description", "paid_by", "amount", "currency", "exchange_rate_to_base", "amount_base", "base_currency"}
)

// CurrencyPlaces asks Places for the currency's own minor unit.
const CurrencyPlaces int32 = -1

// Places returns the number of decimal places used for amounts in
// currency. Any override other than CurrencyPlaces wins, so 0 renders
// whole units.
func Places(currency string, override int32) int32 {
	if override >= 0 {
		return override
	}
	return calculator.MinorUnits(currency)
}

// WriteBalancesCSV writes one row per balance line of the summary.
func WriteBalancesCSV(w io.Writer, s *calculator.Summary, places int32) error {
	rows := make([][]string, 0, len(s.Participants))
	for _, b := range s.Participants {
		rows = append(rows, []string{
			string(b.Entity.Type),
			b.Entity.ID,
			b.DisplayName,
			b.TotalPaid.StringFixed(places),
			b.TotalOwed.StringFixed(places),
			b.NetBalance.StringFixed(places),
			s.BaseCurrency,
		})
	}
	return writeAll(w, balancesHeader, rows)
}

// WriteSettlementsCSV writes the suggested transfers of the summary.
func WriteSettlementsCSV(w io.Writer, s *calculator.Summary, places int32) error {
	names := make(map[calculator.EntityRef]string, len(s.Participants))
	for _, b := range s.Participants {
		names[b.Entity] = b.DisplayName
	}

	rows := make([][]string, 0, len(s.SuggestedSettlements))
	for _, st := range s.SuggestedSettlements {
		rows = append(rows, []string{
			string(st.From.Type), st.From.ID, names[st.From],
			string(st.To.Type), st.To.ID, names[st.To],
			st.Amount.StringFixed(places),
			s.BaseCurrency,
		})
	}
	return writeAll(w, settlementsHeader, rows)
}

// WriteExpensesCSV writes each expense with its amount in both its own
// currency and the base currency.
func WriteExpensesCSV(w io.Writer, base string, expenses []calculator.Expense, places int32) error {
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []string{
			e.ID,
			e.Description,
			e.PaidBy.Key(),
			e.Amount.StringFixed(calculator.MinorUnits(e.Currency)),
			e.Currency,
			e.ExchangeRateToBase.String(),
			e.Amount.Mul(e.ExchangeRateToBase).StringFixed(places),
			base,
		})
	}
	return writeAll(w, expensesHeader, rows)
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
