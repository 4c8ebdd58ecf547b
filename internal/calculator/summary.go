package calculator

import (
	"github.com/shopspring/decimal"
)

// SummaryInput is a complete snapshot of one trip. Partial input is not
// supported: without every expense and settlement the balances cannot
// sum to zero.
type SummaryInput struct {
	TripID       string
	BaseCurrency string
	Participants []Entity
	Expenses     []Expense
	Settlements  []RecordedSettlement
}

// Summary is the report consumed by balance pages, dashboards and exports.
type Summary struct {
	TripID               string                `json:"trip_id"`
	BaseCurrency         string                `json:"base_currency"`
	Participants         []EntityBalance       `json:"participants"`
	SuggestedSettlements []SuggestedSettlement `json:"suggested_settlements"`
	TotalExpenses        decimal.Decimal       `json:"total_expenses"` // normalized, not net of settlements
	ExpenseCount         int                   `json:"expense_count"`
}

// ComputeSummary runs the whole engine over a trip snapshot. Identical
// input always yields identical output.
func ComputeSummary(in SummaryInput) (*Summary, error) {
	balances, err := AggregateBalances(in.BaseCurrency, in.Participants, in.Expenses, in.Settlements)
	if err != nil {
		return nil, err
	}

	plan, err := SimplifyDebts(balances)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, e := range in.Expenses {
		// Rates were already validated by AggregateBalances.
		total = total.Add(e.Amount.Mul(e.ExchangeRateToBase))
	}

	return &Summary{
		TripID:               in.TripID,
		BaseCurrency:         in.BaseCurrency,
		Participants:         balances,
		SuggestedSettlements: plan,
		TotalExpenses:        total,
		ExpenseCount:         len(in.Expenses),
	}, nil
}

// Balance returns the balance line for ref, if the entity had any activity.
func (s *Summary) Balance(ref EntityRef) (EntityBalance, bool) {
	for _, b := range s.Participants {
		if b.Entity == ref {
			return b, true
		}
	}
	return EntityBalance{}, false
}
