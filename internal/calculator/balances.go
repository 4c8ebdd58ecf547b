package calculator

import (
	"slices"

	"github.com/shopspring/decimal"
)

// EntityBalance is the derived position of one entity, in base currency.
type EntityBalance struct {
	Entity      EntityRef       `json:"entity"`
	DisplayName string          `json:"display_name"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	TotalOwed   decimal.Decimal `json:"total_owed"`
	NetBalance  decimal.Decimal `json:"net_balance"` // Positive = owed money, Negative = owes money
}

// AggregateBalances folds every expense and recorded settlement of a trip
// into one balance line per entity that appears in them.
//
// Algorithm:
//   - For each expense: payer's TotalPaid += normalized total, each split
//     entity's TotalOwed += its normalized split. A payer inside their own
//     split gets both updates. A rounding gap within Tolerance between the
//     splits and the total stays with the payer.
//   - For each settlement: from's TotalOwed -= amount, to's TotalPaid -= amount.
//   - NetBalance = TotalPaid - TotalOwed, and the nets must sum to zero.
//
// Groups are plain entities here; whoever resolved the splits already
// decided which group a split belongs to.
func AggregateBalances(base string, participants []Entity, expenses []Expense, settlements []RecordedSettlement) ([]EntityBalance, error) {
	known, err := newRoster(participants)
	if err != nil {
		return nil, err
	}

	balances := make(map[EntityRef]*EntityBalance)
	touch := func(ref EntityRef) *EntityBalance {
		bal, ok := balances[ref]
		if !ok {
			bal = &EntityBalance{Entity: ref, DisplayName: known[ref].DisplayName}
			balances[ref] = bal
		}
		return bal
	}

	for _, e := range expenses {
		if err := validateExpense(e, known); err != nil {
			return nil, err
		}
		norm, err := NormalizeExpense(e, base)
		if err != nil {
			return nil, err
		}
		gap, err := splitGap(norm)
		if err != nil {
			return nil, err
		}

		payer := touch(norm.PaidBy)
		payer.TotalPaid = payer.TotalPaid.Add(norm.Amount)
		for _, s := range norm.Splits {
			bal := touch(s.Entity)
			bal.TotalOwed = bal.TotalOwed.Add(s.Amount)
		}
		// The payer keeps whatever the splits leave uncovered, or is
		// credited only what they charge.
		if gap.IsPositive() {
			payer.TotalOwed = payer.TotalOwed.Add(gap)
		} else {
			payer.TotalPaid = payer.TotalPaid.Sub(gap)
		}
	}

	for _, s := range settlements {
		if err := validateSettlement(s, known); err != nil {
			return nil, err
		}
		amount, err := NormalizeSettlement(s, base)
		if err != nil {
			return nil, err
		}
		from := touch(s.From)
		from.TotalOwed = from.TotalOwed.Sub(amount)
		to := touch(s.To)
		to.TotalPaid = to.TotalPaid.Sub(amount)
	}

	out := make([]EntityBalance, 0, len(balances))
	sum := decimal.Zero
	for _, bal := range balances {
		bal.NetBalance = bal.TotalPaid.Sub(bal.TotalOwed)
		sum = sum.Add(bal.NetBalance)
		out = append(out, *bal)
	}
	if !withinTolerance(sum) {
		return nil, dataIntegrity("", "net balances sum to %s instead of zero", sum)
	}

	slices.SortFunc(out, func(a, b EntityBalance) int {
		return compareRefs(a.Entity, b.Entity)
	})
	return out, nil
}

func validateExpense(e Expense, known roster) error {
	if !e.Amount.IsPositive() {
		return degenerate(e.ID, "expense amount must be positive, got %s", e.Amount)
	}
	if err := known.resolve(e.PaidBy, e.ID); err != nil {
		return err
	}
	for _, s := range e.Splits {
		if err := known.resolve(s.Entity, e.ID); err != nil {
			return err
		}
		if s.Amount.IsNegative() {
			return degenerate(e.ID, "split for %s is negative: %s", s.Entity, s.Amount)
		}
	}
	return nil
}

// splitGap returns the expense total minus its splits, in base currency
// where Tolerance is defined. Splits are never rescaled to fit.
func splitGap(norm NormalizedExpense) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, s := range norm.Splits {
		sum = sum.Add(s.Amount)
	}
	gap := norm.Amount.Sub(sum)
	if !withinTolerance(gap) {
		return decimal.Zero, dataIntegrity(norm.ID, "splits sum to %s but expense is %s (base currency)", sum, norm.Amount)
	}
	return gap, nil
}

func validateSettlement(s RecordedSettlement, known roster) error {
	if !s.Amount.IsPositive() {
		return degenerate(s.ID, "settlement amount must be positive, got %s", s.Amount)
	}
	if err := known.resolve(s.From, s.ID); err != nil {
		return err
	}
	if err := known.resolve(s.To, s.ID); err != nil {
		return err
	}
	if s.From == s.To {
		return degenerate(s.ID, "settlement from %s to itself", s.From)
	}
	return nil
}
