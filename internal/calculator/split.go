package calculator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// SplitMode is how an expense is divided among its participants.
type SplitMode string

const (
	SplitEqual      SplitMode = "equal"
	SplitExact      SplitMode = "exact"
	SplitPercentage SplitMode = "percentage"
)

// Share is one participant's input to a split. Value is ignored for equal
// splits, an amount for exact splits and a percentage for percentage splits.
type Share struct {
	Entity EntityRef
	Value  decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// MinorUnits returns the number of decimal places of the currency's minor unit.
func MinorUnits(currency string) int32 {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "JPY", "KRW", "VND", "CLP", "ISK", "PYG", "UGX":
		return 0
	case "BHD", "KWD", "OMR", "JOD", "TND", "IQD", "LYD":
		return 3
	default:
		return 2
	}
}

// ResolveSplits turns a split scheme into per-entity amounts in the
// expense's currency. The result always sums exactly to amount.
//
// Equal and percentage splits are rounded to the currency's minor unit with
// the largest-remainder method: every share is truncated, then the leftover
// minor units go one each to the shares that lost the most to truncation,
// earlier shares first on ties. For an equal split the first participants
// in input order receive the extra cent.
func ResolveSplits(mode SplitMode, amount decimal.Decimal, currency string, shares []Share) ([]Split, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}
	if len(shares) == 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}
	seen := make(map[EntityRef]bool, len(shares))
	for _, s := range shares {
		if seen[s.Entity] {
			return nil, fmt.Errorf("participant %s listed more than once", s.Entity)
		}
		seen[s.Entity] = true
	}

	switch mode {
	case SplitEqual:
		weights := make([]decimal.Decimal, len(shares))
		for i := range weights {
			weights[i] = decimal.NewFromInt(1)
		}
		return allocate(amount, currency, shares, weights)

	case SplitPercentage:
		weights := make([]decimal.Decimal, len(shares))
		total := decimal.Zero
		for i, s := range shares {
			if s.Value.IsNegative() {
				return nil, fmt.Errorf("percentage for %s cannot be negative", s.Entity)
			}
			weights[i] = s.Value
			total = total.Add(s.Value)
		}
		if !total.Equal(hundred) {
			return nil, fmt.Errorf("percentages must add up to 100, got %s", total)
		}
		return allocate(amount, currency, shares, weights)

	case SplitExact:
		splits := make([]Split, len(shares))
		total := decimal.Zero
		for i, s := range shares {
			if s.Value.IsNegative() {
				return nil, fmt.Errorf("amount for %s cannot be negative", s.Entity)
			}
			splits[i] = Split{Entity: s.Entity, Amount: s.Value}
			total = total.Add(s.Value)
		}
		if !total.Equal(amount) {
			return nil, fmt.Errorf("split amounts add up to %s, expense is %s", total, amount)
		}
		return splits, nil
	}
	return nil, fmt.Errorf("unknown split mode %q", mode)
}

// allocate divides amount proportionally to weights in whole minor units.
func allocate(amount decimal.Decimal, currency string, shares []Share, weights []decimal.Decimal) ([]Split, error) {
	places := MinorUnits(currency)
	if !amount.Equal(amount.Truncate(places)) {
		return nil, fmt.Errorf("amount %s has more precision than %s allows", amount, currency)
	}

	totalWeight := decimal.Zero
	for _, w := range weights {
		totalWeight = totalWeight.Add(w)
	}
	if !totalWeight.IsPositive() {
		return nil, fmt.Errorf("split weights must not all be zero")
	}

	unit := decimal.New(1, -places)
	splits := make([]Split, len(shares))
	remainders := make([]decimal.Decimal, len(shares))
	allotted := decimal.Zero
	for i, s := range shares {
		exact := amount.Mul(weights[i]).Div(totalWeight)
		floor := exact.Truncate(places)
		splits[i] = Split{Entity: s.Entity, Amount: floor}
		remainders[i] = exact.Sub(floor)
		allotted = allotted.Add(floor)
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return remainders[b].Cmp(remainders[a])
	})

	leftover := amount.Sub(allotted).Div(unit).IntPart()
	for k := int64(0); k < leftover; k++ {
		i := order[int(k)%len(order)]
		splits[i].Amount = splits[i].Amount.Add(unit)
	}
	return splits, nil
}
