package calculator

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tolerance absorbs rounding from upstream currency conversion. Every
// monetary comparison in the engine goes through it. Expressed in base
// currency units.
var Tolerance = decimal.New(1, -2)

// Split is one entity's portion of an expense, in the expense's currency.
type Split struct {
	Entity EntityRef       `json:"entity" yaml:"entity"`
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
}

// Expense is money that flowed out of PaidBy and is owed, in aggregate, by
// the entities named in Splits.
type Expense struct {
	ID                 string          `json:"id" yaml:"id"`
	Description        string          `json:"description,omitempty" yaml:"description,omitempty"`
	Amount             decimal.Decimal `json:"amount" yaml:"amount"`
	Currency           string          `json:"currency" yaml:"currency"`
	ExchangeRateToBase decimal.Decimal `json:"exchange_rate_to_base" yaml:"exchange_rate_to_base"`
	PaidBy             EntityRef       `json:"paid_by" yaml:"paid_by"`
	Splits             []Split         `json:"splits" yaml:"splits"`
}

// RecordedSettlement is a manually logged payment from one entity to another.
type RecordedSettlement struct {
	ID                 string          `json:"id" yaml:"id"`
	From               EntityRef       `json:"from" yaml:"from"`
	To                 EntityRef       `json:"to" yaml:"to"`
	Amount             decimal.Decimal `json:"amount" yaml:"amount"`
	Currency           string          `json:"currency" yaml:"currency"`
	ExchangeRateToBase decimal.Decimal `json:"exchange_rate_to_base" yaml:"exchange_rate_to_base"`
	RecordedAt         time.Time       `json:"recorded_at" yaml:"recorded_at"`
}

// NormalizedExpense is an expense with every amount expressed in base currency.
type NormalizedExpense struct {
	ID     string
	PaidBy EntityRef
	Amount decimal.Decimal
	Splits []Split
}

// SameCurrency compares ISO currency codes case-insensitively.
func SameCurrency(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ResolveRate fills in defaults for a record about to be stored: an empty
// currency means base, and a missing rate means 1 for base-currency records.
// Foreign currencies must state their rate; rates are never looked up.
func ResolveRate(currency, base string, rate decimal.NullDecimal) (string, decimal.Decimal, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = base
	}
	if !rate.Valid {
		if currency != base {
			return "", decimal.Zero, fmt.Errorf("exchange rate is required for %s (base %s)", currency, base)
		}
		return currency, decimal.NewFromInt(1), nil
	}
	if !rate.Decimal.IsPositive() {
		return "", decimal.Zero, fmt.Errorf("exchange rate must be positive, got %s", rate.Decimal)
	}
	if currency == base && !rate.Decimal.Equal(decimal.NewFromInt(1)) {
		return "", decimal.Zero, fmt.Errorf("exchange rate for base currency %s must be 1, got %s", base, rate.Decimal)
	}
	return currency, rate.Decimal, nil
}

// checkRate enforces the exchange rate invariants for a record held in
// currency, against the trip's base currency.
func checkRate(ref, currency, base string, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return dataIntegrity(ref, "exchange rate to base must be positive, got %s", rate)
	}
	if SameCurrency(currency, base) && !rate.Equal(decimal.NewFromInt(1)) {
		return dataIntegrity(ref, "amount in base currency %s must have rate 1, got %s", base, rate)
	}
	return nil
}

// NormalizeExpense converts an expense and its splits to base currency:
// normalized = amount * ExchangeRateToBase. Nothing is rounded here;
// rounding belongs to the display and export boundaries.
func NormalizeExpense(e Expense, base string) (NormalizedExpense, error) {
	if err := checkRate(e.ID, e.Currency, base, e.ExchangeRateToBase); err != nil {
		return NormalizedExpense{}, err
	}
	rate := e.ExchangeRateToBase
	out := NormalizedExpense{
		ID:     e.ID,
		PaidBy: e.PaidBy,
		Amount: e.Amount.Mul(rate),
		Splits: make([]Split, len(e.Splits)),
	}
	for i, s := range e.Splits {
		out.Splits[i] = Split{Entity: s.Entity, Amount: s.Amount.Mul(rate)}
	}
	return out, nil
}

// NormalizeSettlement returns the settlement amount in base currency.
func NormalizeSettlement(s RecordedSettlement, base string) (decimal.Decimal, error) {
	if err := checkRate(s.ID, s.Currency, base, s.ExchangeRateToBase); err != nil {
		return decimal.Zero, err
	}
	return s.Amount.Mul(s.ExchangeRateToBase), nil
}

// withinTolerance reports |d| <= Tolerance.
func withinTolerance(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Tolerance)
}
