package models

import "github.com/shopspring/decimal"

// Settlement represents a payment between trip participants to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// TripID is the trip this settlement belongs to.
	TripID string

	// FromID and FromKind identify who paid (debtor settling up).
	FromID   string
	FromKind ParticipantKind

	// ToID and ToKind identify who received payment (creditor being paid).
	ToID   string
	ToKind ParticipantKind

	// Amount is the payment amount in Currency.
	Amount decimal.Decimal

	// Currency is the ISO 4217 code the payment was made in.
	Currency string

	// ExchangeRateToBase converts Currency into the trip's base currency.
	ExchangeRateToBase decimal.Decimal

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// Note is an optional description for the settlement.
	Note string
}
