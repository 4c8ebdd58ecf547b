package models

import "github.com/shopspring/decimal"

// Expense is money one participant paid on behalf of others.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// TripID is the trip this expense belongs to.
	TripID string

	// Description is a human-readable label (e.g., "Ferry tickets").
	Description string

	// Amount is the total in the expense's own currency. Always positive.
	Amount decimal.Decimal

	// Currency is the ISO 4217 code the expense was paid in.
	Currency string

	// ExchangeRateToBase converts Currency into the trip's base currency.
	// Stored when the expense is recorded so balances never shift later.
	ExchangeRateToBase decimal.Decimal

	// PaidByID and PaidByKind identify the paying participant.
	PaidByID   string
	PaidByKind ParticipantKind

	// SplitMode records how the splits were produced (equal, exact, percentage).
	SplitMode string

	// Splits are the resolved per-participant amounts, in Currency.
	Splits []ExpenseSplit

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// ExpenseSplit is one participant's share of an expense.
type ExpenseSplit struct {
	ParticipantID   string
	ParticipantKind ParticipantKind

	// Amount is this participant's share in the expense currency.
	Amount decimal.Decimal
}
