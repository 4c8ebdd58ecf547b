package models

// Trip groups expenses and settlements under one base currency.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string

	// Name is the display name of the trip (e.g., "Lisbon 2026").
	Name string

	// BaseCurrency is the ISO 4217 code all balances are expressed in.
	BaseCurrency string

	// CreatedAt is the Unix timestamp when the trip was created.
	CreatedAt int64
}

// TripSnapshot is everything needed to compute a trip's balances, read
// at a single point in time.
type TripSnapshot struct {
	Trip         Trip
	Participants []*Participant
	Expenses     []*Expense
	Settlements  []*Settlement
}
