package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/snapshot"
)

// Wire messages of tripsplit.v1.TripService. Money travels as decimal
// strings, e.g. "12.50".

type Trip struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
	CreatedAt    int64  `json:"created_at"`
}

type Participant struct {
	Ref         calculator.EntityRef `json:"ref"`
	TripID      string               `json:"trip_id"`
	DisplayName string               `json:"display_name"`
	Email       string               `json:"email,omitempty"`
	Members     []string             `json:"members,omitempty"`
	CreatedAt   int64                `json:"created_at"`
}

// Share is one participant's input to a split: ignored for equal splits,
// an amount for exact splits and a percentage for percentage splits.
type Share struct {
	Entity calculator.EntityRef `json:"entity"`
	Value  decimal.Decimal      `json:"value"`
}

type Split struct {
	Entity calculator.EntityRef `json:"entity"`
	Amount decimal.Decimal      `json:"amount"`
}

type Expense struct {
	ID                 string               `json:"id"`
	TripID             string               `json:"trip_id"`
	Description        string               `json:"description"`
	Amount             decimal.Decimal      `json:"amount"`
	Currency           string               `json:"currency"`
	ExchangeRateToBase decimal.Decimal      `json:"exchange_rate_to_base"`
	PaidBy             calculator.EntityRef `json:"paid_by"`
	SplitMode          string               `json:"split_mode"`
	Splits             []Split              `json:"splits"`
	CreatedAt          int64                `json:"created_at"`
}

type Settlement struct {
	ID                 string               `json:"id"`
	TripID             string               `json:"trip_id"`
	From               calculator.EntityRef `json:"from"`
	To                 calculator.EntityRef `json:"to"`
	Amount             decimal.Decimal      `json:"amount"`
	Currency           string               `json:"currency"`
	ExchangeRateToBase decimal.Decimal      `json:"exchange_rate_to_base"`
	Note               string               `json:"note,omitempty"`
	CreatedAt          int64                `json:"created_at"`
}

type CreateTripRequest struct {
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
}

type CreateTripResponse struct {
	Trip *Trip `json:"trip"`
}

type AddParticipantRequest struct {
	TripID      string                `json:"trip_id"`
	Type        calculator.EntityType `json:"type"`
	DisplayName string                `json:"display_name"`
	Email       string                `json:"email,omitempty"`
	Members     []string              `json:"members,omitempty"`
}

type AddParticipantResponse struct {
	Participant *Participant `json:"participant"`
}

type AddExpenseRequest struct {
	TripID      string          `json:"trip_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	// Currency defaults to the trip's base currency.
	Currency string `json:"currency,omitempty"`
	// ExchangeRateToBase may be omitted for base-currency expenses only.
	ExchangeRateToBase decimal.NullDecimal  `json:"exchange_rate_to_base"`
	PaidBy             calculator.EntityRef `json:"paid_by"`
	SplitMode          calculator.SplitMode `json:"split_mode"`
	Shares             []Share              `json:"shares"`
}

type AddExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

// RecordSettlementRequest marks a debt as paid.
type RecordSettlementRequest struct {
	TripID             string               `json:"trip_id"`
	From               calculator.EntityRef `json:"from"`
	To                 calculator.EntityRef `json:"to"`
	Amount             decimal.Decimal      `json:"amount"`
	Currency           string               `json:"currency,omitempty"`
	ExchangeRateToBase decimal.NullDecimal  `json:"exchange_rate_to_base"`
	Note               string               `json:"note,omitempty"`
}

// RecordSettlementResponse carries the summary recomputed with the new
// settlement applied.
type RecordSettlementResponse struct {
	Settlement *Settlement         `json:"settlement"`
	Summary    *calculator.Summary `json:"summary"`
}

type DeleteSettlementRequest struct {
	SettlementID string `json:"settlement_id"`
}

type DeleteSettlementResponse struct{}

type GetSummaryRequest struct {
	TripID string `json:"trip_id"`
}

type GetSummaryResponse struct {
	Summary *calculator.Summary `json:"summary"`
}

func tripToWire(t *models.Trip) *Trip {
	return &Trip{ID: t.ID, Name: t.Name, BaseCurrency: t.BaseCurrency, CreatedAt: t.CreatedAt}
}

func participantToWire(p *models.Participant) *Participant {
	return &Participant{
		Ref:         snapshot.Ref(p.ID, p.Kind),
		TripID:      p.TripID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Members:     p.Members,
		CreatedAt:   p.CreatedAt,
	}
}

func expenseToWire(e *models.Expense) *Expense {
	splits := make([]Split, len(e.Splits))
	for i, sp := range e.Splits {
		splits[i] = Split{Entity: snapshot.Ref(sp.ParticipantID, sp.ParticipantKind), Amount: sp.Amount}
	}
	return &Expense{
		ID:                 e.ID,
		TripID:             e.TripID,
		Description:        e.Description,
		Amount:             e.Amount,
		Currency:           e.Currency,
		ExchangeRateToBase: e.ExchangeRateToBase,
		PaidBy:             snapshot.Ref(e.PaidByID, e.PaidByKind),
		SplitMode:          e.SplitMode,
		Splits:             splits,
		CreatedAt:          e.CreatedAt,
	}
}

func settlementToWire(s *models.Settlement) *Settlement {
	return &Settlement{
		ID:                 s.ID,
		TripID:             s.TripID,
		From:               snapshot.Ref(s.FromID, s.FromKind),
		To:                 snapshot.Ref(s.ToID, s.ToKind),
		Amount:             s.Amount,
		Currency:           s.Currency,
		ExchangeRateToBase: s.ExchangeRateToBase,
		Note:               s.Note,
		CreatedAt:          s.CreatedAt,
	}
}
