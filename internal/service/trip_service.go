package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/metrics"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/snapshot"
	"github.com/mmynk/tripsplit/internal/storage"
)

// TripService implements tripsplit.v1.TripService.
type TripService struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewTripService creates a TripService with the given storage backend.
// m may be nil.
func NewTripService(store storage.Store, m *metrics.Metrics) *TripService {
	return &TripService{store: store, metrics: m}
}

// connectError maps storage and engine errors onto Connect codes.
func connectError(err error) *connect.Error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, calculator.ErrDataIntegrity):
		return connect.NewError(connect.CodeDataLoss, err)
	case errors.Is(err, calculator.ErrDegenerateInput):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(format string, args ...any) *connect.Error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// CreateTrip creates a new trip.
func (s *TripService) CreateTrip(ctx context.Context, req *connect.Request[CreateTripRequest]) (*connect.Response[CreateTripResponse], error) {
	slog.Info("CreateTrip request received", "name", req.Msg.Name, "base_currency", req.Msg.BaseCurrency)

	currency := strings.ToUpper(strings.TrimSpace(req.Msg.BaseCurrency))
	if len(currency) != 3 {
		return nil, invalidArgument("base_currency must be a 3-letter ISO 4217 code, got %q", req.Msg.BaseCurrency)
	}

	trip := &models.Trip{Name: strings.TrimSpace(req.Msg.Name), BaseCurrency: currency}
	if err := s.store.CreateTrip(ctx, trip); err != nil {
		slog.Error("CreateTrip failed", "error", err)
		return nil, connectError(err)
	}

	slog.Info("Trip created", "trip_id", trip.ID)
	return connect.NewResponse(&CreateTripResponse{Trip: tripToWire(trip)}), nil
}

// AddParticipant adds a user, guest or group to a trip.
func (s *TripService) AddParticipant(ctx context.Context, req *connect.Request[AddParticipantRequest]) (*connect.Response[AddParticipantResponse], error) {
	msg := req.Msg
	slog.Info("AddParticipant request received", "trip_id", msg.TripID, "type", msg.Type)

	if !msg.Type.Valid() {
		return nil, invalidArgument("unknown participant type %q", msg.Type)
	}
	if strings.TrimSpace(msg.DisplayName) == "" {
		return nil, invalidArgument("display_name required")
	}
	if len(msg.Members) > 0 && msg.Type != calculator.EntityGroup {
		return nil, invalidArgument("only groups have members")
	}

	if _, err := s.store.GetTrip(ctx, msg.TripID); err != nil {
		slog.Error("AddParticipant failed - trip not found", "trip_id", msg.TripID, "error", err)
		return nil, connectError(err)
	}

	p := &models.Participant{
		TripID:      msg.TripID,
		Kind:        models.ParticipantKind(msg.Type),
		DisplayName: strings.TrimSpace(msg.DisplayName),
		Email:       msg.Email,
		Members:     msg.Members,
	}
	if err := s.store.AddParticipant(ctx, p); err != nil {
		slog.Error("AddParticipant failed", "trip_id", msg.TripID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Participant added", "trip_id", msg.TripID, "participant", snapshot.Ref(p.ID, p.Kind))
	return connect.NewResponse(&AddParticipantResponse{Participant: participantToWire(p)}), nil
}

// AddExpense resolves an expense's split scheme and records it.
func (s *TripService) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error) {
	msg := req.Msg
	slog.Info("AddExpense request received",
		"trip_id", msg.TripID,
		"amount", msg.Amount,
		"currency", msg.Currency,
		"split_mode", msg.SplitMode,
		"shares", len(msg.Shares),
	)

	trip, err := s.store.GetTrip(ctx, msg.TripID)
	if err != nil {
		slog.Error("AddExpense failed - trip not found", "trip_id", msg.TripID, "error", err)
		return nil, connectError(err)
	}
	if !msg.Amount.IsPositive() {
		return nil, invalidArgument("amount must be positive, got %s", msg.Amount)
	}
	currency, rate, err := calculator.ResolveRate(msg.Currency, trip.BaseCurrency, msg.ExchangeRateToBase)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	known, err := s.participantRefs(ctx, trip.ID)
	if err != nil {
		return nil, connectError(err)
	}
	if !known[msg.PaidBy] {
		return nil, invalidArgument("paid_by %s is not a participant of trip %s", msg.PaidBy, trip.ID)
	}
	shares := make([]calculator.Share, len(msg.Shares))
	for i, sh := range msg.Shares {
		if !known[sh.Entity] {
			return nil, invalidArgument("%s is not a participant of trip %s", sh.Entity, trip.ID)
		}
		shares[i] = calculator.Share{Entity: sh.Entity, Value: sh.Value}
	}

	mode := msg.SplitMode
	if mode == "" {
		mode = calculator.SplitEqual
	}
	splits, err := calculator.ResolveSplits(mode, msg.Amount, currency, shares)
	if err != nil {
		slog.Error("AddExpense split resolution failed", "trip_id", trip.ID, "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	expense := &models.Expense{
		TripID:             trip.ID,
		Description:        msg.Description,
		Amount:             msg.Amount,
		Currency:           currency,
		ExchangeRateToBase: rate,
		PaidByID:           msg.PaidBy.ID,
		PaidByKind:         models.ParticipantKind(msg.PaidBy.Type),
		SplitMode:          string(mode),
		Splits:             make([]models.ExpenseSplit, len(splits)),
	}
	for i, sp := range splits {
		expense.Splits[i] = models.ExpenseSplit{
			ParticipantID:   sp.Entity.ID,
			ParticipantKind: models.ParticipantKind(sp.Entity.Type),
			Amount:          sp.Amount,
		}
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("AddExpense failed", "trip_id", trip.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Expense added", "trip_id", trip.ID, "expense_id", expense.ID)
	return connect.NewResponse(&AddExpenseResponse{Expense: expenseToWire(expense)}), nil
}

// DeleteExpense removes an expense and its splits.
func (s *TripService) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	if err := s.store.DeleteExpense(ctx, req.Msg.ExpenseID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Expense deleted", "expense_id", req.Msg.ExpenseID)
	return connect.NewResponse(&DeleteExpenseResponse{}), nil
}

// RecordSettlement marks a debt as paid and returns the recomputed summary.
// A settlement the engine refuses is removed again, so it never lingers in
// the trip.
func (s *TripService) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	msg := req.Msg
	slog.Info("RecordSettlement request received",
		"trip_id", msg.TripID,
		"from", msg.From,
		"to", msg.To,
		"amount", msg.Amount,
	)

	trip, err := s.store.GetTrip(ctx, msg.TripID)
	if err != nil {
		slog.Error("RecordSettlement failed - trip not found", "trip_id", msg.TripID, "error", err)
		return nil, connectError(err)
	}
	if !msg.Amount.IsPositive() {
		return nil, invalidArgument("amount must be positive, got %s", msg.Amount)
	}
	if msg.From == msg.To {
		return nil, invalidArgument("cannot settle with oneself (%s)", msg.From)
	}
	currency, rate, err := calculator.ResolveRate(msg.Currency, trip.BaseCurrency, msg.ExchangeRateToBase)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	known, err := s.participantRefs(ctx, trip.ID)
	if err != nil {
		return nil, connectError(err)
	}
	for _, ref := range []calculator.EntityRef{msg.From, msg.To} {
		if !known[ref] {
			return nil, invalidArgument("%s is not a participant of trip %s", ref, trip.ID)
		}
	}

	settlement := &models.Settlement{
		TripID:             trip.ID,
		FromID:             msg.From.ID,
		FromKind:           models.ParticipantKind(msg.From.Type),
		ToID:               msg.To.ID,
		ToKind:             models.ParticipantKind(msg.To.Type),
		Amount:             msg.Amount,
		Currency:           currency,
		ExchangeRateToBase: rate,
		Note:               msg.Note,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("RecordSettlement failed", "trip_id", trip.ID, "error", err)
		return nil, connectError(err)
	}

	summary, _, err := s.Summary(ctx, trip.ID)
	if err != nil {
		if delErr := s.store.DeleteSettlement(ctx, settlement.ID); delErr != nil {
			slog.Error("RecordSettlement rollback failed", "settlement_id", settlement.ID, "error", delErr)
		}
		return nil, connectError(err)
	}

	slog.Info("Settlement recorded",
		"trip_id", trip.ID,
		"settlement_id", settlement.ID,
		"open_transfers", len(summary.SuggestedSettlements),
	)
	return connect.NewResponse(&RecordSettlementResponse{
		Settlement: settlementToWire(settlement),
		Summary:    summary,
	}), nil
}

// DeleteSettlement removes a recorded settlement.
func (s *TripService) DeleteSettlement(ctx context.Context, req *connect.Request[DeleteSettlementRequest]) (*connect.Response[DeleteSettlementResponse], error) {
	slog.Info("DeleteSettlement request received", "settlement_id", req.Msg.SettlementID)

	if err := s.store.DeleteSettlement(ctx, req.Msg.SettlementID); err != nil {
		slog.Error("DeleteSettlement failed", "settlement_id", req.Msg.SettlementID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Settlement deleted", "settlement_id", req.Msg.SettlementID)
	return connect.NewResponse(&DeleteSettlementResponse{}), nil
}

// GetSummary computes balances and suggested settlements for a trip.
func (s *TripService) GetSummary(ctx context.Context, req *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error) {
	tripID := req.Msg.TripID
	slog.Info("GetSummary request received", "trip_id", tripID)

	if tripID == "" {
		return nil, invalidArgument("trip_id required")
	}

	summary, _, err := s.Summary(ctx, tripID)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("GetSummary successful",
		"trip_id", tripID,
		"expenses_count", summary.ExpenseCount,
		"participants_count", len(summary.Participants),
		"transfers_count", len(summary.SuggestedSettlements),
	)
	return connect.NewResponse(&GetSummaryResponse{Summary: summary}), nil
}

// Summary loads a consistent snapshot of the trip and runs the engine on
// it. The snapshot is returned too, for callers that export raw records.
func (s *TripService) Summary(ctx context.Context, tripID string) (*calculator.Summary, *models.TripSnapshot, error) {
	start := time.Now()

	snap, err := s.store.LoadSnapshot(ctx, tripID)
	if err != nil {
		slog.Error("Summary failed - could not load trip", "trip_id", tripID, "error", err)
		return nil, nil, err
	}

	summary, err := calculator.ComputeSummary(snapshot.SummaryInput(snap))
	if err != nil {
		kind, ok := calculator.FaultKindOf(err)
		if ok {
			s.metrics.ObserveFault(string(kind))
		}
		slog.Warn("Summary refused by engine", "trip_id", tripID, "kind", kind, "error", err)
		return nil, nil, err
	}

	s.metrics.ObserveSummary(time.Since(start), len(summary.SuggestedSettlements))
	return summary, snap, nil
}

// participantRefs returns the set of entity refs registered in a trip.
func (s *TripService) participantRefs(ctx context.Context, tripID string) (map[calculator.EntityRef]bool, error) {
	participants, err := s.store.ListParticipants(ctx, tripID)
	if err != nil {
		slog.Error("could not list participants", "trip_id", tripID, "error", err)
		return nil, err
	}
	refs := make(map[calculator.EntityRef]bool, len(participants))
	for _, p := range participants {
		refs[snapshot.Ref(p.ID, p.Kind)] = true
	}
	return refs, nil
}
