package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/export"
	"github.com/mmynk/tripsplit/internal/metrics"
	"github.com/mmynk/tripsplit/internal/middleware"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage/sqlite"
)

type testServer struct {
	client  *TripServiceClient
	store   *sqlite.SQLiteStore
	metrics *metrics.Metrics
	url     string
}

// setupTripTestServer serves TripService and the CSV export routes over
// httptest, backed by a fresh SQLite file.
func setupTripTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	m := metrics.New()
	svc := NewTripService(store, m)

	mux := http.NewServeMux()
	path, handler := NewTripServiceHandler(svc, connect.WithInterceptors(
		middleware.LoggingInterceptor(),
		middleware.MetricsInterceptor(m),
	))
	mux.Handle(path, handler)
	mux.Handle("/export/", NewExportHandler(svc, export.CurrencyPlaces))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testServer{
		client:  NewTripServiceClient(http.DefaultClient, server.URL),
		store:   store,
		metrics: m,
		url:     server.URL,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rate(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("expected %v, got %v (%v)", want, got, err)
	}
}

// trip is a trip with a user, a guest and a group.
type trip struct {
	id                 string
	alice, bob, smiths calculator.EntityRef
}

func createTrip(t *testing.T, ts *testServer) trip {
	t.Helper()
	ctx := context.Background()

	resp, err := ts.client.CreateTrip(ctx, connect.NewRequest(&CreateTripRequest{Name: "Lisbon", BaseCurrency: "eur"}))
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	tr := trip{id: resp.Msg.Trip.ID}

	add := func(kind calculator.EntityType, name string, members ...string) calculator.EntityRef {
		resp, err := ts.client.AddParticipant(ctx, connect.NewRequest(&AddParticipantRequest{
			TripID:      tr.id,
			Type:        kind,
			DisplayName: name,
			Members:     members,
		}))
		if err != nil {
			t.Fatalf("AddParticipant %s failed: %v", name, err)
		}
		return resp.Msg.Participant.Ref
	}
	tr.alice = add(calculator.EntityUser, "Alice")
	tr.bob = add(calculator.EntityGuest, "Bob")
	tr.smiths = add(calculator.EntityGroup, "The Smiths", "Ann", "Tom")
	return tr
}

func addDinner(t *testing.T, ts *testServer, tr trip) *Expense {
	t.Helper()
	resp, err := ts.client.AddExpense(context.Background(), connect.NewRequest(&AddExpenseRequest{
		TripID:      tr.id,
		Description: "Dinner",
		Amount:      dec("100"),
		PaidBy:      tr.alice,
		SplitMode:   calculator.SplitEqual,
		Shares:      []Share{{Entity: tr.alice}, {Entity: tr.bob}, {Entity: tr.smiths}},
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

func getSummary(t *testing.T, ts *testServer, tripID string) *calculator.Summary {
	t.Helper()
	resp, err := ts.client.GetSummary(context.Background(), connect.NewRequest(&GetSummaryRequest{TripID: tripID}))
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	return resp.Msg.Summary
}

func netBalance(t *testing.T, s *calculator.Summary, ref calculator.EntityRef) decimal.Decimal {
	t.Helper()
	b, ok := s.Balance(ref)
	if !ok {
		t.Fatalf("no balance line for %s", ref)
	}
	return b.NetBalance
}

func TestCreateTrip(t *testing.T) {
	ts := setupTripTestServer(t)

	resp, err := ts.client.CreateTrip(context.Background(), connect.NewRequest(&CreateTripRequest{
		Name:         "Alps",
		BaseCurrency: " chf ",
	}))
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}

	if resp.Msg.Trip.ID == "" {
		t.Error("expected non-empty trip ID")
	}
	if resp.Msg.Trip.BaseCurrency != "CHF" {
		t.Errorf("base currency: expected CHF, got %q", resp.Msg.Trip.BaseCurrency)
	}
	if resp.Msg.Trip.CreatedAt == 0 {
		t.Error("expected non-zero CreatedAt")
	}
}

func TestCreateTrip_InvalidCurrency(t *testing.T) {
	ts := setupTripTestServer(t)

	_, err := ts.client.CreateTrip(context.Background(), connect.NewRequest(&CreateTripRequest{
		Name:         "Nowhere",
		BaseCurrency: "euros",
	}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestAddParticipant_Validation(t *testing.T) {
	ts := setupTripTestServer(t)
	tr := createTrip(t, ts)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *AddParticipantRequest
		want connect.Code
	}{
		{"unknown trip", &AddParticipantRequest{TripID: "nope", Type: calculator.EntityUser, DisplayName: "X"}, connect.CodeNotFound},
		{"unknown type", &AddParticipantRequest{TripID: tr.id, Type: "robot", DisplayName: "R2"}, connect.CodeInvalidArgument},
		{"missing name", &AddParticipantRequest{TripID: tr.id, Type: calculator.EntityGuest}, connect.CodeInvalidArgument},
		{"members on a user", &AddParticipantRequest{TripID: tr.id, Type: calculator.EntityUser, DisplayName: "Y", Members: []string{"a"}}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.client.AddParticipant(ctx, connect.NewRequest(tt.req))
			assertCode(t, err, tt.want)
		})
	}
}

func TestAddExpense_EqualSplit(t *testing.T) {
	ts := setupTripTestServer(t)
	tr := createTrip(t, ts)

	expense := addDinner(t, ts, tr)

	if expense.Currency != "EUR" {
		t.Errorf("currency: expected EUR, got %q", expense.Currency)
	}
	if !expense.ExchangeRateToBase.Equal(dec("1")) {
		t.Errorf("rate: expected 1, got %s", expense.ExchangeRateToBase)
	}
	want := []string{"33.34", "33.33", "33.33"}
	if len(expense.Splits) != len(want) {
		t.Fatalf("expected %d splits, got %d", len(want), len(expense.Splits))
	}
	for i, w := range want {
		if !expense.Splits[i].Amount.Equal(dec(w)) {
			t.Errorf("split %d: expected %s, got %s", i, w, expense.Splits[i].Amount)
		}
	}
}

func TestAddExpense_Validation(t *testing.T) {
	ts := setupTripTestServer(t)
	tr := createTrip(t, ts)
	ctx := context.Background()
	stranger := calculator.GuestRef("stranger")

	tests := []struct {
		name string
		req  *AddExpenseRequest
		want connect.Code
	}{
		{
			name: "unknown trip",
			req:  &AddExpenseRequest{TripID: "nope", Amount: dec("10"), PaidBy: tr.alice, Shares: []Share{{Entity: tr.bob}}},
			want: connect.CodeNotFound,
		},
		{
			name: "non-positive amount",
			req:  &AddExpenseRequest{TripID: tr.id, Amount: dec("0"), PaidBy: tr.alice, Shares: []Share{{Entity: tr.bob}}},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "foreign currency without rate",
			req:  &AddExpenseRequest{TripID: tr.id, Amount: dec("10"), Currency: "USD", PaidBy: tr.alice, Shares: []Share{{Entity: tr.bob}}},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "payer outside trip",
			req:  &AddExpenseRequest{TripID: tr.id, Amount: dec("10"), PaidBy: stranger, Shares: []Share{{Entity: tr.bob}}},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "share outside trip",
			req:  &AddExpenseRequest{TripID: tr.id, Amount: dec("10"), PaidBy: tr.alice, Shares: []Share{{Entity: stranger}}},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "percentages do not add up",
			req: &AddExpenseRequest{
				TripID: tr.id, Amount: dec("10"), PaidBy: tr.alice, SplitMode: calculator.SplitPercentage,
				Shares: []Share{{Entity: tr.alice, Value: dec("50")}, {Entity: tr.bob, Value: dec("40")}},
			},
			want: connect.CodeInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.client.AddExpense(ctx, connect.NewRequest(tt.req))
			assertCode(t, err, tt.want)
		})
	}
}

func TestAddExpense_ForeignCurrency(t *testing.T) {
	ts := setupTripTestServer(t)
	tr := createTrip(t, ts)

	resp, err := ts.client.AddExpense(context.Background(), connect.NewRequest(&AddExpenseRequest{
		TripID:             tr.id,
		Description:        "Ferry",
		Amount:             dec("150"),
		Currency:           "chf",
		ExchangeRateToBase: rate("1.0437"),
		PaidBy:             tr.bob,
		SplitMode:          calculator.SplitExact,
		Shares: []Share{
			{Entity: tr.alice, Value: dec("50")},
			{Entity: tr.smiths, Value: dec("100")},
		},
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if resp.Msg.Expense.Currency != "CHF" {
		t.Errorf("currency: expected CHF, got %q", resp.Msg.Expense.Currency)
	}

	summary := getSummary(t, ts, tr.id)
	if got := netBalance(t, summary, tr.bob); !got.Equal(dec("156.555")) {
		t.Errorf("bob net: expected 156.555, got %s", got)
	}
	if !summary.TotalExpenses.Equal(dec("156.555")) {
		t.Errorf("total: expected 156.555, got %s", summary.TotalExpenses)
	}
}

func TestGetSummary_EmptyTrip(t *testing.T) {
	ts := setupTripTestServer(t)
	tr := createTrip(t, ts)

	summary := getSummary(t, ts, tr.id)
	if summary.ExpenseCount != 0 {
		t.Errorf("expected 0 expenses, got %d", summary.ExpenseCount)
	}
	if len(summary.SuggestedSettlements) != 0 {
		t.Errorf("expected no settlements, got %v", summary.SuggestedSettlements)
	}
	if summary.BaseCurrency != "EUR" {
		t.Errorf("base currency: expected EUR, got %q", summary.BaseCurrency)
	}
}

func TestGetSummary_Errors(t *testing.T) {
	ts := setupTripTestServer(t)
	ctx := context.Background()

	_, err := ts.client.GetSummary(ctx, connect.NewRequest(&GetSummaryRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = ts.client.GetSummary(ctx, connect.NewRequest(&GetSummaryRequest{TripID: "nope"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestSettlementFlow(t *testing.T) {
	ts := setupTripTestServer(t)
	tr := createTrip(t, ts)
	ctx := context.Background()
	addDinner(t, ts, tr)

	summary := getSummary(t, ts, tr.id)
	if got := netBalance(t, summary, tr.alice); !got.Equal(dec("66.66")) {
		t.Errorf("alice net: expected 66.66, got %s", got)
	}
	if len(summary.SuggestedSettlements) != 2 {
		t.Fatalf("expected 2 suggested settlements, got %d", len(summary.SuggestedSettlements))
	}

	// Mark bob's debt as paid.
	resp, err := ts.client.RecordSettlement(ctx, connect.NewRequest(&RecordSettlementRequest{
		TripID: tr.id,
		From:   tr.bob,
		To:     tr.alice,
		Amount: dec("33.33"),
		Note:   "cash",
	}))
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}
	if resp.Msg.Settlement.ID == "" {
		t.Error("expected non-empty settlement ID")
	}

	after := resp.Msg.Summary
	if got := netBalance(t, after, tr.bob); !got.IsZero() {
		t.Errorf("bob net after paying: expected 0, got %s", got)
	}
	if len(after.SuggestedSettlements) != 1 {
		t.Fatalf("expected 1 suggested settlement, got %d", len(after.SuggestedSettlements))
	}
	left := after.SuggestedSettlements[0]
	if left.From != tr.smiths || left.To != tr.alice || !left.Amount.Equal(dec("33.33")) {
		t.Errorf("unexpected remaining transfer: %+v", left)
	}

	// Undo it.
	if _, err := ts.client.DeleteSettlement(ctx, connect.NewRequest(&DeleteSettlementRequest{
		SettlementID: resp.Msg.Settlement.ID,
	})); err != nil {
		t.Fatalf("DeleteSettlement failed: %v", err)
	}
	if got := len(getSummary(t, ts, tr.id).SuggestedSettlements); got != 2 {
		t.Errorf("expected 2 suggested settlements after undo, got %d", got)
	}

	_, err = ts.client.DeleteSettlement(ctx, connect.NewRequest(&DeleteSettlementRequest{
		SettlementID: resp.Msg.Settlement.ID,
	}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestRecordSettlement_Validation(t *testing.T) {
	ts := setupTripTestServer(t)
	tr := createTrip(t, ts)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *RecordSettlementRequest
		want connect.Code
	}{
		{"self payment", &RecordSettlementRequest{TripID: tr.id, From: tr.bob, To: tr.bob, Amount: dec("5")}, connect.CodeInvalidArgument},
		{"zero amount", &RecordSettlementRequest{TripID: tr.id, From: tr.bob, To: tr.alice, Amount: dec("0")}, connect.CodeInvalidArgument},
		{"stranger", &RecordSettlementRequest{TripID: tr.id, From: calculator.UserRef("x"), To: tr.alice, Amount: dec("5")}, connect.CodeInvalidArgument},
		{"bad rate", &RecordSettlementRequest{TripID: tr.id, From: tr.bob, To: tr.alice, Amount: dec("5"), Currency: "USD", ExchangeRateToBase: rate("-1")}, connect.CodeInvalidArgument},
		{"unknown trip", &RecordSettlementRequest{TripID: "nope", From: tr.bob, To: tr.alice, Amount: dec("5")}, connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.client.RecordSettlement(ctx, connect.NewRequest(tt.req))
			assertCode(t, err, tt.want)
		})
	}
}

// corruptExpense stores an expense whose splits do not add up, bypassing
// the service's validation.
func corruptExpense(t *testing.T, ts *testServer, tr trip) {
	t.Helper()
	err := ts.store.CreateExpense(context.Background(), &models.Expense{
		TripID:             tr.id,
		Amount:             dec("100"),
		Currency:           "EUR",
		ExchangeRateToBase: dec("1"),
		PaidByID:           tr.alice.ID,
		PaidByKind:         models.ParticipantKind(tr.alice.Type),
		SplitMode:          "exact",
		Splits: []models.ExpenseSplit{
			{ParticipantID: tr.bob.ID, ParticipantKind: models.ParticipantKind(tr.bob.Type), Amount: dec("60")},
		},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
}

func TestGetSummary_DataIntegrityFault(t *testing.T) {
	ts := setupTripTestServer(t)
	tr := createTrip(t, ts)
	corruptExpense(t, ts, tr)

	_, err := ts.client.GetSummary(context.Background(), connect.NewRequest(&GetSummaryRequest{TripID: tr.id}))
	assertCode(t, err, connect.CodeDataLoss)
}

func TestRecordSettlement_RefusedSettlementIsRemoved(t *testing.T) {
	ts := setupTripTestServer(t)
	tr := createTrip(t, ts)
	corruptExpense(t, ts, tr)
	ctx := context.Background()

	_, err := ts.client.RecordSettlement(ctx, connect.NewRequest(&RecordSettlementRequest{
		TripID: tr.id, From: tr.bob, To: tr.alice, Amount: dec("10"),
	}))
	assertCode(t, err, connect.CodeDataLoss)

	settlements, err := ts.store.ListSettlementsByTrip(ctx, tr.id)
	if err != nil {
		t.Fatalf("ListSettlementsByTrip failed: %v", err)
	}
	if len(settlements) != 0 {
		t.Errorf("expected refused settlement to be removed, found %d", len(settlements))
	}
}

func TestDeleteExpense(t *testing.T) {
	ts := setupTripTestServer(t)
	tr := createTrip(t, ts)
	ctx := context.Background()
	expense := addDinner(t, ts, tr)

	if _, err := ts.client.DeleteExpense(ctx, connect.NewRequest(&DeleteExpenseRequest{ExpenseID: expense.ID})); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if got := getSummary(t, ts, tr.id).ExpenseCount; got != 0 {
		t.Errorf("expected 0 expenses after delete, got %d", got)
	}

	_, err := ts.client.DeleteExpense(ctx, connect.NewRequest(&DeleteExpenseRequest{ExpenseID: expense.ID}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestExportHandler(t *testing.T) {
	ts := setupTripTestServer(t)
	tr := createTrip(t, ts)
	addDinner(t, ts, tr)

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(ts.url + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("reading body: %v", err)
		}
		return resp.StatusCode, string(body)
	}

	code, body := get("/export/" + tr.id + "/balances.csv")
	if code != http.StatusOK {
		t.Fatalf("balances: expected 200, got %d (%s)", code, body)
	}
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 4 {
		t.Errorf("balances: expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.Contains(body, "66.66") {
		t.Errorf("balances: expected alice's 66.66 in %q", body)
	}

	code, body = get("/export/" + tr.id + "/settlements.csv")
	if code != http.StatusOK || !strings.HasPrefix(body, "from_type,") {
		t.Errorf("settlements: got %d %q", code, body)
	}

	code, body = get("/export/" + tr.id + "/expenses.csv")
	if code != http.StatusOK || !strings.Contains(body, "Dinner") {
		t.Errorf("expenses: got %d %q", code, body)
	}

	if code, _ := get("/export/" + tr.id + "/ledger.csv"); code != http.StatusNotFound {
		t.Errorf("unknown export: expected 404, got %d", code)
	}
	if code, _ := get("/export/nope/balances.csv"); code != http.StatusNotFound {
		t.Errorf("unknown trip: expected 404, got %d", code)
	}
}

func TestMetricsRecorded(t *testing.T) {
	ts := setupTripTestServer(t)
	tr := createTrip(t, ts)
	getSummary(t, ts, tr.id)

	families, err := ts.metrics.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, name := range []string{"tripsplit_rpc_requests_total", "tripsplit_summaries_computed_total"} {
		if !found[name] {
			t.Errorf("expected metric %s to be recorded", name)
		}
	}
}

func TestJSONCodecRejectsUnknownFields(t *testing.T) {
	var req GetSummaryRequest
	err := jsonCodec{}.Unmarshal([]byte(`{"trip_id":"t","extra":1}`), &req)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if err := (jsonCodec{}).Unmarshal(nil, &req); err != nil {
		t.Errorf("empty body should decode to the zero message: %v", err)
	}
}
