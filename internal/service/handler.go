package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// TripServiceName is the fully-qualified name of the trip service.
const TripServiceName = "tripsplit.v1.TripService"

// Procedure paths of TripService.
const (
	CreateTripProcedure       = "/" + TripServiceName + "/CreateTrip"
	AddParticipantProcedure   = "/" + TripServiceName + "/AddParticipant"
	AddExpenseProcedure       = "/" + TripServiceName + "/AddExpense"
	DeleteExpenseProcedure    = "/" + TripServiceName + "/DeleteExpense"
	RecordSettlementProcedure = "/" + TripServiceName + "/RecordSettlement"
	DeleteSettlementProcedure = "/" + TripServiceName + "/DeleteSettlement"
	GetSummaryProcedure       = "/" + TripServiceName + "/GetSummary"
)

// NewTripServiceHandler builds an HTTP handler serving every TripService
// procedure. It returns the path to mount the handler on.
func NewTripServiceHandler(svc *TripService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateTripProcedure, connect.NewUnaryHandler(CreateTripProcedure, svc.CreateTrip, opts...))
	mux.Handle(AddParticipantProcedure, connect.NewUnaryHandler(AddParticipantProcedure, svc.AddParticipant, opts...))
	mux.Handle(AddExpenseProcedure, connect.NewUnaryHandler(AddExpenseProcedure, svc.AddExpense, opts...))
	mux.Handle(DeleteExpenseProcedure, connect.NewUnaryHandler(DeleteExpenseProcedure, svc.DeleteExpense, opts...))
	mux.Handle(RecordSettlementProcedure, connect.NewUnaryHandler(RecordSettlementProcedure, svc.RecordSettlement, opts...))
	mux.Handle(DeleteSettlementProcedure, connect.NewUnaryHandler(DeleteSettlementProcedure, svc.DeleteSettlement, opts...))
	mux.Handle(GetSummaryProcedure, connect.NewUnaryHandler(GetSummaryProcedure, svc.GetSummary, opts...))

	return "/" + TripServiceName + "/", mux
}

// TripServiceClient calls a remote TripService.
type TripServiceClient struct {
	createTrip       *connect.Client[CreateTripRequest, CreateTripResponse]
	addParticipant   *connect.Client[AddParticipantRequest, AddParticipantResponse]
	addExpense       *connect.Client[AddExpenseRequest, AddExpenseResponse]
	deleteExpense    *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	recordSettlement *connect.Client[RecordSettlementRequest, RecordSettlementResponse]
	deleteSettlement *connect.Client[DeleteSettlementRequest, DeleteSettlementResponse]
	getSummary       *connect.Client[GetSummaryRequest, GetSummaryResponse]
}

// NewTripServiceClient constructs a client for the service at baseURL,
// e.g. http://localhost:8080.
func NewTripServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *TripServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &TripServiceClient{
		createTrip:       connect.NewClient[CreateTripRequest, CreateTripResponse](httpClient, baseURL+CreateTripProcedure, opts...),
		addParticipant:   connect.NewClient[AddParticipantRequest, AddParticipantResponse](httpClient, baseURL+AddParticipantProcedure, opts...),
		addExpense:       connect.NewClient[AddExpenseRequest, AddExpenseResponse](httpClient, baseURL+AddExpenseProcedure, opts...),
		deleteExpense:    connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+DeleteExpenseProcedure, opts...),
		recordSettlement: connect.NewClient[RecordSettlementRequest, RecordSettlementResponse](httpClient, baseURL+RecordSettlementProcedure, opts...),
		deleteSettlement: connect.NewClient[DeleteSettlementRequest, DeleteSettlementResponse](httpClient, baseURL+DeleteSettlementProcedure, opts...),
		getSummary:       connect.NewClient[GetSummaryRequest, GetSummaryResponse](httpClient, baseURL+GetSummaryProcedure, opts...),
	}
}

func (c *TripServiceClient) CreateTrip(ctx context.Context, req *connect.Request[CreateTripRequest]) (*connect.Response[CreateTripResponse], error) {
	return c.createTrip.CallUnary(ctx, req)
}

func (c *TripServiceClient) AddParticipant(ctx context.Context, req *connect.Request[AddParticipantRequest]) (*connect.Response[AddParticipantResponse], error) {
	return c.addParticipant.CallUnary(ctx, req)
}

func (c *TripServiceClient) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *TripServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *TripServiceClient) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	return c.recordSettlement.CallUnary(ctx, req)
}

func (c *TripServiceClient) DeleteSettlement(ctx context.Context, req *connect.Request[DeleteSettlementRequest]) (*connect.Response[DeleteSettlementResponse], error) {
	return c.deleteSettlement.CallUnary(ctx, req)
}

func (c *TripServiceClient) GetSummary(ctx context.Context, req *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error) {
	return c.getSummary.CallUnary(ctx, req)
}
