package service

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/export"
	"github.com/mmynk/tripsplit/internal/snapshot"
	"github.com/mmynk/tripsplit/internal/storage"
)

// ExportPattern is the route of CSV exports. file is one of
// balances.csv, settlements.csv or expenses.csv.
const ExportPattern = "GET /export/{trip_id}/{file}"

// NewExportHandler serves CSV exports of trip summaries. places overrides
// the base currency's minor unit unless it is export.CurrencyPlaces.
func NewExportHandler(svc *TripService, places int32) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ExportPattern, func(w http.ResponseWriter, r *http.Request) {
		tripID := r.PathValue("trip_id")
		kind, ok := strings.CutSuffix(r.PathValue("file"), ".csv")
		if !ok {
			http.NotFound(w, r)
			return
		}

		summary, snap, err := svc.Summary(r.Context(), tripID)
		if err != nil {
			http.Error(w, err.Error(), exportStatus(err))
			return
		}

		digits := export.Places(summary.BaseCurrency, places)
		var buf bytes.Buffer
		switch kind {
		case "balances":
			err = export.WriteBalancesCSV(&buf, summary, digits)
		case "settlements":
			err = export.WriteSettlementsCSV(&buf, summary, digits)
		case "expenses":
			in := snapshot.SummaryInput(snap)
			err = export.WriteExpensesCSV(&buf, summary.BaseCurrency, in.Expenses, digits)
		default:
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.Error("Export failed", "trip_id", tripID, "kind", kind, "error", err)
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", tripID+"-"+kind+".csv"))
		if _, err := w.Write(buf.Bytes()); err != nil {
			slog.Warn("Export write failed", "trip_id", tripID, "error", err)
		}
	})
	return mux
}

func exportStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, calculator.ErrDataIntegrity), errors.Is(err, calculator.ErrDegenerateInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
