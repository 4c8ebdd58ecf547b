// Package snapshot turns stored trip records into engine input, and reads
// standalone trip files for the command line.
package snapshot

import (
	"time"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/models"
)

// Ref converts a stored participant identity into an engine reference.
func Ref(id string, kind models.ParticipantKind) calculator.EntityRef {
	return calculator.EntityRef{ID: id, Type: calculator.EntityType(kind)}
}

// SummaryInput maps a trip snapshot onto the engine's input. It copies
// values only; nothing is validated here, the engine does that.
func SummaryInput(snap *models.TripSnapshot) calculator.SummaryInput {
	in := calculator.SummaryInput{
		TripID:       snap.Trip.ID,
		BaseCurrency: snap.Trip.BaseCurrency,
		Participants: make([]calculator.Entity, len(snap.Participants)),
		Expenses:     make([]calculator.Expense, len(snap.Expenses)),
		Settlements:  make([]calculator.RecordedSettlement, len(snap.Settlements)),
	}

	for i, p := range snap.Participants {
		in.Participants[i] = calculator.Entity{
			Ref:         Ref(p.ID, p.Kind),
			DisplayName: p.DisplayName,
		}
	}

	for i, e := range snap.Expenses {
		splits := make([]calculator.Split, len(e.Splits))
		for j, sp := range e.Splits {
			splits[j] = calculator.Split{
				Entity: Ref(sp.ParticipantID, sp.ParticipantKind),
				Amount: sp.Amount,
			}
		}
		in.Expenses[i] = calculator.Expense{
			ID:                 e.ID,
			Description:        e.Description,
			Amount:             e.Amount,
			Currency:           e.Currency,
			ExchangeRateToBase: e.ExchangeRateToBase,
			PaidBy:             Ref(e.PaidByID, e.PaidByKind),
			Splits:             splits,
		}
	}

	for i, s := range snap.Settlements {
		in.Settlements[i] = calculator.RecordedSettlement{
			ID:                 s.ID,
			From:               Ref(s.FromID, s.FromKind),
			To:                 Ref(s.ToID, s.ToKind),
			Amount:             s.Amount,
			Currency:           s.Currency,
			ExchangeRateToBase: s.ExchangeRateToBase,
			RecordedAt:         time.Unix(s.CreatedAt, 0).UTC(),
		}
	}

	return in
}

// DisplayNames maps every participant reference to its display name.
func DisplayNames(snap *models.TripSnapshot) map[calculator.EntityRef]string {
	names := make(map[calculator.EntityRef]string, len(snap.Participants))
	for _, p := range snap.Participants {
		names[Ref(p.ID, p.Kind)] = p.DisplayName
	}
	return names
}
