package snapshot

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/models"
)

// File is the on-disk trip format read by the command line tool.
// Entity references are written as "type:id", e.g. "guest:bob".
type File struct {
	Trip         FileTrip          `yaml:"trip"`
	Participants []FileParticipant `yaml:"participants"`
	Expenses     []FileExpense     `yaml:"expenses"`
	Settlements  []FileSettlement  `yaml:"settlements,omitempty"`
}

// FileTrip identifies the trip and its base currency.
type FileTrip struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	BaseCurrency string `yaml:"base_currency"`
}

// FileParticipant is a user, guest or group.
type FileParticipant struct {
	ID      string   `yaml:"id"`
	Type    string   `yaml:"type"`
	Name    string   `yaml:"name"`
	Email   string   `yaml:"email,omitempty"`
	Members []string `yaml:"members,omitempty"`
}

// FileExpense is an expense whose splits are resolved from Split and Shares.
type FileExpense struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description,omitempty"`
	Amount      string      `yaml:"amount"`
	Currency    string      `yaml:"currency,omitempty"` // defaults to the base currency
	Rate        string      `yaml:"rate,omitempty"`     // required for foreign currencies
	PaidBy      string      `yaml:"paid_by"`
	Split       string      `yaml:"split"` // equal, exact or percentage
	Shares      []FileShare `yaml:"shares"`
}

// FileShare names one split participant; Value is unused for equal splits.
type FileShare struct {
	Entity string `yaml:"entity"`
	Value  string `yaml:"value,omitempty"`
}

// FileSettlement is a recorded payment.
type FileSettlement struct {
	ID         string    `yaml:"id"`
	From       string    `yaml:"from"`
	To         string    `yaml:"to"`
	Amount     string    `yaml:"amount"`
	Currency   string    `yaml:"currency,omitempty"`
	Rate       string    `yaml:"rate,omitempty"`
	RecordedAt time.Time `yaml:"recorded_at,omitempty"`
	Note       string    `yaml:"note,omitempty"`
}

// Load reads a trip file from disk.
func Load(path string) (*models.TripSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trip file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a trip file and resolves every expense's splits.
func Decode(r io.Reader) (*models.TripSnapshot, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing trip file: %w", err)
	}
	return file.Snapshot()
}

// Snapshot converts the file into stored-record form.
func (f *File) Snapshot() (*models.TripSnapshot, error) {
	base := strings.ToUpper(strings.TrimSpace(f.Trip.BaseCurrency))
	if base == "" {
		return nil, fmt.Errorf("trip %q: base_currency is required", f.Trip.ID)
	}
	snap := &models.TripSnapshot{
		Trip: models.Trip{ID: f.Trip.ID, Name: f.Trip.Name, BaseCurrency: base},
	}

	for _, p := range f.Participants {
		snap.Participants = append(snap.Participants, &models.Participant{
			ID:          p.ID,
			TripID:      f.Trip.ID,
			Kind:        models.ParticipantKind(p.Type),
			DisplayName: p.Name,
			Email:       p.Email,
			Members:     p.Members,
		})
	}

	for _, fe := range f.Expenses {
		e, err := fe.expense(f.Trip.ID, base)
		if err != nil {
			return nil, fmt.Errorf("expense %q: %w", fe.ID, err)
		}
		snap.Expenses = append(snap.Expenses, e)
	}

	for _, fs := range f.Settlements {
		s, err := fs.settlement(f.Trip.ID, base)
		if err != nil {
			return nil, fmt.Errorf("settlement %q: %w", fs.ID, err)
		}
		snap.Settlements = append(snap.Settlements, s)
	}

	return snap, nil
}

func (fe FileExpense) expense(tripID, base string) (*models.Expense, error) {
	amount, err := decimal.NewFromString(fe.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", fe.Amount, err)
	}
	currency, rate, err := currencyAndRate(fe.Currency, fe.Rate, base)
	if err != nil {
		return nil, err
	}
	payer, err := calculator.ParseEntityRef(fe.PaidBy)
	if err != nil {
		return nil, err
	}

	mode := calculator.SplitMode(fe.Split)
	if mode == "" {
		mode = calculator.SplitEqual
	}
	shares := make([]calculator.Share, len(fe.Shares))
	for i, sh := range fe.Shares {
		ref, err := calculator.ParseEntityRef(sh.Entity)
		if err != nil {
			return nil, err
		}
		shares[i] = calculator.Share{Entity: ref}
		if mode != calculator.SplitEqual {
			v, err := decimal.NewFromString(sh.Value)
			if err != nil {
				return nil, fmt.Errorf("invalid share value %q for %s: %w", sh.Value, ref, err)
			}
			shares[i].Value = v
		}
	}
	splits, err := calculator.ResolveSplits(mode, amount, currency, shares)
	if err != nil {
		return nil, err
	}

	e := &models.Expense{
		ID:                 fe.ID,
		TripID:             tripID,
		Description:        fe.Description,
		Amount:             amount,
		Currency:           currency,
		ExchangeRateToBase: rate,
		PaidByID:           payer.ID,
		PaidByKind:         models.ParticipantKind(payer.Type),
		SplitMode:          string(mode),
	}
	for _, sp := range splits {
		e.Splits = append(e.Splits, models.ExpenseSplit{
			ParticipantID:   sp.Entity.ID,
			ParticipantKind: models.ParticipantKind(sp.Entity.Type),
			Amount:          sp.Amount,
		})
	}
	return e, nil
}

func (fs FileSettlement) settlement(tripID, base string) (*models.Settlement, error) {
	amount, err := decimal.NewFromString(fs.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", fs.Amount, err)
	}
	currency, rate, err := currencyAndRate(fs.Currency, fs.Rate, base)
	if err != nil {
		return nil, err
	}
	from, err := calculator.ParseEntityRef(fs.From)
	if err != nil {
		return nil, err
	}
	to, err := calculator.ParseEntityRef(fs.To)
	if err != nil {
		return nil, err
	}

	s := &models.Settlement{
		ID:                 fs.ID,
		TripID:             tripID,
		FromID:             from.ID,
		FromKind:           models.ParticipantKind(from.Type),
		ToID:               to.ID,
		ToKind:             models.ParticipantKind(to.Type),
		Amount:             amount,
		Currency:           currency,
		ExchangeRateToBase: rate,
		Note:               fs.Note,
	}
	if !fs.RecordedAt.IsZero() {
		s.CreatedAt = fs.RecordedAt.Unix()
	}
	return s, nil
}

// currencyAndRate parses an optional rate and applies the base-currency
// defaults.
func currencyAndRate(currency, rate, base string) (string, decimal.Decimal, error) {
	var r decimal.NullDecimal
	if rate != "" {
		d, err := decimal.NewFromString(rate)
		if err != nil {
			return "", decimal.Zero, fmt.Errorf("invalid rate %q: %w", rate, err)
		}
		r = decimal.NewNullDecimal(d)
	}
	return calculator.ResolveRate(currency, base, r)
}
