package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tripsplit/internal/calculator"
)

var (
	alice = calculator.UserRef("alice")
	bob   = calculator.GuestRef("bob")
	carol = calculator.UserRef("carol")
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dinnerInput() calculator.SummaryInput {
	return calculator.SummaryInput{
		TripID:       "t1",
		BaseCurrency: "EUR",
		Participants: []calculator.Entity{
			{Ref: alice, DisplayName: "Alice"},
			{Ref: bob, DisplayName: "Bob, Jr."},
			{Ref: carol, DisplayName: "Carol"},
		},
		Expenses: []calculator.Expense{
			{
				ID:                 "dinner",
				Description:        "Dinner",
				Amount:             dec("100"),
				Currency:           "EUR",
				ExchangeRateToBase: dec("1"),
				PaidBy:             alice,
				Splits: []calculator.Split{
					{Entity: alice, Amount: dec("33.34")},
					{Entity: bob, Amount: dec("33.33")},
					{Entity: carol, Amount: dec("33.33")},
				},
			},
			{
				ID:                 "sushi",
				Description:        "Sushi",
				Amount:             dec("3000"),
				Currency:           "JPY",
				ExchangeRateToBase: dec("0.0061"),
				PaidBy:             bob,
				Splits: []calculator.Split{
					{Entity: bob, Amount: dec("1500")},
					{Entity: carol, Amount: dec("1500")},
				},
			},
		},
	}
}

func readAll(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	return records
}

func TestPlaces(t *testing.T) {
	assert.Equal(t, int32(2), Places("EUR", CurrencyPlaces))
	assert.Equal(t, int32(0), Places("JPY", CurrencyPlaces))
	assert.Equal(t, int32(3), Places("KWD", CurrencyPlaces))
	assert.Equal(t, int32(4), Places("EUR", 4))
	assert.Equal(t, int32(0), Places("EUR", 0), "zero forces whole units")
}

func TestWriteBalancesCSV(t *testing.T) {
	s, err := calculator.ComputeSummary(dinnerInput())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteBalancesCSV(&buf, s, 2))

	records := readAll(t, &buf)
	require.Len(t, records, 4)
	assert.Equal(t, balancesHeader, records[0])
	assert.Equal(t, []string{"user", "alice", "Alice", "100.00", "33.34", "66.66", "EUR"}, records[1])
	// bob paid 18.30 for sushi and owes 33.33 + 9.15.
	assert.Equal(t, []string{"guest", "bob", "Bob, Jr.", "18.30", "42.48", "-24.18", "EUR"}, records[2])
}

func TestWriteSettlementsCSV(t *testing.T) {
	s, err := calculator.ComputeSummary(dinnerInput())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSettlementsCSV(&buf, s, 2))

	records := readAll(t, &buf)
	require.Len(t, records, 1+len(s.SuggestedSettlements))
	assert.Equal(t, settlementsHeader, records[0])
	for _, row := range records[1:] {
		assert.Equal(t, "alice", row[4], "every transfer goes to the only creditor")
		assert.Equal(t, "Alice", row[5])
		assert.Equal(t, "EUR", row[7])
	}
}

func TestWriteSettlementsCSV_Empty(t *testing.T) {
	s := &calculator.Summary{BaseCurrency: "EUR"}

	var buf bytes.Buffer
	require.NoError(t, WriteSettlementsCSV(&buf, s, 2))

	records := readAll(t, &buf)
	require.Len(t, records, 1)
}

func TestWriteExpensesCSV(t *testing.T) {
	in := dinnerInput()

	var buf bytes.Buffer
	require.NoError(t, WriteExpensesCSV(&buf, in.BaseCurrency, in.Expenses, 2))

	records := readAll(t, &buf)
	require.Len(t, records, 3)
	assert.Equal(t, expensesHeader, records[0])
	assert.Equal(t, []string{"dinner", "Dinner", "user:alice", "100.00", "EUR", "1", "100.00", "EUR"}, records[1])
	assert.Equal(t, []string{"sushi", "Sushi", "guest:bob", "3000", "JPY", "0.0061", "18.30", "EUR"}, records[2])
}
