package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

var (
	alice  = UserRef("alice")
	bob    = UserRef("bob")
	carol  = GuestRef("carol")
	dave   = UserRef("dave")
	family = GroupRef("family")
)

var tripRoster = []Entity{
	{Ref: alice, DisplayName: "Alice"},
	{Ref: bob, DisplayName: "Bob"},
	{Ref: carol, DisplayName: "Carol"},
	{Ref: dave, DisplayName: "Dave"},
	{Ref: family, DisplayName: "The Smiths"},
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var one = decimal.NewFromInt(1)

// baseExpense builds a base-currency (EUR) expense.
func baseExpense(id string, amount string, payer EntityRef, splits ...Split) Expense {
	return Expense{
		ID:                 id,
		Amount:             dec(amount),
		Currency:           "EUR",
		ExchangeRateToBase: one,
		PaidBy:             payer,
		Splits:             splits,
	}
}

func split(ref EntityRef, amount string) Split {
	return Split{Entity: ref, Amount: dec(amount)}
}

func settlement(id string, from, to EntityRef, amount string) RecordedSettlement {
	return RecordedSettlement{
		ID:                 id,
		From:               from,
		To:                 to,
		Amount:             dec(amount),
		Currency:           "EUR",
		ExchangeRateToBase: one,
	}
}

func checkDecimal(t *testing.T, what string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", what, got, want)
	}
}

// wantFault fails unless err is a *Fault of the given sentinel kind.
func wantFault(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}
	var fault *Fault
	if !errors.As(err, &fault) {
		t.Fatalf("error %v is not a *Fault", err)
	}
}

func netOf(t *testing.T, balances []EntityBalance, ref EntityRef) decimal.Decimal {
	t.Helper()
	for _, b := range balances {
		if b.Entity == ref {
			return b.NetBalance
		}
	}
	t.Fatalf("no balance line for %s", ref)
	return decimal.Zero
}
