package calculator

import (
	"errors"
	"fmt"
)

// FaultKind classifies why the engine refused its input.
type FaultKind string

const (
	// FaultDataIntegrity means the input is corrupt: splits that do not add
	// up, bad exchange rates, unresolved entities, or money not conserved.
	FaultDataIntegrity FaultKind = "data_integrity"
	// FaultDegenerateInput means the input cannot describe a real trip:
	// non-positive amounts, self-payments, or a lone unbalanced entity.
	FaultDegenerateInput FaultKind = "degenerate_input"
)

var (
	ErrDataIntegrity   = errors.New("data integrity fault")
	ErrDegenerateInput = errors.New("degenerate input fault")
)

// Fault is returned for every input the engine rejects. No partial result
// accompanies a Fault.
type Fault struct {
	Kind    FaultKind
	Ref     string // expense, settlement or entity the fault was found on
	Message string
}

func (f *Fault) Error() string {
	if f.Ref == "" {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", f.Kind, f.Ref, f.Message)
}

// Unwrap lets callers match on ErrDataIntegrity / ErrDegenerateInput.
func (f *Fault) Unwrap() error {
	switch f.Kind {
	case FaultDataIntegrity:
		return ErrDataIntegrity
	case FaultDegenerateInput:
		return ErrDegenerateInput
	}
	return nil
}

func dataIntegrity(ref, format string, args ...any) error {
	return &Fault{Kind: FaultDataIntegrity, Ref: ref, Message: fmt.Sprintf(format, args...)}
}

func degenerate(ref, format string, args ...any) error {
	return &Fault{Kind: FaultDegenerateInput, Ref: ref, Message: fmt.Sprintf(format, args...)}
}

// FaultKindOf returns the kind of a Fault anywhere in err's chain.
func FaultKindOf(err error) (FaultKind, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}
