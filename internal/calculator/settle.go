package calculator

import (
	"container/heap"

	"github.com/shopspring/decimal"
)

// SuggestedSettlement is a proposed transfer from a debtor to a creditor.
type SuggestedSettlement struct {
	From   EntityRef       `json:"from"`
	To     EntityRef       `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// SimplifyDebts turns signed net balances into pairwise transfers using
// greedy matching: the largest debtor always pays the largest creditor as
// much as either side allows.
//
// Greedy matching is not guaranteed to find the fewest transfers (exact
// minimization is NP-hard) but it is deterministic and emits at most
// creditors+debtors-1 transfers. Equal magnitudes are ordered by entity ID.
// Balances within Tolerance of zero are treated as settled.
func SimplifyDebts(balances []EntityBalance) ([]SuggestedSettlement, error) {
	sum := decimal.Zero
	creditors := &positionHeap{}
	debtors := &positionHeap{}
	for _, bal := range balances {
		sum = sum.Add(bal.NetBalance)
		switch {
		case bal.NetBalance.GreaterThan(Tolerance):
			*creditors = append(*creditors, position{ref: bal.Entity, amount: bal.NetBalance})
		case bal.NetBalance.LessThan(Tolerance.Neg()):
			*debtors = append(*debtors, position{ref: bal.Entity, amount: bal.NetBalance.Neg()})
		}
	}
	if creditors.Len()+debtors.Len() == 1 {
		lone := *creditors
		if debtors.Len() == 1 {
			lone = *debtors
		}
		return nil, degenerate(lone[0].ref.Key(), "only entity with an open balance (%s)", lone[0].amount)
	}
	if !withinTolerance(sum) {
		return nil, dataIntegrity("", "balances sum to %s instead of zero", sum)
	}
	if creditors.Len()+debtors.Len() == 0 {
		return []SuggestedSettlement{}, nil
	}

	heap.Init(creditors)
	heap.Init(debtors)

	plan := make([]SuggestedSettlement, 0, creditors.Len()+debtors.Len()-1)
	for creditors.Len() > 0 && debtors.Len() > 0 {
		creditor := heap.Pop(creditors).(position)
		debtor := heap.Pop(debtors).(position)

		transfer := decimal.Min(creditor.amount, debtor.amount)
		plan = append(plan, SuggestedSettlement{
			From:   debtor.ref,
			To:     creditor.ref,
			Amount: transfer,
		})

		creditor.amount = creditor.amount.Sub(transfer)
		debtor.amount = debtor.amount.Sub(transfer)
		if !withinTolerance(creditor.amount) {
			heap.Push(creditors, creditor)
		}
		if !withinTolerance(debtor.amount) {
			heap.Push(debtors, debtor)
		}
	}

	// Residues dropped within Tolerance on one side can add up to more
	// than Tolerance on the other.
	for _, left := range [...]*positionHeap{creditors, debtors} {
		if left.Len() > 0 {
			p := (*left)[0]
			return nil, dataIntegrity(p.ref.Key(), "%s left unsettled after matching", p.amount)
		}
	}
	return plan, nil
}

// position is an open balance magnitude waiting to be matched.
type position struct {
	ref    EntityRef
	amount decimal.Decimal
}

// positionHeap is a max-heap by amount, ties broken by entity ref ascending.
type positionHeap []position

func (h positionHeap) Len() int { return len(h) }

func (h positionHeap) Less(i, j int) bool {
	if c := h[i].amount.Cmp(h[j].amount); c != 0 {
		return c > 0
	}
	return compareRefs(h[i].ref, h[j].ref) < 0
}

func (h positionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *positionHeap) Push(x any) { *h = append(*h, x.(position)) }

func (h *positionHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}
