package events

import (
	"encoding/json"
	"time"
)

// Event kinds carried on the ledger queue.
const (
	KindExpenseRecorded = "expense.recorded"
	KindExpenseReversed = "expense.reversed"
)

// LedgerEvent is the wire form of a capacity-changing expense operation.
// It carries identifiers and the amount, not the full expense; consumers
// re-read the database when they need more.
type LedgerEvent struct {
	Kind        string    `json:"kind"`
	ExpenseID   string    `json:"expense_id"`
	BudgetID    string    `json:"budget_id"`
	UserID      string    `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
