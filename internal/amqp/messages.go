package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Reasons carried by a budget check message. Workers only use them for
// logging; every reason triggers the same evaluation.
const (
	ReasonExpenseCreated = "expense_created"
	ReasonExpenseUpdated = "expense_updated"
	ReasonExpenseDeleted = "expense_deleted"
	ReasonSweep          = "sweep"
)

// BudgetCheckMessage asks a worker to re-evaluate every budget of one user
// for the current month. It carries no amounts; the worker reads the current
// state from the database, so stale or duplicate deliveries are harmless.
type BudgetCheckMessage struct {
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetCheckMessage(userID, reason string) *BudgetCheckMessage {
	return &BudgetCheckMessage{
		UserID:    userID,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (m *BudgetCheckMessage) Validate() error {
	if m.UserID == "" {
		return fmt.Errorf("budget check message without user id")
	}
	return nil
}

func (m *BudgetCheckMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetCheckMessageFromJSON(data []byte) (*BudgetCheckMessage, error) {
	var msg BudgetCheckMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
