package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Actions carried by a transaction event.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEventMessage is the lightweight event published after a
// transaction write. It carries only the id and the action; consumers fetch
// the full record from the database when they need it.
type TransactionEventMessage struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEventMessage(id int64, action string) *TransactionEventMessage {
	return &TransactionEventMessage{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal transaction event: %w", err)
	}
	return &msg, nil
}
