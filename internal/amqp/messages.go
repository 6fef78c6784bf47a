package amqp

import (
	"encoding/json"
	"time"
)

const (
	ActionCreated  = "created"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
)

// TransactionEvent notifies downstream consumers about a ledger mutation.
// It carries only identifiers and totals; consumers fetch full records if
// they need them.
type TransactionEvent struct {
	Action         string    `json:"action"`
	TransactionIDs []string  `json:"transaction_ids"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewTransactionEvent(action string, ids ...string) *TransactionEvent {
	return &TransactionEvent{
		Action:         action,
		TransactionIDs: ids,
		Timestamp:      time.Now(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
