package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"debtledger/internal/ledger"
)

// LedgerChangedMessage tells consumers that a ledger was mutated. It carries
// no records; consumers reload the ledger from the shared persister.
type LedgerChangedMessage struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	Operation string    `json:"operation"`
	RecordID  int64     `json:"record_id,omitempty"`
	Persisted bool      `json:"persisted"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message for an applied mutation
func NewLedgerChangedMessage(ev ledger.ChangeEvent) *LedgerChangedMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LedgerChangedMessage{
		ID:        uuid.New(),
		Key:       ev.Key,
		Operation: ev.Operation,
		RecordID:  ev.RecordID,
		Persisted: ev.Persisted,
		Timestamp: ts.UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
