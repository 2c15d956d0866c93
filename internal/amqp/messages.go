package amqp

import (
	"encoding/json"
	"time"
)

// Change-event entities and operations carried on the finance exchange.
const (
	EntityLedgerRecord = "ledger_record"
	EntityDuesEvent    = "dues_event"
	EntityDuesRecord   = "dues_record"
)

// ChangeMessage announces one committed mutation. Consumers fetch the
// current state themselves; the message carries identity, not data.
type ChangeMessage struct {
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entityId"`
	Operation string    `json:"operation"` // create | update | delete
	EventID   string    `json:"eventId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(entity, entityID, operation string) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		EntityID:  entityID,
		Operation: operation,
		Timestamp: time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
