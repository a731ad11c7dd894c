package amqp

import (
	"encoding/json"
	"time"
)

// Message actions understood by the sync worker.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// RequestSyncMessage tells the worker to reconcile one payment request with
// the sheets mirror. It carries only id and version; the worker reads the
// full record from SQLite, so a burst of edits collapses into one write.
type RequestSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewUpsertMessage(id, version int64) *RequestSyncMessage {
	return &RequestSyncMessage{
		ID:        id,
		Version:   version,
		Action:    ActionUpsert,
		Timestamp: time.Now(),
	}
}

func NewDeleteMessage(id int64) *RequestSyncMessage {
	return &RequestSyncMessage{
		ID:        id,
		Action:    ActionDelete,
		Timestamp: time.Now(),
	}
}

func (m *RequestSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RequestSyncMessageFromJSON(data []byte) (*RequestSyncMessage, error) {
	var msg RequestSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
