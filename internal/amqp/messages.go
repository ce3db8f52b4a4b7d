package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoBroker is returned when a publish is attempted without a configured
// broker connection.
var ErrNoBroker = errors.New("amqp broker not configured")

// ImportJobMessage carries one CSV import job to the worker. The CSV payload
// travels inline so the worker needs no shared filesystem with the server.
type ImportJobMessage struct {
	JobID     string    `json:"job_id"`
	Owner     string    `json:"owner"`
	CSV       string    `json:"csv"`
	Timestamp time.Time `json:"timestamp"`
}

// NewImportJobMessage creates an import job with a fresh job ID.
func NewImportJobMessage(owner, csv string) *ImportJobMessage {
	return &ImportJobMessage{
		JobID:     uuid.NewString(),
		Owner:     owner,
		CSV:       csv,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ImportJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportJobMessageFromJSON creates a message from JSON bytes.
func ImportJobMessageFromJSON(data []byte) (*ImportJobMessage, error) {
	var msg ImportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
