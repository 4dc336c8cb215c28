package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeAccountSnapshot = "account.snapshot"
	EventTypeRunCompleted    = "run.completed"
)

// Event is the envelope every published message travels in
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	RunID     uuid.UUID       `json:"run_id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// AccountSnapshotEvent carries the final state of one client account.
// Amounts are rendered with four fractional digits.
type AccountSnapshotEvent struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

// RunCompletedEvent summarises a run once every snapshot has been published
type RunCompletedEvent struct {
	Accounts  int            `json:"accounts"`
	Applied   map[string]int `json:"applied"`
	Rejected  map[string]int `json:"rejected"`
	Malformed int            `json:"malformed"`
}

// NewEvent creates a new event
func NewEvent(eventType string, runID uuid.UUID, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Data:      dataBytes,
	}, nil
}

// ParseEventData parses event data into the specified type
func ParseEventData[T any](event *Event) (*T, error) {
	var data T
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
