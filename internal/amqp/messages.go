package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Refresh request reasons.
const (
	ReasonManual    = "manual"
	ReasonScheduled = "scheduled"
	ReasonStale     = "stale-cache"
	ReasonStartup   = "startup"
)

// RefreshRequest asks the worker to run a combined dataset fetch. It carries
// no payload; the worker reads everything it needs from upstream.
type RefreshRequest struct {
	ID          uuid.UUID `json:"id"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requestedAt"`
}

// NewRefreshRequest creates a request with a fresh ID.
func NewRefreshRequest(reason string) *RefreshRequest {
	if reason == "" {
		reason = ReasonManual
	}
	return &RefreshRequest{
		ID:          uuid.New(),
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshRequestFromJSON decodes a message and rejects one without an ID.
func RefreshRequestFromJSON(data []byte) (*RefreshRequest, error) {
	var msg RefreshRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == uuid.Nil {
		return nil, errors.New("refresh request without id")
	}
	return &msg, nil
}
