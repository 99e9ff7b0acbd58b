package amqp

import (
	"encoding/json"
	"time"
)

// Refresh reasons carried on snapshot refresh messages.
const (
	ReasonManual    = "manual"
	ReasonStale     = "stale"
	ReasonScheduled = "scheduled"
)

// SnapshotRefreshMessage asks the worker to re-fetch one user's bank data.
// It carries only the user identifier and the reason; the worker pulls the
// data from the provider itself.
type SnapshotRefreshMessage struct {
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSnapshotRefreshMessage creates a refresh message for one user
func NewSnapshotRefreshMessage(userID, reason string) *SnapshotRefreshMessage {
	return &SnapshotRefreshMessage{
		UserID:    userID,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotRefreshMessageFromJSON creates a message from JSON bytes
func SnapshotRefreshMessageFromJSON(data []byte) (*SnapshotRefreshMessage, error) {
	var msg SnapshotRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, ErrEmptyUserID
	}
	return &msg, nil
}
