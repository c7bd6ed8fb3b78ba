package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event is emitted to subscribers after each applied transition.
type Event struct {
	ID        string     `json:"id"`
	Seq       uint64     `json:"seq"`
	Kind      EventKind  `json:"kind"`
	Action    ActionType `json:"action,omitempty"`
	Timestamp int64      `json:"timestamp"` // Unix timestamp
}

// String implements lifecycle.Event.
func (e Event) String() string {
	if e.Action == "" {
		return fmt.Sprintf("%s #%d", e.Kind, e.Seq)
	}
	return fmt.Sprintf("%s %s #%d", e.Kind, e.Action, e.Seq)
}

// JournalEntry is the durable record of one applied action.
type JournalEntry struct {
	ID     string          `json:"id"`
	Seq    uint64          `json:"seq"`
	At     time.Time       `json:"at"`
	Action json.RawMessage `json:"action"`
}

// Decode returns the recorded action.
func (e JournalEntry) Decode() (Action, error) {
	return UnmarshalAction(e.Action)
}

func newEventID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}
