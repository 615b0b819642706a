package models

import (
	"encoding/json"
	"time"
)

// Receipt is a locally recorded point-of-sale receipt. The line data stays
// opaque to the sync core; only lifecycle fields are modeled. ServerID is
// zero until the first successful upload, which makes retries create-once.
type Receipt struct {
	ID        int64           `json:"id"`
	EventSlug string          `json:"event_slug"`
	ServerID  int64           `json:"server_id,omitempty"`
	Open      bool            `json:"open"`
	Payload   json.RawMessage `json:"payload"`
	Created   time.Time       `json:"created"`
}

// Closing is a locally recorded till closing, uploaded once after close.
type Closing struct {
	ID        int64           `json:"id"`
	EventSlug string          `json:"event_slug"`
	ServerID  int64           `json:"server_id,omitempty"`
	Open      bool            `json:"open"`
	Payload   json.RawMessage `json:"payload"`
	Created   time.Time       `json:"created"`
}
