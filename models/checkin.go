package models

import "time"

// CheckInType distinguishes entry and exit scans.
type CheckInType string

const (
	CheckInTypeEntry CheckInType = "entry"
	CheckInTypeExit  CheckInType = "exit"
)

// CheckInList is the decoded payload of a "checkinlists" replica record.
type CheckInList struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"name"`
	AllProducts          bool    `json:"all_products"`
	LimitProducts        []int64 `json:"limit_products"`
	SubEvent             *int64  `json:"subevent"`
	IncludePending       bool    `json:"include_pending"`
	AllowMultipleEntries bool    `json:"allow_multiple_entries"`
}

// Allowed reports whether the list admits tickets of the given item.
func (l CheckInList) Allowed(itemID int64) bool {
	if l.AllProducts {
		return true
	}
	for _, id := range l.LimitProducts {
		if id == itemID {
			return true
		}
	}
	return false
}

// CheckIn is a server-confirmed redemption as embedded in order positions.
type CheckIn struct {
	ID       int64       `json:"id"`
	ListID   int64       `json:"list"`
	Datetime time.Time   `json:"datetime"`
	Type     CheckInType `json:"type"`
}

// CheckInSource records where a local check-in row came from.
type CheckInSource string

const (
	// CheckInSourceServer marks rows reconciled from order payloads.
	CheckInSourceServer CheckInSource = "server"
	// CheckInSourceLocal marks rows created by the offline check engine
	// ahead of server confirmation.
	CheckInSourceLocal CheckInSource = "local"
)

// LocalCheckIn is one row of the local check-in table: either a mirror of a
// server-confirmed check-in or a provisional local redemption.
type LocalCheckIn struct {
	ID         int64         `json:"id"`
	EventSlug  string        `json:"event_slug"`
	ListID     int64         `json:"list_id"`
	PositionID string        `json:"position_id"`
	Secret     string        `json:"secret"`
	Datetime   time.Time     `json:"datetime"`
	Type       CheckInType   `json:"type"`
	Source     CheckInSource `json:"source"`
	ServerID   int64         `json:"server_id,omitempty"`
}

// QueuedCheckIn is a locally accepted redemption awaiting upload. Nonce is
// generated once when the row is created and reused verbatim on every
// upload attempt so the server can deduplicate retries.
type QueuedCheckIn struct {
	ID        int64       `json:"id"`
	EventSlug string      `json:"event_slug"`
	Secret    string      `json:"secret"`
	ListID    int64       `json:"list_id"`
	Datetime  time.Time   `json:"datetime"`
	Nonce     string      `json:"nonce"`
	Type      CheckInType `json:"type"`
	Answers   []Answer    `json:"answers,omitempty"`
}
