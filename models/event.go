package models

import "time"

// Event is the decoded payload of an "events" replica record.
type Event struct {
	Slug         string     `json:"slug"`
	Name         I18nString `json:"name"`
	Live         bool       `json:"live"`
	HasSubEvents bool       `json:"has_subevents"`
	DateFrom     *time.Time `json:"date_from,omitempty"`
	DateTo       *time.Time `json:"date_to,omitempty"`
	Currency     string     `json:"currency,omitempty"`
}

// SubEvent is the decoded payload of a "subevents" replica record.
type SubEvent struct {
	ID       int64      `json:"id"`
	Name     I18nString `json:"name"`
	Event    string     `json:"event"`
	Active   bool       `json:"active"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
}

// TaxRule mirrors the server tax rule resource. Rates are kept as the
// server-formatted decimal strings.
type TaxRule struct {
	ID   int64      `json:"id"`
	Name I18nString `json:"name"`
	Rate string     `json:"rate"`
}

// Quota mirrors the server quota resource.
type Quota struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Size     *int64  `json:"size"`
	Items    []int64 `json:"items"`
	SubEvent *int64  `json:"subevent"`
}
