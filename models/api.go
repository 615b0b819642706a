package models

import (
	"encoding/json"
	"time"
)

// Page is one page of a collection endpoint. Next is the server-supplied
// link to the following page ("" on the last page). Marker is the change
// marker the server attached to the page, when the resource exposes one.
type Page struct {
	Count   int64             `json:"count"`
	Next    string            `json:"next"`
	Results []json.RawMessage `json:"results"`
	Marker  string            `json:"-"`
}

// RedeemStatus is the server response vocabulary for redemption calls.
type RedeemStatus string

const (
	RedeemStatusOK         RedeemStatus = "ok"
	RedeemStatusIncomplete RedeemStatus = "incomplete"
	RedeemStatusError      RedeemStatus = "error"
)

// Server-side redemption rejection reasons.
const (
	RedeemReasonAlreadyRedeemed = "already_redeemed"
	RedeemReasonUnknownTicket   = "unknown_ticket"
	RedeemReasonUnpaid          = "unpaid"
	RedeemReasonProduct         = "product"
	RedeemReasonBlocked         = "blocked"
	RedeemReasonRevoked         = "revoked"
)

// RedeemRequest is the body of a redemption call. Nonce must be stable
// across retries of the same logical attempt.
type RedeemRequest struct {
	Datetime           *time.Time        `json:"datetime,omitempty"`
	Type               CheckInType       `json:"type"`
	Force              bool              `json:"force"`
	IgnoreUnpaid       bool              `json:"ignore_unpaid"`
	Nonce              string            `json:"nonce"`
	Answers            map[string]string `json:"answers,omitempty"`
	QuestionsSupported bool              `json:"questions_supported"`
}

// RedeemResponse is the decoded body of a redemption call.
type RedeemResponse struct {
	Status           RedeemStatus    `json:"status"`
	Reason           string          `json:"reason,omitempty"`
	RequireAttention bool            `json:"require_attention"`
	Position         json.RawMessage `json:"position,omitempty"`
	Questions        []Question      `json:"questions,omitempty"`
}

// CreatedResponse is the decoded body of a create-once upload (receipts,
// closings).
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// ProxyCheckRequest forwards a whole check request to an intermediary.
type ProxyCheckRequest struct {
	EventSlug string       `json:"event"`
	Request   CheckRequest `json:"request"`
}
