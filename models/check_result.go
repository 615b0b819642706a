package models

import "time"

// CheckResultType is the outcome class of a redemption attempt. Every check
// provider, offline or not, resolves to this taxonomy.
type CheckResultType string

const (
	CheckResultValid           CheckResultType = "valid"
	CheckResultUsed            CheckResultType = "used"
	CheckResultInvalid         CheckResultType = "invalid"
	CheckResultUnpaid          CheckResultType = "unpaid"
	CheckResultBlocked         CheckResultType = "blocked"
	CheckResultRevoked         CheckResultType = "revoked"
	CheckResultProduct         CheckResultType = "product"
	CheckResultAnswersRequired CheckResultType = "answers_required"
	CheckResultError           CheckResultType = "error"
)

// CheckRequest carries one redemption attempt into a check provider.
// Answers is keyed by question server id; values are raw operator input.
type CheckRequest struct {
	Secret       string           `json:"secret"`
	ListID       int64            `json:"list_id"`
	Type         CheckInType      `json:"type"`
	Answers      map[int64]string `json:"answers,omitempty"`
	IgnoreUnpaid bool             `json:"ignore_unpaid"`
	Datetime     time.Time        `json:"datetime,omitzero"`
}

// RequiredAnswer describes one question still outstanding after a failed
// completeness check, echoing back any value already supplied.
type RequiredAnswer struct {
	Question     Question `json:"question"`
	CurrentValue string   `json:"current_value,omitempty"`
}

// CheckResult is the fully resolved outcome of a redemption attempt.
type CheckResult struct {
	Type             CheckResultType  `json:"type"`
	Reason           string           `json:"reason,omitempty"`
	TicketName       string           `json:"ticket_name,omitempty"`
	VariationName    string           `json:"variation_name,omitempty"`
	AttendeeName     string           `json:"attendee_name,omitempty"`
	OrderCode        string           `json:"order_code,omitempty"`
	FirstScanned     *time.Time       `json:"first_scanned,omitempty"`
	RequireAttention bool             `json:"require_attention"`
	CheckInAllowed   bool             `json:"checkin_allowed"`
	RequiredAnswers  []RequiredAnswer `json:"required_answers,omitempty"`
}

// SearchResult is one row of a ticket search.
type SearchResult struct {
	Secret           string      `json:"secret"`
	TicketName       string      `json:"ticket_name"`
	VariationName    string      `json:"variation_name,omitempty"`
	AttendeeName     string      `json:"attendee_name,omitempty"`
	OrderCode        string      `json:"order_code"`
	Status           OrderStatus `json:"status"`
	Paid             bool        `json:"paid"`
	Redeemed         bool        `json:"redeemed"`
	RequireAttention bool        `json:"require_attention"`
}

// StatusResult reports occupancy for one check-in list.
type StatusResult struct {
	EventName    string             `json:"event_name"`
	ListName     string             `json:"list_name"`
	TotalTickets int64              `json:"total_tickets"`
	CheckIns     int64              `json:"checkins"`
	Items        []StatusResultItem `json:"items"`
}

// StatusResultItem is the per-item slice of a StatusResult.
type StatusResultItem struct {
	ItemID     int64                   `json:"item_id"`
	Name       string                  `json:"name"`
	Total      int64                   `json:"total"`
	CheckIns   int64                   `json:"checkins"`
	Admission  bool                    `json:"admission"`
	Variations []StatusResultVariation `json:"variations,omitempty"`
}

// StatusResultVariation is the per-variation slice of a StatusResultItem.
type StatusResultVariation struct {
	VariationID int64  `json:"variation_id"`
	Name        string `json:"name"`
	Total       int64  `json:"total"`
	CheckIns    int64  `json:"checkins"`
}
