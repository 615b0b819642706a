package models

import "time"

// OrderStatus is the single-letter server order status code.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "n"
	OrderStatusPaid     OrderStatus = "p"
	OrderStatusExpired  OrderStatus = "e"
	OrderStatusCanceled OrderStatus = "c"
)

// Order is the decoded payload of an "orders" replica record.
type Order struct {
	Code             string          `json:"code"`
	Status           OrderStatus     `json:"status"`
	Email            string          `json:"email,omitempty"`
	CheckInAttention bool            `json:"checkin_attention"`
	ValidIfPending   bool            `json:"valid_if_pending"`
	RequireApproval  bool            `json:"require_approval"`
	LastModified     time.Time       `json:"last_modified"`
	Positions        []OrderPosition `json:"positions"`
}

// OrderPosition is one ticket within an order. When projected into its own
// replica record during order sync the position payload is augmented with
// the owning order's code, status and attention flag so redemption checks
// never re-read the whole order.
type OrderPosition struct {
	ID            int64     `json:"id"`
	PositionID    int64     `json:"positionid"`
	Item          int64     `json:"item"`
	Variation     *int64    `json:"variation"`
	SubEvent      *int64    `json:"subevent"`
	Secret        string    `json:"secret"`
	AttendeeName  string    `json:"attendee_name,omitempty"`
	AttendeeEmail string    `json:"attendee_email,omitempty"`
	AddonTo       *int64    `json:"addon_to"`
	Answers       []Answer  `json:"answers,omitempty"`
	CheckIns      []CheckIn `json:"checkins,omitempty"`

	// Denormalized from the owning order during projection.
	OrderCode           string      `json:"order,omitempty"`
	OrderStatus         OrderStatus `json:"order_status,omitempty"`
	OrderEmail          string      `json:"order_email,omitempty"`
	OrderAttention      bool        `json:"order_checkin_attention,omitempty"`
	OrderValidIfPending bool        `json:"order_valid_if_pending,omitempty"`
}

// AnswerTo returns the supplied answer for the given question, if any.
func (p OrderPosition) AnswerTo(questionID int64) (Answer, bool) {
	for _, a := range p.Answers {
		if a.Question == questionID {
			return a, true
		}
	}
	return Answer{}, false
}

// RevokedSecret mirrors the server revoked secret resource.
type RevokedSecret struct {
	ID      int64     `json:"id"`
	Secret  string    `json:"secret"`
	Created time.Time `json:"created"`
}

// BlockedSecret mirrors the server blocked secret resource. Blocked may flip
// back to false, which unblocks the secret without deleting the row.
type BlockedSecret struct {
	ID      int64     `json:"id"`
	Secret  string    `json:"secret"`
	Blocked bool      `json:"blocked"`
	Updated time.Time `json:"updated"`
}

// ReusableMedium mirrors the server reusable media resource.
type ReusableMedium struct {
	ID                  int64     `json:"id"`
	Type                string    `json:"type"`
	Identifier          string    `json:"identifier"`
	Active              bool      `json:"active"`
	Updated             time.Time `json:"updated"`
	LinkedOrderPosition *int64    `json:"linked_orderposition"`
}
