package models

import "encoding/json"

// Resource identifies one synchronizable server collection. The value is the
// path segment of the corresponding REST endpoint.
type Resource string

const (
	ResourceEvents         Resource = "events"
	ResourceSubEvents      Resource = "subevents"
	ResourceCategories     Resource = "categories"
	ResourceItems          Resource = "items"
	ResourceQuestions      Resource = "questions"
	ResourceQuotas         Resource = "quotas"
	ResourceTaxRules       Resource = "taxrules"
	ResourceTicketLayouts  Resource = "ticketlayouts"
	ResourceBadgeLayouts   Resource = "badgelayouts"
	ResourceBadgeItems     Resource = "badgeitems"
	ResourceCheckInLists   Resource = "checkinlists"
	ResourceRevokedSecrets Resource = "revokedsecrets"
	ResourceBlockedSecrets Resource = "blockedsecrets"
	ResourceMedia          Resource = "reusablemedia"
	ResourceOrders         Resource = "orders"
	ResourceSettings       Resource = "settings"

	// ResourceOrderPositions is a locally derived resource: position rows are
	// projected out of order payloads during order sync so that ticket
	// lookups never have to scan whole orders.
	ResourceOrderPositions Resource = "orderpositions"
)

// ReplicaRecord is one locally cached server resource instance. Payload holds
// the last representation seen from the server; Fields carries the scalar
// values denormalized out of the payload for querying.
type ReplicaRecord struct {
	LocalID   int64           `json:"local_id"`
	Resource  Resource        `json:"resource"`
	EventSlug string          `json:"event_slug"`
	ServerID  string          `json:"server_id"`
	Payload   json.RawMessage `json:"payload"`
	Fields    ReplicaFields   `json:"fields"`
}

// ReplicaFields are the denormalized query columns of a replica record. Which
// fields are populated depends on the resource; the zero value is valid for
// resources that need none of them.
type ReplicaFields struct {
	Secret    string `json:"secret,omitempty"`
	OrderCode string `json:"order_code,omitempty"`
	Email     string `json:"email,omitempty"`
	Item      int64  `json:"item,omitempty"`
	Variation int64  `json:"variation,omitempty"`
	SubEvent  int64  `json:"subevent,omitempty"`
	Status    string `json:"status,omitempty"`
	Name      string `json:"name,omitempty"`
	Position  int64  `json:"position,omitempty"`
	Layout    int64  `json:"layout,omitempty"`
	Blocked   bool   `json:"blocked,omitempty"`
}
