package models

// Item is the decoded payload of an "items" replica record.
type Item struct {
	ID               int64           `json:"id"`
	Name             I18nString      `json:"name"`
	InternalName     string          `json:"internal_name,omitempty"`
	Active           bool            `json:"active"`
	Admission        bool            `json:"admission"`
	Position         int64           `json:"position"`
	Category         *int64          `json:"category"`
	CheckInAttention bool            `json:"checkin_attention"`
	Variations       []ItemVariation `json:"variations,omitempty"`
}

// ItemVariation is one purchasable variation of an item.
type ItemVariation struct {
	ID       int64      `json:"id"`
	Value    I18nString `json:"value"`
	Active   bool       `json:"active"`
	Position int64      `json:"position"`
}

// Variation returns the variation with the given server id, if any.
func (i Item) Variation(id int64) (ItemVariation, bool) {
	for _, v := range i.Variations {
		if v.ID == id {
			return v, true
		}
	}
	return ItemVariation{}, false
}

// ItemCategory mirrors the server item category resource.
type ItemCategory struct {
	ID       int64      `json:"id"`
	Name     I18nString `json:"name"`
	Position int64      `json:"position"`
	IsAddon  bool       `json:"is_addon"`
}

// TicketLayout mirrors the server ticket layout resource. ItemAssignments
// lists the items this layout renders tickets for; during sync the
// assignment is projected onto the item replica records.
type TicketLayout struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Default         bool             `json:"default"`
	ItemAssignments []itemAssignment `json:"item_assignments,omitempty"`
}

type itemAssignment struct {
	Item int64 `json:"item"`
}

// AssignedItems returns the server ids of all items the layout applies to.
func (l TicketLayout) AssignedItems() []int64 {
	ids := make([]int64, 0, len(l.ItemAssignments))
	for _, a := range l.ItemAssignments {
		ids = append(ids, a.Item)
	}
	return ids
}

// BadgeItem links a badge layout to one item.
type BadgeItem struct {
	ID     int64 `json:"id"`
	Item   int64 `json:"item"`
	Layout int64 `json:"layout"`
}
