package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/eventra/checkpoint/models"
)

// resourceAdapters returns the download plan in dependency order: catalog
// data first, then secrets and orders, settings last. The check engine
// reads across these resources, so anything orders reference must land
// before the orders themselves.
func resourceAdapters() []resourceAdapter {
	return []resourceAdapter{
		{
			resource:       models.ResourceEvents,
			organizerScope: true,
			path: func(org, _ string) string {
				return fmt.Sprintf("organizers/%s/events/", org)
			},
			identity: slugIdentity,
			fields:   eventFields,
		},
		{
			resource: models.ResourceSubEvents,
			path:     eventPath("subevents"),
			identity: idIdentity,
			fields:   subEventFields,
		},
		{
			resource: models.ResourceCategories,
			path:     eventPath("categories"),
			identity: idIdentity,
			fields:   categoryFields,
		},
		{
			resource: models.ResourceItems,
			path:     eventPath("items"),
			identity: idIdentity,
			fields:   itemFields,
		},
		{
			resource: models.ResourceQuestions,
			path:     eventPath("questions"),
			identity: idIdentity,
			fields:   questionFields,
		},
		{
			resource: models.ResourceQuotas,
			path:     eventPath("quotas"),
			identity: idIdentity,
		},
		{
			resource: models.ResourceTaxRules,
			path:     eventPath("taxrules"),
			identity: idIdentity,
		},
		{
			resource:    models.ResourceTicketLayouts,
			path:        eventPath("ticketlayouts"),
			identity:    idIdentity,
			postProcess: reconcileTicketLayouts,
		},
		{
			resource: models.ResourceBadgeLayouts,
			path:     eventPath("badgelayouts"),
			identity: idIdentity,
			// Badge plugin may be disabled for the event.
			tolerateNotFound: true,
		},
		{
			resource:         models.ResourceBadgeItems,
			path:             eventPath("badgeitems"),
			identity:         idIdentity,
			tolerateNotFound: true,
		},
		{
			resource: models.ResourceCheckInLists,
			path:     eventPath("checkinlists"),
			identity: idIdentity,
			fields:   checkInListFields,
		},
		{
			resource:     models.ResourceRevokedSecrets,
			path:         eventPath("revokedsecrets"),
			identity:     idIdentity,
			fields:       revokedSecretFields,
			cursorParam:  "created_since",
			ordering:     "created",
			recordMarker: payloadMarker("created"),
		},
		{
			resource:     models.ResourceBlockedSecrets,
			path:         eventPath("blockedsecrets"),
			identity:     idIdentity,
			fields:       blockedSecretFields,
			cursorParam:  "updated_since",
			ordering:     "updated",
			recordMarker: payloadMarker("updated"),
		},
		{
			resource:       models.ResourceMedia,
			organizerScope: true,
			path: func(org, _ string) string {
				return fmt.Sprintf("organizers/%s/reusablemedia/", org)
			},
			identity:     idIdentity,
			cursorParam:  "updated_since",
			ordering:     "updated",
			recordMarker: payloadMarker("updated"),
		},
		{
			resource:     models.ResourceOrders,
			path:         eventPath("orders"),
			identity:     identityField("code"),
			fields:       orderFields,
			query:        url.Values{"with_pdf_data": {"true"}},
			cursorParam:  "modified_since",
			ordering:     "last_modified",
			recordMarker: payloadMarker("last_modified"),
			resumable:    true,
			postProcess:  reconcileOrderPositions,
			postDelete:   dropPositionsOfOrders,
		},
		{
			resource: models.ResourceSettings,
			single:   true,
			path: func(org, event string) string {
				return fmt.Sprintf("organizers/%s/events/%s/settings/", org, event)
			},
			identity: func(map[string]any) (string, error) { return "settings", nil },
		},
	}
}

func eventPath(segment string) func(org, event string) string {
	return func(org, event string) string {
		return fmt.Sprintf("organizers/%s/events/%s/%s/", org, event, segment)
	}
}

// idIdentity reads the numeric "id" field every standard collection carries.
func idIdentity(payload map[string]any) (string, error) {
	return identityField("id")(payload)
}

func slugIdentity(payload map[string]any) (string, error) {
	return identityField("slug")(payload)
}

// identityField extracts the named field as the server identity string.
// Numbers arrive as float64 from the generic decoder and are rendered
// without an exponent.
func identityField(name string) func(payload map[string]any) (string, error) {
	return func(payload map[string]any) (string, error) {
		switch v := payload[name].(type) {
		case string:
			if v == "" {
				return "", fmt.Errorf("empty %q field", name)
			}
			return v, nil
		case float64:
			return strconv.FormatInt(int64(v), 10), nil
		case json.Number:
			return v.String(), nil
		default:
			return "", fmt.Errorf("missing %q field", name)
		}
	}
}

// payloadMarker reads the named field as the record's change marker.
func payloadMarker(name string) func(payload map[string]any) string {
	return func(payload map[string]any) string {
		s, _ := payload[name].(string)
		return s
	}
}

func eventFields(raw json.RawMessage) models.ReplicaFields {
	var e models.Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return models.ReplicaFields{}
	}
	return models.ReplicaFields{Name: e.Name.String()}
}

func subEventFields(raw json.RawMessage) models.ReplicaFields {
	var se models.SubEvent
	if err := json.Unmarshal(raw, &se); err != nil {
		return models.ReplicaFields{}
	}
	return models.ReplicaFields{Name: se.Name.String()}
}

func categoryFields(raw json.RawMessage) models.ReplicaFields {
	var c models.ItemCategory
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.ReplicaFields{}
	}
	return models.ReplicaFields{Name: c.Name.String(), Position: c.Position}
}

func itemFields(raw json.RawMessage) models.ReplicaFields {
	var it models.Item
	if err := json.Unmarshal(raw, &it); err != nil {
		return models.ReplicaFields{}
	}
	return models.ReplicaFields{Name: it.Name.String(), Position: it.Position}
}

func questionFields(raw json.RawMessage) models.ReplicaFields {
	var q models.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return models.ReplicaFields{}
	}
	return models.ReplicaFields{Name: q.Question.String(), Position: q.Position}
}

func checkInListFields(raw json.RawMessage) models.ReplicaFields {
	var l models.CheckInList
	if err := json.Unmarshal(raw, &l); err != nil {
		return models.ReplicaFields{}
	}
	f := models.ReplicaFields{Name: l.Name}
	if l.SubEvent != nil {
		f.SubEvent = *l.SubEvent
	}
	return f
}

func revokedSecretFields(raw json.RawMessage) models.ReplicaFields {
	var r models.RevokedSecret
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.ReplicaFields{}
	}
	return models.ReplicaFields{Secret: r.Secret}
}

func blockedSecretFields(raw json.RawMessage) models.ReplicaFields {
	var b models.BlockedSecret
	if err := json.Unmarshal(raw, &b); err != nil {
		return models.ReplicaFields{}
	}
	return models.ReplicaFields{Secret: b.Secret, Blocked: b.Blocked}
}

func orderFields(raw json.RawMessage) models.ReplicaFields {
	var o models.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return models.ReplicaFields{}
	}
	return models.ReplicaFields{OrderCode: o.Code, Email: o.Email, Status: string(o.Status)}
}

// reconcileTicketLayouts projects the layout assignment of every stored
// layout onto the item records. Runs over the full layout set, not only
// the touched ones, because removing an assignment from layout A while
// adding it to layout B must resolve to B regardless of merge order.
func reconcileTicketLayouts(ctx context.Context, d *downloader, slug string, _ []models.ReplicaRecord) error {
	layouts, err := d.store.Replica.ListRecords(ctx, models.ResourceTicketLayouts, slug)
	if err != nil {
		return err
	}
	byItem := make(map[string]int64)
	for _, rec := range layouts {
		var layout models.TicketLayout
		if err := json.Unmarshal(rec.Payload, &layout); err != nil {
			return fmt.Errorf("decode ticket layout %s: %w", rec.ServerID, err)
		}
		for _, itemID := range layout.AssignedItems() {
			byItem[strconv.FormatInt(itemID, 10)] = layout.ID
		}
	}
	return d.store.Replica.ReconcileItemLayouts(ctx, slug, byItem)
}

// reconcileOrderPositions projects the positions of every inserted or
// updated order into the derived order position records and reconciles the
// server-confirmed check-ins embedded in them.
func reconcileOrderPositions(ctx context.Context, d *downloader, slug string, touched []models.ReplicaRecord) error {
	for _, rec := range touched {
		var ord models.Order
		if err := json.Unmarshal(rec.Payload, &ord); err != nil {
			return fmt.Errorf("decode order %s: %w", rec.ServerID, err)
		}
		if err := projectOrder(ctx, d, slug, ord); err != nil {
			return err
		}
	}
	return nil
}

func projectOrder(ctx context.Context, d *downloader, slug string, ord models.Order) error {
	existing, err := d.store.Replica.RecordsByOrderCode(ctx, models.ResourceOrderPositions, slug, ord.Code)
	if err != nil {
		return err
	}
	known := make(map[string]models.ReplicaRecord, len(existing))
	for _, rec := range existing {
		known[rec.ServerID] = rec
	}

	var inserts []models.ReplicaRecord
	for _, pos := range ord.Positions {
		pos.OrderCode = ord.Code
		pos.OrderStatus = ord.Status
		pos.OrderEmail = ord.Email
		pos.OrderAttention = ord.CheckInAttention
		pos.OrderValidIfPending = ord.ValidIfPending

		raw, err := json.Marshal(pos)
		if err != nil {
			return fmt.Errorf("encode position %d of order %s: %w", pos.ID, ord.Code, err)
		}
		id := strconv.FormatInt(pos.ID, 10)
		rec := models.ReplicaRecord{
			Resource:  models.ResourceOrderPositions,
			EventSlug: slug,
			ServerID:  id,
			Payload:   raw,
			Fields:    positionFields(ord, pos),
		}

		if old, seen := known[id]; seen {
			delete(known, id)
			same, err := payloadEqual(old.Payload, raw)
			if err != nil {
				return err
			}
			if !same {
				rec.LocalID = old.LocalID
				if err := d.store.Replica.UpdateRecord(ctx, rec); err != nil {
					return err
				}
			}
		} else {
			inserts = append(inserts, rec)
		}

		if err := d.store.CheckIns.ReplaceServerCheckIns(ctx, slug, id, pos.Secret, pos.CheckIns); err != nil {
			return err
		}
	}
	if len(inserts) > 0 {
		if err := d.store.Replica.InsertRecords(ctx, inserts); err != nil {
			return err
		}
	}

	if len(known) == 0 {
		return nil
	}
	localIDs := make([]int64, 0, len(known))
	positionIDs := make([]string, 0, len(known))
	for id, rec := range known {
		localIDs = append(localIDs, rec.LocalID)
		positionIDs = append(positionIDs, id)
	}
	if err := d.store.CheckIns.DeleteForPositions(ctx, slug, positionIDs); err != nil {
		return err
	}
	return d.store.Replica.DeleteRecords(ctx, localIDs)
}

func positionFields(ord models.Order, pos models.OrderPosition) models.ReplicaFields {
	email := pos.AttendeeEmail
	if email == "" {
		email = ord.Email
	}
	f := models.ReplicaFields{
		Secret:    pos.Secret,
		OrderCode: ord.Code,
		Email:     email,
		Item:      pos.Item,
		Status:    string(ord.Status),
		Name:      pos.AttendeeName,
		Position:  pos.PositionID,
	}
	if pos.Variation != nil {
		f.Variation = *pos.Variation
	}
	if pos.SubEvent != nil {
		f.SubEvent = *pos.SubEvent
	}
	return f
}

// dropPositionsOfOrders removes the derived position records and check-in
// rows of orders gone from the server.
func dropPositionsOfOrders(ctx context.Context, d *downloader, slug string, deleted []models.ReplicaRecord) error {
	for _, rec := range deleted {
		positions, err := d.store.Replica.RecordsByOrderCode(ctx, models.ResourceOrderPositions, slug, rec.Fields.OrderCode)
		if err != nil {
			return err
		}
		if len(positions) == 0 {
			continue
		}
		localIDs := make([]int64, 0, len(positions))
		positionIDs := make([]string, 0, len(positions))
		for _, p := range positions {
			localIDs = append(localIDs, p.LocalID)
			positionIDs = append(positionIDs, p.ServerID)
		}
		if err := d.store.CheckIns.DeleteForPositions(ctx, slug, positionIDs); err != nil {
			return err
		}
		if err := d.store.Replica.DeleteRecords(ctx, localIDs); err != nil {
			return err
		}
	}
	return nil
}
