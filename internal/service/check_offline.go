package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventra/checkpoint/internal/logger"
	"github.com/eventra/checkpoint/internal/store"
	"github.com/eventra/checkpoint/internal/validators"
	"github.com/eventra/checkpoint/models"
)

const (
	// minSearchQueryLength is the shortest query Search will run. Shorter
	// queries would match most of the attendee list and leak data on a
	// stolen device.
	minSearchQueryLength = 4

	searchPageSize = 50
)

// offlineCheckProvider resolves redemptions entirely from the local
// replica. Accepted check-ins are queued for upload in the same
// transaction that records them locally, so a crash can never produce a
// redeemed ticket the server will not hear about.
type offlineCheckProvider struct {
	store  *store.ClientStorages
	event  string
	listID int64
	log    *logger.Logger
	now    func() time.Time
	nonce  func() string
}

// NewOfflineCheckProvider builds a TicketCheckProvider over the local
// replica, scoped to one check-in list.
func NewOfflineCheckProvider(st *store.ClientStorages, event string, listID int64, log *logger.Logger) TicketCheckProvider {
	return &offlineCheckProvider{
		store:  st,
		event:  event,
		listID: listID,
		log:    log,
		now:    time.Now,
		nonce:  uuid.NewString,
	}
}

func (p *offlineCheckProvider) Check(ctx context.Context, req models.CheckRequest) (models.CheckResult, error) {
	if req.Type == "" {
		req.Type = models.CheckInTypeEntry
	}
	if req.ListID == 0 {
		req.ListID = p.listID
	}
	if req.Datetime.IsZero() {
		req.Datetime = p.now()
	}

	list, err := p.list(ctx, req.ListID)
	if err != nil {
		return models.CheckResult{}, err
	}

	blocked, err := p.secretListed(ctx, models.ResourceBlockedSecrets, req.Secret)
	if err != nil {
		return models.CheckResult{}, err
	}
	if blocked {
		return models.CheckResult{Type: models.CheckResultBlocked}, nil
	}
	revoked, err := p.secretListed(ctx, models.ResourceRevokedSecrets, req.Secret)
	if err != nil {
		return models.CheckResult{}, err
	}
	if revoked {
		return models.CheckResult{Type: models.CheckResultRevoked}, nil
	}

	positions, err := p.store.Replica.RecordsBySecret(ctx, models.ResourceOrderPositions, p.event, req.Secret)
	if err != nil {
		return models.CheckResult{}, err
	}
	if len(positions) == 0 {
		return models.CheckResult{Type: models.CheckResultInvalid}, nil
	}
	var pos models.OrderPosition
	if err := json.Unmarshal(positions[0].Payload, &pos); err != nil {
		return models.CheckResult{}, fmt.Errorf("decode position %s: %w", positions[0].ServerID, err)
	}

	item, err := p.item(ctx, pos.Item)
	if err != nil {
		return models.CheckResult{}, err
	}

	result := models.CheckResult{
		TicketName:       item.Name.String(),
		AttendeeName:     pos.AttendeeName,
		OrderCode:        pos.OrderCode,
		RequireAttention: pos.OrderAttention || item.CheckInAttention,
	}
	if pos.Variation != nil {
		if v, ok := item.Variation(*pos.Variation); ok {
			result.VariationName = v.Value.String()
		}
	}

	if list.SubEvent != nil && (pos.SubEvent == nil || *pos.SubEvent != *list.SubEvent) {
		result.Type = models.CheckResultInvalid
		return result, nil
	}
	if !list.Allowed(pos.Item) {
		result.Type = models.CheckResultProduct
		return result, nil
	}

	switch pos.OrderStatus {
	case models.OrderStatusPaid:
	case models.OrderStatusPending:
		if !pos.OrderValidIfPending && !(req.IgnoreUnpaid && list.IncludePending) {
			result.Type = models.CheckResultUnpaid
			result.CheckInAllowed = list.IncludePending
			return result, nil
		}
	case models.OrderStatusExpired:
		result.Type = models.CheckResultInvalid
		result.Reason = "expired"
		return result, nil
	default:
		result.Type = models.CheckResultInvalid
		result.Reason = "canceled"
		return result, nil
	}

	if req.Type == models.CheckInTypeEntry && !list.AllowMultipleEntries {
		used, first, err := p.priorRedemption(ctx, req.ListID, req.Secret)
		if err != nil {
			return models.CheckResult{}, err
		}
		if used {
			result.Type = models.CheckResultUsed
			result.FirstScanned = first
			return result, nil
		}
	}

	var answers []models.Answer
	if req.Type == models.CheckInTypeEntry {
		answers, result.RequiredAnswers, err = p.resolveAnswers(ctx, item, pos, req.Answers)
		if err != nil {
			return models.CheckResult{}, err
		}
		if len(result.RequiredAnswers) > 0 {
			result.Type = models.CheckResultAnswersRequired
			return result, nil
		}
	}

	queued := models.QueuedCheckIn{
		EventSlug: p.event,
		Secret:    req.Secret,
		ListID:    req.ListID,
		Datetime:  req.Datetime,
		Nonce:     p.nonce(),
		Type:      req.Type,
		Answers:   answers,
	}
	local := models.LocalCheckIn{
		EventSlug:  p.event,
		ListID:     req.ListID,
		PositionID: positions[0].ServerID,
		Secret:     req.Secret,
		Datetime:   req.Datetime,
		Type:       req.Type,
		Source:     models.CheckInSourceLocal,
	}
	err = p.store.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := p.store.Queue.EnqueueCheckIn(ctx, queued); err != nil {
			return err
		}
		return p.store.CheckIns.InsertCheckIn(ctx, local)
	})
	if err != nil {
		return models.CheckResult{}, err
	}

	p.log.Info().Str("secret", req.Secret).Str("type", string(req.Type)).
		Str("order", pos.OrderCode).Msg("ticket redeemed locally")
	result.Type = models.CheckResultValid
	result.CheckInAllowed = true
	return result, nil
}

func (p *offlineCheckProvider) Search(ctx context.Context, query string, page int) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < minSearchQueryLength {
		return []models.SearchResult{}, nil
	}
	if page < 1 {
		page = 1
	}

	list, err := p.list(ctx, p.listID)
	if err != nil {
		return nil, err
	}
	items, err := p.itemIndex(ctx)
	if err != nil {
		return nil, err
	}

	// The list's coverage is part of the query itself so every page comes
	// back full. A list limited to zero products matches nothing.
	filter := store.PositionSearchFilter{SubEvent: list.SubEvent}
	if !list.AllProducts {
		if len(list.LimitProducts) == 0 {
			return []models.SearchResult{}, nil
		}
		filter.Items = list.LimitProducts
	}

	records, err := p.store.Replica.SearchPositions(ctx, p.event, query, filter,
		searchPageSize, uint64(page-1)*searchPageSize)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(records))
	for _, rec := range records {
		var pos models.OrderPosition
		if err := json.Unmarshal(rec.Payload, &pos); err != nil {
			return nil, fmt.Errorf("decode position %s: %w", rec.ServerID, err)
		}

		item := items[pos.Item]
		sr := models.SearchResult{
			Secret:           pos.Secret,
			TicketName:       item.Name.String(),
			AttendeeName:     pos.AttendeeName,
			OrderCode:        pos.OrderCode,
			Status:           pos.OrderStatus,
			Paid:             pos.OrderStatus == models.OrderStatusPaid,
			RequireAttention: pos.OrderAttention || item.CheckInAttention,
		}
		if pos.Variation != nil {
			if v, ok := item.Variation(*pos.Variation); ok {
				sr.VariationName = v.Value.String()
			}
		}
		redeemed, _, err := p.priorRedemption(ctx, p.listID, pos.Secret)
		if err != nil {
			return nil, err
		}
		sr.Redeemed = redeemed
		results = append(results, sr)
	}
	return results, nil
}

func (p *offlineCheckProvider) Status(ctx context.Context) (models.StatusResult, error) {
	list, err := p.list(ctx, p.listID)
	if err != nil {
		return models.StatusResult{}, err
	}

	result := models.StatusResult{ListName: list.Name}
	if events, err := p.store.Replica.RecordsByServerID(ctx, models.ResourceEvents, "", p.event); err != nil {
		return models.StatusResult{}, err
	} else if len(events) > 0 {
		var ev models.Event
		if err := json.Unmarshal(events[0].Payload, &ev); err == nil {
			result.EventName = ev.Name.String()
		}
	}

	itemRecords, err := p.store.Replica.ListRecords(ctx, models.ResourceItems, p.event)
	if err != nil {
		return models.StatusResult{}, err
	}
	positions, err := p.store.Replica.PositionCounts(ctx, p.event)
	if err != nil {
		return models.StatusResult{}, err
	}
	checkins, err := p.store.CheckIns.CheckInCounts(ctx, p.event, p.listID)
	if err != nil {
		return models.StatusResult{}, err
	}

	type key struct{ item, variation int64 }
	totals := make(map[key]int64)
	for _, pc := range positions {
		if list.SubEvent != nil && pc.SubEvent != *list.SubEvent {
			continue
		}
		switch models.OrderStatus(pc.Status) {
		case models.OrderStatusPaid:
		case models.OrderStatusPending:
			if !list.IncludePending {
				continue
			}
		default:
			continue
		}
		totals[key{pc.Item, pc.Variation}] += pc.Count
	}
	scanned := make(map[key]int64)
	for _, cc := range checkins {
		scanned[key{cc.Item, cc.Variation}] = cc.Count
	}

	items := make([]models.Item, 0, len(itemRecords))
	for _, rec := range itemRecords {
		var it models.Item
		if err := json.Unmarshal(rec.Payload, &it); err != nil {
			return models.StatusResult{}, fmt.Errorf("decode item %s: %w", rec.ServerID, err)
		}
		if list.Allowed(it.ID) {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].ID < items[j].ID
	})

	for _, it := range items {
		row := models.StatusResultItem{
			ItemID:    it.ID,
			Name:      it.Name.String(),
			Admission: it.Admission,
		}
		if len(it.Variations) == 0 {
			row.Total = totals[key{it.ID, 0}]
			row.CheckIns = scanned[key{it.ID, 0}]
		} else {
			for _, v := range it.Variations {
				vr := models.StatusResultVariation{
					VariationID: v.ID,
					Name:        v.Value.String(),
					Total:       totals[key{it.ID, v.ID}],
					CheckIns:    scanned[key{it.ID, v.ID}],
				}
				row.Total += vr.Total
				row.CheckIns += vr.CheckIns
				row.Variations = append(row.Variations, vr)
			}
		}
		result.TotalTickets += row.Total
		result.CheckIns += row.CheckIns
		result.Items = append(result.Items, row)
	}
	return result, nil
}

// priorRedemption reports whether the ticket was already redeemed on the
// list, either confirmed locally or still queued, and when it was first
// scanned.
func (p *offlineCheckProvider) priorRedemption(ctx context.Context, listID int64, secret string) (bool, *time.Time, error) {
	has, err := p.store.CheckIns.HasCheckIn(ctx, p.event, listID, secret)
	if err != nil {
		return false, nil, err
	}
	if !has {
		has, err = p.store.Queue.HasPendingCheckIn(ctx, p.event, listID, secret)
		if err != nil || !has {
			return has, nil, err
		}
	}
	first, err := p.store.CheckIns.FirstCheckIn(ctx, p.event, listID, secret)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return true, nil, nil
		}
		return true, nil, err
	}
	return true, &first.Datetime, nil
}

// resolveAnswers validates the supplied answers against the check-in
// questions of the item. Answers already stored on the position count as
// supplied. Returns the cleaned answers to persist and the questions still
// outstanding.
func (p *offlineCheckProvider) resolveAnswers(ctx context.Context, item models.Item, pos models.OrderPosition, supplied map[int64]string) ([]models.Answer, []models.RequiredAnswer, error) {
	records, err := p.store.Replica.ListRecords(ctx, models.ResourceQuestions, p.event)
	if err != nil {
		return nil, nil, err
	}
	var questions []models.Question
	for _, rec := range records {
		var q models.Question
		if err := json.Unmarshal(rec.Payload, &q); err != nil {
			return nil, nil, fmt.Errorf("decode question %s: %w", rec.ServerID, err)
		}
		if q.AskDuringCheckIn && q.AppliesTo(item.ID) {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Position < questions[j].Position })

	var cleaned []models.Answer
	var outstanding []models.RequiredAnswer
	for _, q := range questions {
		value, given := supplied[q.ID]
		if !given {
			if saved, ok := pos.AnswerTo(q.ID); ok {
				value = saved.Answer
				given = true
			}
		}

		if !given {
			if q.Required || q.Type == models.QuestionTypeBoolean {
				outstanding = append(outstanding, models.RequiredAnswer{Question: q})
			}
			continue
		}
		clean, err := validators.ValidateAnswer(q, value)
		if err != nil {
			outstanding = append(outstanding, models.RequiredAnswer{Question: q, CurrentValue: value})
			continue
		}
		if clean != "" {
			cleaned = append(cleaned, models.Answer{Question: q.ID, Answer: clean})
		}
	}
	return cleaned, outstanding, nil
}

func (p *offlineCheckProvider) list(ctx context.Context, listID int64) (models.CheckInList, error) {
	records, err := p.store.Replica.RecordsByServerID(ctx, models.ResourceCheckInLists, p.event, strconv.FormatInt(listID, 10))
	if err != nil {
		return models.CheckInList{}, err
	}
	if len(records) == 0 {
		return models.CheckInList{}, ErrCheckInListNotFound
	}
	var list models.CheckInList
	if err := json.Unmarshal(records[0].Payload, &list); err != nil {
		return models.CheckInList{}, fmt.Errorf("decode check-in list %d: %w", listID, err)
	}
	return list, nil
}

func (p *offlineCheckProvider) item(ctx context.Context, itemID int64) (models.Item, error) {
	records, err := p.store.Replica.RecordsByServerID(ctx, models.ResourceItems, p.event, strconv.FormatInt(itemID, 10))
	if err != nil {
		return models.Item{}, err
	}
	if len(records) == 0 {
		return models.Item{ID: itemID}, nil
	}
	var item models.Item
	if err := json.Unmarshal(records[0].Payload, &item); err != nil {
		return models.Item{}, fmt.Errorf("decode item %d: %w", itemID, err)
	}
	return item, nil
}

func (p *offlineCheckProvider) itemIndex(ctx context.Context) (map[int64]models.Item, error) {
	records, err := p.store.Replica.ListRecords(ctx, models.ResourceItems, p.event)
	if err != nil {
		return nil, err
	}
	items := make(map[int64]models.Item, len(records))
	for _, rec := range records {
		var it models.Item
		if err := json.Unmarshal(rec.Payload, &it); err != nil {
			return nil, fmt.Errorf("decode item %s: %w", rec.ServerID, err)
		}
		items[it.ID] = it
	}
	return items, nil
}

// secretListed reports whether the secret appears on a denylist resource.
// Blocked secret rows may carry blocked=false after an unblock, which does
// not count.
func (p *offlineCheckProvider) secretListed(ctx context.Context, resource models.Resource, secret string) (bool, error) {
	records, err := p.store.Replica.RecordsBySecret(ctx, resource, p.event, secret)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if resource == models.ResourceBlockedSecrets && !rec.Fields.Blocked {
			continue
		}
		return true, nil
	}
	return false, nil
}
