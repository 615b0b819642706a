package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eventra/checkpoint/internal/adapter"
	"github.com/eventra/checkpoint/internal/logger"
	"github.com/eventra/checkpoint/internal/store"
	"github.com/eventra/checkpoint/models"
)

// onlineCheckProvider asks the server to resolve every redemption. The
// local replica is still consulted for catalog names so results render the
// same as offline ones. Transport failures surface as errors; callers that
// want graceful degradation fall back to an offline provider.
type onlineCheckProvider struct {
	store     *store.ClientStorages
	api       adapter.APIClient
	organizer string
	event     string
	listID    int64
	log       *logger.Logger
	nonce     func() string
}

// NewOnlineCheckProvider builds a TicketCheckProvider backed by the live
// server API, scoped to one check-in list.
func NewOnlineCheckProvider(st *store.ClientStorages, api adapter.APIClient, organizer, event string, listID int64, log *logger.Logger) TicketCheckProvider {
	return &onlineCheckProvider{
		store:     st,
		api:       api,
		organizer: organizer,
		event:     event,
		listID:    listID,
		log:       log,
		nonce:     uuid.NewString,
	}
}

func (p *onlineCheckProvider) Check(ctx context.Context, req models.CheckRequest) (models.CheckResult, error) {
	if req.Type == "" {
		req.Type = models.CheckInTypeEntry
	}
	listID := req.ListID
	if listID == 0 {
		listID = p.listID
	}

	body := models.RedeemRequest{
		Type:               req.Type,
		IgnoreUnpaid:       req.IgnoreUnpaid,
		Nonce:              p.nonce(),
		QuestionsSupported: true,
	}
	if !req.Datetime.IsZero() {
		dt := req.Datetime
		body.Datetime = &dt
	}
	if len(req.Answers) > 0 {
		body.Answers = make(map[string]string, len(req.Answers))
		for id, v := range req.Answers {
			body.Answers[strconv.FormatInt(id, 10)] = v
		}
	}

	resp, err := p.api.Redeem(ctx, p.event, listID, req.Secret, body)
	if err != nil {
		return models.CheckResult{}, err
	}
	return p.resultFromResponse(ctx, resp), nil
}

func (p *onlineCheckProvider) resultFromResponse(ctx context.Context, resp models.RedeemResponse) models.CheckResult {
	result := models.CheckResult{RequireAttention: resp.RequireAttention}

	if len(resp.Position) > 0 {
		var pos models.OrderPosition
		if err := json.Unmarshal(resp.Position, &pos); err == nil {
			result.AttendeeName = pos.AttendeeName
			result.OrderCode = pos.OrderCode
			p.nameTicket(ctx, &result, pos)
			if first := firstEntry(pos.CheckIns); first != nil {
				result.FirstScanned = first
			}
		}
	}

	switch resp.Status {
	case models.RedeemStatusOK:
		result.Type = models.CheckResultValid
		result.CheckInAllowed = true
	case models.RedeemStatusIncomplete:
		result.Type = models.CheckResultAnswersRequired
		for _, q := range resp.Questions {
			result.RequiredAnswers = append(result.RequiredAnswers, models.RequiredAnswer{Question: q})
		}
	default:
		result.Reason = resp.Reason
		switch resp.Reason {
		case models.RedeemReasonAlreadyRedeemed:
			result.Type = models.CheckResultUsed
		case models.RedeemReasonUnpaid:
			result.Type = models.CheckResultUnpaid
			result.CheckInAllowed = true
		case models.RedeemReasonProduct:
			result.Type = models.CheckResultProduct
		case models.RedeemReasonBlocked:
			result.Type = models.CheckResultBlocked
		case models.RedeemReasonRevoked:
			result.Type = models.CheckResultRevoked
		case models.RedeemReasonUnknownTicket:
			result.Type = models.CheckResultInvalid
		default:
			result.Type = models.CheckResultError
		}
	}
	return result
}

func (p *onlineCheckProvider) Search(ctx context.Context, query string, page int) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < minSearchQueryLength {
		return []models.SearchResult{}, nil
	}
	if page < 1 {
		page = 1
	}

	path := fmt.Sprintf("organizers/%s/events/%s/checkinlists/%d/positions/", p.organizer, p.event, p.listID)
	params := url.Values{
		"search": {query},
		"page":   {strconv.Itoa(page)},
	}
	result, err := p.api.FetchCollection(ctx, path, params)
	if err != nil {
		return nil, err
	}

	out := make([]models.SearchResult, 0, len(result.Results))
	for _, raw := range result.Results {
		var pos models.OrderPosition
		if err := json.Unmarshal(raw, &pos); err != nil {
			return nil, fmt.Errorf("decode search result: %w", err)
		}
		sr := models.SearchResult{
			Secret:       pos.Secret,
			AttendeeName: pos.AttendeeName,
			OrderCode:    pos.OrderCode,
			Status:       pos.OrderStatus,
			Paid:         pos.OrderStatus == models.OrderStatusPaid,
			Redeemed:     len(pos.CheckIns) > 0,
		}
		var named models.CheckResult
		p.nameTicket(ctx, &named, pos)
		sr.TicketName = named.TicketName
		sr.VariationName = named.VariationName
		out = append(out, sr)
	}
	return out, nil
}

// serverListStatus is the wire shape of the list status endpoint.
type serverListStatus struct {
	Event struct {
		Name models.I18nString `json:"name"`
	} `json:"event"`
	CheckinList struct {
		Name string `json:"name"`
	} `json:"checkin_list"`
	PositionCount int64 `json:"position_count"`
	CheckinCount  int64 `json:"checkin_count"`
	Items         []struct {
		ID            int64             `json:"id"`
		Name          models.I18nString `json:"name"`
		Admission     bool              `json:"admission"`
		PositionCount int64             `json:"position_count"`
		CheckinCount  int64             `json:"checkin_count"`
		Variations    []struct {
			ID            int64             `json:"id"`
			Value         models.I18nString `json:"value"`
			PositionCount int64             `json:"position_count"`
			CheckinCount  int64             `json:"checkin_count"`
		} `json:"variations"`
	} `json:"items"`
}

func (p *onlineCheckProvider) Status(ctx context.Context) (models.StatusResult, error) {
	path := fmt.Sprintf("organizers/%s/events/%s/checkinlists/%d/status/", p.organizer, p.event, p.listID)
	raw, err := p.api.FetchObject(ctx, path)
	if err != nil {
		return models.StatusResult{}, err
	}
	var status serverListStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return models.StatusResult{}, fmt.Errorf("decode list status: %w", err)
	}

	result := models.StatusResult{
		EventName:    status.Event.Name.String(),
		ListName:     status.CheckinList.Name,
		TotalTickets: status.PositionCount,
		CheckIns:     status.CheckinCount,
	}
	for _, it := range status.Items {
		row := models.StatusResultItem{
			ItemID:    it.ID,
			Name:      it.Name.String(),
			Total:     it.PositionCount,
			CheckIns:  it.CheckinCount,
			Admission: it.Admission,
		}
		for _, v := range it.Variations {
			row.Variations = append(row.Variations, models.StatusResultVariation{
				VariationID: v.ID,
				Name:        v.Value.String(),
				Total:       v.PositionCount,
				CheckIns:    v.CheckinCount,
			})
		}
		result.Items = append(result.Items, row)
	}
	return result, nil
}

// nameTicket fills the item and variation display names from the local
// catalog. Missing catalog data degrades to empty names, never an error.
func (p *onlineCheckProvider) nameTicket(ctx context.Context, result *models.CheckResult, pos models.OrderPosition) {
	if p.store == nil || pos.Item == 0 {
		return
	}
	records, err := p.store.Replica.RecordsByServerID(ctx, models.ResourceItems, p.event, strconv.FormatInt(pos.Item, 10))
	if err != nil || len(records) == 0 {
		return
	}
	var item models.Item
	if err := json.Unmarshal(records[0].Payload, &item); err != nil {
		return
	}
	result.TicketName = item.Name.String()
	if pos.Variation != nil {
		if v, ok := item.Variation(*pos.Variation); ok {
			result.VariationName = v.Value.String()
		}
	}
}

func firstEntry(checkins []models.CheckIn) *time.Time {
	var first *time.Time
	for _, c := range checkins {
		if c.Type != models.CheckInTypeEntry {
			continue
		}
		if first == nil || c.Datetime.Before(*first) {
			dt := c.Datetime
			first = &dt
		}
	}
	return first
}
