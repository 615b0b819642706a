package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/eventra/checkpoint/internal/config"
	"github.com/eventra/checkpoint/internal/logger"
	"github.com/eventra/checkpoint/models"
)

// pageGeneratedHeader carries the change marker the server attached to a
// collection page; the first page's value bounds everything that existed at
// fetch start.
const pageGeneratedHeader = "X-Page-Generated"

type httpAPIClient struct {
	client *resty.Client

	organizer string
	token     string

	logger *logger.Logger
}

// NewHTTPAPIClient constructs an HTTP/REST implementation of [APIClient].
// It normalises and validates the base URL from apiCfg.BaseURL and
// configures the underlying resty client with the resolved base URL, the
// request timeout, and the device token header.
//
// Returns an error if apiCfg.BaseURL is empty or cannot be parsed as a
// valid URL.
func NewHTTPAPIClient(apiCfg config.API, log *logger.Logger) (APIClient, error) {
	baseURL, err := normalizeBaseURL(apiCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(apiCfg.RequestTimeout).
		SetHeader("Accept", "application/json")

	return &httpAPIClient{
		client:    client,
		organizer: apiCfg.Organizer,
		token:     strings.TrimSpace(apiCfg.Token),
		logger:    log,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// FetchCollection implements [APIClient]. Relative paths are resolved
// against the configured base URL; absolute Next links from a previous page
// are requested verbatim.
func (h *httpAPIClient) FetchCollection(ctx context.Context, path string, query url.Values) (models.Page, error) {
	req := h.authedRequest(ctx)
	if query != nil && !isAbsolute(path) {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return models.Page{}, fmt.Errorf("%w: fetch collection: %s", ErrTransport, h.redact(err.Error()))
	}
	if err = h.mapHTTPError(resp); err != nil {
		return models.Page{}, err
	}

	var page models.Page
	if err = json.Unmarshal(resp.Body(), &page); err != nil {
		return models.Page{}, fmt.Errorf("decode collection page: %w", err)
	}
	page.Marker = resp.Header().Get(pageGeneratedHeader)

	return page, nil
}

// FetchObject implements [APIClient].
func (h *httpAPIClient) FetchObject(ctx context.Context, path string) (json.RawMessage, error) {
	resp, err := h.authedRequest(ctx).Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch object: %s", ErrTransport, h.redact(err.Error()))
	}
	if err = h.mapHTTPError(resp); err != nil {
		return nil, err
	}

	return json.RawMessage(resp.Body()), nil
}

// PostObject implements [APIClient].
func (h *httpAPIClient) PostObject(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("%w: post object: %s", ErrTransport, h.redact(err.Error()))
	}
	if err = h.mapHTTPError(resp); err != nil {
		return nil, err
	}

	return json.RawMessage(resp.Body()), nil
}

// Redeem implements [APIClient]. Semantic rejections arrive as HTTP 400 with
// a status body; those decode into the response instead of mapping to an
// error so the caller sees one vocabulary for all outcomes.
func (h *httpAPIClient) Redeem(ctx context.Context, eventSlug string, listID int64, secret string, req models.RedeemRequest) (models.RedeemResponse, error) {
	path := fmt.Sprintf("organizers/%s/events/%s/checkinlists/%d/positions/%s/redeem/",
		h.organizer, eventSlug, listID, url.PathEscape(secret))

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(path)
	if err != nil {
		return models.RedeemResponse{}, fmt.Errorf("%w: redeem request: %s", ErrTransport, h.redact(err.Error()))
	}

	var rr models.RedeemResponse
	if decodeErr := json.Unmarshal(resp.Body(), &rr); decodeErr == nil && rr.Status != "" {
		return rr, nil
	}
	if err = h.mapHTTPError(resp); err != nil {
		return models.RedeemResponse{}, err
	}

	return models.RedeemResponse{}, fmt.Errorf("decode redeem response: unexpected body")
}

// ProxyCheck implements [APIClient].
func (h *httpAPIClient) ProxyCheck(ctx context.Context, req models.ProxyCheckRequest) (models.CheckResult, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(fmt.Sprintf("organizers/%s/checkinrpc/redeem/", h.organizer))
	if err != nil {
		return models.CheckResult{}, fmt.Errorf("%w: proxy check request: %s", ErrTransport, h.redact(err.Error()))
	}
	if err = h.mapHTTPError(resp); err != nil {
		return models.CheckResult{}, err
	}

	var result models.CheckResult
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return models.CheckResult{}, fmt.Errorf("decode proxy check response: %w", err)
	}

	return result, nil
}

func (h *httpAPIClient) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if h.token != "" {
		req.SetHeader("Authorization", "Device "+h.token)
	}
	return req
}

func isAbsolute(path string) bool {
	return strings.Contains(path, "://")
}
