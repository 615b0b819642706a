package service

import (
	"context"

	"github.com/eventra/checkpoint/internal/adapter"
	"github.com/eventra/checkpoint/internal/logger"
	"github.com/eventra/checkpoint/models"
)

// proxyCheckProvider forwards whole check requests to an intermediary that
// holds the authoritative state, for deployments where scanning devices
// talk to a local hub instead of the server. The hub resolves the request
// completely; this provider does no local evaluation.
type proxyCheckProvider struct {
	api    adapter.APIClient
	event  string
	listID int64
	log    *logger.Logger
}

// NewProxyCheckProvider builds a TicketCheckProvider that delegates to an
// upstream proxy, scoped to one check-in list.
func NewProxyCheckProvider(api adapter.APIClient, event string, listID int64, log *logger.Logger) TicketCheckProvider {
	return &proxyCheckProvider{api: api, event: event, listID: listID, log: log}
}

func (p *proxyCheckProvider) Check(ctx context.Context, req models.CheckRequest) (models.CheckResult, error) {
	if req.Type == "" {
		req.Type = models.CheckInTypeEntry
	}
	if req.ListID == 0 {
		req.ListID = p.listID
	}
	return p.api.ProxyCheck(ctx, models.ProxyCheckRequest{EventSlug: p.event, Request: req})
}

// Search is not proxied; hubs only expose the redemption call.
func (p *proxyCheckProvider) Search(context.Context, string, int) ([]models.SearchResult, error) {
	return nil, ErrNotSupported
}

// Status is not proxied; hubs only expose the redemption call.
func (p *proxyCheckProvider) Status(context.Context) (models.StatusResult, error) {
	return models.StatusResult{}, ErrNotSupported
}
