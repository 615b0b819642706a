package adapter

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/eventra/checkpoint/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/api_client_mock.go -package=mock

// APIClient is the outbound transport consumed by the sync engine and the
// online check providers. Implementations must return the package's typed
// sentinel errors so callers can distinguish transient transport failures,
// permanent configuration failures, and the non-error "not modified" signal.
type APIClient interface {
	// FetchCollection retrieves one page of a collection endpoint. path is
	// either a path relative to the configured base URL (first page) or the
	// absolute Next link of a previous page. query is ignored when path is
	// absolute. Returns ErrNotModified when the server reports no changes
	// for the supplied conditional parameters.
	FetchCollection(ctx context.Context, path string, query url.Values) (models.Page, error)

	// FetchObject retrieves a single resource object.
	FetchObject(ctx context.Context, path string) (json.RawMessage, error)

	// PostObject creates a resource object and returns the raw response
	// body. Used by the create-once uploads (receipts, closings).
	PostObject(ctx context.Context, path string, payload any) (json.RawMessage, error)

	// Redeem posts one redemption attempt for the given ticket secret.
	// Semantic rejections (already redeemed, unpaid, ...) are returned as a
	// RedeemResponse with a non-ok status, not as an error.
	Redeem(ctx context.Context, eventSlug string, listID int64, secret string, req models.RedeemRequest) (models.RedeemResponse, error)

	// ProxyCheck forwards a whole check request to an intermediary that
	// evaluates it and returns a fully resolved result.
	ProxyCheck(ctx context.Context, req models.ProxyCheckRequest) (models.CheckResult, error)
}
