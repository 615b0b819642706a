package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/eventra/checkpoint/internal/adapter"
	"github.com/eventra/checkpoint/internal/config"
	"github.com/eventra/checkpoint/internal/logger"
	"github.com/eventra/checkpoint/internal/store"
	"github.com/eventra/checkpoint/models"
)

// Persisted orchestrator state keys.
const (
	stateLastSync       = "last_sync"
	stateLastDownload   = "last_download"
	stateLastFailure    = "last_failure"
	stateFailureMessage = "failure_message"
)

// syncManager runs the upload-then-download cycle with interval gating.
type syncManager struct {
	store *store.ClientStorages
	api   adapter.APIClient
	cfg   config.StructuredConfig
	log   *logger.Logger
	now   func() time.Time
}

// NewSyncManager wires a Syncer over the given storage and transport.
func NewSyncManager(st *store.ClientStorages, api adapter.APIClient, cfg config.StructuredConfig, log *logger.Logger) Syncer {
	return &syncManager{
		store: st,
		api:   api,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

func (m *syncManager) Sync(ctx context.Context, force bool, progress func(string)) (models.SyncStats, error) {
	var stats models.SyncStats
	now := m.now()

	state, err := m.State(ctx)
	if err != nil {
		return stats, err
	}
	if !force {
		if !state.LastFailure.IsZero() && now.Sub(state.LastFailure) < m.cfg.Sync.FailureCooldown {
			m.log.Debug().Time("last_failure", state.LastFailure).Msg("sync skipped, failure cooldown active")
			stats.Skipped = true
			return stats, nil
		}
		if !state.LastSync.IsZero() && now.Sub(state.LastSync) < m.cfg.Sync.Interval {
			stats.Skipped = true
			return stats, nil
		}
	}

	report(progress, "uploading queued check-ins")
	uploaded, err := m.upload(ctx, progress)
	stats.Uploaded = uploaded
	if err != nil {
		return stats, m.recordFailure(ctx, err)
	}

	if force || state.LastDownload.IsZero() || now.Sub(state.LastDownload) >= m.cfg.Sync.DownloadInterval {
		downloaded, err := m.download(ctx, progress)
		stats.Downloaded = downloaded
		if err != nil {
			return stats, m.recordFailure(ctx, err)
		}
		if err := m.store.SyncStatus.SetState(ctx, stateLastDownload, m.now().Format(time.RFC3339)); err != nil {
			return stats, err
		}
	}

	if err := m.store.SyncStatus.SetState(ctx, stateLastSync, m.now().Format(time.RFC3339)); err != nil {
		return stats, err
	}
	if err := m.store.SyncStatus.SetState(ctx, stateLastFailure, ""); err != nil {
		return stats, err
	}
	if err := m.store.SyncStatus.SetState(ctx, stateFailureMessage, ""); err != nil {
		return stats, err
	}
	m.log.Info().Int("uploaded", stats.Uploaded).Int("downloaded", stats.Downloaded).Msg("sync cycle complete")
	return stats, nil
}

func (m *syncManager) State(ctx context.Context) (models.SyncState, error) {
	var state models.SyncState
	for _, bind := range []struct {
		key  string
		dest *time.Time
	}{
		{stateLastSync, &state.LastSync},
		{stateLastDownload, &state.LastDownload},
		{stateLastFailure, &state.LastFailure},
	} {
		v, err := m.store.SyncStatus.State(ctx, bind.key)
		if err != nil {
			return state, err
		}
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return state, fmt.Errorf("corrupt %s state %q: %w", bind.key, v, err)
		}
		*bind.dest = t
	}
	msg, err := m.store.SyncStatus.State(ctx, stateFailureMessage)
	if err != nil {
		return state, err
	}
	state.FailureMessage = msg
	return state, nil
}

// upload pushes queued check-ins, then unsynced receipts and closings.
// A check-in the server rejects as already redeemed is treated as
// delivered: some earlier attempt got through. Other semantic rejections
// stay queued for operator attention; transport failures abort the cycle.
func (m *syncManager) upload(ctx context.Context, progress func(string)) (int, error) {
	event := m.cfg.API.Event
	uploaded := 0

	pending, err := m.store.Queue.PendingCheckIns(ctx, event)
	if err != nil {
		return 0, err
	}
	for _, q := range pending {
		resp, err := m.api.Redeem(ctx, event, q.ListID, q.Secret, redeemRequest(q))
		if err != nil {
			return uploaded, fmt.Errorf("upload check-in %s: %w", q.Nonce, err)
		}
		switch {
		case resp.Status == models.RedeemStatusOK,
			resp.Reason == models.RedeemReasonAlreadyRedeemed:
			if err := m.store.Queue.DeleteQueuedCheckIn(ctx, q.ID); err != nil {
				return uploaded, err
			}
			uploaded++
		default:
			m.log.Warn().Str("secret", q.Secret).Str("status", string(resp.Status)).
				Str("reason", resp.Reason).Msg("server rejected queued check-in, keeping it queued")
		}
	}

	receipts, err := m.store.Queue.UnsyncedReceipts(ctx, event)
	if err != nil {
		return uploaded, err
	}
	if len(receipts) > 0 {
		report(progress, "uploading receipts")
	}
	for _, r := range receipts {
		serverID, err := m.postOnce(ctx, fmt.Sprintf("organizers/%s/events/%s/posreceipts/", m.cfg.API.Organizer, event), r.Payload)
		if err != nil {
			return uploaded, fmt.Errorf("upload receipt %d: %w", r.ID, err)
		}
		if err := m.store.Queue.MarkReceiptSynced(ctx, r.ID, serverID); err != nil {
			return uploaded, err
		}
		uploaded++
	}

	closings, err := m.store.Queue.UnsyncedClosings(ctx, event)
	if err != nil {
		return uploaded, err
	}
	if len(closings) > 0 {
		report(progress, "uploading closings")
	}
	for _, c := range closings {
		serverID, err := m.postOnce(ctx, fmt.Sprintf("organizers/%s/events/%s/posclosings/", m.cfg.API.Organizer, event), c.Payload)
		if err != nil {
			return uploaded, fmt.Errorf("upload closing %d: %w", c.ID, err)
		}
		if err := m.store.Queue.MarkClosingSynced(ctx, c.ID, serverID); err != nil {
			return uploaded, err
		}
		uploaded++
	}
	return uploaded, nil
}

func (m *syncManager) postOnce(ctx context.Context, path string, payload json.RawMessage) (int64, error) {
	raw, err := m.api.PostObject(ctx, path, payload)
	if err != nil {
		return 0, err
	}
	var created models.CreatedResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		return 0, fmt.Errorf("decode create response: %w", err)
	}
	return created.ID, nil
}

func (m *syncManager) download(ctx context.Context, progress func(string)) (int, error) {
	d := &downloader{
		store:     m.store,
		api:       m.api,
		organizer: m.cfg.API.Organizer,
		event:     m.cfg.API.Event,
		log:       m.log,
	}
	total := 0
	for _, a := range resourceAdapters() {
		report(progress, "downloading "+string(a.resource))
		n, err := d.download(ctx, a)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (m *syncManager) recordFailure(ctx context.Context, cause error) error {
	m.log.Error().Err(cause).Msg("sync cycle failed")
	if err := m.store.SyncStatus.SetState(ctx, stateLastFailure, m.now().Format(time.RFC3339)); err != nil {
		m.log.Error().Err(err).Msg("failed to record sync failure time")
	}
	if err := m.store.SyncStatus.SetState(ctx, stateFailureMessage, cause.Error()); err != nil {
		m.log.Error().Err(err).Msg("failed to record sync failure message")
	}
	return cause
}

// redeemRequest builds the upload body of a queued check-in. Force is set
// because the redemption was already granted locally; the server records
// it even if the ticket was scanned elsewhere in the meantime.
func redeemRequest(q models.QueuedCheckIn) models.RedeemRequest {
	dt := q.Datetime
	req := models.RedeemRequest{
		Datetime:           &dt,
		Type:               q.Type,
		Force:              true,
		IgnoreUnpaid:       true,
		Nonce:              q.Nonce,
		QuestionsSupported: true,
	}
	if len(q.Answers) > 0 {
		req.Answers = make(map[string]string, len(q.Answers))
		for _, a := range q.Answers {
			req.Answers[strconv.FormatInt(a.Question, 10)] = a.Answer
		}
	}
	return req
}

func report(progress func(string), step string) {
	if progress != nil {
		progress(step)
	}
}
