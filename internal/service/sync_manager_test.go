package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/eventra/checkpoint/internal/config"
	"github.com/eventra/checkpoint/internal/logger"
	"github.com/eventra/checkpoint/internal/mock"
	"github.com/eventra/checkpoint/models"
)

var errConnRefused = errors.New("connection refused")

func newTestManager(t *testing.T) (*syncManager, *fakeStore, *mock.MockAPIClient) {
	t.Helper()
	cs, f := newFakeStore()
	api := mock.NewMockAPIClient(gomock.NewController(t))
	m := &syncManager{
		store: cs,
		api:   api,
		cfg: config.StructuredConfig{
			API: config.API{Organizer: "demo-org", Event: testEvent},
			Sync: config.Sync{
				Interval:         5 * time.Minute,
				DownloadInterval: 15 * time.Minute,
				FailureCooldown:  30 * time.Second,
			},
		},
		log: logger.Nop(),
		now: fixedTime(testClock),
	}
	return m, f, api
}

func queueCheckIn(t *testing.T, f *fakeStore, secret, nonce string) {
	t.Helper()
	require.NoError(t, f.EnqueueCheckIn(context.Background(), models.QueuedCheckIn{
		EventSlug: testEvent,
		Secret:    secret,
		ListID:    1,
		Datetime:  testClock.Add(-time.Hour),
		Nonce:     nonce,
		Type:      models.CheckInTypeEntry,
	}))
}

func TestSync_SkippedWithinInterval(t *testing.T) {
	m, f, _ := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, f.SetState(ctx, stateLastSync, testClock.Add(-time.Minute).Format(time.RFC3339)))

	stats, err := m.Sync(ctx, false, nil)
	require.NoError(t, err)
	assert.True(t, stats.Skipped)
}

func TestSync_SkippedDuringFailureCooldown(t *testing.T) {
	m, f, _ := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, f.SetState(ctx, stateLastSync, testClock.Add(-time.Hour).Format(time.RFC3339)))
	require.NoError(t, f.SetState(ctx, stateLastFailure, testClock.Add(-10*time.Second).Format(time.RFC3339)))

	stats, err := m.Sync(ctx, false, nil)
	require.NoError(t, err)
	assert.True(t, stats.Skipped)
}

func TestSync_UploadDequeueRules(t *testing.T) {
	m, f, api := newTestManager(t)
	ctx := context.Background()
	// Keep the download phase out of this cycle.
	require.NoError(t, f.SetState(ctx, stateLastDownload, testClock.Format(time.RFC3339)))

	queueCheckIn(t, f, "accepted11", "nonce-a")
	queueCheckIn(t, f, "already222", "nonce-b")
	queueCheckIn(t, f, "rejected33", "nonce-c")

	api.EXPECT().Redeem(gomock.Any(), testEvent, int64(1), "accepted11", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ int64, _ string, req models.RedeemRequest) (models.RedeemResponse, error) {
			assert.Equal(t, "nonce-a", req.Nonce, "the stored nonce is reused verbatim")
			assert.True(t, req.Force)
			return models.RedeemResponse{Status: models.RedeemStatusOK}, nil
		})
	api.EXPECT().Redeem(gomock.Any(), testEvent, int64(1), "already222", gomock.Any()).
		Return(models.RedeemResponse{Status: models.RedeemStatusError, Reason: models.RedeemReasonAlreadyRedeemed}, nil)
	api.EXPECT().Redeem(gomock.Any(), testEvent, int64(1), "rejected33", gomock.Any()).
		Return(models.RedeemResponse{Status: models.RedeemStatusError, Reason: models.RedeemReasonUnpaid}, nil)

	stats, err := m.Sync(ctx, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Uploaded)

	remaining, err := f.PendingCheckIns(ctx, testEvent)
	require.NoError(t, err)
	require.Len(t, remaining, 1, "only the semantically rejected row stays queued")
	assert.Equal(t, "rejected33", remaining[0].Secret)

	state, err := m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, testClock, state.LastSync)
	assert.Empty(t, state.FailureMessage)
}

func TestSync_UploadsReceiptsAndClosingsOnce(t *testing.T) {
	m, f, api := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, f.SetState(ctx, stateLastDownload, testClock.Format(time.RFC3339)))

	_, err := f.InsertReceipt(ctx, models.Receipt{
		EventSlug: testEvent, Payload: json.RawMessage(`{"lines":[]}`), Created: testClock,
	})
	require.NoError(t, err)
	_, err = f.InsertClosing(ctx, models.Closing{
		EventSlug: testEvent, Payload: json.RawMessage(`{"cash_total":"0.00"}`), Created: testClock,
	})
	require.NoError(t, err)

	api.EXPECT().PostObject(gomock.Any(), "organizers/demo-org/events/democon/posreceipts/", gomock.Any()).
		Return(json.RawMessage(`{"id": 501}`), nil)
	api.EXPECT().PostObject(gomock.Any(), "organizers/demo-org/events/democon/posclosings/", gomock.Any()).
		Return(json.RawMessage(`{"id": 77}`), nil)

	stats, err := m.Sync(ctx, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Uploaded)
	assert.Equal(t, int64(501), f.receipts[0].ServerID)
	assert.Equal(t, int64(77), f.closings[0].ServerID)

	// A second cycle has nothing left to upload.
	require.NoError(t, f.SetState(ctx, stateLastSync, testClock.Add(-time.Hour).Format(time.RFC3339)))
	stats, err = m.Sync(ctx, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Uploaded)
}

func TestSync_RecordsFailureState(t *testing.T) {
	m, f, api := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, f.SetState(ctx, stateLastDownload, testClock.Format(time.RFC3339)))
	queueCheckIn(t, f, "unreachable", "nonce-x")

	api.EXPECT().Redeem(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.RedeemResponse{}, errConnRefused)

	_, err := m.Sync(ctx, false, nil)
	require.Error(t, err)

	state, err := m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, testClock, state.LastFailure)
	assert.Contains(t, state.FailureMessage, "nonce-x")
	assert.True(t, state.LastSync.IsZero(), "a failed cycle does not count as a sync")

	remaining, err := f.PendingCheckIns(ctx, testEvent)
	require.NoError(t, err)
	assert.Len(t, remaining, 1, "transport failures keep the row queued")
}

func TestSync_RecoveryClearsFailureState(t *testing.T) {
	m, f, api := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, f.SetState(ctx, stateLastDownload, testClock.Format(time.RFC3339)))
	queueCheckIn(t, f, "flaky12345", "nonce-f")

	api.EXPECT().Redeem(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.RedeemResponse{}, errConnRefused)

	_, err := m.Sync(ctx, false, nil)
	require.Error(t, err)

	state, err := m.State(ctx)
	require.NoError(t, err)
	require.Equal(t, testClock, state.LastFailure)

	// The server comes back: once the cooldown has passed, a fully
	// successful cycle leaves no trace of the earlier failure.
	recovered := testClock.Add(time.Minute)
	m.now = fixedTime(recovered)
	api.EXPECT().Redeem(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.RedeemResponse{Status: models.RedeemStatusOK}, nil)

	stats, err := m.Sync(ctx, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Uploaded)

	state, err = m.State(ctx)
	require.NoError(t, err)
	assert.True(t, state.LastFailure.IsZero(), "recovery clears the failure timestamp")
	assert.Empty(t, state.FailureMessage)
	assert.Equal(t, recovered, state.LastSync)
}
