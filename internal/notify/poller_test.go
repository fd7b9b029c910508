package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeluilo/hms-sub001/pkg/logger"
	"github.com/zeluilo/hms-sub001/pkg/types"
)

// fakeSource lets tests control fetch results and block fetches.
type fakeSource struct {
	calls   atomic.Int64
	err     error
	feed    []types.Notification
	release chan struct{}
}

func (s *fakeSource) GetNotifications(ctx context.Context) ([]types.Notification, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	return s.feed, s.err
}

func TestPoller_RefreshUpdatesSnapshot(t *testing.T) {
	source := &fakeSource{feed: []types.Notification{{ID: 1, Message: "lab result ready"}}}
	p := NewPoller(source, time.Minute, logger.New("error"), nil)

	require.NoError(t, p.Refresh(context.Background()))

	latest, updatedAt := p.Latest()
	require.Len(t, latest, 1)
	assert.Equal(t, "lab result ready", latest[0].Message)
	assert.False(t, updatedAt.IsZero())
	assert.NoError(t, p.LastError())
}

func TestPoller_FailedRefreshKeepsPriorSnapshot(t *testing.T) {
	source := &fakeSource{feed: []types.Notification{{ID: 1}}}
	p := NewPoller(source, time.Minute, logger.New("error"), nil)
	require.NoError(t, p.Refresh(context.Background()))

	source.err = errors.New("upstream down")
	require.Error(t, p.Refresh(context.Background()))

	latest, _ := p.Latest()
	assert.Len(t, latest, 1, "prior snapshot survives a failed refresh")
	assert.Error(t, p.LastError())
}

func TestPoller_InFlightGuardSkipsOverlappingTicks(t *testing.T) {
	source := &fakeSource{release: make(chan struct{})}
	p := NewPoller(source, time.Minute, logger.New("error"), nil)

	ctx := context.Background()
	p.tick(ctx)
	p.tick(ctx) // previous refresh still blocked: must be dropped
	p.tick(ctx)

	close(source.release)

	assert.Eventually(t, func() bool {
		return !p.inFlight.Load()
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), source.calls.Load())
}

func TestPoller_StartStopLifecycle(t *testing.T) {
	source := &fakeSource{feed: []types.Notification{{ID: 7}}}
	p := NewPoller(source, 10*time.Millisecond, logger.New("error"), nil)

	p.Start(context.Background())

	assert.Eventually(t, func() bool {
		latest, _ := p.Latest()
		return len(latest) == 1
	}, time.Second, 5*time.Millisecond)

	p.Stop()
	assert.Eventually(t, func() bool {
		return !p.inFlight.Load()
	}, time.Second, 5*time.Millisecond)
	stopped := source.calls.Load()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, source.calls.Load(), "no fetches after Stop")
}

func TestPoller_ContextCancellationStopsPolling(t *testing.T) {
	source := &fakeSource{}
	p := NewPoller(source, 10*time.Millisecond, logger.New("error"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	select {
	case <-p.done:
	case <-time.After(time.Second):
		t.Fatal("poll loop did not exit on context cancellation")
	}
}
