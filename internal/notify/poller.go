package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeluilo/hms-sub001/pkg/interfaces"
	"github.com/zeluilo/hms-sub001/pkg/logger"
	"github.com/zeluilo/hms-sub001/pkg/monitoring"
	"github.com/zeluilo/hms-sub001/pkg/types"
)

// Poller refreshes the notification feed on a fixed interval. Unlike the
// naive interval timer it replaces, it is cancellable through its context
// and guards against overlapping requests: a tick that fires while a
// refresh is still in flight is skipped, not queued.
type Poller struct {
	source   interfaces.NotificationReader
	interval time.Duration
	logger   *logger.Logger
	metrics  *monitoring.MetricsCollector

	inFlight atomic.Bool

	mu        sync.RWMutex
	latest    []types.Notification
	lastError error
	updatedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a notification poller.
func NewPoller(source interfaces.NotificationReader, interval time.Duration, log *logger.Logger, metrics *monitoring.MetricsCollector) *Poller {
	return &Poller{
		source:   source,
		interval: interval,
		logger:   log,
		metrics:  metrics,
	}
}

// Start begins polling until Stop is called or ctx is cancelled. The
// first refresh runs immediately rather than waiting one interval.
func (p *Poller) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		p.tick(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.tick(ctx)
			}
		}
	}()
}

// Stop cancels polling and waits for the loop to exit.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
}

// Latest returns the most recent completed snapshot and when it was taken.
func (p *Poller) Latest() ([]types.Notification, time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.updatedAt
}

// LastError returns the error from the most recent refresh, nil when the
// last refresh succeeded.
func (p *Poller) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastError
}

// Refresh performs one fetch and replaces the snapshot. It is safe to call
// directly, e.g. to force an update after a payment submission.
func (p *Poller) Refresh(ctx context.Context) error {
	notifications, err := p.source.GetNotifications(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastError = err
	if err != nil {
		if p.logger != nil {
			p.logger.WithError(err).Warn("Notification refresh failed")
		}
		return err
	}

	p.latest = notifications
	p.updatedAt = time.Now()
	return nil
}

// tick runs one guarded refresh. When the previous refresh is still in
// flight the tick is dropped.
func (p *Poller) tick(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		if p.metrics != nil {
			p.metrics.RecordPollerTick("skipped")
		}
		return
	}

	go func() {
		defer p.inFlight.Store(false)

		err := p.Refresh(ctx)
		if p.metrics == nil {
			return
		}
		if err != nil {
			p.metrics.RecordPollerTick("error")
		} else {
			p.metrics.RecordPollerTick("ok")
		}
	}()
}
