package aggregator

import (
	"context"
	"fmt"
	"sync"

	"github.com/pcubed/gradeboard/internal/authz"
	"github.com/pcubed/gradeboard/internal/functions"
	"github.com/pcubed/gradeboard/internal/models"
	"github.com/pcubed/gradeboard/pkg/logger"
)

// Source opens a live snapshot stream over a principal's documents. The
// returned channel is latest-wins and closes when ctx is cancelled or the
// underlying listener fails.
type Source interface {
	WatchDocuments(ctx context.Context, principal authz.Principal, userID string) (<-chan models.Snapshot, error)
}

// SummaryReader serves the last persisted summary while a fresh subscription
// has not yet received its first live snapshot.
type SummaryReader interface {
	Get(ctx context.Context, userID string) (Summary, bool, error)
}

// Manager owns at most one live subscription per principal. Re-requesting a
// principal's aggregator reuses the running subscription; Stop cancels it
// before any further snapshot can be delivered, so a later request starts a
// fresh one.
type Manager struct {
	source  Source
	invoker functions.Invoker
	log     logger.Logger
	reader  SummaryReader
	opts    []Option

	mu   sync.Mutex
	subs map[string]*subscription
}

type subscription struct {
	agg    *Aggregator
	cancel context.CancelFunc
}

// NewManager builds a Manager. reader may be nil when no summary cache is
// configured.
func NewManager(source Source, invoker functions.Invoker, log logger.Logger, reader SummaryReader, opts ...Option) *Manager {
	return &Manager{
		source:  source,
		invoker: invoker,
		log:     log,
		reader:  reader,
		opts:    opts,
		subs:    make(map[string]*subscription),
	}
}

// Aggregator returns the principal's aggregator, starting its subscription
// on first use. Subscription lifetime is detached from the request context.
func (m *Manager) Aggregator(ctx context.Context, principal authz.Principal) (*Aggregator, error) {
	if !principal.Authenticated() {
		return nil, fmt.Errorf("watch documents: %w", authz.ErrPermissionDenied)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if sub, ok := m.subs[principal.UID]; ok {
		return sub.agg, nil
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	snapshots, err := m.source.WatchDocuments(watchCtx, principal, principal.UID)
	if err != nil {
		cancel()
		return nil, err
	}

	agg := New(principal.UID, m.invoker, m.log, m.opts...)
	m.subs[principal.UID] = &subscription{agg: agg, cancel: cancel}

	go func() {
		if err := agg.Run(watchCtx, snapshots); err != nil && watchCtx.Err() == nil {
			m.log.Error("snapshot loop ended", logger.String("userId", principal.UID), logger.Error(err))
		}
		m.mu.Lock()
		if sub, ok := m.subs[principal.UID]; ok && sub.agg == agg {
			delete(m.subs, principal.UID)
		}
		m.mu.Unlock()
	}()

	return agg, nil
}

// Summary is a convenience wrapper for read-only callers. Until the first
// live snapshot lands it falls back to the cached summary, when one exists.
func (m *Manager) Summary(ctx context.Context, principal authz.Principal) (Summary, error) {
	agg, err := m.Aggregator(ctx, principal)
	if err != nil {
		return Summary{}, err
	}
	if !agg.Ready() && m.reader != nil {
		cached, ok, err := m.reader.Get(ctx, principal.UID)
		switch {
		case err != nil:
			m.log.Warn("summary cache read failed",
				logger.String("userId", principal.UID),
				logger.Error(err),
			)
		case ok:
			return cached, nil
		}
	}
	return agg.Summary(), nil
}

// RequestFormatting triggers formatting through the principal's aggregator.
func (m *Manager) RequestFormatting(ctx context.Context, principal authz.Principal) (string, error) {
	agg, err := m.Aggregator(ctx, principal)
	if err != nil {
		return "", err
	}
	return agg.RequestFormatting(ctx)
}

// RetryProcessing re-triggers processing through the principal's aggregator.
func (m *Manager) RetryProcessing(ctx context.Context, principal authz.Principal, documentID string) (string, error) {
	agg, err := m.Aggregator(ctx, principal)
	if err != nil {
		return "", err
	}
	return agg.RetryProcessing(ctx, documentID)
}

// Stop cancels the principal's subscription, if any.
func (m *Manager) Stop(userID string) {
	m.mu.Lock()
	sub, ok := m.subs[userID]
	if ok {
		delete(m.subs, userID)
	}
	m.mu.Unlock()
	if ok {
		sub.cancel()
	}
}

// Shutdown cancels every live subscription.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	subs := m.subs
	m.subs = make(map[string]*subscription)
	m.mu.Unlock()
	for _, sub := range subs {
		sub.cancel()
	}
}
