// Package aggregator reconstructs processing progress from the live stream
// of document snapshots and exposes the format/retry actions. Each snapshot
// is a total, authoritative view; the aggregator keeps no state across
// snapshots other than the latest one, the derived summary, and the
// formatting in-flight guard.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pcubed/gradeboard/internal/functions"
	"github.com/pcubed/gradeboard/internal/models"
	"github.com/pcubed/gradeboard/pkg/logger"
)

// ErrFormattingInFlight rejects a format or retry attempt while a previous
// invocation is still outstanding. Attempts are refused, never queued.
var ErrFormattingInFlight = errors.New("formatting already in progress")

// ErrFormatFailed wraps a failed formatDocumentsData invocation. The wrapped
// message is user-facing.
var ErrFormatFailed = errors.New("formatting failed")

const genericFailureMessage = "formatting request failed, please try again"

// SummaryCache persists the latest derived summary. Writes are best-effort;
// a failing cache never disturbs aggregation.
type SummaryCache interface {
	Put(ctx context.Context, userID string, s Summary) error
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithOnComplete installs a callback fired exactly once each time the
// document set transitions into the all-processed state.
func WithOnComplete(fn func(Summary)) Option {
	return func(a *Aggregator) { a.onComplete = fn }
}

// WithSummaryCache stores each derived summary under the owning principal's
// id.
func WithSummaryCache(cache SummaryCache) Option {
	return func(a *Aggregator) { a.cache = cache }
}

// Aggregator folds snapshots for a single principal. All methods are safe
// for concurrent use; snapshot application and action state share one mutex.
type Aggregator struct {
	userID  string
	invoker functions.Invoker
	log     logger.Logger

	cache      SummaryCache
	onComplete func(Summary)

	mu           sync.Mutex
	latest       models.Snapshot
	summary      Summary
	hasSnapshot  bool
	formatting   bool
	allProcessed bool
	lastMessage  string
	lastError    string
}

func New(userID string, invoker functions.Invoker, log logger.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		userID:  userID,
		invoker: invoker,
		log:     log.With(logger.String("userId", userID)),
		summary: summarize(nil, false),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run consumes snapshots until the channel closes or ctx is cancelled. A
// malformed snapshot can degrade the derived view but never terminates the
// loop.
func (a *Aggregator) Run(ctx context.Context, snapshots <-chan models.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			a.Apply(ctx, snap)
		}
	}
}

// Apply replaces the latest snapshot and recomputes every derived value.
// The completion callback fires on the transition into all-processed and not
// again until the set regresses first.
func (a *Aggregator) Apply(ctx context.Context, snap models.Snapshot) {
	a.mu.Lock()
	prev := a.latest
	a.latest = snap
	a.hasSnapshot = true
	a.summary = summarize(snap, a.formatting)

	completed := a.summary.AllProcessed && !a.allProcessed
	a.allProcessed = a.summary.AllProcessed
	summary := a.summary
	a.mu.Unlock()

	a.logInvalidTransitions(prev, snap)

	if completed {
		a.log.Info("all documents processed", logger.Int("total", summary.Total))
		if a.onComplete != nil {
			a.onComplete(summary)
		}
	}

	if a.cache != nil {
		if err := a.cache.Put(ctx, a.userID, summary); err != nil {
			a.log.Warn("summary cache write failed", logger.Error(err))
		}
	}
}

// logInvalidTransitions diffs the previous snapshot against the next one by
// document id and warns on status moves the pipeline does not permit. The
// snapshot is authoritative either way; an invalid move is logged, never
// rejected.
func (a *Aggregator) logInvalidTransitions(prev, next models.Snapshot) {
	if len(prev) == 0 {
		return
	}
	before := make(map[string]models.Status, len(prev))
	for _, d := range prev {
		before[d.ID] = d.Status
	}
	for _, d := range next {
		from, seen := before[d.ID]
		if !seen || from == d.Status {
			continue
		}
		if !models.ValidTransition(from, d.Status) {
			a.log.Warn("invalid status transition",
				logger.String("documentId", d.ID),
				logger.String("from", string(from)),
				logger.String("to", string(d.Status)),
			)
		}
	}
}

// Summary returns the current derived view.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.summary
}

// Ready reports whether at least one live snapshot has been applied. Before
// that the summary is the zero state, not an observation.
func (a *Aggregator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasSnapshot
}

// LastAction returns the outcome of the most recent format/retry attempt:
// a status message on success, an error message on failure.
func (a *Aggregator) LastAction() (message, errMessage string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastMessage, a.lastError
}

// RequestFormatting triggers the backend formatting function for the whole
// batch. At most one invocation may be outstanding; concurrent attempts get
// ErrFormattingInFlight. The action has no local effect on document state;
// whatever changed arrives through the next snapshot.
func (a *Aggregator) RequestFormatting(ctx context.Context) (string, error) {
	return a.invokeFormat(ctx, "")
}

// RetryProcessing re-triggers processing after an error. The backend
// function reprocesses the whole batch; documentID identifies which record's
// retry was pressed and is recorded in the logs only.
func (a *Aggregator) RetryProcessing(ctx context.Context, documentID string) (string, error) {
	return a.invokeFormat(ctx, documentID)
}

func (a *Aggregator) invokeFormat(ctx context.Context, documentID string) (string, error) {
	a.mu.Lock()
	if a.formatting {
		a.mu.Unlock()
		return "", ErrFormattingInFlight
	}
	a.formatting = true
	a.summary = summarize(a.latest, true)
	a.mu.Unlock()

	if documentID != "" {
		a.log.Info("retrying document processing", logger.String("documentId", documentID))
	} else {
		a.log.Info("requesting document formatting")
	}

	result, err := a.invoker.FormatDocuments(ctx)

	a.mu.Lock()
	a.formatting = false
	a.summary = summarize(a.latest, false)

	if err != nil || !result.Success {
		// A transport failure is indistinguishable from an explicit
		// success:false to the caller.
		msg := genericFailureMessage
		if err == nil && result.Message != "" {
			msg = result.Message
		}
		a.lastError = msg
		a.mu.Unlock()
		if err != nil {
			a.log.Error("formatting invocation failed", logger.Error(err))
		} else {
			a.log.Warn("formatting rejected by backend", logger.String("message", msg))
		}
		return "", fmt.Errorf("%w: %s", ErrFormatFailed, msg)
	}

	msg := result.Message
	if msg == "" {
		msg = "formatting complete"
	}
	a.lastMessage = msg
	a.lastError = ""
	a.mu.Unlock()

	a.log.Info("formatting accepted", logger.String("message", msg))
	return msg, nil
}
