// Package persist defines the durable-storage port for debate audit
// records and the asynchronous writer the engine hands them to.
//
// Durability is eventual, not transactional: the in-memory state machine
// is the source of truth for correctness, and a failed write never rolls
// back a transition. Failures are logged and surfaced to observability,
// not to the caller of a debate operation.
package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/praetor-ai/praetor/internal/logging"
	"github.com/praetor-ai/praetor/internal/model"
)

// ErrDebateNotFound indicates the store has no archive for a debate.
var ErrDebateNotFound = errors.New("debate not found in store")

// DebateRecord is the serializable archive of one debate.
type DebateRecord struct {
	ID           string                   `json:"id"`
	Topic        string                   `json:"topic"`
	State        string                   `json:"state"`
	Round        int                      `json:"round"`
	Algorithm    string                   `json:"algorithm"`
	Participants []model.Participant      `json:"participants"`
	History      []model.TransitionRecord `json:"history"`
	Verdicts     []model.Verdict          `json:"verdicts,omitempty"`
	Appeal       *model.Appeal            `json:"appeal,omitempty"`
	ArchivedAt   time.Time                `json:"archived_at"`
}

// Store is the persistence port. Implementations must be safe for
// concurrent use.
type Store interface {
	// AppendTransition records one audit-trail entry.
	AppendTransition(ctx context.Context, debateID string, rec model.TransitionRecord) error

	// SaveVerdict records a verdict, original or superseding.
	SaveVerdict(ctx context.Context, debateID string, v model.Verdict) error

	// SaveAppeal records an appeal and its outcome.
	SaveAppeal(ctx context.Context, debateID string, ap model.Appeal) error

	// ArchiveDebate stores the full debate record at terminal state.
	ArchiveDebate(ctx context.Context, rec DebateRecord) error

	// LoadDebate returns a previously archived debate.
	LoadDebate(ctx context.Context, debateID string) (DebateRecord, error)
}

// writeTimeout bounds each background write.
const writeTimeout = 10 * time.Second

// Writer wraps a Store with fire-and-forget semantics. Every method
// returns immediately; the write happens on a goroutine and a failure is
// logged, never returned.
type Writer struct {
	store Store
	log   *logging.Logger
	wg    sync.WaitGroup
}

// NewWriter creates a Writer. A nil store disables persistence entirely.
func NewWriter(store Store, log *logging.Logger) *Writer {
	if log == nil {
		log = logging.Nop()
	}
	return &Writer{store: store, log: log}
}

func (w *Writer) dispatch(op string, debateID string, fn func(context.Context) error) {
	if w.store == nil {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			w.log.Error("persistence write failed", "op", op, "debate", debateID, "error", err)
		}
	}()
}

// AppendTransition persists a transition record in the background.
func (w *Writer) AppendTransition(debateID string, rec model.TransitionRecord) {
	w.dispatch("append_transition", debateID, func(ctx context.Context) error {
		return w.store.AppendTransition(ctx, debateID, rec)
	})
}

// SaveVerdict persists a verdict in the background.
func (w *Writer) SaveVerdict(debateID string, v model.Verdict) {
	w.dispatch("save_verdict", debateID, func(ctx context.Context) error {
		return w.store.SaveVerdict(ctx, debateID, v)
	})
}

// SaveAppeal persists an appeal in the background.
func (w *Writer) SaveAppeal(debateID string, ap model.Appeal) {
	w.dispatch("save_appeal", debateID, func(ctx context.Context) error {
		return w.store.SaveAppeal(ctx, debateID, ap)
	})
}

// ArchiveDebate persists a terminal debate record in the background and
// invokes done with the outcome, letting the engine evict the handle
// only after the archive landed.
func (w *Writer) ArchiveDebate(rec DebateRecord, done func(error)) {
	if w.store == nil {
		if done != nil {
			done(nil)
		}
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		err := w.store.ArchiveDebate(ctx, rec)
		if err != nil {
			w.log.Error("persistence write failed", "op", "archive_debate", "debate", rec.ID, "error", err)
		}
		if done != nil {
			done(err)
		}
	}()
}

// Flush blocks until all in-flight writes complete. Intended for
// shutdown and tests.
func (w *Writer) Flush() {
	w.wg.Wait()
}
