// Package appeal validates and tracks the single bounded post-verdict
// challenge a debate permits. The bound is per-debate, not per
// justification: once one appeal has been processed, every later attempt
// is rejected outright, and a justification equivalent to one already
// rejected is refused even before that.
package appeal

import (
	"errors"
	"strings"
	"time"

	"github.com/praetor-ai/praetor/internal/model"
)

// Sentinel errors for appeal admission.
var (
	// ErrDuplicateAppeal indicates the debate's reconsideration bound is
	// spent, an appeal is already in flight, or the justification
	// matches a previously rejected one.
	ErrDuplicateAppeal = errors.New("appeal already submitted for this debate")

	// ErrAppealWindowExpired indicates the appeal arrived after the
	// configured window measured from the verdict timestamp.
	ErrAppealWindowExpired = errors.New("appeal window has expired")

	// ErrNoAppealInFlight indicates Conclude was called without an
	// admitted appeal.
	ErrNoAppealInFlight = errors.New("no appeal in flight")
)

// DefaultWindow is the appeal window when the debate config does not set
// one.
const DefaultWindow = 24 * time.Hour

// Ledger tracks appeal attempts for one debate. Not goroutine-safe: the
// engine serializes access behind the debate lock.
type Ledger struct {
	window   time.Duration
	admitted *model.Appeal
	decided  bool
	rejected map[string]struct{} // normalized justifications with rejection precedent
}

// NewLedger creates a Ledger. A window of 0 means DefaultWindow.
func NewLedger(window time.Duration) *Ledger {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Ledger{
		window:   window,
		rejected: make(map[string]struct{}),
	}
}

// normalize reduces a justification to its equivalence form for the
// precedent check.
func normalize(justification string) string {
	return strings.Join(strings.Fields(strings.ToLower(justification)), " ")
}

// Admit validates an appeal against the ledger. verdictAt is the
// timestamp of the verdict being challenged. On success the appeal is
// recorded as the debate's single reconsideration; the caller drives the
// revote and must call Conclude exactly once.
func (l *Ledger) Admit(ap model.Appeal, verdictAt, now time.Time) error {
	if l.admitted != nil {
		return ErrDuplicateAppeal
	}
	if _, ok := l.rejected[normalize(ap.Justification)]; ok {
		return ErrDuplicateAppeal
	}
	if now.Sub(verdictAt) > l.window {
		return ErrAppealWindowExpired
	}
	cp := ap
	l.admitted = &cp
	return nil
}

// Conclude records the outcome of the admitted appeal's revote and
// returns the concluded appeal. A rejected outcome adds the justification
// to precedent. After Conclude the per-debate bound is permanently spent.
func (l *Ledger) Conclude(outcome model.AppealOutcome) (model.Appeal, error) {
	if l.admitted == nil || l.decided {
		return model.Appeal{}, ErrNoAppealInFlight
	}
	l.admitted.Outcome = outcome
	l.decided = true
	if outcome == model.AppealRejected {
		l.rejected[normalize(l.admitted.Justification)] = struct{}{}
	}
	return *l.admitted, nil
}

// RecordRejectedJustification adds precedent without consuming the
// per-debate bound, for justifications turned away before admission.
func (l *Ledger) RecordRejectedJustification(justification string) {
	l.rejected[normalize(justification)] = struct{}{}
}

// Current returns a copy of the admitted appeal, if any.
func (l *Ledger) Current() (model.Appeal, bool) {
	if l.admitted == nil {
		return model.Appeal{}, false
	}
	return *l.admitted, true
}

// Processed reports whether the debate's single appeal has concluded.
func (l *Ledger) Processed() bool {
	return l.decided
}
