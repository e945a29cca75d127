package poker

import (
	"time"
)

// TickResult reports what a timer tick did to the table.
type TickResult struct {
	Narration string
	Changed   bool
	// RunoutPending is set while a runout still has streets or a showdown
	// to go; the caller should pause before ticking again.
	RunoutPending bool
}

// Tick drives the table without player input. During a runout it deals one
// street, or runs the showdown once the river is out. Otherwise it applies
// the timeout for a player whose turn deadline has passed.
func (t *Table) Tick(now time.Time) TickResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	var res TickResult
	switch {
	case !t.handInProgress:
		return res
	case t.runout && t.streets != nil:
		t.advanceStreet()
		res.Changed = true
	case t.turnExpired(now):
		t.applyTimeout()
		res.Changed = true
	default:
		return res
	}
	res.RunoutPending = t.handInProgress && t.runout
	res.Narration = t.flushNarration()
	return res
}

// InRunout reports whether the board is being run out.
func (t *Table) InRunout() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runout
}
