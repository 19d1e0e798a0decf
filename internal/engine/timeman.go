package engine

import (
	"time"

	"github.com/tinygambit/tinygambit/internal/board"
)

// UCILimits mirrors the "go" command's time-control parameters as received
// over UCI.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime
	Inc       [2]time.Duration // winc, binc
	MovesToGo int              // moves remaining until the next time control; 0 means sudden death
	MoveTime  time.Duration    // fixed per-move budget, overrides the time-control calculation
	Depth     int
	Nodes     uint64
	Infinite  bool
	Ponder    bool
}

// TimeManager converts a UCILimits into a concrete time budget for one
// search and tracks elapsed time against it.
type TimeManager struct {
	optimum time.Duration // target time to spend before returning a move
	maximum time.Duration // hard ceiling; ShouldStop ends the search once it is reached
	started time.Time
}

// NewTimeManager returns an unconfigured TimeManager; call Init before use.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// estimatedMovesToGo guesses how many moves remain in a sudden-death clock
// from the current ply: games have more moves left early and fewer as they
// progress, clamped to a sane range so neither extreme starves the budget.
func estimatedMovesToGo(ply int) int {
	mtg := 50 - ply/4
	if mtg < 10 {
		return 10
	}
	if mtg > 50 {
		return 50
	}
	return mtg
}

// Init computes the optimum/maximum time budget for a move played at the
// given ply by color us, under the supplied limits.
func (tm *TimeManager) Init(limits UCILimits, us board.Color, ply int) {
	tm.started = time.Now()

	if limits.MoveTime > 0 {
		tm.optimum = limits.MoveTime
		tm.maximum = limits.MoveTime
		return
	}

	if limits.Infinite || limits.Time[us] == 0 {
		tm.optimum = time.Hour
		tm.maximum = time.Hour
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]

	mtg := limits.MovesToGo
	if mtg == 0 {
		mtg = estimatedMovesToGo(ply)
	}

	budget := timeLeft/time.Duration(mtg) + inc*9/10
	if ply < 8 {
		budget = budget * 85 / 100 // a small buffer while the opening book/early plan is still forming
	}
	tm.optimum = budget

	byOptimum := tm.optimum * 5
	byRemaining := timeLeft * 8 / 10
	if byOptimum < byRemaining {
		tm.maximum = byOptimum
	} else {
		tm.maximum = byRemaining
	}

	if safety := timeLeft * 95 / 100; tm.maximum > safety {
		tm.maximum = safety
	}

	if tm.optimum < 10*time.Millisecond {
		tm.optimum = 10 * time.Millisecond
	}
	if tm.maximum < 50*time.Millisecond {
		tm.maximum = 50 * time.Millisecond
	}
}

// Elapsed returns the time spent searching since Init.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.started)
}

// OptimumTime returns the target time for the current move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimum
}

// MaximumTime returns the hard ceiling for the current move.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximum
}

// ShouldStop reports whether the hard ceiling has been reached.
func (tm *TimeManager) ShouldStop() bool {
	return tm.Elapsed() >= tm.maximum
}

// PastOptimum reports whether the soft target has been reached.
func (tm *TimeManager) PastOptimum() bool {
	return tm.Elapsed() >= tm.optimum
}

// AdjustForStability shrinks the optimum once the best move has held steady
// for several iterative-deepening depths in a row — there's little value in
// continuing to confirm an answer that isn't changing.
func (tm *TimeManager) AdjustForStability(stableDepths int) {
	switch {
	case stableDepths >= 6:
		tm.optimum = tm.optimum * 40 / 100
	case stableDepths >= 4:
		tm.optimum = tm.optimum * 60 / 100
	case stableDepths >= 2:
		tm.optimum = tm.optimum * 80 / 100
	}
}

// AdjustForInstability grows the optimum, capped at the hard ceiling, when
// the best move keeps flipping between depths — a sign the position needs
// more time to settle.
func (tm *TimeManager) AdjustForInstability(recentChanges int) {
	switch {
	case recentChanges >= 4:
		tm.optimum = tm.optimum * 200 / 100
	case recentChanges >= 2:
		tm.optimum = tm.optimum * 150 / 100
	default:
		return
	}
	if tm.optimum > tm.maximum {
		tm.optimum = tm.maximum
	}
}
