package engine

import (
	"github.com/tinygambit/tinygambit/internal/board"
)

const (
	correctionTableSize  = 65536
	correctionMinDepth   = 1
	correctionBonusScale = 8  // divisor turning depth*diff into a bonus
	correctionBonusCap   = 256
	correctionGravity    = 16 // divisor controlling how fast entries drift toward the bonus
	correctionValueCap   = 16000
)

// CorrectionHistory tracks how far static evaluation tends to miss the
// search's verdict for positions sharing the low 16 bits of the full
// Zobrist key, and feeds that delta back into future static evals of
// positions landing in the same slot — the same gravity-
// update scheme Stockfish's correction history uses.
type CorrectionHistory struct {
	buckets [correctionTableSize]int16
}

// NewCorrectionHistory returns an empty correction table.
func NewCorrectionHistory() *CorrectionHistory {
	return &CorrectionHistory{}
}

// Get returns the correction to add to pos's static evaluation.
func (ch *CorrectionHistory) Get(pos *board.Position) int {
	return int(ch.buckets[ch.index(pos)])
}

func (ch *CorrectionHistory) index(pos *board.Position) uint64 {
	return pos.Hash & (correctionTableSize - 1)
}

// Update folds one more (static eval, search result) data point into the
// table, nudging the stored correction towards the depth-scaled error by a
// gravity step rather than overwriting it outright.
func (ch *CorrectionHistory) Update(pos *board.Position, searchScore, staticEval, depth int) {
	if depth < correctionMinDepth {
		return
	}

	bonus := clampInt((searchScore-staticEval)*depth/correctionBonusScale, -correctionBonusCap, correctionBonusCap)

	idx := ch.index(pos)
	old := int(ch.buckets[idx])
	updated := clampInt(old+(bonus-old)/correctionGravity, -correctionValueCap, correctionValueCap)
	ch.buckets[idx] = int16(updated)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clear resets every entry to zero.
func (ch *CorrectionHistory) Clear() {
	for i := range ch.buckets {
		ch.buckets[i] = 0
	}
}

// Age halves every entry, used between games so stale corrections decay
// rather than persisting forever.
func (ch *CorrectionHistory) Age() {
	for i := range ch.buckets {
		ch.buckets[i] /= 2
	}
}
