package engine

import (
	"math/bits"

	"github.com/tinygambit/tinygambit/internal/board"
	"github.com/tinygambit/tinygambit/sfnnue"
	"github.com/tinygambit/tinygambit/sfnnue/features"
)

// featureDelta records one piece's feature-index change for incremental
// accumulator updates: fromSq < 0 means the piece was added (not moved from
// anywhere), toSq < 0 means it was removed (captured).
type featureDelta struct {
	piece  int // sfnnue piece encoding, 1-14
	fromSq int
	toSq   int
}

// maxFeatureDeltas bounds how many pieces one move can touch: a plain move
// touches one, a capture two, en passant two, a capturing promotion three.
const maxFeatureDeltas = 3

// DirtyState is the NNUE-side bookkeeping for one applied move: which
// pieces moved, and whether either king moved (which forces a full
// accumulator refresh instead of an incremental update).
type DirtyState struct {
	deltas    [maxFeatureDeltas]featureDelta
	count     int
	kingMoved [2]bool
	kingSq    [2]int
	computed  bool
}

// sfnnuePieceTable maps board.Color/board.PieceType to the sfnnue piece
// encoding (W_PAWN=1..W_KING=6, B_PAWN=9..B_KING=14).
var sfnnuePieceTable = [2][6]int{
	{1, 2, 3, 4, 5, 6},
	{9, 10, 11, 12, 13, 14},
}

// appendActiveIndicesDirect appends every active feature index for
// perspective straight from bitboards, skipping the PieceAt interface
// dispatch a naive per-square scan would pay for.
func appendActiveIndicesDirect(perspective int, pos *board.Position, active *features.IndexList) {
	ksq := int(pos.KingSquare[perspective])

	for c := 0; c < 2; c++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			sfPiece := sfnnuePieceTable[c][pt]
			bb := uint64(pos.Pieces[c][pt])
			for bb != 0 {
				sq := bits.TrailingZeros64(bb)
				bb &= bb - 1
				active.Push(features.MakeIndex(perspective, sq, sfPiece, ksq))
			}
		}
	}
}

func countPieces(pos *board.Position) int {
	return bits.OnesCount64(uint64(pos.AllOccupied))
}

// recordDelta appends one feature-index change to the dirty list.
func (d *DirtyState) recordDelta(piece, fromSq, toSq int) {
	d.deltas[d.count] = featureDelta{piece: piece, fromSq: fromSq, toSq: toSq}
	d.count++
}

// computeDirtyPieces works out which NNUE features m touches, called
// before MakeMove while w.pos still reflects the pre-move position. It
// returns false whenever an incremental accumulator update isn't possible
// (either king moving forces a full refresh for that perspective instead).
func (w *Worker) computeDirtyPieces(m board.Move) bool {
	if !w.useNNUE || w.nnueAcc == nil {
		return false
	}

	d := &w.dirtyState
	d.count = 0
	d.kingMoved[0] = false
	d.kingMoved[1] = false
	d.computed = false

	pos := w.pos
	from, to := m.From(), m.To()
	movingPiece := pos.PieceAt(from)
	if movingPiece == board.NoPiece {
		return false
	}

	us := int(movingPiece.Color())
	pt := movingPiece.Type()
	sfPiece := sfnnuePieceTable[us][pt]

	d.kingSq[0] = int(pos.KingSquare[board.White])
	d.kingSq[1] = int(pos.KingSquare[board.Black])

	if pt == board.King || m.IsCastling() {
		d.kingMoved[us] = true
		d.kingSq[us] = int(to)
		d.computed = true
		return false
	}

	d.recordDelta(sfPiece, int(from), int(to))

	switch {
	case m.IsEnPassant():
		capturedSq := to - 8
		if us == int(board.Black) {
			capturedSq = to + 8
		}
		capturedColor := 1 - us
		d.recordDelta(sfnnuePieceTable[capturedColor][board.Pawn], int(capturedSq), -1)

	default:
		if capturedPiece := pos.PieceAt(to); capturedPiece != board.NoPiece {
			capturedColor := int(capturedPiece.Color())
			d.recordDelta(sfnnuePieceTable[capturedColor][capturedPiece.Type()], int(to), -1)
		}
	}

	if m.IsPromotion() {
		promoSfPiece := sfnnuePieceTable[us][m.Promotion()]
		// The pawn move recorded above must become "pawn removed"; the
		// promoted piece is a separate "added" entry.
		d.deltas[0] = featureDelta{piece: sfPiece, fromSq: int(from), toSq: -1}
		d.recordDelta(promoSfPiece, -1, int(to))
	}

	d.computed = true
	return true
}

// computeFeatureDeltas splits the recorded dirty pieces into removed and
// added feature-index lists for one perspective, using the tail of
// w.activeIndicesBuffer as scratch space (first half removed, second added).
func (w *Worker) computeFeatureDeltas(perspective, ksq int) (removed, added []int) {
	removedBuf := w.activeIndicesBuffer[0:32]
	addedBuf := w.activeIndicesBuffer[32:64]
	removedCount, addedCount := 0, 0

	for i := 0; i < w.dirtyState.count; i++ {
		delta := &w.dirtyState.deltas[i]
		if delta.fromSq >= 0 {
			removedBuf[removedCount] = features.MakeIndex(perspective, delta.fromSq, delta.piece, ksq)
			removedCount++
		}
		if delta.toSq >= 0 {
			addedBuf[addedCount] = features.MakeIndex(perspective, delta.toSq, delta.piece, ksq)
			addedCount++
		}
	}

	return removedBuf[:removedCount], addedBuf[:addedCount]
}

var simpleEvalPieceValues = [6]int{100, 320, 330, 500, 900, 0}

// simpleEval returns the absolute material advantage, used to pick between
// the big and small NNUE networks the way Stockfish's simple_eval does.
func (w *Worker) simpleEval() int {
	pos := w.pos
	score := 0
	for pt := board.Pawn; pt <= board.Queen; pt++ {
		white := bits.OnesCount64(uint64(pos.Pieces[board.White][pt]))
		black := bits.OnesCount64(uint64(pos.Pieces[board.Black][pt]))
		score += (white - black) * simpleEvalPieceValues[pt]
	}
	if pos.SideToMove == board.Black {
		score = -score
	}
	return absInt(score)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ensureAccumulatorComputed brings acc up to date for net, preferring an
// incremental update from the parent ply's accumulator and falling back to
// a full recomputation whenever that isn't available.
func (w *Worker) ensureAccumulatorComputed(net *sfnnue.Network, acc *sfnnue.Accumulator, isSmall bool) {
	var parent *sfnnue.Accumulator
	if isSmall {
		parent = w.nnueAcc.PreviousSmall()
	} else {
		parent = w.nnueAcc.PreviousBig()
	}

	for perspective := 0; perspective < 2; perspective++ {
		if acc.Computed[perspective] {
			continue
		}

		canIncremental := parent != nil &&
			parent.Computed[perspective] &&
			!acc.NeedsRefresh[perspective] &&
			w.dirtyState.computed && w.dirtyState.count > 0

		if !canIncremental {
			computeAccumulator(net, w.pos, acc, perspective, w.activeIndicesBuffer[:])
			continue
		}

		ksq := int(w.pos.KingSquare[perspective])
		removed, added := w.computeFeatureDeltas(perspective, ksq)
		net.FeatureTransformer.UpdateAccumulator(
			removed, added,
			acc.Accumulation[perspective],
			acc.PSQTAccumulation[perspective],
		)
		acc.Computed[perspective] = true
		acc.KingSq[perspective] = ksq
	}
}

// nnueEvaluate scores w's position with the dual-network NNUE blend: the
// big network's positional term plus both networks' PSQT terms averaged,
// then an optimism adjustment and 50-move-rule dampening in the style of
// Stockfish's evaluate().
func (w *Worker) nnueEvaluate() int {
	if w.nnueNet == nil || w.nnueAcc == nil {
		return EvaluateWithPawnTable(w.pos, w.pawnTable)
	}

	pieceCount := countPieces(w.pos)
	sideToMove := 0
	if w.pos.SideToMove == board.Black {
		sideToMove = 1
	}

	bigAcc := w.nnueAcc.CurrentBig()
	smallAcc := w.nnueAcc.CurrentSmall()
	w.ensureAccumulatorComputed(w.nnueNet.Big, bigAcc, false)
	w.ensureAccumulatorComputed(w.nnueNet.Small, smallAcc, true)

	bigPsqt, bigPositional := w.nnueNet.Big.Evaluate(
		bigAcc.Accumulation, bigAcc.PSQTAccumulation, sideToMove, pieceCount, w.nnueAcc.TransformBuffer[:],
	)
	smallPsqt, _ := w.nnueNet.Small.Evaluate(
		smallAcc.Accumulation, smallAcc.PSQTAccumulation, sideToMove, pieceCount, w.nnueAcc.TransformBuffer[:],
	)

	score := int(bigPositional) + int(smallPsqt+bigPsqt)/2

	optimism := w.optimism[sideToMove]
	pawnCount := bits.OnesCount64(uint64(w.pos.Pieces[board.White][board.Pawn])) +
		bits.OnesCount64(uint64(w.pos.Pieces[board.Black][board.Pawn]))
	material := 534*pawnCount + nonPawnMaterial(w.pos)
	score += optimism * (7191 + material) / 77871

	rule50 := int(w.pos.HalfMoveClock)
	score -= score * rule50 / 199

	return score
}

var nonPawnPieceValues = [6]int{0, 320, 330, 500, 900, 0}

// nonPawnMaterial totals material excluding pawns and kings, for the
// material-scaled optimism term in nnueEvaluate.
func nonPawnMaterial(pos *board.Position) int {
	total := 0
	for c := 0; c < 2; c++ {
		for pt := board.Knight; pt <= board.Queen; pt++ {
			total += bits.OnesCount64(uint64(pos.Pieces[c][pt])) * nonPawnPieceValues[pt]
		}
	}
	return total
}

// computeAccumulator recomputes acc from scratch for one perspective,
// reusing indexBuffer to avoid allocating a fresh slice per call.
func computeAccumulator(net *sfnnue.Network, pos *board.Position, acc *sfnnue.Accumulator, perspective int, indexBuffer []int) {
	var activeList features.IndexList
	appendActiveIndicesDirect(perspective, pos, &activeList)

	activeIndices := indexBuffer[:activeList.Size]
	copy(activeIndices, activeList.Values[:activeList.Size])

	net.FeatureTransformer.ComputeAccumulator(
		activeIndices,
		acc.Accumulation[perspective],
		acc.PSQTAccumulation[perspective],
	)
	acc.Computed[perspective] = true
	acc.KingSq[perspective] = int(pos.KingSquare[perspective])
}

// resetNNUEAccumulators marks every accumulator as needing recomputation.
func (w *Worker) resetNNUEAccumulators() {
	if w.nnueAcc != nil {
		w.nnueAcc.Reset()
	}
}

// markAccumulatorPair sets the Computed/NeedsRefresh flags for one
// perspective on both the big and small accumulators in lockstep — they
// always track the same dirty/refresh state, just different networks.
func markAccumulatorPair(big, small *sfnnue.Accumulator, perspective int, needsRefresh bool) {
	big.NeedsRefresh[perspective] = needsRefresh
	small.NeedsRefresh[perspective] = needsRefresh
	big.Computed[perspective] = false
	small.Computed[perspective] = false
}

// nnuePush pushes a new accumulator frame (inheriting the parent's values)
// and marks which perspectives need a full refresh: both, if dirty state
// wasn't computed for this move (e.g. a null move), or just the
// perspectives whose king moved otherwise. computeDirtyPieces must already
// have run for the move being made.
func (w *Worker) nnuePush() {
	if !w.useNNUE || w.nnueAcc == nil {
		return
	}
	w.nnueAcc.Push()

	bigAcc := w.nnueAcc.CurrentBig()
	smallAcc := w.nnueAcc.CurrentSmall()

	if !w.dirtyState.computed {
		markAccumulatorPair(bigAcc, smallAcc, 0, true)
		markAccumulatorPair(bigAcc, smallAcc, 1, true)
		return
	}

	for p := 0; p < 2; p++ {
		markAccumulatorPair(bigAcc, smallAcc, p, w.dirtyState.kingMoved[p])
	}
}

// nnuePop restores the accumulator frame from before the last nnuePush.
func (w *Worker) nnuePop() {
	if w.useNNUE && w.nnueAcc != nil {
		w.nnueAcc.Pop()
	}
}
