package engine

import (
	"github.com/tinygambit/tinygambit/internal/board"
)

// Move-ordering score bands. Each band sits comfortably above the next so
// e.g. the weakest winning capture still outranks the best killer.
const (
	TTMoveScore     = 10000000
	GoodCaptureBase = 1000000
	KillerScore1    = 900000
	KillerScore2    = 800000
	BadCaptureBase  = -100000
)

const historyCap = 400000

// mvvLva scores a capture by (victim, attacker) piece type: bigger victims
// and smaller attackers both push the score up, so "pawn takes queen"
// outranks "queen takes pawn" even before capture history gets a vote.
var mvvLva = [6][6]int{
	/* P victim */ {15, 14, 14, 13, 12, 11},
	/* N victim */ {25, 24, 24, 23, 22, 21},
	/* B victim */ {35, 34, 34, 33, 32, 31},
	/* R victim */ {45, 44, 44, 43, 42, 41},
	/* Q victim */ {55, 54, 54, 53, 52, 51},
	/* K victim */ {0, 0, 0, 0, 0, 0}, // unreachable: kings are never captured
}

// MoveOrderer holds every move-ordering heuristic the search consults:
// killer moves, butterfly history, counter-moves, capture history, and
// counter-move (continuation) history.
type MoveOrderer struct {
	killers [MaxPly][2]board.Move

	history            [64][64]int                // [from][to]
	counterMoves       [12][64]board.Move          // [piece][to]
	captureHistory     [12][64][6]int              // [attacker][to][victimType]
	continuationHistory [12][64][12][64]int        // [prevPiece][prevTo][piece][to]
}

// NewMoveOrderer returns an empty MoveOrderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and counter-moves and halves every history table, so
// old search's convictions fade rather than vanish outright.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
	for i := range mo.counterMoves {
		for j := range mo.counterMoves[i] {
			mo.counterMoves[i][j] = board.NoMove
		}
	}

	halve2D(&mo.history)
	halve3D(&mo.captureHistory)
	halve4D(&mo.continuationHistory)
}

func halve2D(t *[64][64]int) {
	for i := range t {
		for j := range t[i] {
			t[i][j] /= 2
		}
	}
}

func halve3D(t *[12][64][6]int) {
	for i := range t {
		for j := range t[i] {
			for k := range t[i][j] {
				t[i][j][k] /= 2
			}
		}
	}
}

func halve4D(t *[12][64][12][64]int) {
	for i := range t {
		for j := range t[i] {
			for k := range t[i][j] {
				for l := range t[i][j][k] {
					t[i][j][k][l] /= 2
				}
			}
		}
	}
}

// ScoreMoves assigns an ordering score to every move in moves.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove)
	}
	return scores
}

// ScoreMovesWithCounter is ScoreMoves plus a counter-move bonus and a
// continuation-history bonus for quiet moves, both keyed off prevMove.
func (mo *MoveOrderer) ScoreMovesWithCounter(pos *board.Position, moves *board.MoveList, ply int, ttMove, prevMove board.Move) []int {
	scores := make([]int, moves.Len())
	counterMove := mo.GetCounterMove(prevMove, pos)

	prevPiece := board.NoPiece
	if prevMove != board.NoMove {
		prevPiece = pos.PieceAt(prevMove.To())
	}

	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		score := mo.scoreMove(pos, move, ply, ttMove)

		if move == counterMove && score < KillerScore2 {
			score = KillerScore2 - 10000
		}

		if !move.IsCapture(pos) && !move.IsPromotion() && move != ttMove {
			movePiece := pos.PieceAt(move.From())
			score += mo.GetCountermoveHistoryScore(prevMove, prevPiece, movePiece, move.To()) / 2
		}

		scores[i] = score
	}

	return scores
}

// scoreMove ranks a single move: TT move first, then captures by MVV-LVA
// plus capture history, then promotions, then killers, then plain history.
func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	if m == ttMove {
		return TTMoveScore
	}

	from, to := m.From(), m.To()

	if m.IsCapture(pos) {
		return mo.scoreCapture(pos, m, from, to)
	}
	if m.IsPromotion() {
		return GoodCaptureBase - 1000 + int(m.Promotion())*100
	}
	if m == mo.killers[ply][0] {
		return KillerScore1
	}
	if m == mo.killers[ply][1] {
		return KillerScore2
	}
	return mo.history[from][to]
}

// scoreCapture implements MVV-LVA plus a capture-history adjustment and a
// flat bonus for captures that win material outright.
func (mo *MoveOrderer) scoreCapture(pos *board.Position, m board.Move, from, to board.Square) int {
	attackerPiece := pos.PieceAt(from)
	if attackerPiece == board.NoPiece {
		return GoodCaptureBase
	}
	attacker := attackerPiece.Type()

	var victim board.PieceType
	if m.IsEnPassant() {
		victim = board.Pawn
	} else {
		capturedPiece := pos.PieceAt(to)
		if capturedPiece == board.NoPiece {
			return GoodCaptureBase
		}
		victim = capturedPiece.Type()
	}

	if victim >= board.King || attacker > board.King {
		return GoodCaptureBase
	}

	score := GoodCaptureBase + mvvLva[victim][attacker]*1000
	score += mo.GetCaptureHistoryScore(attackerPiece, to, victim) / 4

	if pieceValues[attacker] < pieceValues[victim] {
		score += 10000
	}

	return score
}

// SortMoves fully sorts moves by score, descending. Selection sort is
// plenty fast at the list sizes chess move generation produces.
func SortMoves(moves *board.MoveList, scores []int) {
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			moves.Swap(i, best)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// PickMove moves the highest-scoring move at or after index into index,
// letting callers sort lazily — one pick per ply actually explored.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers records m as a killer at ply, bumping the previous first
// killer down to second.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// applyHistoryBonus is the shared gravity update used by every history
// table below: add depth^2 on success, subtract it on failure, clamping at
// historyCap and triggering rescale (a full halving) when a cell would spill
// above the positive cap.
func applyHistoryBonus(cell *int, depth int, isGood bool, rescale func()) {
	bonus := depth * depth
	if isGood {
		*cell += bonus
		if *cell > historyCap {
			rescale()
		}
		return
	}
	*cell -= bonus
	if *cell < -historyCap {
		*cell = -historyCap
	}
}

// UpdateHistory adjusts the butterfly history score for a quiet move.
func (mo *MoveOrderer) UpdateHistory(m board.Move, depth int, isGood bool) {
	from, to := m.From(), m.To()
	applyHistoryBonus(&mo.history[from][to], depth, isGood, func() { halve2D(&mo.history) })
}

// UpdateCounterMove records counterMove as the reply played against prevMove.
func (mo *MoveOrderer) UpdateCounterMove(prevMove, counterMove board.Move, pos *board.Position) {
	if prevMove == board.NoMove {
		return
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return
	}
	mo.counterMoves[piece][prevMove.To()] = counterMove
}

// GetCounterMove returns the recorded reply to prevMove, if any.
func (mo *MoveOrderer) GetCounterMove(prevMove board.Move, pos *board.Position) board.Move {
	if prevMove == board.NoMove {
		return board.NoMove
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return board.NoMove
	}
	return mo.counterMoves[piece][prevMove.To()]
}

// GetHistoryScore returns the butterfly history score for m, used by the
// search's history-pruning heuristic.
func (mo *MoveOrderer) GetHistoryScore(m board.Move) int {
	return mo.history[m.From()][m.To()]
}

// UpdateCaptureHistory adjusts the capture-specific history score for a
// capturing move.
func (mo *MoveOrderer) UpdateCaptureHistory(attackerPiece board.Piece, toSq board.Square, capturedType board.PieceType, depth int, isGood bool) {
	if attackerPiece == board.NoPiece || capturedType >= board.King {
		return
	}
	cell := &mo.captureHistory[attackerPiece][toSq][capturedType]
	applyHistoryBonus(cell, depth, isGood, func() { halve3D(&mo.captureHistory) })
}

// GetCaptureHistoryScore returns the capture-history score for a capture.
func (mo *MoveOrderer) GetCaptureHistoryScore(attackerPiece board.Piece, toSq board.Square, capturedType board.PieceType) int {
	if attackerPiece == board.NoPiece || capturedType >= board.King {
		return 0
	}
	return mo.captureHistory[attackerPiece][toSq][capturedType]
}

// UpdateCountermoveHistory adjusts the continuation-history score for a
// quiet move played in reply to prevMove.
func (mo *MoveOrderer) UpdateCountermoveHistory(prevMove, goodMove board.Move, prevPiece, movePiece board.Piece, depth int, isGood bool) {
	if prevMove == board.NoMove || prevPiece == board.NoPiece || movePiece == board.NoPiece {
		return
	}
	cell := &mo.continuationHistory[prevPiece][prevMove.To()][movePiece][goodMove.To()]
	applyHistoryBonus(cell, depth, isGood, func() { halve4D(&mo.continuationHistory) })
}

// GetCountermoveHistoryScore returns the continuation-history score for
// movePiece moving to moveTo, given prevMove was just played.
func (mo *MoveOrderer) GetCountermoveHistoryScore(prevMove board.Move, prevPiece, movePiece board.Piece, moveTo board.Square) int {
	if prevMove == board.NoMove || prevPiece == board.NoPiece || movePiece == board.NoPiece {
		return 0
	}
	return mo.continuationHistory[prevPiece][prevMove.To()][movePiece][moveTo]
}
