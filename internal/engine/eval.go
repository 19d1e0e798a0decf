package engine

import (
	"github.com/tinygambit/tinygambit/internal/board"
)

// Material values in centipawns.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

// pieceValues indexes material value by board.PieceType.
var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// passedPawnRankBonus gives a flat bonus by the pawn's relative rank (0 =
// first rank, 6 = seventh rank, about to promote).
var passedPawnRankBonus = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

const (
	passedConnectedBonus = 20 // another passed pawn on an adjacent file
	passedProtectedBonus = 15 // shielded by a friendly pawn
	passedFreePathBonus  = 30 // nothing blocks the file ahead
	passedRunnerBonus    = 200
)

// mobilityMg/EgWeight scale safe-square counts by piece type.
var mobilityMgWeight = [6]int{0, 4, 5, 2, 1, 0}
var mobilityEgWeight = [6]int{0, 3, 4, 4, 2, 0}

// kingZoneAttackerWeight scores how threatening an attacker of a given type
// is once it reaches the enemy king's zone.
var kingZoneAttackerWeight = [6]int{0, 20, 20, 40, 80, 0}

const (
	pawnShieldBonus   = 10
	pawnShieldMissing = -15
	openFilePenalty   = -20
	semiOpenPenalty   = -10
)

const (
	bishopPairMgBonus = 25
	bishopPairEgBonus = 50
)

const (
	rookOpenFileMg     = 20
	rookOpenFileEg     = 25
	rookSemiOpenFileMg = 10
	rookSemiOpenFileEg = 15
)

const (
	doubledPawnMgPenalty  = -15
	doubledPawnEgPenalty  = -20
	isolatedPawnMgPenalty = -20
	isolatedPawnEgPenalty = -25
	backwardPawnMgPenalty = -15
	backwardPawnEgPenalty = -10
)

const (
	knightOutpostMg          = 25
	knightOutpostEg          = 15
	knightOutpostProtectedMg = 15
	knightOutpostProtectedEg = 10
	bishopOutpostMg          = 15
	bishopOutpostEg          = 10
)

const tempoBonus = 10

const (
	hangingPiecePenalty = -40
	threatByPawnBonus   = 25
	threatByMinorBonus  = 20
	loosePiecePenalty   = -10
)

// kingTropismWeight rewards pieces standing close to the enemy king.
var kingTropismWeight = [6]int{0, 3, 2, 2, 5, 0}

// kingDistanceTable turns a king's distance (in king-moves) to a square into
// an endgame bonus/penalty used for passed-pawn races.
var kingDistanceTable = [8]int{0, 0, 10, 20, 30, 40, 50, 60}

const (
	rookOn7thMg          = 30
	rookOn7thEg          = 40
	rookOn7thWithPawnsMg = 15
	rookOn7thWithPawnsEg = 20
	doubleRooksOn7thMg   = 50
	doubleRooksOn7thEg   = 60
	connectedRooksMg     = 10
	connectedRooksEg     = 15
	doubledRooksOnFileMg = 20
	doubledRooksOnFileEg = 25
)

const (
	spaceSquareBonus     = 2
	spaceBehindPawnBonus = 3
	spaceMinPieces       = 3
)

var (
	whiteSpaceZone = (board.FileC | board.FileD | board.FileE | board.FileF) &
		(board.Rank2 | board.Rank3 | board.Rank4 | board.Rank5)
	blackSpaceZone = (board.FileC | board.FileD | board.FileE | board.FileF) &
		(board.Rank4 | board.Rank5 | board.Rank6 | board.Rank7)
)

const (
	badBishopPenaltyMg     = -5
	badBishopPenaltyEg     = -10
	trappedBishopPenaltyMg = -80
	trappedBishopPenaltyEg = -50
	trappedRookPenaltyMg   = -50
	trappedRookPenaltyEg   = -25
	knightRimPenaltyMg     = -15
	knightRimPenaltyEg     = -10
	knightCornerPenaltyMg  = -30
	knightCornerPenaltyEg  = -20
)

var (
	lightSquares board.Bitboard
	darkSquares  board.Bitboard
)

var (
	rimSquares    = board.FileA | board.FileH | board.Rank1 | board.Rank8
	cornerSquares = board.SquareBB(board.A1) | board.SquareBB(board.H1) |
		board.SquareBB(board.A8) | board.SquareBB(board.H8)
)

func init() {
	for sq := board.A1; sq <= board.H8; sq++ {
		if (sq.File()+sq.Rank())%2 == 1 {
			lightSquares |= board.SquareBB(sq)
		} else {
			darkSquares |= board.SquareBB(sq)
		}
	}
}

// Piece-square tables, White's perspective; Black reads the mirrored square.

var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

var pieceSquareTables = [...][64]int{
	pawnPST, knightPST, bishopPST, rookPST, queenPST, kingMidgamePST,
}

const maxGamePhase = 24

// colorSign is +1 for White, -1 for Black; every evaluation term is computed
// once per side and folded in with this sign.
func colorSign(c board.Color) int {
	if c == board.Black {
		return -1
	}
	return 1
}

// taper blends a middlegame and an endgame score by how many non-pawn pieces
// remain on the board.
func taper(mg, eg, phase int) int {
	if phase > maxGamePhase {
		phase = maxGamePhase
	}
	return (mg*phase + eg*(maxGamePhase-phase)) / maxGamePhase
}

// materialAndPST walks every piece once, accumulating material, piece-square
// table value, and game-phase weight for the tapered eval.
func materialAndPST(pos *board.Position) (mg, eg, phase int) {
	for c := board.White; c <= board.Black; c++ {
		sign := colorSign(c)
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()

				mg += sign * pieceValues[pt]
				eg += sign * pieceValues[pt]

				pstSq := sq
				if c == board.Black {
					pstSq = sq.Mirror()
				}
				if pt == board.King {
					mg += sign * kingMidgamePST[pstSq]
					eg += sign * kingEndgamePST[pstSq]
				} else {
					v := pieceSquareTables[pt][pstSq]
					mg += sign * v
					eg += sign * v
				}

				switch pt {
				case board.Knight, board.Bishop:
					phase++
				case board.Rook:
					phase += 2
				case board.Queen:
					phase += 4
				}
			}
		}
	}
	return mg, eg, phase
}

// finishScore applies the tapered blend, the tempo bonus, and reorients the
// result to the side to move.
func finishScore(pos *board.Position, mg, eg, phase int) int {
	score := taper(mg, eg, phase) + tempoBonus
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// Evaluate returns the full static evaluation of pos from the side to move's
// perspective.
func Evaluate(pos *board.Position) int {
	mg, eg, phase := materialAndPST(pos)

	addPair(&mg, &eg, passedPawnScore(pos))
	addPair(&mg, &eg, mobilityScore(pos))
	mg += kingSafetyScore(pos)
	mg += kingTropismScore(pos)
	addPair(&mg, &eg, bishopPairScore(pos))
	addPair(&mg, &eg, rookFileScore(pos))
	addPair(&mg, &eg, rookCoordinationScore(pos))
	addPair(&mg, &eg, pawnStructureScore(pos))
	addPair(&mg, &eg, outpostScore(pos))
	addPair(&mg, &eg, threatScore(pos))
	mg += spaceScore(pos)
	addPair(&mg, &eg, trappedPieceScore(pos))

	return finishScore(pos, mg, eg, phase)
}

// EvaluateWithPawnTable is Evaluate's cheaper sibling used inside search: it
// caches pawn-structure scoring and skips the terms too slow to afford at
// every node (king tropism, rook coordination, space, trapped pieces).
func EvaluateWithPawnTable(pos *board.Position, pawnTable *PawnTable) int {
	mg, eg, phase := materialAndPST(pos)

	addPair(&mg, &eg, passedPawnScore(pos))
	addPair(&mg, &eg, mobilityScore(pos))
	mg += kingSafetyScore(pos)
	addPair(&mg, &eg, bishopPairScore(pos))
	addPair(&mg, &eg, rookFileScore(pos))
	addPair(&mg, &eg, pawnStructureCached(pos, pawnTable))
	addPair(&mg, &eg, outpostScore(pos))
	addPair(&mg, &eg, threatScore(pos))

	return finishScore(pos, mg, eg, phase)
}

func addPair(mg, eg *int, dmg, deg int) {
	*mg += dmg
	*eg += deg
}

// EvaluateMaterial returns only the material balance, for cheap delta-prune
// checks where positional detail isn't worth the cycles.
func EvaluateMaterial(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += pos.Pieces[board.White][pt].PopCount() * pieceValues[pt]
		score -= pos.Pieces[board.Black][pt].PopCount() * pieceValues[pt]
	}
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// IsEndgame reports whether pos has entered the endgame phase: no queens
// anywhere, or one queen total plus little other material.
func IsEndgame(pos *board.Position) bool {
	whiteQueens := pos.Pieces[board.White][board.Queen].PopCount()
	blackQueens := pos.Pieces[board.Black][board.Queen].PopCount()
	if whiteQueens == 0 && blackQueens == 0 {
		return true
	}

	minorMajorCount := func(c board.Color) int {
		return pos.Pieces[c][board.Knight].PopCount() +
			pos.Pieces[c][board.Bishop].PopCount() +
			pos.Pieces[c][board.Rook].PopCount()
	}

	return whiteQueens+blackQueens <= 1 && minorMajorCount(board.White)+minorMajorCount(board.Black) <= 4
}

// adjacentFileMask returns the mask of files immediately to the left and
// right of file, edges yielding a one-sided mask.
func adjacentFileMask(file int) board.Bitboard {
	var mask board.Bitboard
	if file > 0 {
		mask |= board.FileMask[file-1]
	}
	if file < 7 {
		mask |= board.FileMask[file+1]
	}
	return mask
}

// ranksFrom ORs together every rank mask from lo to hi inclusive.
func ranksFrom(lo, hi int) board.Bitboard {
	var mask board.Bitboard
	for r := lo; r <= hi; r++ {
		mask |= board.RankMask[r]
	}
	return mask
}

// isPassedPawn reports whether the pawn on sq has no enemy pawn able to
// block or capture it on its way to promotion.
func isPassedPawn(pos *board.Position, sq board.Square, us board.Color) bool {
	file := sq.File()
	fileMask := board.FileMask[file] | adjacentFileMask(file)

	var ahead board.Bitboard
	if us == board.White {
		ahead = board.SquareBB(sq).NorthFill() &^ board.SquareBB(sq)
	} else {
		ahead = board.SquareBB(sq).SouthFill() &^ board.SquareBB(sq)
	}

	enemyPawns := pos.Pieces[us.Other()][board.Pawn]
	return (enemyPawns & fileMask & ahead) == 0
}

// passedPawnScore rewards passed pawns, scaling the bonus by rank, support,
// connectivity, clear path, and (in the endgame) king-race geometry.
func passedPawnScore(pos *board.Position) (mg, eg int) {
	for us := board.White; us <= board.Black; us++ {
		sign := colorSign(us)
		friendlyPawns := pos.Pieces[us][board.Pawn]
		pawns := friendlyPawns
		them := us.Other()

		ourKing := pos.KingSquare[us]
		theirKing := pos.KingSquare[them]

		for pawns != 0 {
			sq := pawns.PopLSB()
			if !isPassedPawn(pos, sq, us) {
				continue
			}

			relRank := sq.RelativeRank(us)
			file := sq.File()
			bonus := passedPawnRankBonus[relRank]
			egExtra := 0

			var promoSq board.Square
			if us == board.White {
				promoSq = board.NewSquare(file, 7)
			} else {
				promoSq = board.NewSquare(file, 0)
			}

			ownDist := kingMoveDistance(ourKing, sq)
			egExtra += kingDistanceTable[7-min(ownDist, 7)]

			enemyDistToPromo := kingMoveDistance(theirKing, promoSq)
			egExtra += kingDistanceTable[min(enemyDistToPromo, 7)]

			if board.PawnAttacks(sq, them)&friendlyPawns != 0 {
				bonus += passedProtectedBonus
			}

			connected := friendlyPawns & adjacentFileMask(file)
			for rest := connected; rest != 0; {
				connSq := rest.PopLSB()
				if isPassedPawn(pos, connSq, us) {
					bonus += passedConnectedBonus
					break
				}
			}

			var ahead board.Bitboard
			if us == board.White {
				ahead = board.SquareBB(sq).NorthFill() &^ board.SquareBB(sq)
			} else {
				ahead = board.SquareBB(sq).SouthFill() &^ board.SquareBB(sq)
			}
			ahead &= board.FileMask[file]
			pathClear := (ahead & pos.AllOccupied) == 0
			if pathClear {
				bonus += passedFreePathBonus
			}

			if pathClear && relRank >= 4 {
				squaresToPromo := 7 - relRank
				enemyDistToPawn := kingMoveDistance(theirKing, sq)
				tempo := 0
				if pos.SideToMove == us {
					tempo = 1
				}
				if enemyDistToPawn > squaresToPromo+1-tempo {
					egExtra += passedRunnerBonus
				}
			}

			mg += sign * bonus
			eg += sign * (bonus*3/2 + egExtra)
		}
	}
	return mg, eg
}

// safeAttackTargets returns the squares enemy pawns don't cover and our own
// pieces don't occupy, the baseline "safe" set every piece's mobility count
// is measured against.
func safeAttackTargets(pos *board.Position, us board.Color) board.Bitboard {
	enemyPawns := pos.Pieces[us.Other()][board.Pawn]
	var covered board.Bitboard
	if us == board.White {
		covered = enemyPawns.SouthEast() | enemyPawns.SouthWest()
	} else {
		covered = enemyPawns.NorthEast() | enemyPawns.NorthWest()
	}
	return ^(covered | pos.Occupied[us])
}

// mobilityScore counts safe squares each minor/major piece attacks, weighted
// by piece type and game phase.
func mobilityScore(pos *board.Position) (mg, eg int) {
	occupied := pos.AllOccupied

	for us := board.White; us <= board.Black; us++ {
		sign := colorSign(us)
		safe := safeAttackTargets(pos, us)

		count := func(pt board.PieceType, attacksOf func(board.Square) board.Bitboard) {
			pieces := pos.Pieces[us][pt]
			for pieces != 0 {
				sq := pieces.PopLSB()
				n := (attacksOf(sq) & safe).PopCount()
				mg += sign * mobilityMgWeight[pt] * n
				eg += sign * mobilityEgWeight[pt] * n
			}
		}

		count(board.Knight, func(sq board.Square) board.Bitboard { return board.KnightAttacks(sq) })
		count(board.Bishop, func(sq board.Square) board.Bitboard { return board.BishopAttacks(sq, occupied) })
		count(board.Rook, func(sq board.Square) board.Bitboard { return board.RookAttacks(sq, occupied) })
		count(board.Queen, func(sq board.Square) board.Bitboard { return board.QueenAttacks(sq, occupied) })
	}

	return mg, eg
}

// kingSafetyScore penalizes a king whose zone is crowded by enemy attackers
// and rewards an intact pawn shield in front of it.
func kingSafetyScore(pos *board.Position) int {
	var score int
	occupied := pos.AllOccupied

	for us := board.White; us <= board.Black; us++ {
		sign := colorSign(us)
		kingSq := pos.KingSquare[us]
		kingFile := kingSq.File()
		them := us.Other()

		zone := board.KingAttacks(kingSq) | board.SquareBB(kingSq)
		if us == board.White {
			zone |= zone.North()
		} else {
			zone |= zone.South()
		}

		attackerCount, attackWeight := 0, 0
		tally := func(pt board.PieceType, attacksOf func(board.Square) board.Bitboard) {
			pieces := pos.Pieces[them][pt]
			for pieces != 0 {
				sq := pieces.PopLSB()
				if attacksOf(sq)&zone != 0 {
					attackerCount++
					attackWeight += kingZoneAttackerWeight[pt]
				}
			}
		}
		tally(board.Knight, func(sq board.Square) board.Bitboard { return board.KnightAttacks(sq) })
		tally(board.Bishop, func(sq board.Square) board.Bitboard { return board.BishopAttacks(sq, occupied) })
		tally(board.Rook, func(sq board.Square) board.Bitboard { return board.RookAttacks(sq, occupied) })
		tally(board.Queen, func(sq board.Square) board.Bitboard { return board.QueenAttacks(sq, occupied) })

		if attackerCount >= 2 {
			attackWeight = attackWeight * attackerCount / 2
		}
		score -= sign * attackWeight

		ownPawns := pos.Pieces[us][board.Pawn]
		enemyPawns := pos.Pieces[them][board.Pawn]

		shieldRank := 1
		if us == board.Black {
			shieldRank = 6
		}

		for f := kingFile - 1; f <= kingFile+1; f++ {
			if f < 0 || f > 7 {
				continue
			}
			filePawns := ownPawns & board.FileMask[f]
			enemyOnFile := enemyPawns & board.FileMask[f]

			shieldMask := board.FileMask[f] & board.RankMask[shieldRank]
			if ownPawns&shieldMask != 0 {
				score += sign * pawnShieldBonus
			} else if filePawns == 0 {
				score += sign * pawnShieldMissing
			}

			if filePawns == 0 && enemyOnFile == 0 {
				score += sign * openFilePenalty
			} else if filePawns == 0 {
				score += sign * semiOpenPenalty
			}
		}
	}

	return score
}

// SEE (Static Exchange Evaluation) estimates the net material result of the
// full capture sequence starting with the move on sq, from the mover's side.
func SEE(pos *board.Position, m board.Move) int {
	from := m.From()
	to := m.To()

	attacker := pos.PieceAt(from)
	if attacker == board.NoPiece {
		return 0
	}

	var gain int
	if m.IsEnPassant() {
		gain = PawnValue
	} else {
		victim := pos.PieceAt(to)
		if victim == board.NoPiece {
			return 0
		}
		gain = pieceValues[victim.Type()]
	}

	if m.IsPromotion() {
		gain += pieceValues[m.Promotion()] - PawnValue
	}

	return seeSwap(pos, to, from, attacker, gain)
}

// seeSwap replays the alternating-capture sequence on target and negamaxes
// the resulting gain array, the standard SEE swap algorithm.
func seeSwap(pos *board.Position, target, firstFrom board.Square, firstAttacker board.Piece, initialGain int) int {
	var gain [32]int
	depth := 0
	gain[depth] = initialGain

	occupied := pos.AllOccupied &^ board.SquareBB(firstFrom)
	attackerValue := pieceValues[firstAttacker.Type()]
	side := firstAttacker.Color().Other()

	for {
		depth++
		gain[depth] = attackerValue - gain[depth-1]
		if max(-gain[depth-1], gain[depth]) < 0 {
			break
		}

		sq, piece := leastValuableAttacker(pos, target, side, occupied)
		if sq == board.NoSquare {
			break
		}
		occupied &^= board.SquareBB(sq)
		attackerValue = pieceValues[piece.Type()]
		side = side.Other()
	}

	for depth--; depth > 0; depth-- {
		gain[depth-1] = -max(-gain[depth-1], gain[depth])
	}
	return gain[0]
}

// leastValuableAttacker returns the cheapest piece of side attacking target,
// pawns first and king last, or NoSquare if side has no attacker left.
func leastValuableAttacker(pos *board.Position, target board.Square, side board.Color, occupied board.Bitboard) (board.Square, board.Piece) {
	bishopAtk := board.BishopAttacks(target, occupied)
	rookAtk := board.RookAttacks(target, occupied)

	candidates := []struct {
		pt      board.PieceType
		attacks board.Bitboard
	}{
		{board.Pawn, board.PawnAttacks(target, side.Other())},
		{board.Knight, board.KnightAttacks(target)},
		{board.Bishop, bishopAtk},
		{board.Rook, rookAtk},
		{board.Queen, bishopAtk | rookAtk},
		{board.King, board.KingAttacks(target)},
	}

	for _, c := range candidates {
		attackers := pos.Pieces[side][c.pt] & c.attacks & occupied
		if attackers != 0 {
			return attackers.LSB(), board.NewPiece(c.pt, side)
		}
	}
	return board.NoSquare, board.NoPiece
}

// bishopPairScore rewards holding both bishops.
func bishopPairScore(pos *board.Position) (mg, eg int) {
	for us := board.White; us <= board.Black; us++ {
		if pos.Pieces[us][board.Bishop].PopCount() >= 2 {
			sign := colorSign(us)
			mg += sign * bishopPairMgBonus
			eg += sign * bishopPairEgBonus
		}
	}
	return mg, eg
}

// rookFileScore rewards rooks standing on open or semi-open files.
func rookFileScore(pos *board.Position) (mg, eg int) {
	for us := board.White; us <= board.Black; us++ {
		sign := colorSign(us)
		ownPawns := pos.Pieces[us][board.Pawn]
		enemyPawns := pos.Pieces[us.Other()][board.Pawn]

		rooks := pos.Pieces[us][board.Rook]
		for rooks != 0 {
			sq := rooks.PopLSB()
			fileMask := board.FileMask[sq.File()]
			hasOwn := ownPawns&fileMask != 0
			hasEnemy := enemyPawns&fileMask != 0

			if !hasOwn && !hasEnemy {
				mg += sign * rookOpenFileMg
				eg += sign * rookOpenFileEg
			} else if !hasOwn {
				mg += sign * rookSemiOpenFileMg
				eg += sign * rookSemiOpenFileEg
			}
		}
	}
	return mg, eg
}

// pawnStructureScore penalizes doubled, isolated, and backward pawns.
func pawnStructureScore(pos *board.Position) (mg, eg int) {
	for us := board.White; us <= board.Black; us++ {
		sign := colorSign(us)
		allPawns := pos.Pieces[us][board.Pawn]
		pawns := allPawns

		for pawns != 0 {
			sq := pawns.PopLSB()
			file := sq.File()
			fileMask := board.FileMask[file]

			onFile := allPawns & fileMask
			if onFile.PopCount() > 1 {
				var front board.Square
				if us == board.White {
					front = onFile.MSB()
				} else {
					front = onFile.LSB()
				}
				if sq == front {
					mg += sign * doubledPawnMgPenalty
					eg += sign * doubledPawnEgPenalty
				}
			}

			adjacent := adjacentFileMask(file)
			if (allPawns & adjacent) == 0 {
				mg += sign * isolatedPawnMgPenalty
				eg += sign * isolatedPawnEgPenalty
				continue
			}

			relRank := sq.RelativeRank(us)
			if relRank <= 1 {
				continue
			}

			var behind board.Bitboard
			if us == board.White {
				behind = ranksFrom(0, int(sq.Rank())-1)
			} else {
				behind = ranksFrom(int(sq.Rank())+1, 7)
			}
			adjacentPawns := allPawns & adjacent
			if adjacentPawns != 0 && (adjacentPawns&behind) == adjacentPawns {
				continue
			}

			var stopSq board.Square
			if us == board.White {
				stopSq = sq + 8
			} else {
				stopSq = sq - 8
			}
			if !stopSq.IsValid() {
				continue
			}
			enemyPawns := pos.Pieces[us.Other()][board.Pawn]
			if enemyPawns&board.PawnAttacks(stopSq, us) != 0 {
				mg += sign * backwardPawnMgPenalty
				eg += sign * backwardPawnEgPenalty
			}
		}
	}
	return mg, eg
}

// pawnStructureCached is pawnStructureScore routed through a PawnTable: the
// hash-keyed skeleton rarely changes move to move, so most probes hit.
func pawnStructureCached(pos *board.Position, pt *PawnTable) (mg, eg int) {
	if pt == nil {
		return pawnStructureScore(pos)
	}
	if mg, eg, ok := pt.Probe(pos.PawnKey); ok {
		return mg, eg
	}
	mg, eg = pawnStructureScore(pos)
	pt.Store(pos.PawnKey, mg, eg)
	return mg, eg
}

// squareReachableByPawn reports whether an enemy pawn on an adjacent file,
// somewhere ahead of sq from us's perspective, could ever advance to attack it.
func squareReachableByPawn(sq board.Square, us board.Color, enemyPawns board.Bitboard) bool {
	file := sq.File()
	var reach board.Bitboard
	if us == board.White {
		reach = ranksFrom(int(sq.Rank())+1, 7)
	} else {
		reach = ranksFrom(0, int(sq.Rank())-1)
	}
	return enemyPawns&adjacentFileMask(file)&reach != 0
}

// outpostScore rewards knights and bishops sitting on advanced squares that
// no enemy pawn can ever challenge.
func outpostScore(pos *board.Position) (mg, eg int) {
	for us := board.White; us <= board.Black; us++ {
		sign := colorSign(us)
		ownPawns := pos.Pieces[us][board.Pawn]
		enemyPawns := pos.Pieces[us.Other()][board.Pawn]

		var outpostRanks board.Bitboard
		if us == board.White {
			outpostRanks = ranksFrom(3, 5)
		} else {
			outpostRanks = ranksFrom(2, 4)
		}

		knights := pos.Pieces[us][board.Knight] & outpostRanks
		for knights != 0 {
			sq := knights.PopLSB()
			if squareReachableByPawn(sq, us, enemyPawns) {
				continue
			}
			mg += sign * knightOutpostMg
			eg += sign * knightOutpostEg
			if board.PawnAttacks(sq, us.Other())&ownPawns != 0 {
				mg += sign * knightOutpostProtectedMg
				eg += sign * knightOutpostProtectedEg
			}
		}

		bishops := pos.Pieces[us][board.Bishop] & outpostRanks
		for bishops != 0 {
			sq := bishops.PopLSB()
			if squareReachableByPawn(sq, us, enemyPawns) {
				continue
			}
			mg += sign * bishopOutpostMg
			eg += sign * bishopOutpostEg
		}
	}
	return mg, eg
}

// attackMap returns every square us attacks, used to classify hanging and
// loose pieces.
func attackMap(pos *board.Position, us board.Color, occupied board.Bitboard) board.Bitboard {
	var atk board.Bitboard
	pawns := pos.Pieces[us][board.Pawn]
	if us == board.White {
		atk |= pawns.NorthEast() | pawns.NorthWest()
	} else {
		atk |= pawns.SouthEast() | pawns.SouthWest()
	}

	for _, pt := range [...]board.PieceType{board.Knight, board.Bishop, board.Rook, board.Queen} {
		pieces := pos.Pieces[us][pt]
		for pieces != 0 {
			sq := pieces.PopLSB()
			switch pt {
			case board.Knight:
				atk |= board.KnightAttacks(sq)
			case board.Bishop:
				atk |= board.BishopAttacks(sq, occupied)
			case board.Rook:
				atk |= board.RookAttacks(sq, occupied)
			case board.Queen:
				atk |= board.QueenAttacks(sq, occupied)
			}
		}
	}
	atk |= board.KingAttacks(pos.KingSquare[us])
	return atk
}

// threatScore penalizes pieces hanging or undefended, and rewards our own
// pawns/minors attacking enemy material above their own worth.
func threatScore(pos *board.Position) (mg, eg int) {
	occupied := pos.AllOccupied

	for us := board.White; us <= board.Black; us++ {
		sign := colorSign(us)
		them := us.Other()

		ourAttacks := attackMap(pos, us, occupied)
		theirAttacks := attackMap(pos, them, occupied)

		ourPieces := pos.Occupied[us] &^ board.SquareBB(pos.KingSquare[us])

		hanging := ourPieces & theirAttacks &^ ourAttacks
		hangingCount := hanging.PopCount()
		mg += sign * hangingCount * hangingPiecePenalty
		eg += sign * hangingCount * (hangingPiecePenalty * 3 / 2)

		loose := ourPieces &^ ourAttacks
		mg += sign * loose.PopCount() * loosePiecePenalty

		theirPieces := pos.Occupied[them] &^ board.SquareBB(pos.KingSquare[them])

		var ourPawnAttacks board.Bitboard
		pawns := pos.Pieces[us][board.Pawn]
		if us == board.White {
			ourPawnAttacks = pawns.NorthEast() | pawns.NorthWest()
		} else {
			ourPawnAttacks = pawns.SouthEast() | pawns.SouthWest()
		}
		pawnThreats := (theirPieces &^ pos.Pieces[them][board.Pawn] & ourPawnAttacks).PopCount()
		mg += sign * pawnThreats * threatByPawnBonus
		eg += sign * pawnThreats * threatByPawnBonus

		var minorAttacks board.Bitboard
		for _, sq := range bitsOf(pos.Pieces[us][board.Knight]) {
			minorAttacks |= board.KnightAttacks(sq)
		}
		for _, sq := range bitsOf(pos.Pieces[us][board.Bishop]) {
			minorAttacks |= board.BishopAttacks(sq, occupied)
		}
		majors := pos.Pieces[them][board.Rook] | pos.Pieces[them][board.Queen]
		minorThreats := (majors & minorAttacks).PopCount()
		mg += sign * minorThreats * threatByMinorBonus
		eg += sign * minorThreats * threatByMinorBonus
	}

	return mg, eg
}

// bitsOf drains bb into a slice of its set squares, for callers that want to
// range over them more than once without re-popping.
func bitsOf(bb board.Bitboard) []board.Square {
	sqs := make([]board.Square, 0, bb.PopCount())
	for bb != 0 {
		sqs = append(sqs, bb.PopLSB())
	}
	return sqs
}

// kingMoveDistance is the number of king moves needed to go from sq1 to sq2:
// max(file distance, rank distance).
func kingMoveDistance(sq1, sq2 board.Square) int {
	df := int(sq1.File()) - int(sq2.File())
	dr := int(sq1.Rank()) - int(sq2.Rank())
	return max(absInt(df), absInt(dr))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// kingTropismScore rewards pieces standing close to the enemy king, a cheap
// proxy for attacking chances.
func kingTropismScore(pos *board.Position) int {
	var score int

	for us := board.White; us <= board.Black; us++ {
		sign := colorSign(us)
		theirKing := pos.KingSquare[us.Other()]

		for pt := board.Knight; pt <= board.Queen; pt++ {
			pieces := pos.Pieces[us][pt]
			for pieces != 0 {
				sq := pieces.PopLSB()
				dist := kingMoveDistance(sq, theirKing)
				if dist < 7 {
					score += sign * kingTropismWeight[pt] * (7 - dist)
				}
			}
		}
	}

	return score
}

// rookCoordinationScore rewards rooks doubled on the seventh rank and rooks
// that defend each other.
func rookCoordinationScore(pos *board.Position) (mg, eg int) {
	occupied := pos.AllOccupied

	for us := board.White; us <= board.Black; us++ {
		sign := colorSign(us)
		them := us.Other()
		rooks := pos.Pieces[us][board.Rook]

		seventh, enemyHomeRank := board.Rank7, board.Rank7
		if us == board.Black {
			seventh, enemyHomeRank = board.Rank2, board.Rank2
		}

		on7th := rooks & seventh
		n7th := on7th.PopCount()
		if n7th > 0 {
			mg += sign * rookOn7thMg * n7th
			eg += sign * rookOn7thEg * n7th

			if pos.Pieces[them][board.Pawn]&enemyHomeRank != 0 {
				mg += sign * rookOn7thWithPawnsMg * n7th
				eg += sign * rookOn7thWithPawnsEg * n7th
			}
			if n7th >= 2 {
				mg += sign * doubleRooksOn7thMg
				eg += sign * doubleRooksOn7thEg
			}
		}

		if rooks.PopCount() >= 2 {
			squares := bitsOf(rooks)
			sq1, sq2 := squares[0], squares[1]
			if board.RookAttacks(sq1, occupied).IsSet(sq2) {
				mg += sign * connectedRooksMg
				eg += sign * connectedRooksEg
				if sq1.File() == sq2.File() {
					mg += sign * doubledRooksOnFileMg
					eg += sign * doubledRooksOnFileEg
				}
			}
		}
	}

	return mg, eg
}

// spaceScore rewards controlling safe squares in the central space zone; a
// side with fewer than spaceMinPieces minor and major pieces scores nothing.
func spaceScore(pos *board.Position) int {
	pieceCount := func(c board.Color) int {
		return pos.Pieces[c][board.Knight].PopCount() +
			pos.Pieces[c][board.Bishop].PopCount() +
			pos.Pieces[c][board.Rook].PopCount() +
			pos.Pieces[c][board.Queen].PopCount()
	}
	whiteCount, blackCount := pieceCount(board.White), pieceCount(board.Black)
	if whiteCount < spaceMinPieces && blackCount < spaceMinPieces {
		return 0
	}

	var score int
	for us := board.White; us <= board.Black; us++ {
		count := whiteCount
		if us == board.Black {
			count = blackCount
		}
		if count < spaceMinPieces {
			continue
		}
		sign := colorSign(us)
		them := us.Other()
		ownPawns := pos.Pieces[us][board.Pawn]
		enemyPawns := pos.Pieces[them][board.Pawn]

		zone := whiteSpaceZone
		if us == board.Black {
			zone = blackSpaceZone
		}

		var ownControl board.Bitboard
		var enemyAttacks board.Bitboard
		var behindPawns board.Bitboard
		if us == board.White {
			ownControl = ownPawns.NorthEast() | ownPawns.NorthWest()
			enemyAttacks = enemyPawns.SouthEast() | enemyPawns.SouthWest()
			behindPawns = ownPawns.SouthFill()
		} else {
			ownControl = ownPawns.SouthEast() | ownPawns.SouthWest()
			enemyAttacks = enemyPawns.NorthEast() | enemyPawns.NorthWest()
			behindPawns = ownPawns.NorthFill()
		}

		safe := zone &^ enemyAttacks
		controlled := (ownControl | behindPawns) & safe
		behindChain := controlled & behindPawns

		bonus := controlled.PopCount()*spaceSquareBonus + behindChain.PopCount()*spaceBehindPawnBonus
		score += sign * bonus
	}

	return score
}

// trappedPieceScore penalizes pieces with little hope of getting active:
// bad bishops blocked by their own pawns, bishops boxed into a corner,
// rooks still stuck behind an uncastled king, and knights stranded on the
// rim or in a corner.
func trappedPieceScore(pos *board.Position) (mg, eg int) {
	for us := board.White; us <= board.Black; us++ {
		sign := colorSign(us)
		them := us.Other()
		ownPawns := pos.Pieces[us][board.Pawn]
		enemyPawns := pos.Pieces[them][board.Pawn]

		bishops := pos.Pieces[us][board.Bishop]
		for rest := bishops; rest != 0; {
			sq := rest.PopLSB()

			sameColorSquares := darkSquares
			if lightSquares.IsSet(sq) {
				sameColorSquares = lightSquares
			}
			blockers := (ownPawns & sameColorSquares).PopCount()
			if blockers >= 3 {
				mg += sign * badBishopPenaltyMg * blockers
				eg += sign * badBishopPenaltyEg * blockers
			}

			if trappedOnDiagonalCorner(sq, us, enemyPawns) {
				mg += sign * trappedBishopPenaltyMg
				eg += sign * trappedBishopPenaltyEg
			}
		}

		if trappedRookCorner(pos, us) {
			mg += sign * trappedRookPenaltyMg
			eg += sign * trappedRookPenaltyEg
		}

		knights := pos.Pieces[us][board.Knight] & rimSquares
		for rest := knights; rest != 0; {
			sq := rest.PopLSB()
			if cornerSquares.IsSet(sq) {
				mg += sign * knightCornerPenaltyMg
				eg += sign * knightCornerPenaltyEg
				continue
			}
			mobility := (board.KnightAttacks(sq) &^ pos.Occupied[us]).PopCount()
			if mobility <= 3 {
				mg += sign * knightRimPenaltyMg
				eg += sign * knightRimPenaltyEg
			}
		}
	}
	return mg, eg
}

// trappedOnDiagonalCorner checks the classic Ba6/Bh6 (or Ba3/Bh3 for Black)
// bishop trap: boxed in by two enemy pawns that can't be dislodged.
func trappedOnDiagonalCorner(sq board.Square, us board.Color, enemyPawns board.Bitboard) bool {
	type corner struct {
		bishopSq       board.Square
		blockA, blockB board.Square
	}
	var corners [2]corner
	if us == board.White {
		corners = [2]corner{
			{board.A6, board.B7, board.B5},
			{board.H6, board.G7, board.G5},
		}
	} else {
		corners = [2]corner{
			{board.A3, board.B2, board.B4},
			{board.H3, board.G2, board.G4},
		}
	}
	for _, c := range corners {
		if sq == c.bishopSq && enemyPawns.IsSet(c.blockA) && enemyPawns.IsSet(c.blockB) {
			return true
		}
	}
	return false
}

// trappedRookCorner checks whether us still has a rook boxed in its home
// corner by its own uncastled king.
func trappedRookCorner(pos *board.Position, us board.Color) bool {
	kingSq := pos.KingSquare[us]
	rooks := pos.Pieces[us][board.Rook]

	kingSide, queenSide := board.WhiteKingSideCastle, board.WhiteQueenSideCastle
	kingSideKingSquares := [2]board.Square{board.F1, board.G1}
	kingSideRookMask := board.SquareBB(board.G1) | board.SquareBB(board.H1)
	queenSideKingSquares := [3]board.Square{board.B1, board.C1, board.D1}
	queenSideRookMask := board.SquareBB(board.A1) | board.SquareBB(board.B1)
	if us == board.Black {
		kingSide, queenSide = board.BlackKingSideCastle, board.BlackQueenSideCastle
		kingSideKingSquares = [2]board.Square{board.F8, board.G8}
		kingSideRookMask = board.SquareBB(board.G8) | board.SquareBB(board.H8)
		queenSideKingSquares = [3]board.Square{board.B8, board.C8, board.D8}
		queenSideRookMask = board.SquareBB(board.A8) | board.SquareBB(board.B8)
	}

	if (kingSq == kingSideKingSquares[0] || kingSq == kingSideKingSquares[1]) &&
		rooks&kingSideRookMask != 0 && pos.CastlingRights&kingSide == 0 {
		return true
	}
	if (kingSq == queenSideKingSquares[0] || kingSq == queenSideKingSquares[1] || kingSq == queenSideKingSquares[2]) &&
		rooks&queenSideRookMask != 0 && pos.CastlingRights&queenSide == 0 {
		return true
	}
	return false
}
