package board

// Polyglot-style key material, kept separate from the engine's own Zobrist
// table (zobrist.go) since Polyglot opening books are keyed by their own
// hash scheme: a different piece ordering, and only four castling bits
// plus a conditional en passant bit rather than the full 16-entry mask.
var (
	polyglotPieces     [12][64]uint64 // indexed by Polyglot piece kind, then square
	polyglotCastling   [4]uint64      // WK, WQ, BK, BQ
	polyglotEnPassant  [8]uint64      // indexed by file
	polyglotSideToMove uint64
)

func init() {
	seedPolyglotTables()
}

// polyglotPieceKind maps our (Color, PieceType) pair to the Polyglot piece
// ordering: black pawn..king occupy indices 0-5, white pawn..king 6-11.
var polyglotPieceKind = [2][6]int{
	Black: {0, 1, 2, 3, 4, 5},
	White: {6, 7, 8, 9, 10, 11},
}

// PolyglotHash computes p's key under the Polyglot hashing scheme, for
// probing externally supplied Polyglot opening-book files.
func (p *Position) PolyglotHash() uint64 {
	var hash uint64

	for color := White; color <= Black; color++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[color][pt]
			kind := polyglotPieceKind[color][pt]
			for bb != 0 {
				hash ^= polyglotPieces[kind][bb.PopLSB()]
			}
		}
	}

	if p.CastlingRights&WhiteKingSideCastle != 0 {
		hash ^= polyglotCastling[0]
	}
	if p.CastlingRights&WhiteQueenSideCastle != 0 {
		hash ^= polyglotCastling[1]
	}
	if p.CastlingRights&BlackKingSideCastle != 0 {
		hash ^= polyglotCastling[2]
	}
	if p.CastlingRights&BlackQueenSideCastle != 0 {
		hash ^= polyglotCastling[3]
	}

	if p.EnPassant != NoSquare && p.enPassantCapturable() {
		hash ^= polyglotEnPassant[p.EnPassant.File()]
	}

	if p.SideToMove == White {
		hash ^= polyglotSideToMove
	}

	return hash
}

// enPassantCapturable reports whether the side to move actually has a pawn
// positioned to play the en passant capture — Polyglot only folds the
// en-passant key into the hash when the capture is really available.
func (p *Position) enPassantCapturable() bool {
	file := p.EnPassant.File()
	attackerRank := 4 // white pawns capturing onto rank 6 stand on rank 5 (index 4)
	attackerColor := White
	if p.SideToMove == Black {
		attackerRank = 3 // black pawns capturing onto rank 3 stand on rank 4 (index 3)
		attackerColor = Black
	}

	pawns := p.Pieces[attackerColor][Pawn]
	if file > 0 && pawns.IsSet(NewSquare(file-1, attackerRank)) {
		return true
	}
	if file < 7 && pawns.IsSet(NewSquare(file+1, attackerRank)) {
		return true
	}
	return false
}

// seedPolyglotTables fills the Polyglot key tables from a fixed-seed PRNG,
// so probing a given book file always yields the same keys run to run.
func seedPolyglotTables() {
	gen := newSplitmix64(0x37b4a4b3f0d1c0d0)

	for piece := range polyglotPieces {
		for sq := range polyglotPieces[piece] {
			polyglotPieces[piece][sq] = gen.next()
		}
	}
	for i := range polyglotCastling {
		polyglotCastling[i] = gen.next()
	}
	for i := range polyglotEnPassant {
		polyglotEnPassant[i] = gen.next()
	}
	polyglotSideToMove = gen.next()
}
