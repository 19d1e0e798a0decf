package board

// Zobrist key material: a fixed family of 64-bit random constants derived
// from a deterministic generator so keys are reproducible across runs and
// across machines.
var (
	zobristPiece      [2][7][64]uint64 // [Color][PieceType][Square]; 7 slots absorb NoPieceType safely
	zobristEnPassant  [8]uint64        // one key per file
	zobristCastling   [16]uint64       // one key per castle-rights bitmask
	zobristSideToMove uint64
)

func init() {
	seedZobristTables()
}

// splitmix64 is a small, fast, reproducible PRNG; good enough for generating
// hash constants that merely need to look uncorrelated, not to be
// cryptographically secure.
type splitmix64 struct {
	state uint64
}

func newSplitmix64(seed uint64) *splitmix64 {
	return &splitmix64{state: seed}
}

func (g *splitmix64) next() uint64 {
	g.state ^= g.state >> 12
	g.state ^= g.state << 25
	g.state ^= g.state >> 27
	return g.state * 0x2545F4914F6CDD1D
}

func seedZobristTables() {
	gen := newSplitmix64(0x98F107A2BEEF1234)

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = gen.next()
			}
		}
	}

	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = gen.next()
	}

	for i := range zobristCastling {
		zobristCastling[i] = gen.next()
	}

	zobristSideToMove = gen.next()
}

// ZobristPiece looks up the key for a piece of type pt and color c standing
// on sq.
func ZobristPiece(c Color, pt PieceType, sq Square) uint64 {
	return zobristPiece[c][pt][sq]
}

// ZobristEnPassant looks up the key for an en passant target on the given
// file.
func ZobristEnPassant(file int) uint64 {
	return zobristEnPassant[file]
}

// ZobristCastling looks up the key for a given castle-rights bitmask.
func ZobristCastling(cr CastlingRights) uint64 {
	return zobristCastling[cr]
}

// ZobristSideToMove returns the key XORed in whenever Black is to move.
func ZobristSideToMove() uint64 {
	return zobristSideToMove
}
