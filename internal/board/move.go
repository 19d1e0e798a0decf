package board

import "fmt"

// Move packs a chess move into 16 bits:
//
//	bits 0-5:   origin square
//	bits 6-11:  destination square
//	bits 12-13: promotion piece (0=Knight 1=Bishop 2=Rook 3=Queen)
//	bits 14-15: kind (0=normal 1=promotion 2=en passant 3=castling)
type Move uint16

// Kind tags occupy the top two bits of a Move.
const (
	FlagNormal    uint16 = 0 << 14
	FlagPromotion uint16 = 1 << 14
	FlagEnPassant uint16 = 2 << 14
	FlagCastling  uint16 = 3 << 14
)

// NoMove is the zero Move, used as a sentinel for "no move available".
const NoMove Move = 0

// NewMove builds an ordinary (non-special) move.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

// NewPromotion builds a pawn-promotion move to the given piece type.
func NewPromotion(from, to Square, promo PieceType) Move {
	promoBits := promo - Knight
	return Move(from) | Move(to)<<6 | Move(promoBits)<<12 | Move(FlagPromotion)
}

// NewEnPassant builds an en passant capture move.
func NewEnPassant(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(FlagEnPassant)
}

// NewCastling builds a castling move, expressed as the king's own movement.
func NewCastling(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(FlagCastling)
}

// From returns the move's origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the move's destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the move's kind tag.
func (m Move) Flag() uint16 {
	return uint16(m) & 0xC000
}

// Promotion returns the piece type promoted to; only meaningful when
// IsPromotion reports true.
func (m Move) Promotion() PieceType {
	return PieceType((m>>12)&3) + Knight
}

// IsPromotion reports whether m promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Flag() == FlagPromotion
}

// IsCastling reports whether m is a castling move.
func (m Move) IsCastling() bool {
	return m.Flag() == FlagCastling
}

// IsEnPassant reports whether m is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// IsCapture reports whether playing m on pos removes an enemy piece.
func (m Move) IsCapture(pos *Position) bool {
	if m.IsEnPassant() {
		return true
	}
	return !pos.IsEmpty(m.To())
}

// IsQuiet reports whether m is neither a capture nor a promotion.
func (m Move) IsQuiet(pos *Position) bool {
	return !m.IsCapture(pos) && !m.IsPromotion()
}

var promotionLetters = []byte{'n', 'b', 'r', 'q'}

// String renders m in UCI long-algebraic form, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	out := m.From().String() + m.To().String()
	if m.IsPromotion() {
		out += string(promotionLetters[m.Promotion()-Knight])
	}
	return out
}

// ParseMove reads a UCI long-algebraic move string, consulting pos to
// disambiguate castling and en passant (neither of which is marked in the
// plain four/five-character UCI notation).
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		return NewPromotion(from, to, promo), nil
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}

	switch pt := piece.Type(); {
	case pt == King && abs(int(to)-int(from)) == 2:
		return NewCastling(from, to), nil
	case pt == Pawn && to == pos.EnPassant:
		return NewEnPassant(from, to), nil
	default:
		return NewMove(from, to), nil
	}
}

// MoveList is a fixed-capacity, allocation-free buffer of moves: no legal
// position generates anywhere near 256 pseudo-legal moves.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList returns an empty MoveList.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add appends m to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves currently in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set overwrites the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap exchanges the moves at indices i and j.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear empties the list without releasing its backing array.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains reports whether m appears anywhere in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice exposes the list's contents as a slice backed by the same array.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// UndoInfo captures everything Position.UnmakeMove needs to exactly reverse
// a prior MakeMove call.
type UndoInfo struct {
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	PawnKey        uint64
	Checkers       Bitboard
	KingSquare     [2]Square
	Pieces         [2][6]Bitboard
	Occupied       [2]Bitboard
	AllOccupied    Bitboard
	Valid          bool
}
