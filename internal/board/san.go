package board

import "strings"

// pieceLetters indexes by PieceType to the uppercase SAN letter, shared by
// both rendering and parsing so the two stay in sync.
const pieceLetters = "PNBRQK"

// ToSAN renders m as Standard Algebraic Notation, given the position it is
// played from (needed for disambiguation and the check/mate suffix).
func (m Move) ToSAN(pos *Position) string {
	if m == NoMove {
		return "-"
	}

	from, to := m.From(), m.To()
	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return m.String()
	}

	if m.IsCastling() {
		if to > from {
			return "O-O"
		}
		return "O-O-O"
	}

	pt := piece.Type()
	var sb strings.Builder

	if pt != Pawn {
		sb.WriteByte(pieceLetters[pt])
		sb.WriteString(disambiguate(pos, m, pt))
	}

	capture := m.IsCapture(pos)
	if capture {
		if pt == Pawn {
			sb.WriteByte('a' + byte(from.File()))
		}
		sb.WriteByte('x')
	}

	sb.WriteString(to.String())

	if m.IsPromotion() {
		sb.WriteByte('=')
		sb.WriteByte(pieceLetters[m.Promotion()])
	}

	played := pos.Copy()
	played.MakeMove(m)
	switch {
	case played.IsCheckmate():
		sb.WriteByte('#')
	case played.InCheck():
		sb.WriteByte('+')
	}

	return sb.String()
}

// disambiguate returns the minimal file/rank/square prefix needed to
// distinguish m from other legal moves of the same piece type to the same
// destination.
func disambiguate(pos *Position, m Move, pt PieceType) string {
	from, to := m.From(), m.To()
	sameType := pos.Pieces[pos.SideToMove][pt]

	var rivals []Square
	legal := pos.GenerateLegalMoves()
	for i := 0; i < legal.Len(); i++ {
		other := legal.Get(i)
		if other.To() != to || other.From() == from {
			continue
		}
		if sameType.IsSet(other.From()) {
			rivals = append(rivals, other.From())
		}
	}
	if len(rivals) == 0 {
		return ""
	}

	fileClashes, rankClashes := false, false
	for _, sq := range rivals {
		if sq.File() == from.File() {
			fileClashes = true
		}
		if sq.Rank() == from.Rank() {
			rankClashes = true
		}
	}

	switch {
	case !fileClashes:
		return string(rune('a' + from.File()))
	case !rankClashes:
		return string(rune('1' + from.Rank()))
	default:
		return from.String()
	}
}

var sanPieceLetter = map[byte]PieceType{
	'N': Knight,
	'B': Bishop,
	'R': Rook,
	'Q': Queen,
	'K': King,
}

// ParseSAN reads a Standard Algebraic Notation move string in the context
// of pos and returns the matching legal move, or NoMove if none matches.
func ParseSAN(s string, pos *Position) (Move, error) {
	s = strings.TrimSpace(s)

	var castle Move
	switch s {
	case "O-O", "0-0":
		castle = NewCastling(E1, G1)
		if pos.SideToMove == Black {
			castle = NewCastling(E8, G8)
		}
	case "O-O-O", "0-0-0":
		castle = NewCastling(E1, C1)
		if pos.SideToMove == Black {
			castle = NewCastling(E8, C8)
		}
	}
	if castle != NoMove {
		if !pos.GenerateLegalMoves().Contains(castle) {
			return NoMove, nil
		}
		return castle, nil
	}

	s = strings.TrimSuffix(strings.TrimSuffix(s, "#"), "+")

	promo := NoPieceType
	if idx := strings.IndexByte(s, '='); idx >= 0 {
		if mapped, ok := sanPieceLetter[s[idx+1]]; ok && mapped != King {
			promo = mapped
		}
		s = s[:idx]
	}

	isCapture := strings.ContainsRune(s, 'x')
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		if mapped, ok := sanPieceLetter[s[0]]; ok {
			pt = mapped
		}
		s = s[1:]
	}

	if len(s) < 2 {
		return NoMove, nil
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, err
	}
	s = s[:len(s)-2]

	disambigFile, disambigRank := -1, -1
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'h':
			disambigFile = int(c - 'a')
		case c >= '1' && c <= '8':
			disambigRank = int(c - '1')
		}
	}

	candidates := pos.GenerateLegalMoves()
	for i := 0; i < candidates.Len(); i++ {
		m := candidates.Get(i)
		if m.To() != dest {
			continue
		}
		from := m.From()
		if pos.PieceAt(from).Type() != pt {
			continue
		}
		if disambigFile >= 0 && from.File() != disambigFile {
			continue
		}
		if disambigRank >= 0 && from.Rank() != disambigRank {
			continue
		}
		if isCapture && !m.IsCapture(pos) {
			continue
		}
		if promo != NoPieceType && (!m.IsPromotion() || m.Promotion() != promo) {
			continue
		}
		return m, nil
	}

	return NoMove, nil
}

// MovesToSAN renders a sequence of moves, played consecutively from pos, as
// SAN strings.
func MovesToSAN(pos *Position, moves []Move) []string {
	out := make([]string, len(moves))
	cur := pos.Copy()
	for i, m := range moves {
		out[i] = m.ToSAN(cur)
		cur.MakeMove(m)
	}
	return out
}
