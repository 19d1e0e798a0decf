package board

// GenerateLegalMoves returns every legal move in the position (spec §4.3:
// pseudo-legal generation followed by a legality filter).
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return p.filterLegalMoves(ml)
}

// GeneratePseudoLegalMoves returns every pseudo-legal move: moves that obey
// piece-movement rules but may leave the mover's own king in check.
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return ml
}

// GenerateCaptures returns every legal capturing move, plus quiet
// promotions (used by quiescence search, which also wants to resolve
// pending promotions).
func (p *Position) GenerateCaptures() *MoveList {
	ml := NewMoveList()
	p.generateCaptures(ml)
	return p.filterLegalMoves(ml)
}

// generateAllMoves emits every pseudo-legal move for the side to move.
func (p *Position) generateAllMoves(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied
	enemies := p.Occupied[us.Other()]

	p.generatePawnMoves(ml, us, enemies, occupied, true)
	p.addPieceMoves(ml, Knight, us, occupied, ^p.Occupied[us])
	p.addPieceMoves(ml, Bishop, us, occupied, ^p.Occupied[us])
	p.addPieceMoves(ml, Rook, us, occupied, ^p.Occupied[us])
	p.addPieceMoves(ml, Queen, us, occupied, ^p.Occupied[us])
	p.addPieceMoves(ml, King, us, occupied, ^p.Occupied[us])
	p.generateCastlingMoves(ml, us)
}

// generateCaptures emits pseudo-legal captures and quiet promotions only —
// the move subset quiescence search explores.
func (p *Position) generateCaptures(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied
	enemies := p.Occupied[us.Other()]

	p.generatePawnMoves(ml, us, enemies, occupied, false)
	p.addPieceMoves(ml, Knight, us, occupied, enemies)
	p.addPieceMoves(ml, Bishop, us, occupied, enemies)
	p.addPieceMoves(ml, Rook, us, occupied, enemies)
	p.addPieceMoves(ml, Queen, us, occupied, enemies)
	p.addPieceMoves(ml, King, us, occupied, enemies)
}

// pieceAttacks returns pt's attack set from sq given the current occupancy;
// leapers (knight, king) ignore occ, sliders consult it.
func pieceAttacks(pt PieceType, sq Square, occ Bitboard) Bitboard {
	switch pt {
	case Knight:
		return KnightAttacks(sq)
	case King:
		return KingAttacks(sq)
	case Bishop:
		return BishopAttacks(sq, occ)
	case Rook:
		return RookAttacks(sq, occ)
	case Queen:
		return QueenAttacks(sq, occ)
	default:
		return Empty
	}
}

// addPieceMoves emits one move per (origin, destination) pair for every
// piece of type pt belonging to us whose attack set intersects targets.
// Shared by knights, bishops, rooks, queens, and the king: only the attack
// function differs, and pieceAttacks picks that.
func (p *Position) addPieceMoves(ml *MoveList, pt PieceType, us Color, occupied, targets Bitboard) {
	pieces := p.Pieces[us][pt]
	for pieces != 0 {
		from := pieces.PopLSB()
		attacks := pieceAttacks(pt, from, occupied) & targets
		for attacks != 0 {
			ml.Add(NewMove(from, attacks.PopLSB()))
		}
	}
}

// generatePawnMoves emits pawn pushes, captures, promotions, and en passant
// for us. When includeQuietPushes is false (quiescence's capture-only
// generation), single/double non-promotion pushes are skipped but quiet
// promotions are still emitted, since a queening push is too important to
// drop from tactical search.
func (p *Position) generatePawnMoves(ml *MoveList, us Color, enemies, occupied Bitboard, includeQuietPushes bool) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied

	var push1, push2, attackLeft, attackRight, promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackLeft = pawns.NorthWest() & enemies
		attackRight = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackLeft = pawns.SouthWest() & enemies
		attackRight = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	addShifted := func(targets Bitboard, delta int) {
		for targets != 0 {
			to := targets.PopLSB()
			ml.Add(NewMove(Square(int(to)-delta), to))
		}
	}
	addPromotionsShifted := func(targets Bitboard, delta int) {
		for targets != 0 {
			to := targets.PopLSB()
			addPromotions(ml, Square(int(to)-delta), to)
		}
	}

	if includeQuietPushes {
		addShifted(push1&^promotionRank, pushDir)
		addShifted(push2, 2*pushDir)
	}
	addPromotionsShifted(push1&promotionRank, pushDir)

	addShifted(attackLeft&^promotionRank, pushDir-1)
	addShifted(attackRight&^promotionRank, pushDir+1)
	addPromotionsShifted(attackLeft&promotionRank, pushDir-1)
	addPromotionsShifted(attackRight&promotionRank, pushDir+1)

	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var attackers Bitboard
		if us == White {
			attackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
		} else {
			attackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
		}
		for attackers != 0 {
			ml.Add(NewEnPassant(attackers.PopLSB(), p.EnPassant))
		}
	}
}

// addPromotions emits the four promotion choices (queen, rook, bishop,
// knight) for one pawn move from -> to.
func addPromotions(ml *MoveList, from, to Square) {
	ml.Add(NewPromotion(from, to, Queen))
	ml.Add(NewPromotion(from, to, Rook))
	ml.Add(NewPromotion(from, to, Bishop))
	ml.Add(NewPromotion(from, to, Knight))
}

// generateCastlingMoves emits legal castling moves for us: both sides'
// king-side and queen-side options, gated on retained rights, empty transit
// squares, and an unattacked transit path (spec §4.3).
func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()
	rank := 0
	if us == Black {
		rank = 7
	}
	kingFrom := NewSquare(4, rank)

	kingSideRight, queenSideRight := WhiteKingSideCastle, WhiteQueenSideCastle
	if us == Black {
		kingSideRight, queenSideRight = BlackKingSideCastle, BlackQueenSideCastle
	}

	attemptCastle := func(right CastlingRights, kingTo Square, emptyFiles, attackCheckFiles []int) {
		if p.CastlingRights&right == 0 {
			return
		}
		var emptyMask Bitboard
		for _, f := range emptyFiles {
			emptyMask |= SquareBB(NewSquare(f, rank))
		}
		if p.AllOccupied&emptyMask != 0 {
			return
		}
		for _, f := range attackCheckFiles {
			if p.IsSquareAttacked(NewSquare(f, rank), them) {
				return
			}
		}
		ml.Add(NewCastling(kingFrom, kingTo))
	}

	attemptCastle(kingSideRight, NewSquare(6, rank), []int{5, 6}, []int{4, 5, 6})
	attemptCastle(queenSideRight, NewSquare(2, rank), []int{1, 2, 3}, []int{4, 3, 2})
}

// filterLegalMoves keeps only the moves in ml that don't leave the mover's
// own king in check.
func (p *Position) filterLegalMoves(ml *MoveList) *MoveList {
	legal := NewMoveList()
	for i := 0; i < ml.Len(); i++ {
		if m := ml.Get(i); p.IsLegal(m) {
			legal.Add(m)
		}
	}
	return legal
}

// IsLegal reports whether m leaves the mover's own king safe. King moves are
// checked cheaply by asking whether the destination is attacked once the
// king itself is removed from the occupancy (so the king doesn't block its
// own escape square from a slider); every other move is checked by actually
// playing it and probing for check, which is the only fully general way to
// handle pins, discovered checks, and en passant's double-capture case.
func (p *Position) IsLegal(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	from := m.From()
	kingSq := p.KingSquare[us]

	if from == kingSq {
		if m.IsCastling() {
			return true // transit squares were already vetted during generation
		}
		occWithoutKing := p.AllOccupied &^ SquareBB(from)
		return p.AttackersByColor(m.To(), them, occWithoutKing) == 0
	}

	undo := p.MakeMove(m)
	if !undo.Valid {
		return false
	}
	kingSafe := !p.IsSquareAttacked(kingSq, them)
	p.UnmakeMove(m, undo)
	return kingSafe
}

// MakeMove applies m to p in place, updating bitboards, aggregates, the
// Zobrist hash, castling rights, en passant, move counters, and side to
// move, and returns an UndoInfo that restores every one of those fields
// (spec §4.2's apply algorithm).
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{
		CapturedPiece:  NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		PawnKey:        p.PawnKey,
		Checkers:       p.Checkers,
	}

	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return undo // leaves undo.Valid at its zero value, false
	}
	undo.Valid = true
	pt := piece.Type()

	p.Hash ^= zobristSideToMove
	p.Hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	switch {
	case m.IsEnPassant():
		capturedSq := to - 8
		if us == Black {
			capturedSq = to + 8
		}
		undo.CapturedPiece = p.removePiece(capturedSq)
		p.Hash ^= zobristPiece[them][Pawn][capturedSq]
		p.PawnKey ^= zobristPiece[them][Pawn][capturedSq]
	default:
		if captured := p.PieceAt(to); captured != NoPiece {
			undo.CapturedPiece = captured
			p.removePiece(to)
			p.Hash ^= zobristPiece[them][captured.Type()][to]
			if captured.Type() == Pawn {
				p.PawnKey ^= zobristPiece[them][Pawn][to]
			}
		}
	}

	p.movePiece(from, to)
	p.Hash ^= zobristPiece[us][pt][from]
	p.Hash ^= zobristPiece[us][pt][to]
	if pt == Pawn {
		p.PawnKey ^= zobristPiece[us][Pawn][from]
		if !m.IsPromotion() {
			p.PawnKey ^= zobristPiece[us][Pawn][to]
		}
	}

	if m.IsPromotion() {
		promo := m.Promotion()
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][promo] |= SquareBB(to)
		p.Hash ^= zobristPiece[us][Pawn][to]
		p.Hash ^= zobristPiece[us][promo][to]
	}

	if m.IsCastling() {
		rookFrom, rookTo := castleRookSquares(from, to)
		p.movePiece(rookFrom, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom]
		p.Hash ^= zobristPiece[us][Rook][rookTo]
	}

	if pt == King {
		if us == White {
			p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	if from == A1 || to == A1 {
		p.CastlingRights &^= WhiteQueenSideCastle
	}
	if from == H1 || to == H1 {
		p.CastlingRights &^= WhiteKingSideCastle
	}
	if from == A8 || to == A8 {
		p.CastlingRights &^= BlackQueenSideCastle
	}
	if from == H8 || to == H8 {
		p.CastlingRights &^= BlackKingSideCastle
	}
	p.Hash ^= zobristCastling[p.CastlingRights]

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		epSquare := Square((int(from) + int(to)) / 2)
		p.EnPassant = epSquare
		p.Hash ^= zobristEnPassant[epSquare.File()]
	}

	if pt == Pawn || undo.CapturedPiece != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.UpdateCheckers()

	return undo
}

// castleRookSquares returns the rook's origin and destination for a castling
// move whose king travels from -> to.
func castleRookSquares(from, to Square) (rookFrom, rookTo Square) {
	rank := from.Rank()
	if to > from {
		return NewSquare(7, rank), NewSquare(5, rank)
	}
	return NewSquare(0, rank), NewSquare(3, rank)
}

// UnmakeMove reverses a prior MakeMove(m) call using the UndoInfo it
// returned, restoring p byte-for-byte to its pre-move state.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	them := p.SideToMove
	us := them.Other()
	from, to := m.From(), m.To()

	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
	p.PawnKey = undo.PawnKey
	p.Checkers = undo.Checkers
	p.SideToMove = us

	if us == Black {
		p.FullMoveNumber--
	}

	if m.IsPromotion() {
		promo := m.Promotion()
		p.Pieces[us][promo] &^= SquareBB(to)
		p.Pieces[us][Pawn] |= SquareBB(to)
	}

	p.movePiece(to, from)

	if m.IsCastling() {
		rookFrom, rookTo := castleRookSquares(from, to)
		p.movePiece(rookTo, rookFrom)
	}

	if undo.CapturedPiece != NoPiece {
		capturedSq := to
		if m.IsEnPassant() {
			capturedSq = to - 8
			if us == Black {
				capturedSq = to + 8
			}
		}
		p.setPiece(undo.CapturedPiece, capturedSq)
	}
}

// HasLegalMoves reports whether the side to move has at least one legal
// move available.
func (p *Position) HasLegalMoves() bool {
	ml := p.GeneratePseudoLegalMoves()
	for i := 0; i < ml.Len(); i++ {
		if p.IsLegal(ml.Get(i)) {
			return true
		}
	}
	return false
}

// IsCheckmate reports whether the side to move is in check with no legal
// reply.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move has no legal move but is not
// in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsDraw reports whether the position is drawn by stalemate, the 50-move
// rule, or insufficient mating material. Repetition draws are tracked by
// the search driver, which alone holds the game's move history.
func (p *Position) IsDraw() bool {
	if p.IsStalemate() {
		return true
	}
	if p.HalfMoveClock >= 100 {
		return true
	}
	return p.IsInsufficientMaterial()
}

// IsInsufficientMaterial reports whether neither side retains enough
// material to force checkmate: king vs king, or king-and-one-minor vs king.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	whiteMinors := p.Pieces[White][Knight].PopCount() + p.Pieces[White][Bishop].PopCount()
	blackMinors := p.Pieces[Black][Knight].PopCount() + p.Pieces[Black][Bishop].PopCount()

	if whiteMinors == 0 && blackMinors == 0 {
		return true
	}
	if whiteMinors <= 1 && blackMinors == 0 {
		return true
	}
	if blackMinors <= 1 && whiteMinors == 0 {
		return true
	}
	return false
}
