package board

import "testing"

func TestCheckmate(t *testing.T) {
	// White: Ka1, Ra8. Black: Kh8 boxed in by its own pawns on g7/h7, with
	// the a8 rook controlling the whole back rank. Black to move, mated.
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("error parsing FEN:", err)
	}

	pos.UpdateCheckers()
	t.Log(pos)
	t.Log("checkers:", pos.Checkers, "in check:", pos.InCheck())

	moves := pos.GenerateLegalMoves()
	t.Log("legal moves for black:", moves.Len())
	for i := 0; i < moves.Len(); i++ {
		t.Log("  move:", moves.Get(i))
	}

	if !pos.IsCheckmate() {
		t.Error("expected checkmate but got false")
	}
}

func TestNotCheckmate(t *testing.T) {
	// Black's king on h8 is attacked by the rook on g8, but can simply
	// capture it, so this is check without mate.
	pos, err := ParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("error parsing FEN:", err)
	}

	pos.UpdateCheckers()
	t.Log(pos)
	t.Log("checkers:", pos.Checkers, "in check:", pos.InCheck())

	moves := pos.GenerateLegalMoves()
	t.Log("legal moves for black:", moves.Len())
	for i := 0; i < moves.Len(); i++ {
		t.Log("  move:", moves.Get(i))
	}

	if pos.IsCheckmate() {
		t.Error("expected not checkmate but got true")
	}
}
