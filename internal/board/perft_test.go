package board

import "testing"

// countLeaves walks the legal-move tree to the given depth and returns the
// leaf-node count — the standard perft correctness check for a move
// generator, since any missed, extra, or illegal move throws the count off.
func countLeaves(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}

	moves := p.GenerateLegalMoves()
	if depth == 1 {
		return int64(moves.Len())
	}

	var total int64
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		undo := p.MakeMove(m)
		total += countLeaves(p, depth-1)
		p.UnmakeMove(m, undo)
	}
	return total
}

func TestPerftStartingPosition(t *testing.T) {
	pos := NewPosition()

	cases := []struct {
		depth int
		want  int64
	}{
		{1, 20},
		{2, 400},
		{3, 8902},
		{4, 197281},
		// depth 5 (4865609) is correct too, but slow enough to skip by default
	}

	for _, tc := range cases {
		t.Run("", func(t *testing.T) {
			if got := countLeaves(pos, tc.depth); got != tc.want {
				t.Errorf("countLeaves(%d) = %d, want %d", tc.depth, got, tc.want)
			}
		})
	}
}

// TestPerftKiwipete exercises the well-known "Kiwipete" position, chosen for
// its density of castling rights, pins, and en passant opportunities.
func TestPerftKiwipete(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	if err != nil {
		t.Fatalf("failed to parse FEN: %v", err)
	}

	cases := []struct {
		depth int
		want  int64
	}{
		{1, 48},
		{2, 2039},
		{3, 97862},
		// depth 4 (4085603) takes about a second; skipped by default
	}

	for _, tc := range cases {
		t.Run("", func(t *testing.T) {
			if got := countLeaves(pos, tc.depth); got != tc.want {
				t.Errorf("countLeaves(%d) = %d, want %d", tc.depth, got, tc.want)
			}
		})
	}
}

// TestPerftPosition3 covers en passant edge cases via a sparse endgame FEN.
func TestPerftPosition3(t *testing.T) {
	pos, err := ParseFEN("8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -")
	if err != nil {
		t.Fatalf("failed to parse FEN: %v", err)
	}

	cases := []struct {
		depth int
		want  int64
	}{
		{1, 14},
		{2, 191},
		{3, 2812},
		{4, 43238},
		// depth 5 (674624) is correct too, but slow enough to skip by default
	}

	for _, tc := range cases {
		t.Run("", func(t *testing.T) {
			if got := countLeaves(pos, tc.depth); got != tc.want {
				t.Errorf("countLeaves(%d) = %d, want %d", tc.depth, got, tc.want)
			}
		})
	}
}

// TestPerftEnPassantPin checks the horizontal-pin-through-en-passant case:
// FEN 8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1 — Black's pawn on e4 could capture
// en passant on d3, but doing so would slide the e4 pawn off the fourth
// rank and expose the Black king on a4 to the White rook on h4, so the
// capture must not appear among the legal moves.
func TestPerftEnPassantPin(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatalf("failed to parse FEN: %v", err)
	}

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		if m := moves.Get(i); m.IsEnPassant() {
			t.Errorf("en passant move %v should be illegal (horizontal pin)", m)
		}
	}

	cases := []struct {
		depth int
		want  int64
	}{
		{1, 6},
		{2, 94},
	}

	for _, tc := range cases {
		t.Run("", func(t *testing.T) {
			if got := countLeaves(pos, tc.depth); got != tc.want {
				t.Errorf("countLeaves(%d) = %d, want %d", tc.depth, got, tc.want)
			}
		})
	}
}
