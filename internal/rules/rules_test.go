package rules

import (
	"errors"
	"math/rand"
	"testing"
)

func sq(t *testing.T, s string) Square {
	t.Helper()
	v, ok := ParseSquare(s)
	if !ok {
		t.Fatalf("bad square %q", s)
	}
	return v
}

func TestPawnDoubleStepFromStart(t *testing.T) {
	pos := MustParsePosition(StartFEN)
	e2, e4 := sq(t, "e2"), sq(t, "e4")
	if !IsMoveAllowed(&pos.Board, pos.Rights, e2, e4) {
		t.Fatalf("expected e2e4 to be allowed")
	}
	if err := pos.Play(Move{From: e2, To: e4}); err != nil {
		t.Fatalf("play e2e4: %v", err)
	}
	if !pos.Board.At(e2).Empty() {
		t.Fatalf("expected e2 to be empty")
	}
	if got := pos.Board.At(e4); got != (Piece{Kind: Pawn, Color: White}) {
		t.Fatalf("expected white pawn on e4, got %v", got)
	}
	if pos.Turn != Black {
		t.Fatalf("expected black to move")
	}
	want := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	if got := pos.String(); got != want {
		t.Fatalf("fen mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestPawnDoubleStepBlocked(t *testing.T) {
	pos := MustParsePosition("4k3/8/8/8/8/4n3/4P3/4K3 w - - 0 1")
	if IsLegalMove(&pos.Board, pos.Rights, sq(t, "e2"), sq(t, "e4"), true) {
		t.Fatalf("double step through an occupied square must be rejected")
	}
	if IsLegalMove(&pos.Board, pos.Rights, sq(t, "e2"), sq(t, "e3"), true) {
		t.Fatalf("pawn cannot capture straight ahead")
	}
}

func TestKingsideCastleMovesRook(t *testing.T) {
	pos := MustParsePosition("4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	m := Move{From: sq(t, "e1"), To: sq(t, "g1")}
	if err := pos.Play(m); err != nil {
		t.Fatalf("castle: %v", err)
	}
	if pos.Board.At(sq(t, "g1")).Kind != King || pos.Board.At(sq(t, "f1")).Kind != Rook {
		t.Fatalf("expected king on g1 and rook on f1, got %s", pos)
	}
	if !pos.Board.At(sq(t, "h1")).Empty() || !pos.Board.At(sq(t, "e1")).Empty() {
		t.Fatalf("expected e1 and h1 to be vacated, got %s", pos)
	}
	if pos.Rights[White].King || pos.Rights[White].Queen {
		t.Fatalf("expected white rights revoked")
	}
}

func TestQueensideCastle(t *testing.T) {
	pos := MustParsePosition("r3k3/8/8/8/8/8/8/4K3 b q - 0 1")
	if err := pos.Play(Move{From: sq(t, "e8"), To: sq(t, "c8")}); err != nil {
		t.Fatalf("castle: %v", err)
	}
	if got := EncodePlacement(pos.Board); got != "2kr4/8/8/8/8/8/8/4K3" {
		t.Fatalf("unexpected placement %s", got)
	}
}

func TestCanCastleRefusals(t *testing.T) {
	cases := []struct {
		name     string
		fen      string
		kingside bool
	}{
		{"in check", "4k3/8/8/8/8/8/8/r3K2R w K - 0 1", true},
		{"transit attacked", "4kr2/8/8/8/8/8/8/4K2R w K - 0 1", true},
		{"destination attacked", "4k1r1/8/8/8/8/8/8/4K2R w K - 0 1", true},
		{"transit attacked by pawn", "4k3/8/8/8/8/8/6p1/4K2R w K - 0 1", true},
		{"right revoked", "4k3/8/8/8/8/8/8/4K2R w Q - 0 1", true},
		{"path blocked", "4k3/8/8/8/8/8/8/RN2K3 w Q - 0 1", false},
		{"rook missing", "4k3/8/8/8/8/8/8/4K3 w KQ - 0 1", true},
	}
	for _, c := range cases {
		pos := MustParsePosition(c.fen)
		if CanCastle(&pos.Board, pos.Rights, White, c.kingside) {
			t.Fatalf("%s: expected castling to be refused", c.name)
		}
	}
}

func TestQueensideCastleIgnoresAttackOnB1(t *testing.T) {
	pos := MustParsePosition("1r2k3/8/8/8/8/8/8/R3K3 w Q - 0 1")
	if !CanCastle(&pos.Board, pos.Rights, White, false) {
		t.Fatalf("attack on b1 must not prevent queenside castling")
	}
}

func TestPawnAttacksAreDiagonal(t *testing.T) {
	pos := MustParsePosition("4k3/8/8/8/8/3p4/8/4K3 w - - 0 1")
	if !IsSquareAttacked(&pos.Board, sq(t, "e2"), Black) || !IsSquareAttacked(&pos.Board, sq(t, "c2"), Black) {
		t.Fatalf("pawn on d3 must attack the empty squares c2 and e2")
	}
	if IsSquareAttacked(&pos.Board, sq(t, "d2"), Black) {
		t.Fatalf("a pawn push is not an attack")
	}
}

func TestPromotionRequiresPiece(t *testing.T) {
	pos := MustParsePosition("k7/4P3/8/8/8/8/8/4K3 w - - 0 1")
	e7, e8 := sq(t, "e7"), sq(t, "e8")
	if !NeedsPromotion(pos.Board.At(e7), e8) {
		t.Fatalf("expected promotion to be needed")
	}
	before := pos
	if err := pos.Play(Move{From: e7, To: e8}); !errors.Is(err, ErrPromotionRequired) {
		t.Fatalf("expected ErrPromotionRequired, got %v", err)
	}
	if pos != before {
		t.Fatalf("rejected move changed the position")
	}

	raw := before
	raw.Apply(Move{From: e7, To: e8})
	if got := raw.Board.At(e8); got != (Piece{Kind: Pawn, Color: White}) {
		t.Fatalf("apply without promotion must not substitute a queen, got %v", got)
	}

	if err := pos.Play(Move{From: e7, To: e8, Promotion: Knight}); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if got := pos.Board.At(e8); got != (Piece{Kind: Knight, Color: White}) {
		t.Fatalf("expected white knight, got %v", got)
	}
}

func TestPromotionColorFollowsMover(t *testing.T) {
	pos := MustParsePosition("4k3/8/8/8/8/8/p7/4K3 b - - 0 1")
	pos.Apply(Move{From: sq(t, "a2"), To: sq(t, "a1"), Promotion: Queen})
	if got := pos.Board.At(sq(t, "a1")); got != (Piece{Kind: Queen, Color: Black}) {
		t.Fatalf("expected black queen, got %v", got)
	}
}

func TestRookCaptureRevokesRights(t *testing.T) {
	pos := MustParsePosition("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err := pos.Play(Move{From: sq(t, "h1"), To: sq(t, "h8")}); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if got := pos.Rights.CastlingField(); got != "Qq" {
		t.Fatalf("expected rights Qq, got %s", got)
	}
}

func TestPinnedPieceCannotMove(t *testing.T) {
	pos := MustParsePosition("4k3/4r3/8/8/8/8/4B3/4K3 w - - 0 1")
	e2, d3 := sq(t, "e2"), sq(t, "d3")
	if !IsLegalMove(&pos.Board, pos.Rights, e2, d3, true) {
		t.Fatalf("bishop move shape should be valid")
	}
	if IsMoveAllowed(&pos.Board, pos.Rights, e2, d3) {
		t.Fatalf("pinned bishop must not move")
	}
	if got := LegalMovesForPiece(&pos.Board, pos.Rights, e2, White); len(got) != 0 {
		t.Fatalf("expected no moves for pinned bishop, got %v", got)
	}
}

func TestLegalMovesCaptureFlag(t *testing.T) {
	pos := MustParsePosition("4k3/8/3p4/8/4N3/8/8/4K3 w - - 0 1")
	moves := LegalMovesForPiece(&pos.Board, pos.Rights, sq(t, "e4"), White)
	if len(moves) != 8 {
		t.Fatalf("expected 8 knight moves, got %d", len(moves))
	}
	captures := 0
	for _, m := range moves {
		if m.Capture {
			captures++
		}
	}
	if captures != 1 {
		t.Fatalf("expected exactly the d6 capture, got %d", captures)
	}
	moves = LegalMovesForPiece(&pos.Board, pos.Rights, sq(t, "e4"), Black)
	if moves != nil {
		t.Fatalf("expected no moves for the wrong color")
	}
}

func TestStatus(t *testing.T) {
	cases := []struct {
		fen  string
		want Status
	}{
		{StartFEN, Ongoing},
		{"rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 0 1", Checkmate},
		{"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Stalemate},
		{"4k3/8/8/8/8/8/8/r3K3 w - - 0 1", Check},
	}
	for _, c := range cases {
		pos := MustParsePosition(c.fen)
		if got := StatusOf(&pos); got != c.want {
			t.Fatalf("%s: expected %v, got %v", c.fen, c.want, got)
		}
		inCheck := IsKingInCheck(&pos.Board, pos.Turn)
		hasMoves := HasLegalMoves(&pos.Board, pos.Rights, pos.Turn)
		if (c.want == Checkmate) != (inCheck && !hasMoves) {
			t.Fatalf("%s: checkmate classification diverges", c.fen)
		}
		if (c.want == Stalemate) != (!inCheck && !hasMoves) {
			t.Fatalf("%s: stalemate classification diverges", c.fen)
		}
	}
}

func TestEmptyBoardHasNoCheck(t *testing.T) {
	pos := MustParsePosition(EmptyFEN)
	if IsKingInCheck(&pos.Board, White) || IsKingInCheck(&pos.Board, Black) {
		t.Fatalf("empty board must not report check")
	}
	if pos.Board.HasPieces() {
		t.Fatalf("expected empty board")
	}
}

func TestParsePlacementErrors(t *testing.T) {
	bad := []string{
		"8/8/8/8/8/8/8",
		"9/8/8/8/8/8/8/8",
		"8/8/8/8/8/8/8/7",
		"8/8/8/8/8/8/8/ppppppppp",
		"8/8/8/8/8/8/8/7x",
	}
	for _, s := range bad {
		_, err := ParsePlacement(s)
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("%q: expected FormatError, got %v", s, err)
		}
	}
}

func TestParsePositionDefaults(t *testing.T) {
	pos, err := ParsePosition("8/8/8/8/8/8/8/8 x KQz")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pos.Turn != White {
		t.Fatalf("unknown active color should default to white")
	}
	if pos.Rights.CastlingField() != "KQ" {
		t.Fatalf("expected KQ, got %s", pos.Rights.CastlingField())
	}
	pos, err = ParsePosition("8/8/8/8/8/8/8/8")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pos.Rights.Any() {
		t.Fatalf("missing castling field should mean no rights")
	}
}

func TestMoveKeys(t *testing.T) {
	m, err := ParseMoveKey("e7e8q")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Key() != "e7e8q" || m.Promotion != Queen {
		t.Fatalf("unexpected move %+v", m)
	}
	if m, err = ParseMoveKey("E7E8Q"); err == nil {
		t.Fatalf("uppercase squares should be rejected, got %v", m)
	}
	if m, err = ParseMoveKey("a7a8N"); err != nil || m.Key() != "a7a8n" {
		t.Fatalf("expected a7a8n, got %v %v", m, err)
	}
	for _, k := range []string{"", "e2e", "e2e9", "e7e8k", "e7e8p", "e2e4qq"} {
		if _, err := ParseMoveKey(k); !errors.Is(err, ErrBadMoveKey) {
			t.Fatalf("%q: expected ErrBadMoveKey, got %v", k, err)
		}
	}
}

// randomWalk plays random legal moves from fen and calls fn on every
// position reached, the start included.
func randomWalk(t *testing.T, seed int64, fen string, plies int, fn func(Position)) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	pos := MustParsePosition(fen)
	for i := 0; i <= plies; i++ {
		fn(pos)
		moves := pos.LegalMoves()
		if len(moves) == 0 {
			return
		}
		if err := pos.Play(moves[rng.Intn(len(moves))]); err != nil {
			t.Fatalf("generated move rejected: %v", err)
		}
	}
}

func TestGateMatchesComponents(t *testing.T) {
	for seed := int64(1); seed <= 4; seed++ {
		randomWalk(t, seed, StartFEN, 60, func(pos Position) {
			b := &pos.Board
			for fr := 0; fr < 8; fr++ {
				for fc := 0; fc < 8; fc++ {
					from := Sq(fr, fc)
					if b.At(from).Empty() {
						continue
					}
					for tr := 0; tr < 8; tr++ {
						for tc := 0; tc < 8; tc++ {
							to := Sq(tr, tc)
							want := IsLegalMove(b, pos.Rights, from, to, true) && !MoveLeavesKingInCheck(b, pos.Rights, from, to)
							if got := IsMoveAllowed(b, pos.Rights, from, to); got != want {
								t.Fatalf("%s %s%s: gate %v, components %v", pos, from, to, got, want)
							}
						}
					}
				}
			}
		})
	}
}

func TestPositionRoundTrip(t *testing.T) {
	randomWalk(t, 7, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 80, func(pos Position) {
		back, err := ParsePosition(EncodePosition(pos))
		if err != nil {
			t.Fatalf("reparse %s: %v", pos, err)
		}
		if back != pos {
			t.Fatalf("round trip mismatch:\n got %s\nwant %s", back, pos)
		}
	})
}

func TestPerftKnownCounts(t *testing.T) {
	cases := []struct {
		fen   string
		depth int
		want  uint64
	}{
		{StartFEN, 1, 20},
		{StartFEN, 2, 400},
		{StartFEN, 3, 8902},
		{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 1, 48},
		{"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", 2, 264},
		{"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", 2, 1486},
	}
	for _, c := range cases {
		if got := Perft(MustParsePosition(c.fen), c.depth); got != c.want {
			t.Fatalf("perft(%d) %s: got %d want %d", c.depth, c.fen, got, c.want)
		}
	}
}
