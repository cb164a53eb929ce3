package puzzle

import (
	"errors"
	"reflect"
	"testing"

	"puzzlechess/internal/notation"
	"puzzlechess/internal/rules"
)

func mustDerive(t *testing.T, fen, pgn string) *Solution {
	t.Helper()
	sol, err := Derive(fen, pgn)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	return sol
}

func play(t *testing.T, s *Session, key string, want Verdict) {
	t.Helper()
	res, err := s.Play(key)
	if err != nil {
		t.Fatalf("play %s: %v", key, err)
	}
	if res.Verdict != want {
		t.Fatalf("play %s: expected %v, got %v", key, want, res.Verdict)
	}
}

func TestSolvePuzzle(t *testing.T) {
	sol := mustDerive(t, rules.StartFEN, "1. e4 e5 2. Nf3 *")
	if !reflect.DeepEqual(sol.Keys, []string{"e2e4", "e7e5", "g1f3"}) {
		t.Fatalf("unexpected keys %v", sol.Keys)
	}
	s := NewSession()
	s.Load(sol)
	if s.State() != Awaiting {
		t.Fatalf("expected awaiting, got %v", s.State())
	}
	play(t, s, "e2e4", Correct)
	if key, ok := s.OpponentMove(); !ok || key != "e7e5" {
		t.Fatalf("expected opponent reply e7e5, got %q %v", key, ok)
	}
	play(t, s, "e7e5", Correct)
	if _, ok := s.OpponentMove(); ok {
		t.Fatalf("no opponent move expected on the player's turn")
	}
	play(t, s, "g1f3", Complete)
	if s.State() != Solved || s.Index() != 3 {
		t.Fatalf("expected solved at index 3, got %v at %d", s.State(), s.Index())
	}
	if len(s.History()) != 3 || s.History()[2].SAN != "Nf3" {
		t.Fatalf("unexpected history %+v", s.History())
	}
	// moves after solving are not judged
	play(t, s, "b8c6", Free)
}

func TestLineKeepsEveryPly(t *testing.T) {
	s := NewSession()
	s.Load(mustDerive(t, rules.StartFEN, "1. e4 e5 2. Nf3"))
	play(t, s, "e2e4", Correct)
	play(t, s, "e7e5", Correct)

	line := s.Line()
	if len(line) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(line))
	}
	if line[0].String() != rules.StartFEN || line[1].Turn != rules.Black || line[2] != s.Position() {
		t.Fatalf("unexpected line %v", line)
	}
	if err := s.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if line := s.Line(); len(line) != 1 || line[0].String() != rules.StartFEN {
		t.Fatalf("restart must rewind the line, got %v", line)
	}
}

func TestWrongMoveFailsUntilRestart(t *testing.T) {
	sol := mustDerive(t, rules.StartFEN, "1. e4 e5 2. Nf3")
	s := NewSession()
	s.Load(sol)
	play(t, s, "e2e4", Correct)
	before := s.Position()

	res, err := s.Play("d7d5")
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if res.Verdict != Wrong || res.Expected != "e7e5" {
		t.Fatalf("expected wrong verdict expecting e7e5, got %+v", res)
	}
	if s.State() != Failed || s.Index() != 0 {
		t.Fatalf("expected failed at index 0, got %v at %d", s.State(), s.Index())
	}
	if s.Position() != before {
		t.Fatalf("a wrong move must not be applied")
	}
	if _, err := s.Play("e7e5"); !errors.Is(err, ErrPuzzleFailed) {
		t.Fatalf("expected ErrPuzzleFailed, got %v", err)
	}

	if err := s.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if s.State() != Awaiting || s.Index() != 0 || s.Position() != sol.Start {
		t.Fatalf("restart did not rewind the puzzle")
	}
	play(t, s, "e2e4", Correct)
}

func TestIllegalMoveIsDeclined(t *testing.T) {
	s := NewSession()
	s.Load(mustDerive(t, rules.StartFEN, "1. e4 e5"))
	before := s.Position()
	if _, err := s.Play("e2e5"); !errors.Is(err, rules.ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if _, err := s.Play("nonsense"); !errors.Is(err, rules.ErrBadMoveKey) {
		t.Fatalf("expected ErrBadMoveKey, got %v", err)
	}
	if s.State() != Awaiting || s.Index() != 0 || s.Position() != before {
		t.Fatalf("declined moves must not change state")
	}
}

func TestPlacementMismatchRollsBack(t *testing.T) {
	sol := mustDerive(t, rules.StartFEN, "1. e4 e5")
	sol.Final = sol.Start
	s := NewSession()
	s.Load(sol)
	play(t, s, "e2e4", Correct)
	before := s.Position()
	if _, err := s.Play("e7e5"); !errors.Is(err, ErrPlacementMismatch) {
		t.Fatalf("expected ErrPlacementMismatch, got %v", err)
	}
	if s.Index() != 1 || s.State() != Awaiting {
		t.Fatalf("expected rollback to index 1, got %d %v", s.Index(), s.State())
	}
	if s.Position() != before {
		t.Fatalf("mismatched move must not be applied")
	}
}

func TestPromotionMustMatch(t *testing.T) {
	sol := mustDerive(t, "k7/4P3/8/8/8/8/8/4K3 w - - 0 1", "1. e8=Q+")
	if sol.Keys[0] != "e7e8q" {
		t.Fatalf("unexpected key %s", sol.Keys[0])
	}
	s := NewSession()
	s.Load(sol)
	if _, err := s.Play("e7e8"); !errors.Is(err, rules.ErrPromotionRequired) {
		t.Fatalf("expected ErrPromotionRequired, got %v", err)
	}
	if s.State() != Awaiting {
		t.Fatalf("a pending promotion must not fail the puzzle")
	}
	res, err := s.Play("e7e8r")
	if err != nil || res.Verdict != Wrong {
		t.Fatalf("underpromotion must be wrong, got %+v %v", res, err)
	}
	_ = s.Restart()
	play(t, s, "e7e8q", Complete)
}

func TestBlackToMovePuzzle(t *testing.T) {
	fen := "rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 1"
	sol := mustDerive(t, fen, "1... Qh4#")
	if sol.Player() != rules.Black || sol.ExpectedColor(0) != rules.Black || sol.ExpectedColor(1) != rules.White {
		t.Fatalf("expected black to solve")
	}
	s := NewSession()
	s.Load(sol)
	play(t, s, "d8h4", Complete)
	if s.Status() != rules.Checkmate {
		t.Fatalf("expected checkmate, got %v", s.Status())
	}
}

func TestDeriveUsesFENTag(t *testing.T) {
	pgn := "[FEN \"4k3/8/8/8/8/8/8/4K2R w K - 0 1\"]\n1. O-O"
	sol := mustDerive(t, rules.StartFEN, pgn)
	if sol.Keys[0] != "e1g1" || sol.FinalPlacement() != "4k3/8/8/8/8/8/8/5RK1" {
		t.Fatalf("unexpected solution %v %s", sol.Keys, sol.FinalPlacement())
	}
	again := mustDerive(t, rules.StartFEN, pgn)
	if !reflect.DeepEqual(again, sol) {
		t.Fatalf("derivation must be idempotent")
	}
}

func TestDeriveErrors(t *testing.T) {
	var fe *rules.FormatError
	if _, err := Derive("8/8/8 w - - 0 1", "1. e4"); !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if _, err := Derive(rules.StartFEN, ""); !errors.Is(err, notation.ErrEmptySolution) {
		t.Fatalf("expected empty solution, got %v", err)
	}
	if _, err := Derive(rules.StartFEN, "1. Nf6"); !errors.Is(err, notation.ErrNoCandidate) {
		t.Fatalf("expected resolution failure, got %v", err)
	}
}

func TestVerifierWrongTurn(t *testing.T) {
	sol := mustDerive(t, rules.StartFEN, "1. e4 e5")
	var v Verifier
	v.Load(sol)
	pos := sol.Start
	pos.Turn = rules.Black
	if _, err := v.Check(pos, rules.Move{From: rules.Sq(1, 4), To: rules.Sq(3, 4)}); !errors.Is(err, ErrWrongTurn) {
		t.Fatalf("expected ErrWrongTurn, got %v", err)
	}
	if v.State() != Awaiting || v.Index() != 0 {
		t.Fatalf("wrong turn must not change state")
	}
}

func TestIdleSessionAllowsFreePlay(t *testing.T) {
	s := NewSession()
	if s.State() != Idle {
		t.Fatalf("expected idle")
	}
	if err := s.Restart(); !errors.Is(err, ErrNoPuzzle) {
		t.Fatalf("expected ErrNoPuzzle, got %v", err)
	}
	s.LoadPosition(rules.MustParsePosition(rules.StartFEN))
	play(t, s, "e2e4", Free)
}
