package puzzle

import (
	"errors"

	"puzzlechess/internal/notation"
	"puzzlechess/internal/rules"
)

// ErrNoPuzzle is returned when restarting without a loaded puzzle.
var ErrNoPuzzle = errors.New("no puzzle loaded")

// Played is one move applied to the live position.
type Played struct {
	Key   string      `json:"uci"`
	SAN   string      `json:"san"`
	Color rules.Color `json:"-"`
	// Before is the position the move was played from.
	Before rules.Position `json:"-"`
}

// Session owns a live position and verifies every move played on it. It
// is not safe for concurrent use.
type Session struct {
	pos     rules.Position
	v       Verifier
	history []Played
}

// NewSession returns an idle session on an empty board.
func NewSession() *Session {
	return &Session{pos: rules.MustParsePosition(rules.EmptyFEN)}
}

// Load replaces the live position with sol's start and begins verifying.
func (s *Session) Load(sol *Solution) {
	s.v.Load(sol)
	s.history = nil
	if sol != nil {
		s.pos = sol.Start
	}
}

// LoadPosition sets up pos for free play with no puzzle attached.
func (s *Session) LoadPosition(pos rules.Position) {
	s.v.Clear()
	s.history = nil
	s.pos = pos
}

// Restart reloads the puzzle's starting position and rewinds the verifier.
func (s *Session) Restart() error {
	sol := s.v.Solution()
	if sol == nil {
		return ErrNoPuzzle
	}
	s.pos = sol.Start
	s.history = nil
	s.v.Restart()
	return nil
}

// Play validates the move key, judges it against the solution and applies
// it. Illegal moves return a rules error and change nothing. A Wrong verdict
// moves the verifier to Failed and leaves the position untouched.
func (s *Session) Play(key string) (Result, error) {
	m, err := rules.ParseMoveKey(key)
	if err != nil {
		return Result{Key: key, Index: s.v.Index()}, err
	}
	if err := s.pos.Check(m); err != nil {
		return Result{Key: m.Key(), Index: s.v.Index()}, err
	}
	res, err := s.v.Check(s.pos, m)
	if err != nil || res.Verdict == Wrong {
		return res, err
	}
	s.history = append(s.history, Played{Key: m.Key(), SAN: notation.SAN(s.pos, m), Color: s.pos.Turn, Before: s.pos})
	s.pos.Apply(m)
	return res, nil
}

// OpponentMove returns the solution move the non-player side should reply
// with now, if any.
func (s *Session) OpponentMove() (string, bool) {
	key, color, ok := s.v.Expected()
	if !ok {
		return "", false
	}
	sol := s.v.Solution()
	if color == sol.Player() || color != s.pos.Turn {
		return "", false
	}
	return key, true
}

func (s *Session) Position() rules.Position { return s.pos }

func (s *Session) State() State { return s.v.State() }

func (s *Session) Index() int { return s.v.Index() }

func (s *Session) Solution() *Solution { return s.v.Solution() }

// History returns a copy of the moves applied since the last load.
func (s *Session) History() []Played {
	out := make([]Played, len(s.history))
	copy(out, s.history)
	return out
}

// Line returns the position at every ply since the last load: the position
// before each played move, then the live position.
func (s *Session) Line() []rules.Position {
	out := make([]rules.Position, 0, len(s.history)+1)
	for _, p := range s.history {
		out = append(out, p.Before)
	}
	return append(out, s.pos)
}

// Status classifies the live position for the side to move.
func (s *Session) Status() rules.Status { return rules.StatusOf(&s.pos) }
