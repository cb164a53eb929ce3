package puzzle

import (
	"errors"

	"puzzlechess/internal/rules"
)

var (
	// ErrPuzzleFailed is returned for moves played after a wrong answer and
	// before a restart.
	ErrPuzzleFailed = errors.New("puzzle failed, restart to try again")
	// ErrWrongTurn is returned when the side to move is not the side the
	// solution expects.
	ErrWrongTurn = errors.New("not the expected side to move")
	// ErrPlacementMismatch reports that the last solution move does not lead
	// to the recorded final placement. The move is not credited.
	ErrPlacementMismatch = errors.New("final position does not match the solution")
)

// State is the verifier's progress.
type State uint8

const (
	Idle State = iota
	Awaiting
	Solved
	Failed
)

func (s State) String() string {
	switch s {
	case Awaiting:
		return "awaiting"
	case Solved:
		return "solved"
	case Failed:
		return "failed"
	}
	return "idle"
}

// Verdict is the outcome of checking one move.
type Verdict uint8

const (
	// Free means no puzzle is being verified; the move is not judged.
	Free Verdict = iota
	Correct
	Complete
	Wrong
)

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "correct"
	case Complete:
		return "solved"
	case Wrong:
		return "wrong"
	}
	return "free"
}

// Result describes a checked move.
type Result struct {
	Verdict  Verdict
	Key      string
	Expected string
	Index    int
}

// Verifier tracks progress through a solution. The zero value is idle.
type Verifier struct {
	sol   *Solution
	index int
	state State
}

// Load starts verifying sol from its first move.
func (v *Verifier) Load(sol *Solution) {
	v.sol = sol
	v.index = 0
	v.state = Awaiting
	if sol == nil {
		v.state = Idle
	}
}

// Restart rewinds to the first move of the loaded solution.
func (v *Verifier) Restart() {
	v.index = 0
	if v.sol != nil {
		v.state = Awaiting
	}
}

// Clear drops the loaded solution.
func (v *Verifier) Clear() { v.Load(nil) }

func (v *Verifier) State() State { return v.state }

func (v *Verifier) Index() int { return v.index }

func (v *Verifier) Solution() *Solution { return v.sol }

// Expected returns the next solution key and the color that must play it.
func (v *Verifier) Expected() (string, rules.Color, bool) {
	if v.state != Awaiting || v.index >= len(v.sol.Keys) {
		return "", rules.White, false
	}
	return v.sol.Keys[v.index], v.sol.ExpectedColor(v.index), true
}

// Check judges m, about to be played in pos. The caller has already checked
// m against the legality gate. m must only be applied when the returned
// error is nil and the verdict is not Wrong.
func (v *Verifier) Check(pos rules.Position, m rules.Move) (Result, error) {
	key := m.Key()
	switch v.state {
	case Idle, Solved:
		return Result{Verdict: Free, Key: key, Index: v.index}, nil
	case Failed:
		return Result{Key: key, Index: v.index}, ErrPuzzleFailed
	}

	expected, color, ok := v.Expected()
	if !ok {
		return Result{Key: key, Index: v.index}, ErrPuzzleFailed
	}
	if pos.Turn != color {
		return Result{Key: key, Expected: expected, Index: v.index}, ErrWrongTurn
	}
	if key != expected {
		v.index = 0
		v.state = Failed
		return Result{Verdict: Wrong, Key: key, Expected: expected, Index: 0}, nil
	}

	v.index++
	if v.index < len(v.sol.Keys) {
		return Result{Verdict: Correct, Key: key, Expected: expected, Index: v.index}, nil
	}

	next := pos
	next.Apply(m)
	if rules.EncodePlacement(next.Board) != v.sol.FinalPlacement() {
		v.index--
		return Result{Key: key, Expected: expected, Index: v.index}, ErrPlacementMismatch
	}
	v.state = Solved
	return Result{Verdict: Complete, Key: key, Expected: expected, Index: v.index}, nil
}
