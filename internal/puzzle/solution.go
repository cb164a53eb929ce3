// Package puzzle verifies played moves against a puzzle's solution line.
package puzzle

import (
	"fmt"
	"strings"

	"puzzlechess/internal/notation"
	"puzzlechess/internal/rules"
)

// Solution is the derived, immutable answer to a puzzle.
type Solution struct {
	Start rules.Position
	Keys  []string
	Final rules.Position
}

// Player is the color the solver plays: the side to move at the start.
func (s *Solution) Player() rules.Color { return s.Start.Turn }

// ExpectedColor returns the color expected to play the i-th solution move.
func (s *Solution) ExpectedColor(i int) rules.Color {
	if i%2 == 0 {
		return s.Player()
	}
	return s.Player().Other()
}

// FinalPlacement is the placement field the solution ends on.
func (s *Solution) FinalPlacement() string {
	return rules.EncodePlacement(s.Final.Board)
}

// Derive computes the solution of a puzzle from its starting position and
// algebraic movetext. A [FEN] tag inside movetext takes precedence over
// startFEN; with neither, the standard start position is used.
func Derive(startFEN, movetext string) (*Solution, error) {
	fen := strings.TrimSpace(startFEN)
	if tag, ok := notation.FENTag(movetext); ok {
		fen = tag
	}
	if fen == "" {
		fen = rules.StartFEN
	}
	start, err := rules.ParsePosition(fen)
	if err != nil {
		return nil, fmt.Errorf("puzzle start: %w", err)
	}
	keys, final, err := notation.ResolveSequence(movetext, start)
	if err != nil {
		return nil, fmt.Errorf("puzzle solution: %w", err)
	}
	return &Solution{Start: start, Keys: keys, Final: final}, nil
}
