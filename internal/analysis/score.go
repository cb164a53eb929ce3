// Package analysis drives an external UCI engine and interprets its output.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"puzzlechess/internal/rules"
)

const (
	QuickDepth = 12
	DeepDepth  = 18
	MultiPV    = 3
)

// mateValue is the magnitude of a mate-in-zero score in centipawns.
const mateValue = 100000

var (
	ErrNoEngine     = errors.New("analysis engine not configured")
	ErrEngineClosed = errors.New("analysis engine closed")
)

// Score is an engine evaluation from the side to move's point of view.
type Score struct {
	Mate  bool `json:"mate"`
	Value int  `json:"value"`
}

// Line is one principal variation.
type Line struct {
	MultiPV int      `json:"multipv"`
	Depth   int      `json:"depth"`
	Score   Score    `json:"score"`
	PV      []string `json:"pv"`
	SAN     []string `json:"san,omitempty"`
}

// Result is a finished search.
type Result struct {
	Depth    int    `json:"depth"`
	BestMove string `json:"bestmove"`
	Score    *Score `json:"score,omitempty"`
	Lines    []Line `json:"lines"`
}

// Engine evaluates positions.
type Engine interface {
	Analyze(ctx context.Context, fen string, depth int) (Result, error)
	Close() error
}

// Centipawns maps a score onto a single scale where mates dominate and
// shorter mates rank higher.
func (s Score) Centipawns() int {
	if !s.Mate {
		return s.Value
	}
	if s.Value > 0 {
		return mateValue - s.Value*1000
	}
	return -mateValue - s.Value*1000
}

// Normalize returns s from White's point of view, given the side to move.
func Normalize(s Score, toMove rules.Color) int {
	v := s.Centipawns()
	if toMove == rules.Black {
		return -v
	}
	return v
}

// Delta is how much the mover lost by playing from the position scored
// before to the position scored after. Positive values favour the opponent.
func Delta(before, after Score, mover rules.Color) int {
	b := Normalize(before, mover)
	a := Normalize(after, mover.Other())
	if mover == rules.Black {
		return a - b
	}
	return b - a
}

// Grade classifies a move by its Delta.
type Grade uint8

const (
	Good Grade = iota
	Inaccuracy
	Mistake
	Blunder
)

func (g Grade) String() string {
	switch g {
	case Inaccuracy:
		return "inaccuracy"
	case Mistake:
		return "mistake"
	case Blunder:
		return "blunder"
	}
	return "good"
}

func Classify(delta int) Grade {
	if delta < 0 {
		delta = -delta
	}
	switch {
	case delta < 50:
		return Good
	case delta < 120:
		return Inaccuracy
	case delta < 250:
		return Mistake
	}
	return Blunder
}

// FormatScore renders a score for display: "#3" for mates, pawns otherwise.
func FormatScore(s *Score) string {
	if s == nil {
		return "-"
	}
	if s.Mate {
		return fmt.Sprintf("#%d", s.Value)
	}
	return fmt.Sprintf("%.2f", float64(s.Value)/100)
}
