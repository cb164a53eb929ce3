package game

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"puzzlechess/internal/provider"
	"puzzlechess/internal/puzzle"
	"puzzlechess/internal/storage"
)

// Hub manages all active puzzle sessions
type Hub struct {
	Mu         sync.Mutex
	Games      map[string]*Game
	ReplyDelay time.Duration
	Store      *storage.Store
}

// Game is one live puzzle session with its watchers
type Game struct {
	Mu         sync.Mutex
	ID         string
	session    *puzzle.Session
	puzzle     *provider.Puzzle
	Watchers   map[chan []byte]struct{}
	LastSeen   time.Time
	ReplyDelay time.Duration
	Seq        provider.Sequencer
	epoch      uint64
	reply      *time.Timer
	message    string
	store      *storage.Store
	puzzleID   uuid.UUID
	attemptID  uuid.UUID
}

// MoveRequest represents a move request from a client
type MoveRequest struct {
	UCI string `json:"uci"`
}

// LoadRequest carries a puzzle supplied by the client
type LoadRequest struct {
	Title string `json:"title"`
	FEN   string `json:"fen"`
	PGN   string `json:"pgn"`
}

// PuzzleInfo describes the loaded puzzle
type PuzzleInfo struct {
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
	Image     string `json:"image,omitempty"`
	Published int64  `json:"published,omitempty"`
}

// GameState represents the current state of a session
type GameState struct {
	Kind     string          `json:"kind"`
	FEN      string          `json:"fen"`
	Turn     string          `json:"turn"`
	Status   string          `json:"status"`
	Puzzle   *PuzzleInfo     `json:"puzzle,omitempty"`
	Verify   string          `json:"verify"`
	Player   string          `json:"player,omitempty"`
	Index    int             `json:"index"`
	Total    int             `json:"total"`
	History  []puzzle.Played `json:"history"`
	Message  string          `json:"message,omitempty"`
	LastSeen int64           `json:"lastSeen"`
	Watchers int             `json:"watchers"`
}
