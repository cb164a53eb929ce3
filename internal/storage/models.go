package storage

import (
	"time"

	"github.com/google/uuid"
)

// Puzzle is a loaded puzzle together with its derived solution.
type Puzzle struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string
	URL         string `gorm:"index"`
	FEN         string
	PGN         string
	Solution    string
	FinalFEN    string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Attempts    []Attempt
}

// Attempt is one session's try at a puzzle, from load or restart until it
// is solved, failed or abandoned.
type Attempt struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PuzzleID  uuid.UUID `gorm:"type:uuid;index"`
	Puzzle    Puzzle    `gorm:"constraint:OnDelete:CASCADE;"`
	SessionID string    `gorm:"index"`
	State     string    `gorm:"index"`
	Index     int
	SolvedAt  *time.Time
	FailedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Moves     []Move
}

// Move stores a single move played during an attempt.
type Move struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AttemptID uuid.UUID `gorm:"type:uuid;index"`
	Number    int
	UCI       string
	SAN       string
	Color     string
	Verdict   string
	CreatedAt time.Time
}
