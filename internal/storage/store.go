package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store wraps a gorm DB instance and provides helper methods for persisting
// puzzles and attempts. A nil *Store is valid and stores nothing.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// DB exposes the underlying gorm DB instance.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// ErrNotFound is returned when a record is not found.
var ErrNotFound = gorm.ErrRecordNotFound

// Attempt states as stored.
const (
	AttemptActive    = "active"
	AttemptSolved    = "solved"
	AttemptFailed    = "failed"
	AttemptAbandoned = "abandoned"
)

// SavePuzzle stores rec and fills in its ID. Puzzles with a URL are
// deduplicated on it.
func (s *Store) SavePuzzle(ctx context.Context, rec *Puzzle) error {
	if s == nil {
		return nil
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.URL == "" {
		return s.db.WithContext(ctx).Create(rec).Error
	}
	return s.db.WithContext(ctx).
		Where("url = ?", rec.URL).
		Assign(map[string]any{
			"title":        rec.Title,
			"fen":          rec.FEN,
			"pgn":          rec.PGN,
			"solution":     rec.Solution,
			"final_fen":    rec.FinalFEN,
			"published_at": rec.PublishedAt,
		}).
		FirstOrCreate(rec).Error
}

// StartAttempt opens a new attempt at puzzleID for a session.
func (s *Store) StartAttempt(ctx context.Context, puzzleID uuid.UUID, sessionID string) (uuid.UUID, error) {
	if s == nil {
		return uuid.Nil, nil
	}
	a := Attempt{
		ID:        uuid.New(),
		PuzzleID:  puzzleID,
		SessionID: sessionID,
		State:     AttemptActive,
	}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return uuid.Nil, err
	}
	return a.ID, nil
}

// AttemptUpdate represents a partial update to an attempt row.
type AttemptUpdate struct {
	State    *string
	Index    *int
	SolvedAt *time.Time
	FailedAt *time.Time
}

// SaveAttempt applies partial updates to the attempt row.
func (s *Store) SaveAttempt(ctx context.Context, id uuid.UUID, upd AttemptUpdate) error {
	if s == nil || id == uuid.Nil {
		return nil
	}
	updates := make(map[string]any)
	if upd.State != nil {
		updates["state"] = *upd.State
	}
	if upd.Index != nil {
		updates["index"] = *upd.Index
	}
	if upd.SolvedAt != nil {
		updates["solved_at"] = *upd.SolvedAt
	}
	if upd.FailedAt != nil {
		updates["failed_at"] = *upd.FailedAt
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&Attempt{}).Where("id = ?", id).Updates(updates).Error
}

// FinishAttempt closes an attempt as solved, failed or abandoned.
func (s *Store) FinishAttempt(ctx context.Context, id uuid.UUID, state string, index int, at time.Time) error {
	if s == nil {
		return nil
	}
	upd := AttemptUpdate{State: &state, Index: &index}
	switch state {
	case AttemptSolved:
		upd.SolvedAt = &at
	case AttemptFailed:
		upd.FailedAt = &at
	}
	return s.SaveAttempt(ctx, id, upd)
}

// RecordMove inserts a move row for the given attempt.
func (s *Store) RecordMove(ctx context.Context, attemptID uuid.UUID, number int, uci, san, color, verdict string) error {
	if s == nil || attemptID == uuid.Nil {
		return nil
	}
	move := Move{
		AttemptID: attemptID,
		Number:    number,
		UCI:       uci,
		SAN:       san,
		Color:     color,
		Verdict:   verdict,
	}
	return s.db.WithContext(ctx).Create(&move).Error
}

// LoadAttempt fetches an attempt with its puzzle and moves.
func (s *Store) LoadAttempt(ctx context.Context, id uuid.UUID) (*Attempt, error) {
	if s == nil {
		return nil, ErrNotFound
	}
	var a Attempt
	err := s.db.WithContext(ctx).
		Preload("Puzzle").
		Preload("Moves", func(db *gorm.DB) *gorm.DB { return db.Order("number") }).
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Stats represents aggregate counts for puzzles and attempts.
type Stats struct {
	Puzzles  int64 `json:"puzzles"`
	Attempts int64 `json:"attempts"`
	Solved   int64 `json:"solved"`
	Failed   int64 `json:"failed"`
}

// FetchStats aggregates counts for the health endpoint.
func (s *Store) FetchStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if s == nil {
		return stats, nil
	}
	db := s.db.WithContext(ctx)
	if err := db.Model(&Puzzle{}).Count(&stats.Puzzles).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&Attempt{}).Count(&stats.Attempts).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&Attempt{}).Where("state = ?", AttemptSolved).Count(&stats.Solved).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&Attempt{}).Where("state = ?", AttemptFailed).Count(&stats.Failed).Error; err != nil {
		return stats, err
	}
	return stats, nil
}
