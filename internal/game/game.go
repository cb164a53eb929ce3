package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"puzzlechess/internal/logging"
	"puzzlechess/internal/provider"
	"puzzlechess/internal/puzzle"
	"puzzlechess/internal/rules"
	"puzzlechess/internal/storage"
)

// ErrStaleLoad is returned when a newer puzzle request superseded the one
// being loaded.
var ErrStaleLoad = errors.New("superseded by a newer puzzle request")

var (
	// ErrBadSquare is returned for an unparsable square name.
	ErrBadSquare = errors.New("bad square")
	// ErrNotYourTurn is returned for moves made while the opponent's
	// solution reply is pending.
	ErrNotYourTurn = errors.New("not your turn")
)

const storeTimeout = 5 * time.Second

func newGame(id string, replyDelay time.Duration, store *storage.Store) *Game {
	return &Game{
		ID:         id,
		session:    puzzle.NewSession(),
		Watchers:   make(map[chan []byte]struct{}),
		LastSeen:   time.Now(),
		ReplyDelay: replyDelay,
		store:      store,
	}
}

// Touch updates the last seen timestamp for a session
func (g *Game) Touch() {
	g.Mu.Lock()
	g.LastSeen = time.Now()
	g.Mu.Unlock()
}

// Load derives the solution of p and starts verifying it. gen must come from
// g.Seq.Next(); loads for anything but the newest generation are dropped.
func (g *Game) Load(p provider.Puzzle, gen uint64) error {
	sol, err := puzzle.Derive(p.FEN, p.PGN)
	if err != nil {
		return err
	}

	g.Mu.Lock()
	if !g.Seq.IsCurrent(gen) {
		g.Mu.Unlock()
		logging.Debugf("game %s: dropping stale puzzle load %d", g.ID, gen)
		return ErrStaleLoad
	}
	g.resetLocked()
	g.session.Load(sol)
	g.puzzle = &p
	g.message = fmt.Sprintf("Find the best move for %s", colorName(sol.Player()))
	prevAttempt := g.attemptID
	g.puzzleID, g.attemptID = uuid.Nil, uuid.Nil
	epoch := g.epoch
	g.Mu.Unlock()

	logging.Debugf("game %s: loaded %q, solution %v", g.ID, p.Title, sol.Keys)
	g.persistLoad(p, sol, prevAttempt, epoch)
	return nil
}

// LoadPosition sets up a free-play position with no puzzle attached. Puzzle
// loads requested before it are dropped.
func (g *Game) LoadPosition(fen string) error {
	pos, err := rules.ParsePosition(fen)
	if err != nil {
		return err
	}
	g.Mu.Lock()
	g.Seq.Next()
	g.resetLocked()
	g.session.LoadPosition(pos)
	g.puzzle = nil
	g.message = ""
	prevAttempt := g.attemptID
	g.puzzleID, g.attemptID = uuid.Nil, uuid.Nil
	g.Mu.Unlock()
	g.abandon(prevAttempt)
	return nil
}

// MakeMove plays key on the live position. Illegal moves return an error and
// change nothing. When the move is accepted and the solution continues with
// an opponent move, the reply is played after ReplyDelay.
func (g *Game) MakeMove(key string) (puzzle.Result, error) {
	g.Mu.Lock()
	if sol := g.session.Solution(); sol != nil && g.session.State() == puzzle.Awaiting && g.session.Position().Turn != sol.Player() {
		idx := g.session.Index()
		g.Mu.Unlock()
		return puzzle.Result{Key: key, Index: idx}, ErrNotYourTurn
	}
	res, err := g.session.Play(key)
	if err != nil {
		g.Mu.Unlock()
		return res, err
	}
	rec := g.afterPlayLocked(res)
	g.Mu.Unlock()

	g.persistMove(rec)
	return res, nil
}

// Restart rewinds the loaded puzzle to its starting position.
func (g *Game) Restart() error {
	g.Mu.Lock()
	if err := g.session.Restart(); err != nil {
		g.Mu.Unlock()
		return err
	}
	g.stopReplyLocked()
	g.epoch++
	g.message = fmt.Sprintf("Find the best move for %s", colorName(g.session.Solution().Player()))
	prevAttempt, puzzleID := g.attemptID, g.puzzleID
	g.attemptID = uuid.Nil
	epoch := g.epoch
	g.Mu.Unlock()

	g.abandon(prevAttempt)
	if puzzleID != uuid.Nil {
		g.startAttempt(puzzleID, epoch)
	}
	return nil
}

// Position returns a copy of the live position.
func (g *Game) Position() rules.Position {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.session.Position()
}

// Line returns the position before every played move followed by the live
// position, together with the moves between them.
func (g *Game) Line() ([]rules.Position, []puzzle.Played) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.session.Line(), g.session.History()
}

// LegalTargets lists the allowed destinations of the side-to-move piece on
// the named square.
func (g *Game) LegalTargets(from string) ([]rules.Target, error) {
	sq, ok := rules.ParseSquare(from)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrBadSquare, from)
	}
	pos := g.Position()
	return rules.LegalMovesForPiece(&pos.Board, pos.Rights, sq, pos.Turn), nil
}

// StateLocked returns the current session state (must be called with lock held)
func (g *Game) StateLocked() GameState {
	pos := g.session.Position()
	st := GameState{
		Kind:     "state",
		FEN:      pos.String(),
		Turn:     pos.Turn.String(),
		Verify:   g.session.State().String(),
		Index:    g.session.Index(),
		History:  g.session.History(),
		Message:  g.message,
		LastSeen: g.LastSeen.UnixMilli(),
		Watchers: len(g.Watchers),
	}
	if pos.Board.HasPieces() {
		st.Status = rules.StatusOf(&pos).String()
	}
	if sol := g.session.Solution(); sol != nil {
		st.Player = sol.Player().String()
		st.Total = len(sol.Keys)
	}
	if p := g.puzzle; p != nil {
		st.Puzzle = &PuzzleInfo{Title: p.Title, URL: p.URL, Image: p.Image, Published: p.PublishTime}
	}
	return st
}

// Broadcast sends the current session state to all watchers
func (g *Game) Broadcast() {
	g.Mu.Lock()
	state := g.StateLocked()
	data, _ := json.Marshal(state)
	for ch := range g.Watchers {
		select {
		case ch <- data:
		default:
		}
	}
	g.Mu.Unlock()
}

// AddWatcher adds a new watcher channel
func (g *Game) AddWatcher(ch chan []byte) {
	g.Mu.Lock()
	g.Watchers[ch] = struct{}{}
	g.Mu.Unlock()
}

// RemoveWatcher removes a watcher channel
func (g *Game) RemoveWatcher(ch chan []byte) {
	g.Mu.Lock()
	delete(g.Watchers, ch)
	g.Mu.Unlock()
}

// moveRecord is what gets persisted for a played move.
type moveRecord struct {
	attempt uuid.UUID
	number  int
	key     string
	san     string
	color   string
	result  puzzle.Result
}

func (g *Game) afterPlayLocked(res puzzle.Result) moveRecord {
	g.LastSeen = time.Now()
	rec := moveRecord{attempt: g.attemptID, result: res, key: res.Key}
	if h := g.session.History(); res.Verdict != puzzle.Wrong && len(h) > 0 {
		last := h[len(h)-1]
		rec.number, rec.san, rec.color = len(h), last.SAN, last.Color.String()
	} else {
		rec.number = len(h) + 1
		rec.color = g.session.Position().Turn.String()
	}

	switch res.Verdict {
	case puzzle.Wrong:
		g.message = fmt.Sprintf("Wrong move, %s was expected. Restart to try again", res.Expected)
	case puzzle.Complete:
		g.message = "Puzzle solved"
	case puzzle.Correct:
		g.message = "Correct"
		g.scheduleReplyLocked()
	}
	return rec
}

// scheduleReplyLocked arranges for the opponent's solution move to be played
// after ReplyDelay.
func (g *Game) scheduleReplyLocked() {
	key, ok := g.session.OpponentMove()
	if !ok {
		return
	}
	g.stopReplyLocked()
	epoch, index := g.epoch, g.session.Index()
	g.reply = time.AfterFunc(g.ReplyDelay, func() { g.playReply(epoch, index, key) })
}

func (g *Game) playReply(epoch uint64, index int, key string) {
	g.Mu.Lock()
	if g.epoch != epoch || g.session.Index() != index {
		g.Mu.Unlock()
		return
	}
	g.reply = nil
	res, err := g.session.Play(key)
	if err != nil {
		g.message = err.Error()
		g.Mu.Unlock()
		logging.Warnf("game %s: opponent reply %s: %v", g.ID, key, err)
		g.Broadcast()
		return
	}
	rec := g.afterPlayLocked(res)
	g.Mu.Unlock()

	g.persistMove(rec)
	g.Broadcast()
}

func (g *Game) stopReplyLocked() {
	if g.reply != nil {
		g.reply.Stop()
		g.reply = nil
	}
}

func (g *Game) resetLocked() {
	g.stopReplyLocked()
	g.epoch++
	g.LastSeen = time.Now()
}

func (g *Game) withStore(fn func(ctx context.Context, s *storage.Store) error) {
	if g.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := fn(ctx, g.store); err != nil {
		logging.Warnf("game %s: store: %v", g.ID, err)
	}
}

func (g *Game) persistLoad(p provider.Puzzle, sol *puzzle.Solution, prevAttempt uuid.UUID, epoch uint64) {
	g.abandon(prevAttempt)
	if g.store == nil {
		return
	}
	rec := storage.Puzzle{
		Title:    p.Title,
		URL:      p.URL,
		FEN:      sol.Start.String(),
		PGN:      p.PGN,
		Solution: strings.Join(sol.Keys, " "),
		FinalFEN: sol.Final.String(),
	}
	if t := p.Published(); !t.IsZero() {
		rec.PublishedAt = &t
	}
	g.withStore(func(ctx context.Context, s *storage.Store) error {
		return s.SavePuzzle(ctx, &rec)
	})
	if rec.ID == uuid.Nil {
		return
	}
	g.Mu.Lock()
	if g.epoch == epoch {
		g.puzzleID = rec.ID
	}
	g.Mu.Unlock()
	g.startAttempt(rec.ID, epoch)
}

func (g *Game) startAttempt(puzzleID uuid.UUID, epoch uint64) {
	g.withStore(func(ctx context.Context, s *storage.Store) error {
		id, err := s.StartAttempt(ctx, puzzleID, g.ID)
		if err != nil {
			return err
		}
		g.Mu.Lock()
		if g.epoch == epoch {
			g.attemptID = id
		}
		g.Mu.Unlock()
		return nil
	})
}

func (g *Game) abandon(attempt uuid.UUID) {
	if attempt == uuid.Nil {
		return
	}
	g.withStore(func(ctx context.Context, s *storage.Store) error {
		a, err := s.LoadAttempt(ctx, attempt)
		if err != nil {
			return err
		}
		if a.State != storage.AttemptActive {
			return nil
		}
		return s.FinishAttempt(ctx, attempt, storage.AttemptAbandoned, a.Index, time.Now())
	})
}

func (g *Game) persistMove(rec moveRecord) {
	if rec.attempt == uuid.Nil {
		return
	}
	g.withStore(func(ctx context.Context, s *storage.Store) error {
		if err := s.RecordMove(ctx, rec.attempt, rec.number, rec.key, rec.san, rec.color, rec.result.Verdict.String()); err != nil {
			return err
		}
		switch rec.result.Verdict {
		case puzzle.Complete:
			return s.FinishAttempt(ctx, rec.attempt, storage.AttemptSolved, rec.result.Index, time.Now())
		case puzzle.Wrong:
			return s.FinishAttempt(ctx, rec.attempt, storage.AttemptFailed, rec.result.Index, time.Now())
		case puzzle.Correct:
			idx := rec.result.Index
			return s.SaveAttempt(ctx, rec.attempt, storage.AttemptUpdate{Index: &idx})
		}
		return nil
	})
}

func colorName(c rules.Color) string {
	if c == rules.Black {
		return "Black"
	}
	return "White"
}
