// Package provider fetches puzzles from a remote source.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBaseURL serves the chess.com daily/random puzzle API.
const DefaultBaseURL = "https://api.chess.com"

// ErrNoSolution is returned for puzzles without solution movetext.
var ErrNoSolution = errors.New("puzzle has no solution")

// Puzzle is a puzzle as published by the source.
type Puzzle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishTime int64  `json:"publish_time"`
	FEN         string `json:"fen"`
	PGN         string `json:"pgn"`
	Image       string `json:"image"`
}

// Published returns the publish time, or the zero time when unknown.
func (p Puzzle) Published() time.Time {
	if p.PublishTime <= 0 {
		return time.Time{}
	}
	return time.Unix(p.PublishTime, 0).UTC()
}

// Source hands out puzzles.
type Source interface {
	Random(ctx context.Context) (Puzzle, error)
}

// FetchError wraps a failed fetch. Retryable failures may succeed when the
// request is repeated.
type FetchError struct {
	URL       string
	Status    int
	Retryable bool
	Err       error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPSource reads puzzles from <BaseURL>/pub/puzzle/random.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPSource(baseURL string) *HTTPSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

const maxBody = 1 << 20

func (s *HTTPSource) Random(ctx context.Context) (Puzzle, error) {
	var p Puzzle
	url := s.BaseURL + "/pub/puzzle/random"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return p, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return p, &FetchError{URL: url, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return p, &FetchError{URL: url, Status: resp.StatusCode, Retryable: true, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&p); err != nil {
		return p, &FetchError{URL: url, Status: resp.StatusCode, Retryable: true, Err: fmt.Errorf("decode: %w", err)}
	}
	if strings.TrimSpace(p.PGN) == "" {
		return p, &FetchError{URL: url, Status: resp.StatusCode, Retryable: true, Err: ErrNoSolution}
	}
	return p, nil
}

// Static cycles through a fixed list of puzzles.
type Static struct {
	mu      sync.Mutex
	next    int
	Puzzles []Puzzle
}

func (s *Static) Random(ctx context.Context) (Puzzle, error) {
	if err := ctx.Err(); err != nil {
		return Puzzle{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Puzzles) == 0 {
		return Puzzle{}, &FetchError{URL: "static", Err: ErrNoSolution}
	}
	p := s.Puzzles[s.next%len(s.Puzzles)]
	s.next++
	return p, nil
}

// Sequencer hands out request generations. Only the response to the newest
// request should be applied.
type Sequencer struct {
	n atomic.Uint64
}

// Next starts a new request and returns its generation.
func (s *Sequencer) Next() uint64 { return s.n.Add(1) }

// Current returns the newest generation handed out.
func (s *Sequencer) Current() uint64 { return s.n.Load() }

// IsCurrent reports whether gen is still the newest request.
func (s *Sequencer) IsCurrent(gen uint64) bool { return gen == s.n.Load() }
