package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"puzzlechess/internal/analysis"
	"puzzlechess/internal/game"
	"puzzlechess/internal/logging"
	"puzzlechess/internal/provider"
	"puzzlechess/internal/puzzle"
	"puzzlechess/internal/rules"
	"puzzlechess/internal/storage"

	"github.com/google/uuid"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Hub    *game.Hub
	Source provider.Source
	Engine analysis.Engine
	Store  *storage.Store

	Commit    string
	BuildDate string
}

// NewHandler creates a new handler instance. engine may be nil.
func NewHandler(hub *game.Hub, source provider.Source, engine analysis.Engine) *Handler {
	return &Handler{Hub: hub, Source: source, Engine: engine}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/new", h.HandleNew)
	mux.HandleFunc("/state/", allow(http.MethodGet, h.HandleState))
	mux.HandleFunc("/sse/", allow(http.MethodGet, h.HandleSSE))
	mux.HandleFunc("/puzzle/", allow(http.MethodPost, h.HandlePuzzle))
	mux.HandleFunc("/load/", allow(http.MethodPost, h.HandleLoad))
	mux.HandleFunc("/move/", allow(http.MethodPost, h.HandleMove))
	mux.HandleFunc("/restart/", allow(http.MethodPost, h.HandleRestart))
	mux.HandleFunc("/moves/", allow(http.MethodGet, h.HandleMoves))
	mux.HandleFunc("/analyze/", allow(http.MethodGet, h.HandleAnalyze))
	mux.HandleFunc("/healthz", h.HandleHealth)
	return LogRequests(mux)
}

// HandleNew creates a new session id and redirects to its state
func (h *Handler) HandleNew(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	_ = h.Hub.Get(id)
	http.Redirect(w, r, "/state/"+id, http.StatusFound)
}

func sessionID(r *http.Request, prefix string) string {
	return strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
}

func stateOf(g *game.Game) game.GameState {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.StateLocked()
}

// HandleState returns the current session state
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	g := h.Hub.Get(sessionID(r, "/state/"))
	g.Touch()
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "state": stateOf(g)})
}

// HandleSSE handles Server-Sent Events for real-time session updates
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	g := h.Hub.Get(sessionID(r, "/sse/"))

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan []byte, 16)
	g.AddWatcher(ch)

	initial, _ := json.Marshal(stateOf(g))

	_, _ = fmt.Fprintf(w, "data: %s\n\n", initial)
	flusher.Flush()

	g.Touch()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	defer g.RemoveWatcher(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// heartbeat
			_, _ = w.Write([]byte("data: {}\n\n"))
			flusher.Flush()
		case msg := <-ch:
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(msg)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

// HandlePuzzle fetches a random puzzle from the source and loads it. Only
// the newest request per session is applied.
func (h *Handler) HandlePuzzle(w http.ResponseWriter, r *http.Request) {
	g := h.Hub.Get(sessionID(r, "/puzzle/"))
	gen := g.Seq.Next()

	p, err := h.Source.Random(r.Context())
	if err != nil {
		var fe *provider.FetchError
		retryable := errors.As(err, &fe) && fe.Retryable
		logging.Warnf("puzzle fetch for %s: %v", g.ID, err)
		WriteJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "error": err.Error(), "retryable": retryable})
		return
	}
	h.load(w, g, p, gen)
}

// HandleLoad loads a puzzle supplied in the request body. A FEN without
// movetext sets up free play.
func (h *Handler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	g := h.Hub.Get(sessionID(r, "/load/"))

	var req game.LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad json"})
		return
	}
	if strings.TrimSpace(req.PGN) == "" {
		fen := req.FEN
		if strings.TrimSpace(fen) == "" {
			fen = rules.StartFEN
		}
		if err := g.LoadPosition(fen); err != nil {
			WriteJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error(), "state": stateOf(g)})
			return
		}
		go g.Broadcast()
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "state": stateOf(g)})
		return
	}
	h.load(w, g, provider.Puzzle{Title: req.Title, FEN: req.FEN, PGN: req.PGN}, g.Seq.Next())
}

func (h *Handler) load(w http.ResponseWriter, g *game.Game, p provider.Puzzle, gen uint64) {
	if err := g.Load(p, gen); err != nil {
		if errors.Is(err, game.ErrStaleLoad) {
			WriteJSON(w, http.StatusConflict, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error(), "state": stateOf(g)})
		return
	}
	go g.Broadcast()
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "state": stateOf(g)})
}

// HandleMove processes a move
func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	g := h.Hub.Get(sessionID(r, "/move/"))

	var m game.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad json"})
		return
	}
	uci := strings.ToLower(strings.TrimSpace(m.UCI))
	if uci == "" {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "missing move"})
		return
	}

	g.Touch()

	res, err := g.MakeMove(uci)
	if err != nil {
		logging.Debugf("move %s in %s declined: %v", uci, g.ID, err)
		WriteJSON(w, http.StatusOK, map[string]any{
			"ok":        false,
			"error":     err.Error(),
			"promotion": errors.Is(err, rules.ErrPromotionRequired),
			"state":     stateOf(g),
		})
		return
	}

	go g.Broadcast()

	body := map[string]any{"ok": true, "verdict": res.Verdict.String(), "state": stateOf(g)}
	if res.Verdict == puzzle.Wrong {
		body["expected"] = res.Expected
	}
	WriteJSON(w, http.StatusOK, body)
}

// HandleRestart rewinds the session's puzzle
func (h *Handler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	g := h.Hub.Get(sessionID(r, "/restart/"))

	if err := g.Restart(); err != nil {
		WriteJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error(), "state": stateOf(g)})
		return
	}

	go g.Broadcast()
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "state": stateOf(g)})
}

type target struct {
	To      string `json:"to"`
	Capture bool   `json:"capture"`
}

// HandleMoves lists legal destinations for the piece on ?from=
func (h *Handler) HandleMoves(w http.ResponseWriter, r *http.Request) {
	g := h.Hub.Get(sessionID(r, "/moves/"))
	from := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("from")))

	ts, err := g.LegalTargets(from)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	out := make([]target, 0, len(ts))
	for _, t := range ts {
		out = append(out, target{To: t.To.String(), Capture: t.Capture})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "from": from, "targets": out})
}

// HandleAnalyze evaluates a position of the session with the configured
// engine. ?ply=N picks the position after the first N moves (the live
// position by default); for N > 0 the move that reached it is graded too.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": analysis.ErrNoEngine.Error()})
		return
	}
	g := h.Hub.Get(sessionID(r, "/analyze/"))

	depth, err := parseDepth(r.URL.Query().Get("depth"))
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	line, played := g.Line()
	ply := len(line) - 1
	if s := r.URL.Query().Get("ply"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > ply {
			WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": fmt.Sprintf("bad ply %q", s)})
			return
		}
		ply = n
	}
	pos := line[ply]
	if !pos.Board.HasPieces() {
		WriteJSON(w, http.StatusOK, map[string]any{"ok": false, "error": "nothing to analyze"})
		return
	}

	res, err := h.Engine.Analyze(r.Context(), pos.String(), depth)
	if err != nil {
		logging.Warnf("analyze %s: %v", g.ID, err)
		WriteJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	resp := map[string]any{
		"ok":       true,
		"ply":      ply,
		"analysis": res,
		"score":    analysis.FormatScore(res.Score),
	}
	if ply > 0 && res.Score != nil {
		prev := line[ply-1]
		before, err := h.Engine.Analyze(r.Context(), prev.String(), depth)
		switch {
		case err != nil:
			logging.Warnf("analyze %s ply %d: %v", g.ID, ply-1, err)
		case before.Score != nil:
			delta := analysis.Delta(*before.Score, *res.Score, prev.Turn)
			resp["move"] = played[ply-1].SAN
			resp["delta"] = delta
			resp["grade"] = analysis.Classify(delta).String()
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

func parseDepth(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "quick":
		return analysis.QuickDepth, nil
	case "deep":
		return analysis.DeepDepth, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 40 {
		return 0, fmt.Errorf("bad depth %q", s)
	}
	return n, nil
}

// HandleHealth reports liveness, the build commit and stored totals
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.FetchStats(r.Context())
	if err != nil {
		logging.Warnf("stats: %v", err)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "commit": h.Commit, "buildDate": h.BuildDate, "stats": stats})
}

// ClientIP extracts the client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
