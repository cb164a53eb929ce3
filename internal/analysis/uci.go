package analysis

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"puzzlechess/internal/logging"
	"puzzlechess/internal/rules"
)

// ParseInfo reads an "info" line. Lines without a score are skipped, as are
// bound-only updates.
func ParseInfo(line string) (Line, bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 || tokens[0] != "info" {
		return Line{}, false
	}
	l := Line{MultiPV: 1}
	scored := false
	for i := 1; i < len(tokens); i++ {
		switch tokens[i] {
		case "depth":
			if i+1 < len(tokens) {
				l.Depth, _ = strconv.Atoi(tokens[i+1])
				i++
			}
		case "multipv":
			if i+1 < len(tokens) {
				if n, err := strconv.Atoi(tokens[i+1]); err == nil {
					l.MultiPV = n
				}
				i++
			}
		case "score":
			if i+2 < len(tokens) && (tokens[i+1] == "cp" || tokens[i+1] == "mate") {
				v, err := strconv.Atoi(tokens[i+2])
				if err != nil {
					return Line{}, false
				}
				l.Score = Score{Mate: tokens[i+1] == "mate", Value: v}
				scored = true
				i += 2
			}
		case "lowerbound", "upperbound":
			return Line{}, false
		case "pv":
			l.PV = append([]string(nil), tokens[i+1:]...)
			i = len(tokens)
		}
	}
	return l, scored
}

// ParseBestMove reads a "bestmove" line. "(none)" yields an empty move.
func ParseBestMove(line string) (string, bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 || tokens[0] != "bestmove" {
		return "", false
	}
	if len(tokens) < 2 || tokens[1] == "(none)" {
		return "", true
	}
	return tokens[1], true
}

// collect folds engine output into a Result, keeping the latest line per
// multipv slot.
type collect struct {
	lines map[int]Line
}

func (c *collect) add(l Line) {
	if c.lines == nil {
		c.lines = make(map[int]Line)
	}
	c.lines[l.MultiPV] = l
}

func (c *collect) result(best string, depth int) Result {
	res := Result{BestMove: best, Depth: depth}
	slots := maps.Keys(c.lines)
	slices.Sort(slots)
	for _, k := range slots {
		res.Lines = append(res.Lines, c.lines[k])
	}
	if first, ok := c.lines[1]; ok {
		s := first.Score
		res.Score = &s
		res.Depth = first.Depth
	}
	return res
}

// UCIEngine talks to a UCI engine over a pair of pipes. It runs one search
// at a time and caches finished searches by position and depth.
type UCIEngine struct {
	mu     sync.Mutex
	in     io.Writer
	lines  chan string
	ready  bool
	closer func() error

	cacheMu sync.Mutex
	cache   map[string]Result
}

// NewUCIEngine wraps an engine that reads commands from in and writes its
// output to out. closer, if not nil, runs on Close.
func NewUCIEngine(in io.Writer, out io.Reader, closer func() error) *UCIEngine {
	e := &UCIEngine{
		in:     in,
		lines:  make(chan string, 64),
		closer: closer,
		cache:  make(map[string]Result),
	}
	go func() {
		sc := bufio.NewScanner(out)
		for sc.Scan() {
			e.lines <- sc.Text()
		}
		close(e.lines)
	}()
	return e
}

// StartUCI launches the engine binary at path.
func StartUCI(path string, args ...string) (*UCIEngine, error) {
	cmd := exec.Command(path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", path, err)
	}
	return NewUCIEngine(stdin, stdout, func() error {
		_ = stdin.Close()
		return cmd.Wait()
	}), nil
}

func (e *UCIEngine) send(cmds ...string) error {
	for _, c := range cmds {
		logging.Debugf("uci > %s", c)
		if _, err := io.WriteString(e.in, c+"\n"); err != nil {
			return fmt.Errorf("uci write: %w", err)
		}
	}
	return nil
}

// await reads lines until one starts with prefix, handing every line to fn.
// When search is set, cancellation stops the search and keeps reading until
// the engine acknowledges, so the next search starts clean.
func (e *UCIEngine) await(ctx context.Context, prefix string, search bool, fn func(string)) (string, error) {
	done := ctx.Done()
	for {
		select {
		case <-done:
			if !search {
				return "", ctx.Err()
			}
			done = nil
			if err := e.send("stop"); err != nil {
				return "", err
			}
		case line, ok := <-e.lines:
			if !ok {
				return "", ErrEngineClosed
			}
			if fn != nil {
				fn(line)
			}
			if strings.HasPrefix(line, prefix) {
				return line, nil
			}
		}
	}
}

func (e *UCIEngine) handshake(ctx context.Context) error {
	if e.ready {
		return nil
	}
	if err := e.send("uci"); err != nil {
		return err
	}
	if _, err := e.await(ctx, "uciok", false, nil); err != nil {
		return err
	}
	if err := e.send(fmt.Sprintf("setoption name MultiPV value %d", MultiPV), "isready"); err != nil {
		return err
	}
	if _, err := e.await(ctx, "readyok", false, nil); err != nil {
		return err
	}
	e.ready = true
	return nil
}

// Analyze searches fen to depth. A cancelled search is stopped and its
// partial output discarded.
func (e *UCIEngine) Analyze(ctx context.Context, fen string, depth int) (Result, error) {
	pos, err := rules.ParsePosition(fen)
	if err != nil {
		return Result{}, err
	}
	if depth <= 0 {
		depth = QuickDepth
	}
	fen = pos.String()
	key := fmt.Sprintf("%s|%d", fen, depth)
	if res, ok := e.cached(key); ok {
		return res, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.handshake(ctx); err != nil {
		return Result{}, err
	}
	if err := e.send("position fen "+fen, fmt.Sprintf("go depth %d", depth)); err != nil {
		return Result{}, err
	}

	var c collect
	line, err := e.await(ctx, "bestmove", true, func(s string) {
		if l, ok := ParseInfo(s); ok {
			c.add(l)
		}
	})
	if err != nil {
		return Result{}, err
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	best, _ := ParseBestMove(line)
	res := c.result(best, depth)
	for i := range res.Lines {
		_, san, _ := DecodePV(pos, res.Lines[i].PV)
		res.Lines[i].SAN = san
		if ply, err := MismatchedSAN(fen, res.Lines[i].PV[:len(san)], san); err != nil || ply >= 0 {
			logging.Warnf("analysis: san of %v disagrees with reference at ply %d: %v", res.Lines[i].PV, ply, err)
		}
	}

	e.cacheMu.Lock()
	e.cache[key] = res
	e.cacheMu.Unlock()
	return res, nil
}

func (e *UCIEngine) cached(key string) (Result, bool) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	res, ok := e.cache[key]
	return res, ok
}

// Close asks the engine to quit and releases it.
func (e *UCIEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.send("quit")
	if e.closer != nil {
		return e.closer()
	}
	return nil
}
