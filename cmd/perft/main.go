// Command perft counts legal move tree nodes with the puzzle rules engine and
// cross-checks every root move against dragontoothmg.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dylhunn/dragontoothmg"

	"puzzlechess/internal/rules"
)

func main() {
	fen := flag.String("fen", rules.StartFEN, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	check := flag.Bool("check", true, "Compare against dragontoothmg")
	flag.Parse()

	if *depth <= 0 {
		fmt.Fprintln(os.Stderr, "-depth must be > 0")
		os.Exit(2)
	}

	pos, err := rules.ParsePosition(*fen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ParsePosition error: %v\n", err)
		os.Exit(2)
	}
	// the engine does not track en passant, so the reference gets our FEN
	canonical := pos.String()

	start := time.Now()
	div := rules.PerftDivide(pos, *depth)
	elapsed := time.Since(start)

	var ref map[string]uint64
	if *check {
		b := dragontoothmg.ParseFen(canonical)
		ref = referenceDivide(&b, *depth)
	}

	moves := make([]string, 0, len(div))
	var total uint64
	for m, n := range div {
		moves = append(moves, m)
		total += n
	}
	sort.Strings(moves)

	mismatches := 0
	for _, m := range moves {
		if *divide {
			fmt.Printf("%s: %d\n", m, div[m])
		}
		if ref != nil && ref[m] != div[m] {
			fmt.Printf("MISMATCH %s: got %d, reference %d\n", m, div[m], ref[m])
			mismatches++
		}
	}
	for m := range ref {
		if _, ok := div[m]; !ok {
			fmt.Printf("MISSING %s: reference %d\n", m, ref[m])
			mismatches++
		}
	}

	fmt.Printf("depth %d \tnodes %d \ttime %s\n", *depth, total, elapsed)
	if mismatches > 0 {
		os.Exit(1)
	}
}

func referenceDivide(b *dragontoothmg.Board, depth int) map[string]uint64 {
	out := make(map[string]uint64)
	moves := b.GenerateLegalMoves()
	for i := range moves {
		undo := b.Apply(moves[i])
		out[moves[i].String()] = referencePerft(b, depth-1)
		undo()
	}
	return out
}

func referencePerft(b *dragontoothmg.Board, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := b.GenerateLegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var n uint64
	for i := range moves {
		undo := b.Apply(moves[i])
		n += referencePerft(b, depth-1)
		undo()
	}
	return n
}
