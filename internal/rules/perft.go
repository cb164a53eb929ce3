package rules

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(pos Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := pos.LegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var n uint64
	for _, m := range moves {
		next := pos
		next.Apply(m)
		n += Perft(next, depth-1)
	}
	return n
}

// PerftDivide returns the perft count below each root move, keyed by move key.
func PerftDivide(pos Position, depth int) map[string]uint64 {
	out := make(map[string]uint64)
	if depth <= 0 {
		return out
	}
	for _, m := range pos.LegalMoves() {
		next := pos
		next.Apply(m)
		out[m.Key()] = Perft(next, depth-1)
	}
	return out
}
