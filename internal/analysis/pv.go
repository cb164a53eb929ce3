package analysis

import (
	"github.com/corentings/chess/v2"

	"puzzlechess/internal/notation"
	"puzzlechess/internal/rules"
)

// DecodePV replays an engine line from pos. Decoding stops at the first key
// that is malformed or not allowed; the moves before it are returned along
// with their SAN and the error.
func DecodePV(pos rules.Position, pv []string) ([]rules.Move, []string, error) {
	moves, err := notation.ResolveKeys(pos, pv)
	return moves, notation.SANLine(pos, moves), err
}

// ReferenceSAN renders pv with the corentings/chess notation encoder. It is
// used to cross-check our own SAN rendering of engine lines.
func ReferenceSAN(fen string, pv []string) ([]string, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, err
	}
	g := chess.NewGame(opt)
	uci := chess.UCINotation{}
	san := chess.AlgebraicNotation{}
	out := make([]string, 0, len(pv))
	for _, k := range pv {
		pos := g.Position()
		mv, err := uci.Decode(pos, k)
		if err != nil {
			return out, err
		}
		text := san.Encode(pos, mv)
		if err := g.Move(mv, nil); err != nil {
			return out, err
		}
		out = append(out, text)
	}
	return out, nil
}

// MismatchedSAN renders keys with ReferenceSAN and returns the first ply
// where san differs from it, or -1 when the two agree.
func MismatchedSAN(fen string, keys, san []string) (int, error) {
	ref, err := ReferenceSAN(fen, keys)
	if err != nil {
		return len(ref), err
	}
	for i := range ref {
		if i >= len(san) || san[i] != ref[i] {
			return i, nil
		}
	}
	if len(san) > len(ref) {
		return len(ref), nil
	}
	return -1, nil
}
