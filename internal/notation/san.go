package notation

import (
	"strings"

	"puzzlechess/internal/rules"
)

// SAN renders m, which must be legal in pos, in standard algebraic notation.
func SAN(pos rules.Position, m rules.Move) string {
	p := pos.Board.At(m.From)
	var sb strings.Builder
	switch {
	case rules.IsCastling(p, m.From, m.To):
		if m.To.Col > m.From.Col {
			sb.WriteString("O-O")
		} else {
			sb.WriteString("O-O-O")
		}
	case p.Kind == rules.Pawn:
		capture := m.From.Col != m.To.Col
		if capture {
			sb.WriteByte(byte('a' + m.From.Col))
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.Promotion != rules.NoKind {
			sb.WriteByte('=')
			sb.WriteByte(m.Promotion.Letter() - ('a' - 'A'))
		}
	default:
		sb.WriteByte(p.Kind.Letter() - ('a' - 'A'))
		sb.WriteString(disambiguation(pos, p, m))
		if !pos.Board.At(m.To).Empty() {
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
	}

	next := pos
	next.Apply(m)
	switch rules.StatusOf(&next) {
	case rules.Checkmate:
		sb.WriteByte('#')
	case rules.Check:
		sb.WriteByte('+')
	}
	return sb.String()
}

// disambiguation returns the shortest origin prefix that singles out the
// moving piece among same-kind pieces able to reach the same square.
func disambiguation(pos rules.Position, p rules.Piece, m rules.Move) string {
	var rivals []rules.Square
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			from := rules.Sq(r, c)
			if from == m.From || pos.Board.At(from) != p {
				continue
			}
			if rules.IsMoveAllowed(&pos.Board, pos.Rights, from, m.To) {
				rivals = append(rivals, from)
			}
		}
	}
	if len(rivals) == 0 {
		return ""
	}
	sameFile, sameRank := false, false
	for _, s := range rivals {
		if s.Col == m.From.Col {
			sameFile = true
		}
		if s.Row == m.From.Row {
			sameRank = true
		}
	}
	sq := m.From.String()
	switch {
	case !sameFile:
		return sq[:1]
	case !sameRank:
		return sq[1:]
	}
	return sq
}

// SANLine renders a sequence of legal moves from start.
func SANLine(start rules.Position, moves []rules.Move) []string {
	pos := start
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, SAN(pos, m))
		pos.Apply(m)
	}
	return out
}
