package rules

import (
	"fmt"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// EmptyFEN is an empty board, white to move, no rights.
const EmptyFEN = "8/8/8/8/8/8/8/8 w - - 0 1"

// FormatError reports malformed position text.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("bad position %q: %s", e.Input, e.Reason)
}

// ParsePlacement decodes the placement field of a FEN string.
func ParsePlacement(text string) (Board, error) {
	var b Board
	field := text
	if i := strings.IndexAny(field, " \t"); i >= 0 {
		field = field[:i]
	}
	rows := strings.Split(field, "/")
	if len(rows) != 8 {
		return b, &FormatError{Input: text, Reason: fmt.Sprintf("%d ranks, want 8", len(rows))}
	}
	for r, row := range rows {
		col := 0
		for i := 0; i < len(row); i++ {
			ch := row[i]
			if ch >= '1' && ch <= '8' {
				col += int(ch - '0')
				continue
			}
			p, ok := PieceFromLetter(ch)
			if !ok {
				return b, &FormatError{Input: text, Reason: fmt.Sprintf("unknown piece %q", ch)}
			}
			if col < 8 {
				b[r][col] = p
			}
			col++
		}
		if col != 8 {
			return b, &FormatError{Input: text, Reason: fmt.Sprintf("rank %d has %d cells", 8-r, col)}
		}
	}
	return b, nil
}

// EncodePlacement run-length encodes the board as a FEN placement field.
func EncodePlacement(b Board) string {
	var sb strings.Builder
	for r := 0; r < 8; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for c := 0; c < 8; c++ {
			p := b[r][c]
			if p.Empty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	return sb.String()
}

// ParsePosition decodes placement, active color and castling fields. Any
// active color other than "b" means white; unknown castling characters are
// ignored and a missing field means no rights.
func ParsePosition(text string) (Position, error) {
	var p Position
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return p, &FormatError{Input: text, Reason: "empty"}
	}
	b, err := ParsePlacement(fields[0])
	if err != nil {
		return p, err
	}
	p.Board = b
	if len(fields) > 1 && fields[1] == "b" {
		p.Turn = Black
	}
	if len(fields) > 2 {
		p.Rights = parseCastling(fields[2])
	}
	return p, nil
}

func parseCastling(field string) Rights {
	var r Rights
	if field == "-" {
		return r
	}
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case 'K':
			r[White].King = true
		case 'Q':
			r[White].Queen = true
		case 'k':
			r[Black].King = true
		case 'q':
			r[Black].Queen = true
		}
	}
	return r
}

// CastlingField returns the FEN castling field, "-" when no rights remain.
func (r Rights) CastlingField() string {
	var sb strings.Builder
	if r[White].King {
		sb.WriteByte('K')
	}
	if r[White].Queen {
		sb.WriteByte('Q')
	}
	if r[Black].King {
		sb.WriteByte('k')
	}
	if r[Black].Queen {
		sb.WriteByte('q')
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

// EncodePosition renders p as a FEN string. En passant, halfmove and
// fullmove fields are not tracked and are always "- 0 1".
func EncodePosition(p Position) string {
	return EncodePlacement(p.Board) + " " + p.Turn.String() + " " + p.Rights.CastlingField() + " - 0 1"
}

func (p Position) String() string { return EncodePosition(p) }

// MustParsePosition is ParsePosition for known-good constants. It panics on error.
func MustParsePosition(text string) Position {
	p, err := ParsePosition(text)
	if err != nil {
		panic(err)
	}
	return p
}
