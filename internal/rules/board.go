// Package rules implements the chess rules used to verify puzzles: board
// representation, move legality (castling and promotion included), check,
// checkmate and stalemate detection, and move application.
//
// Everything here is a pure function over value types. A Position copy is a
// fully independent clone, so simulations never alias the live position.
package rules

import "fmt"

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// String returns "w" or "b".
func (c Color) String() string {
	if c == Black {
		return "b"
	}
	return "w"
}

// Kind is the type of a piece. The zero Kind means no piece.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = [...]byte{NoKind: 0, Pawn: 'p', Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q', King: 'k'}

// Letter returns the lowercase letter for k, or 0 for NoKind.
func (k Kind) Letter() byte {
	if int(k) >= len(kindLetters) {
		return 0
	}
	return kindLetters[k]
}

// KindFromLetter maps a piece letter of either case to its Kind.
func KindFromLetter(b byte) (Kind, bool) {
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	for k, l := range kindLetters {
		if l != 0 && l == b {
			return Kind(k), true
		}
	}
	return NoKind, false
}

// Piece is a colored piece. The zero Piece is an empty cell.
type Piece struct {
	Kind  Kind
	Color Color
}

// NoPiece is the empty cell.
var NoPiece = Piece{}

// Empty reports whether p is the empty cell.
func (p Piece) Empty() bool { return p.Kind == NoKind }

// Letter returns the FEN letter: uppercase for white, lowercase for black.
func (p Piece) Letter() byte {
	l := p.Kind.Letter()
	if l != 0 && p.Color == White {
		l -= 'a' - 'A'
	}
	return l
}

func (p Piece) String() string {
	if p.Empty() {
		return "."
	}
	return string(p.Letter())
}

// PieceFromLetter decodes a FEN piece letter; case selects the color.
func PieceFromLetter(b byte) (Piece, bool) {
	k, ok := KindFromLetter(b)
	if !ok {
		return NoPiece, false
	}
	c := Black
	if b >= 'A' && b <= 'Z' {
		c = White
	}
	return Piece{Kind: k, Color: c}, true
}

// Square addresses a board cell. Row 0 is rank 8, Col 0 is file a.
type Square struct {
	Row, Col int
}

// Sq builds a Square from row and column.
func Sq(row, col int) Square { return Square{Row: row, Col: col} }

// OnBoard reports whether s lies inside the 8x8 grid.
func (s Square) OnBoard() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

// String returns coordinate notation such as "e4".
func (s Square) String() string {
	if !s.OnBoard() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return string([]byte{byte('a' + s.Col), byte('8' - s.Row)})
}

// ParseSquare parses coordinate notation such as "e4".
func ParseSquare(s string) (Square, bool) {
	if len(s) != 2 {
		return Square{}, false
	}
	f, r := s[0], s[1]
	if f < 'a' || f > 'h' || r < '1' || r > '8' {
		return Square{}, false
	}
	return Square{Row: int('8' - r), Col: int(f - 'a')}, true
}

// Board is the 8x8 grid of pieces. It is a value type; assignment copies it.
type Board [8][8]Piece

// At returns the piece on s, or NoPiece for off-board squares.
func (b *Board) At(s Square) Piece {
	if !s.OnBoard() {
		return NoPiece
	}
	return b[s.Row][s.Col]
}

// Set places p on s.
func (b *Board) Set(s Square, p Piece) {
	b[s.Row][s.Col] = p
}

// HasPieces reports whether any cell is occupied.
func (b *Board) HasPieces() bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if !b[r][c].Empty() {
				return true
			}
		}
	}
	return false
}

// Side holds the castling rights of one color.
type Side struct {
	King, Queen bool
}

// Rights holds castling rights indexed by Color. Rights are only ever revoked.
type Rights [2]Side

// Any reports whether any right is still held.
func (r Rights) Any() bool {
	return r[White].King || r[White].Queen || r[Black].King || r[Black].Queen
}

// Position is a board plus side to move plus castling rights.
type Position struct {
	Board  Board
	Turn   Color
	Rights Rights
}

// homeRow is the back rank row of c.
func homeRow(c Color) int {
	if c == White {
		return 7
	}
	return 0
}
