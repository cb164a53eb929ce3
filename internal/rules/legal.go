package rules

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// IsPathClear reports whether every square strictly between from and to is
// empty. from and to must share a rank, file or diagonal.
func IsPathClear(b *Board, from, to Square) bool {
	dr, dc := sign(to.Row-from.Row), sign(to.Col-from.Col)
	r, c := from.Row+dr, from.Col+dc
	for r != to.Row || c != to.Col {
		if !b[r][c].Empty() {
			return false
		}
		r += dr
		c += dc
	}
	return true
}

func pawnDir(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

func pawnStartRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

func isPawnMove(b *Board, p Piece, from, to Square) bool {
	dir := pawnDir(p.Color)
	target := b.At(to)
	if from.Col == to.Col && target.Empty() {
		if to.Row == from.Row+dir {
			return true
		}
		if from.Row == pawnStartRow(p.Color) && to.Row == from.Row+2*dir {
			return b[from.Row+dir][from.Col].Empty()
		}
		return false
	}
	return abs(to.Col-from.Col) == 1 && to.Row == from.Row+dir &&
		!target.Empty() && target.Color != p.Color
}

func isKnightMove(from, to Square) bool {
	return abs(to.Row-from.Row)*abs(to.Col-from.Col) == 2
}

func isBishopMove(b *Board, from, to Square) bool {
	if abs(to.Row-from.Row) != abs(to.Col-from.Col) {
		return false
	}
	return IsPathClear(b, from, to)
}

func isRookMove(b *Board, from, to Square) bool {
	if from.Row != to.Row && from.Col != to.Col {
		return false
	}
	return IsPathClear(b, from, to)
}

func isQueenMove(b *Board, from, to Square) bool {
	return isRookMove(b, from, to) || isBishopMove(b, from, to)
}

func isKingMove(b *Board, rights Rights, p Piece, from, to Square, allowCastling bool) bool {
	dr, dc := abs(to.Row-from.Row), abs(to.Col-from.Col)
	if dr <= 1 && dc <= 1 {
		return true
	}
	if !allowCastling || dr != 0 || dc != 2 {
		return false
	}
	if from != Sq(homeRow(p.Color), 4) {
		return false
	}
	return CanCastle(b, rights, p.Color, to.Col > from.Col)
}

// IsLegalMove reports whether moving the piece on from to to has a valid
// shape for that piece on b. It ignores whether the mover's king is left in
// check. allowCastling=false disables the two-file king hop.
func IsLegalMove(b *Board, rights Rights, from, to Square, allowCastling bool) bool {
	if from == to || !from.OnBoard() || !to.OnBoard() {
		return false
	}
	p := b.At(from)
	if p.Empty() {
		return false
	}
	if t := b.At(to); !t.Empty() && t.Color == p.Color {
		return false
	}
	switch p.Kind {
	case Pawn:
		return isPawnMove(b, p, from, to)
	case Knight:
		return isKnightMove(from, to)
	case Bishop:
		return isBishopMove(b, from, to)
	case Rook:
		return isRookMove(b, from, to)
	case Queen:
		return isQueenMove(b, from, to)
	case King:
		return isKingMove(b, rights, p, from, to, allowCastling)
	}
	return false
}

// attacks reports whether the piece on from could capture an enemy piece
// standing on to. The occupant of to is not consulted.
func attacks(b *Board, from, to Square) bool {
	if from == to {
		return false
	}
	p := b.At(from)
	switch p.Kind {
	case Pawn:
		return to.Row == from.Row+pawnDir(p.Color) && abs(to.Col-from.Col) == 1
	case Knight:
		return isKnightMove(from, to)
	case Bishop:
		return isBishopMove(b, from, to)
	case Rook:
		return isRookMove(b, from, to)
	case Queen:
		return isQueenMove(b, from, to)
	case King:
		return abs(to.Row-from.Row) <= 1 && abs(to.Col-from.Col) <= 1
	}
	return false
}

// IsSquareAttacked reports whether any piece of attacker could capture on
// target, castling excluded. Pawns attack diagonally whether or not target
// is occupied, and pawn pushes never attack, so this is not the same as
// asking whether a legal move lands on target.
func IsSquareAttacked(b *Board, target Square, attacker Color) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b[r][c]
			if p.Empty() || p.Color != attacker {
				continue
			}
			if attacks(b, Sq(r, c), target) {
				return true
			}
		}
	}
	return false
}

// KingSquare returns the square of c's king.
func KingSquare(b *Board, c Color) (Square, bool) {
	king := Piece{Kind: King, Color: c}
	for r := 0; r < 8; r++ {
		for col := 0; col < 8; col++ {
			if b[r][col] == king {
				return Sq(r, col), true
			}
		}
	}
	return Square{}, false
}

// IsKingInCheck reports whether c's king is attacked. A board without that
// king is never in check.
func IsKingInCheck(b *Board, c Color) bool {
	sq, ok := KingSquare(b, c)
	if !ok {
		return false
	}
	return IsSquareAttacked(b, sq, c.Other())
}

// CanCastle reports whether c may castle now on the given side.
func CanCastle(b *Board, rights Rights, c Color, kingside bool) bool {
	if kingside && !rights[c].King || !kingside && !rights[c].Queen {
		return false
	}
	row := homeRow(c)
	kingSq := Sq(row, 4)
	rookSq := Sq(row, 0)
	through := [2]int{3, 2}
	if kingside {
		rookSq = Sq(row, 7)
		through = [2]int{5, 6}
	}
	if b.At(kingSq) != (Piece{Kind: King, Color: c}) || b.At(rookSq) != (Piece{Kind: Rook, Color: c}) {
		return false
	}
	if !IsPathClear(b, kingSq, rookSq) {
		return false
	}
	opp := c.Other()
	if IsSquareAttacked(b, kingSq, opp) {
		return false
	}
	for _, col := range through {
		if IsSquareAttacked(b, Sq(row, col), opp) {
			return false
		}
	}
	return true
}

// IsCastling reports whether moving p from from to to is a castling hop.
func IsCastling(p Piece, from, to Square) bool {
	return p.Kind == King && from.Row == to.Row && abs(to.Col-from.Col) == 2
}

// MoveLeavesKingInCheck simulates the move on a copy of b and reports
// whether the mover's king is attacked afterwards.
func MoveLeavesKingInCheck(b *Board, rights Rights, from, to Square) bool {
	p := b.At(from)
	if p.Empty() {
		return false
	}
	next := *b
	placePieces(&next, p, from, to, NoKind)
	return IsKingInCheck(&next, p.Color)
}

// IsMoveAllowed is the legality gate: a valid piece move that does not
// leave the mover's own king in check.
func IsMoveAllowed(b *Board, rights Rights, from, to Square) bool {
	if !IsLegalMove(b, rights, from, to, true) {
		return false
	}
	return !MoveLeavesKingInCheck(b, rights, from, to)
}

// Target is a legal destination of a piece.
type Target struct {
	To      Square
	Capture bool
}

// LegalMovesForPiece lists the allowed destinations of the piece on from,
// provided it belongs to c.
func LegalMovesForPiece(b *Board, rights Rights, from Square, c Color) []Target {
	p := b.At(from)
	if p.Empty() || p.Color != c {
		return nil
	}
	var out []Target
	for r := 0; r < 8; r++ {
		for col := 0; col < 8; col++ {
			to := Sq(r, col)
			if !IsMoveAllowed(b, rights, from, to) {
				continue
			}
			t := b.At(to)
			out = append(out, Target{To: to, Capture: !t.Empty() && t.Color != c})
		}
	}
	return out
}

// HasLegalMoves reports whether c has at least one allowed move.
func HasLegalMoves(b *Board, rights Rights, c Color) bool {
	for r := 0; r < 8; r++ {
		for col := 0; col < 8; col++ {
			p := b[r][col]
			if p.Empty() || p.Color != c {
				continue
			}
			if len(LegalMovesForPiece(b, rights, Sq(r, col), c)) > 0 {
				return true
			}
		}
	}
	return false
}

// Status classifies a position for the side to move.
type Status uint8

const (
	Ongoing Status = iota
	Check
	Checkmate
	Stalemate
)

func (s Status) String() string {
	switch s {
	case Check:
		return "check"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	}
	return "ongoing"
}

// StatusOf reports check, checkmate or stalemate for the side to move.
func StatusOf(p *Position) Status {
	inCheck := IsKingInCheck(&p.Board, p.Turn)
	hasMoves := HasLegalMoves(&p.Board, p.Rights, p.Turn)
	switch {
	case inCheck && !hasMoves:
		return Checkmate
	case !hasMoves:
		return Stalemate
	case inCheck:
		return Check
	}
	return Ongoing
}

// LegalMoves enumerates every allowed move for the side to move. Pawn moves
// to the last rank are expanded into the four promotions.
func (p *Position) LegalMoves() []Move {
	var out []Move
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			from := Sq(r, c)
			pc := p.Board.At(from)
			for _, t := range LegalMovesForPiece(&p.Board, p.Rights, from, p.Turn) {
				if NeedsPromotion(pc, t.To) {
					for _, k := range []Kind{Queen, Rook, Bishop, Knight} {
						out = append(out, Move{From: from, To: t.To, Promotion: k})
					}
					continue
				}
				out = append(out, Move{From: from, To: t.To})
			}
		}
	}
	return out
}
