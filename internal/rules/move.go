package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalMove is returned when a move fails the legality gate.
	ErrIllegalMove = errors.New("illegal move")
	// ErrPromotionRequired is returned when a pawn reaches the last rank
	// without a promotion piece.
	ErrPromotionRequired = errors.New("promotion piece required")
	// ErrBadMoveKey is returned for text that is not a canonical move key.
	ErrBadMoveKey = errors.New("bad move key")
)

// Move is a from/to pair with an optional promotion kind.
type Move struct {
	From, To  Square
	Promotion Kind
}

// Key returns the canonical move key, e.g. "e2e4" or "e7e8q".
func (m Move) Key() string {
	k := m.From.String() + m.To.String()
	if l := m.Promotion.Letter(); l != 0 {
		k += string(l)
	}
	return k
}

func (m Move) String() string { return m.Key() }

// ParseMoveKey decodes a 4 or 5 character move key. The promotion letter
// may be either case but must be one of n, b, r, q.
func ParseMoveKey(key string) (Move, error) {
	if len(key) != 4 && len(key) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrBadMoveKey, key)
	}
	from, ok1 := ParseSquare(key[0:2])
	to, ok2 := ParseSquare(key[2:4])
	if !ok1 || !ok2 {
		return Move{}, fmt.Errorf("%w: %q", ErrBadMoveKey, key)
	}
	m := Move{From: from, To: to}
	if len(key) == 5 {
		k, ok := KindFromLetter(key[4])
		if !ok || k == Pawn || k == King {
			return Move{}, fmt.Errorf("%w: %q", ErrBadMoveKey, key)
		}
		m.Promotion = k
	}
	return m, nil
}

// NeedsPromotion reports whether p arriving on to must promote.
func NeedsPromotion(p Piece, to Square) bool {
	if p.Kind != Pawn {
		return false
	}
	return p.Color == White && to.Row == 0 || p.Color == Black && to.Row == 7
}

// placePieces moves p from from to to on b, relocating the rook when the
// move is a castling hop and substituting promo when given.
func placePieces(b *Board, p Piece, from, to Square, promo Kind) {
	if IsCastling(p, from, to) {
		rookFrom, rookTo := Sq(from.Row, 0), Sq(from.Row, 3)
		if to.Col > from.Col {
			rookFrom, rookTo = Sq(from.Row, 7), Sq(from.Row, 5)
		}
		b.Set(from, NoPiece)
		b.Set(to, p)
		b.Set(rookFrom, NoPiece)
		b.Set(rookTo, Piece{Kind: Rook, Color: p.Color})
		return
	}
	if promo != NoKind {
		p = Piece{Kind: promo, Color: p.Color}
	}
	b.Set(from, NoPiece)
	b.Set(to, p)
}

// updateRights revokes castling rights touched by moving p from from to to.
// It must run before the board is updated so the captured occupant is seen.
func (pos *Position) updateRights(p Piece, from, to Square) {
	switch p.Kind {
	case King:
		pos.Rights[p.Color] = Side{}
	case Rook:
		revokeCorner(&pos.Rights, p.Color, from)
	}
	if t := pos.Board.At(to); t.Kind == Rook {
		revokeCorner(&pos.Rights, t.Color, to)
	}
}

func revokeCorner(r *Rights, c Color, s Square) {
	if s.Row != homeRow(c) {
		return
	}
	switch s.Col {
	case 0:
		r[c].Queen = false
	case 7:
		r[c].King = false
	}
}

// Apply plays m without any legality check and flips the side to move.
// Callers validate first; see Play.
func (pos *Position) Apply(m Move) {
	p := pos.Board.At(m.From)
	if p.Empty() {
		pos.Turn = pos.Turn.Other()
		return
	}
	pos.updateRights(p, m.From, m.To)
	placePieces(&pos.Board, p, m.From, m.To, m.Promotion)
	pos.Turn = pos.Turn.Other()
}

// Check validates m for the side to move without applying it.
func (pos *Position) Check(m Move) error {
	p := pos.Board.At(m.From)
	if p.Empty() || p.Color != pos.Turn {
		return ErrIllegalMove
	}
	if !IsMoveAllowed(&pos.Board, pos.Rights, m.From, m.To) {
		return ErrIllegalMove
	}
	if NeedsPromotion(p, m.To) {
		if m.Promotion == NoKind {
			return ErrPromotionRequired
		}
	} else if m.Promotion != NoKind {
		return ErrIllegalMove
	}
	return nil
}

// Play validates m for the side to move and applies it. On error the
// position is unchanged.
func (pos *Position) Play(m Move) error {
	if err := pos.Check(m); err != nil {
		return err
	}
	pos.Apply(m)
	return nil
}
