package notation

import (
	"errors"
	"fmt"
	"strings"

	"puzzlechess/internal/rules"
)

var (
	ErrEmptyToken    = errors.New("empty move token")
	ErrTerminator    = errors.New("result reached before the solution ended")
	ErrCastling      = errors.New("castling not possible")
	ErrBadTarget     = errors.New("cannot read destination square")
	ErrNoCandidate   = errors.New("no legal move matches")
	ErrAmbiguous     = errors.New("move is ambiguous")
	ErrEmptySolution = errors.New("movetext contains no solution moves")
)

// ResolutionError reports a token that does not map to exactly one legal move.
type ResolutionError struct {
	Token string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Token, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func fail(token string, err error) error {
	return &ResolutionError{Token: token, Err: err}
}

var annotations = strings.NewReplacer("+", "", "#", "", "!", "", "?", "")

// Resolve maps one algebraic token to the single legal move it denotes in pos.
func Resolve(pos rules.Position, token string) (rules.Move, error) {
	if token == "" {
		return rules.Move{}, fail(token, ErrEmptyToken)
	}
	cleaned := annotations.Replace(token)
	if IsTerminator(cleaned) {
		return rules.Move{}, fail(token, ErrTerminator)
	}

	if c := strings.ToUpper(cleaned); c == "O-O" || c == "O-O-O" || c == "0-0" || c == "0-0-0" {
		row := 7
		if pos.Turn == rules.Black {
			row = 0
		}
		m := rules.Move{From: rules.Sq(row, 4), To: rules.Sq(row, 6)}
		if len(c) == 5 {
			m.To = rules.Sq(row, 2)
		}
		king := pos.Board.At(m.From)
		if king.Kind != rules.King || king.Color != pos.Turn || !rules.IsMoveAllowed(&pos.Board, pos.Rights, m.From, m.To) {
			return rules.Move{}, fail(token, ErrCastling)
		}
		return m, nil
	}

	promo := rules.NoKind
	base := cleaned
	if i := strings.IndexByte(base, '='); i >= 0 {
		if i+1 < len(base) {
			if k, ok := rules.KindFromLetter(base[i+1]); ok && k != rules.Pawn && k != rules.King {
				promo = k
			}
		}
		base = base[:i]
	} else if n := len(base); n >= 3 && isPromotionLetter(base[n-1]) && isRank(base[n-2]) {
		// long-hand "e8Q" without the equals sign
		promo, _ = rules.KindFromLetter(base[n-1])
		base = base[:n-1]
	}

	capture := strings.Contains(base, "x")
	kind := rules.Pawn
	rest := base
	if len(base) > 0 && strings.IndexByte("KQRBN", base[0]) >= 0 {
		kind, _ = rules.KindFromLetter(base[0])
		rest = base[1:]
	}
	rest = strings.Replace(rest, "x", "", 1)
	if len(rest) < 2 {
		return rules.Move{}, fail(token, ErrBadTarget)
	}
	target, ok := rules.ParseSquare(rest[len(rest)-2:])
	if !ok {
		return rules.Move{}, fail(token, ErrBadTarget)
	}
	disambig := rest[:len(rest)-2]

	var found []rules.Move
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			from := rules.Sq(r, c)
			p := pos.Board.At(from)
			if p.Empty() || p.Color != pos.Turn || p.Kind != kind {
				continue
			}
			if !rules.IsMoveAllowed(&pos.Board, pos.Rights, from, target) {
				continue
			}
			occupied := !pos.Board.At(target).Empty()
			if capture && !occupied {
				continue
			}
			if !capture && occupied && kind == rules.Pawn {
				continue
			}
			if !matchesDisambiguator(disambig, from) {
				continue
			}
			if rules.NeedsPromotion(p, target) && promo == rules.NoKind {
				continue
			}
			m := rules.Move{From: from, To: target}
			if rules.NeedsPromotion(p, target) {
				m.Promotion = promo
			}
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return rules.Move{}, fail(token, ErrNoCandidate)
	case 1:
		return found[0], nil
	}
	return rules.Move{}, fail(token, ErrAmbiguous)
}

func isPromotionLetter(b byte) bool { return strings.IndexByte("QRBN", b) >= 0 }

func isRank(b byte) bool { return b == '1' || b == '8' }

func matchesDisambiguator(d string, from rules.Square) bool {
	switch {
	case d == "":
		return true
	case len(d) == 2:
		sq, ok := rules.ParseSquare(d)
		return ok && sq == from
	case len(d) == 1 && d[0] >= 'a' && d[0] <= 'h':
		return int(d[0]-'a') == from.Col
	case len(d) == 1 && d[0] >= '1' && d[0] <= '8':
		return int('8'-d[0]) == from.Row
	}
	return false
}
