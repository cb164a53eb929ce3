package notation

import (
	"puzzlechess/internal/rules"
)

// ResolveSequence resolves the tokens of movetext one by one from start,
// applying each move before resolving the next. It stops at the first
// result marker and fails on the first token that does not resolve.
func ResolveSequence(movetext string, start rules.Position) ([]string, rules.Position, error) {
	pos := start
	var keys []string
	for _, tok := range Tokenize(movetext) {
		if IsTerminator(tok) {
			break
		}
		m, err := Resolve(pos, tok)
		if err != nil {
			return nil, start, err
		}
		keys = append(keys, m.Key())
		pos.Apply(m)
	}
	if len(keys) == 0 {
		return nil, start, ErrEmptySolution
	}
	return keys, pos, nil
}

// ResolveKeys decodes a list of canonical keys from start, checking each
// against the legality gate. It returns the moves that resolved before the
// first illegal or malformed key, together with that key's error.
func ResolveKeys(start rules.Position, keys []string) ([]rules.Move, error) {
	pos := start
	out := make([]rules.Move, 0, len(keys))
	for _, k := range keys {
		m, err := rules.ParseMoveKey(k)
		if err != nil {
			return out, err
		}
		if err := pos.Play(m); err != nil {
			return out, &ResolutionError{Token: k, Err: err}
		}
		out = append(out, m)
	}
	return out, nil
}
