// Package prefilter provides fast candidate filtering for pattern search.
//
// When a pattern is an alternation of plain literal strings, scanning for
// those literals directly beats probing the matcher at every position. The
// package selects a strategy from the extracted alternatives:
//
//   - a single one-code-point literal: SWAR rune scan
//   - two or more literals: an Aho-Corasick automaton over the UTF-8
//     encoding of the alternatives
//
// A prefilter found this way is "complete": a candidate is a full match and
// needs no verification. Longer single literals are not handled here; the
// compiler's INFO prefix hint already serves them.
package prefilter

import (
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/corgex/internal/scan"
	"github.com/coregx/corgex/syntax"
)

// Prefilter finds candidate match positions in a subject.
type Prefilter interface {
	// Find returns the code-point index and length of the first
	// candidate at or after start, or (-1, 0) if there is none.
	Find(subject []rune, start int) (pos, length int)

	// IsComplete reports whether a candidate is a guaranteed match,
	// letting the caller skip verification.
	IsComplete() bool
}

// FromTree builds a prefilter for a parsed pattern, or nil when the
// pattern's shape does not support one. Case-folded matching is left
// entirely to the engine.
func FromTree(tree *syntax.Tree) Prefilter {
	if tree.Flags&syntax.FlagIgnoreCase != 0 {
		return nil
	}
	lits, ok := extractAlternatives(tree.Root)
	if !ok {
		return nil
	}
	if len(lits) == 1 {
		if len(lits[0]) == 1 {
			return &runePrefilter{needle: lits[0][0]}
		}
		return nil // the INFO prefix hint covers long single literals
	}
	return newMultiLiteral(lits)
}

// extractAlternatives recognises a pattern that is exactly an alternation
// of non-empty literal strings (or one literal string) and returns the
// alternatives.
func extractAlternatives(root *syntax.Node) ([][]rune, bool) {
	if root == nil {
		return nil, false
	}
	if root.Type != syntax.NodeBranch {
		if lit, ok := literalChain(root); ok {
			return [][]rune{lit}, true
		}
		return nil, false
	}
	if root.Next != nil {
		return nil, false
	}
	var lits [][]rune
	for alt := root; ; {
		left, ok := literalChain(alt.Left)
		if !ok {
			return nil, false
		}
		lits = append(lits, left)
		if alt.Right != nil && alt.Right.Type == syntax.NodeBranch && alt.Right.Next == nil {
			alt = alt.Right
			continue
		}
		last, ok := literalChain(alt.Right)
		if !ok {
			return nil, false
		}
		return append(lits, last), true
	}
}

func literalChain(n *syntax.Node) ([]rune, bool) {
	var lit []rune
	for ; n != nil; n = n.Next {
		if n.Type != syntax.NodeLiteral {
			return nil, false
		}
		lit = append(lit, n.C)
	}
	if len(lit) == 0 {
		return nil, false
	}
	return lit, true
}

// runePrefilter scans for a single code point.
type runePrefilter struct {
	needle rune
}

func (p *runePrefilter) Find(subject []rune, start int) (int, int) {
	pos := scan.IndexRune(subject, p.needle, start)
	if pos < 0 {
		return -1, 0
	}
	return pos, 1
}

func (p *runePrefilter) IsComplete() bool { return true }

// multiLiteral scans for any of several literals with an Aho-Corasick
// automaton. The automaton works on bytes, so each Find encodes the
// searched slice to UTF-8 and keeps a byte-to-rune offset table; that costs
// one linear pass, which the multi-pattern scan amortises.
type multiLiteral struct {
	auto *ahocorasick.Automaton
}

func newMultiLiteral(lits [][]rune) Prefilter {
	builder := ahocorasick.NewBuilder()
	for _, lit := range lits {
		for _, r := range lit {
			// Invalid subject code points encode as U+FFFD below; a
			// pattern containing it could then match spuriously.
			if r == utf8.RuneError || !utf8.ValidRune(r) {
				return nil
			}
		}
		builder.AddPattern([]byte(string(lit)))
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	return &multiLiteral{auto: auto}
}

func (p *multiLiteral) Find(subject []rune, start int) (int, int) {
	if start < 0 {
		start = 0
	}
	if start >= len(subject) {
		return -1, 0
	}
	tail := subject[start:]

	size := 0
	for _, r := range tail {
		if n := utf8.RuneLen(r); n > 0 {
			size += n
		} else {
			size += len(string(utf8.RuneError))
		}
	}
	buf := make([]byte, 0, size)
	runeAt := make([]int, size+1) // byte offset -> rune index
	for i, r := range tail {
		runeAt[len(buf)] = i
		buf = utf8.AppendRune(buf, r)
	}
	runeAt[len(buf)] = len(tail)

	m := p.auto.Find(buf, 0)
	if m == nil {
		return -1, 0
	}
	begin := runeAt[m.Start]
	end := runeAt[m.End]
	return start + begin, end - begin
}

func (p *multiLiteral) IsComplete() bool { return true }
