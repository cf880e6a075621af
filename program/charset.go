package program

import (
	"github.com/coregx/corgex/internal/chartype"
	"github.com/coregx/corgex/internal/conv"
	"github.com/coregx/corgex/syntax"
)

// csItem is one serialised charset member: an item opcode plus its fixed
// operand words. Charset members carry no labels, so they serialise the
// same way inside an IN block and inside an INFO prelude.
type csItem struct {
	op   Code
	args []Code
}

// csWords returns the flat encoding of an item list with the FAILURE
// terminator, as embedded in an INFO block.
func csWords(items []csItem) []Code {
	var w []Code
	for _, item := range items {
		w = append(w, item.op)
		w = append(w, item.args...)
	}
	return append(w, OpFailure)
}

func csSize(items []csItem) int {
	n := 0
	for _, item := range items {
		n += 1 + len(item.args)
	}
	return n
}

// singleLiteral recognises the classes that collapse to a plain literal
// test: [c] and [^c].
func singleLiteral(items []csItem) (r rune, negate bool, ok bool) {
	switch {
	case len(items) == 1 && items[0].op == OpLiteral:
		return rune(items[0].args[0]), false, true
	case len(items) == 2 && items[0].op == OpNegate && items[1].op == OpLiteral:
		return rune(items[1].args[0]), true, true
	}
	return 0, false, false
}

// optimizeCharset turns the item list of an In node into serialised charset
// members, choosing between raw LITERAL/RANGE/CATEGORY items, a CHARSET
// bitmap (code points below 256) and a BIGCHARSET block table (below
// 65536), whichever is smallest. Under ignore-case, literal members and
// range endpoints are case-folded; the matcher folds the subject code point
// before consulting the set.
func optimizeCharset(set *syntax.Node, ignore bool) ([]csItem, error) {
	var (
		items      []csItem
		negate     bool
		literals   []rune
		ranges     [][2]rune
		categories []Code
	)
	for n := set; n != nil; n = n.Next {
		switch n.Type {
		case syntax.NodeNegate:
			negate = true
		case syntax.NodeLiteral:
			c := n.C
			if ignore {
				c = chartype.ToLower(c)
			}
			literals = append(literals, c)
		case syntax.NodeRange:
			lo, hi := n.C, n.Hi
			if ignore {
				lo, hi = chartype.ToLower(lo), chartype.ToLower(hi)
			}
			ranges = append(ranges, [2]rune{lo, hi})
		case syntax.NodeCategory:
			categories = append(categories, n.Code)
		default:
			return nil, ErrInvalidNode
		}
	}

	if negate {
		items = append(items, csItem{op: OpNegate})
	}

	raw := func() []csItem {
		out := items
		for _, c := range literals {
			out = append(out, csItem{op: OpLiteral, args: []Code{conv.RuneToWord(c)}})
		}
		for _, r := range ranges {
			out = append(out, csItem{op: OpRange, args: []Code{conv.RuneToWord(r[0]), conv.RuneToWord(r[1])}})
		}
		for _, cat := range categories {
			out = append(out, csItem{op: OpCategory, args: []Code{cat}})
		}
		return out
	}

	// Categories cannot be folded into a bitmap.
	if len(categories) > 0 {
		return raw(), nil
	}

	maxCP := rune(0)
	for _, c := range literals {
		if c > maxCP {
			maxCP = c
		}
	}
	for _, r := range ranges {
		if r[1] > maxCP {
			maxCP = r[1]
		}
	}

	rawItems := raw()
	rawCost := csSize(rawItems)

	if maxCP < 256 {
		// CHARSET costs opcode + 8 bitmap words.
		if rawCost <= 9 {
			return rawItems, nil
		}
		var bitmap [8]Code
		setBit := func(c rune) {
			bitmap[c>>5] |= 1 << (uint(c) & 31)
		}
		for _, c := range literals {
			setBit(c)
		}
		for _, r := range ranges {
			for c := r[0]; c <= r[1]; c++ {
				setBit(c)
			}
		}
		return append(items, csItem{op: OpCharset, args: bitmap[:]}), nil
	}

	if maxCP < 65536 {
		if big, cost := bigCharset(literals, ranges); cost < rawCost {
			return append(items, big), nil
		}
	}
	return rawItems, nil
}

// bigCharset builds a BIGCHARSET item: a block count, 256 byte-sized block
// indices packed four per word (little-endian), and one 8-word 256-bit
// bitmap per distinct block. Block index 0 is reserved for the shared
// all-zero block so that sparse sets stay small.
func bigCharset(literals []rune, ranges [][2]rune) (csItem, int) {
	blockOf := [256]int{} // high byte -> block number, 0 = empty block
	var blocks [][8]Code
	blocks = append(blocks, [8]Code{}) // shared empty block

	setBit := func(c rune) {
		hi := int(c >> 8)
		if blockOf[hi] == 0 {
			blocks = append(blocks, [8]Code{})
			blockOf[hi] = len(blocks) - 1
		}
		b := &blocks[blockOf[hi]]
		lo := c & 255
		b[lo>>5] |= 1 << (uint(lo) & 31)
	}
	for _, c := range literals {
		setBit(c)
	}
	for _, r := range ranges {
		for c := r[0]; c <= r[1]; c++ {
			setBit(c)
		}
	}

	args := make([]Code, 0, 1+64+len(blocks)*8)
	args = append(args, conv.IntToWord(len(blocks)))
	for w := 0; w < 64; w++ {
		var word Code
		for b := 0; b < 4; b++ {
			word |= Code(blockOf[w*4+b]) << (8 * uint(b))
		}
		args = append(args, word)
	}
	for _, b := range blocks {
		args = append(args, b[:]...)
	}
	return csItem{op: OpBigcharset, args: args}, 1 + len(args)
}
