package program

import (
	"github.com/coregx/corgex/internal/conv"
	"github.com/coregx/corgex/syntax"
)

// maxPrefixLen bounds the literal prefix recorded in an INFO block. Longer
// prefixes stop paying for themselves: the overlap table grows while the
// scan loop's advantage stays flat.
const maxPrefixLen = 32

// emitInfo prepends the INFO optimisation block when the pattern has a
// non-zero minimum width:
//
//	INFO <skip> <flags> <min> <max> [<prefix_len> <prefix_skip> prefix…
//	overlap…| charset… FAILURE]
//
// The search driver uses the prefix (with its KMP overlap table) or the
// leading charset to skip impossible starting positions, and both match
// and search use min to reject short subjects outright.
func (c *compiler) emitInfo(tree *syntax.Tree) error {
	min, max := syntax.Width(tree.Root)
	if min == 0 {
		return nil
	}

	var flags Code
	var payload []Code

	first := tree.Root
	anchored := first != nil && first.Type == syntax.NodeAt &&
		(first.Code == syntax.AtBeginning || first.Code == syntax.AtBeginningString)

	if !anchored && !c.ignore {
		if prefix, whole := literalPrefix(first); len(prefix) >= 2 {
			flags = InfoPrefix
			if whole {
				flags |= InfoLiteral
			}
			payload = append(payload, conv.IntToWord(len(prefix)), conv.IntToWord(len(prefix)))
			for _, r := range prefix {
				payload = append(payload, conv.RuneToWord(r))
			}
			payload = append(payload, overlapTable(prefix)...)
		} else if items, ok := leadingCharset(first); ok {
			flags = InfoCharset
			payload = append(payload, csWords(items)...)
		}
	}

	i := c.alloc(kindOp)
	i.op = OpInfo
	lend := c.newLabel()
	i.dest = lend
	i.post = append([]Code{flags, conv.IntToWord(min), conv.IntToWord(max)}, payload...)
	c.place(i)
	c.place(lend)
	return nil
}

// literalPrefix collects the run of plain literal nodes the pattern starts
// with; whole reports that the run is the entire pattern.
func literalPrefix(n *syntax.Node) (prefix []rune, whole bool) {
	for ; n != nil && n.Type == syntax.NodeLiteral; n = n.Next {
		if len(prefix) == maxPrefixLen {
			return prefix, false
		}
		prefix = append(prefix, n.C)
	}
	return prefix, n == nil
}

// leadingCharset derives the INFO charset hint: the item list of a leading
// class, or the set of first literals of a leading alternation.
func leadingCharset(n *syntax.Node) ([]csItem, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Type {
	case syntax.NodeIn:
		items, err := optimizeCharset(n.Body, false)
		if err != nil || len(items) == 0 {
			return nil, false
		}
		return items, true
	case syntax.NodeBranch:
		var literals []csItem
		for _, alt := range flattenBranch(n) {
			if alt == nil || alt.Type != syntax.NodeLiteral {
				return nil, false
			}
			literals = append(literals, csItem{op: OpLiteral, args: []Code{conv.RuneToWord(alt.C)}})
		}
		return literals, true
	}
	return nil, false
}

// overlapTable computes the KMP failure function of the prefix, in the
// shifted layout the search driver expects: the driver reads entry i at
// prefix_start + prefix_len − 1 + i for i in [1, prefix_len].
func overlapTable(prefix []rune) []Code {
	table := make([]Code, len(prefix))
	for i := 1; i < len(prefix); i++ {
		idx := table[i-1]
		for idx > 0 && prefix[i] != prefix[idx] {
			idx = table[idx-1]
		}
		if prefix[i] == prefix[idx] {
			idx++
		} else {
			idx = 0
		}
		table[i] = idx
	}
	return table
}
