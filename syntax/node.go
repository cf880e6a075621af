// Package syntax parses regular-expression patterns into node trees.
//
// The input is a slice of code points (UTF-32); the output is an
// arena-allocated tree of Nodes threaded by Next links for concatenation.
// The parser is a small hand-written recursive-descent machine; all
// heavy lifting (instruction selection, charset optimisation, prefix
// analysis) happens later, in the program package.
package syntax

import "github.com/coregx/corgex/internal/arena"

// NodeType discriminates the Node union.
type NodeType uint8

const (
	// NodeBranch is an alternation. Left is the first alternative,
	// Right the rest (right-nested for n-ary alternations; Right may
	// itself be a NodeBranch).
	NodeBranch NodeType = iota

	// NodeCategory matches one code point in a character category.
	// Code holds a chartype category sub-code.
	NodeCategory

	// NodeIn matches one code point against the item list in Body
	// (literals, ranges, categories, with an optional leading
	// NodeNegate).
	NodeIn

	// NodeLiteral matches the single code point C.
	NodeLiteral

	// NodeMaxRepeat is a greedy repetition of Body, Min..Max times.
	// Max == MaxUnbounded means no upper bound.
	NodeMaxRepeat

	// NodeMinRepeat is the lazy variant of NodeMaxRepeat.
	NodeMinRepeat

	// NodeNegate flips the polarity of the enclosing NodeIn.
	NodeNegate

	// NodeRange matches one code point in [C, Hi].
	NodeRange

	// NodeAny matches one code point; unless All is set it rejects
	// linebreaks.
	NodeAny

	// NodeAt is a zero-width position assertion; Code holds an AT
	// sub-code.
	NodeAt

	// NodeGroup wraps a sub-pattern. Num is the capturing group
	// number (1-based), or 0 for a non-capturing group.
	NodeGroup

	// NodeGroupref matches the text captured by group Num again.
	NodeGroupref

	// NodeGrouprefExists is a conditional: if group Num participated
	// in the match, Left applies, otherwise Right (which may be nil).
	NodeGrouprefExists

	// NodeAssert is a lookaround. Body must match (or must not, when
	// Neg is set) at the current position; Behind makes it a
	// lookbehind, whose body is matched ending at the current position
	// (lowering derives the distance from the body's fixed width).
	NodeAssert
)

// MaxUnbounded is the repetition sentinel meaning "no upper bound".
// The value is part of the binary contract of compiled programs.
const MaxUnbounded = 65535

// MaxWidthCap bounds computed pattern widths; beyond it the width is
// reported as MaxUnbounded.
const MaxWidthCap = MaxUnbounded

// Node is one vertex of a parsed pattern. Fields are shared across node
// types; see the NodeType constants for which fields each type uses.
// Nodes are arena-allocated and die with the Tree that owns them.
type Node struct {
	Type NodeType
	Next *Node // concatenation sibling

	C    rune   // literal code point / range low bound
	Hi   rune   // range high bound
	Code uint32 // category or AT sub-code
	Min  int    // repetition bounds
	Max  int
	Num  int // group number (NodeGroup, NodeGroupref, NodeGrouprefExists)

	Left  *Node // branch first alternative / conditional yes-branch
	Right *Node // branch rest / conditional no-branch
	Body  *Node // repeat body, group body, assertion body, In item list

	All    bool // NodeAny: match linebreaks too
	Neg    bool // NodeAssert: negative assertion
	Behind bool // NodeAssert: lookbehind
}

// Tree is the result of parsing one pattern.
type Tree struct {
	Root   *Node
	Groups int            // number of capturing groups
	Names  map[string]int // named group -> group number
	Flags  Flags

	arena *arena.Arena[Node]
}

// GroupIndex returns the number of the named capturing group.
func (t *Tree) GroupIndex(name string) (int, bool) {
	n, ok := t.Names[name]
	return n, ok
}

// Width returns the minimum and maximum number of code points a node chain
// can consume, both capped at MaxWidthCap. A nil chain has width zero.
func Width(n *Node) (min, max int) {
	for ; n != nil; n = n.Next {
		lo, hi := nodeWidth(n)
		min = capWidth(min + lo)
		max = capWidth(max + hi)
	}
	return min, max
}

func nodeWidth(n *Node) (int, int) {
	switch n.Type {
	case NodeLiteral, NodeRange, NodeCategory, NodeIn, NodeAny:
		return 1, 1
	case NodeAt, NodeAssert, NodeNegate:
		return 0, 0
	case NodeBranch:
		lmin, lmax := Width(n.Left)
		rmin, rmax := Width(n.Right)
		if rmin < lmin {
			lmin = rmin
		}
		if lmax < rmax {
			lmax = rmax
		}
		return lmin, lmax
	case NodeMaxRepeat, NodeMinRepeat:
		bmin, bmax := Width(n.Body)
		lo := capWidth(bmin * n.Min)
		if n.Max == MaxUnbounded && bmax > 0 {
			return lo, MaxWidthCap
		}
		return lo, capWidth(bmax * n.Max)
	case NodeGroup:
		return Width(n.Body)
	case NodeGroupref:
		// The captured length is unknown until run time.
		return 0, MaxWidthCap
	case NodeGrouprefExists:
		ymin, ymax := Width(n.Left)
		nmin, nmax := Width(n.Right)
		if nmin < ymin {
			ymin = nmin
		}
		if ymax < nmax {
			ymax = nmax
		}
		return ymin, ymax
	}
	return 0, 0
}

func capWidth(w int) int {
	if w > MaxWidthCap {
		return MaxWidthCap
	}
	return w
}
