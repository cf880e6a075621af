package program

import (
	"errors"

	"github.com/coregx/corgex/internal/arena"
	"github.com/coregx/corgex/internal/chartype"
	"github.com/coregx/corgex/internal/conv"
	"github.com/coregx/corgex/syntax"
)

// ErrInvalidNode indicates lowering met a node it has no translation for.
// Seeing it means the parser and the compiler disagree about the node set.
var ErrInvalidNode = errors.New("invalid node")

// ErrVariableLookbehind indicates a lookbehind whose body does not have a
// fixed width.
var ErrVariableLookbehind = errors.New("look-behind requires fixed-width pattern")

type instKind uint8

const (
	// kindOp is a real instruction: opcode word, then pre operands,
	// then an optional label-resolved distance word, then post operands.
	kindOp instKind = iota

	// kindLabel marks a position; it occupies no words.
	kindLabel

	// kindOffset is the bare distance word heading a branch alternative.
	kindOffset
)

// inst is one pseudo-instruction in the pre-serialisation list.
type inst struct {
	kind instKind
	op   Code
	pre  []Code // operand words before the distance word
	dest *inst  // label this instruction's distance word points at
	post []Code // operand words after the distance word
	pos  int
	next *inst
}

func (i *inst) size() int {
	switch i.kind {
	case kindLabel:
		return 0
	case kindOffset:
		return 1
	}
	n := 1 + len(i.pre) + len(i.post)
	if i.dest != nil {
		n++
	}
	return n
}

// compiler builds the instruction list for one pattern. Instructions are
// arena-allocated and die when compilation finishes.
type compiler struct {
	ar         arena.Arena[inst]
	head, tail *inst
	ignore     bool
}

func (c *compiler) alloc(kind instKind) *inst {
	i := c.ar.New()
	i.kind = kind
	return i
}

// newLabel creates a label without placing it.
func (c *compiler) newLabel() *inst {
	return c.alloc(kindLabel)
}

// place appends an instruction (or a previously created label) to the list.
func (c *compiler) place(i *inst) *inst {
	if c.head == nil {
		c.head = i
	} else {
		c.tail.next = i
	}
	c.tail = i
	return i
}

// emit appends a plain instruction with pre operands only.
func (c *compiler) emit(op Code, pre ...Code) *inst {
	i := c.alloc(kindOp)
	i.op = op
	i.pre = pre
	return c.place(i)
}

// emitJump appends an instruction whose first operand is a distance word.
func (c *compiler) emitJump(op Code, dest *inst, post ...Code) *inst {
	i := c.alloc(kindOp)
	i.op = op
	i.dest = dest
	i.post = post
	return c.place(i)
}

// emitOffset appends a bare branch-alternative distance word.
func (c *compiler) emitOffset(dest *inst) *inst {
	i := c.alloc(kindOffset)
	i.dest = dest
	return c.place(i)
}

// compileNodes lowers a concatenation chain.
func (c *compiler) compileNodes(n *syntax.Node) error {
	for ; n != nil; n = n.Next {
		if err := c.compileNode(n); err != nil {
			return err
		}
	}
	return nil
}

// compileNode lowers a single node, ignoring its Next link.
func (c *compiler) compileNode(n *syntax.Node) error {
	switch n.Type {
	case syntax.NodeLiteral:
		c.emitLiteral(n.C, false)

	case syntax.NodeRange:
		c.emit(OpRange, conv.RuneToWord(n.C), conv.RuneToWord(n.Hi))

	case syntax.NodeNegate:
		c.emit(OpNegate)

	case syntax.NodeCategory:
		c.emit(OpCategory, n.Code)

	case syntax.NodeAny:
		if n.All {
			c.emit(OpAnyAll)
		} else {
			c.emit(OpAny)
		}

	case syntax.NodeAt:
		c.emit(OpAt, n.Code)

	case syntax.NodeIn:
		return c.compileIn(n)

	case syntax.NodeBranch:
		return c.compileBranch(n)

	case syntax.NodeMaxRepeat, syntax.NodeMinRepeat:
		return c.compileRepeat(n)

	case syntax.NodeGroup:
		return c.compileGroup(n)

	case syntax.NodeGroupref:
		op := OpGroupref
		if c.ignore {
			op = OpGrouprefIgnore
		}
		c.emit(op, conv.IntToWord(n.Num-1))

	case syntax.NodeGrouprefExists:
		return c.compileGrouprefExists(n)

	case syntax.NodeAssert:
		return c.compileAssert(n)

	default:
		return ErrInvalidNode
	}
	return nil
}

func (c *compiler) emitLiteral(r rune, negate bool) {
	op := OpLiteral
	switch {
	case negate && c.ignore:
		op = OpNotLiteralIgnore
	case negate:
		op = OpNotLiteral
	case c.ignore:
		op = OpLiteralIgnore
	}
	if c.ignore {
		r = chartype.ToLower(r)
	}
	c.emit(op, conv.RuneToWord(r))
}

// compileIn lowers a character class: either the single-literal shortcut
// (LITERAL / NOT_LITERAL) or IN <skip> items… FAILURE.
func (c *compiler) compileIn(n *syntax.Node) error {
	items, err := optimizeCharset(n.Body, c.ignore)
	if err != nil {
		return err
	}
	if r, negate, ok := singleLiteral(items); ok {
		c.emitLiteral(r, negate)
		return nil
	}
	op := OpIn
	if c.ignore {
		op = OpInIgnore
	}
	lend := c.newLabel()
	c.emitJump(op, lend)
	for _, item := range items {
		c.emit(item.op, item.args...)
	}
	c.emit(OpFailure)
	c.place(lend)
	return nil
}

// compileBranch lowers an alternation:
//
//	BRANCH
//	  <offset L1> alt1 JUMP Lend  L1:
//	  <offset L2> alt2 JUMP Lend  L2:
//	  …
//	  FAILURE
//	Lend:
//
// Right-nested Branch nodes flatten into one chain of alternatives.
func (c *compiler) compileBranch(n *syntax.Node) error {
	c.emit(OpBranch)
	lend := c.newLabel()
	for _, alt := range flattenBranch(n) {
		lnext := c.newLabel()
		c.emitOffset(lnext)
		if err := c.compileNodes(alt); err != nil {
			return err
		}
		c.emitJump(OpJump, lend)
		c.place(lnext)
	}
	c.emit(OpFailure)
	c.place(lend)
	return nil
}

func flattenBranch(n *syntax.Node) []*syntax.Node {
	alts := []*syntax.Node{n.Left}
	rest := n.Right
	for rest != nil && rest.Type == syntax.NodeBranch && rest.Next == nil {
		alts = append(alts, rest.Left)
		rest = rest.Right
	}
	return append(alts, rest)
}

// compileRepeat lowers a repetition. Single-width bodies that set no marks
// take the REPEAT_ONE fast path; everything else becomes the general
// REPEAT … MAX_UNTIL / MIN_UNTIL form.
func (c *compiler) compileRepeat(n *syntax.Node) error {
	min := conv.IntToWord(n.Min)
	max := conv.IntToWord(n.Max)
	if simpleBody(n.Body) {
		op := OpRepeatOne
		if n.Type == syntax.NodeMinRepeat {
			op = OpMinRepeatOne
		}
		lend := c.newLabel()
		c.emitJump(op, lend, min, max)
		if err := c.compileNode(n.Body); err != nil {
			return err
		}
		c.emit(OpSuccess)
		c.place(lend)
		return nil
	}

	luntil := c.newLabel()
	c.emitJump(OpRepeat, luntil, min, max)
	if err := c.compileNode(n.Body); err != nil {
		return err
	}
	c.place(luntil)
	if n.Type == syntax.NodeMinRepeat {
		c.emit(OpMinUntil)
	} else {
		c.emit(OpMaxUntil)
	}
	return nil
}

// simpleBody reports whether a repeat body is exactly one code point wide
// and records no marks, the precondition of the REPEAT_ONE operators.
func simpleBody(n *syntax.Node) bool {
	if n == nil || n.Next != nil {
		return false
	}
	switch n.Type {
	case syntax.NodeLiteral, syntax.NodeIn, syntax.NodeAny, syntax.NodeCategory:
		return true
	}
	return false
}

// compileGroup lowers a group. Capturing groups bracket their body with a
// pair of MARK instructions; non-capturing groups are transparent.
func (c *compiler) compileGroup(n *syntax.Node) error {
	if n.Num == 0 {
		return c.compileNodes(n.Body)
	}
	base := conv.IntToWord(2 * (n.Num - 1))
	c.emit(OpMark, base)
	if err := c.compileNodes(n.Body); err != nil {
		return err
	}
	c.emit(OpMark, base+1)
	return nil
}

// compileGrouprefExists lowers a conditional sub-pattern:
//
//	GROUPREF_EXISTS <g> <Lelse>  yes  JUMP Lend  Lelse:  no  Lend:
//
// With no else-branch the skip goes straight to Lend.
func (c *compiler) compileGrouprefExists(n *syntax.Node) error {
	lend := c.newLabel()
	if n.Right == nil {
		c.emitJumpWithPre(OpGrouprefExists, conv.IntToWord(n.Num-1), lend)
		if err := c.compileNodes(n.Left); err != nil {
			return err
		}
		c.place(lend)
		return nil
	}
	lelse := c.newLabel()
	c.emitJumpWithPre(OpGrouprefExists, conv.IntToWord(n.Num-1), lelse)
	if err := c.compileNodes(n.Left); err != nil {
		return err
	}
	c.emitJump(OpJump, lend)
	c.place(lelse)
	if err := c.compileNodes(n.Right); err != nil {
		return err
	}
	c.place(lend)
	return nil
}

// emitJumpWithPre appends an instruction carrying one operand before the
// distance word (the GROUPREF_EXISTS layout).
func (c *compiler) emitJumpWithPre(op Code, pre Code, dest *inst) *inst {
	i := c.alloc(kindOp)
	i.op = op
	i.pre = []Code{pre}
	i.dest = dest
	return c.place(i)
}

// compileAssert lowers a lookaround:
//
//	ASSERT <Lend> <back>  body  SUCCESS  Lend:
//
// back is the fixed width of a lookbehind body, zero for lookahead.
func (c *compiler) compileAssert(n *syntax.Node) error {
	back := 0
	if n.Behind {
		lo, hi := syntax.Width(n.Body)
		if lo != hi {
			return ErrVariableLookbehind
		}
		back = lo
	}
	op := OpAssert
	if n.Neg {
		op = OpAssertNot
	}
	lend := c.newLabel()
	c.emitJump(op, lend, conv.IntToWord(back))
	if err := c.compileNodes(n.Body); err != nil {
		return err
	}
	c.emit(OpSuccess)
	c.place(lend)
	return nil
}

// resolve assigns word positions and returns the total program size.
func (c *compiler) resolve() int {
	pos := 0
	for i := c.head; i != nil; i = i.next {
		i.pos = pos
		pos += i.size()
	}
	return pos
}

// serialize writes the resolved list into a fresh code array. Distance
// words follow the binary contract: jump-like operands store
// target.pos−self.pos−1, branch offset words store target.pos−self.pos.
func (c *compiler) serialize(size int) []Code {
	code := make([]Code, 0, size)
	for i := c.head; i != nil; i = i.next {
		switch i.kind {
		case kindLabel:
		case kindOffset:
			code = append(code, conv.IntToWord(i.dest.pos-i.pos))
		case kindOp:
			code = append(code, i.op)
			code = append(code, i.pre...)
			if i.dest != nil {
				code = append(code, conv.IntToWord(i.dest.pos-i.pos-1))
			}
			code = append(code, i.post...)
		}
	}
	return code
}

// Compile lowers a parsed tree into a Program.
func Compile(tree *syntax.Tree) (*Program, error) {
	c := &compiler{ignore: tree.Flags&syntax.FlagIgnoreCase != 0}
	if err := c.emitInfo(tree); err != nil {
		return nil, err
	}
	if err := c.compileNodes(tree.Root); err != nil {
		return nil, err
	}
	c.emit(OpSuccess)
	size := c.resolve()
	code := c.serialize(size)
	c.ar.Reset()
	return &Program{
		Code:   code,
		Groups: tree.Groups,
		Names:  tree.Names,
	}, nil
}
