package program

import (
	"fmt"
	"io"
	"strconv"
	"unicode"

	"github.com/coregx/corgex/internal/chartype"
	"github.com/coregx/corgex/syntax"
)

// printer accumulates the first write error so the listing code can stay
// free of error plumbing.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func printable(c rune) string {
	if unicode.IsPrint(c) && c < 0x80 {
		return string(c)
	}
	return " "
}

// Dump writes the pseudo-instruction listing of a pattern, with positions
// resolved but before serialisation. It shows the same stream Disassemble
// decodes from a compiled program, modulo the label bookkeeping.
func Dump(w io.Writer, tree *syntax.Tree) error {
	c := &compiler{ignore: tree.Flags&syntax.FlagIgnoreCase != 0}
	if err := c.emitInfo(tree); err != nil {
		return err
	}
	if err := c.compileNodes(tree.Root); err != nil {
		return err
	}
	c.emit(OpSuccess)
	c.resolve()

	p := &printer{w: w}
	for i := c.head; i != nil; i = i.next {
		dumpInst(p, i)
	}
	c.ar.Reset()
	return p.err
}

func dumpInst(p *printer, i *inst) {
	switch i.kind {
	case kindLabel:
		return
	case kindOffset:
		p.printf("%04d OFFSET %04d\n", i.pos, i.dest.pos)
		return
	}

	p.printf("%04d %s", i.pos, OpName(i.op))
	switch i.op {
	case OpLiteral, OpLiteralIgnore, OpNotLiteral, OpNotLiteralIgnore:
		c := rune(i.pre[0])
		p.printf(" %8d (%s)", i.pre[0], printable(c))
	case OpCategory:
		p.printf(" %d (%s)", i.pre[0], chartype.CategoryName(i.pre[0]))
	case OpAt:
		p.printf(" %d (%s)", i.pre[0], syntax.AtName(i.pre[0]))
	case OpRange:
		p.printf(" %8d (%s) %8d (%s)",
			i.pre[0], printable(rune(i.pre[0])),
			i.pre[1], printable(rune(i.pre[1])))
	default:
		for _, a := range i.pre {
			p.printf(" %d", a)
		}
		if i.dest != nil {
			p.printf(" %04d", i.dest.pos)
		}
		for _, a := range i.post {
			p.printf(" %d", a)
		}
	}
	p.printf("\n")
}

// Disassemble writes a human-readable decode of the compiled instruction
// stream.
func (prog *Program) Disassemble(w io.Writer) error {
	p := &printer{w: w}
	pc := 0
	disasmPattern(p, prog.Code, &pc, len(prog.Code))
	return p.err
}

func disasmPattern(p *printer, code []Code, pc *int, end int) {
	for *pc < end && p.err == nil {
		disasmCode(p, code, pc)
	}
}

func disasmCode(p *printer, code []Code, pc *int) {
	pos := *pc
	op := code[pos]
	*pc = pos + 1
	p.printf("%04d %s", pos, OpName(op))

	arg := func() Code {
		a := code[*pc]
		*pc = *pc + 1
		return a
	}

	switch op {
	case OpFailure, OpSuccess, OpAny, OpAnyAll, OpMaxUntil, OpMinUntil, OpNegate:
		p.printf("\n")

	case OpAssert, OpAssertNot:
		skip := arg()
		end := *pc - 1 + int(skip)
		back := arg()
		p.printf(" %d %d\n", skip, back)
		disasmPattern(p, code, pc, end)

	case OpAt:
		a := arg()
		p.printf(" %d (%s)\n", a, syntax.AtName(a))

	case OpBranch:
		p.printf("\n")
		for code[*pc] != 0 && p.err == nil {
			off := code[*pc]
			end := *pc + int(off)
			p.printf("%04d (offset) %d\n", *pc, off)
			*pc = *pc + 1
			disasmPattern(p, code, pc, end)
		}
		p.printf("%04d %s\n", *pc, OpName(code[*pc]))
		*pc = *pc + 1 // terminating FAILURE

	case OpCategory:
		a := arg()
		p.printf(" %d (%s)\n", a, chartype.CategoryName(a))

	case OpCharset:
		p.printf("\n")
		*pc += 8

	case OpBigcharset:
		count := arg()
		p.printf(" %d\n", count)
		*pc += 64 + int(count)*8

	case OpGroupref, OpGrouprefIgnore, OpMark:
		p.printf(" %d\n", arg())

	case OpGrouprefExists:
		g := arg()
		skip := arg()
		p.printf(" %d %d\n", g, skip)

	case OpIn, OpInIgnore:
		skip := arg()
		end := *pc - 1 + int(skip)
		p.printf(" %d\n", skip)
		disasmPattern(p, code, pc, end)

	case OpInfo:
		skip := arg()
		end := *pc - 1 + int(skip)
		p.printf(" %d flags=%d min=%d max=%d\n", skip, code[*pc], code[*pc+1], code[*pc+2])
		p.printf("...(snip)...\n")
		*pc = end

	case OpJump:
		p.printf(" %d\n", arg())

	case OpLiteral, OpLiteralIgnore, OpNotLiteral, OpNotLiteralIgnore:
		a := arg()
		p.printf(" %8d (%s)\n", a, printable(rune(a)))

	case OpRange:
		lo := arg()
		hi := arg()
		p.printf(" %d %d\n", lo, hi)

	case OpRepeat, OpRepeatOne, OpMinRepeatOne:
		skip := arg()
		end := *pc - 1 + int(skip)
		min := arg()
		max := arg()
		p.printf(" %d %s %s\n", skip, strconv.Itoa(int(min)), repeatMax(max))
		disasmPattern(p, code, pc, end)

	default:
		p.printf("\n")
	}
}

func repeatMax(max Code) string {
	if max == MaxRepeat {
		return "unbounded"
	}
	return strconv.Itoa(int(max))
}
