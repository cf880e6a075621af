// Package vm executes compiled programs against UTF-32 subjects.
//
// The matcher is a backtracking virtual machine. It is non-recursive: the
// recursion of the natural formulation is emulated with a growable stack of
// match contexts plus a resume-step tag per context, so match depth is
// bounded by heap, not by goroutine stack. The search driver scans a
// subject using the prefix/charset hints the compiler embeds in INFO
// blocks.
//
// A State holds all mutable matching state and may be reused across calls,
// but never shared between goroutines. Compiled programs are immutable and
// may be shared freely.
package vm

import (
	"errors"
	"io"

	"github.com/coregx/corgex/internal/chartype"
	"github.com/coregx/corgex/program"
	"github.com/coregx/corgex/syntax"
)

// VM errors. Match failure is not an error; these indicate a corrupt
// program or an exhausted context stack.
var (
	// ErrIllegalOpcode indicates the VM decoded an unknown opcode or
	// sub-code, or a repetition operator with no active repeat frame.
	ErrIllegalOpcode = errors.New("illegal opcode")

	// ErrOutOfMemory indicates the context stack hit its configured
	// limit. The State remains safe to reuse.
	ErrOutOfMemory = errors.New("out of memory")
)

// markSize is the size of the mark register file: two marks per capturing
// group, at most 100 groups.
const markSize = 200

// maxUnbounded mirrors the repetition sentinel of the instruction format.
const maxUnbounded = 65535

// unset is the "mark not written" sentinel.
const unset = -1

// repeat is the dynamic frame installed by a REPEAT instruction and torn
// down when its dynamic extent ends. lastPtr records the cursor at the last
// body entry and trips the zero-width-iteration guard.
type repeat struct {
	count   int
	pc      int // position of the REPEAT skip word
	lastPtr int
	prev    *repeat
}

// context is one emulated recursion frame on the data stack.
type context struct {
	jump uint8 // parent resume tag
	pc   int   // current instruction position
	ptr  int   // cursor snapshot

	count     int
	lastmark  int
	lastindex int

	chr          rune    // REPEAT_ONE literal-tail scratch
	rep          *repeat // repeat frame scratch
	savedLastPtr int
	savedMarks   []int
}

// DefaultMaxStack bounds the context stack (in contexts). Deep enough for
// any reasonable pattern; shallow enough that a pathological program fails
// with ErrOutOfMemory instead of consuming the machine.
const DefaultMaxStack = 1 << 20

// State is the mutable matching state: subject cursor, mark registers, the
// context data stack and the active repeat chain.
type State struct {
	subject   []rune
	beginning int
	start     int
	ptr       int
	end       int

	lastindex int
	lastmark  int
	marks     [markSize]int

	stack  []context
	repeat *repeat

	// MaxStack bounds the context stack; zero means DefaultMaxStack.
	MaxStack int

	// Trace receives a per-opcode execution trace when non-nil.
	Trace io.Writer
}

// NewState returns a State ready for matching.
func NewState() *State {
	return &State{}
}

// Reset prepares the state for a run over subject, anchored or starting at
// the code-point index at.
func (s *State) Reset(subject []rune, at int) {
	s.subject = subject
	s.beginning = 0
	s.end = len(subject)
	if at < 0 {
		at = 0
	}
	if at > s.end {
		at = s.end
	}
	s.start = at
	s.ptr = at
	s.lastmark = -1
	s.lastindex = -1
	s.stack = s.stack[:0]
	s.repeat = nil
}

// Start returns the start of the most recent match attempt.
func (s *State) Start() int { return s.start - s.beginning }

// End returns the cursor after the most recent successful match.
func (s *State) End() int { return s.ptr - s.beginning }

// GroupRange returns the captured range of group g (1-based) after a
// successful match. ok is false when the group did not participate.
func (s *State) GroupRange(g int) (begin, end int, ok bool) {
	i := 2 * (g - 1)
	if i < 0 || i+1 > s.lastmark || i+1 >= markSize {
		return 0, 0, false
	}
	b, e := s.marks[i], s.marks[i+1]
	if b == unset || e == unset || e < b {
		return 0, 0, false
	}
	return b - s.beginning, e - s.beginning, true
}

// push allocates a context on the data stack. Growth is amortised:
// new capacity = need + need/4 + 1024, bounded by MaxStack.
func (s *State) push(jump uint8, pc int) error {
	if len(s.stack) == cap(s.stack) {
		need := len(s.stack) + 1
		max := s.MaxStack
		if max == 0 {
			max = DefaultMaxStack
		}
		if need > max {
			s.stack = s.stack[:0]
			return ErrOutOfMemory
		}
		newCap := need + need/4 + 1024
		if newCap > max {
			newCap = max
		}
		grown := make([]context, len(s.stack), newCap)
		copy(grown, s.stack)
		s.stack = grown
	}
	s.stack = append(s.stack, context{jump: jump, pc: pc})
	return nil
}

// lastmarkSave snapshots the mark high-water registers into ctx. Callers
// that retry after a failed speculative sub-match must pair it with
// lastmarkRestore so captured-group state is indistinguishable from before
// the attempt.
func (s *State) lastmarkSave(ctx *context) {
	ctx.lastmark = s.lastmark
	ctx.lastindex = s.lastindex
}

func (s *State) lastmarkRestore(ctx *context) {
	s.lastmark = ctx.lastmark
	s.lastindex = ctx.lastindex
}

// markPush snapshots marks[0..ctx.lastmark] into the context.
func (s *State) markPush(ctx *context) {
	if ctx.lastmark > 0 {
		ctx.savedMarks = append(ctx.savedMarks[:0], s.marks[:ctx.lastmark+1]...)
	}
}

// markPopKeep restores the snapshot without discarding it.
func (s *State) markPopKeep(ctx *context) {
	if ctx.lastmark > 0 {
		copy(s.marks[:], ctx.savedMarks)
	}
}

// markPop restores the snapshot and discards it.
func (s *State) markPop(ctx *context) {
	s.markPopKeep(ctx)
	ctx.savedMarks = nil
}

// markDiscard drops the snapshot without restoring.
func (s *State) markDiscard(ctx *context) {
	ctx.savedMarks = nil
}

// atCheck evaluates a zero-width AT assertion at ptr.
func (s *State) atCheck(ptr int, at program.Code) (bool, error) {
	switch at {
	case syntax.AtBeginning, syntax.AtBeginningString:
		return ptr == s.beginning, nil
	case syntax.AtBeginningLine:
		return ptr == s.beginning || chartype.IsLinebreak(s.subject[ptr-1]), nil
	case syntax.AtEnd:
		return (ptr+1 == s.end && chartype.IsLinebreak(s.subject[ptr])) || ptr == s.end, nil
	case syntax.AtEndLine:
		return ptr == s.end || chartype.IsLinebreak(s.subject[ptr]), nil
	case syntax.AtEndString:
		return ptr == s.end, nil
	case syntax.AtBoundary:
		return s.boundary(ptr, chartype.IsWord), nil
	case syntax.AtNonBoundary:
		return s.end != s.beginning && !s.boundary(ptr, chartype.IsWord), nil
	case syntax.AtLocBoundary:
		return s.boundary(ptr, chartype.IsLocWord), nil
	case syntax.AtLocNonBoundary:
		return s.end != s.beginning && !s.boundary(ptr, chartype.IsLocWord), nil
	case syntax.AtUniBoundary:
		return s.boundary(ptr, chartype.IsUniWord), nil
	case syntax.AtUniNonBoundary:
		return s.end != s.beginning && !s.boundary(ptr, chartype.IsUniWord), nil
	}
	return false, ErrIllegalOpcode
}

// boundary is the word-boundary test: XOR of "previous is word" and "this
// is word". An empty subject has no boundaries.
func (s *State) boundary(ptr int, isWord func(rune) bool) bool {
	if s.beginning == s.end {
		return false
	}
	prev := ptr > s.beginning && isWord(s.subject[ptr-1])
	this := ptr < s.end && isWord(s.subject[ptr])
	return prev != this
}

// charset reports whether ch is a member of the FAILURE-terminated item
// program starting at code[i].
func charset(code []program.Code, i int, ch rune) (bool, error) {
	ok := true
	for {
		op := code[i]
		i++
		switch op {
		case program.OpFailure:
			return !ok, nil
		case program.OpLiteral:
			if program.Code(ch) == code[i] {
				return ok, nil
			}
			i++
		case program.OpCategory:
			if !chartype.KnownCategory(code[i]) {
				return false, ErrIllegalOpcode
			}
			if chartype.Category(code[i], ch) {
				return ok, nil
			}
			i++
		case program.OpCharset:
			if ch >= 0 && ch < 256 && code[i+int(ch>>5)]&(1<<(uint32(ch)&31)) != 0 {
				return ok, nil
			}
			i += 8
		case program.OpRange:
			if code[i] <= program.Code(ch) && program.Code(ch) <= code[i+1] {
				return ok, nil
			}
			i += 2
		case program.OpNegate:
			ok = !ok
		case program.OpBigcharset:
			count := int(code[i])
			i++
			block := -1
			if ch >= 0 && ch < 65536 {
				k := int(ch >> 8)
				block = int((code[i+k/4] >> (8 * (uint(k) % 4))) & 0xff)
			}
			i += 64
			if block >= 0 {
				lo := int(ch & 255)
				if code[i+block*8+lo>>5]&(1<<(uint32(ch)&31)) != 0 {
					return ok, nil
				}
			}
			i += count * 8
		default:
			return false, ErrIllegalOpcode
		}
	}
}
