// Package corgex is a backtracking regular-expression engine for UTF-32
// subjects.
//
// A pattern compiles through a three-stage pipeline: a recursive-descent
// parser builds a node tree, lowering flattens the tree into a 32-bit
// instruction stream, and a non-recursive backtracking virtual machine
// executes that stream against a subject of code points. Group captures,
// backreferences, lookaround assertions and lazy/greedy repetition are
// supported; search is accelerated by prefix/charset hints embedded in the
// compiled program and, for literal alternations, by an Aho-Corasick
// prefilter.
//
// Subjects and patterns are []rune; all reported offsets are code-point
// indices, not byte offsets.
//
// Basic usage:
//
//	re, err := corgex.CompileString(`\s*\w+`, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := re.Search([]rune("  hello"), 0)
//	if m != nil {
//	    fmt.Println(m.Begin, m.End) // 0 7
//	}
//
// A compiled Regexp is immutable and safe for concurrent use; every call
// draws its mutable matching state from an internal pool.
package corgex

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/coregx/corgex/prefilter"
	"github.com/coregx/corgex/program"
	"github.com/coregx/corgex/syntax"
	"github.com/coregx/corgex/vm"
)

// Options is the engine option bitset.
type Options uint32

const (
	// OptDebug traces VM execution to the trace writer (os.Stderr by
	// default; see SetTraceWriter).
	OptDebug Options = 1 << 0

	// OptIgnoreCase matches case-insensitively (simple case folding).
	OptIgnoreCase Options = 1 << 1

	// OptDotAll makes '.' match linebreak code points too.
	OptDotAll Options = 1 << 2
)

func (o Options) syntaxFlags() syntax.Flags {
	var f syntax.Flags
	if o&OptIgnoreCase != 0 {
		f |= syntax.FlagIgnoreCase
	}
	if o&OptDotAll != 0 {
		f |= syntax.FlagDotAll
	}
	return f
}

// Regexp is a compiled pattern. It is immutable after compilation and safe
// to share across goroutines.
type Regexp struct {
	pattern string
	prog    *program.Program
	pf      prefilter.Prefilter
	opts    Options

	trace  io.Writer
	states sync.Pool
}

// Compile compiles a pattern given as a slice of code points.
func Compile(pattern []rune, opts Options) (*Regexp, error) {
	tree, err := syntax.Parse(pattern, opts.syntaxFlags())
	if err != nil {
		return nil, err
	}
	prog, err := program.Compile(tree)
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", string(pattern), err)
	}
	return &Regexp{
		pattern: string(pattern),
		prog:    prog,
		pf:      prefilter.FromTree(tree),
		opts:    opts,
		trace:   os.Stderr,
	}, nil
}

// CompileString compiles a pattern given as a string.
func CompileString(pattern string, opts Options) (*Regexp, error) {
	return Compile([]rune(pattern), opts)
}

// MustCompile is CompileString that panics on error, for patterns known to
// be valid at compile time.
func MustCompile(pattern string, opts Options) *Regexp {
	re, err := CompileString(pattern, opts)
	if err != nil {
		panic("corgex: Compile(" + pattern + "): " + err.Error())
	}
	return re
}

// String returns the source pattern.
func (re *Regexp) String() string {
	return re.pattern
}

// NumGroups returns the number of capturing groups.
func (re *Regexp) NumGroups() int {
	return re.prog.Groups
}

// GroupIndex returns the 1-based number of the named capturing group.
func (re *Regexp) GroupIndex(name string) (int, bool) {
	n, ok := re.prog.Names[name]
	return n, ok
}

// SetTraceWriter redirects the OptDebug execution trace. Not safe to call
// concurrently with matching.
func (re *Regexp) SetTraceWriter(w io.Writer) {
	re.trace = w
}

// Disassemble writes a human-readable decode of the compiled instruction
// stream.
func (re *Regexp) Disassemble(w io.Writer) error {
	return re.prog.Disassemble(w)
}

// Dump parses pattern and writes its pseudo-instruction listing, the
// compile-time view before serialisation.
func Dump(w io.Writer, pattern []rune, opts Options) error {
	tree, err := syntax.Parse(pattern, opts.syntaxFlags())
	if err != nil {
		return err
	}
	return program.Dump(w, tree)
}

// Match runs the pattern anchored at code-point index at. It returns the
// match, or nil when the pattern does not match there; err is non-nil only
// for execution errors (corrupt program, exhausted stack).
func (re *Regexp) Match(subject []rune, at int) (*Match, error) {
	return re.run(subject, at, true)
}

// MatchString is Match on a string subject.
func (re *Regexp) MatchString(subject string, at int) (*Match, error) {
	return re.Match([]rune(subject), at)
}

// Search scans the subject for the pattern starting at code-point index
// at. It returns the leftmost match, or nil when there is none.
func (re *Regexp) Search(subject []rune, at int) (*Match, error) {
	return re.run(subject, at, false)
}

// SearchString is Search on a string subject.
func (re *Regexp) SearchString(subject string, at int) (*Match, error) {
	return re.Search([]rune(subject), at)
}

func (re *Regexp) run(subject []rune, at int, anchored bool) (*Match, error) {
	if !anchored && re.pf != nil {
		pos, length := re.pf.Find(subject, at)
		if pos < 0 {
			return nil, nil
		}
		if re.pf.IsComplete() {
			return &Match{Begin: pos, End: pos + length}, nil
		}
		at = pos
	}

	s := re.getState()
	defer re.putState(s)

	var ok bool
	var err error
	if anchored {
		ok, err = s.Match(re.prog, subject, at)
	} else {
		ok, err = s.Search(re.prog, subject, at)
	}
	if err != nil || !ok {
		return nil, err
	}

	m := &Match{Begin: s.Start(), End: s.End()}
	if re.prog.Groups > 0 {
		m.groups = make([]Range, re.prog.Groups)
		for g := 1; g <= re.prog.Groups; g++ {
			if b, e, set := s.GroupRange(g); set {
				m.groups[g-1] = Range{Begin: b, End: e}
			} else {
				m.groups[g-1] = Range{Begin: -1, End: -1}
			}
		}
	}
	return m, nil
}

func (re *Regexp) getState() *vm.State {
	s, _ := re.states.Get().(*vm.State)
	if s == nil {
		s = vm.NewState()
	}
	if re.opts&OptDebug != 0 {
		s.Trace = re.trace
	} else {
		s.Trace = nil
	}
	return s
}

func (re *Regexp) putState(s *vm.State) {
	re.states.Put(s)
}
