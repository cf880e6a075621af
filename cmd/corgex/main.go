// Command corgex matches a pattern against a subject from the command
// line, printing the match range and any captured groups. It can also dump
// the compile-time instruction listing or disassemble the compiled program.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/coregx/corgex"
)

func main() {
	var (
		ignoreCase = flag.Bool("i", false, "match case-insensitively")
		dotAll     = flag.Bool("s", false, "let . match linebreaks")
		debug      = flag.Bool("g", false, "trace VM execution")
		anchored   = flag.Bool("a", false, "anchor the match at the start")
		dump       = flag.Bool("dump", false, "print the instruction listing and exit")
		disasm     = flag.Bool("disasm", false, "print the compiled program and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: corgex [flags] <pattern> [<subject>]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	os.Exit(run(*ignoreCase, *dotAll, *debug, *anchored, *dump, *disasm, flag.Args()))
}

func run(ignoreCase, dotAll, debug, anchored, dump, disasm bool, args []string) int {
	if len(args) < 1 {
		flag.Usage()
		return 2
	}
	pattern := []rune(args[0])

	var opts corgex.Options
	if ignoreCase {
		opts |= corgex.OptIgnoreCase
	}
	if dotAll {
		opts |= corgex.OptDotAll
	}
	if debug {
		opts |= corgex.OptDebug
	}

	if dump {
		if err := corgex.Dump(os.Stdout, pattern, opts); err != nil {
			fmt.Fprintln(os.Stderr, "corgex:", err)
			return 1
		}
		return 0
	}

	re, err := corgex.Compile(pattern, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "corgex:", err)
		return 1
	}

	if disasm {
		if err := re.Disassemble(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "corgex:", err)
			return 1
		}
		return 0
	}

	if len(args) < 2 {
		flag.Usage()
		return 2
	}
	subject := []rune(args[1])

	var m *corgex.Match
	if anchored {
		m, err = re.Match(subject, 0)
	} else {
		m, err = re.Search(subject, 0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "corgex:", err)
		return 1
	}
	if m == nil {
		fmt.Println("no match")
		return 1
	}

	fmt.Printf("match [%d, %d) %q\n", m.Begin, m.End, string(subject[m.Begin:m.End]))
	for g := 1; g <= m.NumGroups(); g++ {
		if r, ok := m.Group(g); ok {
			fmt.Printf("group %d [%d, %d) %q\n", g, r.Begin, r.End, string(subject[r.Begin:r.End]))
		} else {
			fmt.Printf("group %d unset\n", g)
		}
	}
	return 0
}
