package vm

import "testing"

func TestSearch(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		subject    string
		at         int
		match      bool
		begin, end int
	}{
		{name: "prefix overlap scan", pattern: "abcabd", subject: "xxabcabcabdyy", match: true, begin: 5, end: 11},
		{name: "whole literal", pattern: "abab", subject: "xxababxx", match: true, begin: 2, end: 6},
		{name: "whole literal miss", pattern: "abab", subject: "xxabaxbx"},
		{name: "digit run", pattern: "[0-9]+x", subject: "aa42x", match: true, begin: 2, end: 5},
		{name: "charset scan", pattern: "[wxy]z", subject: "abwz", match: true, begin: 2, end: 4},
		{name: "charset scan miss", pattern: "[wxy]z", subject: "abwq"},
		{name: "first literal scan", pattern: `x\dy`, subject: "axa x1y", match: true, begin: 4, end: 7},
		{name: "general scan", pattern: "a*b", subject: "ccaab", match: true, begin: 2, end: 5},
		{name: "from cursor", pattern: "a", subject: "xaxa", at: 2, match: true, begin: 3, end: 4},
		{name: "min width cutoff", pattern: `\d{3}`, subject: "12"},
		{name: "anchored not found later", pattern: "^b", subject: "ab"},
		{name: "dollar with trailing newline", pattern: "o$", subject: "foo\n", match: true, begin: 2, end: 3},
		{name: "leftmost wins", pattern: "a+", subject: "bbaabaaa", match: true, begin: 2, end: 4},
		{name: "empty match at cursor", pattern: "a*", subject: "bbb", match: true, begin: 0, end: 0},
		{name: "unicode scan", pattern: "ö", subject: "héllö wörld", match: true, begin: 4, end: 5},
		{name: "prefix at end", pattern: "abd", subject: "abcabd", match: true, begin: 3, end: 6},
		{name: "groups through search", pattern: `(\d+)`, subject: "ab12cd", match: true, begin: 2, end: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := compile(t, tt.pattern, 0)
			s := NewState()
			ok, err := s.Search(prog, []rune(tt.subject), tt.at)
			if err != nil {
				t.Fatalf("Search error: %v", err)
			}
			if ok != tt.match {
				t.Fatalf("Search = %v, want %v", ok, tt.match)
			}
			if !ok {
				return
			}
			if s.Start() != tt.begin || s.End() != tt.end {
				t.Errorf("range = [%d, %d), want [%d, %d)",
					s.Start(), s.End(), tt.begin, tt.end)
			}
		})
	}
}

func TestSearchNeverReadsPastEnd(t *testing.T) {
	// A subject slice carved out of a larger buffer: the match must not
	// see the bytes beyond the declared end.
	buffer := []rune("abcabc")
	subject := buffer[:4] // "abca"
	prog := compile(t, "abc", 0)
	s := NewState()
	ok, err := s.Search(prog, subject, 0)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if s.Start() != 0 || s.End() != 3 {
		t.Fatalf("range = [%d, %d), want [0, 3)", s.Start(), s.End())
	}
	// Only one occurrence fits the declared window.
	ok, err = s.Search(prog, subject, 1)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("match found past the declared end")
	}
}

func TestSearchDeterministic(t *testing.T) {
	prog := compile(t, `\w+(\d*)`, 0)
	subject := []rune("  abc123 xyz")
	s := NewState()
	runOnce := func() (int, int) {
		ok, err := s.Search(prog, subject, 0)
		if err != nil || !ok {
			t.Fatalf("ok=%v err=%v", ok, err)
		}
		return s.Start(), s.End()
	}
	b1, e1 := runOnce()
	b2, e2 := runOnce()
	if b1 != b2 || e1 != e2 {
		t.Fatalf("[%d,%d) vs [%d,%d)", b1, e1, b2, e2)
	}
}
