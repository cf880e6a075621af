package scan

import "testing"

func naiveIndex(h []rune, needle rune, start int) int {
	for i := start; i < len(h); i++ {
		if h[i] == needle {
			return i
		}
	}
	return -1
}

func TestIndexRune(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		needle  rune
		start   int
	}{
		{"empty", "", 'a', 0},
		{"single hit", "a", 'a', 0},
		{"single miss", "b", 'a', 0},
		{"short", "xyzzy", 'z', 0},
		{"short miss", "xyzzy", 'q', 0},
		{"even position", "abcdefgh", 'c', 0},
		{"odd position", "abcdefgh", 'd', 0},
		{"last", "abcdefgh", 'h', 0},
		{"from start offset", "abcabc", 'a', 1},
		{"offset past match", "abcabc", 'b', 5},
		{"unicode", "héllo wörld", 'ö', 0},
		{"wide", "日本語テキスト日本語", '語', 0},
		{"long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaab", 'b', 0},
		{"long miss", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 'b', 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := []rune(tt.subject)
			got := IndexRune(h, tt.needle, tt.start)
			want := naiveIndex(h, tt.needle, tt.start)
			if got != want {
				t.Errorf("IndexRune(%q, %q, %d) = %d, want %d",
					tt.subject, tt.needle, tt.start, got, want)
			}
		})
	}
}

func TestIndexRuneNegativeStart(t *testing.T) {
	if got := IndexRune([]rune("abc"), 'a', -5); got != 0 {
		t.Errorf("negative start: got %d, want 0", got)
	}
}

func TestIndexRuneAllPositions(t *testing.T) {
	// Exercise every alignment of the two-lane loop.
	const n = 33
	for pos := 0; pos < n; pos++ {
		h := make([]rune, n)
		for i := range h {
			h[i] = 'x'
		}
		h[pos] = 'y'
		if got := IndexRune(h, 'y', 0); got != pos {
			t.Fatalf("needle at %d found at %d", pos, got)
		}
	}
}

func TestIndexFunc(t *testing.T) {
	h := []rune("abc123")
	got := IndexFunc(h, 0, func(c rune) bool { return c >= '0' && c <= '9' })
	if got != 3 {
		t.Errorf("IndexFunc = %d, want 3", got)
	}
	if IndexFunc(h, 0, func(rune) bool { return false }) != -1 {
		t.Error("IndexFunc with false predicate should return -1")
	}
}
