package syntax

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, pattern string) *Tree {
	t.Helper()
	tree, err := Parse([]rune(pattern), 0)
	require.NoError(t, err, "pattern %q", pattern)
	return tree
}

func TestParseLiteralChain(t *testing.T) {
	tree := parse(t, "abc")
	n := tree.Root
	for _, want := range []rune{'a', 'b', 'c'} {
		require.NotNil(t, n)
		assert.Equal(t, NodeLiteral, n.Type)
		assert.Equal(t, want, n.C)
		n = n.Next
	}
	assert.Nil(t, n)
}

func TestParseBranchRightNests(t *testing.T) {
	tree := parse(t, "a|b|c")
	root := tree.Root
	require.Equal(t, NodeBranch, root.Type)
	assert.Equal(t, NodeLiteral, root.Left.Type)
	require.Equal(t, NodeBranch, root.Right.Type)
	assert.Equal(t, NodeLiteral, root.Right.Left.Type)
	assert.Equal(t, NodeLiteral, root.Right.Right.Type)
}

func TestParseQuantifiers(t *testing.T) {
	tests := []struct {
		pattern  string
		min, max int
		lazy     bool
	}{
		{"a*", 0, MaxUnbounded, false},
		{"a+", 1, MaxUnbounded, false},
		{"a?", 0, 1, false},
		{"a*?", 0, MaxUnbounded, true},
		{"a+?", 1, MaxUnbounded, true},
		{"a{3}", 3, 3, false},
		{"a{2,}", 2, MaxUnbounded, false},
		{"a{,5}", 0, 5, false},
		{"a{2,5}?", 2, 5, true},
	}
	for _, tt := range tests {
		tree := parse(t, tt.pattern)
		n := tree.Root
		wantType := NodeMaxRepeat
		if tt.lazy {
			wantType = NodeMinRepeat
		}
		require.Equal(t, wantType, n.Type, "pattern %q", tt.pattern)
		assert.Equal(t, tt.min, n.Min, "pattern %q", tt.pattern)
		assert.Equal(t, tt.max, n.Max, "pattern %q", tt.pattern)
		require.NotNil(t, n.Body)
		assert.Equal(t, NodeLiteral, n.Body.Type)
	}
}

func TestParseLiteralBrace(t *testing.T) {
	// A '{' that opens no valid interval is an ordinary literal.
	tree := parse(t, "a{b}")
	n := tree.Root
	var got []rune
	for ; n != nil; n = n.Next {
		require.Equal(t, NodeLiteral, n.Type)
		got = append(got, n.C)
	}
	assert.Equal(t, []rune("a{b}"), got)
}

func TestParseClass(t *testing.T) {
	tree := parse(t, "[a-c_]")
	in := tree.Root
	require.Equal(t, NodeIn, in.Type)
	r := in.Body
	require.Equal(t, NodeRange, r.Type)
	assert.Equal(t, 'a', r.C)
	assert.Equal(t, 'c', r.Hi)
	lit := r.Next
	require.Equal(t, NodeLiteral, lit.Type)
	assert.Equal(t, '_', lit.C)
}

func TestParseClassNegateAndDash(t *testing.T) {
	tree := parse(t, "[^a-]")
	in := tree.Root
	require.Equal(t, NodeIn, in.Type)
	assert.Equal(t, NodeNegate, in.Body.Type)
	assert.Equal(t, NodeLiteral, in.Body.Next.Type)
	assert.Equal(t, 'a', in.Body.Next.C)
	assert.Equal(t, '-', in.Body.Next.Next.C)
}

func TestParseClassUnterminated(t *testing.T) {
	// The end of the pattern closes an open class.
	tree := parse(t, "[abc")
	require.Equal(t, NodeIn, tree.Root.Type)
	count := 0
	for n := tree.Root.Body; n != nil; n = n.Next {
		count++
	}
	assert.Equal(t, 3, count)
}

func TestParseCategoryEscapes(t *testing.T) {
	tree := parse(t, `\w`)
	require.Equal(t, NodeIn, tree.Root.Type)
	require.Equal(t, NodeCategory, tree.Root.Body.Type)

	tree = parse(t, `[\d;]`)
	require.Equal(t, NodeIn, tree.Root.Type)
	assert.Equal(t, NodeCategory, tree.Root.Body.Type)
	assert.Equal(t, NodeLiteral, tree.Root.Body.Next.Type)
}

func TestParseGroups(t *testing.T) {
	tree := parse(t, "(a)(?:b)(?P<x>c)")
	assert.Equal(t, 2, tree.Groups)

	g1 := tree.Root
	require.Equal(t, NodeGroup, g1.Type)
	assert.Equal(t, 1, g1.Num)

	g2 := g1.Next
	require.Equal(t, NodeGroup, g2.Type)
	assert.Equal(t, 0, g2.Num)

	g3 := g2.Next
	require.Equal(t, NodeGroup, g3.Type)
	assert.Equal(t, 2, g3.Num)

	n, ok := tree.GroupIndex("x")
	require.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestParseBackrefs(t *testing.T) {
	tree := parse(t, `(a)\1`)
	ref := tree.Root.Next
	require.Equal(t, NodeGroupref, ref.Type)
	assert.Equal(t, 1, ref.Num)

	tree = parse(t, `(?P<v>a)(?P=v)`)
	ref = tree.Root.Next
	require.Equal(t, NodeGroupref, ref.Type)
	assert.Equal(t, 1, ref.Num)
}

func TestParseConditional(t *testing.T) {
	tree := parse(t, `(a)?(?(1)b|c)`)
	cond := tree.Root.Next
	require.Equal(t, NodeGrouprefExists, cond.Type)
	assert.Equal(t, 1, cond.Num)
	require.NotNil(t, cond.Left)
	require.NotNil(t, cond.Right)
}

func TestParseAssertions(t *testing.T) {
	tests := []struct {
		pattern     string
		neg, behind bool
	}{
		{"a(?=b)", false, false},
		{"a(?!b)", true, false},
		{"(?<=a)b", false, true},
		{"(?<!a)b", true, true},
	}
	for _, tt := range tests {
		tree := parse(t, tt.pattern)
		var a *Node
		for n := tree.Root; n != nil; n = n.Next {
			if n.Type == NodeAssert {
				a = n
			}
		}
		require.NotNil(t, a, "pattern %q", tt.pattern)
		assert.Equal(t, tt.neg, a.Neg, "pattern %q", tt.pattern)
		assert.Equal(t, tt.behind, a.Behind, "pattern %q", tt.pattern)
	}
}

func TestParseAnchors(t *testing.T) {
	tree := parse(t, `^a$`)
	require.Equal(t, NodeAt, tree.Root.Type)
	assert.EqualValues(t, AtBeginning, tree.Root.Code)
	last := tree.Root.Next.Next
	require.Equal(t, NodeAt, last.Type)
	assert.EqualValues(t, AtEnd, last.Code)

	tree = parse(t, `\Aa\Z`)
	assert.EqualValues(t, AtBeginningString, tree.Root.Code)
}

func TestParseComment(t *testing.T) {
	tree := parse(t, "a(?#ignore me)b")
	assert.Equal(t, NodeLiteral, tree.Root.Type)
	require.NotNil(t, tree.Root.Next)
	assert.Equal(t, 'b', tree.Root.Next.C)
	assert.Nil(t, tree.Root.Next.Next)
}

func TestParseHexEscape(t *testing.T) {
	tree := parse(t, `\x41`)
	require.Equal(t, NodeLiteral, tree.Root.Type)
	assert.Equal(t, 'A', tree.Root.C)
}

func TestParseUnknownEscapeIsLiteral(t *testing.T) {
	tree := parse(t, `\q`)
	require.Equal(t, NodeLiteral, tree.Root.Type)
	assert.Equal(t, 'q', tree.Root.C)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		pattern string
		want    error
	}{
		{`[b-a]`, ErrBadRange},
		{`a\`, ErrBogusEscape},
		{`\x4`, ErrBogusEscape},
		{`(a`, ErrMissingParen},
		{`a)`, ErrUnbalancedParen},
		{`*a`, ErrBadRepeat},
		{`a**`, ErrBadRepeat},
		{`a{3,1}`, ErrBadRepeat},
		{`^*`, ErrBadRepeat},
		{`\2`, ErrInvalidGroupRef},
		{`(a\1)`, ErrInvalidGroupRef},
		{`(?P=missing)`, ErrInvalidGroupRef},
		{`(?(5)a)`, ErrInvalidGroupRef},
		{`(?P<1bad>a)`, ErrBadGroupName},
		{`(?P<x>a)(?P<x>b)`, ErrBadGroupName},
		{`(?Q)`, ErrBadExtension},
		{`(?<x)`, ErrBadExtension},
	}
	for _, tt := range tests {
		_, err := Parse([]rune(tt.pattern), 0)
		require.Error(t, err, "pattern %q", tt.pattern)
		assert.True(t, errors.Is(err, tt.want),
			"pattern %q: got %v, want %v", tt.pattern, err, tt.want)

		var pe *ParseError
		require.ErrorAs(t, err, &pe, "pattern %q", tt.pattern)
		assert.Equal(t, tt.pattern, pe.Pattern)
	}
}

func TestParseTooManyGroups(t *testing.T) {
	pattern := strings.Repeat("(a)", maxGroups)
	_, err := Parse([]rune(pattern), 0)
	require.NoError(t, err)

	pattern += "(a)"
	_, err = Parse([]rune(pattern), 0)
	assert.ErrorIs(t, err, ErrTooManyGroups)
}

func TestWidth(t *testing.T) {
	tests := []struct {
		pattern  string
		min, max int
	}{
		{"abc", 3, 3},
		{"a*", 0, MaxWidthCap},
		{"a+", 1, MaxWidthCap},
		{"a?", 0, 1},
		{"a{2,5}", 2, 5},
		{"a|bc", 1, 2},
		{"(ab)+", 2, MaxWidthCap},
		{"^a$", 1, 1},
		{"(?=abc)x", 1, 1},
		{`(a)\1`, 1, MaxWidthCap + 1}, // backref width is unknown
	}
	for _, tt := range tests {
		tree := parse(t, tt.pattern)
		min, max := Width(tree.Root)
		if max > MaxWidthCap {
			max = MaxWidthCap
		}
		wantMax := tt.max
		if wantMax > MaxWidthCap {
			wantMax = MaxWidthCap
		}
		assert.Equal(t, tt.min, min, "pattern %q min", tt.pattern)
		assert.Equal(t, wantMax, max, "pattern %q max", tt.pattern)
	}
}

func TestParseDotAll(t *testing.T) {
	tree := parse(t, ".")
	assert.False(t, tree.Root.All)

	tree2, err := Parse([]rune("."), FlagDotAll)
	require.NoError(t, err)
	assert.True(t, tree2.Root.All)
}
