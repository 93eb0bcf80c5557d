package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		header  string
		body    string
		newline string
		found   bool
	}{
		{"no frontmatter", "Hello world\n", "", "Hello world\n", "\n", false},
		{"simple", "---\ntitle: A\n---\nBody\n", "title: A\n", "Body\n", "\n", true},
		{"dots close", "---\ntitle: A\n...\nBody", "title: A\n", "Body", "\n", true},
		{"empty block", "---\n---\nBody", "", "Body", "\n", true},
		{"crlf", "---\r\ntitle: A\r\n---\r\nBody\r\n", "title: A\r\n", "Body\r\n", "\r\n", true},
		{"closing at eof", "---\ntitle: A\n---", "title: A\n", "", "\n", true},
		{"unclosed", "---\ntitle: A\nBody\n", "", "---\ntitle: A\nBody\n", "\n", false},
		{"not at top", "\n---\ntitle: A\n---\n", "", "\n---\ntitle: A\n---\n", "\n", false},
		{"trailing spaces on delimiter", "--- \ntitle: A\n---  \nB", "title: A\n", "B", "\n", true},
		{"empty input", "", "", "", "\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, body, nl, found := Split([]byte(tt.input))
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.header, string(header))
			assert.Equal(t, tt.body, string(body))
			assert.Equal(t, tt.newline, nl)
		})
	}
}

func TestParse(t *testing.T) {
	b, err := Parse([]byte("title: Post\ntags: [a, b]\ndraft: false\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "tags", "draft"}, b.Keys())

	v, ok := b.Get("title")
	assert.True(t, ok)
	assert.Equal(t, "Post", v)

	_, ok = b.Get("tags")
	assert.False(t, ok, "sequence values are not scalars")
}

func TestParseEmptyAndNull(t *testing.T) {
	for _, in := range []string{"", "\n", "~\n", "# only a comment\n"} {
		b, err := Parse([]byte(in))
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, 0, b.Len())
	}
}

func TestCommentOnlyHeaderKeepsComment(t *testing.T) {
	b, err := Parse([]byte("# draft notes\n"))
	require.NoError(t, err)

	out, err := Join(b, []byte("Hello\n"), "\n")
	require.NoError(t, err)
	assert.Equal(t, "---\n# draft notes\n---\nHello\n", string(out))

	require.NoError(t, b.Set("articleGPT", "S."))
	out, err = Join(b, []byte("Hello\n"), "\n")
	require.NoError(t, err)
	assert.Contains(t, string(out), "# draft notes\n")
	assert.Contains(t, string(out), "articleGPT: S.\n")

	header, _, _, found := Split(out)
	require.True(t, found)
	again, err := Parse(header)
	require.NoError(t, err)
	assert.Equal(t, []string{"articleGPT"}, again.Keys())
}

func TestTrimBOM(t *testing.T) {
	rest, ok := TrimBOM([]byte(BOM + "---\ntitle: A\n---\n"))
	assert.True(t, ok)
	assert.Equal(t, "---\ntitle: A\n---\n", string(rest))

	rest, ok = TrimBOM([]byte("plain"))
	assert.False(t, ok)
	assert.Equal(t, "plain", string(rest))
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{"title: [unclosed\n", "- a\n- b\n", "just text\n", "a: b\n  c: d\n"} {
		_, err := Parse([]byte(in))
		require.Error(t, err, "input %q", in)
		assert.True(t, errors.Is(err, ErrMalformed))
	}
}

func TestSetPreservesOtherKeys(t *testing.T) {
	b, err := Parse([]byte("title: Post # keep me\nsummary_old: x\ntags:\n  - go\n  - yaml\n"))
	require.NoError(t, err)

	require.NoError(t, b.Set("articleGPT", "A summary."))
	assert.Equal(t, []string{"title", "summary_old", "tags", "articleGPT"}, b.Keys())

	out, err := b.Render()
	require.NoError(t, err)
	assert.Equal(t, "title: Post # keep me\nsummary_old: x\ntags:\n  - go\n  - yaml\narticleGPT: A summary.\n", string(out))
}

func TestSetReplacesInPlace(t *testing.T) {
	b, err := Parse([]byte("articleGPT: old\ntitle: Post\n"))
	require.NoError(t, err)
	require.NoError(t, b.Set("articleGPT", "new"))

	assert.Equal(t, []string{"articleGPT", "title"}, b.Keys())
	v, _ := b.Get("articleGPT")
	assert.Equal(t, "new", v)
}

func TestSetDropsDuplicateKeys(t *testing.T) {
	b, err := Parse([]byte("k: 1\nother: x\nk: 2\n"))
	require.NoError(t, err)
	require.NoError(t, b.Set("k", "v"))
	assert.Equal(t, []string{"k", "other"}, b.Keys())
}

func TestSetQuotesAmbiguousStrings(t *testing.T) {
	b := New()
	require.NoError(t, b.Set("s", "Note: this has a colon"))
	require.NoError(t, b.Set("n", "true"))

	out, err := b.Render()
	require.NoError(t, err)

	again, err := Parse(out)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, again.Decode(&m))
	assert.Equal(t, "Note: this has a colon", m["s"])
	assert.Equal(t, "true", m["n"])
}

func TestSetIfAbsent(t *testing.T) {
	b, err := Parse([]byte("show: false\n"))
	require.NoError(t, err)

	changed, err := b.SetIfAbsent("show", true)
	require.NoError(t, err)
	assert.False(t, changed)
	v, _ := b.Get("show")
	assert.Equal(t, "false", v)

	changed, err = b.SetIfAbsent("other", true)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestJoin(t *testing.T) {
	b := New()
	require.NoError(t, b.Set("articleGPT", "Sum."))

	out, err := Join(b, []byte("Hello world"), "\n")
	require.NoError(t, err)
	assert.Equal(t, "---\narticleGPT: Sum.\n---\nHello world", string(out))

	out, err = Join(b, []byte("Hi\r\n"), "\r\n")
	require.NoError(t, err)
	assert.Equal(t, "---\r\narticleGPT: Sum.\r\n---\r\nHi\r\n", string(out))
}

func TestRoundTripIsStable(t *testing.T) {
	in := "---\ntitle: Post\narticleGPT: Sum.\n---\nBody text\n"
	header, body, nl, found := Split([]byte(in))
	require.True(t, found)
	b, err := Parse(header)
	require.NoError(t, err)
	require.NoError(t, b.Set("articleGPT", "Sum."))

	out, err := Join(b, body, nl)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}
