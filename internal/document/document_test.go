package document

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaan812/mdsum/internal/frontmatter"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSummaryIntoFileWithoutFrontmatter(t *testing.T) {
	path := writeFile(t, "hello.md", "Hello world")

	doc, err := Load(path)
	require.NoError(t, err)
	assert.False(t, doc.HasFrontmatter())

	require.NoError(t, doc.SetSummary("articleGPT", "A greeting.", Field{Key: "show", Value: true}))
	require.NoError(t, Save(doc))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "---\narticleGPT: A greeting.\nshow: true\n---\nHello world", string(got))
}

func TestSummaryPreservesExistingKeysAndBody(t *testing.T) {
	body := "# Title\n\nSome *body* text.\n\n---\n\nAfter a rule.\n"
	path := writeFile(t, "post.md", "---\ntitle: Post\ndate: 2024-01-02\ntags:\n  - a\n  - b\nshow: false\n---\n"+body)

	doc, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, doc.SetSummary("articleGPT", "Summary.", Field{Key: "show", Value: true}))
	require.NoError(t, Save(doc))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(reloaded.Body))
	assert.Equal(t, []string{"title", "date", "tags", "show", "articleGPT"}, reloaded.Frontmatter.Keys())

	show, _ := reloaded.Summary("show")
	assert.Equal(t, "false", show, "existing show value must not change")
	sum, ok := reloaded.Summary("articleGPT")
	assert.True(t, ok)
	assert.Equal(t, "Summary.", sum)
}

func TestSummaryIsIdempotent(t *testing.T) {
	path := writeFile(t, "a.md", "---\ntitle: A\n---\nBody\n")

	for i := 0; i < 2; i++ {
		doc, err := Load(path)
		require.NoError(t, err)
		require.NoError(t, doc.SetSummary("articleGPT", "Same.", Field{Key: "show", Value: true}))
		require.NoError(t, Save(doc))
	}
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	doc, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, doc.SetSummary("articleGPT", "Same.", Field{Key: "show", Value: true}))
	changed, err := doc.Changed()
	require.NoError(t, err)
	assert.False(t, changed)
	require.NoError(t, Save(doc))

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestCRLFFilesKeepLineEndings(t *testing.T) {
	path := writeFile(t, "win.md", "---\r\ntitle: W\r\n---\r\nLine one\r\nLine two\r\n")

	doc, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, doc.SetSummary("articleGPT", "S."))
	require.NoError(t, Save(doc))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "---\r\ntitle: W\r\narticleGPT: S.\r\n---\r\nLine one\r\nLine two\r\n", string(got))
}

func TestByteOrderMarkKeepsExistingFrontmatter(t *testing.T) {
	path := writeFile(t, "bom.md", "\ufeff---\ntitle: Post\n---\nHello world\n")

	doc, err := Load(path)
	require.NoError(t, err)
	assert.True(t, doc.HasFrontmatter())
	assert.True(t, doc.BOM)
	require.NoError(t, doc.SetSummary("articleGPT", "S.", Field{Key: "show", Value: true}))
	require.NoError(t, Save(doc))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\ufeff---\ntitle: Post\narticleGPT: S.\nshow: true\n---\nHello world\n", string(got))

	text, err := doc.Text(false, 0)
	require.NoError(t, err)
	assert.Equal(t, "Hello world\n", text)
}

func TestByteOrderMarkWithoutFrontmatter(t *testing.T) {
	path := writeFile(t, "bom.md", "\ufeffHello world\n")

	doc, err := Load(path)
	require.NoError(t, err)
	assert.False(t, doc.HasFrontmatter())
	require.NoError(t, doc.SetSummary("articleGPT", "S."))

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "\ufeff---\narticleGPT: S.\n---\nHello world\n", string(out))
}

func TestCommentOnlyFrontmatterSurvives(t *testing.T) {
	path := writeFile(t, "notes.md", "---\n# draft notes\n---\nHello\n")

	doc, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, doc.SetSummary("articleGPT", "S."))
	require.NoError(t, Save(doc))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "# draft notes")
	assert.Contains(t, string(got), "articleGPT: S.")
	assert.True(t, strings.HasSuffix(string(got), "---\nHello\n"))
}

func TestMalformedFrontmatter(t *testing.T) {
	path := writeFile(t, "bad.md", "---\ntitle: [oops\n---\nBody\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, frontmatter.ErrMalformed))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSavePreservesMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := writeFile(t, "mode.md", "Body")
	require.NoError(t, os.Chmod(path, 0o640))

	doc, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, doc.SetSummary("articleGPT", "S."))
	require.NoError(t, Save(doc))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestSaveReadOnlyDirectoryFails(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission checks need a non-root unix user")
	}
	path := writeFile(t, "ro.md", "Body")
	dir := filepath.Dir(path)
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	doc, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, doc.SetSummary("articleGPT", "S."))
	assert.Error(t, Save(doc))
}

func TestText(t *testing.T) {
	doc, err := Parse("x.md", []byte("---\na: 1\n---\n# Head\n\nSome **bold** text.\n"))
	require.NoError(t, err)

	raw, err := doc.Text(false, 0)
	require.NoError(t, err)
	assert.Equal(t, "# Head\n\nSome **bold** text.\n", raw)

	plain, err := doc.Text(true, 0)
	require.NoError(t, err)
	assert.Equal(t, "Head\n\nSome bold text.", plain)

	short, err := doc.Text(true, 4)
	require.NoError(t, err)
	assert.Equal(t, "Head", short)
}

func TestTextEmptyBody(t *testing.T) {
	doc, err := Parse("x.md", []byte("---\na: 1\n---\n  \n"))
	require.NoError(t, err)
	_, err = doc.Text(false, 0)
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestTextTruncatesOnRuneBoundary(t *testing.T) {
	doc, err := Parse("x.md", []byte("日本語のテキスト"))
	require.NoError(t, err)
	out, err := doc.Text(false, 3)
	require.NoError(t, err)
	assert.Equal(t, "日本語", out)
}
