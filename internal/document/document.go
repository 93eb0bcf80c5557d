// Package document loads Markdown files and writes summaries back into
// their frontmatter.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/ishaan812/mdsum/internal/frontmatter"
)

// ErrEmptyBody is returned when a document has no text to summarize.
var ErrEmptyBody = errors.New("document body is empty")

// Field is an extra frontmatter entry written next to the summary.
type Field struct {
	Key   string
	Value any
}

// Document is a Markdown file split into frontmatter and body.
type Document struct {
	Path string
	Mode fs.FileMode
	Raw  []byte
	// Frontmatter is nil when the file has no frontmatter block.
	Frontmatter *frontmatter.Block
	Body        []byte
	Newline     string
	// BOM is set when the file starts with a UTF-8 byte order mark. It is
	// written back ahead of the frontmatter.
	BOM bool
}

// Load reads and splits the file at path.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := Parse(path, raw)
	if err != nil {
		return nil, err
	}
	doc.Mode = info.Mode().Perm()
	return doc, nil
}

// Parse splits raw file content. A delimited block that is not a YAML
// mapping fails with frontmatter.ErrMalformed.
func Parse(path string, raw []byte) (*Document, error) {
	content, bom := frontmatter.TrimBOM(raw)
	header, body, newline, found := frontmatter.Split(content)
	doc := &Document{
		Path:    path,
		Mode:    0o644,
		Raw:     raw,
		Body:    body,
		Newline: newline,
		BOM:     bom,
	}
	if !found {
		return doc, nil
	}
	block, err := frontmatter.Parse(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Frontmatter = block
	return doc, nil
}

// HasFrontmatter reports whether the file had a frontmatter block.
func (d *Document) HasFrontmatter() bool {
	return d.Frontmatter != nil
}

// Summary returns the value stored under key, if any.
func (d *Document) Summary(key string) (string, bool) {
	if d.Frontmatter == nil {
		return "", false
	}
	return d.Frontmatter.Get(key)
}

// SetSummary stores summary under key, creating the frontmatter block when
// the file has none. extras are only added when their key is absent.
func (d *Document) SetSummary(key, summary string, extras ...Field) error {
	if d.Frontmatter == nil {
		d.Frontmatter = frontmatter.New()
	}
	if err := d.Frontmatter.Set(key, summary); err != nil {
		return err
	}
	for _, f := range extras {
		if _, err := d.Frontmatter.SetIfAbsent(f.Key, f.Value); err != nil {
			return err
		}
	}
	return nil
}

// Bytes renders the file. The body is emitted exactly as it was read.
func (d *Document) Bytes() ([]byte, error) {
	if d.Frontmatter == nil {
		return d.Raw, nil
	}
	out, err := frontmatter.Join(d.Frontmatter, d.Body, d.Newline)
	if err != nil || !d.BOM {
		return out, err
	}
	return append([]byte(frontmatter.BOM), out...), nil
}

// Changed reports whether Bytes differs from the content on disk.
func (d *Document) Changed() (bool, error) {
	out, err := d.Bytes()
	if err != nil {
		return false, err
	}
	return !bytes.Equal(out, d.Raw), nil
}

// Text returns the body prepared for summarization. When strip is set the
// Markdown is reduced to plain text; maxChars > 0 truncates on a rune boundary.
func (d *Document) Text(strip bool, maxChars int) (string, error) {
	text := string(d.Body)
	if strip {
		text = PlainText(d.Body)
	}
	if len(bytes.TrimSpace([]byte(text))) == 0 {
		return "", ErrEmptyBody
	}
	if maxChars > 0 && utf8.RuneCountInString(text) > maxChars {
		runes := []rune(text)
		text = string(runes[:maxChars])
	}
	return text, nil
}

// Save writes the document back to its path atomically. Unchanged
// documents are not rewritten.
func Save(d *Document) error {
	out, err := d.Bytes()
	if err != nil {
		return err
	}
	if bytes.Equal(out, d.Raw) {
		return nil
	}
	if err := WriteFile(d.Path, out, d.Mode); err != nil {
		return err
	}
	d.Raw = out
	return nil
}

// WriteFile replaces path with content through a temp file in the same
// directory, so readers never observe a partially written file.
func WriteFile(path string, content []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mdsum-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	success = true
	return nil
}
