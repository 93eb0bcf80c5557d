// Package frontmatter reads and rewrites the YAML block at the top of a
// Markdown file without disturbing keys it was not asked to change.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// BOM is the UTF-8 byte order mark some editors put at the start of a file.
const BOM = "\xef\xbb\xbf"

// TrimBOM removes a leading byte order mark and reports whether one was
// present. Split expects data without it.
func TrimBOM(data []byte) ([]byte, bool) {
	if bytes.HasPrefix(data, []byte(BOM)) {
		return data[len(BOM):], true
	}
	return data, false
}

// ErrMalformed is returned when a delimited block is present but does not
// hold a YAML mapping.
var ErrMalformed = errors.New("malformed frontmatter")

// Split separates a leading frontmatter block from the body. The block must
// open on the first line; it closes at the next "---" or "..." line. header
// holds the YAML between the delimiters and newline is the line ending used
// by the opening delimiter. found is false when there is no closed block, in
// which case body is data unchanged.
func Split(data []byte) (header, body []byte, newline string, found bool) {
	first, rest, nl, ok := cutLine(data)
	if !ok || string(bytes.TrimRight(first, " \t")) != delim {
		return nil, data, detectNewline(data), false
	}

	offset := len(data) - len(rest)
	for len(rest) > 0 {
		line, next, _, hasNL := cutLine(rest)
		trimmed := string(bytes.TrimRight(line, " \t"))
		if trimmed == delim || trimmed == "..." {
			end := len(data) - len(rest)
			header = data[offset:end]
			if !hasNL {
				return header, nil, nl, true
			}
			return header, next, nl, true
		}
		rest = next
	}
	return nil, data, nl, false
}

// cutLine returns the first line without its terminator, the remainder, and
// the terminator. ok is false when data has no line terminator at all and
// the whole input is the line.
func cutLine(data []byte) (line, rest []byte, newline string, ok bool) {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return data, nil, "", false
	}
	line = data[:i]
	newline = "\n"
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
		newline = "\r\n"
	}
	return line, data[i+1:], newline, true
}

func detectNewline(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i > 0 && data[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// Block is a parsed frontmatter mapping. The underlying node tree keeps key
// order, comments and scalar styles of everything Set does not touch.
type Block struct {
	doc  *yaml.Node
	root *yaml.Node
}

// New returns an empty block.
func New() *Block {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	return &Block{
		doc:  &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}},
		root: root,
	}
}

// Parse decodes header. An empty or null header yields an empty block;
// comments in it are kept.
func Parse(header []byte) (*Block, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(header, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		b := New()
		b.doc.HeadComment = doc.HeadComment
		if b.doc.HeadComment == "" {
			b.doc.HeadComment = commentLines(header)
		}
		return b, nil
	}

	root := doc.Content[0]
	switch {
	case root.Kind == yaml.MappingNode:
	case root.Kind == yaml.ScalarNode && root.Tag == "!!null":
		b := New()
		b.doc.HeadComment = doc.HeadComment
		return b, nil
	default:
		return nil, fmt.Errorf("%w: expected a mapping, got %s", ErrMalformed, kindName(root.Kind))
	}
	return &Block{doc: &doc, root: root}, nil
}

// commentLines returns the comment lines of a header that holds nothing else.
func commentLines(header []byte) string {
	var lines []string
	for _, line := range strings.Split(string(header), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unknown node"
	}
}

// Keys returns the top-level keys in document order.
func (b *Block) Keys() []string {
	keys := make([]string, 0, len(b.root.Content)/2)
	for i := 0; i+1 < len(b.root.Content); i += 2 {
		keys = append(keys, b.root.Content[i].Value)
	}
	return keys
}

// Len returns the number of top-level keys.
func (b *Block) Len() int {
	return len(b.root.Content) / 2
}

func (b *Block) index(key string) int {
	for i := 0; i+1 < len(b.root.Content); i += 2 {
		if b.root.Content[i].Value == key {
			return i
		}
	}
	return -1
}

// Has reports whether key is present.
func (b *Block) Has(key string) bool {
	return b.index(key) >= 0
}

// Get returns the scalar value stored under key.
func (b *Block) Get(key string) (string, bool) {
	i := b.index(key)
	if i < 0 {
		return "", false
	}
	v := b.root.Content[i+1]
	if v.Kind != yaml.ScalarNode {
		return "", false
	}
	return v.Value, true
}

// Set stores value under key, replacing the existing value in place or
// appending a new key. Later duplicates of key are dropped.
func (b *Block) Set(key string, value any) error {
	var node yaml.Node
	if err := node.Encode(value); err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}

	i := b.index(key)
	if i < 0 {
		b.root.Content = append(b.root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&node,
		)
		return nil
	}

	old := b.root.Content[i+1]
	node.LineComment = old.LineComment
	node.FootComment = old.FootComment
	b.root.Content[i+1] = &node
	b.dropDuplicates(key, i)
	return nil
}

// SetIfAbsent stores value only when key is missing. It reports whether the
// block changed.
func (b *Block) SetIfAbsent(key string, value any) (bool, error) {
	if b.Has(key) {
		return false, nil
	}
	return true, b.Set(key, value)
}

func (b *Block) dropDuplicates(key string, keep int) {
	content := b.root.Content[:keep+2]
	for i := keep + 2; i+1 < len(b.root.Content); i += 2 {
		if b.root.Content[i].Value == key {
			continue
		}
		content = append(content, b.root.Content[i], b.root.Content[i+1])
	}
	b.root.Content = content
}

// Decode unmarshals the block into v.
func (b *Block) Decode(v any) error {
	return b.root.Decode(v)
}

// Render encodes the block as YAML, without delimiters. Lines end in "\n".
func (b *Block) Render() ([]byte, error) {
	if b.Len() == 0 {
		if b.doc.HeadComment == "" {
			return nil, nil
		}
		return []byte(b.doc.HeadComment + "\n"), nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(b.doc); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	return buf.Bytes(), nil
}

// Join assembles a complete file from a block and body. newline selects the
// line ending used for the delimiters and the YAML lines.
func Join(b *Block, body []byte, newline string) ([]byte, error) {
	header, err := b.Render()
	if err != nil {
		return nil, err
	}
	if newline == "" {
		newline = "\n"
	}
	if newline != "\n" {
		header = bytes.ReplaceAll(header, []byte("\n"), []byte(newline))
	}

	var out bytes.Buffer
	out.Grow(len(header) + len(body) + 2*(len(delim)+len(newline)))
	out.WriteString(delim + newline)
	out.Write(header)
	out.WriteString(delim + newline)
	out.Write(body)
	return out.Bytes(), nil
}
