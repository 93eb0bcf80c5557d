package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"emphasis and links", "Read [the docs](https://x.y) *now*.", "Read the docs now."},
		{"headings and lists", "## Setup\n\n- one\n- two\n", "Setup\n\none\n\ntwo"},
		{"code block kept", "```go\nfmt.Println(1)\n```\n", "fmt.Println(1)"},
		{"inline code", "Use `go test` here.", "Use go test here."},
		{"html dropped", "<div>x</div>\n\nText", "Text"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText([]byte(tt.in)))
		})
	}
}
