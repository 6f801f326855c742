package landing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractHTML(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{
			name:     "doctype document with commentary",
			raw:      "blah <!DOCTYPE html><html><body>x</body></html> blah",
			expected: "<!DOCTYPE html><html><body>x</body></html>",
			ok:       true,
		},
		{
			name:     "html without doctype",
			raw:      "Here you go: <html lang=\"en\"><body>x</body></html>",
			expected: "<!DOCTYPE html>\n<html lang=\"en\"><body>x</body></html>",
			ok:       true,
		},
		{
			name:     "case insensitive",
			raw:      "<!doctype HTML><HTML><BODY>x</BODY></HTML>",
			expected: "<!doctype HTML><HTML><BODY>x</BODY></HTML>",
			ok:       true,
		},
		{
			name:     "multiline greedy to last closing tag",
			raw:      "<!DOCTYPE html>\n<html>\n<body>a</html>b</html>\ntrailing",
			expected: "<!DOCTYPE html>\n<html>\n<body>a</html>b</html>",
			ok:       true,
		},
		{
			name: "no html tag",
			raw:  "I could not generate the page.",
		},
		{
			name: "unterminated document",
			raw:  "<html><body>x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, ok := ExtractHTML(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, html)
		})
	}
}

func TestLooksLikeHTML(t *testing.T) {
	long := strings.Repeat("a", 100)
	assert.True(t, looksLikeHTML("<HTML>"+long, 100))
	assert.False(t, looksLikeHTML("<html>", 100))
	assert.False(t, looksLikeHTML(long, 100))
}
