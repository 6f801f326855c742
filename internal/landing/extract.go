package landing

import (
	"regexp"
	"strings"
)

const doctype = "<!DOCTYPE html>"

var (
	doctypeDocument = regexp.MustCompile(`(?is)<!DOCTYPE html>.*</html>`)
	htmlDocument    = regexp.MustCompile(`(?is)<html.*</html>`)
)

// ExtractHTML pulls the HTML document out of raw output that may carry
// commentary around it. A document without a doctype gets one prepended.
func ExtractHTML(raw string) (string, bool) {
	if m := doctypeDocument.FindString(raw); m != "" {
		return m, true
	}
	if m := htmlDocument.FindString(raw); m != "" {
		return doctype + "\n" + m, true
	}
	return "", false
}

// looksLikeHTML reports whether polled content is complete enough to accept
func looksLikeHTML(content string, minLength int) bool {
	return len(content) >= minLength && strings.Contains(strings.ToLower(content), "<html")
}
