package codegen

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CommentWidth is the column generated comments wrap at.
const CommentWidth = 80

// NormalizeText NFC-normalizes definition text and collapses runs of
// whitespace, so descriptions render identically whatever line breaks and
// indentation the definition file used.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Wrap normalizes text and breaks it into lines of at most width runes,
// never splitting a word.
func Wrap(text string, width int) []string {
	var lines []string
	var line strings.Builder
	n := 0
	for _, word := range strings.Fields(NormalizeText(text)) {
		w := len([]rune(word))
		if n > 0 && n+1+w > width {
			lines = append(lines, line.String())
			line.Reset()
			n = 0
		}
		if n > 0 {
			line.WriteByte(' ')
			n++
		}
		line.WriteString(word)
		n += w
	}
	if n > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// Comment renders text as line comments with the given indent and prefix,
// wrapped to CommentWidth. Empty text renders nothing.
func Comment(indent, prefix, text string) string {
	text = NormalizeText(text)
	if text == "" {
		return ""
	}
	lead := indent + prefix
	var b strings.Builder
	for _, line := range Wrap(text, CommentWidth-len(lead)) {
		b.WriteString(strings.TrimRight(lead+line, " "))
		b.WriteByte('\n')
	}
	return b.String()
}
