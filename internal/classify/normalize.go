package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagRegex        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)

	// Month-day split from its year by a line break, e.g. "Nov 14,\n2025".
	brokenDateRegex = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{1,2},\s*\n\s*(\d{4})`)
)

// SplitViews parses raw HTML into two lowercase views: the rendered markup
// with tags broken onto separate lines, and the visible text with tokens
// separated by single spaces. Malformed markup never fails; both views fall
// back to the lowercased raw input.
func SplitViews(rawHTML string) (htmlView, textView string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		lower := strings.ToLower(rawHTML)
		return lower, lower
	}

	rendered, err := doc.Html()
	if err != nil {
		lower := strings.ToLower(rawHTML)
		return lower, lower
	}

	htmlView = strings.ToLower(strings.ReplaceAll(rendered, "><", ">\n<"))
	textView = strings.ToLower(strings.TrimSpace(whitespaceRegex.ReplaceAllString(doc.Text(), " ")))
	return htmlView, textView
}

// JoinSplitDigits repairs amounts rendered as separately-styled digit spans
// (e.g. "<span>3</span><span>0</span><span>0</span><span>0</span>" becomes
// "3000"). Tags are replaced by spaces, then whitespace strictly between two
// digits is removed.
func JoinSplitDigits(rawHTML string) string {
	clean := tagRegex.ReplaceAllString(rawHTML, " ")

	runes := []rune(clean)
	var b strings.Builder
	b.Grow(len(clean))

	var prev rune
	for i := 0; i < len(runes); {
		r := runes[i]
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
			prev = r
			i++
			continue
		}

		j := i
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		nextIsDigit := j < len(runes) && unicode.IsDigit(runes[j])
		if !(unicode.IsDigit(prev) && nextIsDigit) {
			b.WriteString(string(runes[i:j]))
			prev = runes[j-1]
		}
		i = j
	}

	return b.String()
}

// JoinBrokenDateLines rejoins a month-day token separated from its year by a
// line break, then replaces remaining line breaks (literal <br>, CRLF, LF)
// with single spaces. Idempotent.
func JoinBrokenDateLines(text string) string {
	text = brokenDateRegex.ReplaceAllString(text, "$1 $2")
	text = strings.ReplaceAll(text, "<br>", " ")
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return text
}
