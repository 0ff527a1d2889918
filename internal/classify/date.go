package classify

import (
	"math"
	"regexp"
)

// datePattern recognizes "D Mon YY(YY)", "Mon D, YYYY", "D Mon YYYY",
// ISO YYYY-MM-DD (or slashes), and D/M/YY(YY). Month names match by 3-letter
// prefix, case-insensitively.
var datePattern = regexp.MustCompile(`(?i)(\b\d{1,2}[-/ ]?(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[-/ ]?\d{2,4}\b|\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{1,2},\s*\d{4}\b|\b\d{1,2}\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{4}\b|\b\d{4}[-/]\d{2}[-/]\d{2}\b|\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b)`)

// Keywords whose presence in the subject marks receipt metadata context.
var receiptMetaKeywords = []string{"invoice", "receipt", "payment", "purchase", "order", "transaction"}

const (
	dateViewConfidence    = 0.6
	dateSubjectBonus      = 0.2
	dateMetaFallbackScore = 0.5
)

// ExtractDate finds the transaction date. The broken-line-joined HTML view
// is searched first (0.6, +0.2 with receipt context in the subject), then
// the text view (flat 0.6). With receipt context but no match, the mail's
// declared metadata date is trusted at 0.5.
func ExtractDate(text, html, metaDate, subject string) (string, float64) {
	cleanHTML := JoinBrokenDateLines(html)
	cleanText := JoinBrokenDateLines(text)

	if m := datePattern.FindString(cleanHTML); m != "" {
		confidence := dateViewConfidence
		if containsAny(subject, receiptMetaKeywords) {
			confidence += dateSubjectBonus
		}
		return m, math.Min(confidence, 1.0)
	}

	if m := datePattern.FindString(cleanText); m != "" {
		return m, dateViewConfidence
	}

	if containsAny(subject, receiptMetaKeywords) {
		return metaDate, dateMetaFallbackScore
	}

	return "", 0.0
}
