package classify

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Amounts outside this range are treated as noise (stray digits, phone
// numbers, tracking IDs).
const (
	minPlausibleAmount = 10
	maxPlausibleAmount = 100000000
)

const amountScoreThreshold = 0.45

// Candidate scoring: HTML hits outrank plain-text hits, receipt context in
// subject and body adds weight, and a trailing percent sign marks a discount
// figure rather than a charge.
const (
	amountHTMLBase       = 0.4
	amountTextBase       = 0.3
	amountSubjectBonus   = 0.3
	amountKeywordBonus   = 0.2
	amountPercentPenalty = 0.5
)

// Currency-prefixed, currency-suffixed, and bare total:/amount: forms for
// INR and USD notations. Digit groups allow comma or space thousands
// separators and an optional 1-2 digit decimal part.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:rs\.?|inr|₹)\s*([0-9]{1,3}(?:[, ]?[0-9]{2,3})*(?:\.[0-9]{1,2})?)`),
	regexp.MustCompile(`(?i)([0-9]{1,3}(?:[, ]?[0-9]{2,3})*(?:\.[0-9]{1,2})?)\s*(?:rs\.?|inr|₹)`),
	regexp.MustCompile(`(?i)(?:usd|us\$|\$)\s*([0-9]{1,3}(?:[, ]?[0-9]{2,3})*(?:\.[0-9]{1,2})?)`),
	regexp.MustCompile(`(?i)([0-9]{1,3}(?:[, ]?[0-9]{2,3})*(?:\.[0-9]{1,2})?)\s*(?:usd|us\$|\$)`),
	regexp.MustCompile(`(?i)\btotal[: ]*([0-9]{1,3}(?:[, ]?[0-9]{2,3})*(?:\.[0-9]{1,2})?)\b`),
	regexp.MustCompile(`(?i)\bamount(?: paid| due| charged)?[: ]*([0-9]{1,3}(?:[, ]?[0-9]{2,3})*(?:\.[0-9]{1,2})?)`),
}

var amountSubjectKeywords = []string{"invoice", "receipt", "order", "payment"}

var amountBodyKeywords = []string{"total", "amount", "paid", "charged", "transaction"}

// amountCandidate is a transient regex hit awaiting contextual scoring.
type amountCandidate struct {
	source string // "html" or "text"
	value  float64
}

// cleanAmount strips thousands separators and stray currency tokens from a
// captured amount string.
func cleanAmount(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "us$", "")
	s = strings.ReplaceAll(s, "usd", "")
	return strings.TrimSpace(s)
}

// parseAmount accepts only plain decimal strings: digits with at most one
// dot. Anything else never reaches scoring.
func parseAmount(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	dots := 0
	for _, r := range s {
		if r == '.' {
			dots++
			if dots > 1 {
				return 0, false
			}
			continue
		}
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// isValidAmount is the sanity filter for detected amounts.
func isValidAmount(s string) bool {
	v, ok := parseAmount(s)
	return ok && v >= minPlausibleAmount && v <= maxPlausibleAmount
}

// formatAmount renders an amount as a decimal string; whole values keep one
// trailing decimal ("1500.0").
func formatAmount(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func collectAmounts(source, s string) []amountCandidate {
	var out []amountCandidate
	for _, pattern := range amountPatterns {
		for _, m := range pattern.FindAllStringSubmatch(s, -1) {
			amt := cleanAmount(m[1])
			if !isValidAmount(amt) {
				continue
			}
			v, _ := parseAmount(amt)
			out = append(out, amountCandidate{source: source, value: v})
		}
	}
	return out
}

// ExtractAmount finds the transaction amount in a mail. The digit-joined
// HTML view is searched first, then the plain text; every hit is scored in
// context and the best is returned as a decimal string with a confidence in
// [0,1]. Returns empty when nothing scores above the acceptance threshold.
func ExtractAmount(text, html, subject string) (string, float64) {
	subjectLower := strings.ToLower(subject)
	textLower := strings.ToLower(text)

	normalized := JoinSplitDigits(html)

	candidates := collectAmounts("html", normalized)
	candidates = append(candidates, collectAmounts("text", textLower)...)
	if len(candidates) == 0 {
		return "", 0.0
	}

	bestValue := 0.0
	bestScore := math.Inf(-1)
	for _, cand := range candidates {
		score := amountTextBase
		if cand.source == "html" {
			score = amountHTMLBase
		}
		if containsAny(subjectLower, amountSubjectKeywords) {
			score += amountSubjectBonus
		}
		if containsAny(textLower, amountBodyKeywords) {
			score += amountKeywordBonus
		}
		if strings.Contains(textLower, formatAmount(cand.value)+"%") {
			score -= amountPercentPenalty
		}

		if score > bestScore {
			bestScore = score
			bestValue = cand.value
		}
	}

	if bestScore < amountScoreThreshold {
		return "", 0.0
	}
	return formatAmount(bestValue), round3(math.Min(bestScore, 1.0))
}
