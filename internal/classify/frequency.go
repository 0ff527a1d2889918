package classify

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// Billing frequency labels.
const (
	FreqWeekly     = "weekly"
	FreqMonthly    = "monthly"
	FreqYearly     = "yearly"
	FreqQuarterly  = "quarterly"
	FreqSemiAnnual = "semi_annual"
)

const (
	freqKeywordConfidence   = 0.9
	freqShorthandConfidence = 0.85
	freqRenewsConfidence    = 0.7
	freqIntervalConfidence  = 0.75
)

type freqFamily struct {
	name     string
	patterns []*regexp.Regexp
}

// Keyword families per frequency, checked in this fixed order; the first
// pattern hit anywhere wins.
var freqFamilies = []freqFamily{
	{FreqWeekly, compileAll(
		`\bweekly\b`,
		`\bevery week\b`,
		`\bper week\b`,
		`\brenews weekly\b`,
		`\b7 days\b`,
		`/\s*week`,
		`\bwk\b`,
	)},
	{FreqMonthly, compileAll(
		`\bmonthly\b`,
		`\bevery month\b`,
		`\bper month\b`,
		`\bbilled monthly\b`,
		`\brenews monthly\b`,
		`/\s*mo\b`,
		`/\s*mon\b`,
		`\b30 days\b`,
		`\bevery 30 days\b`,
	)},
	{FreqYearly, compileAll(
		`\byearly\b`,
		`\bannual\b`,
		`\bannually\b`,
		`\bper year\b`,
		`\bbilled yearly\b`,
		`\brenews yearly\b`,
		`/\s*yr\b`,
		`/\s*year\b`,
		`\b12 months\b`,
	)},
	{FreqQuarterly, compileAll(
		`\bquarterly\b`,
		`\bevery 3 months\b`,
		`\b3 months\b`,
	)},
	{FreqSemiAnnual, compileAll(
		`\bsemi[- ]?annual\b`,
		`\bevery 6 months\b`,
		`\b6 months\b`,
	)},
}

var (
	monthShorthandRegex = regexp.MustCompile(`/\s*(mo|mon|month)`)
	yearShorthandRegex  = regexp.MustCompile(`/\s*(yr|year)`)
	weekShorthandRegex  = regexp.MustCompile(`/\s*wk`)

	slashDateRegex = regexp.MustCompile(`\b(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})\b`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// ExtractFrequency detects the billing frequency of a subscription mail.
// Detection tiers, first hit wins: direct keyword families (0.9), pricing
// shorthand like "$9.99/mo" (0.85), "renews on" co-occurring with a month or
// year mention (0.7), and finally the day gap between the first two D/M/Y
// date tokens (0.75). Returns empty with 0.0 when nothing matches.
func ExtractFrequency(text string) (string, float64) {
	text = strings.ToLower(text)

	for _, family := range freqFamilies {
		for _, pattern := range family.patterns {
			if pattern.MatchString(text) {
				return family.name, freqKeywordConfidence
			}
		}
	}

	if monthShorthandRegex.MatchString(text) {
		return FreqMonthly, freqShorthandConfidence
	}
	if yearShorthandRegex.MatchString(text) {
		return FreqYearly, freqShorthandConfidence
	}
	if weekShorthandRegex.MatchString(text) {
		return FreqWeekly, freqShorthandConfidence
	}

	if strings.Contains(text, "renews on") && strings.Contains(text, "month") {
		return FreqMonthly, freqRenewsConfidence
	}
	if strings.Contains(text, "renews on") && strings.Contains(text, "year") {
		return FreqYearly, freqRenewsConfidence
	}

	if freq := frequencyFromDateGap(text); freq != "" {
		return freq, freqIntervalConfidence
	}

	return "", 0.0
}

// frequencyFromDateGap infers the billing cycle from the absolute day gap
// between the first two day/month/year tokens, e.g. a billing date and the
// next renewal date. Unparseable tokens yield no inference.
func frequencyFromDateGap(text string) string {
	matches := slashDateRegex.FindAllString(text, -1)
	if len(matches) < 2 {
		return ""
	}

	d1, err := time.Parse("2/1/2006", matches[0])
	if err != nil {
		return ""
	}
	d2, err := time.Parse("2/1/2006", matches[1])
	if err != nil {
		return ""
	}

	days := int(math.Abs(d2.Sub(d1).Hours() / 24))
	switch {
	case days >= 27 && days <= 33:
		return FreqMonthly
	case days >= 350 && days <= 380:
		return FreqYearly
	case days >= 6 && days <= 8:
		return FreqWeekly
	}
	return ""
}
