package classify

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mailtally/mailtally/internal/registry"
)

// Confidence tiers for brand detection. Registry hits are strongest; the
// fallback chain below them carries fixed, lower confidences.
const (
	brandScoreThreshold       = 0.35
	gatewayOverrideConfidence = 0.98
	registryMatchConfidence   = 0.95
	senderInferConfidence     = 0.75
	phraseInferConfidence     = 0.6
	logoInferConfidence       = 0.7
)

// CategoryOthers is the category assigned when no registry brand matched.
const CategoryOthers = "others"

// Payment gateways are intermediaries: when a merchant's own patterns also
// match the text, the merchant wins and the gateway is suppressed.
var gatewayBrands = map[string]bool{
	"razorpay":    true,
	"stripe":      true,
	"cashfree":    true,
	"ccavenue":    true,
	"payu":        true,
	"paypal":      true,
	"google_play": true,
}

var (
	senderDomainRegex = regexp.MustCompile(`@([a-z0-9.-]+)\.(com|in|net|org|co)`)
	capitalizedRegex  = regexp.MustCompile(`\b([A-Z][A-Za-z0-9& ]+)\b`)
	anyLetterRegex    = regexp.MustCompile(`[A-Za-z]`)
)

// Domain labels too generic to name a brand.
var genericSenderLabels = map[string]bool{
	"mail":    true,
	"info":    true,
	"support": true,
	"billing": true,
	"noreply": true,
	"service": true,
}

// Capitalized phrases that are mail boilerplate, not brand names.
var phraseBlacklist = map[string]bool{
	"Dear":      true,
	"Invoice":   true,
	"Order":     true,
	"Payment":   true,
	"Statement": true,
	"Receipt":   true,
	"Thank":     true,
	"Regards":   true,
}

// BrandMatch is the outcome of brand detection. Brand is empty when nothing
// could be identified.
type BrandMatch struct {
	Brand      string
	Category   string
	Confidence float64
}

// matchRegistryBrand scores every brand in the registry against the mail and
// returns the best one, or empty if the winning score is below the
// acceptance threshold. Iteration is over sorted brand names, so selection
// is deterministic regardless of registry file layout; ties on score go to
// the higher priority, then to the first name encountered.
func matchRegistryBrand(reg *registry.Registry, text, sender, subject string) (string, string) {
	bestName := ""
	bestCategory := CategoryOthers
	bestScore := 0.0
	bestPriority := -1

	for _, name := range reg.Names() {
		b := reg.Get(name)

		score := 0.0
		if b.MatchesText(text) {
			score += b.PatternWeight
		}
		if b.MatchesSender(sender) {
			score += b.SenderWeight
		}
		if b.MatchesSubject(subject) {
			score += b.SubjectWeight
		}

		if score > bestScore || (score == bestScore && b.Priority > bestPriority) {
			bestScore = score
			bestPriority = b.Priority
			bestName = name
			bestCategory = b.Category
		}
	}

	if bestScore < brandScoreThreshold {
		return "", CategoryOthers
	}
	return bestName, bestCategory
}

// DetectBrand identifies the brand behind a mail. The registry match wins at
// 0.95, with payment gateways overridden by any directly-matching merchant
// at 0.98. When the registry yields nothing the fallback chain runs:
// sender-domain label (0.75), capitalized phrase in subject+text (0.6), then
// img alt logo text (0.7).
func DetectBrand(reg *registry.Registry, text, rawHTML, sender, subject string) BrandMatch {
	name, category := matchRegistryBrand(reg, text, sender, subject)

	if gatewayBrands[name] {
		for _, merchant := range reg.Names() {
			if gatewayBrands[merchant] {
				continue
			}
			b := reg.Get(merchant)
			if b.MatchesText(text) {
				return BrandMatch{Brand: merchant, Category: b.Category, Confidence: gatewayOverrideConfidence}
			}
		}
	}

	if name != "" {
		return BrandMatch{Brand: name, Category: category, Confidence: registryMatchConfidence}
	}

	if brand := brandFromSender(sender); brand != "" {
		return BrandMatch{Brand: brand, Category: CategoryOthers, Confidence: senderInferConfidence}
	}

	if brand := brandFromText(subject + " " + text); brand != "" {
		return BrandMatch{Brand: brand, Category: CategoryOthers, Confidence: phraseInferConfidence}
	}

	if brand := brandFromLogoAlt(rawHTML); brand != "" {
		return BrandMatch{Brand: brand, Category: CategoryOthers, Confidence: logoInferConfidence}
	}

	return BrandMatch{Category: CategoryOthers}
}

// brandFromSender takes the domain label immediately left of the TLD suffix,
// e.g. "billing@mail.flipkart.com" yields "flipkart". Generic labels are
// rejected.
func brandFromSender(sender string) string {
	m := senderDomainRegex.FindStringSubmatch(strings.ToLower(sender))
	if m == nil {
		return ""
	}

	parts := strings.Split(m[1], ".")
	label := parts[len(parts)-1]
	if genericSenderLabels[label] {
		return ""
	}
	return label
}

// brandFromText returns the first capitalized phrase that is not boilerplate.
func brandFromText(text string) string {
	for _, m := range capitalizedRegex.FindAllStringSubmatch(text, -1) {
		phrase := strings.TrimSpace(m[1])
		if phrase == "" || phraseBlacklist[phrase] {
			continue
		}
		return phrase
	}
	return ""
}

// brandFromLogoAlt scans image alt attributes for short logo-like text:
// at most 4 words with at least one letter.
func brandFromLogoAlt(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	found := ""
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		alt := strings.TrimSpace(s.AttrOr("alt", ""))
		if alt == "" {
			return true
		}
		if len(strings.Fields(alt)) <= 4 && anyLetterRegex.MatchString(alt) {
			found = alt
			return false
		}
		return true
	})
	return found
}
