package classify

import (
	"math"
	"regexp"
	"strings"
)

// Mail type labels.
const (
	TypePurchase     = "purchase"
	TypeSubscription = "subscription"
	TypeOthers       = "others"
)

// A mail needs at least this many affirming signals to count as a receipt.
const receiptScoreThreshold = 3

var idPattern = regexp.MustCompile(`(?i)(order id|transaction id|txn id|utr|folio|invoice number|invoice no)`)

// Any of these in the body forces the subscription type, regardless of the
// receipt score.
var recurringKeywords = []string{
	"subscription", "renewal", "auto-debit", "recurring", "billing cycle",
	"renews on", "auto-renew",
}

var receiptSubjectKeywords = []string{
	"invoice", "payment", "receipt", "order", "transaction",
	"confirmed", "thank you", "you've made a purchase", "purchase",
}

var receiptBodyKeywords = []string{
	"payment", "transaction", "order", "billed", "charged", "thank",
	"purchase", "purchased",
}

var promoKeywords = []string{"offer", "save", "discount", "sale", "cashback"}

// IsReceipt aggregates independent signals into an integer score: a
// confidently extracted amount (+2), a date pattern in either view (+1), an
// order/transaction ID (+1), a receipt keyword in the subject (+1) or body
// (+1), minus one per promotional keyword hit in subject or body. Scores of
// 0-2 are noise or promo; 3+ means multiple confirmations.
func IsReceipt(text, html, subject string) bool {
	textLower := strings.ToLower(text)
	subjectLower := strings.ToLower(subject)

	score := 0

	// An amount is the strongest receipt signal.
	if amount, conf := ExtractAmount(text, html, subject); amount != "" && conf >= 0.4 {
		score += 2
	}

	if datePattern.MatchString(html) || datePattern.MatchString(textLower) {
		score++
	}

	if idPattern.MatchString(textLower) {
		score++
	}

	if containsAny(subjectLower, receiptSubjectKeywords) {
		score++
	}

	if containsAny(textLower, receiptBodyKeywords) {
		score++
	}

	if containsAny(subjectLower, promoKeywords) {
		score--
	}
	if containsAny(textLower, promoKeywords) {
		score--
	}

	return score >= receiptScoreThreshold
}

// ClassifyType labels a mail. Recurring/subscription wording wins outright;
// otherwise the receipt score decides between purchase and others.
func ClassifyType(text, html, subject string) string {
	if containsAny(strings.ToLower(text), recurringKeywords) {
		return TypeSubscription
	}
	if !IsReceipt(text, html, subject) {
		return TypeOthers
	}
	return TypePurchase
}

// NegationConfidence expresses how certain a non-receipt classification is,
// from a signal set disjoint with the affirming score: no receipt-metadata
// keyword in the subject (+0.4), no amount anywhere (+0.4), no ID pattern
// (+0.2).
func NegationConfidence(text, html, subject string) float64 {
	subjectLower := strings.ToLower(subject)
	textLower := strings.ToLower(text)

	score := 0.0
	if !containsAny(subjectLower, receiptMetaKeywords) {
		score += 0.4
	}
	if amount, _ := ExtractAmount(text, html, subject); amount == "" {
		score += 0.4
	}
	if !idPattern.MatchString(textLower) {
		score += 0.2
	}

	return round3(math.Min(score, 1.0))
}
