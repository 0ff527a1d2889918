package classify

import (
	"math"
	"strings"

	"github.com/mailtally/mailtally/internal/record"
	"github.com/mailtally/mailtally/internal/registry"
)

// Classifier runs the classification pipeline against an immutable brand
// registry. It holds no mutable state and is safe for concurrent use; each
// mail is classified independently of every other.
type Classifier struct {
	reg *registry.Registry
}

// New returns a classifier backed by the given registry.
func New(reg *registry.Registry) *Classifier {
	return &Classifier{reg: reg}
}

// Classify annotates a single mail, in fixed field order: brand, type,
// amount, date/frequency, overall confidence. The overall confidence of a
// receipt is the mean of amount and date confidences; for subscriptions the
// frequency confidence is intentionally not part of that average. Non-receipt
// mail carries the negation confidence instead.
func (c *Classifier) Classify(m record.Mail) record.Classification {
	sender := strings.ToLower(m.Sender)
	subject := strings.ToLower(m.Subject)

	htmlView, textView := SplitViews(m.Body)

	brand := DetectBrand(c.reg, textView, m.Body, sender, subject)
	mailType := ClassifyType(textView, htmlView, subject)

	out := record.Classification{
		Brand:    brand.Brand,
		Category: brand.Category,
		Type:     mailType,
	}

	if mailType == TypeOthers {
		out.OverallConfidence = NegationConfidence(textView, htmlView, subject)
		return out
	}

	amount, amountConf := ExtractAmount(textView, htmlView, subject)
	date, dateConf := ExtractDate(textView, htmlView, m.Date, subject)

	out.Amount = amount
	out.AmountConfidence = amountConf

	switch mailType {
	case TypePurchase:
		out.Date = date
		out.DateConfidence = dateConf
	case TypeSubscription:
		frequency, freqConf := ExtractFrequency(textView)
		out.StartDate = date
		out.StartDateConfidence = dateConf
		out.Frequency = frequency
		out.FrequencyConfidence = freqConf
	}

	out.OverallConfidence = round3((amountConf + dateConf) / 2)
	return out
}

// ClassifyBatch classifies mails sequentially, preserving input order.
// Callers that want parallelism can fan out over Classify directly; mails
// never affect one another.
func (c *Classifier) ClassifyBatch(mails []record.Mail) []record.Classification {
	results := make([]record.Classification, len(mails))
	for i, m := range mails {
		results[i] = c.Classify(m)
	}
	return results
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
