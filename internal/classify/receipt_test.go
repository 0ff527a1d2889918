package classify

import "testing"

func TestIsReceipt(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		html    string
		subject string
		want    bool
	}{
		{
			name:    "amount id and keywords",
			text:    "thank you for your order. total: rs. 2500. order id: 123",
			html:    "<p>total: rs. 2500</p>",
			subject: "Order confirmed",
			want:    true,
		},
		{
			name:    "two signals only",
			text:    "thank you for your payment",
			subject: "payment update",
			want:    false,
		},
		{
			name:    "third signal tips the score",
			text:    "thank you for your payment. transaction id: 42",
			subject: "payment update",
			want:    true,
		},
		{
			name:    "promotional mail",
			text:    "save big discount offer on everything",
			subject: "Mega Sale! 50% off this week",
			want:    false,
		},
		{
			name: "empty mail",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReceipt(tt.text, tt.html, tt.subject); got != tt.want {
				t.Errorf("IsReceipt = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyType(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		html    string
		subject string
		want    string
	}{
		{
			name:    "receipt is a purchase",
			text:    "thank you for your order. total: rs. 2500. order id: 123",
			html:    "<p>total: rs. 2500</p>",
			subject: "Order confirmed",
			want:    TypePurchase,
		},
		{
			name: "recurring wording wins regardless of score",
			text: "your auto-renew is now active",
			want: TypeSubscription,
		},
		{
			name: "subscription keyword in a receipt",
			text: "your subscription payment of rs. 499. transaction id: 9",
			want: TypeSubscription,
		},
		{
			name:    "promo is others",
			text:    "save big discount offer on everything",
			subject: "Mega Sale! 50% off this week",
			want:    TypeOthers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyType(tt.text, tt.html, tt.subject); got != tt.want {
				t.Errorf("ClassifyType = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNegationConfidence(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		html    string
		subject string
		want    float64
	}{
		{
			name:    "no receipt traces at all",
			text:    "save big this week",
			subject: "50% off sale this week!",
			want:    1.0,
		},
		{
			name:    "receipt word in subject",
			text:    "see the attached document",
			subject: "your payment summary",
			want:    0.6,
		},
		{
			name:    "amount present",
			text:    "flat price total: rs. 750 forever",
			subject: "news from us",
			want:    0.6,
		},
		{
			name:    "only the id is missing",
			text:    "total: rs. 750 for your order",
			subject: "order shipped",
			want:    0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NegationConfidence(tt.text, tt.html, tt.subject); !approx(got, tt.want) {
				t.Errorf("NegationConfidence = %v, want %v", got, tt.want)
			}
		})
	}
}
