package classify

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"1500", 1500, true},
		{"499.5", 499.5, true},
		{"", 0, false},
		{"1.2.3", 0, false},
		{"12a", 0, false},
		{"-5", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseAmount(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("parseAmount(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestIsValidAmount(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"9", false},
		{"10", true},
		{"100000000", true},
		{"100000001", false},
		{"9.99", false},
		{"10.01", true},
		{"abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := isValidAmount(tt.input); got != tt.want {
				t.Errorf("isValidAmount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{1500, "1500.0"},
		{499.5, "499.5"},
		{1234.56, "1234.56"},
		{10, "10.0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatAmount(tt.input); got != tt.want {
				t.Errorf("formatAmount(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1,500", "1500"},
		{"12,34,567", "1234567"},
		{" 499 ", "499"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := cleanAmount(tt.input); got != tt.want {
				t.Errorf("cleanAmount(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		html       string
		subject    string
		wantAmount string
		wantConf   float64
	}{
		{
			name:       "html hit with full context",
			text:       "amount paid for your order",
			html:       "<p>amount: rs. 1,500</p>",
			subject:    "Payment receipt",
			wantAmount: "1500.0",
			wantConf:   0.9,
		},
		{
			name:       "bare text hit below threshold",
			text:       "rs. 500 something",
			html:       "",
			subject:    "hello",
			wantAmount: "",
			wantConf:   0.0,
		},
		{
			name:       "discount percentage rejected",
			text:       "get 20.0% off. total amount 20 rs.",
			html:       "",
			subject:    "invoice",
			wantAmount: "",
			wantConf:   0.0,
		},
		{
			name:       "digit spans rejoined before matching",
			text:       "",
			html:       "Rs. <span>3</span><span>0</span><span>0</span><span>0</span>",
			subject:    "Order update",
			wantAmount: "3000.0",
			wantConf:   0.7,
		},
		{
			name:       "html candidate preferred over text",
			text:       "total paid rs. 999",
			html:       "<p>rs. 2000</p>",
			subject:    "",
			wantAmount: "2000.0",
			wantConf:   0.6,
		},
		{
			name:       "no candidates",
			text:       "no numbers here",
			html:       "",
			subject:    "",
			wantAmount: "",
			wantConf:   0.0,
		},
		{
			name:       "implausible value filtered",
			text:       "rs. 5 charged",
			html:       "",
			subject:    "",
			wantAmount: "",
			wantConf:   0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, conf := ExtractAmount(tt.text, tt.html, tt.subject)
			if amount != tt.wantAmount {
				t.Errorf("amount: got %q, want %q", amount, tt.wantAmount)
			}
			if !approx(conf, tt.wantConf) {
				t.Errorf("confidence: got %v, want %v", conf, tt.wantConf)
			}
		})
	}
}
