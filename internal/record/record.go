package record

import (
	"encoding/json"
	"fmt"
	"os"
)

// Mail is one raw input record: sender address, subject line, the declared
// metadata date (free text, not guaranteed parseable), and the HTML body.
type Mail struct {
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Date    string `json:"date,omitempty"`
	Body    string `json:"body,omitempty"`
}

// Classification holds the derived fields produced by the pipeline. Fields
// are set once in a fixed order and never revisited; absent fields are
// omitted from serialized output. Date/DateConfidence apply to purchases,
// StartDate/Frequency to subscriptions.
type Classification struct {
	Brand               string  `json:"brand,omitempty"`
	Category            string  `json:"category"`
	Type                string  `json:"type"`
	Amount              string  `json:"amount,omitempty"`
	AmountConfidence    float64 `json:"amount_confidence,omitempty"`
	Date                string  `json:"date,omitempty"`
	DateConfidence      float64 `json:"date_confidence,omitempty"`
	StartDate           string  `json:"start_date,omitempty"`
	StartDateConfidence float64 `json:"start_date_confidence,omitempty"`
	Frequency           string  `json:"frequency,omitempty"`
	FrequencyConfidence float64 `json:"frequency_confidence,omitempty"`
	OverallConfidence   float64 `json:"overall_confidence"`
}

// Result is one classified mail: the input record's identity with derived
// fields merged in. The declared metadata date is kept under meta_date so it
// cannot collide with the extracted transaction date.
type Result struct {
	Sender   string `json:"sender"`
	Subject  string `json:"subject"`
	MetaDate string `json:"meta_date,omitempty"`
	Classification
}

// NewResult merges a mail's identity with its classification.
func NewResult(m Mail, c Classification) Result {
	return Result{
		Sender:         m.Sender,
		Subject:        m.Subject,
		MetaDate:       m.Date,
		Classification: c,
	}
}

// batchMail is the upstream exporter's record shape.
type batchMail struct {
	Metadata struct {
		From    string `json:"from"`
		Subject string `json:"subject"`
		Date    string `json:"date"`
	} `json:"metadata"`
	Body string `json:"body"`
}

// LoadBatch reads a JSON array of exported mail records.
func LoadBatch(path string) ([]Mail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mail batch: %w", err)
	}

	var raw []batchMail
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse mail batch: %w", err)
	}

	mails := make([]Mail, len(raw))
	for i, m := range raw {
		mails[i] = Mail{
			Sender:  m.Metadata.From,
			Subject: m.Metadata.Subject,
			Date:    m.Metadata.Date,
			Body:    m.Body,
		}
	}
	return mails, nil
}

// SaveBatch writes classified results as an indented JSON array.
func SaveBatch(path string, results []Result) error {
	data, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to serialize results: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
