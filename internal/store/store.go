package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mailtally/mailtally/internal/record"
)

// Row is one persisted classification: the input mail (body kept so a
// record can be reclassified later), its derived fields, and bookkeeping.
type Row struct {
	ID          int64
	Mail        record.Mail
	Result      record.Classification
	NeedsReview bool
	CreatedAt   time.Time
}

// Summary counts stored classifications per type.
type Summary struct {
	Total         int
	Purchases     int
	Subscriptions int
	Others        int
	NeedsReview   int
}

type Store struct {
	db              *sql.DB
	reviewThreshold float64
}

const schema = `
CREATE TABLE IF NOT EXISTS classifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sender TEXT NOT NULL,
	subject TEXT NOT NULL,
	meta_date TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL DEFAULT '',
	brand TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	mail_type TEXT NOT NULL,
	amount TEXT NOT NULL DEFAULT '',
	amount_confidence REAL NOT NULL DEFAULT 0,
	mail_date TEXT NOT NULL DEFAULT '',
	date_confidence REAL NOT NULL DEFAULT 0,
	start_date TEXT NOT NULL DEFAULT '',
	start_date_confidence REAL NOT NULL DEFAULT 0,
	frequency TEXT NOT NULL DEFAULT '',
	frequency_confidence REAL NOT NULL DEFAULT 0,
	overall_confidence REAL NOT NULL DEFAULT 0,
	needs_review INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_classifications_type ON classifications(mail_type);
CREATE INDEX IF NOT EXISTS idx_classifications_brand ON classifications(brand);
`

// Open creates (if needed) and opens the results database at dbPath.
// Results whose overall confidence is below reviewThreshold are flagged for
// manual review.
func Open(dbPath string, reviewThreshold float64) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, reviewThreshold: reviewThreshold}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists one classified mail and returns its row ID.
func (s *Store) Save(m record.Mail, c record.Classification) (int64, error) {
	needsReview := 0
	if c.OverallConfidence < s.reviewThreshold {
		needsReview = 1
	}

	res, err := s.db.Exec(`
		INSERT INTO classifications (
			sender, subject, meta_date, body,
			brand, category, mail_type,
			amount, amount_confidence,
			mail_date, date_confidence,
			start_date, start_date_confidence,
			frequency, frequency_confidence,
			overall_confidence, needs_review
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Sender, m.Subject, m.Date, m.Body,
		c.Brand, c.Category, c.Type,
		c.Amount, c.AmountConfidence,
		c.Date, c.DateConfidence,
		c.StartDate, c.StartDateConfidence,
		c.Frequency, c.FrequencyConfidence,
		c.OverallConfidence, needsReview,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save classification: %w", err)
	}
	return res.LastInsertId()
}

const rowColumns = `id, sender, subject, meta_date, body,
	brand, category, mail_type,
	amount, amount_confidence,
	mail_date, date_confidence,
	start_date, start_date_confidence,
	frequency, frequency_confidence,
	overall_confidence, needs_review, created_at`

// scanRow handles nullable created_at when scanning a row
func scanRow(scanner interface{ Scan(...any) error }) (*Row, error) {
	var r Row
	var needsReview int
	var createdAt sql.NullTime

	err := scanner.Scan(&r.ID, &r.Mail.Sender, &r.Mail.Subject, &r.Mail.Date, &r.Mail.Body,
		&r.Result.Brand, &r.Result.Category, &r.Result.Type,
		&r.Result.Amount, &r.Result.AmountConfidence,
		&r.Result.Date, &r.Result.DateConfidence,
		&r.Result.StartDate, &r.Result.StartDateConfidence,
		&r.Result.Frequency, &r.Result.FrequencyConfidence,
		&r.Result.OverallConfidence, &needsReview, &createdAt)
	if err != nil {
		return nil, err
	}

	r.NeedsReview = needsReview != 0
	r.CreatedAt = createdAt.Time
	return &r, nil
}

// Get returns a single stored classification by ID.
func (s *Store) Get(id int64) (*Row, error) {
	row, err := scanRow(s.db.QueryRow(
		`SELECT `+rowColumns+` FROM classifications WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("classification %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load classification %d: %w", id, err)
	}
	return row, nil
}

func (s *Store) queryRows(query string, args ...any) ([]Row, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query classifications: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// List returns the most recent classifications, newest first.
func (s *Store) List(limit int) ([]Row, error) {
	return s.queryRows(
		`SELECT `+rowColumns+` FROM classifications ORDER BY id DESC LIMIT ?`, limit)
}

// ListByType returns the most recent classifications of one mail type.
func (s *Store) ListByType(mailType string, limit int) ([]Row, error) {
	return s.queryRows(
		`SELECT `+rowColumns+` FROM classifications WHERE mail_type = ? ORDER BY id DESC LIMIT ?`,
		mailType, limit)
}

// UpdateClassification replaces the derived fields of a stored row, e.g.
// after reclassifying against an updated registry.
func (s *Store) UpdateClassification(id int64, c record.Classification) error {
	needsReview := 0
	if c.OverallConfidence < s.reviewThreshold {
		needsReview = 1
	}

	res, err := s.db.Exec(`
		UPDATE classifications SET
			brand = ?, category = ?, mail_type = ?,
			amount = ?, amount_confidence = ?,
			mail_date = ?, date_confidence = ?,
			start_date = ?, start_date_confidence = ?,
			frequency = ?, frequency_confidence = ?,
			overall_confidence = ?, needs_review = ?
		WHERE id = ?`,
		c.Brand, c.Category, c.Type,
		c.Amount, c.AmountConfidence,
		c.Date, c.DateConfidence,
		c.StartDate, c.StartDateConfidence,
		c.Frequency, c.FrequencyConfidence,
		c.OverallConfidence, needsReview, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update classification %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("classification %d not found", id)
	}
	return nil
}

// Summarize counts stored classifications by type.
func (s *Store) Summarize() (*Summary, error) {
	rows, err := s.db.Query(
		`SELECT mail_type, COUNT(*), SUM(needs_review) FROM classifications GROUP BY mail_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize classifications: %w", err)
	}
	defer rows.Close()

	summary := &Summary{}
	for rows.Next() {
		var mailType string
		var count, review int
		if err := rows.Scan(&mailType, &count, &review); err != nil {
			return nil, err
		}
		summary.Total += count
		summary.NeedsReview += review
		switch mailType {
		case "purchase":
			summary.Purchases = count
		case "subscription":
			summary.Subscriptions = count
		case "others":
			summary.Others = count
		}
	}
	return summary, rows.Err()
}
