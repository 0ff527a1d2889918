package inbox

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"github.com/mailtally/mailtally/internal/config"
	"github.com/mailtally/mailtally/internal/record"
)

// Fetcher reads mail from an IMAP mailbox and turns each message into a
// record.Mail ready for classification. Individual unparseable messages are
// logged and skipped; a fetch never aborts over one bad message.
type Fetcher struct {
	config config.InboxConfig
	client *client.Client
}

// NewFetcher creates an inbox fetcher for the given IMAP settings.
func NewFetcher(cfg config.InboxConfig) *Fetcher {
	return &Fetcher{config: cfg}
}

// Connect establishes the IMAP connection and logs in.
func (f *Fetcher) Connect(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", f.config.Server, f.config.Port)

	log.Printf("Connecting to IMAP server %s...", addr)

	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(f.config.Email, f.config.Password); err != nil {
		c.Logout()
		return fmt.Errorf("failed to login: %w", err)
	}

	f.client = c
	log.Printf("Logged in as %s", f.config.Email)
	return nil
}

// Disconnect closes the IMAP connection.
func (f *Fetcher) Disconnect() error {
	if f.client != nil {
		return f.client.Logout()
	}
	return nil
}

// FetchSince fetches messages received in the last N days from the
// configured folder.
func (f *Fetcher) FetchSince(ctx context.Context, days int) ([]record.Mail, error) {
	if f.client == nil {
		return nil, fmt.Errorf("not connected to IMAP server")
	}

	mbox, err := f.client.Select(f.config.Folder, true)
	if err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", f.config.Folder, err)
	}

	if mbox.Messages == 0 {
		return nil, nil
	}

	since := time.Now().AddDate(0, 0, -days)
	criteria := imap.NewSearchCriteria()
	criteria.Since = since

	uids, err := f.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search mailbox: %w", err)
	}

	log.Printf("Found %d messages since %s in %s", len(uids), since.Format("2006-01-02"), f.config.Folder)

	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- f.client.UidFetch(seqSet, items, messages)
	}()

	var mails []record.Mail
	for msg := range messages {
		m, err := parseMessage(msg, section)
		if err != nil {
			log.Printf("Warning: failed to parse message: %v", err)
			continue
		}
		if m != nil {
			mails = append(mails, *m)
		}
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return mails, nil
}

// parseMessage converts an IMAP message into a mail record. The HTML part is
// preferred as the body; the plain-text part is used when no HTML part
// exists (the normalizer copes with either).
func parseMessage(msg *imap.Message, section *imap.BodySectionName) (*record.Mail, error) {
	if msg == nil || msg.Envelope == nil {
		return nil, nil
	}

	m := &record.Mail{
		Subject: msg.Envelope.Subject,
		Date:    msg.Envelope.Date.Format(time.RFC1123Z),
	}

	if len(msg.Envelope.From) > 0 {
		m.Sender = strings.ToLower(msg.Envelope.From[0].Address())
	}

	r := msg.GetBody(section)
	if r == nil {
		return m, nil
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return m, nil // keep envelope data even when the body won't parse
	}

	var plainBody, htmlBody string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := h.ContentType()
			body, _ := io.ReadAll(p.Body)

			if strings.HasPrefix(ct, "text/plain") && plainBody == "" {
				plainBody = string(body)
			} else if strings.HasPrefix(ct, "text/html") && htmlBody == "" {
				htmlBody = string(body)
			}
		}
	}

	m.Body = htmlBody
	if m.Body == "" {
		m.Body = plainBody
	}
	return m, nil
}
