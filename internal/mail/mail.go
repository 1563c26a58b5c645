// Package mail delivers the weekly report: over SMTP, through the Gmail API,
// or into the log for dry runs.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"time"
)

type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
	Date    time.Time
}

type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// RFC822 renders a plain-text UTF-8 message.
func (m Message) RFC822() []byte {
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(m.Body, "\r\n", "\n"), "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}

func (m Message) validate() error {
	if strings.TrimSpace(m.From) == "" {
		return fmt.Errorf("sender address is empty")
	}
	if len(m.To) == 0 {
		return fmt.Errorf("no recipients")
	}
	return nil
}

// LogSender only logs the message.
type LogSender struct{}

func (LogSender) Name() string { return "log" }

func (LogSender) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "Report (dry run)", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
