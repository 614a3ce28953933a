// Package mail sends the weekly report notification over SMTP.
package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Message is one outgoing notification.
type Message struct {
	Subject     string
	Body        string
	Attachments []Attachment
}

// Attachment references a file on disk to attach under FileName.
type Attachment struct {
	FileName string
	FilePath string
}

// Sender delivers messages through a single SMTP account to a fixed
// recipient.
type Sender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	ReplyTo  string
}

// Send builds and delivers the message. The SMTP dial, auth, and send all
// happen inside this call under ctx.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.From); err != nil {
		return fmt.Errorf("mail: from address %q: %w", s.From, err)
	}
	if err := m.To(s.To); err != nil {
		return fmt.Errorf("mail: to address %q: %w", s.To, err)
	}
	if s.ReplyTo != "" {
		if err := m.ReplyTo(s.ReplyTo); err != nil {
			return fmt.Errorf("mail: reply-to address %q: %w", s.ReplyTo, err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	for _, a := range msg.Attachments {
		m.AttachFile(a.FilePath, gomail.WithFileName(a.FileName))
	}

	client, err := gomail.NewClient(s.Host,
		gomail.WithPort(s.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.Username),
		gomail.WithPassword(s.Password),
	)
	if err != nil {
		return fmt.Errorf("mail: smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}

// Expand substitutes the window boundary placeholders {{start}} and {{end}}
// in a subject or body template.
func Expand(tmpl string, start, end time.Time) string {
	out := strings.ReplaceAll(tmpl, "{{start}}", start.Format("2006-01-02"))
	return strings.ReplaceAll(out, "{{end}}", end.Format("2006-01-02"))
}
