package mail

import (
	"context"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	domainMail "groona_alerts/internal/domain/mail"

	"github.com/google/uuid"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers through a plain SMTP relay. It has no status API, so
// the returned ID is the generated Message-ID.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	send     sendMailFunc
}

func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	return &SMTPSender{host: host, port: port, username: username, password: password, send: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, msg domainMail.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(msg.To) == 0 {
		return "", fmt.Errorf("smtp: message has no recipients")
	}
	to := make([]string, 0, len(msg.To))
	for _, raw := range msg.To {
		addr, err := parseAddress(raw)
		if err != nil {
			return "", err
		}
		to = append(to, addr.Address)
	}
	fromRaw := msg.From
	if fromRaw == "" {
		fromRaw = s.username
	}
	from, err := parseAddress(fromRaw)
	if err != nil {
		return "", err
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return "", fmt.Errorf("smtp: subject contains a line break")
	}

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.host)
	raw := buildMIME(id, from.String(), to, msg, time.Now())

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	if err := s.send(addr, auth, from.Address, to, raw); err != nil {
		return "", fmt.Errorf("failed to send email to %s: %w", strings.Join(to, ", "), err)
	}
	return id, nil
}

// parseAddress accepts one RFC 5322 address and nothing that could break
// out of a header line.
func parseAddress(raw string) (*mail.Address, error) {
	if strings.ContainsAny(raw, "\r\n") {
		return nil, fmt.Errorf("invalid email address: %q", raw)
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid email address %q: %w", raw, err)
	}
	return addr, nil
}

func buildMIME(id, from string, to []string, msg domainMail.Message, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Message-ID: %s\r\n", id)
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	if msg.HTML != "" {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.HTML)
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.Text)
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}
