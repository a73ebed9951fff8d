package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/anfelyns/Password-Guardian-sub000/internal/common"
)

// SMTPNotifier sends mail through a plain SMTP relay. Credentials come
// from configuration; when User is empty the connection is
// unauthenticated (local relay, mail catcher).
type SMTPNotifier struct {
	Addr     string // host:port
	From     string
	User     string
	Password string

	// sendMail is a test seam for smtp.SendMail.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(addr, from, user, password string) *SMTPNotifier {
	return &SMTPNotifier{
		Addr:     addr,
		From:     from,
		User:     user,
		Password: password,
		sendMail: smtp.SendMail,
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	var auth smtp.Auth
	if n.User != "" {
		host := n.Addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", n.User, n.Password, host)
	}

	msg := buildMessage(n.From, to, subject, body)
	if err := n.sendMail(n.Addr, auth, n.From, []string{to}, msg); err != nil {
		return fmt.Errorf("%w: %v", common.ErrNotifierUnavailable, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
