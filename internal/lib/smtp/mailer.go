package smtp

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"strings"
)

// Mailer отправляет текстовые письма через Dialer.
type Mailer struct {
	dialer Dialer
}

// NewMailer создает Mailer.
func NewMailer(dialer Dialer) *Mailer {
	return &Mailer{dialer: dialer}
}

// Send отправляет одно письмо всем получателям to.
func (m *Mailer) Send(to []string, subject, body string) error {
	const op = "smtp.Send"
	if len(to) == 0 {
		return fmt.Errorf("%s: %w", op, errors.New("no recipients"))
	}
	from := m.dialer.GetSMTPUser()
	encoded, err := encodeBody(body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	// заголовки только ASCII: тема в RFC 2047, тело в quoted-printable
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		encoded,
	}, "\r\n")

	client, err := m.dialer.Connect()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("%s: mail from %s: %w", op, from, err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("%s: rcpt %s: %w", op, addr, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: data: %w", op, err)
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		return fmt.Errorf("%s: write: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("%s: close data: %w", op, err)
	}
	if err = client.Quit(); err != nil {
		return fmt.Errorf("%s: quit: %w", op, err)
	}
	return nil
}

func encodeBody(body string) (string, error) {
	var buf bytes.Buffer
	w := quotedprintable.NewWriter(&buf)
	if _, err := w.Write([]byte(body)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
