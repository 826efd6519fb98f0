package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Mailer dials a relay on the internal network, so plain SMTP without auth.
type Mailer struct {
	Host     string
	Port     int
	Sender   string
	Subject  string
	Body     string
	AdminBCC []string
}

func New(host string, port int, sender, subject, body string, adminBCC []string) *Mailer {
	if port <= 0 {
		port = 25
	}
	return &Mailer{Host: host, Port: port, Sender: sender, Subject: subject, Body: body, AdminBCC: adminBCC}
}

// SendReport sends one finished report as a base64 attachment.
func (m *Mailer) SendReport(ctx context.Context, to, attachmentName string, report []byte) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("empty recipient")
	}
	rcpts := append([]string{to}, m.AdminBCC...)
	msg := m.buildMessage(to, attachmentName, report)

	addr := net.JoinHostPort(m.Host, fmt.Sprintf("%d", m.Port))
	d := net.Dialer{Timeout: 10 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	c, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if err := c.Mail(m.Sender); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, r := range rcpts {
		if err := c.Rcpt(r); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", r, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return c.Quit()
}

func (m *Mailer) buildMessage(to, attachmentName string, report []byte) []byte {
	const boundary = "report-boundary-4f9d2c"

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.Sender)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	fmt.Fprintf(&b, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "%s\r\n\r\n", m.Body)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	fmt.Fprintf(&b, "Content-Type: text/html; name=%q\r\n", attachmentName)
	fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n", attachmentName)
	fmt.Fprintf(&b, "Content-Transfer-Encoding: base64\r\n\r\n")

	enc := base64.StdEncoding.EncodeToString(report)
	// wrap at 76 chars per RFC 2045
	for len(enc) > 76 {
		b.WriteString(enc[:76])
		b.WriteString("\r\n")
		enc = enc[76:]
	}
	b.WriteString(enc)
	fmt.Fprintf(&b, "\r\n--%s--\r\n", boundary)
	return b.Bytes()
}
