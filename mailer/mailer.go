// Package mailer sends recap workbooks to staff over SMTP.
//
// The stdlib net/smtp client is used directly: no repository in our stack
// carries a mail library, and the single send-with-attachment case does not
// justify adopting one.
package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
)

// Mailer holds the SMTP session parameters.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// New creates a mailer. An empty username disables authentication, which is
// how the school relay is reached from inside the network.
func New(host, port, username, password, from string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// SendReport mails the workbook at attachmentPath to the recipients as a
// multipart message with a short text body.
func (m *Mailer) SendReport(to []string, subject, body, attachmentPath string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	attachment, err := os.ReadFile(attachmentPath)
	if err != nil {
		return fmt.Errorf("failed to read attachment: %w", err)
	}

	msg, err := buildMessage(m.from, to, subject, body, filepath.Base(attachmentPath), attachment)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, to, msg); err != nil {
		return fmt.Errorf("failed to send report mail: %w", err)
	}
	return nil
}

const attachmentContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func buildMessage(from string, to []string, subject, body, filename string, attachment []byte) ([]byte, error) {
	var buf bytes.Buffer
	boundary := "fwat-report-boundary"

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: %s\r\n", attachmentContentType)
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n",
		mime.QEncoding.Encode("utf-8", filename))

	encoded := base64.StdEncoding.EncodeToString(attachment)
	// RFC 2045 keeps encoded lines at 76 characters.
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	fmt.Fprintf(&buf, "\r\n--%s--\r\n", boundary)

	return buf.Bytes(), nil
}
