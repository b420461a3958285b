package mailer

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"go.uber.org/zap"
)

// SMTPMailerService implements the Mailer interface using net/smtp.
type SMTPMailerService struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	senderName string
	logger     *zap.Logger
}

func NewSMTPMailerService(host string, port int, username, password, fromEmail, senderName string, logger *zap.Logger) *SMTPMailerService {
	return &SMTPMailerService{
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		from:       fromEmail,
		senderName: senderName,
		logger:     logger.Named("SMTPMailerService"),
	}
}

// SendEmailVerification sends the verification code to the user over SMTP as a
// multipart/alternative message with plain text and HTML parts.
func (s *SMTPMailerService) SendEmailVerification(toEmail, toName, verificationCode string) error {
	s.logger.Info("Attempting to send verification email via SMTP",
		zap.String("toEmail", toEmail),
		zap.String("smtpHost", s.host),
		zap.Int("smtpPort", s.port))

	htmlBody, textBody := verificationBodies(toName, verificationCode)

	msg, err := s.buildMessage(toEmail, textBody, htmlBody)
	if err != nil {
		s.logger.Error("Failed to build SMTP message", zap.Error(err))
		return fmt.Errorf("failed to build smtp message: %w", err)
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, []string{toEmail}, msg); err != nil {
		s.logger.Error("Failed to send email via SMTP",
			zap.Error(err),
			zap.String("toEmail", toEmail),
			zap.String("smtpHost", s.host))
		return fmt.Errorf("smtp.SendMail failed: %w", err)
	}

	s.logger.Info("Verification email sent successfully via SMTP", zap.String("toEmail", toEmail))
	return nil
}

func (s *SMTPMailerService) buildMessage(toEmail, textBody, htmlBody string) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	from := s.from
	if s.senderName != "" {
		from = fmt.Sprintf("%s <%s>", s.senderName, s.from)
	}
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", toEmail)
	fmt.Fprintf(&buf, "Subject: %s\r\n", verificationSubject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())

	// Plain text first; mail clients prefer the last alternative they support.
	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=\"utf-8\"", textBody},
		{"text/html; charset=\"utf-8\"", htmlBody},
	}
	for _, p := range parts {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"7bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := part.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
