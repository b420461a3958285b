package mailer

// Mailer defines the interface for sending verification emails.
type Mailer interface {
	SendEmailVerification(toEmail, toName, verificationCode string) error
}
