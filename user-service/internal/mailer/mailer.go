package mailer

import (
	"context"
	"fmt"
	"log"

	gomail "github.com/wneessen/go-mail"
)

// SMTPMailer delivers one-time codes over SMTP.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) (*SMTPMailer, error) {
	client, err := gomail.NewClient(host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(username),
		gomail.WithPassword(password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: from}, nil
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, otp string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject("Your UnderSounds password reset code")
	msg.SetBodyString(gomail.TypeTextPlain,
		fmt.Sprintf("Your password reset code is %s. It expires in 10 minutes.", otp))
	msg.AddAlternativeString(gomail.TypeTextHTML,
		fmt.Sprintf("<p>Your password reset code is <strong>%s</strong>.</p><p>It expires in 10 minutes.</p>", otp))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// LogMailer stands in when no SMTP host is configured. Local setups read the
// code from the service log.
type LogMailer struct{}

func (LogMailer) SendOTP(ctx context.Context, to, otp string) error {
	log.Printf("OTP for %s: %s", to, otp)
	return nil
}
