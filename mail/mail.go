package mail

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
)

// Config holds SMTP delivery settings.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	// AppURL is the public base URL confirmation links point at.
	AppURL string
}

// SMTPMailer sends confirmation links over SMTP with STARTTLS.
type SMTPMailer struct {
	cfg Config
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendConfirmation(toEmail, confirmToken string) error {
	confirmationURL := fmt.Sprintf("%s/confirm?token=%s", m.cfg.AppURL, confirmToken)
	subject := "Confirm your email"
	body := "Click to confirm:\n" + confirmationURL

	msg := []byte("To: " + toEmail + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body)

	client, err := smtp.Dial(m.cfg.Host + ":" + m.cfg.Port)
	if err != nil {
		return err
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		ServerName: m.cfg.Host,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	if err = client.Auth(auth); err != nil {
		return err
	}

	if err = client.Mail(m.cfg.User); err != nil {
		return err
	}
	if err = client.Rcpt(toEmail); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = w.Write(msg)
	return err
}
