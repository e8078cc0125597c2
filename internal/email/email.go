// Package email delivers password reset codes over SMTP. With no host
// configured it logs the code instead, which is what development and
// tests want.
package email

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

type Sender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string

	log *zap.Logger
}

func NewSender(host, port, username, password, from string, log *zap.Logger) *Sender {
	return &Sender{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		log:      log,
	}
}

// SendResetCode implements workspace.Mailer.
func (s *Sender) SendResetCode(to, code string) error {
	subject := "Your Huddle password reset code"
	body := fmt.Sprintf("Your reset code is: %s\r\n", code)

	if s.Host == "" {
		s.log.Info("mock reset email",
			zap.String("to", to),
			zap.String("code", code),
		)
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", s.From, to, subject, body)
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

	return smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg))
}
