package services

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// EmailSender delivers verification codes. Enabled reports whether a real
// transport is configured; when it is not, the auth flow may surface the code
// through other channels for local development.
type EmailSender interface {
	SendVerificationCode(to, code string) error
	Enabled() bool
}

// SMTPSender sends plain-text mail over authenticated SMTP.
type SMTPSender struct {
	host string
	port string
	user string
	pass string
	from string
}

func NewSMTPSender(host, port, user, pass, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, pass: pass, from: from}
}

func (s *SMTPSender) Enabled() bool {
	return true
}

func (s *SMTPSender) SendVerificationCode(to, code string) error {
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Your Sweet Shop verification code\r\n\r\n"+
			"Your verification code is %s. It expires in 10 minutes.\r\n",
		s.from, to, code))

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := s.host + ":" + s.port
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// LogSender stands in for SMTP in development: the code only goes to the log.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Enabled() bool {
	return false
}

func (s *LogSender) SendVerificationCode(to, code string) error {
	s.logger.Info("email delivery disabled, verification code logged",
		zap.String("to", to), zap.String("code", code))
	return nil
}
