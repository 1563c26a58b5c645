package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
)

type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, Username: username, Password: password, send: smtp.SendMail}
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return jarvisErrors.InvalidInput(err.Error())
	}
	if s.Host == "" {
		return jarvisErrors.InvalidInput("report.smtp.host is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))

	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(addr, auth, msg.From, msg.To, msg.RFC822()); err != nil {
		return jarvisErrors.External(fmt.Sprintf("smtp %s", addr), err)
	}
	return nil
}
