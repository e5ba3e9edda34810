// Package mail sends transactional notifications over SMTP. The only caller
// is the password-restore flow; delivery is fire-and-forget and failures are
// logged, never retried.
package mail

import (
	"crypto/rand"
	"log/slog"
	"math/big"

	gomail "gopkg.in/gomail.v2"

	"github.com/chimchimster/balance-bot/core/logger"
)

// Config holds SMTP connection settings.
type Config struct {
	Host     string `yaml:"host" envconfig:"SMTP_HOST"`
	Port     int    `yaml:"port" envconfig:"SMTP_PORT"`
	Username string `yaml:"username" envconfig:"SMTP_USERNAME"`
	Password string `yaml:"password" envconfig:"SMTP_PASSWORD"`
	From     string `yaml:"from" envconfig:"SMTP_FROM"`
}

// Sender delivers email notifications.
type Sender interface {
	Send(recipient, subject, body string) error
}

// SMTPSender is the gomail-backed Sender.
type SMTPSender struct {
	cfg    Config
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *SMTPSender) Send(recipient, subject, body string) error {
	m := gomail.NewMessage()
	from := s.cfg.From
	if from == "" {
		from = s.cfg.Username
	}
	m.SetHeader("From", from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.dialer.DialAndSend(m)
}

// SendAsync fires the notification off the calling goroutine. Failures are
// logged with the mail component; the flow does not wait or retry.
func SendAsync(sender Sender, recipient, subject, body string) {
	go func() {
		if err := sender.Send(recipient, subject, body); err != nil {
			logger.Component("mail").Warn("send failed",
				slog.String("event", "send"),
				slog.String("subject", subject),
				slog.String("err", err.Error()),
			)
		}
	}()
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GenerateRestoreCode produces the 8-10 letter one-time code mailed to the
// user during password restore.
func GenerateRestoreCode() string {
	length := 8 + randInt(3)
	out := make([]byte, length)
	for i := range out {
		out[i] = codeAlphabet[randInt(len(codeAlphabet))]
	}
	return string(out)
}

func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
