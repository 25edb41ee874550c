// Package smtp envía los correos de estado de cita por SMTP usando gomail.
package smtp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"petcare-booking/internal/config"
	"petcare-booking/internal/ports/mail"
)

const dialTimeout = 10 * time.Second

type Client struct {
	cfg config.SMTPConfig
}

func New(cfg config.SMTPConfig) *Client {
	return &Client{cfg: cfg}
}

var _ mail.Sender = (*Client)(nil)

func (c *Client) Send(ctx context.Context, m mail.Message) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", c.cfg.From)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", renderBody(m))

	d := gomail.NewDialer(c.cfg.Host, c.cfg.Port, c.cfg.Username, c.cfg.Password)

	// DialAndSend no acepta context; se corre aparte y se respeta el
	// deadline del caller.
	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(msg)
	}()

	wait := dialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until > 0 && until < wait {
			wait = until
		}
	}

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send (%s): %w", m.Kind, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return context.DeadlineExceeded
	}
}

func renderBody(m mail.Message) string {
	var b strings.Builder
	b.WriteString(m.Body)

	if len(m.Fields) > 0 {
		keys := make([]string, 0, len(m.Fields))
		for k := range m.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %s\n", k, m.Fields[k])
		}
	}
	return b.String()
}
