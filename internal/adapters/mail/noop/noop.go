// Package noop registra los correos en el log en lugar de enviarlos.
// Es el sender por defecto cuando smtp.enabled es false (dev y tests).
package noop

import (
	"context"

	"go.uber.org/zap"

	"petcare-booking/internal/ports/mail"
)

type Sender struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{log: log}
}

var _ mail.Sender = (*Sender)(nil)

func (s *Sender) Send(_ context.Context, m mail.Message) error {
	s.log.Info("mail suppressed (smtp disabled)",
		zap.String("kind", string(m.Kind)),
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
	)
	return nil
}
