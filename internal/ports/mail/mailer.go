package mail

import "context"

// Kind identifica la plantilla que el colaborador de correo debe renderizar.
type Kind string

const (
	KindBookingReceived    Kind = "booking_received"
	KindBookingConfirmed   Kind = "booking_confirmed"
	KindBookingCancelled   Kind = "booking_cancelled"
	KindBookingRescheduled Kind = "booking_rescheduled"
)

// Message es lo que el core entrega al colaborador de correo.
// El envío es fire-and-forget: un fallo aquí nunca revierte una transición.
type Message struct {
	Kind    Kind
	To      string
	Subject string
	Body    string

	// Snapshot de la cita para plantillas más ricas (opcional).
	Fields map[string]string
}

// Sender es el puerto hacia el colaborador de correo.
type Sender interface {
	Send(ctx context.Context, m Message) error
}
