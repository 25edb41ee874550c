package notifications

// Type clasifica los eventos del ciclo de vida que se abanican a los admins.
type Type string

const (
	TypeNewAppointment         Type = "new_appointment"
	TypeAppointmentCancelled   Type = "appointment_cancelled"
	TypeAppointmentRescheduled Type = "appointment_rescheduled"
	TypeAppointmentCompleted   Type = "appointment_completed"
)

// Event es efímero y append-only. Cursor crece de forma monótona y es la base
// de la entrega incremental; CreatedAt son epoch seconds.
// El estado leído/no-leído es del cliente: el servidor no lo guarda.
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt int64          `json:"created_at"`
	Cursor    int64          `json:"cursor"`
}
