package appointments

// Status es el estado del ciclo de vida de una cita.
// @Enum pending, confirmed, completed, cancelled
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Active indica si la cita cuenta contra la capacidad del slot.
// Completadas y canceladas no ocupan lugar.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Terminal: solo el borrado duro es posible después.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// canTransition codifica la máquina de estados:
// pending -> confirmed -> completed; pending|confirmed -> cancelled.
// El reschedule (confirmed -> confirmed) no pasa por aquí.
func canTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}
