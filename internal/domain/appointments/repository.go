package appointments

import "context"

// Repository es el colaborador de persistencia del motor de ciclo de vida.
// Cada método es atómico: o persiste todo o no tiene efecto observable.
type Repository interface {
	// Create persiste la cita con sus mascotas y servicios adjuntos.
	Create(ctx context.Context, a Appointment) error

	GetByID(ctx context.Context, id string) (Appointment, error)

	// Update guarda status, fecha/slot, notas e historial de reschedules.
	Update(ctx context.Context, a Appointment) error

	// Delete es un borrado duro; cae en cascada a mascotas, registros
	// médicos y consumos de inventario.
	Delete(ctx context.Context, id string) error

	ListByCustomer(ctx context.Context, customerID string) ([]Appointment, error)
	ListByDate(ctx context.Context, date string) ([]Appointment, error)
	ListCompletedByCustomer(ctx context.Context, customerID string) ([]Appointment, error)

	// CountActiveInSlot cuenta citas pending|confirmed en (date, slot),
	// excluyendo excludeID si no es vacío.
	CountActiveInSlot(ctx context.Context, date, slot, excludeID string) (int, error)

	// Complete transiciona a completed y persiste consumos y registros
	// médicos en una sola transacción.
	Complete(ctx context.Context, a Appointment, usages []InventoryUsage, records []MedicalRecord) error

	UsagesByAppointment(ctx context.Context, appointmentID string) ([]InventoryUsage, error)
	RecordByPet(ctx context.Context, appointmentID, petID string) (MedicalRecord, error)
}
