package appointments

import "time"

// Pet pertenece a exactamente una cita: es el registro de esa visita, no una
// identidad durable del animal. El mismo animal en dos visitas produce dos
// filas con IDs distintos; el agregador de historial trabaja sobre eso.
type Pet struct {
	ID            string
	AppointmentID string

	Name  string
	Type  string // dog, cat, ...
	Breed string

	GroomingNotes string
}

// Reschedule guarda el (fecha, slot) anterior cuando una cita se mueve.
type Reschedule struct {
	PrevDate string
	PrevSlot string
	Reason   string
	MovedAt  time.Time
}

// MedicalRecord lo crea el personal tras una visita; a lo sumo uno por
// (cita, mascota). Cae en cascada si la cita se borra.
type MedicalRecord struct {
	ID            string
	AppointmentID string
	PetID         string

	Doctor      string
	WeightKg    float64
	Symptoms    string
	Diagnosis   string
	TestResults string

	CreatedAt time.Time
}

// InventoryUsage registra que un producto se consumió durante una cita.
// UnitPrice es un snapshot del precio de catálogo al momento de registrar;
// TotalPrice = Quantity × UnitPrice, nunca se recalcula después.
type InventoryUsage struct {
	ID            string
	AppointmentID string
	ProductID     string

	Quantity   int
	UnitPrice  float64
	TotalPrice float64

	CreatedAt time.Time
}

// Appointment es el agregado raíz del motor de ciclo de vida.
type Appointment struct {
	ID            string
	CustomerID    string
	CustomerEmail string

	Date     string // YYYY-MM-DD
	TimeSlot string // etiqueta enumerada, p.ej. "9:00 AM"
	Status   Status
	Notes    string

	Pets       []Pet
	ServiceIDs []string

	Reschedules []Reschedule

	CreatedAt time.Time
	UpdatedAt time.Time
}
