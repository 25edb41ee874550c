package carehistory

import "time"

// VaccinationEvent es un consumo de producto de la categoría "Vaccines"
// durante una cita completada, resuelto contra el registro médico de la visita.
type VaccinationEvent struct {
	VaccineName   string    `json:"vaccine_name"`
	Quantity      int       `json:"quantity"`
	GivenAt       time.Time `json:"given_at"`
	AppointmentID string    `json:"appointment_id"`
	Doctor        string    `json:"doctor"`
	Diagnosis     string    `json:"diagnosis,omitempty"`
}

// PetGroup agrupa por identidad de mascota. Como cada cita crea sus propias
// filas de mascota, el mismo animal en dos visitas produce dos grupos con
// nombre/raza idénticos: PossibleDuplicate marca esa ambigüedad para que la
// UI decida si los funde; el agregador nunca los funde solo.
type PetGroup struct {
	PetID             string             `json:"pet_id"`
	PetName           string             `json:"pet_name"`
	PetType           string             `json:"pet_type"`
	PetBreed          string             `json:"pet_breed"`
	AppointmentID     string             `json:"appointment_id"`
	PossibleDuplicate bool               `json:"possible_duplicate"`
	Events            []VaccinationEvent `json:"events"`
}

// History es la vista derivada completa para un cliente. No se materializa:
// se computa en cada request sobre los datos persistidos.
type History struct {
	CustomerID string     `json:"customer_id"`
	Groups     []PetGroup `json:"groups"`
}
