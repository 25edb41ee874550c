package carehistory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"petcare-booking/internal/domain/appointments"
	"petcare-booking/internal/domain/catalog"
)

// DoctorNotRecorded se usa cuando no hay registro médico que resuelva el
// doctor de una vacunación; la ausencia nunca es un error duro.
const DoctorNotRecorded = "doctor not recorded"

var ErrInvalidInput = errors.New("invalid input")

// Service computa el historial de vacunación/tratamiento por mascota uniendo
// consumos de inventario, taxonomía de productos, citas completadas y
// registros médicos. Solo lectura, calculado a demanda.
type Service struct {
	appts   appointments.Repository
	catalog catalog.Repository
}

func NewService(appts appointments.Repository, cat catalog.Repository) *Service {
	return &Service{appts: appts, catalog: cat}
}

// ForCustomer arma el historial del cliente; petID opcional filtra a una sola
// fila de mascota (una visita concreta, dada la identidad por-visita).
func (s *Service) ForCustomer(ctx context.Context, customerID, petID string) (History, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return History{}, ErrInvalidInput
	}

	history := History{CustomerID: customerID, Groups: []PetGroup{}}

	vaccines, err := s.catalog.FindCategoryByName(ctx, catalog.VaccinesCategory)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			// Sin categoría ancla no hay nada que clasificar.
			return history, nil
		}
		return History{}, err
	}

	completed, err := s.appts.ListCompletedByCustomer(ctx, customerID)
	if err != nil {
		return History{}, err
	}

	groups := make(map[string]*PetGroup)

	for _, a := range completed {
		usages, err := s.appts.UsagesByAppointment(ctx, a.ID)
		if err != nil {
			return History{}, err
		}

		for _, u := range usages {
			product, err := s.catalog.GetProduct(ctx, u.ProductID)
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					continue // producto retirado del catálogo; el consumo queda sin clasificar
				}
				return History{}, err
			}
			if product.CategoryID != vaccines.ID {
				continue
			}

			for _, pet := range a.Pets {
				if petID != "" && pet.ID != petID {
					continue
				}

				doctor := DoctorNotRecorded
				diagnosis := ""
				if rec, err := s.appts.RecordByPet(ctx, a.ID, pet.ID); err == nil {
					if strings.TrimSpace(rec.Doctor) != "" {
						doctor = rec.Doctor
					}
					diagnosis = rec.Diagnosis
				}

				g, ok := groups[pet.ID]
				if !ok {
					g = &PetGroup{
						PetID:         pet.ID,
						PetName:       pet.Name,
						PetType:       pet.Type,
						PetBreed:      pet.Breed,
						AppointmentID: a.ID,
					}
					groups[pet.ID] = g
				}

				g.Events = append(g.Events, VaccinationEvent{
					VaccineName:   product.Name,
					Quantity:      u.Quantity,
					GivenAt:       u.CreatedAt,
					AppointmentID: a.ID,
					Doctor:        doctor,
					Diagnosis:     diagnosis,
				})
			}
		}
	}

	// Grupos con nombre+raza repetidos entre identidades distintas se marcan,
	// no se funden: es una tensión del modelo (mascota por visita), no un bug.
	seen := make(map[string][]string)
	for id, g := range groups {
		key := strings.ToLower(g.PetName) + "|" + strings.ToLower(g.PetBreed)
		seen[key] = append(seen[key], id)
	}
	for _, ids := range seen {
		if len(ids) > 1 {
			for _, id := range ids {
				groups[id].PossibleDuplicate = true
			}
		}
	}

	for _, g := range groups {
		sort.Slice(g.Events, func(i, j int) bool {
			return g.Events[i].GivenAt.After(g.Events[j].GivenAt)
		})
		history.Groups = append(history.Groups, *g)
	}

	// Orden por recencia: el grupo con el evento más nuevo primero.
	sort.Slice(history.Groups, func(i, j int) bool {
		return history.Groups[i].Events[0].GivenAt.After(history.Groups[j].Events[0].GivenAt)
	})

	return history, nil
}
