package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"petcare-booking/internal/domain/appointments"
)

type appointmentsRepo struct {
	mu      sync.RWMutex
	byID    map[string]appointments.Appointment
	usages  map[string][]appointments.InventoryUsage // appointmentID -> usos
	records map[string]appointments.MedicalRecord    // appointmentID|petID -> record
}

func NewAppointmentsRepo() appointments.Repository {
	return &appointmentsRepo{
		byID:    make(map[string]appointments.Appointment),
		usages:  make(map[string][]appointments.InventoryUsage),
		records: make(map[string]appointments.MedicalRecord),
	}
}

func (r *appointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("appointment id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return errors.New("appointment already exists")
	}
	r.byID[a.ID] = clone(a)
	return nil
}

func (r *appointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	return clone(a), nil
}

func (r *appointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; !ok {
		return appointments.ErrNotFound
	}
	r.byID[a.ID] = clone(a)
	return nil
}

func (r *appointmentsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.ErrNotFound
	}

	// Cascada: mascotas viajan dentro del agregado; usos y registros, aparte.
	delete(r.byID, id)
	delete(r.usages, id)
	for _, pet := range a.Pets {
		delete(r.records, recordKey(id, pet.ID))
	}
	return nil
}

func (r *appointmentsRepo) ListByCustomer(ctx context.Context, customerID string) ([]appointments.Appointment, error) {
	return r.list(func(a appointments.Appointment) bool {
		return a.CustomerID == customerID
	})
}

func (r *appointmentsRepo) ListByDate(ctx context.Context, date string) ([]appointments.Appointment, error) {
	return r.list(func(a appointments.Appointment) bool {
		return a.Date == date
	})
}

func (r *appointmentsRepo) ListCompletedByCustomer(ctx context.Context, customerID string) ([]appointments.Appointment, error) {
	return r.list(func(a appointments.Appointment) bool {
		return a.CustomerID == customerID && a.Status == appointments.StatusCompleted
	})
}

func (r *appointmentsRepo) CountActiveInSlot(ctx context.Context, date, slot, excludeID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, a := range r.byID {
		if a.ID == excludeID {
			continue
		}
		if a.Date == date && a.TimeSlot == slot && a.Status.Active() {
			count++
		}
	}
	return count, nil
}

func (r *appointmentsRepo) Complete(ctx context.Context, a appointments.Appointment, usages []appointments.InventoryUsage, records []appointments.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; !ok {
		return appointments.ErrNotFound
	}

	// Todo o nada: bajo el mismo lock no hay estado intermedio observable.
	r.byID[a.ID] = clone(a)
	r.usages[a.ID] = append(r.usages[a.ID], usages...)
	for _, rec := range records {
		r.records[recordKey(rec.AppointmentID, rec.PetID)] = rec
	}
	return nil
}

func (r *appointmentsRepo) UsagesByAppointment(ctx context.Context, appointmentID string) ([]appointments.InventoryUsage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]appointments.InventoryUsage(nil), r.usages[appointmentID]...), nil
}

func (r *appointmentsRepo) RecordByPet(ctx context.Context, appointmentID, petID string) (appointments.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[recordKey(appointmentID, petID)]
	if !ok {
		return appointments.MedicalRecord{}, appointments.ErrNotFound
	}
	return rec, nil
}

func (r *appointmentsRepo) list(match func(appointments.Appointment) bool) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if match(a) {
			out = append(out, clone(a))
		}
	}

	// Orden estable por created_at asc (consistencia en dev/tests)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func recordKey(appointmentID, petID string) string {
	return appointmentID + "|" + petID
}

// clone evita que los callers muten los slices internos del mapa.
func clone(a appointments.Appointment) appointments.Appointment {
	a.Pets = append([]appointments.Pet(nil), a.Pets...)
	a.ServiceIDs = append([]string(nil), a.ServiceIDs...)
	a.Reschedules = append([]appointments.Reschedule(nil), a.Reschedules...)
	return a
}
