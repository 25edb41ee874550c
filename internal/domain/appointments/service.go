package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"petcare-booking/internal/domain/catalog"
	"petcare-booking/internal/domain/notifications"
	"petcare-booking/internal/domain/scheduling"
	"petcare-booking/internal/domain/slotpolicy"
	"petcare-booking/internal/ports/mail"
)

// Service es el motor de ciclo de vida: dueño de la máquina de estados y
// único punto de mutación de citas. Llama al Capacity Scheduler en
// create/reschedule y empuja eventos al feed de notificaciones.
//
// Las operaciones sobre la misma cita se serializan con un mutex por ID:
// el read-validate-write de una transición nunca se intercala con otro, así
// un estado terminal no puede ser pisado por una operación concurrente.
type Service struct {
	repo    Repository
	catalog catalog.Repository
	policy  *slotpolicy.Policy
	slots   scheduling.Reserver
	feed    *notifications.Feed
	mailer  mail.Sender
	log     *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(
	repo Repository,
	cat catalog.Repository,
	policy *slotpolicy.Policy,
	slots scheduling.Reserver,
	feed *notifications.Feed,
	mailer mail.Sender,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		catalog: cat,
		policy:  policy,
		slots:   slots,
		feed:    feed,
		mailer:  mailer,
		log:     log,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
}

// lockFor serializa las mutaciones de una cita. El orden de adquisición es
// siempre cita -> slot (Reserve se llama con el lock de la cita tomado),
// nunca al revés, así no hay deadlock entre ambos niveles.
func (s *Service) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.locks[id]; ok {
		return m
	}
	m := &sync.Mutex{}
	s.locks[id] = m
	return m
}

type PetInput struct {
	Name          string
	Type          string
	Breed         string
	GroomingNotes string
}

type CreateInput struct {
	Date       string
	TimeSlot   string
	Pets       []PetInput
	ServiceIDs []string
	Notes      string
}

// Create valida política y capacidad antes de persistir nada: si el slot no
// es reservable o está lleno, no queda ninguna escritura parcial.
func (s *Service) Create(ctx context.Context, customerID, customerEmail string, in CreateInput) (Appointment, error) {
	return s.create(ctx, customerID, customerEmail, in, StatusPending, false)
}

// CreateWalkIn registra una visita sin reserva previa: nace confirmada y no
// aplica el corte same-day (el cliente ya está en la clínica).
func (s *Service) CreateWalkIn(ctx context.Context, customerID, customerEmail string, in CreateInput) (Appointment, error) {
	return s.create(ctx, customerID, customerEmail, in, StatusConfirmed, true)
}

func (s *Service) create(ctx context.Context, customerID, customerEmail string, in CreateInput, status Status, walkIn bool) (Appointment, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return Appointment{}, ErrInvalidInput
	}
	if len(in.Pets) == 0 {
		return Appointment{}, fmt.Errorf("%w: at least one pet is required", ErrInvalidInput)
	}
	for _, p := range in.Pets {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Type) == "" {
			return Appointment{}, fmt.Errorf("%w: pet name and type are required", ErrInvalidInput)
		}
	}

	serviceNames, err := s.resolveServiceNames(ctx, in.ServiceIDs)
	if err != nil {
		return Appointment{}, err
	}

	if walkIn {
		err = s.policy.IsBookableWalkIn(in.Date, in.TimeSlot, s.now())
	} else {
		err = s.policy.IsBookable(in.Date, in.TimeSlot, s.now())
	}
	if err != nil {
		return Appointment{}, err
	}

	now := s.now()
	a := Appointment{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		CustomerEmail: strings.TrimSpace(customerEmail),
		Date:          in.Date,
		TimeSlot:      in.TimeSlot,
		Status:        status,
		Notes:         strings.TrimSpace(in.Notes),
		ServiceIDs:    append([]string(nil), in.ServiceIDs...),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, p := range in.Pets {
		a.Pets = append(a.Pets, Pet{
			ID:            uuid.NewString(),
			AppointmentID: a.ID,
			Name:          strings.TrimSpace(p.Name),
			Type:          strings.TrimSpace(p.Type),
			Breed:         strings.TrimSpace(p.Breed),
			GroomingNotes: strings.TrimSpace(p.GroomingNotes),
		})
	}

	// Contar + insertar es una unidad atómica dentro del Reserver.
	err = s.slots.Reserve(ctx, a.Date, a.TimeSlot, "", func(ctx context.Context) error {
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return Appointment{}, err
	}

	s.feed.Emit(notifications.TypeNewAppointment,
		fmt.Sprintf("New appointment on %s at %s", a.Date, a.TimeSlot),
		map[string]any{
			"appointment_id": a.ID,
			"customer_id":    a.CustomerID,
			"date":           a.Date,
			"time":           a.TimeSlot,
			"pet_count":      len(a.Pets),
			"services":       serviceNames,
			"walk_in":        walkIn,
		})

	kind := mail.KindBookingReceived
	if walkIn {
		kind = mail.KindBookingConfirmed
	}
	s.sendMail(kind, a, nil)

	return a, nil
}

// UpdateStatus aplica una transición legal de la máquina de estados.
func (s *Service) UpdateStatus(ctx context.Context, id string, newStatus Status) (Appointment, error) {
	if !newStatus.Valid() {
		return Appointment{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, newStatus)
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if !canTransition(a.Status, newStatus) {
		return Appointment{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, newStatus)
	}

	a.Status = newStatus
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return Appointment{}, err
	}

	switch newStatus {
	case StatusCancelled:
		s.feed.Emit(notifications.TypeAppointmentCancelled,
			fmt.Sprintf("Appointment on %s at %s was cancelled", a.Date, a.TimeSlot),
			map[string]any{
				"appointment_id": a.ID,
				"customer_id":    a.CustomerID,
				"date":           a.Date,
				"time":           a.TimeSlot,
			})
		s.slots.Release(ctx, a.Date, a.TimeSlot)
		s.sendMail(mail.KindBookingCancelled, a, nil)
	case StatusConfirmed:
		s.sendMail(mail.KindBookingConfirmed, a, nil)
	case StatusCompleted:
		s.emitCompleted(a)
		s.slots.Release(ctx, a.Date, a.TimeSlot)
	}

	return a, nil
}

// Reschedule mueve la cita a otro slot re-validando política y capacidad del
// destino, excluyendo su propia ocupación del slot original. El status no
// cambia y el (fecha, slot) anterior queda en el historial.
func (s *Service) Reschedule(ctx context.Context, id, newDate, newSlot, reason string) (Appointment, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if a.Status.Terminal() {
		return Appointment{}, fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidTransition, a.Status)
	}

	if err := s.policy.IsBookable(newDate, newSlot, s.now()); err != nil {
		return Appointment{}, err
	}

	prevDate, prevSlot := a.Date, a.TimeSlot
	moved := prevDate != newDate || prevSlot != newSlot

	a.Reschedules = append(a.Reschedules, Reschedule{
		PrevDate: prevDate,
		PrevSlot: prevSlot,
		Reason:   strings.TrimSpace(reason),
		MovedAt:  s.now(),
	})
	a.Date = newDate
	a.TimeSlot = newSlot
	a.UpdatedAt = s.now()

	if moved {
		err = s.slots.Reserve(ctx, newDate, newSlot, a.ID, func(ctx context.Context) error {
			return s.repo.Update(ctx, a)
		})
		if errors.Is(err, scheduling.ErrSlotFull) {
			return Appointment{}, ErrRescheduleConflict
		}
		if err != nil {
			return Appointment{}, err
		}
		s.slots.Release(ctx, prevDate, prevSlot)
	} else {
		if err := s.repo.Update(ctx, a); err != nil {
			return Appointment{}, err
		}
	}

	s.feed.Emit(notifications.TypeAppointmentRescheduled,
		fmt.Sprintf("Appointment moved from %s %s to %s %s", prevDate, prevSlot, a.Date, a.TimeSlot),
		map[string]any{
			"appointment_id": a.ID,
			"customer_id":    a.CustomerID,
			"prev_date":      prevDate,
			"prev_time":      prevSlot,
			"date":           a.Date,
			"time":           a.TimeSlot,
			"reason":         reason,
		})
	s.sendMail(mail.KindBookingRescheduled, a, map[string]string{
		"prev_date": prevDate,
		"prev_time": prevSlot,
		"reason":    reason,
	})

	return a, nil
}

type ConsumedProduct struct {
	ProductID string
	Quantity  int
}

// ClinicalNotes son los datos que el personal registra tras la visita; si se
// proveen, se crea un MedicalRecord por mascota de la cita.
type ClinicalNotes struct {
	Doctor      string
	WeightKg    float64
	Symptoms    string
	Diagnosis   string
	TestResults string
}

// Complete transiciona a completed y registra consumos de inventario (precio
// unitario tomado del catálogo en este momento) y registros médicos en una
// sola transacción: nunca queda una cita completada con escrituras parciales.
func (s *Service) Complete(ctx context.Context, id string, consumed []ConsumedProduct, clinical *ClinicalNotes) (Appointment, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if !canTransition(a.Status, StatusCompleted) {
		return Appointment{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, StatusCompleted)
	}

	now := s.now()

	usages := make([]InventoryUsage, 0, len(consumed))
	for _, c := range consumed {
		if c.Quantity < 1 {
			return Appointment{}, fmt.Errorf("%w: quantity must be >= 1", ErrInvalidInput)
		}
		p, err := s.catalog.GetProduct(ctx, c.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return Appointment{}, fmt.Errorf("%w: unknown product %q", ErrInvalidInput, c.ProductID)
			}
			return Appointment{}, err
		}
		usages = append(usages, InventoryUsage{
			ID:            uuid.NewString(),
			AppointmentID: a.ID,
			ProductID:     p.ID,
			Quantity:      c.Quantity,
			UnitPrice:     p.Price,
			TotalPrice:    float64(c.Quantity) * p.Price,
			CreatedAt:     now,
		})
	}

	var records []MedicalRecord
	if clinical != nil {
		for _, pet := range a.Pets {
			records = append(records, MedicalRecord{
				ID:            uuid.NewString(),
				AppointmentID: a.ID,
				PetID:         pet.ID,
				Doctor:        strings.TrimSpace(clinical.Doctor),
				WeightKg:      clinical.WeightKg,
				Symptoms:      strings.TrimSpace(clinical.Symptoms),
				Diagnosis:     strings.TrimSpace(clinical.Diagnosis),
				TestResults:   strings.TrimSpace(clinical.TestResults),
				CreatedAt:     now,
			})
		}
	}

	a.Status = StatusCompleted
	a.UpdatedAt = now
	if err := s.repo.Complete(ctx, a, usages, records); err != nil {
		return Appointment{}, err
	}

	s.emitCompleted(a)
	s.slots.Release(ctx, a.Date, a.TimeSlot)

	return a, nil
}

// Delete es el borrado duro administrativo: irreversible, cae en cascada a
// mascotas, registros médicos y consumos.
func (s *Service) Delete(ctx context.Context, id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if a.Status.Active() {
		s.slots.Release(ctx, a.Date, a.TimeSlot)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Appointment{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]Appointment, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// ListByDate es la agenda del día para el personal.
func (s *Service) ListByDate(ctx context.Context, date string) ([]Appointment, error) {
	return s.repo.ListByDate(ctx, date)
}

func (s *Service) resolveServiceNames(ctx context.Context, ids []string) ([]string, error) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		svc, err := s.catalog.GetService(ctx, id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown service %q", ErrInvalidInput, id)
			}
			return nil, err
		}
		names = append(names, svc.Name)
	}
	return names, nil
}

func (s *Service) emitCompleted(a Appointment) {
	s.feed.Emit(notifications.TypeAppointmentCompleted,
		fmt.Sprintf("Appointment on %s at %s was completed", a.Date, a.TimeSlot),
		map[string]any{
			"appointment_id": a.ID,
			"customer_id":    a.CustomerID,
			"date":           a.Date,
			"time":           a.TimeSlot,
		})
}

// sendMail es fire-and-forget: un fallo del colaborador de correo se loguea
// y jamás revierte la transición que lo originó.
func (s *Service) sendMail(kind mail.Kind, a Appointment, extra map[string]string) {
	if s.mailer == nil || a.CustomerEmail == "" {
		return
	}

	fields := map[string]string{
		"appointment_id": a.ID,
		"date":           a.Date,
		"time":           a.TimeSlot,
	}
	for k, v := range extra {
		fields[k] = v
	}

	msg := mail.Message{
		Kind:    kind,
		To:      a.CustomerEmail,
		Subject: subjectFor(kind, a),
		Body:    fmt.Sprintf("Your appointment is scheduled for %s at %s.", a.Date, a.TimeSlot),
		Fields:  fields,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.log.Warn("mail send failed",
				zap.String("kind", string(kind)),
				zap.String("appointment_id", a.ID),
				zap.Error(err))
		}
	}()
}

func subjectFor(kind mail.Kind, a Appointment) string {
	switch kind {
	case mail.KindBookingConfirmed:
		return "Your appointment is confirmed"
	case mail.KindBookingCancelled:
		return "Your appointment was cancelled"
	case mail.KindBookingRescheduled:
		return fmt.Sprintf("Your appointment was moved to %s at %s", a.Date, a.TimeSlot)
	default:
		return "We received your booking request"
	}
}
