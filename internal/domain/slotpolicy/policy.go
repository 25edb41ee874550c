package slotpolicy

import (
	"errors"
	"fmt"
	"time"

	"petcare-booking/internal/config"
)

// Errores de política de slots. Todos los específicos envuelven ErrInvalidSlot
// para que los handlers puedan mapear la familia completa con errors.Is.
var (
	ErrInvalidSlot = errors.New("invalid slot")

	ErrExcludedDay = fmt.Errorf("%w: clinic closed on that weekday", ErrInvalidSlot)
	ErrUnknownSlot = fmt.Errorf("%w: time is not an offered slot", ErrInvalidSlot)
	ErrPastCutoff  = fmt.Errorf("%w: past same-day booking cutoff", ErrInvalidSlot)
	ErrBadDate     = fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidSlot)
)

const DateLayout = "2006-01-02"

// Policy son las reglas puras de reserva: días excluidos, lista enumerada de
// horarios y corte para reservas del mismo día. No guarda estado.
type Policy struct {
	capacity int
	slots    []string
	slotIdx  map[string]int
	excluded map[time.Weekday]bool
	cutoff   timeOfDay // corte clinic-wide para reservas same-day
}

type timeOfDay struct {
	hour, minute int
}

func New(cfg config.BookingConfig) (*Policy, error) {
	if cfg.MaxAppointmentsPerSlot < 1 {
		return nil, fmt.Errorf("slot capacity must be >= 1, got %d", cfg.MaxAppointmentsPerSlot)
	}
	if len(cfg.AvailableTimeSlots) == 0 {
		return nil, errors.New("available_time_slots must not be empty")
	}

	idx := make(map[string]int, len(cfg.AvailableTimeSlots))
	for i, s := range cfg.AvailableTimeSlots {
		if _, dup := idx[s]; dup {
			return nil, fmt.Errorf("duplicate time slot label %q", s)
		}
		idx[s] = i
	}

	excluded := make(map[time.Weekday]bool, len(cfg.ExcludedDays))
	for _, d := range cfg.ExcludedDays {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("excluded weekday index %d out of range 0-6", d)
		}
		excluded[time.Weekday(d)] = true
	}

	cut, err := parseTimeOfDay(cfg.ClinicHours.AppointmentCutoff)
	if err != nil {
		return nil, fmt.Errorf("appointment_cutoff: %w", err)
	}

	if err := checkSlotsWithinHours(cfg); err != nil {
		return nil, err
	}

	return &Policy{
		capacity: cfg.MaxAppointmentsPerSlot,
		slots:    append([]string(nil), cfg.AvailableTimeSlots...),
		slotIdx:  idx,
		excluded: excluded,
		cutoff:   cut,
	}, nil
}

// Capacity es el máximo de citas activas por slot.
func (p *Policy) Capacity() int { return p.capacity }

// TimeSlots devuelve la lista ordenada de etiquetas ofrecidas.
func (p *Policy) TimeSlots() []string {
	return append([]string(nil), p.slots...)
}

// IsBookable valida (fecha, slot) para una reserva normal:
// día no excluido, etiqueta conocida y, si es hoy, antes del corte.
func (p *Policy) IsBookable(date, slot string, now time.Time) error {
	d, err := p.check(date, slot)
	if err != nil {
		return err
	}
	if sameDay(d, now) && pastCutoff(now, p.cutoff) {
		return ErrPastCutoff
	}
	return nil
}

// IsBookableWalkIn aplica las mismas reglas menos el corte same-day.
// La asimetría es intencional: un walk-in ya está en la clínica.
func (p *Policy) IsBookableWalkIn(date, slot string, _ time.Time) error {
	_, err := p.check(date, slot)
	return err
}

func (p *Policy) check(date, slot string) (time.Time, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, ErrBadDate
	}
	if p.excluded[d.Weekday()] {
		return time.Time{}, ErrExcludedDay
	}
	// Etiquetas fuera de la lista se rechazan, nunca se corrigen.
	if _, ok := p.slotIdx[slot]; !ok {
		return time.Time{}, ErrUnknownSlot
	}
	return d, nil
}

func sameDay(d, now time.Time) bool {
	return d.Format(DateLayout) == now.Format(DateLayout)
}

func pastCutoff(now time.Time, cut timeOfDay) bool {
	h, m := now.Hour(), now.Minute()
	if h != cut.hour {
		return h > cut.hour
	}
	return m >= cut.minute
}

// checkSlotsWithinHours valida en el arranque que las etiquetas con forma de
// hora caigan dentro de clinic_hours.start/end. La lista enumerada sigue
// siendo la codificación operativa del horario; esto solo ataja configs
// incoherentes. Etiquetas no horarias y horas sin configurar se aceptan.
func checkSlotsWithinHours(cfg config.BookingConfig) error {
	start, errS := parseTimeOfDay(cfg.ClinicHours.Start)
	end, errE := parseTimeOfDay(cfg.ClinicHours.End)
	if errS != nil || errE != nil {
		return nil
	}

	for _, label := range cfg.AvailableTimeSlots {
		t, err := time.Parse("3:04 PM", label)
		if err != nil {
			continue
		}
		m := t.Hour()*60 + t.Minute()
		if m < start.minutes() || m >= end.minutes() {
			return fmt.Errorf("time slot %q is outside clinic hours %s-%s",
				label, cfg.ClinicHours.Start, cfg.ClinicHours.End)
		}
	}
	return nil
}

func (t timeOfDay) minutes() int {
	return t.hour*60 + t.minute
}

func parseTimeOfDay(raw string) (timeOfDay, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return timeOfDay{}, fmt.Errorf("%q is not HH:MM", raw)
	}
	return timeOfDay{hour: t.Hour(), minute: t.Minute()}, nil
}
