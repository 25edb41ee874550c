package slotpolicy

import (
	"errors"
	"testing"
	"time"

	"petcare-booking/internal/config"
)

func testConfig() config.BookingConfig {
	return config.BookingConfig{
		MaxAppointmentsPerSlot: 3,
		AvailableTimeSlots:     []string{"9:00 AM", "9:30 AM", "10:00 AM"},
		ExcludedDays:           []int{0}, // domingo
		ClinicHours: config.ClinicHours{
			Start:             "09:00",
			End:               "17:00",
			AppointmentCutoff: "16:00",
		},
	}
}

func mustPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestIsBookable_OK(t *testing.T) {
	p := mustPolicy(t)

	// 2026-09-07 es lunes
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local)
	if err := p.IsBookable("2026-09-07", "9:00 AM", now); err != nil {
		t.Fatalf("expected bookable, got %v", err)
	}
}

func TestIsBookable_ExcludedDay(t *testing.T) {
	p := mustPolicy(t)

	// 2026-09-06 es domingo
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local)
	err := p.IsBookable("2026-09-06", "9:00 AM", now)
	if !errors.Is(err, ErrExcludedDay) {
		t.Fatalf("expected ErrExcludedDay, got %v", err)
	}
	if !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("ErrExcludedDay should wrap ErrInvalidSlot")
	}
}

func TestIsBookable_UnknownSlot(t *testing.T) {
	p := mustPolicy(t)

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local)

	// Etiqueta fuera de la lista: se rechaza tal cual, sin snapping.
	for _, slot := range []string{"9:15 AM", "09:00 AM", "9:00 am", ""} {
		if err := p.IsBookable("2026-09-07", slot, now); !errors.Is(err, ErrUnknownSlot) {
			t.Fatalf("slot %q: expected ErrUnknownSlot, got %v", slot, err)
		}
	}
}

func TestIsBookable_BadDate(t *testing.T) {
	p := mustPolicy(t)

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.Local)
	for _, date := range []string{"07-09-2026", "2026/09/07", "mañana", ""} {
		if err := p.IsBookable(date, "9:00 AM", now); !errors.Is(err, ErrBadDate) {
			t.Fatalf("date %q: expected ErrBadDate, got %v", date, err)
		}
	}
}

func TestIsBookable_SameDayCutoff(t *testing.T) {
	p := mustPolicy(t)

	today := time.Date(2026, 9, 7, 16, 30, 0, 0, time.Local) // lunes 16:30
	date := today.Format(DateLayout)

	if err := p.IsBookable(date, "9:00 AM", today); !errors.Is(err, ErrPastCutoff) {
		t.Fatalf("expected ErrPastCutoff after 16:00, got %v", err)
	}

	// Exactamente a las 16:00 ya está cerrado.
	atCutoff := time.Date(2026, 9, 7, 16, 0, 0, 0, time.Local)
	if err := p.IsBookable(date, "9:00 AM", atCutoff); !errors.Is(err, ErrPastCutoff) {
		t.Fatalf("expected ErrPastCutoff at exactly 16:00, got %v", err)
	}

	// Antes del corte sí se puede.
	before := time.Date(2026, 9, 7, 15, 59, 0, 0, time.Local)
	if err := p.IsBookable(date, "9:00 AM", before); err != nil {
		t.Fatalf("expected bookable before cutoff, got %v", err)
	}

	// El corte solo aplica al mismo día.
	tomorrow := today.AddDate(0, 0, 1).Format(DateLayout)
	if err := p.IsBookable(tomorrow, "9:00 AM", today); err != nil {
		t.Fatalf("cutoff should not apply to future dates, got %v", err)
	}
}

func TestIsBookableWalkIn_SkipsCutoffOnly(t *testing.T) {
	p := mustPolicy(t)

	today := time.Date(2026, 9, 7, 16, 30, 0, 0, time.Local)
	date := today.Format(DateLayout)

	// Pasado el corte, un walk-in sigue entrando.
	if err := p.IsBookableWalkIn(date, "9:00 AM", today); err != nil {
		t.Fatalf("walk-in should ignore cutoff, got %v", err)
	}

	// Pero el resto de las reglas aplican igual.
	if err := p.IsBookableWalkIn("2026-09-06", "9:00 AM", today); !errors.Is(err, ErrExcludedDay) {
		t.Fatalf("walk-in on excluded day: expected ErrExcludedDay, got %v", err)
	}
	if err := p.IsBookableWalkIn(date, "9:15 AM", today); !errors.Is(err, ErrUnknownSlot) {
		t.Fatalf("walk-in unknown slot: expected ErrUnknownSlot, got %v", err)
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAppointmentsPerSlot = 0
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for capacity 0")
	}

	cfg = testConfig()
	cfg.AvailableTimeSlots = nil
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for empty slot list")
	}

	cfg = testConfig()
	cfg.AvailableTimeSlots = []string{"9:00 AM", "9:00 AM"}
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for duplicate slot label")
	}

	cfg = testConfig()
	cfg.ExcludedDays = []int{7}
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for weekday out of range")
	}
}

func TestNew_RejectsSlotsOutsideClinicHours(t *testing.T) {
	cfg := testConfig()
	cfg.AvailableTimeSlots = []string{"8:00 AM", "9:00 AM"}
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for slot before opening")
	}

	cfg = testConfig()
	cfg.AvailableTimeSlots = []string{"9:00 AM", "5:00 PM"} // end 17:00 es exclusivo
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for slot at closing time")
	}

	// Etiquetas no horarias no se chequean contra el horario.
	cfg = testConfig()
	cfg.AvailableTimeSlots = []string{"morning", "afternoon"}
	if _, err := New(cfg); err != nil {
		t.Fatalf("non clock-like labels must pass: %v", err)
	}

	// Sin horas configuradas tampoco hay chequeo.
	cfg = testConfig()
	cfg.AvailableTimeSlots = []string{"8:00 AM"}
	cfg.ClinicHours.Start = ""
	if _, err := New(cfg); err != nil {
		t.Fatalf("unset hours must skip the bounds check: %v", err)
	}
}

func TestTimeSlots_ReturnsCopy(t *testing.T) {
	p := mustPolicy(t)

	got := p.TimeSlots()
	got[0] = "mutated"

	if p.TimeSlots()[0] != "9:00 AM" {
		t.Fatal("TimeSlots must return a copy")
	}
}
