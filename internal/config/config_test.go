package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRead_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Read(t.TempDir())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("default addr: %s", cfg.Server.Addr)
	}
	if cfg.Booking.MaxAppointmentsPerSlot != 3 {
		t.Fatalf("default capacity: %d", cfg.Booking.MaxAppointmentsPerSlot)
	}
	if len(cfg.Booking.AvailableTimeSlots) != 16 {
		t.Fatalf("default slots: %d", len(cfg.Booking.AvailableTimeSlots))
	}
	if cfg.Booking.ClinicHours.AppointmentCutoff != "16:00" {
		t.Fatalf("default cutoff: %s", cfg.Booking.ClinicHours.AppointmentCutoff)
	}
	if cfg.Database.DSN != "" || cfg.Redis.Enabled || cfg.SMTP.Enabled {
		t.Fatal("optional backends must be off by default")
	}
}

func TestRead_EnvOverride(t *testing.T) {
	t.Setenv("PETCARE_BOOKING_MAX_APPOINTMENTS_PER_SLOT", "5")
	t.Setenv("PETCARE_LOGGING_LEVEL", "debug")

	cfg, err := Read(t.TempDir())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.Booking.MaxAppointmentsPerSlot != 5 {
		t.Fatalf("env override ignored: %d", cfg.Booking.MaxAppointmentsPerSlot)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("env override ignored: %s", cfg.Logging.Level)
	}
}

func TestRead_FileOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("booking:\n  max_appointments_per_slot: 2\n  excluded_days: [0, 6]\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Read(dir)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.Booking.MaxAppointmentsPerSlot != 2 {
		t.Fatalf("file override ignored: %d", cfg.Booking.MaxAppointmentsPerSlot)
	}
	if len(cfg.Booking.ExcludedDays) != 2 {
		t.Fatalf("file override ignored: %v", cfg.Booking.ExcludedDays)
	}
}

func TestRead_RejectsInvalidConfig(t *testing.T) {
	t.Setenv("PETCARE_BOOKING_MAX_APPOINTMENTS_PER_SLOT", "0")
	if _, err := Read(t.TempDir()); err == nil {
		t.Fatal("expected validation error for capacity 0")
	}
}

func TestValidate_CutoffFormat(t *testing.T) {
	cfg := &Config{
		Booking: BookingConfig{
			MaxAppointmentsPerSlot: 1,
			AvailableTimeSlots:     []string{"9:00 AM"},
			ClinicHours: ClinicHours{
				Start:             "09:00",
				End:               "17:00",
				AppointmentCutoff: "4pm",
			},
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non HH:MM cutoff")
	}
}
