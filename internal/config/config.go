package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa toda la configuración del servicio.
// Se lee de config.yaml con overrides por env (prefijo PETCARE_).
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Booking  BookingConfig  `mapstructure:"booking"`
	Identity IdentityConfig `mapstructure:"identity"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"` // vacío => repos in-memory
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug|info|warn|error
	Format string `mapstructure:"format"` // json|console
}

// BookingConfig es la superficie de configuración del Slot Policy.
type BookingConfig struct {
	MaxAppointmentsPerSlot int          `mapstructure:"max_appointments_per_slot"`
	AvailableTimeSlots     []string     `mapstructure:"available_time_slots"`
	ExcludedDays           []int        `mapstructure:"excluded_days"` // 0=domingo .. 6=sábado
	ClinicHours            ClinicHours  `mapstructure:"clinic_hours"`
}

type ClinicHours struct {
	Start             string `mapstructure:"start"`              // "09:00"
	End               string `mapstructure:"end"`                // "17:00"
	AppointmentCutoff string `mapstructure:"appointment_cutoff"` // "16:00"
}

type IdentityConfig struct {
	BaseURL string `mapstructure:"base_url"` // vacío => modo dev (X-Debug-User-ID)
	APIKey  string `mapstructure:"api_key"`
}

func Read(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	// Overrides por env: PETCARE_BOOKING_MAX_APPOINTMENTS_PER_SLOT, etc.
	v.SetEnvPrefix("PETCARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// El archivo es opcional (Docker suele configurar todo por env).
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func MustRead(configPath string) *Config {
	cfg, err := Read(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("booking.max_appointments_per_slot", 3)
	v.SetDefault("booking.available_time_slots", []string{
		"9:00 AM", "9:30 AM", "10:00 AM", "10:30 AM",
		"11:00 AM", "11:30 AM", "12:00 PM", "12:30 PM",
		"1:00 PM", "1:30 PM", "2:00 PM", "2:30 PM",
		"3:00 PM", "3:30 PM", "4:00 PM", "4:30 PM",
	})
	v.SetDefault("booking.excluded_days", []int{0}) // domingo cerrado
	v.SetDefault("booking.clinic_hours.start", "09:00")
	v.SetDefault("booking.clinic_hours.end", "17:00")
	v.SetDefault("booking.clinic_hours.appointment_cutoff", "16:00")
}

func (c *Config) Validate() error {
	if c.Booking.MaxAppointmentsPerSlot < 1 {
		return fmt.Errorf("booking.max_appointments_per_slot must be >= 1, got %d", c.Booking.MaxAppointmentsPerSlot)
	}
	if len(c.Booking.AvailableTimeSlots) == 0 {
		return fmt.Errorf("booking.available_time_slots must not be empty")
	}
	for _, d := range c.Booking.ExcludedDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("booking.excluded_days: weekday index %d out of range 0-6", d)
		}
	}
	for _, raw := range []string{
		c.Booking.ClinicHours.Start,
		c.Booking.ClinicHours.End,
		c.Booking.ClinicHours.AppointmentCutoff,
	} {
		if _, err := time.Parse("15:04", raw); err != nil {
			return fmt.Errorf("booking.clinic_hours: %q is not HH:MM: %w", raw, err)
		}
	}
	return nil
}
