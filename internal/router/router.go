package router

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	mailnoop "petcare-booking/internal/adapters/mail/noop"
	mem "petcare-booking/internal/adapters/storage/memory"
	pg "petcare-booking/internal/adapters/storage/postgres"
	"petcare-booking/internal/adapters/storage/redisslot"
	"petcare-booking/internal/config"
	"petcare-booking/internal/domain/appointments"
	"petcare-booking/internal/domain/carehistory"
	"petcare-booking/internal/domain/catalog"
	"petcare-booking/internal/domain/notifications"
	"petcare-booking/internal/domain/scheduling"
	"petcare-booking/internal/domain/slotpolicy"
	"petcare-booking/internal/middleware"
	"petcare-booking/internal/ports/auth"
	"petcare-booking/internal/ports/mail"
)

type Options struct {
	Cfg *config.Config
	Log *zap.Logger

	AuthVerifier auth.AuthVerifier // nil => modo dev (headers X-Debug-*)
	Mailer       mail.Sender       // nil => sender noop que solo loguea

	// Si viene DB, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Si viene Redis, el límite de capacidad por slot es distribuido.
	Redis *redis.Client
}

func NewRouter(opts Options) (http.Handler, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	policy, err := slotpolicy.New(opts.Cfg.Booking)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var (
		apptRepo    appointments.Repository
		catalogRepo catalog.Repository
	)

	if opts.DB != nil {
		apptRepo = pg.NewAppointmentsRepo(opts.DB)
		catalogRepo = pg.NewCatalogRepo(opts.DB)
	} else {
		apptRepo = mem.NewAppointmentsRepo()
		catalogRepo = mem.NewCatalogRepo()
	}

	var slots scheduling.Reserver
	if opts.Redis != nil {
		slots = redisslot.NewLimiter(opts.Redis, policy.Capacity(), log)
	} else {
		slots = scheduling.NewScheduler(apptRepo, policy.Capacity())
	}

	mailer := opts.Mailer
	if mailer == nil {
		mailer = mailnoop.New(log)
	}

	feed := notifications.NewFeed(notifications.DefaultRetention)

	apptSvc := appointments.NewService(apptRepo, catalogRepo, policy, slots, feed, mailer, log)
	historySvc := carehistory.NewService(apptRepo, catalogRepo)

	appointments.RegisterRoutes(r, apptSvc)
	notifications.RegisterRoutes(r, feed)
	carehistory.RegisterRoutes(r, historySvc)
	catalog.RegisterRoutes(r, catalogRepo)

	return r, nil
}
