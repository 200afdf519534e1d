package router

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	mem "symptom-journal/internal/adapters/storage/memory"
	pg "symptom-journal/internal/adapters/storage/postgres"
	lite "symptom-journal/internal/adapters/storage/sqlite"
	"symptom-journal/internal/domain/insights"
	"symptom-journal/internal/domain/medications"
	"symptom-journal/internal/domain/schedules"
	"symptom-journal/internal/domain/symptoms"
	"symptom-journal/internal/middleware"
	"symptom-journal/internal/platform/logger"
	"symptom-journal/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "symptom-journal/docs"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, se resuelve por env:
	// DB_DSN => Postgres, SQLITE_PATH => sqlite, nada => in-memory.
	DB *sql.DB

	Log logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.NewFromEnv()
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

	r.Get("/swagger/*", httpSwagger.Handler())

	var (
		symptomRepo  symptoms.Repository
		medRepo      medications.Repository
		scheduleRepo schedules.Repository

		sevSource insights.SeveritySource
		medSource insights.MedicationCountSource
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Error("postgres open failed, falling back", map[string]any{"err": err.Error()})
			}
		}
	}

	switch {
	case db != nil:
		sr := pg.NewSymptomsRepo(db)
		mr := pg.NewMedicationsRepo(db)
		symptomRepo, medRepo, scheduleRepo = sr, mr, pg.NewSchedulesRepo(db)
		sevSource, medSource = sr, mr

	case os.Getenv("SQLITE_PATH") != "":
		path := os.Getenv("SQLITE_PATH")
		sdb, err := lite.Open(path)
		if err != nil {
			log.Error("sqlite open failed, falling back to memory", map[string]any{
				"path": path, "err": err.Error(),
			})
			symptomRepo, medRepo, scheduleRepo, sevSource, medSource = memoryRepos()
			break
		}

		// Bases heredadas pueden traer timestamps en hora local del
		// server; LEGACY_TZ dice cuál era (default: zona del server).
		loc := time.Local
		if tz := os.Getenv("LEGACY_TZ"); tz != "" {
			if l, err := time.LoadLocation(tz); err == nil {
				loc = l
			} else {
				log.Warn("bad LEGACY_TZ, using server zone", map[string]any{"tz": tz})
			}
		}
		if err := lite.MigrateTimestampsToUTC(context.Background(), sdb, loc, log); err != nil {
			log.Error("utc backfill failed", map[string]any{"err": err.Error()})
		}

		sr := lite.NewSymptomsRepo(sdb)
		mr := lite.NewMedicationsRepo(sdb)
		symptomRepo, medRepo, scheduleRepo = sr, mr, lite.NewSchedulesRepo(sdb)
		sevSource, medSource = sr, mr

	default:
		symptomRepo, medRepo, scheduleRepo, sevSource, medSource = memoryRepos()
	}

	// Services por módulo
	symptomsSvc := symptoms.NewService(symptomRepo)
	medsSvc := medications.NewService(medRepo)
	schedulesSvc := schedules.NewService(scheduleRepo)
	insightsSvc := insights.NewService(sevSource, medSource)

	// Rutas por módulo
	symptoms.RegisterRoutes(r, symptomsSvc)
	medications.RegisterRoutes(r, medsSvc)
	schedules.RegisterRoutes(r, schedulesSvc)
	insights.RegisterRoutes(r, insightsSvc)

	return r
}

func memoryRepos() (symptoms.Repository, medications.Repository, schedules.Repository, insights.SeveritySource, insights.MedicationCountSource) {
	sr := mem.NewSymptomsRepo()
	mr := mem.NewMedicationsRepo()
	return sr, mr, mem.NewSchedulesRepo(), sr, mr
}
