package router

import (
	"context"
	"net/http"
	"time"

	_ "pet-identity-registry/docs"
	"pet-identity-registry/internal/adapters/imaging/phash"
	memobj "pet-identity-registry/internal/adapters/objectstore/memory"
	mem "pet-identity-registry/internal/adapters/storage/memory"
	pg "pet-identity-registry/internal/adapters/storage/postgres"
	"pet-identity-registry/internal/domain/contacts"
	"pet-identity-registry/internal/domain/missingreports"
	"pet-identity-registry/internal/domain/noseprints"
	"pet-identity-registry/internal/domain/pets"
	"pet-identity-registry/internal/domain/records"
	"pet-identity-registry/internal/domain/verification"
	"pet-identity-registry/internal/middleware"
	"pet-identity-registry/internal/platform/logger"
	"pet-identity-registry/internal/platform/metrics"
	"pet-identity-registry/internal/platform/validation"
	"pet-identity-registry/internal/ports/auth"
	"pet-identity-registry/internal/ports/objectstore"
	"pet-identity-registry/internal/ports/tx"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	httpSwagger "github.com/swaggo/http-swagger"
)

const defaultMaxPhotoBytes = 5 << 20

type Options struct {
	Logger       logger.Logger
	Metrics      *metrics.Metrics
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	Pool *pgxpool.Pool

	// Opcionales
	FingerprintCache noseprints.Cache
	Uploader         objectstore.Uploader
	Notifier         missingreports.Notifier
	MaxPhotoBytes    int64
	Now              func() time.Time
}

type repos struct {
	pets     pets.Repository
	counter  pets.Counter
	prints   noseprints.Repository
	reports  missingreports.Repository
	records  records.Repository
	contacts contacts.Repository
	tx       tx.Manager
}

func newRepos(pool *pgxpool.Pool) repos {
	if pool != nil {
		return repos{
			pets:     pg.NewPetsRepo(pool),
			counter:  pg.NewCounter(pool),
			prints:   pg.NewNosePrintsRepo(pool),
			reports:  pg.NewReportsRepo(pool),
			records:  pg.NewRecordsRepo(pool),
			contacts: pg.NewContactsRepo(pool),
			tx:       pg.NewTxManager(pool),
		}
	}

	store := mem.NewStore()
	return repos{
		pets:     mem.NewPetRepo(store),
		counter:  mem.NewCounter(store),
		prints:   mem.NewNosePrintRepo(store),
		reports:  mem.NewReportRepo(store),
		records:  mem.NewRecordRepo(store),
		contacts: mem.NewContactRepo(store),
		tx:       store,
	}
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	maxPhoto := opts.MaxPhotoBytes
	if maxPhoto <= 0 {
		maxPhoto = defaultMaxPhotoBytes
	}
	uploader := opts.Uploader
	if uploader == nil {
		uploader = memobj.NewUploader("memory://photos")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = missingreports.NopNotifier()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AuthContext(opts.AuthVerifier, middleware.WithAuthLogger(log)))
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/health", healthHandler(opts.Pool))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	rp := newRepos(opts.Pool)
	v := validation.MustNew()

	storeOpts := []noseprints.Option{
		noseprints.WithLogger(log),
		noseprints.WithMetrics(opts.Metrics),
		noseprints.WithClock(now),
	}
	if opts.FingerprintCache != nil {
		storeOpts = append(storeOpts, noseprints.WithCache(opts.FingerprintCache))
	}
	prints := noseprints.NewStore(rp.prints, storeOpts...)
	intake := noseprints.NewIntake(phash.New(), uploader, maxPhoto, noseprints.WithClaimCheck(prints))

	// Services por módulo
	petsSvc := pets.NewService(rp.pets, pets.NewIDSequencer(rp.counter), prints, rp.tx,
		pets.WithLogger(log),
		pets.WithMetrics(opts.Metrics),
		pets.WithClock(now),
	)
	reportsSvc := missingreports.NewService(rp.reports, petsSvc, rp.tx,
		missingreports.WithNotifier(notifier),
		missingreports.WithLogger(log),
		missingreports.WithMetrics(opts.Metrics),
		missingreports.WithClock(now),
	)
	contactsSvc := contacts.NewService(rp.contacts, rp.tx,
		contacts.WithLogger(log),
		contacts.WithClock(now),
	)
	verifySvc := verification.NewService(prints, petsSvc, reportsSvc,
		verification.WithHasher(intake),
		verification.WithContacts(contactsSvc),
		verification.WithLogger(log),
		verification.WithMetrics(opts.Metrics),
	)
	recordsSvc := records.NewService(rp.records, petsSvc,
		records.WithLogger(log),
		records.WithClock(now),
	)

	// Rutas por módulo
	pets.RegisterRoutes(r, petsSvc, intake, v)
	missingreports.RegisterRoutes(r, reportsSvc, v)
	records.RegisterRoutes(r, recordsSvc)
	contacts.RegisterRoutes(r, contactsSvc, v)
	verification.RegisterRoutes(r, verifySvc, intake, v)

	return r
}

func healthHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
