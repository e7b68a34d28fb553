package missingreports

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-identity-registry/internal/domain/pets"
	"pet-identity-registry/internal/platform/logger"
	"pet-identity-registry/internal/platform/metrics"
	"pet-identity-registry/internal/ports/tx"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("missing report not found")
	ErrForbidden    = errors.New("forbidden")

	// ErrAlreadyMissing: la mascota ya tiene un reporte abierto (condición corregible por el usuario).
	ErrAlreadyMissing = errors.New("pet is already reported missing")
	// ErrNotOpen: resolver un reporte found/closed se rechaza (no es idempotente).
	ErrNotOpen = errors.New("missing report is not open")
	// ErrInvalidTransition: solo un reporte found se puede archivar.
	ErrInvalidTransition = errors.New("invalid report status transition")
	// ErrStaleStatus lo devuelve el repo cuando el update condicional no aplica.
	ErrStaleStatus = errors.New("report status changed concurrently")
)

var tracer = otel.Tracer("pet-identity-registry/missingreports")

// Pets es lo que el workflow necesita del registry.
type Pets interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
	SetStatus(ctx context.Context, petID string, status pets.Status) error
}

// Service es la máquina de estados de reportes de extravío.
// Cada transición y el cambio de status de la mascota van en la misma transacción.
type Service struct {
	repo     Repository
	pets     Pets
	tx       tx.Manager
	notifier Notifier
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option        { return func(s *Service) { s.notifier = n } }
func WithLogger(l logger.Logger) Option     { return func(s *Service) { s.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo Repository, p Pets, txm tx.Manager, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		pets:     p,
		tx:       txm,
		notifier: NopNotifier(),
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// FileReport abre un reporte y pasa la mascota a missing.
func (s *Service) FileReport(ctx context.Context, reporterUserID, petID string, d Details) (MissingReport, error) {
	ctx, span := tracer.Start(ctx, "missingreports.FileReport")
	defer span.End()

	reporterUserID = strings.TrimSpace(reporterUserID)
	petID = strings.TrimSpace(petID)
	d.MissingLocation = strings.TrimSpace(d.MissingLocation)
	d.Description = strings.TrimSpace(d.Description)
	d.ContactPhone = strings.TrimSpace(d.ContactPhone)

	now := s.now()
	if reporterUserID == "" || petID == "" || d.MissingLocation == "" || d.ContactPhone == "" {
		return MissingReport{}, ErrInvalidInput
	}
	if d.MissingDate.IsZero() || d.MissingDate.After(now.Add(time.Minute)) {
		return MissingReport{}, ErrInvalidInput
	}

	var out MissingReport
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.pets.GetByID(ctx, petID)
		if err != nil {
			return err
		}
		if p.OwnerUserID != reporterUserID {
			return ErrForbidden
		}

		_, err = s.repo.GetOpenByPet(ctx, petID)
		switch {
		case err == nil:
			return ErrAlreadyMissing
		case !errors.Is(err, ErrNotFound):
			return err
		}

		r := MissingReport{
			ID:              uuid.NewString(),
			PetID:           petID,
			ReporterUserID:  reporterUserID,
			MissingDate:     d.MissingDate.UTC(),
			MissingLocation: d.MissingLocation,
			Description:     d.Description,
			ContactPhone:    d.ContactPhone,
			Status:          StatusOpen,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.Create(ctx, r); err != nil {
			return err
		}
		if err := s.pets.SetStatus(ctx, petID, pets.StatusMissing); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return MissingReport{}, err
	}

	span.SetAttributes(attribute.String("report.id", out.ID))
	s.metrics.IncReportsFiled()
	s.log.Info("missing report filed", map[string]any{"report_id": out.ID, "pet_id": petID})
	s.publish(ctx, EventReportFiled, out)
	return out, nil
}

// Resolve cierra un reporte abierto como found o closed.
// found_at se estampa solo con found. Si no queda otro reporte abierto, la mascota vuelve a registered.
func (s *Service) Resolve(ctx context.Context, actorUserID, reportID string, outcome Outcome) (MissingReport, error) {
	ctx, span := tracer.Start(ctx, "missingreports.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("report.outcome", string(outcome)))

	if !outcome.Valid() {
		return MissingReport{}, ErrInvalidInput
	}

	var out MissingReport
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.authorize(ctx, actorUserID, reportID)
		if err != nil {
			return err
		}
		if r.Status != StatusOpen {
			return ErrNotOpen
		}

		now := s.now()
		to := StatusClosed
		var foundAt *time.Time
		if outcome == OutcomeFound {
			to = StatusFound
			foundAt = &now
		}

		if err := s.repo.UpdateStatus(ctx, r.ID, StatusOpen, to, foundAt, now); err != nil {
			if errors.Is(err, ErrStaleStatus) {
				return ErrNotOpen
			}
			return err
		}

		open, err := s.repo.CountOpenByPet(ctx, r.PetID)
		if err != nil {
			return err
		}
		if open == 0 {
			if err := s.pets.SetStatus(ctx, r.PetID, pets.StatusRegistered); err != nil {
				return err
			}
		}

		r.Status = to
		r.FoundAt = foundAt
		r.UpdatedAt = now
		out = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return MissingReport{}, err
	}

	s.metrics.IncReportsResolved(string(outcome))
	s.log.Info("missing report resolved", map[string]any{"report_id": out.ID, "outcome": string(outcome)})
	s.publish(ctx, EventReportResolved, out)
	return out, nil
}

// Archive pasa un reporte found a closed. found_at se limpia: solo existe con status found.
func (s *Service) Archive(ctx context.Context, actorUserID, reportID string) (MissingReport, error) {
	var out MissingReport
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.authorize(ctx, actorUserID, reportID)
		if err != nil {
			return err
		}
		if r.Status != StatusFound {
			return ErrInvalidTransition
		}

		now := s.now()
		if err := s.repo.UpdateStatus(ctx, r.ID, StatusFound, StatusClosed, nil, now); err != nil {
			if errors.Is(err, ErrStaleStatus) {
				return ErrInvalidTransition
			}
			return err
		}

		r.Status = StatusClosed
		r.FoundAt = nil
		r.UpdatedAt = now
		out = r
		return nil
	})
	if err != nil {
		return MissingReport{}, err
	}

	s.publish(ctx, EventReportArchived, out)
	return out, nil
}

// authorize carga el reporte y exige que el actor sea quien reportó o el dueño de la mascota.
func (s *Service) authorize(ctx context.Context, actorUserID, reportID string) (MissingReport, error) {
	actorUserID = strings.TrimSpace(actorUserID)
	reportID = strings.TrimSpace(reportID)
	if actorUserID == "" || reportID == "" {
		return MissingReport{}, ErrInvalidInput
	}

	r, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return MissingReport{}, err
	}
	if r.ReporterUserID == actorUserID {
		return r, nil
	}

	p, err := s.pets.GetByID(ctx, r.PetID)
	if err != nil {
		return MissingReport{}, err
	}
	if p.OwnerUserID != actorUserID {
		return MissingReport{}, ErrForbidden
	}
	return r, nil
}

// Get: los reportes abiertos son públicos (feed de extraviados); el resto solo para reporter/dueño.
func (s *Service) Get(ctx context.Context, actorUserID, reportID string) (MissingReport, error) {
	r, err := s.repo.GetByID(ctx, strings.TrimSpace(reportID))
	if err != nil {
		return MissingReport{}, err
	}
	if r.Status == StatusOpen {
		return r, nil
	}
	return s.authorize(ctx, actorUserID, reportID)
}

// OpenReportFor devuelve el reporte abierto de la mascota, si existe.
func (s *Service) OpenReportFor(ctx context.Context, petID string) (MissingReport, bool, error) {
	r, err := s.repo.GetOpenByPet(ctx, strings.TrimSpace(petID))
	if errors.Is(err, ErrNotFound) {
		return MissingReport{}, false, nil
	}
	if err != nil {
		return MissingReport{}, false, err
	}
	return r, true, nil
}

// ListByPet: historial completo de una mascota (solo dueño).
func (s *Service) ListByPet(ctx context.Context, actorUserID, petID string, limit, offset int) ([]MissingReport, error) {
	p, err := s.pets.GetByID(ctx, strings.TrimSpace(petID))
	if err != nil {
		return nil, err
	}
	if p.OwnerUserID != strings.TrimSpace(actorUserID) {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx, ListFilter{PetID: p.ID, Limit: limit, Offset: offset})
}

func (s *Service) ListByReporter(ctx context.Context, reporterUserID string, limit, offset int) ([]MissingReport, error) {
	reporterUserID = strings.TrimSpace(reporterUserID)
	if reporterUserID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, ListFilter{ReporterUserID: reporterUserID, Limit: limit, Offset: offset})
}

// ListOpen es el feed público de mascotas extraviadas.
func (s *Service) ListOpen(ctx context.Context, limit, offset int) ([]MissingReport, error) {
	return s.repo.List(ctx, ListFilter{Statuses: []Status{StatusOpen}, Limit: limit, Offset: offset})
}

func (s *Service) publish(ctx context.Context, typ string, r MissingReport) {
	err := s.notifier.Publish(ctx, Event{Type: typ, Report: r, OccurredAt: s.now()})
	if err != nil {
		s.metrics.IncNotificationErrors()
		s.log.Warn("report notification failed", map[string]any{
			"event":     typ,
			"report_id": r.ID,
			"error":     err.Error(),
		})
	}
}
