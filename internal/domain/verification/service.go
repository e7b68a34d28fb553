package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pet-identity-registry/internal/domain/contacts"
	"pet-identity-registry/internal/domain/missingreports"
	"pet-identity-registry/internal/domain/pets"
	"pet-identity-registry/internal/platform/logger"
	"pet-identity-registry/internal/platform/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var ErrInvalidMode = errors.New("invalid verification mode")

var tracer = otel.Tracer("pet-identity-registry/verification")

// Fingerprints resuelve hash -> mascota (noseprints.Store).
type Fingerprints interface {
	Lookup(ctx context.Context, hash string) (petID string, found bool, err error)
}

// Hasher calcula la huella de una foto (noseprints.Intake).
type Hasher interface {
	Fingerprint(data []byte) (string, error)
}

type Pets interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
}

type Reports interface {
	OpenReportFor(ctx context.Context, petID string) (missingreports.MissingReport, bool, error)
}

type Contacts interface {
	Primary(ctx context.Context, userID string) (contacts.EmergencyContact, bool, error)
}

// Service es la fachada que usa la app: foto -> mascota + contexto de extravío, o no_match.
type Service struct {
	prints   Fingerprints
	hasher   Hasher
	pets     Pets
	reports  Reports
	contacts Contacts
	log      logger.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithHasher(h Hasher) Option            { return func(s *Service) { s.hasher = h } }
func WithContacts(c Contacts) Option        { return func(s *Service) { s.contacts = c } }
func WithLogger(l logger.Logger) Option     { return func(s *Service) { s.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func NewService(prints Fingerprints, p Pets, reports Reports, opts ...Option) *Service {
	s := &Service{
		prints:  prints,
		pets:    p,
		reports: reports,
		log:     logger.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Verify busca el hash. Sin coincidencia devuelve Outcome no_match y err nil.
func (s *Service) Verify(ctx context.Context, hash string, mode Mode) (res Result, err error) {
	ctx, span := tracer.Start(ctx, "verification.Verify")
	defer span.End()
	span.SetAttributes(attribute.String("verification.mode", string(mode)))

	if !mode.Valid() {
		return Result{}, ErrInvalidMode
	}

	start := time.Now()
	defer func() {
		if err == nil {
			s.metrics.ObserveVerify(start, string(mode), string(res.Outcome))
			span.SetAttributes(attribute.String("verification.outcome", string(res.Outcome)))
		} else {
			span.RecordError(err)
		}
	}()

	petID, found, err := s.prints.Lookup(ctx, hash)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return Result{Outcome: OutcomeNoMatch, Mode: mode}, nil
	}

	p, err := s.pets.GetByID(ctx, petID)
	if errors.Is(err, pets.ErrNotFound) {
		// Cache vieja apuntando a una mascota borrada.
		s.log.Warn("fingerprint points to missing pet", map[string]any{"pet_id": petID})
		return Result{Outcome: OutcomeNoMatch, Mode: mode}, nil
	}
	if err != nil {
		return Result{}, err
	}

	res = Result{
		Outcome:          OutcomeMatch,
		Mode:             mode,
		Pet:              &p,
		CurrentlyMissing: p.Status == pets.StatusMissing,
	}
	if mode != ModeFoundStray {
		return res, nil
	}

	if res.CurrentlyMissing {
		rep, open, err := s.reports.OpenReportFor(ctx, p.ID)
		if err != nil {
			return Result{}, err
		}
		if open {
			res.OpenReport = &rep
		}
		return res, nil
	}

	if s.contacts != nil {
		c, ok, err := s.contacts.Primary(ctx, p.OwnerUserID)
		if err != nil {
			return Result{}, err
		}
		if ok {
			res.PrimaryContact = &c
		}
	}
	return res, nil
}

// VerifyPhoto calcula la huella de la foto y verifica. La foto no se guarda.
func (s *Service) VerifyPhoto(ctx context.Context, data []byte, mode Mode) (Result, error) {
	if s.hasher == nil {
		return Result{}, fmt.Errorf("verify photo: no hasher configured")
	}
	h, err := s.hasher.Fingerprint(data)
	if err != nil {
		return Result{}, err
	}
	return s.Verify(ctx, h, mode)
}
