package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-identity-registry/internal/domain/pets"
	"pet-identity-registry/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("record not found")
	ErrForbidden    = errors.New("forbidden")
)

// MaxUpcomingDays acota la ventana de próximas vacunas.
const MaxUpcomingDays = 365

// Owners resuelve el dueño de una mascota (pets.Service).
type Owners interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type Service struct {
	repo   Repository
	owners Owners
	log    logger.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(l logger.Logger) Option     { return func(s *Service) { s.log = l } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo Repository, owners Owners, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		owners: owners,
		log:    logger.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type CreateInput struct {
	Type         RecordType
	OccurredAt   time.Time
	Title        string
	Notes        string
	Clinic       string
	Veterinarian string
	Cost         *float64
	WeightKg     *float64
	TemperatureC *float64
	NextDueDate  *time.Time
	ImageURL     string
	Source       Source
}

func (s *Service) authorize(ctx context.Context, actorUserID, petID string) error {
	owner, err := s.owners.OwnerOf(ctx, strings.TrimSpace(petID))
	if err != nil {
		return err
	}
	if owner != strings.TrimSpace(actorUserID) {
		return ErrForbidden
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actorUserID, petID string, in CreateInput) (Record, error) {
	petID = strings.TrimSpace(petID)
	actorUserID = strings.TrimSpace(actorUserID)
	if petID == "" || actorUserID == "" {
		return Record{}, ErrInvalidInput
	}
	if !in.Type.Valid() || in.OccurredAt.IsZero() || strings.TrimSpace(in.Title) == "" {
		return Record{}, ErrInvalidInput
	}
	for _, v := range []*float64{in.Cost, in.WeightKg, in.TemperatureC} {
		if v != nil && *v < 0 {
			return Record{}, ErrInvalidInput
		}
	}
	if in.NextDueDate != nil && in.NextDueDate.Before(in.OccurredAt) {
		return Record{}, ErrInvalidInput
	}
	if in.Type == RecordTypePhoto && strings.TrimSpace(in.ImageURL) == "" {
		return Record{}, ErrInvalidInput
	}

	if err := s.authorize(ctx, actorUserID, petID); err != nil {
		return Record{}, err
	}

	src := in.Source
	if src == "" {
		src = SourceManual
	}

	rec := Record{
		ID:           uuid.NewString(),
		PetID:        petID,
		Type:         in.Type,
		OccurredAt:   in.OccurredAt,
		RecordedAt:   s.now(),
		Title:        strings.TrimSpace(in.Title),
		Notes:        strings.TrimSpace(in.Notes),
		Clinic:       strings.TrimSpace(in.Clinic),
		Veterinarian: strings.TrimSpace(in.Veterinarian),
		Cost:         in.Cost,
		WeightKg:     in.WeightKg,
		TemperatureC: in.TemperatureC,
		NextDueDate:  in.NextDueDate,
		ImageURL:     strings.TrimSpace(in.ImageURL),
		CreatedBy:    actorUserID,
		Source:       src,
		Status:       RecordStatusActive,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) ListByPet(ctx context.Context, actorUserID, petID string, filter ListFilter) ([]Record, error) {
	if err := s.authorize(ctx, actorUserID, petID); err != nil {
		return nil, err
	}
	return s.repo.ListByPet(ctx, strings.TrimSpace(petID), filter)
}

// Void marca el registro como anulado (no se borra).
func (s *Service) Void(ctx context.Context, actorUserID, petID, recordID, reason string) (Record, error) {
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return Record{}, ErrInvalidInput
	}
	// Permisos primero, para no filtrar si el registro existe.
	if err := s.authorize(ctx, actorUserID, petID); err != nil {
		return Record{}, err
	}

	rec, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return Record{}, err
	}
	if rec.PetID != strings.TrimSpace(petID) {
		return Record{}, ErrNotFound
	}

	if err := s.repo.Void(ctx, recordID, strings.TrimSpace(reason), s.now()); err != nil {
		return Record{}, err
	}
	s.log.Info("record voided", map[string]any{"record_id": recordID, "pet_id": rec.PetID})
	return s.repo.GetByID(ctx, recordID)
}

// UpcomingVaccinations lista vacunas con próxima dosis dentro de los próximos days días.
func (s *Service) UpcomingVaccinations(ctx context.Context, actorUserID, petID string, days int) ([]Record, error) {
	if days <= 0 || days > MaxUpcomingDays {
		return nil, ErrInvalidInput
	}
	if err := s.authorize(ctx, actorUserID, petID); err != nil {
		return nil, err
	}

	from := s.now()
	return s.repo.ListDue(ctx, strings.TrimSpace(petID), RecordTypeVaccination, from, from.AddDate(0, 0, days))
}

// IsNotFound unifica los "no existe" de records y de pets para los handlers.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pets.ErrNotFound)
}
