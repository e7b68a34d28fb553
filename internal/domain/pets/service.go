package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-identity-registry/internal/domain/noseprints"
	"pet-identity-registry/internal/platform/logger"
	"pet-identity-registry/internal/platform/metrics"
	"pet-identity-registry/internal/ports/tx"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("pet not found")
	ErrForbidden             = errors.New("forbidden")
	ErrDuplicateGovernmentID = errors.New("government registration number already registered")
	ErrDuplicatePublicID     = errors.New("public id already assigned")
	ErrHasReports            = errors.New("pet is referenced by missing reports")
)

// RegistrationError envuelve el motivo de un registro rechazado:
// noseprints.ErrDuplicateHash, ErrDuplicateGovernmentID o ErrSequenceExhausted.
type RegistrationError struct {
	Err error
}

func (e *RegistrationError) Error() string { return "registration rejected: " + e.Err.Error() }
func (e *RegistrationError) Unwrap() error { return e.Err }

var tracer = otel.Tracer("pet-identity-registry/pets")

// Service es el registry de mascotas: dueño de Pet y de sus NosePrints.
type Service struct {
	repo    Repository
	seq     *IDSequencer
	prints  *noseprints.Store
	tx      tx.Manager
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(l logger.Logger) Option     { return func(s *Service) { s.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo Repository, seq *IDSequencer, prints *noseprints.Store, txm tx.Manager, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		seq:    seq,
		prints: prints,
		tx:     txm,
		log:    logger.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func normalizeProfile(in Profile) (Profile, error) {
	out := Profile{
		Name:                         strings.TrimSpace(in.Name),
		BirthDate:                    in.BirthDate,
		Gender:                       Gender(strings.ToLower(strings.TrimSpace(string(in.Gender)))),
		Breed:                        strings.TrimSpace(in.Breed),
		GovernmentRegistrationNumber: strings.TrimSpace(in.GovernmentRegistrationNumber),
		ProfileImageURL:              strings.TrimSpace(in.ProfileImageURL),
	}
	if out.Name == "" || !out.Gender.Valid() {
		return Profile{}, ErrInvalidInput
	}
	return out, nil
}

// Register crea Pet + NosePrint en una sola transacción.
// Si la huella o el número de registro ya existen, no queda ni mascota ni ID consumido.
func (s *Service) Register(ctx context.Context, ownerUserID string, in Profile, photo noseprints.Photo) (Pet, error) {
	ctx, span := tracer.Start(ctx, "pets.Register")
	defer span.End()
	defer s.metrics.ObserveRegister(time.Now())

	ownerUserID = strings.TrimSpace(ownerUserID)
	hash := noseprints.NormalizeHash(photo.Hash)
	if ownerUserID == "" || hash == "" {
		return Pet{}, ErrInvalidInput
	}
	profile, err := normalizeProfile(in)
	if err != nil {
		return Pet{}, err
	}

	var out Pet
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, claimed, err := s.prints.Resolve(ctx, hash); err != nil {
			return err
		} else if claimed {
			return noseprints.ErrDuplicateHash
		}

		if profile.GovernmentRegistrationNumber != "" {
			_, err := s.repo.GetByGovernmentRegistrationNumber(ctx, profile.GovernmentRegistrationNumber)
			switch {
			case err == nil:
				return ErrDuplicateGovernmentID
			case !errors.Is(err, ErrNotFound):
				return err
			}
		}

		publicID, err := s.seq.Next(ctx)
		if err != nil {
			return err
		}

		now := s.now()
		p := Pet{
			ID:                           uuid.NewString(),
			PublicID:                     publicID,
			OwnerUserID:                  ownerUserID,
			GovernmentRegistrationNumber: profile.GovernmentRegistrationNumber,
			Name:                         profile.Name,
			BirthDate:                    profile.BirthDate,
			Gender:                       profile.Gender,
			Breed:                        profile.Breed,
			ProfileImageURL:              profile.ProfileImageURL,
			Status:                       StatusRegistered,
			NosePrintVerified:            true,
			CreatedAt:                    now,
			UpdatedAt:                    now,
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		if _, err := s.prints.Register(ctx, hash, p.ID, photo.ImageURL); err != nil {
			return err
		}

		out = p
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "register failed")
		return Pet{}, s.registrationFailure(ownerUserID, err)
	}

	span.SetAttributes(attribute.String("pet.public_id", out.PublicID.String()))
	s.metrics.IncPetsRegistered()
	s.log.Info("pet registered", map[string]any{
		"pet_id":    out.ID,
		"public_id": out.PublicID.String(),
		"owner_id":  ownerUserID,
	})
	return out, nil
}

func (s *Service) registrationFailure(ownerUserID string, err error) error {
	var reason string
	switch {
	case errors.Is(err, noseprints.ErrDuplicateHash):
		reason = "duplicate_hash"
	case errors.Is(err, ErrDuplicateGovernmentID):
		reason = "duplicate_government_id"
	case errors.Is(err, ErrSequenceExhausted):
		s.log.Error("public id sequence exhausted", map[string]any{"owner_id": ownerUserID})
		s.metrics.IncRegistrationRejected("sequence_exhausted")
		return &RegistrationError{Err: ErrSequenceExhausted}
	default:
		return err
	}
	s.metrics.IncRegistrationRejected(reason)
	s.log.Info("registration rejected", map[string]any{"owner_id": ownerUserID, "reason": reason})
	return &RegistrationError{Err: err}
}

// AddNosePrint suma otra foto a una mascota ya registrada (solo el dueño).
func (s *Service) AddNosePrint(ctx context.Context, actorUserID, petID string, photo noseprints.Photo) (noseprints.NosePrint, error) {
	hash := noseprints.NormalizeHash(photo.Hash)
	if strings.TrimSpace(petID) == "" || hash == "" {
		return noseprints.NosePrint{}, ErrInvalidInput
	}

	var np noseprints.NosePrint
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, actorUserID, petID); err != nil {
			return err
		}
		created, err := s.prints.Register(ctx, hash, petID, photo.ImageURL)
		if err != nil {
			return err
		}
		np = created
		return nil
	})
	if err != nil {
		return noseprints.NosePrint{}, err
	}
	return np, nil
}

func (s *Service) ListNosePrints(ctx context.Context, actorUserID, petID string) ([]noseprints.NosePrint, error) {
	if _, err := s.Get(ctx, actorUserID, petID); err != nil {
		return nil, err
	}
	return s.prints.ListByPet(ctx, petID)
}

// SetStatus lo invoca únicamente el workflow de reportes de extravío,
// dentro de su propia transacción (no abre una nueva).
func (s *Service) SetStatus(ctx context.Context, petID string, status Status) error {
	if strings.TrimSpace(petID) == "" || !status.Valid() {
		return ErrInvalidInput
	}
	return s.repo.SetStatus(ctx, petID, status, s.now())
}

// FindByPublicID: found=false cuando no existe (no es un error).
func (s *Service) FindByPublicID(ctx context.Context, raw string) (Pet, bool, error) {
	id, err := ParsePublicID(strings.TrimSpace(raw))
	if err != nil {
		return Pet{}, false, ErrInvalidInput
	}
	return found(s.repo.GetByPublicID(ctx, id))
}

// FindByGovernmentRegistrationNumber: found=false cuando no existe (no es un error).
func (s *Service) FindByGovernmentRegistrationNumber(ctx context.Context, number string) (Pet, bool, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return Pet{}, false, ErrInvalidInput
	}
	return found(s.repo.GetByGovernmentRegistrationNumber(ctx, number))
}

func found(p Pet, err error) (Pet, bool, error) {
	if errors.Is(err, ErrNotFound) {
		return Pet{}, false, nil
	}
	if err != nil {
		return Pet{}, false, err
	}
	return p, true, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Get devuelve la mascota solo a su dueño.
func (s *Service) Get(ctx context.Context, actorUserID, petID string) (Pet, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if p.OwnerUserID != strings.TrimSpace(actorUserID) {
		return Pet{}, ErrForbidden
	}
	return p, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, strings.TrimSpace(ownerUserID))
}

// UpdateProfileInput usa punteros para PATCH real: nil = no tocar.
type UpdateProfileInput struct {
	Name                         *string
	Gender                       *string
	Breed                        *string
	ProfileImageURL              *string
	GovernmentRegistrationNumber *string
	BirthDate                    PatchDate
}

// PatchDate distingue "no enviado" de "null" (limpiar).
type PatchDate struct {
	Present bool
	Value   *time.Time
}

func (s *Service) UpdateProfile(ctx context.Context, actorUserID, petID string, in UpdateProfileInput) (Pet, error) {
	var out Pet
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.Get(ctx, actorUserID, petID)
		if err != nil {
			return err
		}

		if in.Name != nil {
			p.Name = *in.Name
		}
		if in.Gender != nil {
			p.Gender = Gender(*in.Gender)
		}
		if in.Breed != nil {
			p.Breed = *in.Breed
		}
		if in.ProfileImageURL != nil {
			p.ProfileImageURL = *in.ProfileImageURL
		}
		if in.GovernmentRegistrationNumber != nil {
			p.GovernmentRegistrationNumber = *in.GovernmentRegistrationNumber
		}
		if in.BirthDate.Present {
			p.BirthDate = in.BirthDate.Value
		}

		profile, err := normalizeProfile(Profile{
			Name:                         p.Name,
			BirthDate:                    p.BirthDate,
			Gender:                       p.Gender,
			Breed:                        p.Breed,
			GovernmentRegistrationNumber: p.GovernmentRegistrationNumber,
			ProfileImageURL:              p.ProfileImageURL,
		})
		if err != nil {
			return err
		}

		if profile.GovernmentRegistrationNumber != "" {
			other, err := s.repo.GetByGovernmentRegistrationNumber(ctx, profile.GovernmentRegistrationNumber)
			switch {
			case err == nil && other.ID != p.ID:
				return ErrDuplicateGovernmentID
			case err != nil && !errors.Is(err, ErrNotFound):
				return err
			}
		}

		p.Name = profile.Name
		p.Gender = profile.Gender
		p.Breed = profile.Breed
		p.ProfileImageURL = profile.ProfileImageURL
		p.GovernmentRegistrationNumber = profile.GovernmentRegistrationNumber
		p.UpdatedAt = s.now()

		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return Pet{}, err
	}
	return out, nil
}

// Delete borra la mascota y sus huellas. Si algún reporte la referencia, ErrHasReports.
func (s *Service) Delete(ctx context.Context, actorUserID, petID string) error {
	var hashes []string
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, actorUserID, petID); err != nil {
			return err
		}
		prints, err := s.prints.ListByPet(ctx, petID)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, petID); err != nil {
			return err
		}
		for _, np := range prints {
			hashes = append(hashes, np.ContentHash)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.prints.Forget(ctx, hashes)
	s.log.Info("pet deleted", map[string]any{"pet_id": petID, "nose_prints": len(hashes)})
	return nil
}

// OwnerOf expone el ownerUserID de una mascota.
// Lo usan records y missingreports sin depender del modelo completo.
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", fmt.Errorf("owner of %s: %w", petID, err)
	}
	return p.OwnerUserID, nil
}
