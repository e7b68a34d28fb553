package contacts

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-identity-registry/internal/platform/logger"
	"pet-identity-registry/internal/ports/tx"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("emergency contact not found")
	ErrDuplicatePrimary = errors.New("user already has a primary emergency contact")
)

type Service struct {
	repo Repository
	tx   tx.Manager
	log  logger.Logger
	now  func() time.Time
}

type Option func(*Service)

func WithLogger(l logger.Logger) Option     { return func(s *Service) { s.log = l } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo Repository, txm tx.Manager, opts ...Option) *Service {
	s := &Service{repo: repo, tx: txm, log: logger.Nop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func normalize(in Input) (Input, error) {
	out := Input{
		ContactName:  strings.TrimSpace(in.ContactName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Relationship: strings.TrimSpace(in.Relationship),
		IsPrimary:    in.IsPrimary,
	}
	if out.ContactName == "" || out.PhoneNumber == "" {
		return Input{}, ErrInvalidInput
	}
	return out, nil
}

// Create agrega un contacto. Si viene como primary, el anterior deja de serlo en la misma transacción.
func (s *Service) Create(ctx context.Context, userID string, in Input) (EmergencyContact, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return EmergencyContact{}, ErrInvalidInput
	}
	in, err := normalize(in)
	if err != nil {
		return EmergencyContact{}, err
	}

	now := s.now()
	c := EmergencyContact{
		ID:           uuid.NewString(),
		UserID:       userID,
		ContactName:  in.ContactName,
		PhoneNumber:  in.PhoneNumber,
		Relationship: in.Relationship,
		IsPrimary:    in.IsPrimary,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if c.IsPrimary {
			if err := s.repo.UnsetPrimary(ctx, userID); err != nil {
				return err
			}
		}
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return EmergencyContact{}, err
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (EmergencyContact, error) {
	var out EmergencyContact
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, strings.TrimSpace(userID), strings.TrimSpace(id))
		if err != nil {
			return err
		}

		if in.ContactName != nil {
			c.ContactName = *in.ContactName
		}
		if in.PhoneNumber != nil {
			c.PhoneNumber = *in.PhoneNumber
		}
		if in.Relationship != nil {
			c.Relationship = *in.Relationship
		}
		becomesPrimary := in.IsPrimary != nil && *in.IsPrimary && !c.IsPrimary
		if in.IsPrimary != nil {
			c.IsPrimary = *in.IsPrimary
		}

		n, err := normalize(Input{
			ContactName:  c.ContactName,
			PhoneNumber:  c.PhoneNumber,
			Relationship: c.Relationship,
			IsPrimary:    c.IsPrimary,
		})
		if err != nil {
			return err
		}
		c.ContactName, c.PhoneNumber, c.Relationship = n.ContactName, n.PhoneNumber, n.Relationship
		c.UpdatedAt = s.now()

		if becomesPrimary {
			if err := s.repo.UnsetPrimary(ctx, c.UserID); err != nil {
				return err
			}
		}
		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return EmergencyContact{}, err
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, strings.TrimSpace(userID), strings.TrimSpace(id))
	})
}

func (s *Service) List(ctx context.Context, userID string) ([]EmergencyContact, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByUser(ctx, userID)
}

// Primary devuelve el contacto primary del usuario; found=false si no tiene.
func (s *Service) Primary(ctx context.Context, userID string) (EmergencyContact, bool, error) {
	c, err := s.repo.GetPrimary(ctx, strings.TrimSpace(userID))
	if errors.Is(err, ErrNotFound) {
		return EmergencyContact{}, false, nil
	}
	if err != nil {
		return EmergencyContact{}, false, err
	}
	return c, true, nil
}
