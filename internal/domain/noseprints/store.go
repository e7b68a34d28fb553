package noseprints

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-identity-registry/internal/platform/logger"
	"pet-identity-registry/internal/platform/metrics"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("nose print not found")
	ErrDuplicateHash = errors.New("nose print already registered to another pet")
)

// MaxHashLen acota la clave; los hashes perceptuales reales son mucho más cortos.
const MaxHashLen = 128

// NormalizeHash deja el hash como clave canónica (trim + lower).
func NormalizeHash(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Store es el índice de huellas: hash -> mascota, con dedup garantizado por el storage.
type Store struct {
	repo    Repository
	cache   Cache
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Store)

func WithCache(c Cache) Option              { return func(s *Store) { s.cache = c } }
func WithLogger(l logger.Logger) Option     { return func(s *Store) { s.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Store) { s.metrics = m } }
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func NewStore(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo: repo,
		log:  logger.Nop(),
		now:  time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func validHash(h string) bool {
	return h != "" && len(h) <= MaxHashLen
}

// Lookup resuelve hash -> petID. "No encontrado" es found=false, no un error.
// Pasa por la cache si hay una configurada; no usar dentro de una transacción de escritura.
func (s *Store) Lookup(ctx context.Context, hash string) (string, bool, error) {
	h := NormalizeHash(hash)
	if !validHash(h) {
		return "", false, ErrInvalidInput
	}

	if s.cache != nil {
		petID, ok, err := s.cache.Get(ctx, h)
		switch {
		case err != nil:
			s.metrics.IncCache("error")
			s.log.Warn("fingerprint cache get failed", map[string]any{"error": err.Error()})
		case ok:
			s.metrics.IncCache("hit")
			return petID, true, nil
		default:
			s.metrics.IncCache("miss")
		}
	}

	petID, found, err := s.Resolve(ctx, h)
	if err != nil || !found {
		return "", found, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, h, petID); err != nil {
			s.log.Warn("fingerprint cache set failed", map[string]any{"error": err.Error()})
		}
	}
	return petID, true, nil
}

// Resolve es Lookup sin cache: lee el storage (y la transacción del ctx, si hay).
func (s *Store) Resolve(ctx context.Context, hash string) (string, bool, error) {
	h := NormalizeHash(hash)
	if !validHash(h) {
		return "", false, ErrInvalidInput
	}

	np, err := s.repo.GetByHash(ctx, h)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return np.PetID, true, nil
}

// Register ancla hash a petID.
// - hash libre: crea la NosePrint
// - hash de la misma mascota: devuelve la existente
// - hash de otra mascota: ErrDuplicateHash
// La unicidad final la garantiza el índice único del storage.
func (s *Store) Register(ctx context.Context, hash, petID, imageURL string) (NosePrint, error) {
	h := NormalizeHash(hash)
	petID = strings.TrimSpace(petID)
	if !validHash(h) || petID == "" {
		return NosePrint{}, ErrInvalidInput
	}

	existing, err := s.repo.GetByHash(ctx, h)
	switch {
	case err == nil:
		if existing.PetID == petID {
			return existing, nil
		}
		return NosePrint{}, ErrDuplicateHash
	case !errors.Is(err, ErrNotFound):
		return NosePrint{}, err
	}

	np := NosePrint{
		ID:           uuid.NewString(),
		PetID:        petID,
		ImageURL:     strings.TrimSpace(imageURL),
		ContentHash:  h,
		RegisteredAt: s.now(),
	}
	if err := s.repo.Create(ctx, np); err != nil {
		return NosePrint{}, err
	}
	return np, nil
}

func (s *Store) ListByPet(ctx context.Context, petID string) ([]NosePrint, error) {
	return s.repo.ListByPet(ctx, petID)
}

// Forget saca hashes de la cache (p.ej. después de borrar la mascota).
func (s *Store) Forget(ctx context.Context, hashes []string) {
	if s.cache == nil || len(hashes) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, hashes...); err != nil {
		s.log.Warn("fingerprint cache delete failed", map[string]any{"error": err.Error(), "count": len(hashes)})
	}
}
