package noseprints

import "context"

type Repository interface {
	// Create falla con ErrDuplicateHash si content_hash ya existe.
	Create(ctx context.Context, np NosePrint) error
	GetByHash(ctx context.Context, hash string) (NosePrint, error)
	ListByPet(ctx context.Context, petID string) ([]NosePrint, error)
}

// Cache es un read-through opcional hash -> petID.
type Cache interface {
	Get(ctx context.Context, hash string) (petID string, ok bool, err error)
	Set(ctx context.Context, hash, petID string) error
	Delete(ctx context.Context, hashes ...string) error
}
