package memory

import (
	"context"
	"sort"

	"pet-identity-registry/internal/domain/noseprints"
	"pet-identity-registry/internal/domain/pets"
)

type NosePrintRepo struct {
	store *Store
}

func NewNosePrintRepo(store *Store) *NosePrintRepo {
	return &NosePrintRepo{store: store}
}

func (r *NosePrintRepo) Create(ctx context.Context, np noseprints.NosePrint) error {
	return r.store.write(ctx, func(st *state) error {
		if _, taken := st.hashes[np.ContentHash]; taken {
			return noseprints.ErrDuplicateHash
		}
		if _, ok := st.pets[np.PetID]; !ok {
			return pets.ErrNotFound
		}
		st.hashes[np.ContentHash] = np.ID
		st.prints[np.ID] = np
		return nil
	})
}

func (r *NosePrintRepo) GetByHash(ctx context.Context, hash string) (noseprints.NosePrint, error) {
	var out noseprints.NosePrint
	err := r.store.read(ctx, func(st *state) error {
		id, ok := st.hashes[hash]
		if !ok {
			return noseprints.ErrNotFound
		}
		out = st.prints[id]
		return nil
	})
	return out, err
}

func (r *NosePrintRepo) ListByPet(ctx context.Context, petID string) ([]noseprints.NosePrint, error) {
	out := make([]noseprints.NosePrint, 0)
	err := r.store.read(ctx, func(st *state) error {
		for _, np := range st.prints {
			if np.PetID == petID {
				out = append(out, np)
			}
		}
		return nil
	})

	sort.Slice(out, func(i, j int) bool {
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out, err
}
