package memory

import (
	"context"
	"sort"
	"time"

	"pet-identity-registry/internal/domain/pets"
)

type PetRepo struct {
	store *Store
}

func NewPetRepo(store *Store) *PetRepo {
	return &PetRepo{store: store}
}

func (r *PetRepo) Create(ctx context.Context, p pets.Pet) error {
	return r.store.write(ctx, func(st *state) error {
		if _, exists := st.pets[p.ID]; exists {
			return pets.ErrInvalidInput
		}
		if _, taken := st.publicIDs[p.PublicID.String()]; taken {
			return pets.ErrDuplicatePublicID
		}
		if p.GovernmentRegistrationNumber != "" {
			if _, taken := st.govNumbers[p.GovernmentRegistrationNumber]; taken {
				return pets.ErrDuplicateGovernmentID
			}
			st.govNumbers[p.GovernmentRegistrationNumber] = p.ID
		}
		st.publicIDs[p.PublicID.String()] = p.ID
		st.pets[p.ID] = p
		return nil
	})
}

// Update persiste el perfil; status y public_id quedan como estaban.
func (r *PetRepo) Update(ctx context.Context, p pets.Pet) error {
	return r.store.write(ctx, func(st *state) error {
		cur, ok := st.pets[p.ID]
		if !ok {
			return pets.ErrNotFound
		}

		if p.GovernmentRegistrationNumber != cur.GovernmentRegistrationNumber {
			if p.GovernmentRegistrationNumber != "" {
				if other, taken := st.govNumbers[p.GovernmentRegistrationNumber]; taken && other != p.ID {
					return pets.ErrDuplicateGovernmentID
				}
				st.govNumbers[p.GovernmentRegistrationNumber] = p.ID
			}
			if cur.GovernmentRegistrationNumber != "" {
				delete(st.govNumbers, cur.GovernmentRegistrationNumber)
			}
		}

		p.PublicID = cur.PublicID
		p.OwnerUserID = cur.OwnerUserID
		p.Status = cur.Status
		p.NosePrintVerified = cur.NosePrintVerified
		p.CreatedAt = cur.CreatedAt
		st.pets[p.ID] = p
		return nil
	})
}

func (r *PetRepo) SetStatus(ctx context.Context, id string, status pets.Status, at time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		p, ok := st.pets[id]
		if !ok {
			return pets.ErrNotFound
		}
		p.Status = status
		p.UpdatedAt = at
		st.pets[id] = p
		return nil
	})
}

func (r *PetRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	var out pets.Pet
	err := r.store.read(ctx, func(st *state) error {
		p, ok := st.pets[id]
		if !ok {
			return pets.ErrNotFound
		}
		out = p
		return nil
	})
	return out, err
}

func (r *PetRepo) GetByPublicID(ctx context.Context, publicID pets.PublicID) (pets.Pet, error) {
	return r.byIndex(ctx, func(st *state) (string, bool) {
		id, ok := st.publicIDs[publicID.String()]
		return id, ok
	})
}

func (r *PetRepo) GetByGovernmentRegistrationNumber(ctx context.Context, number string) (pets.Pet, error) {
	return r.byIndex(ctx, func(st *state) (string, bool) {
		id, ok := st.govNumbers[number]
		return id, ok
	})
}

func (r *PetRepo) byIndex(ctx context.Context, lookup func(st *state) (string, bool)) (pets.Pet, error) {
	var out pets.Pet
	err := r.store.read(ctx, func(st *state) error {
		id, ok := lookup(st)
		if !ok {
			return pets.ErrNotFound
		}
		out = st.pets[id]
		return nil
	})
	return out, err
}

func (r *PetRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	out := make([]pets.Pet, 0)
	err := r.store.read(ctx, func(st *state) error {
		for _, p := range st.pets {
			if p.OwnerUserID == ownerUserID {
				out = append(out, p)
			}
		}
		return nil
	})

	// Orden por public_id (= orden de registro)
	sort.Slice(out, func(i, j int) bool {
		return out[i].PublicID < out[j].PublicID
	})
	return out, err
}

// Delete replica ON DELETE RESTRICT de missing_reports y CASCADE de nose_prints.
func (r *PetRepo) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func(st *state) error {
		p, ok := st.pets[id]
		if !ok {
			return pets.ErrNotFound
		}
		for _, rep := range st.reports {
			if rep.PetID == id {
				return pets.ErrHasReports
			}
		}

		for npID, np := range st.prints {
			if np.PetID == id {
				delete(st.hashes, np.ContentHash)
				delete(st.prints, npID)
			}
		}
		for recID, rec := range st.records {
			if rec.PetID == id {
				delete(st.records, recID)
			}
		}

		delete(st.publicIDs, p.PublicID.String())
		if p.GovernmentRegistrationNumber != "" {
			delete(st.govNumbers, p.GovernmentRegistrationNumber)
		}
		delete(st.pets, id)
		return nil
	})
}
