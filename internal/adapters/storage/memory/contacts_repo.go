package memory

import (
	"context"
	"sort"

	"pet-identity-registry/internal/domain/contacts"
)

type ContactRepo struct {
	store *Store
}

func NewContactRepo(store *Store) *ContactRepo {
	return &ContactRepo{store: store}
}

// otherPrimary replica el índice parcial emergency_contacts_one_primary.
func otherPrimary(st *state, c contacts.EmergencyContact) bool {
	if !c.IsPrimary {
		return false
	}
	for _, o := range st.contacts {
		if o.UserID == c.UserID && o.IsPrimary && o.ID != c.ID {
			return true
		}
	}
	return false
}

func (r *ContactRepo) Create(ctx context.Context, c contacts.EmergencyContact) error {
	return r.store.write(ctx, func(st *state) error {
		if _, exists := st.contacts[c.ID]; exists {
			return contacts.ErrInvalidInput
		}
		if otherPrimary(st, c) {
			return contacts.ErrDuplicatePrimary
		}
		st.contacts[c.ID] = c
		return nil
	})
}

func (r *ContactRepo) Update(ctx context.Context, c contacts.EmergencyContact) error {
	return r.store.write(ctx, func(st *state) error {
		cur, ok := st.contacts[c.ID]
		if !ok || cur.UserID != c.UserID {
			return contacts.ErrNotFound
		}
		if otherPrimary(st, c) {
			return contacts.ErrDuplicatePrimary
		}
		c.CreatedAt = cur.CreatedAt
		st.contacts[c.ID] = c
		return nil
	})
}

func (r *ContactRepo) Delete(ctx context.Context, userID, id string) error {
	return r.store.write(ctx, func(st *state) error {
		c, ok := st.contacts[id]
		if !ok || c.UserID != userID {
			return contacts.ErrNotFound
		}
		delete(st.contacts, id)
		return nil
	})
}

func (r *ContactRepo) GetByID(ctx context.Context, userID, id string) (contacts.EmergencyContact, error) {
	var out contacts.EmergencyContact
	err := r.store.read(ctx, func(st *state) error {
		c, ok := st.contacts[id]
		if !ok || c.UserID != userID {
			return contacts.ErrNotFound
		}
		out = c
		return nil
	})
	return out, err
}

func (r *ContactRepo) ListByUser(ctx context.Context, userID string) ([]contacts.EmergencyContact, error) {
	out := make([]contacts.EmergencyContact, 0)
	err := r.store.read(ctx, func(st *state) error {
		for _, c := range st.contacts {
			if c.UserID == userID {
				out = append(out, c)
			}
		}
		return nil
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPrimary != out[j].IsPrimary {
			return out[i].IsPrimary
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

func (r *ContactRepo) GetPrimary(ctx context.Context, userID string) (contacts.EmergencyContact, error) {
	var out contacts.EmergencyContact
	err := r.store.read(ctx, func(st *state) error {
		for _, c := range st.contacts {
			if c.UserID == userID && c.IsPrimary {
				out = c
				return nil
			}
		}
		return contacts.ErrNotFound
	})
	return out, err
}

func (r *ContactRepo) UnsetPrimary(ctx context.Context, userID string) error {
	return r.store.write(ctx, func(st *state) error {
		for id, c := range st.contacts {
			if c.UserID == userID && c.IsPrimary {
				c.IsPrimary = false
				st.contacts[id] = c
			}
		}
		return nil
	})
}
