package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"pet-identity-registry/internal/domain/pets"
	"pet-identity-registry/internal/domain/records"
)

type RecordRepo struct {
	store *Store
}

func NewRecordRepo(store *Store) *RecordRepo {
	return &RecordRepo{store: store}
}

func (r *RecordRepo) Create(ctx context.Context, rec records.Record) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.pets[rec.PetID]; !ok {
			return pets.ErrNotFound
		}
		if _, exists := st.records[rec.ID]; exists {
			return records.ErrInvalidInput
		}
		st.records[rec.ID] = rec
		return nil
	})
}

func (r *RecordRepo) GetByID(ctx context.Context, id string) (records.Record, error) {
	var out records.Record
	err := r.store.read(ctx, func(st *state) error {
		rec, ok := st.records[id]
		if !ok {
			return records.ErrNotFound
		}
		out = rec
		return nil
	})
	return out, err
}

func (r *RecordRepo) ListByPet(ctx context.Context, petID string, filter records.ListFilter) ([]records.Record, error) {
	out := make([]records.Record, 0)
	err := r.store.read(ctx, func(st *state) error {
		for _, rec := range st.records {
			if rec.PetID != petID {
				continue
			}
			if !filter.IncludeVoided && rec.Status == records.RecordStatusVoided {
				continue
			}

			// Type filter
			if len(filter.Types) > 0 && !slices.Contains(filter.Types, rec.Type) {
				continue
			}

			// Date filters (occurred_at)
			if filter.From != nil && rec.OccurredAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && rec.OccurredAt.After(*filter.To) {
				continue
			}

			// Query filter
			if q := strings.TrimSpace(filter.Query); q != "" {
				hay := strings.ToLower(rec.Title + " " + rec.Notes)
				if !strings.Contains(hay, strings.ToLower(q)) {
					continue
				}
			}

			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Orden por occurred_at desc (más reciente primero)
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	if limit := filter.NormalizeLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *RecordRepo) Void(ctx context.Context, id, reason string, at time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		rec, ok := st.records[id]
		if !ok || rec.Status == records.RecordStatusVoided {
			return records.ErrNotFound
		}
		rec.Status = records.RecordStatusVoided
		rec.VoidReason = reason
		rec.VoidedAt = &at
		st.records[id] = rec
		return nil
	})
}

func (r *RecordRepo) ListDue(ctx context.Context, petID string, typ records.RecordType, from, to time.Time) ([]records.Record, error) {
	out := make([]records.Record, 0)
	err := r.store.read(ctx, func(st *state) error {
		for _, rec := range st.records {
			if rec.PetID != petID || rec.Type != typ || rec.Status != records.RecordStatusActive {
				continue
			}
			if rec.NextDueDate == nil || rec.NextDueDate.Before(from) || rec.NextDueDate.After(to) {
				continue
			}
			out = append(out, rec)
		}
		return nil
	})

	sort.Slice(out, func(i, j int) bool {
		return out[i].NextDueDate.Before(*out[j].NextDueDate)
	})
	return out, err
}
