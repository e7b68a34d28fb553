package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"pet-identity-registry/internal/domain/missingreports"
	"pet-identity-registry/internal/domain/pets"
)

type ReportRepo struct {
	store *Store
}

func NewReportRepo(store *Store) *ReportRepo {
	return &ReportRepo{store: store}
}

func openReportOf(st *state, petID string) (missingreports.MissingReport, bool) {
	for _, rep := range st.reports {
		if rep.PetID == petID && rep.Status == missingreports.StatusOpen {
			return rep, true
		}
	}
	return missingreports.MissingReport{}, false
}

func (r *ReportRepo) Create(ctx context.Context, rep missingreports.MissingReport) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.pets[rep.PetID]; !ok {
			return pets.ErrNotFound
		}
		if rep.Status == missingreports.StatusOpen {
			if _, exists := openReportOf(st, rep.PetID); exists {
				return missingreports.ErrAlreadyMissing
			}
		}
		st.reports[rep.ID] = rep
		return nil
	})
}

func (r *ReportRepo) GetByID(ctx context.Context, id string) (missingreports.MissingReport, error) {
	var out missingreports.MissingReport
	err := r.store.read(ctx, func(st *state) error {
		rep, ok := st.reports[id]
		if !ok {
			return missingreports.ErrNotFound
		}
		out = rep
		return nil
	})
	return out, err
}

func (r *ReportRepo) GetOpenByPet(ctx context.Context, petID string) (missingreports.MissingReport, error) {
	var out missingreports.MissingReport
	err := r.store.read(ctx, func(st *state) error {
		rep, ok := openReportOf(st, petID)
		if !ok {
			return missingreports.ErrNotFound
		}
		out = rep
		return nil
	})
	return out, err
}

func (r *ReportRepo) CountOpenByPet(ctx context.Context, petID string) (int, error) {
	n := 0
	err := r.store.read(ctx, func(st *state) error {
		for _, rep := range st.reports {
			if rep.PetID == petID && rep.Status == missingreports.StatusOpen {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *ReportRepo) UpdateStatus(ctx context.Context, id string, from, to missingreports.Status, foundAt *time.Time, at time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		rep, ok := st.reports[id]
		if !ok {
			return missingreports.ErrNotFound
		}
		if rep.Status != from {
			return missingreports.ErrStaleStatus
		}
		rep.Status = to
		rep.FoundAt = foundAt
		rep.UpdatedAt = at
		st.reports[id] = rep
		return nil
	})
}

func (r *ReportRepo) List(ctx context.Context, filter missingreports.ListFilter) ([]missingreports.MissingReport, error) {
	out := make([]missingreports.MissingReport, 0)
	err := r.store.read(ctx, func(st *state) error {
		for _, rep := range st.reports {
			if filter.PetID != "" && rep.PetID != filter.PetID {
				continue
			}
			if filter.ReporterUserID != "" && rep.ReporterUserID != filter.ReporterUserID {
				continue
			}
			if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, rep.Status) {
				continue
			}
			out = append(out, rep)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// missing_date desc, id para desempatar
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MissingDate.Equal(out[j].MissingDate) {
			return out[i].MissingDate.After(out[j].MissingDate)
		}
		return out[i].ID < out[j].ID
	})

	if filter.Offset >= len(out) {
		return []missingreports.MissingReport{}, nil
	}
	out = out[filter.Offset:]
	if limit := filter.NormalizeLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
