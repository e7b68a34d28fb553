package postgres

import (
	"context"
	"time"

	"pet-identity-registry/internal/domain/missingreports"
	"pet-identity-registry/internal/domain/pets"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

type ReportsRepo struct {
	db DB
}

func NewReportsRepo(db DB) *ReportsRepo {
	return &ReportsRepo{db: db}
}

var reportColumns = []string{
	"id", "pet_id", "reporter_user_id",
	"missing_date", "missing_location", "description", "contact_phone",
	"status", "found_at",
	"created_at", "updated_at",
}

// Create: el índice parcial missing_reports_one_open_per_pet impide un segundo reporte abierto.
func (r *ReportsRepo) Create(ctx context.Context, rep missingreports.MissingReport) error {
	query, args, err := psql.Insert("missing_reports").
		Columns(reportColumns...).
		Values(
			rep.ID, rep.PetID, rep.ReporterUserID,
			rep.MissingDate, rep.MissingLocation, rep.Description, rep.ContactPhone,
			string(rep.Status), rep.FoundAt,
			rep.CreatedAt, rep.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return err
	}

	_, err = querierFromCtx(ctx, r.db).Exec(ctx, query, args...)
	return mapError(err, pets.ErrNotFound)
}

func (r *ReportsRepo) GetByID(ctx context.Context, id string) (missingreports.MissingReport, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *ReportsRepo) GetOpenByPet(ctx context.Context, petID string) (missingreports.MissingReport, error) {
	return r.getOne(ctx, sq.Eq{"pet_id": petID, "status": string(missingreports.StatusOpen)})
}

func (r *ReportsRepo) getOne(ctx context.Context, where sq.Eq) (missingreports.MissingReport, error) {
	query, args, err := psql.Select(reportColumns...).From("missing_reports").Where(where).Limit(1).ToSql()
	if err != nil {
		return missingreports.MissingReport{}, err
	}
	return scanReport(querierFromCtx(ctx, r.db).QueryRow(ctx, query, args...))
}

func (r *ReportsRepo) CountOpenByPet(ctx context.Context, petID string) (int, error) {
	var n int
	err := querierFromCtx(ctx, r.db).QueryRow(ctx,
		`SELECT count(*) FROM missing_reports WHERE pet_id = $1 AND status = 'open'`, petID,
	).Scan(&n)
	if err != nil {
		return 0, mapError(err, nil)
	}
	return n, nil
}

// UpdateStatus es un compare-and-swap sobre status. Si no afecta filas, distingue
// "no existe" de "cambió el status".
func (r *ReportsRepo) UpdateStatus(ctx context.Context, id string, from, to missingreports.Status, foundAt *time.Time, at time.Time) error {
	q := querierFromCtx(ctx, r.db)
	tag, err := q.Exec(ctx, `
		UPDATE missing_reports
		SET status = $3, found_at = $4, updated_at = $5
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to), foundAt, at)
	if err != nil {
		return mapError(err, missingreports.ErrNotFound)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM missing_reports WHERE id = $1)`, id).Scan(&exists); err != nil {
		return mapError(err, missingreports.ErrNotFound)
	}
	if !exists {
		return missingreports.ErrNotFound
	}
	return missingreports.ErrStaleStatus
}

func (r *ReportsRepo) List(ctx context.Context, filter missingreports.ListFilter) ([]missingreports.MissingReport, error) {
	b := psql.Select(reportColumns...).From("missing_reports")

	if filter.PetID != "" {
		b = b.Where(sq.Eq{"pet_id": filter.PetID})
	}
	if filter.ReporterUserID != "" {
		b = b.Where(sq.Eq{"reporter_user_id": filter.ReporterUserID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		b = b.Where(sq.Eq{"status": statuses})
	}

	query, args, err := b.
		OrderBy("missing_date DESC", "id ASC").
		Limit(uint64(filter.NormalizeLimit())).
		Offset(uint64(max(filter.Offset, 0))).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := querierFromCtx(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, nil)
	}
	defer rows.Close()

	out := make([]missingreports.MissingReport, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, mapError(rows.Err(), nil)
}

func scanReport(row pgx.Row) (missingreports.MissingReport, error) {
	var (
		rep    missingreports.MissingReport
		status string
	)
	if err := row.Scan(
		&rep.ID,
		&rep.PetID,
		&rep.ReporterUserID,
		&rep.MissingDate,
		&rep.MissingLocation,
		&rep.Description,
		&rep.ContactPhone,
		&status,
		&rep.FoundAt,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	); err != nil {
		return missingreports.MissingReport{}, mapError(err, missingreports.ErrNotFound)
	}
	rep.Status = missingreports.Status(status)
	return rep, nil
}
