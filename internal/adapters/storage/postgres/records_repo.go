package postgres

import (
	"context"
	"strings"
	"time"

	"pet-identity-registry/internal/domain/pets"
	"pet-identity-registry/internal/domain/records"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

type RecordsRepo struct {
	db DB
}

func NewRecordsRepo(db DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

var recordColumns = []string{
	"id", "pet_id",
	"type", "occurred_at", "recorded_at",
	"title", "notes",
	"clinic", "veterinarian", "cost", "weight_kg", "temperature_c",
	"next_due_date", "image_url",
	"created_by", "source",
	"status", "void_reason", "voided_at",
}

func (r *RecordsRepo) Create(ctx context.Context, rec records.Record) error {
	query, args, err := psql.Insert("pet_records").
		Columns(recordColumns...).
		Values(
			rec.ID, rec.PetID,
			string(rec.Type), rec.OccurredAt, rec.RecordedAt,
			rec.Title, rec.Notes,
			rec.Clinic, rec.Veterinarian, rec.Cost, rec.WeightKg, rec.TemperatureC,
			rec.NextDueDate, rec.ImageURL,
			rec.CreatedBy, string(rec.Source),
			string(rec.Status), rec.VoidReason, rec.VoidedAt,
		).
		ToSql()
	if err != nil {
		return err
	}

	_, err = querierFromCtx(ctx, r.db).Exec(ctx, query, args...)
	return mapError(err, pets.ErrNotFound)
}

func (r *RecordsRepo) GetByID(ctx context.Context, id string) (records.Record, error) {
	query, args, err := psql.Select(recordColumns...).From("pet_records").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return records.Record{}, err
	}
	return scanRecord(querierFromCtx(ctx, r.db).QueryRow(ctx, query, args...))
}

func (r *RecordsRepo) ListByPet(ctx context.Context, petID string, filter records.ListFilter) ([]records.Record, error) {
	b := psql.Select(recordColumns...).From("pet_records").Where(sq.Eq{"pet_id": petID})

	if !filter.IncludeVoided {
		b = b.Where(sq.Eq{"status": string(records.RecordStatusActive)})
	}

	// types filter
	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		b = b.Where(sq.Eq{"type": types})
	}

	// from/to
	if filter.From != nil {
		b = b.Where(sq.GtOrEq{"occurred_at": *filter.From})
	}
	if filter.To != nil {
		b = b.Where(sq.LtOrEq{"occurred_at": *filter.To})
	}

	// q: búsqueda simple en title + notes
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + q + "%"
		b = b.Where(sq.Or{sq.ILike{"title": like}, sq.ILike{"notes": like}})
	}

	query, args, err := b.
		OrderBy("occurred_at DESC").
		Limit(uint64(filter.NormalizeLimit())).
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, query, args...)
}

func (r *RecordsRepo) Void(ctx context.Context, id, reason string, at time.Time) error {
	tag, err := querierFromCtx(ctx, r.db).Exec(ctx, `
		UPDATE pet_records
		SET status = 'voided', void_reason = $2, voided_at = $3
		WHERE id = $1 AND status = 'active'
	`, id, reason, at)
	if err != nil {
		return mapError(err, records.ErrNotFound)
	}
	if tag.RowsAffected() == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (r *RecordsRepo) ListDue(ctx context.Context, petID string, typ records.RecordType, from, to time.Time) ([]records.Record, error) {
	query, args, err := psql.Select(recordColumns...).
		From("pet_records").
		Where(sq.Eq{
			"pet_id": petID,
			"type":   string(typ),
			"status": string(records.RecordStatusActive),
		}).
		Where(sq.GtOrEq{"next_due_date": from}).
		Where(sq.LtOrEq{"next_due_date": to}).
		OrderBy("next_due_date ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, query, args...)
}

func (r *RecordsRepo) query(ctx context.Context, query string, args ...any) ([]records.Record, error) {
	rows, err := querierFromCtx(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, nil)
	}
	defer rows.Close()

	out := make([]records.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, mapError(rows.Err(), nil)
}

func scanRecord(row pgx.Row) (records.Record, error) {
	var (
		rec                 records.Record
		typ, source, status string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.PetID,
		&typ,
		&rec.OccurredAt,
		&rec.RecordedAt,
		&rec.Title,
		&rec.Notes,
		&rec.Clinic,
		&rec.Veterinarian,
		&rec.Cost,
		&rec.WeightKg,
		&rec.TemperatureC,
		&rec.NextDueDate,
		&rec.ImageURL,
		&rec.CreatedBy,
		&source,
		&status,
		&rec.VoidReason,
		&rec.VoidedAt,
	); err != nil {
		return records.Record{}, mapError(err, records.ErrNotFound)
	}

	rec.Type = records.RecordType(typ)
	rec.Source = records.Source(source)
	rec.Status = records.RecordStatus(status)
	return rec, nil
}
