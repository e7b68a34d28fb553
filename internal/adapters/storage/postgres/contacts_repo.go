package postgres

import (
	"context"

	"pet-identity-registry/internal/domain/contacts"

	"github.com/jackc/pgx/v5"
)

type ContactsRepo struct {
	db DB
}

func NewContactsRepo(db DB) *ContactsRepo {
	return &ContactsRepo{db: db}
}

const contactColumns = `id, user_id, contact_name, phone_number, relationship, is_primary, created_at, updated_at`

func (r *ContactsRepo) Create(ctx context.Context, c contacts.EmergencyContact) error {
	_, err := querierFromCtx(ctx, r.db).Exec(ctx, `
		INSERT INTO emergency_contacts (`+contactColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		c.ID, c.UserID, c.ContactName, c.PhoneNumber, c.Relationship, c.IsPrimary, c.CreatedAt, c.UpdatedAt,
	)
	return mapError(err, nil)
}

func (r *ContactsRepo) Update(ctx context.Context, c contacts.EmergencyContact) error {
	tag, err := querierFromCtx(ctx, r.db).Exec(ctx, `
		UPDATE emergency_contacts
		SET contact_name = $3, phone_number = $4, relationship = $5, is_primary = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2
	`,
		c.ID, c.UserID, c.ContactName, c.PhoneNumber, c.Relationship, c.IsPrimary, c.UpdatedAt,
	)
	if err != nil {
		return mapError(err, contacts.ErrNotFound)
	}
	if tag.RowsAffected() == 0 {
		return contacts.ErrNotFound
	}
	return nil
}

func (r *ContactsRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := querierFromCtx(ctx, r.db).Exec(ctx,
		`DELETE FROM emergency_contacts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapError(err, contacts.ErrNotFound)
	}
	if tag.RowsAffected() == 0 {
		return contacts.ErrNotFound
	}
	return nil
}

func (r *ContactsRepo) GetByID(ctx context.Context, userID, id string) (contacts.EmergencyContact, error) {
	row := querierFromCtx(ctx, r.db).QueryRow(ctx,
		`SELECT `+contactColumns+` FROM emergency_contacts WHERE id = $1 AND user_id = $2`, id, userID)
	return scanContact(row)
}

func (r *ContactsRepo) ListByUser(ctx context.Context, userID string) ([]contacts.EmergencyContact, error) {
	rows, err := querierFromCtx(ctx, r.db).Query(ctx, `
		SELECT `+contactColumns+`
		FROM emergency_contacts
		WHERE user_id = $1
		ORDER BY is_primary DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, mapError(err, nil)
	}
	defer rows.Close()

	out := make([]contacts.EmergencyContact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, mapError(rows.Err(), nil)
}

func (r *ContactsRepo) GetPrimary(ctx context.Context, userID string) (contacts.EmergencyContact, error) {
	row := querierFromCtx(ctx, r.db).QueryRow(ctx,
		`SELECT `+contactColumns+` FROM emergency_contacts WHERE user_id = $1 AND is_primary`, userID)
	return scanContact(row)
}

func (r *ContactsRepo) UnsetPrimary(ctx context.Context, userID string) error {
	_, err := querierFromCtx(ctx, r.db).Exec(ctx, `
		UPDATE emergency_contacts SET is_primary = FALSE
		WHERE user_id = $1 AND is_primary
	`, userID)
	return mapError(err, nil)
}

func scanContact(row pgx.Row) (contacts.EmergencyContact, error) {
	var c contacts.EmergencyContact
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.ContactName,
		&c.PhoneNumber,
		&c.Relationship,
		&c.IsPrimary,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return contacts.EmergencyContact{}, mapError(err, contacts.ErrNotFound)
	}
	return c, nil
}
