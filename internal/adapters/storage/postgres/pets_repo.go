package postgres

import (
	"context"
	"strings"
	"time"

	"pet-identity-registry/internal/domain/pets"

	"github.com/jackc/pgx/v5"
)

type PetsRepo struct {
	db DB
}

func NewPetsRepo(db DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, public_id, owner_user_id,
	COALESCE(government_registration_number, ''),
	name, birth_date, gender, breed, profile_image_url,
	status, nose_print_verified,
	created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := querierFromCtx(ctx, r.db).Exec(ctx, `
		INSERT INTO pets (
			id, public_id, owner_user_id,
			government_registration_number,
			name, birth_date, gender, breed, profile_image_url,
			status, nose_print_verified,
			created_at, updated_at
		) VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		p.ID,
		p.PublicID.String(),
		p.OwnerUserID,
		p.GovernmentRegistrationNumber,
		p.Name,
		p.BirthDate,
		string(p.Gender),
		p.Breed,
		p.ProfileImageURL,
		string(p.Status),
		p.NosePrintVerified,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return mapError(err, nil)
}

// Update persiste el perfil; status, owner y public_id no se tocan acá.
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	tag, err := querierFromCtx(ctx, r.db).Exec(ctx, `
		UPDATE pets
		SET
			government_registration_number = NULLIF($2,''),
			name = $3,
			birth_date = $4,
			gender = $5,
			breed = $6,
			profile_image_url = $7,
			updated_at = $8
		WHERE id = $1
	`,
		p.ID,
		p.GovernmentRegistrationNumber,
		p.Name,
		p.BirthDate,
		string(p.Gender),
		p.Breed,
		p.ProfileImageURL,
		p.UpdatedAt,
	)
	if err != nil {
		return mapError(err, pets.ErrNotFound)
	}
	if tag.RowsAffected() == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) SetStatus(ctx context.Context, id string, status pets.Status, at time.Time) error {
	tag, err := querierFromCtx(ctx, r.db).Exec(ctx,
		`UPDATE pets SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), at,
	)
	if err != nil {
		return mapError(err, pets.ErrNotFound)
	}
	if tag.RowsAffected() == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, pets.ErrNotFound
	}
	row := querierFromCtx(ctx, r.db).QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	return scanPet(row)
}

func (r *PetsRepo) GetByPublicID(ctx context.Context, publicID pets.PublicID) (pets.Pet, error) {
	row := querierFromCtx(ctx, r.db).QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE public_id = $1`, publicID.String())
	return scanPet(row)
}

func (r *PetsRepo) GetByGovernmentRegistrationNumber(ctx context.Context, number string) (pets.Pet, error) {
	row := querierFromCtx(ctx, r.db).QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE government_registration_number = $1`, number)
	return scanPet(row)
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	rows, err := querierFromCtx(ctx, r.db).Query(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE owner_user_id = $1
		ORDER BY public_id ASC
	`, ownerUserID)
	if err != nil {
		return nil, mapError(err, nil)
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, mapError(rows.Err(), nil)
}

// Delete: nose_prints y pet_records caen por CASCADE; missing_reports es RESTRICT.
func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	tag, err := querierFromCtx(ctx, r.db).Exec(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return pets.ErrHasReports
		}
		return mapError(err, pets.ErrNotFound)
	}
	if tag.RowsAffected() == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func scanPet(row pgx.Row) (pets.Pet, error) {
	var (
		p              pets.Pet
		publicID       string
		gender, status string
		birthDate      *time.Time
	)
	if err := row.Scan(
		&p.ID,
		&publicID,
		&p.OwnerUserID,
		&p.GovernmentRegistrationNumber,
		&p.Name,
		&birthDate,
		&gender,
		&p.Breed,
		&p.ProfileImageURL,
		&status,
		&p.NosePrintVerified,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, mapError(err, pets.ErrNotFound)
	}

	p.PublicID = pets.PublicID(publicID)
	p.BirthDate = birthDate
	p.Gender = pets.Gender(gender)
	p.Status = pets.Status(status)
	return p, nil
}
