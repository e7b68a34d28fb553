package postgres

import (
	"context"

	"pet-identity-registry/internal/domain/noseprints"
	"pet-identity-registry/internal/domain/pets"

	"github.com/jackc/pgx/v5"
)

type NosePrintsRepo struct {
	db DB
}

func NewNosePrintsRepo(db DB) *NosePrintsRepo {
	return &NosePrintsRepo{db: db}
}

const nosePrintColumns = `id, pet_id, image_url, content_hash, registered_at`

// Create: el unique nose_prints_content_hash_key es quien decide entre dos registros concurrentes.
func (r *NosePrintsRepo) Create(ctx context.Context, np noseprints.NosePrint) error {
	_, err := querierFromCtx(ctx, r.db).Exec(ctx, `
		INSERT INTO nose_prints (`+nosePrintColumns+`)
		VALUES ($1,$2,$3,$4,$5)
	`,
		np.ID,
		np.PetID,
		np.ImageURL,
		np.ContentHash,
		np.RegisteredAt,
	)
	return mapError(err, pets.ErrNotFound)
}

func (r *NosePrintsRepo) GetByHash(ctx context.Context, hash string) (noseprints.NosePrint, error) {
	row := querierFromCtx(ctx, r.db).QueryRow(ctx,
		`SELECT `+nosePrintColumns+` FROM nose_prints WHERE content_hash = $1`, hash)
	return scanNosePrint(row)
}

func (r *NosePrintsRepo) ListByPet(ctx context.Context, petID string) ([]noseprints.NosePrint, error) {
	rows, err := querierFromCtx(ctx, r.db).Query(ctx, `
		SELECT `+nosePrintColumns+`
		FROM nose_prints
		WHERE pet_id = $1
		ORDER BY registered_at ASC
	`, petID)
	if err != nil {
		return nil, mapError(err, pets.ErrNotFound)
	}
	defer rows.Close()

	out := make([]noseprints.NosePrint, 0)
	for rows.Next() {
		np, err := scanNosePrint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, np)
	}
	return out, mapError(rows.Err(), nil)
}

func scanNosePrint(row pgx.Row) (noseprints.NosePrint, error) {
	var np noseprints.NosePrint
	if err := row.Scan(&np.ID, &np.PetID, &np.ImageURL, &np.ContentHash, &np.RegisteredAt); err != nil {
		return noseprints.NosePrint{}, mapError(err, noseprints.ErrNotFound)
	}
	return np, nil
}
