package postgres

import (
	"context"
	"errors"
	"fmt"

	"pet-identity-registry/internal/domain/contacts"
	"pet-identity-registry/internal/domain/missingreports"
	"pet-identity-registry/internal/domain/noseprints"
	"pet-identity-registry/internal/domain/pets"
	"pet-identity-registry/internal/platform/sentinel"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
)

// uniqueConstraints traduce cada índice único del esquema a su error de dominio.
var uniqueConstraints = map[string]error{
	"pets_public_id_key":                      pets.ErrDuplicatePublicID,
	"pets_government_registration_number_key": pets.ErrDuplicateGovernmentID,
	"nose_prints_content_hash_key":            noseprints.ErrDuplicateHash,
	"missing_reports_one_open_per_pet":        missingreports.ErrAlreadyMissing,
	"emergency_contacts_one_primary":          contacts.ErrDuplicatePrimary,
}

// mapError convierte errores de pgx/pgconn a errores de dominio.
// - pgx.ErrNoRows -> notFound (si viene)
// - unique violation -> error del índice violado
// - FK violation -> notFound (la fila referenciada no existe)
// - id con formato inválido -> notFound
// - context.Canceled / DeadlineExceeded pasan tal cual
// - el resto queda envuelto en sentinel.ErrStoreUnavailable
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			if domainErr, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
				return domainErr
			}
			return fmt.Errorf("%w: %s", sentinel.ErrConflict, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			if notFound != nil {
				return notFound
			}
			return fmt.Errorf("%w: %s", sentinel.ErrConflict, pgErr.ConstraintName)
		case codeCheckViolation:
			return fmt.Errorf("%w: %s", sentinel.ErrConflict, pgErr.ConstraintName)
		case codeInvalidText:
			// id que no es un uuid: no puede existir
			if notFound != nil {
				return notFound
			}
		}
	}

	return fmt.Errorf("%w: %v", sentinel.ErrStoreUnavailable, err)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}
