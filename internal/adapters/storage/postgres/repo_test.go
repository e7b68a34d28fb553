package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"pet-identity-registry/internal/domain/contacts"
	"pet-identity-registry/internal/domain/missingreports"
	"pet-identity-registry/internal/domain/noseprints"
	"pet-identity-registry/internal/domain/pets"
	"pet-identity-registry/internal/platform/sentinel"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestMapError(t *testing.T) {
	notFound := errors.New("not found")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, notFound},
		{"duplicate public id", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "pets_public_id_key"}, pets.ErrDuplicatePublicID},
		{"duplicate gov number", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "pets_government_registration_number_key"}, pets.ErrDuplicateGovernmentID},
		{"duplicate hash", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "nose_prints_content_hash_key"}, noseprints.ErrDuplicateHash},
		{"second open report", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "missing_reports_one_open_per_pet"}, missingreports.ErrAlreadyMissing},
		{"second primary contact", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "emergency_contacts_one_primary"}, contacts.ErrDuplicatePrimary},
		{"unknown unique", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "other_key"}, sentinel.ErrConflict},
		{"fk violation", &pgconn.PgError{Code: codeForeignKeyViolation}, notFound},
		{"bad uuid", &pgconn.PgError{Code: codeInvalidText}, notFound},
		{"canceled", context.Canceled, context.Canceled},
		{"connection refused", errors.New("dial tcp: connection refused"), sentinel.ErrStoreUnavailable},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, sentinel.ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, notFound)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestTxManager_CommitOnSuccess(t *testing.T) {
	mock := newMock(t)
	txm := NewTxManager(mock)
	counter := NewCounter(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(nextCounterSQL)).
		WillReturnRows(pgxmock.NewRows([]string{"last_value"}).AddRow(int64(7)))
	mock.ExpectCommit()

	var got int64
	err := txm.RunInTx(context.Background(), func(ctx context.Context) error {
		var err error
		got, err = counter.Next(ctx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)
}

func TestTxManager_RollbackOnError(t *testing.T) {
	mock := newMock(t)
	txm := NewTxManager(mock)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := txm.RunInTx(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestTxManager_NestedJoinsOuter(t *testing.T) {
	mock := newMock(t)
	txm := NewTxManager(mock)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := txm.RunInTx(context.Background(), func(ctx context.Context) error {
		return txm.RunInTx(ctx, func(ctx context.Context) error { return nil })
	})
	require.NoError(t, err)
}

func TestTxManager_BeginFailureIsStoreUnavailable(t *testing.T) {
	mock := newMock(t)
	txm := NewTxManager(mock)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := txm.RunInTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, sentinel.ErrStoreUnavailable)
	assert.False(t, called)
}

func TestCounter_NextOutsideTx(t *testing.T) {
	mock := newMock(t)
	counter := NewCounter(mock)

	mock.ExpectQuery(regexp.QuoteMeta(nextCounterSQL)).
		WillReturnError(errors.New("connection reset"))

	_, err := counter.Next(context.Background())
	assert.ErrorIs(t, err, sentinel.ErrStoreUnavailable)
}

func TestPetsRepo_CreateDuplicateGovernmentNumber(t *testing.T) {
	mock := newMock(t)
	repo := NewPetsRepo(mock)

	args := make([]any, 13)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec("INSERT INTO pets").
		WithArgs(args...).
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "pets_government_registration_number_key"})

	err := repo.Create(context.Background(), pets.Pet{
		ID:                           "7b1d3a56-4c1e-4f55-9f5e-0e7a0c1b2d3e",
		PublicID:                     "000-000-0000001",
		OwnerUserID:                  "owner",
		GovernmentRegistrationNumber: "GOV-1",
		Name:                         "Toby",
		Gender:                       pets.GenderMale,
		Status:                       pets.StatusRegistered,
	})
	assert.ErrorIs(t, err, pets.ErrDuplicateGovernmentID)
}

func TestReportsRepo_UpdateStatus(t *testing.T) {
	const id = "2f0c9a4e-1b7d-4a8e-b5c3-6d2e9f1a0b4c"
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		setup func(mock pgxmock.PgxPoolIface)
		want  error
	}{
		{
			name: "applied",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("UPDATE missing_reports").
					WithArgs(id, "open", "found", pgxmock.AnyArg(), at).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "status already changed",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("UPDATE missing_reports").
					WithArgs(id, "open", "found", pgxmock.AnyArg(), at).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs(id).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
			},
			want: missingreports.ErrStaleStatus,
		},
		{
			name: "missing report",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("UPDATE missing_reports").
					WithArgs(id, "open", "found", pgxmock.AnyArg(), at).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs(id).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
			},
			want: missingreports.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewReportsRepo(mock)
			tt.setup(mock)

			foundAt := at
			err := repo.UpdateStatus(context.Background(), id, missingreports.StatusOpen, missingreports.StatusFound, &foundAt, at)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
