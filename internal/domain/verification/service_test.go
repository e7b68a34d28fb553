package verification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	mem "pet-identity-registry/internal/adapters/storage/memory"
	"pet-identity-registry/internal/domain/contacts"
	"pet-identity-registry/internal/domain/missingreports"
	"pet-identity-registry/internal/domain/noseprints"
	"pet-identity-registry/internal/domain/pets"
	"pet-identity-registry/internal/domain/verification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	pets     *pets.Service
	reports  *missingreports.Service
	contacts *contacts.Service
	prints   *noseprints.Store
	svc      *verification.Service
	pet      pets.Pet
}

type constHasher struct {
	hash string
	err  error
}

func (h constHasher) Fingerprint([]byte) (string, error) { return h.hash, h.err }

func newFixture(t *testing.T, opts ...verification.Option) *fixture {
	t.Helper()

	store := mem.NewStore()
	prints := noseprints.NewStore(mem.NewNosePrintRepo(store))
	petsSvc := pets.NewService(mem.NewPetRepo(store), pets.NewIDSequencer(mem.NewCounter(store)), prints, store)
	reports := missingreports.NewService(mem.NewReportRepo(store), petsSvc, store)
	cs := contacts.NewService(mem.NewContactRepo(store), store)

	all := append([]verification.Option{verification.WithContacts(cs)}, opts...)
	svc := verification.NewService(prints, petsSvc, reports, all...)

	p, err := petsSvc.Register(context.Background(), "owner", pets.Profile{Name: "Luna", Gender: pets.GenderFemale}, noseprints.Photo{Hash: "h1"})
	require.NoError(t, err)

	return &fixture{pets: petsSvc, reports: reports, contacts: cs, prints: prints, svc: svc, pet: p}
}

func TestVerify_NoMatchIsNotAnError(t *testing.T) {
	f := newFixture(t)

	for _, mode := range []verification.Mode{verification.ModeIdentity, verification.ModeFoundStray} {
		res, err := f.svc.Verify(context.Background(), "unknown", mode)
		require.NoError(t, err)
		assert.Equal(t, verification.OutcomeNoMatch, res.Outcome)
		assert.False(t, res.Matched())
		assert.Nil(t, res.Pet)
	}
}

func TestVerify_Identity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Verify(ctx, " H1 ", verification.ModeIdentity)
	require.NoError(t, err)
	require.True(t, res.Matched())
	assert.Equal(t, f.pet.ID, res.Pet.ID)
	assert.False(t, res.CurrentlyMissing)
	assert.Nil(t, res.OpenReport)
	assert.Nil(t, res.PrimaryContact)

	// identity también informa si está perdida, sin adjuntar el reporte
	_, err = f.reports.FileReport(ctx, "owner", f.pet.ID, missingreports.Details{
		MissingDate: time.Now().Add(-time.Hour), MissingLocation: "Palermo", ContactPhone: "123",
	})
	require.NoError(t, err)

	res, err = f.svc.Verify(ctx, "h1", verification.ModeIdentity)
	require.NoError(t, err)
	assert.True(t, res.CurrentlyMissing)
	assert.Nil(t, res.OpenReport)
}

func TestVerify_FoundStray(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.contacts.Create(ctx, "owner", contacts.Input{ContactName: "Ana", PhoneNumber: "555", IsPrimary: true})
	require.NoError(t, err)

	// no reportada: contacto primary del dueño
	res, err := f.svc.Verify(ctx, "h1", verification.ModeFoundStray)
	require.NoError(t, err)
	require.True(t, res.Matched())
	assert.False(t, res.CurrentlyMissing)
	assert.Nil(t, res.OpenReport)
	require.NotNil(t, res.PrimaryContact)
	assert.Equal(t, "Ana", res.PrimaryContact.ContactName)

	// reportada: se adjunta el reporte abierto
	rep, err := f.reports.FileReport(ctx, "owner", f.pet.ID, missingreports.Details{
		MissingDate: time.Now().Add(-time.Hour), MissingLocation: "Palermo", ContactPhone: "123",
	})
	require.NoError(t, err)

	res, err = f.svc.Verify(ctx, "h1", verification.ModeFoundStray)
	require.NoError(t, err)
	assert.True(t, res.CurrentlyMissing)
	require.NotNil(t, res.OpenReport)
	assert.Equal(t, rep.ID, res.OpenReport.ID)
	assert.Nil(t, res.PrimaryContact)
}

func TestVerify_InvalidMode(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Verify(context.Background(), "h1", "guess")
	assert.ErrorIs(t, err, verification.ErrInvalidMode)
}

func TestVerify_InvalidHash(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Verify(context.Background(), "", verification.ModeIdentity)
	assert.ErrorIs(t, err, noseprints.ErrInvalidInput)
}

type staleFingerprints struct{}

func (staleFingerprints) Lookup(context.Context, string) (string, bool, error) {
	return "deleted-pet", true, nil
}

func TestVerify_StaleCacheEntryIsNoMatch(t *testing.T) {
	f := newFixture(t)
	svc := verification.NewService(staleFingerprints{}, f.pets, f.reports)

	res, err := svc.Verify(context.Background(), "h1", verification.ModeIdentity)
	require.NoError(t, err)
	assert.Equal(t, verification.OutcomeNoMatch, res.Outcome)
}

func TestVerifyPhoto(t *testing.T) {
	f := newFixture(t, verification.WithHasher(constHasher{hash: "h1"}))

	res, err := f.svc.VerifyPhoto(context.Background(), []byte("jpeg"), verification.ModeIdentity)
	require.NoError(t, err)
	assert.True(t, res.Matched())

	boom := errors.New("bad image")
	f = newFixture(t, verification.WithHasher(constHasher{err: boom}))
	_, err = f.svc.VerifyPhoto(context.Background(), []byte("jpeg"), verification.ModeIdentity)
	assert.ErrorIs(t, err, boom)

	f = newFixture(t)
	_, err = f.svc.VerifyPhoto(context.Background(), []byte("jpeg"), verification.ModeIdentity)
	assert.Error(t, err)
}
