package contacts_test

import (
	"context"
	"testing"
	"time"

	mem "pet-identity-registry/internal/adapters/storage/memory"
	"pet-identity-registry/internal/domain/contacts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *contacts.Service {
	store := mem.NewStore()
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return contacts.NewService(mem.NewContactRepo(store), store, contacts.WithClock(clock))
}

func primaries(items []contacts.EmergencyContact) []string {
	out := make([]string, 0)
	for _, c := range items {
		if c.IsPrimary {
			out = append(out, c.ID)
		}
	}
	return out
}

func TestCreate_OnePrimaryPerUser(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	a, err := svc.Create(ctx, "u1", contacts.Input{ContactName: "Ana", PhoneNumber: "1", IsPrimary: true})
	require.NoError(t, err)
	b, err := svc.Create(ctx, "u1", contacts.Input{ContactName: "Beto", PhoneNumber: "2", IsPrimary: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u2", contacts.Input{ContactName: "Caro", PhoneNumber: "3", IsPrimary: true})
	require.NoError(t, err)

	items, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, []string{b.ID}, primaries(items))
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)

	p, ok, err := svc.Primary(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, b.ID, p.ID)
}

func TestCreate_Invalid(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", contacts.Input{ContactName: " ", PhoneNumber: "1"})
	assert.ErrorIs(t, err, contacts.ErrInvalidInput)
	_, err = svc.Create(ctx, "", contacts.Input{ContactName: "Ana", PhoneNumber: "1"})
	assert.ErrorIs(t, err, contacts.ErrInvalidInput)
}

func TestUpdate_PromoteToPrimary(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	a, err := svc.Create(ctx, "u1", contacts.Input{ContactName: "Ana", PhoneNumber: "1", IsPrimary: true})
	require.NoError(t, err)
	b, err := svc.Create(ctx, "u1", contacts.Input{ContactName: "Beto", PhoneNumber: "2"})
	require.NoError(t, err)

	yes := true
	phone := " 99 "
	got, err := svc.Update(ctx, "u1", b.ID, contacts.UpdateInput{IsPrimary: &yes, PhoneNumber: &phone})
	require.NoError(t, err)
	assert.True(t, got.IsPrimary)
	assert.Equal(t, "99", got.PhoneNumber)

	items, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, primaries(items))

	// el contacto de otro usuario no existe para u2
	_, err = svc.Update(ctx, "u2", a.ID, contacts.UpdateInput{IsPrimary: &yes})
	assert.ErrorIs(t, err, contacts.ErrNotFound)

	empty := ""
	_, err = svc.Update(ctx, "u1", a.ID, contacts.UpdateInput{ContactName: &empty})
	assert.ErrorIs(t, err, contacts.ErrInvalidInput)
}

func TestDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	a, err := svc.Create(ctx, "u1", contacts.Input{ContactName: "Ana", PhoneNumber: "1", IsPrimary: true})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", a.ID), contacts.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "u1", a.ID))

	_, ok, err := svc.Primary(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}
