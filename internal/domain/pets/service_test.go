package pets_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	mem "pet-identity-registry/internal/adapters/storage/memory"
	"pet-identity-registry/internal/domain/noseprints"
	"pet-identity-registry/internal/domain/pets"
	"pet-identity-registry/internal/platform/sentinel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *mem.Store
	counter *mem.Counter
	prints  *noseprints.Store
	svc     *pets.Service
}

func newFixture(t *testing.T, opts ...func(c pets.Counter) pets.Counter) *fixture {
	t.Helper()

	store := mem.NewStore()
	counter := mem.NewCounter(store)

	var c pets.Counter = counter
	for _, o := range opts {
		c = o(c)
	}

	prints := noseprints.NewStore(mem.NewNosePrintRepo(store))
	svc := pets.NewService(mem.NewPetRepo(store), pets.NewIDSequencer(c), prints, store,
		pets.WithClock(func() time.Time { return time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC) }),
	)
	return &fixture{store: store, counter: counter, prints: prints, svc: svc}
}

func profile(name string) pets.Profile {
	return pets.Profile{Name: name, Gender: pets.GenderFemale, Breed: "mestiza"}
}

func photo(hash string) noseprints.Photo {
	return noseprints.Photo{Hash: hash, ImageURL: "https://img/" + hash}
}

func TestRegister_WorkedExample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Register(ctx, "owner-a", profile("Luna"), photo("h1"))
	require.NoError(t, err)
	assert.Equal(t, pets.PublicID("000-000-0000001"), a.PublicID)
	assert.Equal(t, pets.StatusRegistered, a.Status)
	assert.True(t, a.NosePrintVerified)

	b, err := f.svc.Register(ctx, "owner-b", profile("Toby"), photo("h2"))
	require.NoError(t, err)
	assert.Equal(t, pets.PublicID("000-000-0000002"), b.PublicID)

	// misma huella: se rechaza y no consume ID
	_, err = f.svc.Register(ctx, "owner-c", profile("Copia"), photo("H1"))
	var regErr *pets.RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.ErrorIs(t, err, noseprints.ErrDuplicateHash)

	last, err := f.counter.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)

	owned, err := f.svc.ListByOwner(ctx, "owner-c")
	require.NoError(t, err)
	assert.Empty(t, owned)

	c, err := f.svc.Register(ctx, "owner-c", profile("Nala"), photo("h3"))
	require.NoError(t, err)
	assert.Equal(t, pets.PublicID("000-000-0000003"), c.PublicID)

	petID, ok, err := f.prints.Lookup(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, a.ID, petID)
}

func TestRegister_DuplicateGovernmentNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := profile("Luna")
	p.GovernmentRegistrationNumber = "GOV-1"
	_, err := f.svc.Register(ctx, "owner-a", p, photo("h1"))
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "owner-b", p, photo("h2"))
	var regErr *pets.RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.ErrorIs(t, err, pets.ErrDuplicateGovernmentID)

	// h2 no quedó reclamado
	_, ok, err := f.prints.Lookup(ctx, "h2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegister_InvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]struct {
		owner string
		p     pets.Profile
		ph    noseprints.Photo
	}{
		"no owner":   {"", profile("Luna"), photo("h1")},
		"no hash":    {"owner", profile("Luna"), photo("  ")},
		"no name":    {"owner", profile(" "), photo("h1")},
		"bad gender": {"owner", pets.Profile{Name: "Luna", Gender: "cat"}, photo("h1")},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tc.owner, tc.p, tc.ph)
			assert.ErrorIs(t, err, pets.ErrInvalidInput)
		})
	}

	last, err := f.counter.Last(ctx)
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestRegister_ConcurrentIDsAreContiguous(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 40
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []int64
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := f.svc.Register(ctx, "owner", profile(fmt.Sprintf("pet-%d", i)), photo(fmt.Sprintf("hash-%d", i)))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids = append(ids, p.PublicID.Counter())
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Len(t, ids, n)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id)
	}
}

func TestRegister_ConcurrentSameHashOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Register(ctx, fmt.Sprintf("owner-%d", i), profile("Luna"), photo("same"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, noseprints.ErrDuplicateHash):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dups)

	last, err := f.counter.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), last)
}

type offsetCounter struct {
	pets.Counter
	base int64
}

func (c offsetCounter) Next(ctx context.Context) (int64, error) {
	n, err := c.Counter.Next(ctx)
	return c.base + n, err
}

func TestRegister_SequenceExhausted(t *testing.T) {
	f := newFixture(t, func(c pets.Counter) pets.Counter {
		return offsetCounter{Counter: c, base: pets.MaxCounter - 1}
	})
	ctx := context.Background()

	last, err := f.svc.Register(ctx, "owner", profile("Ultima"), photo("h1"))
	require.NoError(t, err)
	assert.Equal(t, pets.PublicID("000-000-9999999"), last.PublicID)

	_, err = f.svc.Register(ctx, "owner", profile("Sobra"), photo("h2"))
	var regErr *pets.RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.ErrorIs(t, err, pets.ErrSequenceExhausted)

	// nada quedó a medio crear
	_, ok, err := f.prints.Lookup(ctx, "h2")
	require.NoError(t, err)
	assert.False(t, ok)
}

type failingCounter struct {
	calls int
}

func (c *failingCounter) Next(context.Context) (int64, error) {
	c.calls++
	return 0, fmt.Errorf("%w: connection refused", sentinel.ErrStoreUnavailable)
}

func TestRegister_StoreUnavailableIsNotRetried(t *testing.T) {
	fc := &failingCounter{}
	f := newFixture(t, func(pets.Counter) pets.Counter { return fc })

	_, err := f.svc.Register(context.Background(), "owner", profile("Luna"), photo("h1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrStoreUnavailable)

	var regErr *pets.RegistrationError
	assert.False(t, errors.As(err, &regErr))
	assert.Equal(t, 1, fc.calls)
}

func TestAddNosePrint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Register(ctx, "owner-a", profile("Luna"), photo("h1"))
	require.NoError(t, err)
	b, err := f.svc.Register(ctx, "owner-b", profile("Toby"), photo("h2"))
	require.NoError(t, err)

	np, err := f.svc.AddNosePrint(ctx, "owner-a", a.ID, photo("h1b"))
	require.NoError(t, err)
	assert.Equal(t, a.ID, np.PetID)

	// misma mascota, mismo hash: devuelve la existente
	again, err := f.svc.AddNosePrint(ctx, "owner-a", a.ID, photo("h1b"))
	require.NoError(t, err)
	assert.Equal(t, np.ID, again.ID)

	_, err = f.svc.AddNosePrint(ctx, "owner-a", a.ID, photo("h2"))
	assert.ErrorIs(t, err, noseprints.ErrDuplicateHash)

	_, err = f.svc.AddNosePrint(ctx, "owner-a", b.ID, photo("h9"))
	assert.ErrorIs(t, err, pets.ErrForbidden)

	_, err = f.svc.AddNosePrint(ctx, "owner-a", "missing", photo("h9"))
	assert.ErrorIs(t, err, pets.ErrNotFound)

	items, err := f.svc.ListNosePrints(ctx, "owner-a", a.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestFind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := profile("Luna")
	in.GovernmentRegistrationNumber = "GOV-7"
	a, err := f.svc.Register(ctx, "owner-a", in, photo("h1"))
	require.NoError(t, err)

	got, ok, err := f.svc.FindByPublicID(ctx, "000-000-0000001")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, a.ID, got.ID)

	_, ok, err = f.svc.FindByPublicID(ctx, "000-000-0000099")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = f.svc.FindByPublicID(ctx, "nope")
	assert.ErrorIs(t, err, pets.ErrInvalidInput)

	got, ok, err = f.svc.FindByGovernmentRegistrationNumber(ctx, " GOV-7 ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, a.ID, got.ID)

	_, ok, err = f.svc.FindByGovernmentRegistrationNumber(ctx, "GOV-8")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Register(ctx, "owner-a", profile("Luna"), photo("h1"))
	require.NoError(t, err)

	require.NoError(t, f.svc.SetStatus(ctx, a.ID, pets.StatusMissing))
	got, err := f.svc.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, pets.StatusMissing, got.Status)

	assert.ErrorIs(t, f.svc.SetStatus(ctx, a.ID, "lost"), pets.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.SetStatus(ctx, "missing", pets.StatusRegistered), pets.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := profile("Toby")
	other.GovernmentRegistrationNumber = "GOV-2"
	_, err := f.svc.Register(ctx, "owner-b", other, photo("h2"))
	require.NoError(t, err)

	a, err := f.svc.Register(ctx, "owner-a", profile("Luna"), photo("h1"))
	require.NoError(t, err)

	name := "  Luna II "
	gov := "GOV-1"
	got, err := f.svc.UpdateProfile(ctx, "owner-a", a.ID, pets.UpdateProfileInput{Name: &name, GovernmentRegistrationNumber: &gov})
	require.NoError(t, err)
	assert.Equal(t, "Luna II", got.Name)
	assert.Equal(t, a.PublicID, got.PublicID)

	taken := "GOV-2"
	_, err = f.svc.UpdateProfile(ctx, "owner-a", a.ID, pets.UpdateProfileInput{GovernmentRegistrationNumber: &taken})
	assert.ErrorIs(t, err, pets.ErrDuplicateGovernmentID)

	_, err = f.svc.UpdateProfile(ctx, "owner-b", a.ID, pets.UpdateProfileInput{Name: &name})
	assert.ErrorIs(t, err, pets.ErrForbidden)

	found, ok, err := f.svc.FindByGovernmentRegistrationNumber(ctx, "GOV-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, a.ID, found.ID)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Register(ctx, "owner-a", profile("Luna"), photo("h1"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, "owner-b", a.ID), pets.ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, "owner-a", a.ID))

	_, err = f.svc.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, pets.ErrNotFound)

	// la huella queda libre y el ID público no se reutiliza
	b, err := f.svc.Register(ctx, "owner-b", profile("Toby"), photo("h1"))
	require.NoError(t, err)
	assert.Equal(t, pets.PublicID("000-000-0000002"), b.PublicID)
}
