package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pet-identity-registry/internal/domain/contacts"
	"pet-identity-registry/internal/domain/missingreports"
	"pet-identity-registry/internal/domain/noseprints"
	"pet-identity-registry/internal/domain/pets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPet(id, publicID string) pets.Pet {
	return pets.Pet{
		ID:          id,
		PublicID:    pets.PublicID(publicID),
		OwnerUserID: "owner",
		Name:        "pet " + id,
		Gender:      pets.GenderMale,
		Status:      pets.StatusRegistered,
	}
}

func TestRunInTx_RollbackDiscardsWrites(t *testing.T) {
	store := NewStore()
	petRepo := NewPetRepo(store)
	counter := NewCounter(store)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.RunInTx(ctx, func(ctx context.Context) error {
		n, err := counter.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		require.NoError(t, petRepo.Create(ctx, testPet("p1", "000-000-0000001")))

		// dentro de la tx se ve lo escrito
		_, err = petRepo.GetByID(ctx, "p1")
		require.NoError(t, err)

		// fuera todavía no
		_, err = petRepo.GetByID(context.Background(), "p1")
		assert.ErrorIs(t, err, pets.ErrNotFound)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = petRepo.GetByID(ctx, "p1")
	assert.ErrorIs(t, err, pets.ErrNotFound)

	last, err := counter.Last(ctx)
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestRunInTx_NestedJoinsOuter(t *testing.T) {
	store := NewStore()
	petRepo := NewPetRepo(store)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.RunInTx(ctx, func(ctx context.Context) error {
		inner := store.RunInTx(ctx, func(ctx context.Context) error {
			return petRepo.Create(ctx, testPet("p1", "000-000-0000001"))
		})
		require.NoError(t, inner)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = petRepo.GetByID(ctx, "p1")
	assert.ErrorIs(t, err, pets.ErrNotFound)
}

func TestRunInTx_CanceledContextDoesNotCommit(t *testing.T) {
	store := NewStore()
	petRepo := NewPetRepo(store)

	ctx, cancel := context.WithCancel(context.Background())
	err := store.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, petRepo.Create(ctx, testPet("p1", "000-000-0000001")))
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = petRepo.GetByID(context.Background(), "p1")
	assert.ErrorIs(t, err, pets.ErrNotFound)
}

func TestCounter_ConcurrentNextIsDense(t *testing.T) {
	store := NewStore()
	counter := NewCounter(store)
	ctx := context.Background()

	const n = 100
	seen := make(map[int64]bool)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := counter.Next(ctx)
			assert.NoError(t, err)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing %d", i)
	}
}

func TestPetRepo_Constraints(t *testing.T) {
	store := NewStore()
	repo := NewPetRepo(store)
	ctx := context.Background()

	a := testPet("p1", "000-000-0000001")
	a.GovernmentRegistrationNumber = "GOV-1"
	require.NoError(t, repo.Create(ctx, a))

	dupPublic := testPet("p2", "000-000-0000001")
	assert.ErrorIs(t, repo.Create(ctx, dupPublic), pets.ErrDuplicatePublicID)

	dupGov := testPet("p3", "000-000-0000003")
	dupGov.GovernmentRegistrationNumber = "GOV-1"
	assert.ErrorIs(t, repo.Create(ctx, dupGov), pets.ErrDuplicateGovernmentID)

	// sin número de registro no hay conflicto
	require.NoError(t, repo.Create(ctx, testPet("p4", "000-000-0000004")))
	require.NoError(t, repo.Create(ctx, testPet("p5", "000-000-0000005")))

	// Update no toca status ni public_id
	upd := a
	upd.Status = pets.StatusMissing
	upd.PublicID = "000-000-0000099"
	upd.GovernmentRegistrationNumber = "GOV-9"
	require.NoError(t, repo.Update(ctx, upd))

	got, err := repo.GetByGovernmentRegistrationNumber(ctx, "GOV-9")
	require.NoError(t, err)
	assert.Equal(t, pets.StatusRegistered, got.Status)
	assert.Equal(t, a.PublicID, got.PublicID)

	_, err = repo.GetByGovernmentRegistrationNumber(ctx, "GOV-1")
	assert.ErrorIs(t, err, pets.ErrNotFound)

	list, err := repo.ListByOwner(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, pets.PublicID("000-000-0000001"), list[0].PublicID)
}

func TestNosePrintRepo_UniqueHash(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, NewPetRepo(store).Create(ctx, testPet("p1", "000-000-0000001")))

	repo := NewNosePrintRepo(store)
	np := noseprints.NosePrint{ID: "np1", PetID: "p1", ContentHash: "h1", RegisteredAt: time.Now()}
	require.NoError(t, repo.Create(ctx, np))

	np.ID = "np2"
	assert.ErrorIs(t, repo.Create(ctx, np), noseprints.ErrDuplicateHash)

	orphan := noseprints.NosePrint{ID: "np3", PetID: "ghost", ContentHash: "h3"}
	assert.ErrorIs(t, repo.Create(ctx, orphan), pets.ErrNotFound)
}

func TestPetRepo_DeleteRestrictedByReports(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	petRepo := NewPetRepo(store)
	require.NoError(t, petRepo.Create(ctx, testPet("p1", "000-000-0000001")))
	require.NoError(t, NewNosePrintRepo(store).Create(ctx, noseprints.NosePrint{ID: "np1", PetID: "p1", ContentHash: "h1"}))

	reports := NewReportRepo(store)
	require.NoError(t, reports.Create(ctx, missingreports.MissingReport{ID: "r1", PetID: "p1", Status: missingreports.StatusOpen}))

	assert.ErrorIs(t, petRepo.Delete(ctx, "p1"), pets.ErrHasReports)

	// la huella sigue reclamada
	_, err := NewNosePrintRepo(store).GetByHash(ctx, "h1")
	require.NoError(t, err)
}

func TestReportRepo_OneOpenPerPetAndCAS(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, NewPetRepo(store).Create(ctx, testPet("p1", "000-000-0000001")))

	repo := NewReportRepo(store)
	require.NoError(t, repo.Create(ctx, missingreports.MissingReport{ID: "r1", PetID: "p1", Status: missingreports.StatusOpen}))
	assert.ErrorIs(t,
		repo.Create(ctx, missingreports.MissingReport{ID: "r2", PetID: "p1", Status: missingreports.StatusOpen}),
		missingreports.ErrAlreadyMissing)

	now := time.Now()
	require.NoError(t, repo.UpdateStatus(ctx, "r1", missingreports.StatusOpen, missingreports.StatusFound, &now, now))
	assert.ErrorIs(t,
		repo.UpdateStatus(ctx, "r1", missingreports.StatusOpen, missingreports.StatusClosed, nil, now),
		missingreports.ErrStaleStatus)
	assert.ErrorIs(t,
		repo.UpdateStatus(ctx, "nope", missingreports.StatusOpen, missingreports.StatusClosed, nil, now),
		missingreports.ErrNotFound)

	n, err := repo.CountOpenByPet(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, n)

	// resuelto el anterior, se puede abrir otro
	require.NoError(t, repo.Create(ctx, missingreports.MissingReport{ID: "r2", PetID: "p1", Status: missingreports.StatusOpen}))
}

func TestContactRepo_OnePrimaryPerUser(t *testing.T) {
	store := NewStore()
	repo := NewContactRepo(store)
	ctx := context.Background()

	first := contacts.EmergencyContact{ID: "c1", UserID: "u1", ContactName: "Ana", PhoneNumber: "555", IsPrimary: true}
	require.NoError(t, repo.Create(ctx, first))

	second := contacts.EmergencyContact{ID: "c2", UserID: "u1", ContactName: "Luis", PhoneNumber: "556", IsPrimary: true}
	assert.ErrorIs(t, repo.Create(ctx, second), contacts.ErrDuplicatePrimary)

	// otro usuario tiene su propio primario
	other := contacts.EmergencyContact{ID: "c3", UserID: "u2", ContactName: "Eva", PhoneNumber: "557", IsPrimary: true}
	require.NoError(t, repo.Create(ctx, other))

	require.NoError(t, repo.UnsetPrimary(ctx, "u1"))
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.GetPrimary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "c2", got.ID)

	// scoping por usuario
	_, err = repo.GetByID(ctx, "u2", "c1")
	assert.ErrorIs(t, err, contacts.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "u2", "c1"), contacts.ErrNotFound)
}
