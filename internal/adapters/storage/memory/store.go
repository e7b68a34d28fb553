package memory

import (
	"context"
	"maps"
	"sync"

	"pet-identity-registry/internal/domain/contacts"
	"pet-identity-registry/internal/domain/missingreports"
	"pet-identity-registry/internal/domain/noseprints"
	"pet-identity-registry/internal/domain/pets"
	"pet-identity-registry/internal/domain/records"
)

// state es todo el contenido del store. Los índices secundarios replican
// los unique del esquema postgres.
type state struct {
	pets       map[string]pets.Pet
	publicIDs  map[string]string // public_id -> pet id
	govNumbers map[string]string // government_registration_number -> pet id

	prints map[string]noseprints.NosePrint
	hashes map[string]string // content_hash -> nose print id

	reports  map[string]missingreports.MissingReport
	records  map[string]records.Record
	contacts map[string]contacts.EmergencyContact

	counter int64
}

func newState() *state {
	return &state{
		pets:       make(map[string]pets.Pet),
		publicIDs:  make(map[string]string),
		govNumbers: make(map[string]string),
		prints:     make(map[string]noseprints.NosePrint),
		hashes:     make(map[string]string),
		reports:    make(map[string]missingreports.MissingReport),
		records:    make(map[string]records.Record),
		contacts:   make(map[string]contacts.EmergencyContact),
	}
}

func (s *state) clone() *state {
	return &state{
		pets:       maps.Clone(s.pets),
		publicIDs:  maps.Clone(s.publicIDs),
		govNumbers: maps.Clone(s.govNumbers),
		prints:     maps.Clone(s.prints),
		hashes:     maps.Clone(s.hashes),
		reports:    maps.Clone(s.reports),
		records:    maps.Clone(s.records),
		contacts:   maps.Clone(s.contacts),
		counter:    s.counter,
	}
}

type txKey struct{}

// Store es el backend en memoria compartido por todos los repos.
// Las transacciones se serializan: clonan el estado, corren y hacen swap al commit.
type Store struct {
	txMu  sync.Mutex
	mu    sync.RWMutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// RunInTx implementa tx.Manager. Llamadas anidadas se unen a la transacción externa.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.state.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, work)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = work
	s.mu.Unlock()
	return nil
}

// read corre fn sobre el estado de la transacción del ctx, o sobre el estado commiteado.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if st, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(st)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// write fuera de una transacción abre una propia: cada llamada es atómica.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		return fn(ctx.Value(txKey{}).(*state))
	})
}
