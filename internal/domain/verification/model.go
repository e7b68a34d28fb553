package verification

import (
	"pet-identity-registry/internal/domain/contacts"
	"pet-identity-registry/internal/domain/missingreports"
	"pet-identity-registry/internal/domain/pets"
)

// Mode de verificación.
// @Enum identity, found_stray
type Mode string

const (
	// ModeIdentity: el usuario quiere confirmar qué mascota es.
	ModeIdentity Mode = "identity"
	// ModeFoundStray: alguien encontró un animal suelto y busca al dueño.
	ModeFoundStray Mode = "found_stray"
)

func (m Mode) Valid() bool {
	return m == ModeIdentity || m == ModeFoundStray
}

// @Enum match, no_match
type Outcome string

const (
	OutcomeMatch   Outcome = "match"
	OutcomeNoMatch Outcome = "no_match"
)

// Result de una verificación. no_match es un resultado normal, no un error.
type Result struct {
	Outcome Outcome
	Mode    Mode

	Pet *pets.Pet
	// CurrentlyMissing se informa en ambos modos: identidad y extravío son ortogonales.
	CurrentlyMissing bool

	// OpenReport solo en found_stray con la mascota missing.
	OpenReport *missingreports.MissingReport
	// PrimaryContact solo en found_stray con la mascota no reportada.
	PrimaryContact *contacts.EmergencyContact
}

func (r Result) Matched() bool { return r.Outcome == OutcomeMatch }
