package missingreports

import "time"

// Status del reporte. Transiciones: open -> found -> closed, open -> closed.
// closed es inmutable.
// @Enum open, found, closed
type Status string

const (
	StatusOpen   Status = "open"
	StatusFound  Status = "found"
	StatusClosed Status = "closed"
)

// Outcome con el que se resuelve un reporte abierto.
// @Enum found, closed
type Outcome string

const (
	OutcomeFound  Outcome = "found"
	OutcomeClosed Outcome = "closed"
)

func (o Outcome) Valid() bool {
	return o == OutcomeFound || o == OutcomeClosed
}

// MissingReport es el reclamo de que una mascota está perdida.
// Una mascota acumula reportes en el tiempo, pero nunca dos abiertos a la vez.
type MissingReport struct {
	ID             string
	PetID          string
	ReporterUserID string

	MissingDate     time.Time
	MissingLocation string
	Description     string
	ContactPhone    string

	Status  Status
	FoundAt *time.Time // solo con status found

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Details es lo que carga el dueño al reportar.
type Details struct {
	MissingDate     time.Time
	MissingLocation string
	Description     string
	ContactPhone    string
}
