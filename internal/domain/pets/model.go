package pets

import "time"

// Gender de la mascota.
// @Enum male, female
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Status solo lo cambia el workflow de reportes de extravío.
// @Enum registered, missing
type Status string

const (
	StatusRegistered Status = "registered"
	StatusMissing    Status = "missing"
)

func (s Status) Valid() bool {
	return s == StatusRegistered || s == StatusMissing
}

// Pet es una mascota registrada con al menos una huella de nariz.
type Pet struct {
	ID          string
	PublicID    PublicID
	OwnerUserID string

	// GovernmentRegistrationNumber es opcional; si viene, es único en todo el sistema.
	GovernmentRegistrationNumber string

	Name            string
	BirthDate       *time.Time
	Gender          Gender
	Breed           string
	ProfileImageURL string

	Status            Status
	NosePrintVerified bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile son los datos que el dueño carga al registrar.
type Profile struct {
	Name                         string
	BirthDate                    *time.Time
	Gender                       Gender
	Breed                        string
	GovernmentRegistrationNumber string
	ProfileImageURL              string
}
