package records

import "time"

// Record es una entrada del historial de cuidados de la mascota.
type Record struct {
	ID    string
	PetID string

	Type RecordType

	OccurredAt time.Time
	RecordedAt time.Time

	Title string
	Notes string

	// Detalle clínico opcional
	Clinic       string
	Veterinarian string
	Cost         *float64
	WeightKg     *float64
	TemperatureC *float64
	NextDueDate  *time.Time // vacunas: próxima dosis
	ImageURL     string

	CreatedBy string
	Source    Source

	Status     RecordStatus
	VoidReason string
	VoidedAt   *time.Time
}
