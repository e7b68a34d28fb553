package noseprints

import "time"

// NosePrint es una foto de nariz con huella calculada: el ancla biométrica de una mascota.
// Inmutable una vez creada; se borra solo junto con su mascota.
type NosePrint struct {
	ID    string
	PetID string

	ImageURL    string // imageRef opaco (URL del object storage)
	ContentHash string

	RegisteredAt time.Time
}

// Photo es lo que llega de una captura ya procesada: hash + URL opcional.
type Photo struct {
	Hash     string
	ImageURL string
}
