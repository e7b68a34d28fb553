package imaging

import "errors"

var ErrUnsupportedImage = errors.New("unsupported image format")

// Fingerprinter calcula el hash perceptual de una foto de nariz.
// El resultado es una clave opaca de largo fijo; fotos recomprimidas del mismo
// archivo deben producir el mismo valor.
type Fingerprinter interface {
	Fingerprint(data []byte) (string, error)
}
