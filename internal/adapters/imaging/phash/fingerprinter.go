package phash

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"pet-identity-registry/internal/ports/imaging"

	"github.com/corona10/goimagehash"
)

// Fingerprinter implementa imaging.Fingerprinter con perception hash de 64 bits.
// Salida: "p:" + 16 dígitos hex.
type Fingerprinter struct{}

func New() *Fingerprinter { return &Fingerprinter{} }

func (Fingerprinter) Fingerprint(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", imaging.ErrUnsupportedImage, err)
	}

	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("perception hash: %w", err)
	}
	return h.ToString(), nil
}
