package noseprints

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pet-identity-registry/internal/ports/imaging"
	"pet-identity-registry/internal/ports/objectstore"

	"github.com/google/uuid"
)

var (
	ErrEmptyPhoto    = errors.New("photo is empty")
	ErrPhotoTooLarge = errors.New("photo too large")
	ErrInvalidPhoto  = errors.New("photo is not a supported image")
)

// Claims responde si un hash ya está reclamado (Store.Lookup).
type Claims interface {
	Lookup(ctx context.Context, hash string) (petID string, found bool, err error)
}

// Intake convierte bytes de una captura en Photo: huella perceptual + upload.
type Intake struct {
	fp       imaging.Fingerprinter
	uploader objectstore.Uploader
	claims   Claims
	maxBytes int64
}

type IntakeOption func(*Intake)

// WithClaimCheck evita subir fotos cuyo hash ya está reclamado.
func WithClaimCheck(c Claims) IntakeOption { return func(in *Intake) { in.claims = c } }

func NewIntake(fp imaging.Fingerprinter, uploader objectstore.Uploader, maxBytes int64, opts ...IntakeOption) *Intake {
	in := &Intake{fp: fp, uploader: uploader, maxBytes: maxBytes}
	for _, o := range opts {
		o(in)
	}
	return in
}

// Fingerprint solo calcula el hash (verificación no guarda la foto).
func (in *Intake) Fingerprint(data []byte) (string, error) {
	if err := in.check(data); err != nil {
		return "", err
	}
	h, err := in.fp.Fingerprint(data)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedImage) {
			return "", ErrInvalidPhoto
		}
		return "", fmt.Errorf("fingerprint photo: %w", err)
	}
	return NormalizeHash(h), nil
}

// Process calcula la huella y sube la foto. La URL vuelve como imageRef.
// Con claim check, un hash ya reclamado vuelve sin URL y sin upload: Register
// lo rechaza (o es no-op para la misma mascota) y no queda un objeto huérfano.
func (in *Intake) Process(ctx context.Context, data []byte) (Photo, error) {
	h, err := in.Fingerprint(data)
	if err != nil {
		return Photo{}, err
	}

	if in.claims != nil {
		_, claimed, err := in.claims.Lookup(ctx, h)
		if err != nil {
			return Photo{}, err
		}
		if claimed {
			return Photo{Hash: h}, nil
		}
	}

	ct := http.DetectContentType(data)
	name := "nose-prints/" + uuid.NewString() + extFor(ct)

	url, err := in.uploader.Upload(ctx, name, ct, data)
	if err != nil {
		return Photo{}, fmt.Errorf("upload photo: %w", err)
	}
	return Photo{Hash: h, ImageURL: url}, nil
}

// Resolve arma la Photo de un request: bytes en base64 (se procesan y suben)
// o un hash ya calculado por el cliente, con su imageRef.
func (in *Intake) Resolve(ctx context.Context, photoBase64, hash, imageURL string) (Photo, error) {
	if strings.TrimSpace(photoBase64) != "" {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(photoBase64))
		if err != nil {
			return Photo{}, ErrInvalidPhoto
		}
		return in.Process(ctx, data)
	}

	h := NormalizeHash(hash)
	if h == "" {
		return Photo{}, ErrEmptyPhoto
	}
	return Photo{Hash: h, ImageURL: strings.TrimSpace(imageURL)}, nil
}

// ResolveHash es Resolve sin upload: para verificar no se guarda la foto.
func (in *Intake) ResolveHash(photoBase64, hash string) (string, error) {
	if strings.TrimSpace(photoBase64) != "" {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(photoBase64))
		if err != nil {
			return "", ErrInvalidPhoto
		}
		return in.Fingerprint(data)
	}

	h := NormalizeHash(hash)
	if h == "" {
		return "", ErrEmptyPhoto
	}
	return h, nil
}

func (in *Intake) check(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyPhoto
	}
	if in.maxBytes > 0 && int64(len(data)) > in.maxBytes {
		return ErrPhotoTooLarge
	}
	return nil
}

func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
