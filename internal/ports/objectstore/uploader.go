package objectstore

import "context"

// Uploader sube bytes de una foto y devuelve la URL pública (imageRef).
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
}
