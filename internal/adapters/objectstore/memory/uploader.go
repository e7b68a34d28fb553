package memory

import (
	"context"
	"strings"
	"sync"
)

// Uploader guarda las fotos en memoria. Para desarrollo local y tests.
type Uploader struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]Object
}

type Object struct {
	ContentType string
	Data        []byte
}

func NewUploader(baseURL string) *Uploader {
	return &Uploader{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

func (u *Uploader) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = strings.TrimLeft(name, "/")

	u.mu.Lock()
	u.objects[name] = Object{ContentType: contentType, Data: append([]byte(nil), data...)}
	u.mu.Unlock()

	return u.baseURL + "/" + name, nil
}

func (u *Uploader) Get(name string) (Object, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	o, ok := u.objects[strings.TrimLeft(name, "/")]
	return o, ok
}
