package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pet-identity-registry/internal/platform/httpclient"
)

var ErrNotConfigured = errors.New("object storage not configured")

type Config struct {
	BaseURL string
	APIKey  string
	Bucket  string
	Timeout time.Duration
}

// Uploader implementa objectstore.Uploader contra la API de storage:
// POST /storage/v1/object/{bucket}/{name}, URL pública en /storage/v1/object/public/{bucket}/{name}.
type Uploader struct {
	client *httpclient.Client
	apiKey string
	bucket string
}

func NewUploader(cfg Config) (*Uploader, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrNotConfigured
	}
	c, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Uploader{client: c, apiKey: strings.TrimSpace(cfg.APIKey), bucket: strings.TrimSpace(cfg.Bucket)}, nil
}

func (u *Uploader) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	objectPath := u.bucket + "/" + escapePath(strings.TrimLeft(name, "/"))

	headers := map[string]string{
		"Authorization": "Bearer " + u.apiKey,
		"apikey":        u.apiKey,
		"x-upsert":      "false",
	}
	if _, err := u.client.DoBytes(ctx, http.MethodPost, "/storage/v1/object/"+objectPath, headers, contentType, data); err != nil {
		return "", fmt.Errorf("storage upload %s: %w", name, err)
	}
	return u.client.BaseURL + "/storage/v1/object/public/" + objectPath, nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
