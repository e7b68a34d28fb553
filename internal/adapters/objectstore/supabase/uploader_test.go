package supabase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-identity-registry/internal/platform/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	var gotPath, gotType, gotAuth string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"Key":"images/nose-prints/a.png"}`))
	}))
	defer srv.Close()

	u, err := NewUploader(Config{BaseURL: srv.URL + "/", APIKey: "service-key", Bucket: "images", Timeout: time.Second})
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), "nose-prints/a.png", "image/png", []byte{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/images/nose-prints/a.png", gotPath)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, []byte{1, 2, 3}, gotBody)
	assert.Equal(t, srv.URL+"/storage/v1/object/public/images/nose-prints/a.png", url)
}

func TestUpload_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate", http.StatusConflict)
	}))
	defer srv.Close()

	u, err := NewUploader(Config{BaseURL: srv.URL, Bucket: "images"})
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), "x.png", "image/png", []byte{1})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httpclient.StatusCode(err))
}

func TestNewUploader_NotConfigured(t *testing.T) {
	_, err := NewUploader(Config{Bucket: "images"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
