package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/storefront/backend/internal/infrastructure/config"
)

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{AccessKey: "k", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "b", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})
}

func TestS3ObjectStorage_PublicURL(t *testing.T) {
	t.Run("explicit public base", func(t *testing.T) {
		s, err := NewS3ObjectStorage(&config.StorageConfig{
			Bucket: "images", AccessKey: "k", SecretKey: "s",
			PublicBaseURL: "https://cdn.example.com/",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/products/a.jpg", s.PublicURL("products/a.jpg"))

		key, ok := s.KeyFromURL("https://cdn.example.com/products/a.jpg")
		assert.True(t, ok)
		assert.Equal(t, "products/a.jpg", key)

		_, ok = s.KeyFromURL("https://elsewhere.example.com/a.jpg")
		assert.False(t, ok)
	})

	t.Run("path style endpoint", func(t *testing.T) {
		s, err := NewS3ObjectStorage(&config.StorageConfig{
			Bucket: "images", AccessKey: "k", SecretKey: "s",
			Endpoint: "minio:9000", UsePathStyle: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "http://minio:9000/images/x.png", s.PublicURL("x.png"))
	})

	t.Run("virtual host style on AWS", func(t *testing.T) {
		s, err := NewS3ObjectStorage(&config.StorageConfig{
			Bucket: "images", AccessKey: "k", SecretKey: "s", Region: "eu-west-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://images.s3.eu-west-1.amazonaws.com/x.png", s.PublicURL("x.png"))
	})
}

// fakeS3 records the requests it receives
type fakeS3 struct {
	mu       sync.Mutex
	requests []recorded
}

type recorded struct {
	method      string
	path        string
	contentType string
}

func (f *fakeS3) handler(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{method: r.Method, path: r.URL.Path, contentType: r.Header.Get("Content-Type")})
	f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeStorage(t *testing.T) (*S3ObjectStorage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)

	s, err := NewS3ObjectStorage(&config.StorageConfig{
		Bucket:        "images",
		AccessKey:     "test-key",
		SecretKey:     "test-secret",
		Endpoint:      srv.URL,
		UsePathStyle:  true,
		PublicBaseURL: "https://cdn.example.com",
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return s, fake
}

func TestS3ObjectStorage_Put(t *testing.T) {
	s, fake := newFakeStorage(t)
	data := []byte("\x89PNG fake image")

	url, err := s.Put(context.Background(), "products/p1/img.png", bytes.NewReader(data), int64(len(data)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/products/p1/img.png", url)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, http.MethodPut, fake.requests[0].method)
	assert.Equal(t, "/images/products/p1/img.png", fake.requests[0].path)
	assert.Equal(t, "image/png", fake.requests[0].contentType)
}

func TestS3ObjectStorage_Delete(t *testing.T) {
	s, fake := newFakeStorage(t)

	require.NoError(t, s.Delete(context.Background(), "https://cdn.example.com/products/p1/img.png"))
	require.NoError(t, s.Delete(context.Background(), "https://other.example.com/img.png"))

	require.Len(t, fake.requests, 1)
	assert.Equal(t, http.MethodDelete, fake.requests[0].method)
	assert.Equal(t, "/images/products/p1/img.png", fake.requests[0].path)
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	s, _ := newFakeStorage(t)
	_, err := s.Put(context.Background(), "", bytes.NewReader(nil), 0, "image/png")
	assert.Error(t, err)
	assert.Error(t, s.DeleteObject(context.Background(), ""))
}
