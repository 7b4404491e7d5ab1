package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestUploader(baseURL string) *CloudinaryUploader {
	return NewCloudinaryUploader(config.Config{Upload: config.UploadConfig{
		CloudName: "aximo",
		Preset:    "devis_unsigned",
		BaseURL:   baseURL,
		Timeout:   time.Second,
	}}, zap.NewNop())
}

func TestUpload_PostsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/aximo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "devis_unsigned", r.FormValue("upload_preset"))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "credence.jpg", header.Filename)
		assert.Equal(t, "jpeg-bytes", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/aximo/credence.jpg"}`))
	}))
	defer srv.Close()

	url, err := newTestUploader(srv.URL).Upload(context.Background(), strings.NewReader("jpeg-bytes"), "/tmp/credence.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/aximo/credence.jpg", url)
}

func TestUpload_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer srv.Close()

	_, err := newTestUploader(srv.URL).Upload(context.Background(), strings.NewReader("x"), "a.png")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "Upload preset not found")
}

func TestUpload_Guards(t *testing.T) {
	_, err := NewCloudinaryUploader(config.Config{}, zap.NewNop()).Upload(context.Background(), strings.NewReader("x"), "a.png")
	assert.ErrorIs(t, err, ErrNotConfigured)

	u := newTestUploader("http://127.0.0.1:0")
	_, err = u.Upload(context.Background(), strings.NewReader(""), "a.png")
	assert.ErrorIs(t, err, ErrEmptyFile)
}
