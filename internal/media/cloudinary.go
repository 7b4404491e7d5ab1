// Package media uploads line-item illustrations to an unsigned image
// upload endpoint and returns their public URL.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/config"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("upload_not_configured")
	ErrEmptyFile     = errors.New("upload_empty_file")
	ErrRejected      = errors.New("upload_rejected")
)

// MaxFileSize bounds an illustration upload.
const MaxFileSize = 10 << 20

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

type uploadErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CloudinaryUploader posts files to the Cloudinary unsigned upload API.
type CloudinaryUploader struct {
	baseURL   string
	cloudName string
	preset    string
	client    *http.Client
	log       *zap.Logger
}

func NewCloudinaryUploader(cfg config.Config, log *zap.Logger) *CloudinaryUploader {
	timeout := cfg.Upload.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CloudinaryUploader{
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.Upload.BaseURL), "/"),
		cloudName: strings.TrimSpace(cfg.Upload.CloudName),
		preset:    strings.TrimSpace(cfg.Upload.Preset),
		client:    &http.Client{Timeout: timeout},
		log:       log.Named("media.cloudinary"),
	}
}

func (u *CloudinaryUploader) endpoint() string {
	return fmt.Sprintf("%s/%s/image/upload", u.baseURL, u.cloudName)
}

// Upload sends file with the configured upload preset.
func (u *CloudinaryUploader) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	if u.cloudName == "" || u.preset == "" || u.baseURL == "" {
		return "", ErrNotConfigured
	}
	if file == nil {
		return "", ErrEmptyFile
	}

	body, contentType, err := encodeUpload(file, filename, u.preset)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint(), body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := u.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var uploadErr uploadErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&uploadErr)
		msg := strings.TrimSpace(uploadErr.Error.Message)
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	url := strings.TrimSpace(out.SecureURL)
	if url == "" {
		url = strings.TrimSpace(out.URL)
	}
	if url == "" {
		return "", fmt.Errorf("%w: response carries no url", ErrRejected)
	}

	u.log.Debug("image uploaded",
		zap.String("filename", filename),
		zap.Duration("took", time.Since(start)),
	)
	return url, nil
}

func encodeUpload(file io.Reader, filename, preset string) (*bytes.Buffer, string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == "/" || name == "" {
		name = "image"
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("upload_preset", preset); err != nil {
		return nil, "", err
	}
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	n, err := io.Copy(part, io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		return nil, "", err
	}
	if n == 0 {
		return nil, "", ErrEmptyFile
	}
	if n > MaxFileSize {
		return nil, "", fmt.Errorf("%w: file larger than %d bytes", ErrRejected, MaxFileSize)
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
