package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"tourdesk/internal/config"
	"tourdesk/internal/models"
	console "tourdesk/internal/utils/logger"
)

// Storage keeps uploaded files. Put returns the stored key; URLs for a key
// come from GetSignedURL so both backends can serve models.FileURLGenerator.
type Storage interface {
	models.FileURLGenerator
	Put(ctx context.Context, content []byte, filename, contentType string) (string, error)
}

// NewStorage picks the backend named by cfg.Provider
func NewStorage(ctx context.Context, cfg config.StorageConfig, publicURL string) (Storage, error) {
	switch cfg.Provider {
	case "s3", "r2":
		return NewS3Service(ctx, cfg.S3, cfg.Provider == "r2")
	case "local", "":
		return NewLocalStorage(cfg.BasePath, publicURL)
	}
	return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
}

func objectKey(filename string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(filename))
}

// LocalStorage writes uploads under a directory the API serves at /storage
type LocalStorage struct {
	dir     string
	baseURL string
	log     *console.Logger
}

var _ Storage = (*LocalStorage)(nil)

func NewLocalStorage(dir, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{
		dir:     dir,
		baseURL: strings.TrimSuffix(publicURL, "/") + "/storage/",
		log:     console.New("LOCAL-STORAGE"),
	}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Put(ctx context.Context, content []byte, filename, contentType string) (string, error) {
	key := objectKey(filename)
	if err := os.WriteFile(filepath.Join(s.dir, key), content, 0o644); err != nil {
		return "", s.log.Error("Failed to write %s", err, key)
	}
	s.log.Success("Stored %s as %s", filename, key)
	return key, nil
}

// GetSignedURL returns the public URL; local files are not access controlled
func (s *LocalStorage) GetSignedURL(ctx context.Context, path string, duration time.Duration) (string, error) {
	if path == "" {
		return "", nil
	}
	return s.baseURL + strings.TrimPrefix(path, "/"), nil
}
