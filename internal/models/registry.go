package models

import (
	"context"
	"sync"
	"time"
)

// FileURLGenerator interface for generating signed URLs
type FileURLGenerator interface {
	GetSignedURL(ctx context.Context, path string, duration time.Duration) (string, error)
}

var (
	urlGenerator FileURLGenerator
	registryMu   sync.RWMutex
)

// RegisterFileURLGenerator sets the URL generator for image paths
func RegisterFileURLGenerator(generator FileURLGenerator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	urlGenerator = generator
}

func signedURL(ctx context.Context, path string) (string, error) {
	registryMu.RLock()
	generator := urlGenerator
	registryMu.RUnlock()

	if generator == nil || path == "" {
		return "", nil
	}
	// 1-hour expiry
	return generator.GetSignedURL(ctx, path, time.Hour)
}
