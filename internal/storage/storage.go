package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/snarg/chaptr/internal/config"
)

// ChapterStore abstracts where exported chapter documents are kept.
type ChapterStore interface {
	// Save stores data under key, e.g. "My_Talk.txt".
	Save(ctx context.Context, key string, data []byte, contentType string) error

	// Open returns a reader for a stored document.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if a document exists in any backend.
	Exists(ctx context.Context, key string) bool

	// List returns every stored key, sorted.
	List(ctx context.Context) ([]string, error)

	// Type returns "local", "s3", or "tiered".
	Type() string
}

// New creates a ChapterStore based on config. Without S3 settings documents go
// to outputDir. With S3 and LocalCache, outputDir is the primary copy and S3
// the backup; the returned Reconciler (nil otherwise) uploads anything the
// backup is missing.
func New(cfg config.S3Config, outputDir string, log zerolog.Logger) (ChapterStore, *Reconciler, error) {
	if !cfg.Enabled() {
		return NewLocalStore(outputDir), nil, nil
	}

	s3store, err := NewS3Store(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("S3 init failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3store.HeadBucket(ctx); err != nil {
		return nil, nil, fmt.Errorf("S3 startup check failed (bucket=%q endpoint=%q): %w",
			cfg.Bucket, cfg.Endpoint, err)
	}
	log.Info().Str("bucket", cfg.Bucket).Str("endpoint", cfg.Endpoint).Msg("S3 connection verified")

	if !cfg.LocalCache {
		return s3store, nil, nil
	}
	local := NewLocalStore(outputDir)
	return NewTieredStore(s3store, local, log), NewReconciler(local, s3store, log), nil
}

const maxTitleRunes = 100

// SanitizeTitle turns a video title into a file name stem: characters that
// are invalid in file names are removed, spaces become underscores, and the
// result is capped at 100 characters. An empty result becomes "chapters".
func SanitizeTitle(title string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return -1
		case ' ':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	if utf8.RuneCountInString(s) > maxTitleRunes {
		s = string([]rune(s)[:maxTitleRunes])
	}
	s = strings.Trim(s, "._")
	if s == "" {
		return "chapters"
	}
	return s
}

// Keys returns the text and JSON document keys for a video title.
func Keys(title string) (text, json string) {
	stem := SanitizeTitle(title)
	return stem + ".txt", stem + ".json"
}

// ReadDocument reads a stored document fully.
func ReadDocument(ctx context.Context, store ChapterStore, key string) ([]byte, error) {
	return readAll(ctx, store, key)
}

func readAll(ctx context.Context, store interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}, key string) ([]byte, error) {
	r, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func contentTypeFromExt(key string) string {
	switch {
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	case strings.HasSuffix(key, ".txt"):
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
