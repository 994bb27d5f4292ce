package storage

import (
	"bytes"
	"context"
	"io"
	"sort"

	"github.com/rs/zerolog"
)

// backend is the subset of a store the tiered store mirrors to.
type backend interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) bool
	List(ctx context.Context) ([]string, error)
}

// TieredStore combines local disk (source of truth) with a remote backup.
// Write path: save locally first, then push to the backup.
// Read path: local first, backup fallback with cache-on-read.
type TieredStore struct {
	remote backend
	local  *LocalStore
	log    zerolog.Logger
}

// NewTieredStore creates a tiered local-primary + remote-backup store.
func NewTieredStore(remote backend, local *LocalStore, log zerolog.Logger) *TieredStore {
	return &TieredStore{
		remote: remote,
		local:  local,
		log:    log.With().Str("component", "tiered-store").Logger(),
	}
}

// Save writes to local disk first (fatal on failure), then the backup
// (warning on failure; the reconciler retries).
func (s *TieredStore) Save(ctx context.Context, key string, data []byte, ct string) error {
	if err := s.local.Save(ctx, key, data, ct); err != nil {
		return err
	}
	if err := s.remote.Save(ctx, key, data, ct); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("backup write failed, reconciler will retry")
	}
	return nil
}

// Open checks local disk first, then the backup. A backup hit is cached
// locally for future reads.
func (s *TieredStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if r, err := s.local.Open(ctx, key); err == nil {
		return r, nil
	}
	r, err := s.remote.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return nil, err
	}
	if cacheErr := s.local.Save(ctx, key, data, ""); cacheErr != nil {
		s.log.Warn().Err(cacheErr).Str("key", key).Msg("failed to cache backup file locally")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *TieredStore) Exists(ctx context.Context, key string) bool {
	if s.local.Exists(ctx, key) {
		return true
	}
	return s.remote.Exists(ctx, key)
}

// List merges local and backup keys. A backup listing failure is logged and
// the local keys are returned.
func (s *TieredStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.local.List(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := s.remote.List(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("backup listing failed, showing local documents only")
		return keys, nil
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	for _, k := range remote {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *TieredStore) Type() string { return "tiered" }
