package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reconciler uploads local chapter documents missing from the backup.
// Handles failed backup writes and documents written while S3 was down.
type Reconciler struct {
	local    *LocalStore
	remote   backend
	interval time.Duration
	log      zerolog.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewReconciler creates a reconciler that runs every five minutes once started.
func NewReconciler(local *LocalStore, remote backend, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		local:    local,
		remote:   remote,
		interval: 5 * time.Minute,
		log:      log.With().Str("component", "reconciler").Logger(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *Reconciler) Start() { go r.loop() }

// Stop ends the loop and waits for an in-progress pass to finish.
func (r *Reconciler) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Reconciler) loop() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		r.Reconcile(context.Background())
		select {
		case <-ticker.C:
		case <-r.stop:
			return
		}
	}
}

// Reconcile makes one pass and reports how many documents were uploaded and
// how many failed.
func (r *Reconciler) Reconcile(ctx context.Context) (uploaded, failed int) {
	keys, err := r.local.List(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("list local documents failed")
		return 0, 0
	}

	for _, key := range keys {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		exists := r.remote.Exists(checkCtx, key)
		cancel()
		if exists {
			continue
		}

		data, err := readAll(ctx, r.local, key)
		if err != nil {
			continue
		}

		saveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := r.remote.Save(saveCtx, key, data, contentTypeFromExt(key)); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("reconcile upload failed")
			failed++
		} else {
			uploaded++
		}
		cancel()
	}

	if uploaded > 0 || failed > 0 {
		r.log.Info().
			Int("uploaded", uploaded).
			Int("failed", failed).
			Int("checked", len(keys)).
			Msg("reconcile complete")
	}
	return uploaded, failed
}
