package playback

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"meetvault/internal/storage"
)

// Sweeper purges derived secure artifacts past their retention window. An
// external scheduler invokes Sweep periodically.
type Sweeper struct {
	store     storage.ObjectStore
	retention time.Duration
	log       zerolog.Logger
}

func NewSweeper(store storage.ObjectStore, retention time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{store: store, retention: retention, log: log}
}

// Sweep deletes every object under secure/ whose last-modified time is
// strictly older than the retention window. A failed delete is logged and
// skipped. Returns the number of objects deleted.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.retention)

	objects, err := s.store.List(ctx, SecurePrefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, obj := range objects {
		if obj.LastModified.IsZero() || !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			s.log.Warn().Err(err).Str("key", obj.Key).Msg("retention delete failed")
			continue
		}
		deleted++
		s.log.Info().Str("key", obj.Key).Msg("deleted expired secure artifact")
	}

	return deleted, nil
}
