package playback

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"meetvault/internal/config"
	"meetvault/internal/storage"
)

const (
	SecurePrefix        = "secure/"
	manifestContentType = "application/vnd.apple.mpegurl"
)

// SecureKey derives the content-addressed location of the rewritten
// manifest. Hashing the source key instead of timestamping keeps the rewrite
// idempotent: one source always maps to one secure object.
func SecureKey(playlistKey string) string {
	hash := md5.Sum([]byte(playlistKey))
	return SecurePrefix + hex.EncodeToString(hash[:])[:8] + "_" + path.Base(playlistKey)
}

// Resolver turns a stored manifest into a credential-free playable URL.
type Resolver struct {
	store storage.ObjectStore
	cache CacheStore
	cfg   config.PlaybackConfig
	log   zerolog.Logger
}

func NewResolver(store storage.ObjectStore, cache CacheStore, cfg config.PlaybackConfig, log zerolog.Logger) *Resolver {
	return &Resolver{store: store, cache: cache, cfg: cfg, log: log}
}

// Resolve returns a signed URL for the rewritten manifest, reusing the cache
// entry until expiry and the secure object for as long as it exists.
func (r *Resolver) Resolve(ctx context.Context, playlistKey string) (*PlaylistEntry, error) {
	now := time.Now()

	entry, err := r.cache.GetPlaylist(ctx, playlistKey)
	if err == nil {
		if entry.Valid(now) {
			return entry, nil
		}
		// Expired; regenerate below.
		if err := r.cache.DeletePlaylist(ctx, playlistKey); err != nil {
			r.log.Warn().Err(err).Str("key", playlistKey).Msg("failed to drop expired cache entry")
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		r.log.Warn().Err(err).Str("key", playlistKey).Msg("playlist cache lookup failed")
	}

	secureKey := SecureKey(playlistKey)

	exists, err := r.store.Exists(ctx, secureKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := r.rewrite(ctx, playlistKey, secureKey); err != nil {
			return nil, err
		}
	}

	// Refresh the signed URL even when the secure object was reused.
	playableURL, err := r.store.PresignGet(ctx, secureKey, r.cfg.PlaylistURLTTL)
	if err != nil {
		return nil, err
	}

	ttl := r.cfg.CacheTTL
	if r.cfg.PlaylistURLTTL < ttl {
		ttl = r.cfg.PlaylistURLTTL
	}
	fresh := &PlaylistEntry{
		PlaylistKey: playlistKey,
		SecureKey:   secureKey,
		PlayableURL: playableURL,
		CachedAt:    now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := r.cache.PutPlaylist(ctx, fresh); err != nil {
		r.log.Warn().Err(err).Str("key", playlistKey).Msg("failed to cache playlist entry")
	}
	return fresh, nil
}

// rewrite replaces every segment reference with a pre-signed URL and uploads
// the result. Segment URL generation runs concurrently but the manifest is
// only published after every line succeeded.
func (r *Resolver) rewrite(ctx context.Context, playlistKey, secureKey string) error {
	body, err := r.fetchManifest(ctx, playlistKey)
	if err != nil {
		return err
	}

	basePath := playlistKey[:strings.LastIndex(playlistKey, "/")+1]
	lines := strings.Split(string(body), "\n")
	rewritten := make([]string, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || !strings.HasSuffix(trimmed, ".ts") {
			rewritten[i] = line
			continue
		}

		i, segment := i, trimmed
		g.Go(func() error {
			signed, err := r.store.PresignGet(gctx, basePath+segment, r.cfg.SegmentURLTTL)
			if err != nil {
				return err
			}
			rewritten[i] = signed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return r.store.Put(ctx, secureKey, []byte(strings.Join(rewritten, "\n")), manifestContentType)
}

// fetchManifest reads the source manifest with a hard timeout and a single
// retry.
func (r *Resolver) fetchManifest(ctx context.Context, playlistKey string) ([]byte, error) {
	var body []byte
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
		body, err = r.store.Get(fetchCtx, playlistKey)
		cancel()
		if err == nil {
			return body, nil
		}
	}
	return nil, err
}
