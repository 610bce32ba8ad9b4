package playback

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"meetvault/internal/storage"
)

// Proxy streams manifests and segments through the API itself, for clients
// that cannot follow signed storage URLs. Manifests are rewritten so every
// segment reference points back at the proxy.
type Proxy struct {
	store storage.ObjectStore
	log   zerolog.Logger
}

func NewProxy(store storage.ObjectStore, log zerolog.Logger) *Proxy {
	return &Proxy{store: store, log: log}
}

// ServePlaylist handles GET /playlist?key=. Only recording namespaces are
// reachable; everything else in the bucket stays private.
func (p *Proxy) ServePlaylist(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":       false,
			"error_message": "key query parameter is required",
		})
	}
	if !strings.HasPrefix(key, "recordings/") && !strings.HasPrefix(key, SecurePrefix) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":       false,
			"error_message": "key is outside the recording namespaces",
		})
	}

	data, err := p.store.Get(c.Context(), key)
	if err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("proxy object fetch failed")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success":       false,
			"error_message": "recording object not found",
		})
	}

	c.Set("Access-Control-Allow-Origin", "*")

	if strings.HasSuffix(key, ".m3u8") {
		c.Set(fiber.HeaderContentType, manifestContentType)
		c.Set(fiber.HeaderCacheControl, "no-cache")
		return c.SendString(p.rewriteForProxy(c.BaseURL(), key, data))
	}

	c.Set(fiber.HeaderContentType, "video/mp2t")
	c.Set(fiber.HeaderCacheControl, "public, max-age=604800")
	return c.Send(data)
}

// ServeAudio handles GET /api/recording/audio/stream?key=audiofiles/....
func (p *Proxy) ServeAudio(c *fiber.Ctx) error {
	key := c.Query("key")
	if !strings.HasPrefix(key, AudioPrefix) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":       false,
			"error_message": "key must reference an audio derivative",
		})
	}

	data, err := p.store.Get(c.Context(), key)
	if err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("audio fetch failed")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success":       false,
			"error_message": "audio file not found",
		})
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	c.Set(fiber.HeaderCacheControl, "public, max-age=604800")
	c.Set(fiber.HeaderContentDisposition, "inline")
	return c.Send(data)
}

// rewriteForProxy points every segment line of a manifest back at the proxy
// endpoint, so playback never leaves the API host.
func (p *Proxy) rewriteForProxy(baseURL, manifestKey string, manifest []byte) string {
	basePath := manifestKey[:strings.LastIndex(manifestKey, "/")+1]
	lines := strings.Split(string(manifest), "\n")
	for i, rawLine := range lines {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") || !strings.HasSuffix(line, ".ts") {
			continue
		}
		segmentKey := basePath + strings.SplitN(line, "?", 2)[0]
		lines[i] = fmt.Sprintf("%s/playlist?key=%s", baseURL, url.QueryEscape(segmentKey))
	}
	return strings.Join(lines, "\n")
}
