package recording

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"meetvault/internal/auth"
	"meetvault/internal/config"
)

// Service owns the session lifecycle: acquire → start → [query|update]* →
// stop. Transitions for one (channel, type) pair are serialized through a
// per-key mutex so concurrent starts cannot create divergent vendor sessions.
type Service struct {
	vendor     *VendorClient
	sessions   SessionStore
	tokens     auth.TokenProvider
	vendorCfg  config.VendorConfig
	storageCfg config.StorageConfig
	log        zerolog.Logger

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

func NewService(vendor *VendorClient, sessions SessionStore, tokens auth.TokenProvider, vendorCfg config.VendorConfig, storageCfg config.StorageConfig, log zerolog.Logger) *Service {
	return &Service{
		vendor:     vendor,
		sessions:   sessions,
		tokens:     tokens,
		vendorCfg:  vendorCfg,
		storageCfg: storageCfg,
		log:        log,
		keyLocks:   make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockKey(channel, recordingType string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := DocID(channel, recordingType)
	if _, ok := s.keyLocks[key]; !ok {
		s.keyLocks[key] = &sync.Mutex{}
	}
	return s.keyLocks[key]
}

// Start resolves the recorder identity for the type, obtains a scoped token,
// acquires a vendor resource and starts recording into object storage.
func (s *Service) Start(ctx context.Context, channel, recordingType string) (*Session, error) {
	mode, err := ModeFor(recordingType)
	if err != nil {
		return nil, err
	}

	lock := s.lockKey(channel, recordingType)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.sessions.Get(ctx, channel, recordingType)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}
	if existing != nil && !existing.State.Terminal() {
		return nil, ErrSessionActive
	}

	uid := mode.RecorderUID()
	token, err := s.tokens.RecorderToken(channel, uid)
	if err != nil {
		return nil, err
	}

	resourceID, err := s.vendor.Acquire(ctx, channel, uid, s.vendorCfg.ResourceExpiredHours)
	if err != nil {
		return nil, err
	}

	clientRequest := map[string]any{
		"token":           token,
		"recordingConfig": mode.RecordingConfig(s.vendorCfg.MaxIdleTime),
		"streamSubscribe": map[string]any{
			"audioUidList": map[string]any{
				"subscribeAudioUids": []string{"#allstream#"},
			},
		},
		"storageConfig": s.vendorStorageConfig(mode.Name()),
	}

	sid, startResponse, err := s.vendor.Start(ctx, resourceID, mode.Name(), channel, uid, clientRequest)
	if err != nil {
		return nil, err
	}

	session := &Session{
		Channel:       channel,
		Type:          recordingType,
		ResourceID:    resourceID,
		SID:           sid,
		RecorderUID:   uid,
		State:         StateStarted,
		StartedAt:     time.Now(),
		StartResponse: startResponse,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("cname", channel).
		Str("type", recordingType).
		Str("resource_id", resourceID).
		Str("sid", sid).
		Msg("recording started")

	return session, nil
}

// vendorStorageConfig tells the vendor where to write recording files.
// Vendor/region codes select the S3-compatible provider.
func (s *Service) vendorStorageConfig(mode string) map[string]any {
	return map[string]any{
		"vendor":         11,
		"region":         0,
		"bucket":         s.storageCfg.Bucket,
		"accessKey":      s.storageCfg.AccessKey,
		"secretKey":      s.storageCfg.SecretKey,
		"fileNamePrefix": []string{"recordings", mode},
		"extensionParams": map[string]any{
			"endpoint": s.storageCfg.Endpoint,
		},
	}
}

// Stop ends the session. Idempotent toward the vendor: a vendor-side 404
// still transitions the local record to stopped.
func (s *Service) Stop(ctx context.Context, channel, recordingType string) (*Session, error) {
	lock := s.lockKey(channel, recordingType)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.sessions.Get(ctx, channel, recordingType)
	if err != nil {
		return nil, err
	}
	if session.State.Terminal() {
		return nil, ErrSessionTerminal
	}

	stopResponse, _, err := s.vendor.Stop(ctx, session.ResourceID, session.SID, recordingType, channel, session.RecorderUID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := s.sessions.MarkStopped(ctx, channel, recordingType, StateStopped, StopReasonRequested, now, stopResponse)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the transition to a concurrent stopper.
		return nil, ErrSessionTerminal
	}

	session.State = StateStopped
	session.StopReason = StopReasonRequested
	session.StoppedAt = &now

	s.log.Info().Str("cname", channel).Str("type", recordingType).Msg("recording stopped")
	return session, nil
}

// Query proxies the vendor's session status and refreshes the persisted
// record as a side effect.
func (s *Service) Query(ctx context.Context, channel, recordingType string) (map[string]any, error) {
	session, err := s.sessions.Get(ctx, channel, recordingType)
	if err != nil {
		return nil, err
	}

	status, err := s.vendor.Query(ctx, session.ResourceID, session.SID, recordingType)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.RecordQuery(ctx, channel, recordingType, status, time.Now()); err != nil {
		s.log.Warn().Err(err).Str("cname", channel).Msg("failed to persist query response")
	}
	return status, nil
}

// Update changes the subscribed participant streams mid-session. Persisted
// for audit only; session state is unchanged.
func (s *Service) Update(ctx context.Context, channel, recordingType string, subscribeUids []string) (map[string]any, error) {
	session, err := s.sessions.Get(ctx, channel, recordingType)
	if err != nil {
		return nil, err
	}
	if session.State.Terminal() {
		return nil, ErrSessionTerminal
	}

	resp, err := s.vendor.Update(ctx, session.ResourceID, session.SID, recordingType, channel, session.RecorderUID, subscribeUids)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.LogUpdate(ctx, channel, recordingType, subscribeUids, resp); err != nil {
		s.log.Warn().Err(err).Str("cname", channel).Msg("failed to log update")
	}
	return resp, nil
}

// autoStop is the sweep-side stop: the caller already holds a snapshot of
// the session, so the not-found guard is skipped, but the terminal-state
// conditional write still applies.
func (s *Service) autoStop(ctx context.Context, session Session, reason StopReason) error {
	lock := s.lockKey(session.Channel, session.Type)
	lock.Lock()
	defer lock.Unlock()

	stopResponse, _, err := s.vendor.Stop(ctx, session.ResourceID, session.SID, session.Type, session.Channel, session.RecorderUID)
	if err != nil {
		return err
	}

	_, err = s.sessions.MarkStopped(ctx, session.Channel, session.Type, StateAutoStopped, reason, time.Now(), stopResponse)
	return err
}
