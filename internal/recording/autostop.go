package recording

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"meetvault/internal/timeline"
)

// Sentinel stops sessions whose owning meeting is over. An external
// scheduler invokes Sweep periodically.
type Sentinel struct {
	sessions    SessionStore
	meetings    timeline.MeetingStore
	service     *Service
	maxDuration time.Duration
	log         zerolog.Logger
}

func NewSentinel(sessions SessionStore, meetings timeline.MeetingStore, service *Service, maxDuration time.Duration, log zerolog.Logger) *Sentinel {
	return &Sentinel{
		sessions:    sessions,
		meetings:    meetings,
		service:     service,
		maxDuration: maxDuration,
		log:         log,
	}
}

// Sweep walks a snapshot of the active sessions and stops those whose
// meeting has ended. A failing item is logged and skipped; one bad session
// never aborts the sweep. Returns the number of sessions stopped.
func (s *Sentinel) Sweep(ctx context.Context) int {
	now := time.Now()

	active, err := s.sessions.ListActive(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("auto-stop sweep failed to list sessions")
		return 0
	}

	stopped := 0
	for _, session := range active {
		meeting, err := s.meetings.Get(ctx, session.Channel)
		if err != nil {
			if !errors.Is(err, timeline.ErrMeetingNotFound) {
				s.log.Warn().Err(err).Str("cname", session.Channel).Msg("auto-stop failed to load meeting")
			}
			continue
		}

		if !meeting.Ended(now) {
			continue
		}

		// Max-duration takes precedence when both conditions hold.
		reason := StopReasonMeetingEnd
		if now.Sub(session.StartedAt) > s.maxDuration {
			reason = StopReasonMaxDuration
		}

		if err := s.service.autoStop(ctx, session, reason); err != nil {
			s.log.Warn().Err(err).Str("cname", session.Channel).Str("type", session.Type).Msg("auto-stop failed")
			continue
		}

		stopped++
		s.log.Info().
			Str("cname", session.Channel).
			Str("type", session.Type).
			Str("reason", string(reason)).
			Msg("auto-stopped recording")
	}

	return stopped
}
