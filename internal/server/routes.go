package server

import (
	"github.com/gofiber/fiber/v2"

	"meetvault/internal/auth"
)

func (s *FiberServer) RegisterFiberRoutes() {
	s.App.Get("/health", s.healthHandler)

	// Playable URL proxy. Public: the key itself is the capability, and HLS
	// players cannot attach Authorization headers to segment requests.
	s.App.Get("/playlist", s.proxy.ServePlaylist)

	// Webhook intake. The vendor signs nothing we can verify with JWT, so
	// this stays outside the auth group and acks immediately.
	s.App.Post("/webhooks/vendor", s.webhookIntake.Handle)

	// Protected routes
	api := s.App.Group("/api", auth.Middleware(s.jwtService))

	rec := api.Group("/recording")
	rec.Post("/start", s.recordingHandler.StartRecording)
	rec.Post("/stop", s.recordingHandler.StopRecording)
	rec.Post("/status", s.recordingHandler.QueryRecording)
	rec.Post("/update", s.recordingHandler.UpdateRecording)

	rec.Post("/list/mix", s.playbackHandler.ListMix)
	rec.Post("/list/mix/latest", s.playbackHandler.LatestMix)
	rec.Post("/list/individual", s.playbackHandler.ListIndividual)
	rec.Post("/window", s.playbackHandler.Window)

	rec.Post("/list/mix/audiofiles", s.playbackHandler.ListMixAudio)
	rec.Post("/audiofile", s.playbackHandler.AudioFile)
	rec.Get("/audio/stream", s.proxy.ServeAudio)

	rec.Post("/timeline/user", s.playbackHandler.UserTimeline)

	// Maintenance endpoints for the external scheduler.
	maint := api.Group("/maintenance")
	maint.Post("/cleanup", s.playbackHandler.TriggerCleanup)
	maint.Post("/autostop", s.recordingHandler.TriggerAutoStop)
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	return c.JSON(s.db.Health())
}
