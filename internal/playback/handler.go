package playback

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"meetvault/internal/transcode"
)

type Handler struct {
	service *Service
	sweeper *Sweeper
}

func NewHandler(service *Service, sweeper *Sweeper) *Handler {
	return &Handler{service: service, sweeper: sweeper}
}

type channelRequest struct {
	Cname string `json:"cname"`
}

type windowRequest struct {
	Cname string `json:"cname"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

type audioFileRequest struct {
	Cname        string `json:"cname"`
	RecordingKey string `json:"recordingKey"`
}

type timelineRequest struct {
	Cname         string `json:"cname"`
	ParticipantID string `json:"participantId"`
}

func (h *Handler) ListMix(c *fiber.Ctx) error {
	var req channelRequest
	if err := c.BodyParser(&req); err != nil || req.Cname == "" {
		return badRequest(c, "cname is required")
	}

	listing, err := h.service.ListMix(c.Context(), req.Cname)
	if err != nil {
		return failure(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    listing,
	})
}

func (h *Handler) LatestMix(c *fiber.Ctx) error {
	var req channelRequest
	if err := c.BodyParser(&req); err != nil || req.Cname == "" {
		return badRequest(c, "cname is required")
	}

	rec, err := h.service.LatestMix(c.Context(), req.Cname)
	if err != nil {
		return failure(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    rec,
	})
}

func (h *Handler) ListIndividual(c *fiber.Ctx) error {
	var req channelRequest
	if err := c.BodyParser(&req); err != nil || req.Cname == "" {
		return badRequest(c, "cname is required")
	}

	grouped, err := h.service.ListIndividual(c.Context(), req.Cname)
	if err != nil {
		return failure(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    grouped,
	})
}

func (h *Handler) Window(c *fiber.Ctx) error {
	var req windowRequest
	if err := c.BodyParser(&req); err != nil || req.Cname == "" || req.Start == 0 || req.End == 0 {
		return badRequest(c, "cname, start and end are required")
	}
	if req.End < req.Start {
		return badRequest(c, "end must not precede start")
	}

	rec, err := h.service.Window(c.Context(), req.Cname, req.Start, req.End)
	if err != nil {
		return failure(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    rec,
	})
}

func (h *Handler) ListMixAudio(c *fiber.Ctx) error {
	var req channelRequest
	if err := c.BodyParser(&req); err != nil || req.Cname == "" {
		return badRequest(c, "cname is required")
	}

	entries, err := h.service.ListMixAudio(c.Context(), req.Cname)
	if err != nil {
		return failure(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    entries,
	})
}

func (h *Handler) AudioFile(c *fiber.Ctx) error {
	var req audioFileRequest
	if err := c.BodyParser(&req); err != nil || req.Cname == "" || req.RecordingKey == "" {
		return badRequest(c, "cname and recordingKey are required")
	}

	entry, err := h.service.AudioFile(c.Context(), req.Cname, req.RecordingKey)
	if err != nil {
		return failure(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    entry,
	})
}

func (h *Handler) UserTimeline(c *fiber.Ctx) error {
	var req timelineRequest
	if err := c.BodyParser(&req); err != nil || req.Cname == "" || req.ParticipantID == "" {
		return badRequest(c, "cname and participantId are required")
	}

	tl, err := h.service.Timeline(c.Context(), req.Cname, req.ParticipantID)
	if err != nil {
		return failure(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    tl,
	})
}

// TriggerCleanup runs one retention sweep. Exposed for the external
// scheduler.
func (h *Handler) TriggerCleanup(c *fiber.Ctx) error {
	deleted, err := h.sweeper.Sweep(c.Context())
	if err != nil {
		return failure(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":        true,
		"deletedObjects": deleted,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success":       false,
		"error_message": message,
	})
}

// failure keeps "nothing recorded" a 404 rather than a server error, and
// reports a missing transcoder as 503.
func failure(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNoRecordings):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success":       false,
			"error_message": err.Error(),
		})
	case errors.Is(err, transcode.ErrUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success":       false,
			"error_message": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success":       false,
			"error_message": err.Error(),
		})
	}
}
