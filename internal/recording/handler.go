package recording

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service  *Service
	sentinel *Sentinel
}

func NewHandler(service *Service, sentinel *Sentinel) *Handler {
	return &Handler{service: service, sentinel: sentinel}
}

type sessionRequest struct {
	Cname string `json:"cname"`
	Type  string `json:"type"`
}

type updateRequest struct {
	Cname              string   `json:"cname"`
	Type               string   `json:"type"`
	AudioSubscribeUids []string `json:"audioSubscribeUids"`
}

func (h *Handler) StartRecording(c *fiber.Ctx) error {
	var req sessionRequest
	if err := c.BodyParser(&req); err != nil || req.Cname == "" {
		return badRequest(c, "cname is required")
	}
	if req.Type == "" {
		req.Type = "mix"
	}

	session, err := h.service.Start(c.Context(), req.Cname, req.Type)
	if err != nil {
		return failure(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    session,
	})
}

func (h *Handler) StopRecording(c *fiber.Ctx) error {
	var req sessionRequest
	if err := c.BodyParser(&req); err != nil || req.Cname == "" || req.Type == "" {
		return badRequest(c, "cname and type are required")
	}

	session, err := h.service.Stop(c.Context(), req.Cname, req.Type)
	if err != nil {
		return failure(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    session,
	})
}

func (h *Handler) QueryRecording(c *fiber.Ctx) error {
	var req sessionRequest
	if err := c.BodyParser(&req); err != nil || req.Cname == "" || req.Type == "" {
		return badRequest(c, "cname and type are required")
	}

	status, err := h.service.Query(c.Context(), req.Cname, req.Type)
	if err != nil {
		return failure(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    status,
	})
}

func (h *Handler) UpdateRecording(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil || req.Cname == "" || req.Type == "" {
		return badRequest(c, "cname and type are required")
	}

	resp, err := h.service.Update(c.Context(), req.Cname, req.Type, req.AudioSubscribeUids)
	if err != nil {
		return failure(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    resp,
	})
}

// TriggerAutoStop runs one auto-stop sweep. Exposed for the external
// scheduler.
func (h *Handler) TriggerAutoStop(c *fiber.Ctx) error {
	stopped := h.sentinel.Sweep(c.Context())
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":         true,
		"stoppedSessions": stopped,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success":       false,
		"error_message": message,
	})
}

// failure maps domain errors onto HTTP statuses: vendor rejections keep the
// vendor's status, missing sessions are 404, terminal-state conflicts 400.
func failure(c *fiber.Ctx, err error) error {
	var vendorErr *VendorError
	switch {
	case errors.As(err, &vendorErr):
		return c.Status(vendorErr.Status).JSON(fiber.Map{
			"success":       false,
			"error_message": vendorErr.Reason,
		})
	case errors.Is(err, ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success":       false,
			"error_message": err.Error(),
		})
	case errors.Is(err, ErrSessionTerminal):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":       false,
			"error_message": err.Error(),
		})
	case errors.Is(err, ErrSessionActive):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
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
