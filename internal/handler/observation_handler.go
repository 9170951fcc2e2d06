package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aula-go-api/internal/dto"
	"github.com/noah-isme/aula-go-api/internal/service"
	"github.com/noah-isme/aula-go-api/internal/utils"
)

// ObservationHandler exposes the student observation log.
type ObservationHandler struct {
	service service.ObservationService
	logger  zerolog.Logger
}

// NewObservationHandler constructs the handler.
func NewObservationHandler(service service.ObservationService, logger zerolog.Logger) *ObservationHandler {
	return &ObservationHandler{
		service: service,
		logger:  logger.With().Str("component", "observation_handler").Logger(),
	}
}

// Register attaches observation routes.
func (h *ObservationHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *ObservationHandler) list(c *fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	req := dto.ObservationListRequest{
		StudentID: c.Query("student_id"),
		Type:      c.Query("type"),
		Limit:     limit,
	}
	observations, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return sendServiceError(c, h.logger, err, "list observations")
	}

	return utils.OK(c, observations, "observations retrieved", fiber.Map{"total": len(observations)})
}

func (h *ObservationHandler) create(c *fiber.Ctx) error {
	var payload dto.ObservationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	observation, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "create observation")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "observation created", observation)
}

func (h *ObservationHandler) update(c *fiber.Ctx) error {
	var payload dto.ObservationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	observation, err := h.service.Update(c.UserContext(), c.Params("id"), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "update observation")
	}

	return utils.SendSuccess(c, "observation updated", observation)
}

func (h *ObservationHandler) delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return sendServiceError(c, h.logger, err, "delete observation")
	}

	return utils.SendSuccess(c, "observation deleted", fiber.Map{"id": id})
}
