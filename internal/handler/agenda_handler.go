package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aula-go-api/internal/dto"
	"github.com/noah-isme/aula-go-api/internal/service"
	"github.com/noah-isme/aula-go-api/internal/utils"
)

// AgendaHandler exposes the planning calendar.
type AgendaHandler struct {
	service service.AgendaService
	logger  zerolog.Logger
}

// NewAgendaHandler constructs the handler.
func NewAgendaHandler(service service.AgendaService, logger zerolog.Logger) *AgendaHandler {
	return &AgendaHandler{
		service: service,
		logger:  logger.With().Str("component", "agenda_handler").Logger(),
	}
}

// Register attaches agenda routes.
func (h *AgendaHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *AgendaHandler) list(c *fiber.Ctx) error {
	from, err := parseQueryDate(c, "from")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid from date")
	}
	to, err := parseQueryDate(c, "to")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid to date")
	}

	events, err := h.service.List(c.UserContext(), dto.AgendaListRequest{From: from, To: to, CourseID: c.Query("course_id")})
	if err != nil {
		return sendServiceError(c, h.logger, err, "list agenda events")
	}

	return utils.OK(c, events, "agenda retrieved", fiber.Map{"total": len(events)})
}

func (h *AgendaHandler) create(c *fiber.Ctx) error {
	var payload dto.AgendaEventRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	event, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "create agenda event")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "agenda event created", event)
}

func (h *AgendaHandler) update(c *fiber.Ctx) error {
	var payload dto.AgendaEventRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	event, err := h.service.Update(c.UserContext(), c.Params("id"), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "update agenda event")
	}

	return utils.SendSuccess(c, "agenda event updated", event)
}

func (h *AgendaHandler) delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return sendServiceError(c, h.logger, err, "delete agenda event")
	}

	return utils.SendSuccess(c, "agenda event deleted", fiber.Map{"id": id})
}
