package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aula-go-api/internal/dto"
	"github.com/noah-isme/aula-go-api/internal/service"
	"github.com/noah-isme/aula-go-api/internal/utils"
)

// DiaryHandler exposes the class diary.
type DiaryHandler struct {
	service service.DiaryService
	logger  zerolog.Logger
}

// NewDiaryHandler constructs the handler.
func NewDiaryHandler(service service.DiaryService, logger zerolog.Logger) *DiaryHandler {
	return &DiaryHandler{
		service: service,
		logger:  logger.With().Str("component", "diary_handler").Logger(),
	}
}

// Register attaches diary routes.
func (h *DiaryHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *DiaryHandler) list(c *fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	entries, err := h.service.List(c.UserContext(), dto.DiaryListRequest{CourseID: c.Query("course_id"), Limit: limit})
	if err != nil {
		return sendServiceError(c, h.logger, err, "list diary entries")
	}

	return utils.OK(c, entries, "diary entries retrieved", fiber.Map{"total": len(entries)})
}

func (h *DiaryHandler) create(c *fiber.Ctx) error {
	var payload dto.DiaryEntryRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	entry, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "create diary entry")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "diary entry created", entry)
}

func (h *DiaryHandler) update(c *fiber.Ctx) error {
	var payload dto.DiaryEntryRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	entry, err := h.service.Update(c.UserContext(), c.Params("id"), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "update diary entry")
	}

	return utils.SendSuccess(c, "diary entry updated", entry)
}

func (h *DiaryHandler) delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return sendServiceError(c, h.logger, err, "delete diary entry")
	}

	return utils.SendSuccess(c, "diary entry deleted", fiber.Map{"id": id})
}
