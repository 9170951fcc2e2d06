package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aula-go-api/internal/dto"
	"github.com/noah-isme/aula-go-api/internal/service"
	"github.com/noah-isme/aula-go-api/internal/utils"
)

// GradeHandler exposes the per-student gradebook.
type GradeHandler struct {
	service service.GradeService
	logger  zerolog.Logger
}

// NewGradeHandler constructs the handler.
func NewGradeHandler(service service.GradeService, logger zerolog.Logger) *GradeHandler {
	return &GradeHandler{
		service: service,
		logger:  logger.With().Str("component", "grade_handler").Logger(),
	}
}

// Register attaches grade routes under a students group. Writes pass through
// the given middlewares, typically a rate limiter.
func (h *GradeHandler) Register(router fiber.Router, writeGuards ...fiber.Handler) {
	router.Get("/:id/grades", h.get)
	router.Post("/:id/grades/:period", guarded(writeGuards, h.addEntry)...)
	router.Put("/:id/grades/:period", guarded(writeGuards, h.replacePeriod)...)
	router.Delete("/:id/grades/:period/:index", guarded(writeGuards, h.removeEntry)...)
}

func guarded(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(guards)+1)
	chain = append(chain, guards...)
	return append(chain, handler)
}

func (h *GradeHandler) get(c *fiber.Ctx) error {
	grades, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "fetch grades")
	}

	return utils.SendSuccess(c, "grades retrieved", grades)
}

func (h *GradeHandler) addEntry(c *fiber.Ctx) error {
	var payload dto.GradeEntryRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	grades, err := h.service.AddEntry(c.UserContext(), c.Params("id"), c.Params("period"), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "record grade")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "grade recorded", grades)
}

func (h *GradeHandler) replacePeriod(c *fiber.Ctx) error {
	var payload dto.GradePeriodReplaceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	grades, err := h.service.ReplacePeriod(c.UserContext(), c.Params("id"), c.Params("period"), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, "replace grades")
	}

	return utils.SendSuccess(c, "grades replaced", grades)
}

func (h *GradeHandler) removeEntry(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid entry index")
	}

	grades, err := h.service.RemoveEntry(c.UserContext(), c.Params("id"), c.Params("period"), index)
	if err != nil {
		return sendServiceError(c, h.logger, err, "remove grade")
	}

	return utils.SendSuccess(c, "grade removed", grades)
}
