package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/aula-go-api/internal/service"
	"github.com/noah-isme/aula-go-api/internal/utils"
)

// ReportHandler serves the reports view.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches report routes.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/summary", h.summary)
}

func (h *ReportHandler) summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext(), c.Query("course_id"))
	if err != nil {
		return sendServiceError(c, h.logger, err, "build report")
	}

	return utils.SendSuccess(c, "report generated", summary)
}
