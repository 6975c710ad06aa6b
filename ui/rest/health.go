package rest

import (
	"github.com/Droze-svj/click-platform-sub013/domains/health"
	"github.com/Droze-svj/click-platform-sub013/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Service health.IHealthUsecase
}

func InitRestHealth(app fiber.Router, service health.IHealthUsecase) Health {
	handler := Health{Service: service}

	group := app.Group("/health")
	group.Get("/status", handler.GetStatus)
	group.Get("/schedule", handler.GetScheduleHealth)

	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	status := h.Service.SystemStatus(c.UserContext())
	code := fiber.StatusOK
	if status.Status == health.StatusError {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(utils.ResponseData{
		Status:  code,
		Code:    string(status.Status),
		Message: "Health status retrieved",
		Results: status,
	})
}

func (h *Health) GetScheduleHealth(c *fiber.Ctx) error {
	report, err := h.Service.ScheduleHealth(c.UserContext(), c.Query("user_id"), c.QueryInt("days", 7))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: report.Summary,
		Results: report,
	})
}
