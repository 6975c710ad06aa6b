package rest

import (
	domainScheduling "github.com/Droze-svj/click-platform-sub013/domains/scheduling"
	"github.com/Droze-svj/click-platform-sub013/pkg/utils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/application"
	"github.com/gofiber/fiber/v2"
)

type Optimizer struct {
	Service domainScheduling.IOptimizerUsecase
}

func InitRestOptimizer(app fiber.Router, service domainScheduling.IOptimizerUsecase) Optimizer {
	rest := Optimizer{Service: service}

	group := app.Group("/optimizer")
	group.Post("/predict", rest.Predict)
	group.Post("/suggestions", rest.Suggestions)
	group.Post("/reschedule/:id", rest.AutoReschedule)
	group.Post("/preview", rest.Preview)
	group.Post("/bulk", rest.BulkSchedule)
	group.Get("/optimize", rest.OptimizeSchedule)
	group.Get("/analytics", rest.Analytics)
	return rest
}

func (controller *Optimizer) Predict(c *fiber.Ctx) error {
	var request domainScheduling.PredictRequest
	parseBody(c, &request)

	prediction, err := controller.Service.PredictOptimalTime(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Optimal time predicted",
		Results: prediction,
	})
}

func (controller *Optimizer) Suggestions(c *fiber.Ctx) error {
	var request application.SuggestionRequest
	parseBody(c, &request)

	res, err := controller.Service.Suggestions(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch suggestions",
		Results: res,
	})
}

func (controller *Optimizer) AutoReschedule(c *fiber.Ctx) error {
	res, err := controller.Service.AutoReschedule(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: res.Reason,
		Results: res,
	})
}

func (controller *Optimizer) Preview(c *fiber.Ctx) error {
	var request application.PreviewRequest
	parseBody(c, &request)

	res, err := controller.Service.Preview(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Schedule preview",
		Results: res,
	})
}

func (controller *Optimizer) BulkSchedule(c *fiber.Ctx) error {
	var request domainScheduling.BulkScheduleRequest
	parseBody(c, &request)

	res, err := controller.Service.BulkSchedule(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Bulk schedule finished",
		Results: res,
	})
}

func (controller *Optimizer) OptimizeSchedule(c *fiber.Ctx) error {
	res, err := controller.Service.OptimizeSchedule(c.UserContext(), c.Query("user_id"), c.QueryInt("days", 0))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Optimization proposals",
		Results: res,
	})
}

func (controller *Optimizer) Analytics(c *fiber.Ctx) error {
	res, err := controller.Service.Analytics(c.UserContext(), c.Query("user_id"), c.QueryInt("period_days", 0))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Schedule analytics",
		Results: res,
	})
}
