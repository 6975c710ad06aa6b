package rest

import (
	"fmt"

	domainScheduling "github.com/Droze-svj/click-platform-sub013/domains/scheduling"
	"github.com/Droze-svj/click-platform-sub013/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Schedule struct {
	Service domainScheduling.IScheduleUsecase
}

func InitRestSchedule(app fiber.Router, service domainScheduling.IScheduleUsecase) Schedule {
	rest := Schedule{Service: service}

	schedule := app.Group("/schedule")
	schedule.Post("/rules", rest.CreateRule)
	schedule.Get("/rules", rest.ListRules)
	schedule.Get("/rules/:id", rest.GetRule)
	schedule.Patch("/rules/:id", rest.UpdateRule)
	schedule.Post("/rules/:id/pause", rest.PauseRule)
	schedule.Post("/rules/:id/resume", rest.ResumeRule)
	schedule.Delete("/rules/:id", rest.CancelRule)

	schedule.Post("/posts", rest.SchedulePost)
	schedule.Get("/posts", rest.ListPosts)
	schedule.Get("/posts/:id", rest.GetPost)
	schedule.Delete("/posts/:id", rest.CancelPost)
	schedule.Post("/posts/:id/resolve", rest.ResolveConflicts)
	schedule.Post("/posts/:id/status", rest.UpdatePostStatus)
	schedule.Post("/conflicts", rest.DetectConflicts)

	schedule.Post("/templates", rest.CreateTemplate)
	schedule.Get("/templates", rest.ListTemplates)
	schedule.Post("/templates/:id/apply", rest.ApplyTemplate)

	schedule.Get("/calendar.ics", rest.ExportCalendar)
	schedule.Post("/sweep", rest.RunSweep)
	return rest
}

func (controller *Schedule) CreateRule(c *fiber.Ctx) error {
	var request domainScheduling.CreateRuleRequest
	parseBody(c, &request)

	res, err := controller.Service.CreateRule(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  fiber.StatusCreated,
		Code:    "SUCCESS",
		Message: "Recurring rule created",
		Results: res,
	})
}

func (controller *Schedule) ListRules(c *fiber.Ctx) error {
	rules, err := controller.Service.ListRules(c.UserContext(), c.Query("user_id"), c.Query("status"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch rules",
		Results: rules,
	})
}

func (controller *Schedule) GetRule(c *fiber.Ctx) error {
	res, err := controller.Service.GetRule(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch rule",
		Results: res,
	})
}

func (controller *Schedule) UpdateRule(c *fiber.Ctx) error {
	var request domainScheduling.UpdateRuleRequest
	parseBody(c, &request)

	res, err := controller.Service.UpdateRule(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Recurring rule updated",
		Results: res,
	})
}

func (controller *Schedule) PauseRule(c *fiber.Ctx) error {
	rule, err := controller.Service.PauseRule(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Recurring rule paused",
		Results: rule,
	})
}

func (controller *Schedule) ResumeRule(c *fiber.Ctx) error {
	rule, err := controller.Service.ResumeRule(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Recurring rule resumed",
		Results: rule,
	})
}

func (controller *Schedule) CancelRule(c *fiber.Ctx) error {
	err := controller.Service.CancelRule(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Recurring rule cancelled",
	})
}

func (controller *Schedule) SchedulePost(c *fiber.Ctx) error {
	var request domainScheduling.SchedulePostRequest
	parseBody(c, &request)

	res, err := controller.Service.SchedulePost(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	message := "Post scheduled"
	if res.Conflicts.HasConflict && !res.Post.ConflictResolved {
		message = fmt.Sprintf("Post scheduled with %d conflict(s)", res.Conflicts.Count)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  fiber.StatusCreated,
		Code:    "SUCCESS",
		Message: message,
		Results: res,
	})
}

func (controller *Schedule) ListPosts(c *fiber.Ctx) error {
	request := domainScheduling.ListPostsRequest{
		UserID:   c.Query("user_id"),
		Platform: c.Query("platform"),
		RuleID:   c.Query("rule_id"),
		Status:   c.Query("status"),
		From:     queryTime(c, "from"),
		To:       queryTime(c, "to"),
		Limit:    c.QueryInt("limit", 0),
	}

	posts, err := controller.Service.ListPosts(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch posts",
		Results: posts,
	})
}

func (controller *Schedule) GetPost(c *fiber.Ctx) error {
	post, err := controller.Service.GetPost(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch post",
		Results: post,
	})
}

func (controller *Schedule) CancelPost(c *fiber.Ctx) error {
	err := controller.Service.CancelPost(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Post cancelled",
	})
}

func (controller *Schedule) ResolveConflicts(c *fiber.Ctx) error {
	var request domainScheduling.ResolveConflictsRequest
	if len(c.Body()) > 0 {
		parseBody(c, &request)
	}
	request.PostID = c.Params("id")

	res, err := controller.Service.ResolvePostConflicts(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: res.Message,
		Results: res,
	})
}

func (controller *Schedule) UpdatePostStatus(c *fiber.Ctx) error {
	var request domainScheduling.UpdatePostStatusRequest
	parseBody(c, &request)
	request.PostID = c.Params("id")

	post, err := controller.Service.UpdatePostStatus(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Post status updated",
		Results: post,
	})
}

func (controller *Schedule) DetectConflicts(c *fiber.Ctx) error {
	var request domainScheduling.DetectConflictsRequest
	parseBody(c, &request)

	report, err := controller.Service.DetectConflicts(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: fmt.Sprintf("%d conflict(s) found", report.Count),
		Results: report,
	})
}

func (controller *Schedule) CreateTemplate(c *fiber.Ctx) error {
	var request domainScheduling.CreateTemplateRequest
	parseBody(c, &request)

	tpl, err := controller.Service.CreateTemplate(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  fiber.StatusCreated,
		Code:    "SUCCESS",
		Message: "Template created",
		Results: tpl,
	})
}

func (controller *Schedule) ListTemplates(c *fiber.Ctx) error {
	templates, err := controller.Service.ListTemplates(c.UserContext(), c.Query("user_id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch templates",
		Results: templates,
	})
}

func (controller *Schedule) ApplyTemplate(c *fiber.Ctx) error {
	var request domainScheduling.ApplyTemplateRequest
	parseBody(c, &request)
	request.TemplateID = c.Params("id")

	res, err := controller.Service.ApplyTemplate(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: fmt.Sprintf("Template applied: %d created, %d skipped", len(res.Created), len(res.Skipped)),
		Results: res,
	})
}

func (controller *Schedule) ExportCalendar(c *fiber.Ctx) error {
	request := domainScheduling.ExportCalendarRequest{
		UserID:   c.Query("user_id"),
		Platform: c.Query("platform"),
		From:     queryTime(c, "from"),
		To:       queryTime(c, "to"),
	}

	raw, err := controller.Service.ExportCalendar(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="schedule.ics"`)
	return c.Send(raw)
}

func (controller *Schedule) RunSweep(c *fiber.Ctx) error {
	res, err := controller.Service.RunSweep(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Sweep finished",
		Results: res,
	})
}
