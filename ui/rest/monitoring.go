package rest

import (
	"github.com/Droze-svj/click-platform-sub013/infrastructure/notify"
	"github.com/Droze-svj/click-platform-sub013/pkg/sweepmonitor"
	"github.com/Droze-svj/click-platform-sub013/pkg/workerpool"
	"github.com/gofiber/fiber/v2"
)

// MonitoringSources are the live components exposed under /monitoring. Any of
// them may be nil when disabled on this instance.
type MonitoringSources struct {
	Sweeps   *sweepmonitor.Monitor
	Notifier *notify.Fanout
	Pool     *workerpool.Pool
	Clients  func() int
}

type MonitoringHandler struct {
	src MonitoringSources
}

// InitRestMonitoring registers the runtime monitoring endpoints.
func InitRestMonitoring(app fiber.Router, src MonitoringSources) {
	h := &MonitoringHandler{src: src}

	g := app.Group("/monitoring")
	g.Get("/sweeps", h.GetSweepStats)
	g.Get("/notify", h.GetNotifyStats)
	g.Get("/workers", h.GetWorkerPoolStats)
	g.Get("/websocket", h.GetWebsocketStats)
}

func (h *MonitoringHandler) GetSweepStats(c *fiber.Ctx) error {
	if h.src.Sweeps == nil {
		return unavailable(c, "Sweep scheduler disabled on this instance")
	}
	return c.JSON(h.src.Sweeps.Stats())
}

func (h *MonitoringHandler) GetNotifyStats(c *fiber.Ctx) error {
	if h.src.Notifier == nil {
		return unavailable(c, "Notification fan-out not initialized")
	}
	return c.JSON(h.src.Notifier.Stats())
}

func (h *MonitoringHandler) GetWorkerPoolStats(c *fiber.Ctx) error {
	if h.src.Pool == nil {
		return unavailable(c, "Worker pool not initialized")
	}
	return c.JSON(h.src.Pool.Stats())
}

func (h *MonitoringHandler) GetWebsocketStats(c *fiber.Ctx) error {
	clients := 0
	if h.src.Clients != nil {
		clients = h.src.Clients()
	}
	return c.JSON(fiber.Map{"clients": clients})
}

func unavailable(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": msg})
}
