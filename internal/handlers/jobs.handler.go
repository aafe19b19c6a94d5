package handlers

import (
	"roomledger/internal/app"
	"roomledger/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

// JobsHandler exposes manual triggers for the scheduled jobs, for ops use.
type JobsHandler struct {
	Handler
	scheduler *services.SchedulerService
}

func NewJobsHandler(app app.App, router fiber.Router) *JobsHandler {
	log := logger.New("handlers").File("jobs_handler")
	return &JobsHandler{
		scheduler: app.Services.Scheduler,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *JobsHandler) Register() {
	jobs := h.router.Group("/jobs")

	jobs.Get("", h.status)
	jobs.Post("/:name/trigger", h.middleware.RequireActor(), h.trigger)
}

func (h *JobsHandler) status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"running":  h.scheduler.IsRunning(),
		"jobCount": h.scheduler.GetJobCount(),
	})
}

func (h *JobsHandler) trigger(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("trigger")

	name := c.Params("name")
	if err := h.scheduler.TriggerJobByName(name); err != nil {
		_ = log.Err("Failed to trigger job", err, "job", name)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "triggered", "job": name})
}
