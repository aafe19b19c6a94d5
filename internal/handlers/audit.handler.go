package handlers

import (
	"time"

	"roomledger/internal/app"
	auditController "roomledger/internal/controllers/audit"
	. "roomledger/internal/models"
	"roomledger/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuditHandler struct {
	Handler
	auditController auditController.AuditControllerInterface
}

func NewAuditHandler(app app.App, router fiber.Router) *AuditHandler {
	log := logger.New("handlers").File("audit_handler")
	return &AuditHandler{
		auditController: app.Controllers.Audit,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AuditHandler) Register() {
	audit := h.router.Group("/audit-logs")

	audit.Get("", h.search)
	audit.Get("/:targetType/:targetId", h.listForTarget)
}

func (h *AuditHandler) listForTarget(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("listForTarget")

	targetID, err := uuid.Parse(c.Params("targetId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid target id"})
	}
	targetType := TargetType(c.Params("targetType"))

	entries, err := h.auditController.ListForTarget(c.Context(), targetType, targetID)
	if err != nil {
		_ = log.Err("Failed to list audit entries", err, "targetType", targetType, "targetId", targetID)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"entries": entries})
}

func (h *AuditHandler) search(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("search")

	filter := repositories.AuditFilter{
		TargetType: TargetType(c.Query("targetType")),
		Actor:      c.Query("actor"),
		Action:     AuditAction(c.Query("action")),
	}

	if raw := c.Query("targetId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid target id"})
		}
		filter.TargetID = id
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid from timestamp"})
		}
		filter.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid to timestamp"})
		}
		filter.To = to
	}

	page, err := h.auditController.Search(c.Context(), filter, c.QueryInt("page", 1), c.QueryInt("pageSize"))
	if err != nil {
		_ = log.Err("Failed to search audit trail", err)
		return errorResponse(c, err)
	}

	return c.JSON(page)
}
