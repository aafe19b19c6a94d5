package handlers

import (
	"time"

	"roomledger/internal/app"
	billingController "roomledger/internal/controllers/billing"
	"roomledger/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type BillingHandler struct {
	Handler
	billingController billingController.BillingControllerInterface
}

func NewBillingHandler(app app.App, router fiber.Router) *BillingHandler {
	log := logger.New("handlers").File("billing_handler")
	return &BillingHandler{
		billingController: app.Controllers.Billing,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *BillingHandler) Register() {
	invoices := h.router.Group("/invoices")
	requireActor := h.middleware.RequireActor()

	invoices.Get("/:id", h.getInvoice)
	invoices.Post("/generate", requireActor, h.generateMonthly)
	invoices.Get("/preview", h.preview)
	invoices.Post("", requireActor, h.createOneOff)
	invoices.Post("/:id/pay", requireActor, h.markPaid)
}

type generateRequest struct {
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	ContractID *uuid.UUID `json:"contractId,omitempty"`
}

func (h *BillingHandler) getInvoice(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getInvoice")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice id"})
	}

	invoice, err := h.billingController.GetInvoice(c.Context(), id)
	if err != nil {
		_ = log.Err("Failed to retrieve invoice", err, "invoiceId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"invoice": invoice})
}

// generateMonthly runs the batch, or a single contract when contractId is
// present in the body.
func (h *BillingHandler) generateMonthly(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("generateMonthly")

	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	actor := middleware.GetActor(c)

	if req.ContractID != nil {
		invoice, err := h.billingController.GenerateForContract(
			c.Context(), actor, *req.ContractID, req.Year, req.Month, req.DueDate)
		if err != nil {
			_ = log.Err("Failed to generate invoice", err, "contractId", *req.ContractID)
			return errorResponse(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"invoice": invoice})
	}

	result, err := h.billingController.GenerateMonthly(c.Context(), actor, req.Year, req.Month, req.DueDate)
	if err != nil {
		_ = log.Err("Failed to run monthly generation", err, "year", req.Year, "month", req.Month)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"result": result})
}

func (h *BillingHandler) preview(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("preview")

	year := c.QueryInt("year")
	month := c.QueryInt("month")

	previews, err := h.billingController.Preview(c.Context(), year, month)
	if err != nil {
		_ = log.Err("Failed to preview billing run", err, "year", year, "month", month)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"contracts": previews})
}

func (h *BillingHandler) createOneOff(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("createOneOff")

	var req billingController.OneOffInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	invoice, err := h.billingController.CreateOneOff(c.Context(), middleware.GetActor(c), req)
	if err != nil {
		_ = log.Err("Failed to create one-off invoice", err, "contractId", req.ContractID)
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"invoice": invoice})
}

func (h *BillingHandler) markPaid(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("markPaid")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice id"})
	}

	var req struct {
		Direct    bool   `json:"direct"`
		Reference string `json:"reference"`
	}
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	invoice, err := h.billingController.MarkPaid(c.Context(), middleware.GetActor(c), id, req.Direct, req.Reference)
	if err != nil {
		_ = log.Err("Failed to mark invoice paid", err, "invoiceId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"invoice": invoice})
}
