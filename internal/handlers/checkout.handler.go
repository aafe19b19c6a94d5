package handlers

import (
	"roomledger/internal/app"
	checkoutController "roomledger/internal/controllers/checkout"
	"roomledger/internal/handlers/middleware"
	"roomledger/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CheckoutHandler struct {
	Handler
	checkoutController checkoutController.CheckoutControllerInterface
}

func NewCheckoutHandler(app app.App, router fiber.Router) *CheckoutHandler {
	log := logger.New("handlers").File("checkout_handler")
	return &CheckoutHandler{
		checkoutController: app.Controllers.Checkout,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *CheckoutHandler) Register() {
	requireActor := h.middleware.RequireActor()

	checkouts := h.router.Group("/checkout-requests")
	checkouts.Get("/:id", h.getRequest)
	checkouts.Post("", requireActor, h.submitRequest)
	checkouts.Post("/:id/approve", requireActor, h.approveRequest)
	checkouts.Post("/:id/reject", requireActor, h.rejectRequest)
	checkouts.Post("/:id/finalize", requireActor, h.finalizeCheckout)

	reports := h.router.Group("/damage-reports")
	reports.Get("/:id", h.getReport)
	reports.Put("/:id", requireActor, h.updateDraftReport)
	reports.Post("/:id/images", requireActor, h.addReportImage)
	reports.Post("/:id/submit", requireActor, h.submitReport)
	reports.Post("/:id/approve", requireActor, h.approveReport)
	reports.Post("/:id/reject", requireActor, h.rejectReport)
	reports.Post("/:id/settle", requireActor, h.createSettlementInvoice)
}

func (h *CheckoutHandler) getRequest(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getRequest")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	request, err := h.checkoutController.GetRequest(c.Context(), id)
	if err != nil {
		_ = log.Err("Failed to retrieve checkout request", err, "requestId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"request": request})
}

func (h *CheckoutHandler) getReport(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getReport")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report id"})
	}

	report, err := h.checkoutController.GetReport(c.Context(), id)
	if err != nil {
		_ = log.Err("Failed to retrieve damage report", err, "reportId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"report": report})
}

func (h *CheckoutHandler) submitRequest(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("submitRequest")

	var req struct {
		ContractID uuid.UUID `json:"contractId"`
		Reason     string    `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	request, err := h.checkoutController.SubmitRequest(c.Context(), middleware.GetActor(c), req.ContractID, req.Reason)
	if err != nil {
		_ = log.Err("Failed to submit checkout request", err, "contractId", req.ContractID)
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"request": request})
}

func (h *CheckoutHandler) approveRequest(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("approveRequest")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	request, report, err := h.checkoutController.ApproveRequest(c.Context(), middleware.GetActor(c), id)
	if err != nil {
		_ = log.Err("Failed to approve checkout request", err, "requestId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"request": request, "report": report})
}

func (h *CheckoutHandler) rejectRequest(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("rejectRequest")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	request, err := h.checkoutController.RejectRequest(c.Context(), middleware.GetActor(c), id)
	if err != nil {
		_ = log.Err("Failed to reject checkout request", err, "requestId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"request": request})
}

func (h *CheckoutHandler) finalizeCheckout(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("finalizeCheckout")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	contract, err := h.checkoutController.FinalizeCheckout(c.Context(), middleware.GetActor(c), id)
	if err != nil {
		_ = log.Err("Failed to finalize checkout", err, "requestId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"contract": contract})
}

func (h *CheckoutHandler) updateDraftReport(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("updateDraftReport")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report id"})
	}

	var update services.DamageReportUpdate
	if err := c.BodyParser(&update); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	report, err := h.checkoutController.UpdateDraftReport(c.Context(), middleware.GetActor(c), id, update)
	if err != nil {
		_ = log.Err("Failed to update damage report", err, "reportId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"report": report})
}

func (h *CheckoutHandler) addReportImage(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("addReportImage")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report id"})
	}

	var req struct {
		ImageURL    string `json:"imageUrl"`
		ItemRef     string `json:"itemRef"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	image, err := h.checkoutController.AddReportImage(
		c.Context(), middleware.GetActor(c), id, req.ImageURL, req.ItemRef, req.Description)
	if err != nil {
		_ = log.Err("Failed to add report image", err, "reportId", id)
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"image": image})
}

func (h *CheckoutHandler) submitReport(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("submitReport")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report id"})
	}

	report, err := h.checkoutController.SubmitReport(c.Context(), middleware.GetActor(c), id)
	if err != nil {
		_ = log.Err("Failed to submit damage report", err, "reportId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"report": report})
}

func (h *CheckoutHandler) approveReport(c *fiber.Ctx) error {
	return h.decideReport(c, true)
}

func (h *CheckoutHandler) rejectReport(c *fiber.Ctx) error {
	return h.decideReport(c, false)
}

func (h *CheckoutHandler) decideReport(c *fiber.Ctx, approve bool) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("decideReport")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report id"})
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	actor := middleware.GetActor(c)

	var report any
	if approve {
		report, err = h.checkoutController.ApproveReport(c.Context(), actor, id, req.Note)
	} else {
		report, err = h.checkoutController.RejectReport(c.Context(), actor, id, req.Note)
	}
	if err != nil {
		_ = log.Err("Failed to decide damage report", err, "reportId", id, "approve", approve)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"report": report})
}

func (h *CheckoutHandler) createSettlementInvoice(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("createSettlementInvoice")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report id"})
	}

	invoice, err := h.checkoutController.CreateSettlementInvoice(c.Context(), middleware.GetActor(c), id)
	if err != nil {
		_ = log.Err("Failed to create settlement invoice", err, "reportId", id)
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"invoice": invoice})
}
