package handlers

import (
	"time"

	"roomledger/internal/app"
	contractController "roomledger/internal/controllers/contracts"
	"roomledger/internal/handlers/middleware"
	"roomledger/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ContractHandler struct {
	Handler
	contractController contractController.ContractControllerInterface
}

func NewContractHandler(app app.App, router fiber.Router) *ContractHandler {
	log := logger.New("handlers").File("contract_handler")
	return &ContractHandler{
		contractController: app.Controllers.Contract,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ContractHandler) Register() {
	contracts := h.router.Group("/contracts")
	requireActor := h.middleware.RequireActor()

	contracts.Get("/:id", h.getContract)
	contracts.Post("", requireActor, h.createContract)
	contracts.Put("/:id", requireActor, h.updateContract)
	contracts.Delete("/:id", requireActor, h.deleteContract)
	contracts.Post("/:id/signed-document", requireActor, h.uploadSignedDocument)
	contracts.Post("/:id/deposit", requireActor, h.confirmDeposit)
	contracts.Post("/:id/deposit/initiate-payment", requireActor, h.initiateDepositPayment)
	contracts.Post("/:id/cancel", requireActor, h.cancelContract)
	contracts.Post("/:id/end", requireActor, h.endContract)
	contracts.Post("/:id/services", requireActor, h.attachService)

	contractServices := h.router.Group("/contract-services")
	contractServices.Post("/:id/readings", requireActor, h.recordReading)
	contractServices.Post("/:id/cancel", requireActor, h.cancelService)

	// The gateway calls this one; it authenticates payments, not staff.
	h.router.Post("/payments/deposit-ipn", h.handleDepositIPN)
}

type createContractRequest struct {
	TenantID      uuid.UUID       `json:"tenantId"`
	RoomID        uuid.UUID       `json:"roomId"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	DepositAmount decimal.Decimal `json:"depositAmount"`
	DocumentURL   *string         `json:"documentUrl,omitempty"`
}

func (h *ContractHandler) getContract(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("getContract")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	contract, err := h.contractController.GetContract(c.Context(), id)
	if err != nil {
		_ = log.Err("Failed to retrieve contract", err, "contractId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"contract": contract})
}

func (h *ContractHandler) createContract(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("createContract")

	var req createContractRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	contract, err := h.contractController.CreateContract(c.Context(), middleware.GetActor(c), services.NewContract{
		TenantID:      req.TenantID,
		RoomID:        req.RoomID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		DepositAmount: req.DepositAmount,
		DocumentURL:   req.DocumentURL,
	})
	if err != nil {
		_ = log.Err("Failed to create contract", err)
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"contract": contract})
}

func (h *ContractHandler) updateContract(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("updateContract")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	var update services.ContractUpdate
	if err := c.BodyParser(&update); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	contract, err := h.contractController.UpdateContract(c.Context(), middleware.GetActor(c), id, update)
	if err != nil {
		_ = log.Err("Failed to update contract", err, "contractId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"contract": contract})
}

func (h *ContractHandler) deleteContract(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("deleteContract")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	if err := h.contractController.DeleteContract(c.Context(), middleware.GetActor(c), id); err != nil {
		_ = log.Err("Failed to delete contract", err, "contractId", id)
		return errorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ContractHandler) uploadSignedDocument(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("uploadSignedDocument")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	var req struct {
		SignedDocumentURL string `json:"signedDocumentUrl"`
	}
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	contract, err := h.contractController.UploadSignedContract(c.Context(), middleware.GetActor(c), id, req.SignedDocumentURL)
	if err != nil {
		_ = log.Err("Failed to upload signed contract", err, "contractId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"contract": contract})
}

func (h *ContractHandler) confirmDeposit(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("confirmDeposit")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	var payment services.DepositPayment
	if err := c.BodyParser(&payment); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	contract, err := h.contractController.ConfirmDeposit(c.Context(), middleware.GetActor(c), id, payment)
	if err != nil {
		_ = log.Err("Failed to confirm deposit", err, "contractId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"contract": contract})
}

func (h *ContractHandler) initiateDepositPayment(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("initiateDepositPayment")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	result, err := h.contractController.InitiateDepositPayment(c.Context(), id)
	if err != nil {
		_ = log.Err("Failed to initiate deposit payment", err, "contractId", id)
		return errorResponse(c, err)
	}

	return c.JSON(result)
}

func (h *ContractHandler) handleDepositIPN(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("handleDepositIPN")

	var notification contractController.DepositIPN
	if err := c.BodyParser(&notification); err != nil {
		log.Warn("Invalid IPN body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.contractController.HandleDepositIPN(c.Context(), notification); err != nil {
		_ = log.Err("Failed to process deposit IPN", err, "orderId", notification.OrderID)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *ContractHandler) cancelContract(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("cancelContract")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	contract, err := h.contractController.CancelContract(c.Context(), middleware.GetActor(c), id)
	if err != nil {
		_ = log.Err("Failed to cancel contract", err, "contractId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"contract": contract})
}

func (h *ContractHandler) endContract(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("endContract")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	contract, err := h.contractController.EndContract(c.Context(), middleware.GetActor(c), id)
	if err != nil {
		_ = log.Err("Failed to end contract", err, "contractId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"contract": contract})
}

func (h *ContractHandler) attachService(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("attachService")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	var req contractController.AttachServiceRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.ContractID = id

	service, err := h.contractController.AttachService(c.Context(), middleware.GetActor(c), req)
	if err != nil {
		_ = log.Err("Failed to attach service", err, "contractId", id)
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"service": service})
}

func (h *ContractHandler) recordReading(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("recordReading")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid service id"})
	}

	var req struct {
		Reading int `json:"reading"`
	}
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	service, err := h.contractController.RecordReading(c.Context(), middleware.GetActor(c), id, req.Reading)
	if err != nil {
		_ = log.Err("Failed to record reading", err, "serviceId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"service": service})
}

func (h *ContractHandler) cancelService(c *fiber.Ctx) error {
	log := h.log.TraceFromContext(c.UserContext()).Function("cancelService")

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid service id"})
	}

	service, err := h.contractController.CancelService(c.Context(), middleware.GetActor(c), id)
	if err != nil {
		_ = log.Err("Failed to cancel service", err, "serviceId", id)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"service": service})
}
