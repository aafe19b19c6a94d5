package contractController

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roomledger/config"
	"roomledger/internal/database"
	"roomledger/internal/logger"
	. "roomledger/internal/models"
	"roomledger/internal/repositories"
	"roomledger/internal/services"

	"github.com/google/uuid"
)

// depositOrderPrefix namespaces gateway order ids so the IPN handler can
// route them back to the owning contract.
const depositOrderPrefix = "DEP-"

type ContractController struct {
	contractRepo repositories.ContractRepository
	lifecycle    *services.ContractLifecycleService
	audit        *services.AuditService
	payment      *services.PaymentService
	db           database.DB
	config       config.Config
	log          logger.Logger
}

type ContractControllerInterface interface {
	GetContract(ctx context.Context, contractID uuid.UUID) (*Contract, error)
	CreateContract(ctx context.Context, actor services.ActorMeta, input services.NewContract) (*Contract, error)
	UpdateContract(ctx context.Context, actor services.ActorMeta, contractID uuid.UUID, update services.ContractUpdate) (*Contract, error)
	DeleteContract(ctx context.Context, actor services.ActorMeta, contractID uuid.UUID) error
	UploadSignedContract(ctx context.Context, actor services.ActorMeta, contractID uuid.UUID, signedURL string) (*Contract, error)
	ConfirmDeposit(ctx context.Context, actor services.ActorMeta, contractID uuid.UUID, payment services.DepositPayment) (*Contract, error)
	CancelContract(ctx context.Context, actor services.ActorMeta, contractID uuid.UUID) (*Contract, error)
	EndContract(ctx context.Context, actor services.ActorMeta, contractID uuid.UUID) (*Contract, error)
	AttachService(ctx context.Context, actor services.ActorMeta, input AttachServiceRequest) (*ContractService, error)
	RecordReading(ctx context.Context, actor services.ActorMeta, serviceID uuid.UUID, reading int) (*ContractService, error)
	CancelService(ctx context.Context, actor services.ActorMeta, serviceID uuid.UUID) (*ContractService, error)
	InitiateDepositPayment(ctx context.Context, contractID uuid.UUID) (services.InitiatePaymentResult, error)
	HandleDepositIPN(ctx context.Context, notification DepositIPN) error
}

type AttachServiceRequest struct {
	ContractID     uuid.UUID  `json:"contractId"`
	CatalogItemID  uuid.UUID  `json:"catalogItemId"`
	Quantity       int        `json:"quantity"`
	InitialReading *int       `json:"initialReading,omitempty"`
	StartDate      *time.Time `json:"startDate,omitempty"`
}

// DepositIPN is the gateway's payment notification for a deposit order.
type DepositIPN struct {
	OrderID    string `json:"orderId"`
	ResultCode int    `json:"resultCode"`
	TransID    string `json:"transId"`
	Message    string `json:"message"`
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) ContractControllerInterface {
	return &ContractController{
		contractRepo: repos.Contract,
		lifecycle:    services.Contract,
		audit:        services.Audit,
		payment:      services.Payment,
		db:           db,
		config:       config,
		log:          logger.New("contractController"),
	}
}

func (c *ContractController) GetContract(ctx context.Context, contractID uuid.UUID) (*Contract, error) {
	return c.contractRepo.GetByID(ctx, c.db.SQLWithContext(ctx), contractID)
}

func (c *ContractController) CreateContract(
	ctx context.Context,
	actor services.ActorMeta,
	input services.NewContract,
) (*Contract, error) {
	log := c.log.Function("CreateContract")

	if input.TenantID == uuid.Nil || input.RoomID == uuid.Nil {
		return nil, log.ErrMsg("tenantId and roomId are required")
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, log.ErrMsg("end date must be after start date")
	}
	if input.DepositAmount.IsNegative() {
		return nil, log.ErrMsg("deposit amount cannot be negative")
	}

	var contract *Contract
	err := c.audit.Record(ctx,
		actor.Op(ActionContractCreate, TargetContract, uuid.Nil, "create contract"),
		func(ctx context.Context) (any, error) {
			var err error
			contract, err = c.lifecycle.Create(ctx, input)
			return contract, err
		})
	if err != nil {
		return nil, err
	}

	return contract, nil
}

func (c *ContractController) UpdateContract(
	ctx context.Context,
	actor services.ActorMeta,
	contractID uuid.UUID,
	update services.ContractUpdate,
) (*Contract, error) {
	var contract *Contract
	err := c.audit.Record(ctx,
		actor.Op(ActionContractUpdate, TargetContract, contractID, "update pending contract"),
		func(ctx context.Context) (any, error) {
			var err error
			contract, err = c.lifecycle.UpdatePending(ctx, contractID, update)
			return contract, err
		})
	if err != nil {
		return nil, err
	}

	return contract, nil
}

func (c *ContractController) DeleteContract(ctx context.Context, actor services.ActorMeta, contractID uuid.UUID) error {
	return c.audit.Record(ctx,
		actor.Op(ActionContractDelete, TargetContract, contractID, "delete pending contract"),
		func(ctx context.Context) (any, error) {
			return nil, c.lifecycle.DeletePending(ctx, contractID)
		})
}

func (c *ContractController) UploadSignedContract(
	ctx context.Context,
	actor services.ActorMeta,
	contractID uuid.UUID,
	signedURL string,
) (*Contract, error) {
	log := c.log.Function("UploadSignedContract")

	if signedURL == "" {
		return nil, log.ErrMsg("signed document url is required")
	}

	var contract *Contract
	err := c.audit.Record(ctx,
		actor.Op(ActionContractSign, TargetContract, contractID, "upload signed contract"),
		func(ctx context.Context) (any, error) {
			var err error
			contract, err = c.lifecycle.UploadSigned(ctx, contractID, signedURL)
			return contract, err
		})
	if err != nil {
		return nil, err
	}

	return contract, nil
}

func (c *ContractController) ConfirmDeposit(
	ctx context.Context,
	actor services.ActorMeta,
	contractID uuid.UUID,
	payment services.DepositPayment,
) (*Contract, error) {
	var contract *Contract
	err := c.audit.Record(ctx,
		actor.Op(ActionContractConfirmDeposit, TargetContract, contractID, "confirm deposit"),
		func(ctx context.Context) (any, error) {
			var err error
			contract, err = c.lifecycle.ConfirmDeposit(ctx, contractID, payment)
			return contract, err
		})
	if err != nil {
		return nil, err
	}

	return contract, nil
}

func (c *ContractController) CancelContract(ctx context.Context, actor services.ActorMeta, contractID uuid.UUID) (*Contract, error) {
	var contract *Contract
	err := c.audit.Record(ctx,
		actor.Op(ActionContractCancel, TargetContract, contractID, "cancel contract"),
		func(ctx context.Context) (any, error) {
			var err error
			contract, err = c.lifecycle.Cancel(ctx, contractID)
			return contract, err
		})
	if err != nil {
		return nil, err
	}

	return contract, nil
}

func (c *ContractController) EndContract(ctx context.Context, actor services.ActorMeta, contractID uuid.UUID) (*Contract, error) {
	var contract *Contract
	err := c.audit.Record(ctx,
		actor.Op(ActionContractEnd, TargetContract, contractID, "end contract"),
		func(ctx context.Context) (any, error) {
			var err error
			contract, err = c.lifecycle.End(ctx, contractID)
			return contract, err
		})
	if err != nil {
		return nil, err
	}

	return contract, nil
}

func (c *ContractController) AttachService(
	ctx context.Context,
	actor services.ActorMeta,
	input AttachServiceRequest,
) (*ContractService, error) {
	log := c.log.Function("AttachService")

	if input.ContractID == uuid.Nil || input.CatalogItemID == uuid.Nil {
		return nil, log.ErrMsg("contractId and catalogItemId are required")
	}
	if input.Quantity < 1 {
		input.Quantity = 1
	}
	startDate := time.Now().UTC()
	if input.StartDate != nil {
		startDate = *input.StartDate
	}

	var service *ContractService
	err := c.audit.Record(ctx,
		actor.Op(ActionServiceAttach, TargetContractService, uuid.Nil, "attach service to contract"),
		func(ctx context.Context) (any, error) {
			var err error
			service, err = c.lifecycle.AttachService(
				ctx, input.ContractID, input.CatalogItemID,
				input.Quantity, input.InitialReading, startDate,
			)
			return service, err
		})
	if err != nil {
		return nil, err
	}

	return service, nil
}

func (c *ContractController) RecordReading(
	ctx context.Context,
	actor services.ActorMeta,
	serviceID uuid.UUID,
	reading int,
) (*ContractService, error) {
	log := c.log.Function("RecordReading")

	if reading < 0 {
		return nil, log.ErrMsg("meter reading cannot be negative")
	}

	var service *ContractService
	err := c.audit.Record(ctx,
		actor.Op(ActionServiceReading, TargetContractService, serviceID, "record meter reading"),
		func(ctx context.Context) (any, error) {
			var err error
			service, err = c.lifecycle.RecordReading(ctx, serviceID, reading)
			return service, err
		})
	if err != nil {
		return nil, err
	}

	return service, nil
}

func (c *ContractController) CancelService(
	ctx context.Context,
	actor services.ActorMeta,
	serviceID uuid.UUID,
) (*ContractService, error) {
	var service *ContractService
	err := c.audit.Record(ctx,
		actor.Op(ActionServiceCancel, TargetContractService, serviceID, "cancel contract service"),
		func(ctx context.Context) (any, error) {
			var err error
			service, err = c.lifecycle.CancelService(ctx, serviceID)
			return service, err
		})
	if err != nil {
		return nil, err
	}

	return service, nil
}

// InitiateDepositPayment asks the gateway for a pay URL covering the
// contract's deposit. No state changes until the IPN arrives.
func (c *ContractController) InitiateDepositPayment(ctx context.Context, contractID uuid.UUID) (services.InitiatePaymentResult, error) {
	log := c.log.Function("InitiateDepositPayment")

	contract, err := c.contractRepo.GetByID(ctx, c.db.SQLWithContext(ctx), contractID)
	if err != nil {
		return services.InitiatePaymentResult{}, err
	}

	if contract.Status != ContractSignedPendingDeposit {
		return services.InitiatePaymentResult{}, log.ErrorWithType(services.ErrInvalidTransition,
			"contract is not awaiting deposit",
			"contractId", contractID, "status", contract.Status)
	}

	result := c.payment.InitiatePayment(ctx, services.InitiatePaymentRequest{
		Amount:    contract.DepositAmount,
		OrderID:   depositOrderPrefix + contract.ID.String(),
		OrderInfo: fmt.Sprintf("Deposit for room %s", contract.RoomNumber),
	})

	return result, nil
}

// HandleDepositIPN processes the gateway's asynchronous payment result. A
// successful notification confirms the deposit as a bank transfer; anything
// else is logged and dropped.
func (c *ContractController) HandleDepositIPN(ctx context.Context, notification DepositIPN) error {
	log := c.log.Function("HandleDepositIPN")

	id, ok := strings.CutPrefix(notification.OrderID, depositOrderPrefix)
	if !ok {
		return log.ErrMsg("unrecognized order id: " + notification.OrderID)
	}

	contractID, err := uuid.Parse(id)
	if err != nil {
		return log.Err("invalid contract id in order id", err, "orderId", notification.OrderID)
	}

	if notification.ResultCode != services.PaymentResultSuccess {
		log.Warn("deposit payment failed at gateway",
			"contractId", contractID,
			"resultCode", notification.ResultCode,
			"message", notification.Message)
		return nil
	}

	gateway := services.ActorMeta{Actor: "payment-gateway", Role: "system"}
	method := DepositBankTransfer

	_, err = c.ConfirmDeposit(ctx, gateway, contractID, services.DepositPayment{
		Method:    method,
		Reference: notification.TransID,
	})
	return err
}
