package checkoutController

import (
	"context"

	"roomledger/internal/database"
	"roomledger/internal/logger"
	. "roomledger/internal/models"
	"roomledger/internal/repositories"
	"roomledger/internal/services"

	"github.com/google/uuid"
)

type CheckoutController struct {
	checkoutRepo repositories.CheckoutRepository
	damageRepo   repositories.DamageRepository
	checkout     *services.CheckoutService
	audit        *services.AuditService
	db           database.DB
	log          logger.Logger
}

type CheckoutControllerInterface interface {
	GetRequest(ctx context.Context, requestID uuid.UUID) (*CheckoutRequest, error)
	GetReport(ctx context.Context, reportID uuid.UUID) (*DamageReport, error)
	SubmitRequest(ctx context.Context, actor services.ActorMeta, contractID uuid.UUID, reason string) (*CheckoutRequest, error)
	ApproveRequest(ctx context.Context, actor services.ActorMeta, requestID uuid.UUID) (*CheckoutRequest, *DamageReport, error)
	RejectRequest(ctx context.Context, actor services.ActorMeta, requestID uuid.UUID) (*CheckoutRequest, error)
	UpdateDraftReport(ctx context.Context, actor services.ActorMeta, reportID uuid.UUID, update services.DamageReportUpdate) (*DamageReport, error)
	AddReportImage(ctx context.Context, actor services.ActorMeta, reportID uuid.UUID, imageURL, itemRef, description string) (*DamageImage, error)
	SubmitReport(ctx context.Context, actor services.ActorMeta, reportID uuid.UUID) (*DamageReport, error)
	ApproveReport(ctx context.Context, actor services.ActorMeta, reportID uuid.UUID, note string) (*DamageReport, error)
	RejectReport(ctx context.Context, actor services.ActorMeta, reportID uuid.UUID, note string) (*DamageReport, error)
	CreateSettlementInvoice(ctx context.Context, actor services.ActorMeta, reportID uuid.UUID) (*Invoice, error)
	FinalizeCheckout(ctx context.Context, actor services.ActorMeta, requestID uuid.UUID) (*Contract, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	db database.DB,
) CheckoutControllerInterface {
	return &CheckoutController{
		checkoutRepo: repos.Checkout,
		damageRepo:   repos.Damage,
		checkout:     services.Checkout,
		audit:        services.Audit,
		db:           db,
		log:          logger.New("checkoutController"),
	}
}

func (c *CheckoutController) GetRequest(ctx context.Context, requestID uuid.UUID) (*CheckoutRequest, error) {
	return c.checkoutRepo.GetByID(ctx, c.db.SQLWithContext(ctx), requestID)
}

func (c *CheckoutController) GetReport(ctx context.Context, reportID uuid.UUID) (*DamageReport, error) {
	return c.damageRepo.GetByID(ctx, c.db.SQLWithContext(ctx), reportID)
}

func (c *CheckoutController) SubmitRequest(
	ctx context.Context,
	actor services.ActorMeta,
	contractID uuid.UUID,
	reason string,
) (*CheckoutRequest, error) {
	var request *CheckoutRequest
	err := c.audit.Record(ctx,
		actor.Op(ActionCheckoutSubmit, TargetCheckoutRequest, uuid.Nil, "submit checkout request"),
		func(ctx context.Context) (any, error) {
			var err error
			request, err = c.checkout.SubmitRequest(ctx, contractID, reason)
			return request, err
		})
	if err != nil {
		return nil, err
	}

	return request, nil
}

func (c *CheckoutController) ApproveRequest(
	ctx context.Context,
	actor services.ActorMeta,
	requestID uuid.UUID,
) (*CheckoutRequest, *DamageReport, error) {
	var request *CheckoutRequest
	var report *DamageReport
	err := c.audit.Record(ctx,
		actor.Op(ActionCheckoutApprove, TargetCheckoutRequest, requestID, "approve checkout request"),
		func(ctx context.Context) (any, error) {
			var err error
			request, report, err = c.checkout.ApproveRequest(ctx, requestID, actor.Actor)
			return request, err
		})
	if err != nil {
		return nil, nil, err
	}

	return request, report, nil
}

func (c *CheckoutController) RejectRequest(
	ctx context.Context,
	actor services.ActorMeta,
	requestID uuid.UUID,
) (*CheckoutRequest, error) {
	var request *CheckoutRequest
	err := c.audit.Record(ctx,
		actor.Op(ActionCheckoutReject, TargetCheckoutRequest, requestID, "reject checkout request"),
		func(ctx context.Context) (any, error) {
			var err error
			request, err = c.checkout.RejectRequest(ctx, requestID)
			return request, err
		})
	if err != nil {
		return nil, err
	}

	return request, nil
}

func (c *CheckoutController) UpdateDraftReport(
	ctx context.Context,
	actor services.ActorMeta,
	reportID uuid.UUID,
	update services.DamageReportUpdate,
) (*DamageReport, error) {
	var report *DamageReport
	err := c.audit.Record(ctx,
		actor.Op(ActionDamageUpdate, TargetDamageReport, reportID, "update draft damage report"),
		func(ctx context.Context) (any, error) {
			var err error
			report, err = c.checkout.UpdateDraft(ctx, reportID, update)
			return report, err
		})
	if err != nil {
		return nil, err
	}

	return report, nil
}

func (c *CheckoutController) AddReportImage(
	ctx context.Context,
	actor services.ActorMeta,
	reportID uuid.UUID,
	imageURL, itemRef, description string,
) (*DamageImage, error) {
	log := c.log.Function("AddReportImage")

	if imageURL == "" {
		return nil, log.ErrMsg("image url is required")
	}

	var image *DamageImage
	err := c.audit.Record(ctx,
		actor.Op(ActionDamageUpdate, TargetDamageReport, reportID, "add damage report image"),
		func(ctx context.Context) (any, error) {
			var err error
			image, err = c.checkout.AddImage(ctx, reportID, imageURL, itemRef, description)
			return nil, err
		})
	if err != nil {
		return nil, err
	}

	return image, nil
}

func (c *CheckoutController) SubmitReport(
	ctx context.Context,
	actor services.ActorMeta,
	reportID uuid.UUID,
) (*DamageReport, error) {
	var report *DamageReport
	err := c.audit.Record(ctx,
		actor.Op(ActionDamageSubmit, TargetDamageReport, reportID, "submit damage report"),
		func(ctx context.Context) (any, error) {
			var err error
			report, err = c.checkout.SubmitReport(ctx, reportID)
			return report, err
		})
	if err != nil {
		return nil, err
	}

	return report, nil
}

func (c *CheckoutController) ApproveReport(
	ctx context.Context,
	actor services.ActorMeta,
	reportID uuid.UUID,
	note string,
) (*DamageReport, error) {
	var report *DamageReport
	err := c.audit.Record(ctx,
		actor.Op(ActionDamageApprove, TargetDamageReport, reportID, "approve damage report"),
		func(ctx context.Context) (any, error) {
			var err error
			report, err = c.checkout.ApproveReport(ctx, reportID, actor.Actor, note)
			return report, err
		})
	if err != nil {
		return nil, err
	}

	return report, nil
}

func (c *CheckoutController) RejectReport(
	ctx context.Context,
	actor services.ActorMeta,
	reportID uuid.UUID,
	note string,
) (*DamageReport, error) {
	var report *DamageReport
	err := c.audit.Record(ctx,
		actor.Op(ActionDamageReject, TargetDamageReport, reportID, "reject damage report"),
		func(ctx context.Context) (any, error) {
			var err error
			report, err = c.checkout.RejectReport(ctx, reportID, actor.Actor, note)
			return report, err
		})
	if err != nil {
		return nil, err
	}

	return report, nil
}

func (c *CheckoutController) CreateSettlementInvoice(
	ctx context.Context,
	actor services.ActorMeta,
	reportID uuid.UUID,
) (*Invoice, error) {
	var invoice *Invoice
	err := c.audit.Record(ctx,
		actor.Op(ActionDamageSettle, TargetDamageReport, reportID, "create damage settlement invoice"),
		func(ctx context.Context) (any, error) {
			var err error
			invoice, err = c.checkout.CreateSettlementInvoice(ctx, reportID)
			return nil, err
		})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

func (c *CheckoutController) FinalizeCheckout(
	ctx context.Context,
	actor services.ActorMeta,
	requestID uuid.UUID,
) (*Contract, error) {
	var contract *Contract
	err := c.audit.Record(ctx,
		actor.Op(ActionContractEnd, TargetCheckoutRequest, requestID, "finalize checkout"),
		func(ctx context.Context) (any, error) {
			var err error
			contract, err = c.checkout.FinalizeCheckout(ctx, requestID)
			return nil, err
		})
	if err != nil {
		return nil, err
	}

	return contract, nil
}
