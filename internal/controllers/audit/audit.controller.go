package auditController

import (
	"context"

	"roomledger/internal/database"
	"roomledger/internal/logger"
	. "roomledger/internal/models"
	"roomledger/internal/repositories"

	"github.com/google/uuid"
)

// AuditPage is one page of the trail plus the pagination envelope.
type AuditPage struct {
	Entries  []*AuditLog `json:"entries"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
	Total    int64       `json:"total"`
}

type AuditController struct {
	auditRepo repositories.AuditRepository
	db        database.DB
	log       logger.Logger
}

type AuditControllerInterface interface {
	ListForTarget(ctx context.Context, targetType TargetType, targetID uuid.UUID) ([]*AuditLog, error)
	Search(ctx context.Context, filter repositories.AuditFilter, page, pageSize int) (AuditPage, error)
}

func New(repos repositories.Repository, db database.DB) AuditControllerInterface {
	return &AuditController{
		auditRepo: repos.Audit,
		db:        db,
		log:       logger.New("auditController"),
	}
}

// ListForTarget returns the full reverse-chronological history of one record.
func (c *AuditController) ListForTarget(
	ctx context.Context,
	targetType TargetType,
	targetID uuid.UUID,
) ([]*AuditLog, error) {
	log := c.log.Function("ListForTarget")

	if targetType == "" || targetID == uuid.Nil {
		return nil, log.ErrMsg("target type and id are required")
	}

	return c.auditRepo.List(ctx, c.db.SQLWithContext(ctx), repositories.AuditFilter{
		TargetType: targetType,
		TargetID:   targetID,
	})
}

// Search pages through the trail under an arbitrary filter combination.
func (c *AuditController) Search(
	ctx context.Context,
	filter repositories.AuditFilter,
	page, pageSize int,
) (AuditPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = repositories.DefaultAuditPageSize
	}
	if pageSize > repositories.MaxAuditPageSize {
		pageSize = repositories.MaxAuditPageSize
	}

	entries, total, err := c.auditRepo.ListPaged(ctx, c.db.SQLWithContext(ctx), filter, page, pageSize)
	if err != nil {
		return AuditPage{}, err
	}

	return AuditPage{
		Entries:  entries,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}
