package repositories

import (
	"context"
	"time"

	"roomledger/internal/logger"
	. "roomledger/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultAuditPageSize = 50
	MaxAuditPageSize     = 500
)

// AuditFilter narrows an audit query. Zero values mean "no filter".
type AuditFilter struct {
	TargetType TargetType
	TargetID   uuid.UUID
	Actor      string
	Action     AuditAction
	From       time.Time
	To         time.Time
	BranchID   *uuid.UUID
}

type AuditRepository interface {
	Append(ctx context.Context, tx *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, tx *gorm.DB, filter AuditFilter) ([]*AuditLog, error)
	ListPaged(ctx context.Context, tx *gorm.DB, filter AuditFilter, page, pageSize int) ([]*AuditLog, int64, error)
}

type auditRepository struct{}

func NewAuditRepository() AuditRepository {
	return &auditRepository{}
}

// Append writes one entry. Audit rows are write-once; there is deliberately
// no update or delete on this repository.
func (r *auditRepository) Append(ctx context.Context, tx *gorm.DB, entry *AuditLog) error {
	log := logger.NewWithContext(ctx, "auditRepository").Function("Append")

	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return log.Err("failed to append audit log", err, "action", entry.Action, "target", entry.TargetType)
	}

	return nil
}

func (r *auditRepository) List(ctx context.Context, tx *gorm.DB, filter AuditFilter) ([]*AuditLog, error) {
	log := logger.NewWithContext(ctx, "auditRepository").Function("List")

	var entries []*AuditLog
	if err := applyAuditFilter(tx.WithContext(ctx), filter).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, log.Err("failed to list audit logs", err)
	}

	return entries, nil
}

func (r *auditRepository) ListPaged(
	ctx context.Context,
	tx *gorm.DB,
	filter AuditFilter,
	page, pageSize int,
) ([]*AuditLog, int64, error) {
	log := logger.NewWithContext(ctx, "auditRepository").Function("ListPaged")

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultAuditPageSize
	}
	if pageSize > MaxAuditPageSize {
		pageSize = MaxAuditPageSize
	}

	query := applyAuditFilter(tx.WithContext(ctx).Model(&AuditLog{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, log.Err("failed to count audit logs", err)
	}

	var entries []*AuditLog
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error; err != nil {
		return nil, 0, log.Err("failed to list audit logs page", err, "page", page)
	}

	return entries, total, nil
}

func applyAuditFilter(query *gorm.DB, filter AuditFilter) *gorm.DB {
	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != uuid.Nil {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if filter.Actor != "" {
		query = query.Where("actor = ?", filter.Actor)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at <= ?", filter.To)
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	return query
}
