package services

import (
	"context"
	"encoding/json"

	"roomledger/internal/database"
	"roomledger/internal/logger"
	. "roomledger/internal/models"
	"roomledger/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type snapshotFetch func(ctx context.Context, tx *gorm.DB, id uuid.UUID) (Summarizable, error)

// SnapshotResolver fetches the current persisted state of a known entity
// kind and renders it as a bounded JSON summary for the audit trail. The
// lookup table is fixed at construction; unknown target types resolve to
// nothing, which is not an error.
type SnapshotResolver struct {
	db       database.DB
	fetchers map[TargetType]snapshotFetch
	log      logger.Logger
}

func NewSnapshotResolver(db database.DB, repos repositories.Repository) *SnapshotResolver {
	fetchers := map[TargetType]snapshotFetch{
		TargetContract: func(ctx context.Context, tx *gorm.DB, id uuid.UUID) (Summarizable, error) {
			return repos.Contract.GetByID(ctx, tx, id)
		},
		TargetRoom: func(ctx context.Context, tx *gorm.DB, id uuid.UUID) (Summarizable, error) {
			return repos.Room.GetByID(ctx, tx, id)
		},
		TargetInvoice: func(ctx context.Context, tx *gorm.DB, id uuid.UUID) (Summarizable, error) {
			return repos.Invoice.GetByID(ctx, tx, id)
		},
		TargetContractService: func(ctx context.Context, tx *gorm.DB, id uuid.UUID) (Summarizable, error) {
			return repos.ContractService.GetByID(ctx, tx, id)
		},
		TargetCheckoutRequest: func(ctx context.Context, tx *gorm.DB, id uuid.UUID) (Summarizable, error) {
			return repos.Checkout.GetByID(ctx, tx, id)
		},
		TargetDamageReport: func(ctx context.Context, tx *gorm.DB, id uuid.UUID) (Summarizable, error) {
			return repos.Damage.GetByID(ctx, tx, id)
		},
	}

	return &SnapshotResolver{
		db:       db,
		fetchers: fetchers,
		log:      logger.New("snapshotResolver"),
	}
}

// Resolve fetches and summarizes the entity, or nil when the target type is
// unknown or the entity does not exist.
func (r *SnapshotResolver) Resolve(ctx context.Context, targetType TargetType, id uuid.UUID) datatypes.JSON {
	log := r.log.Function("Resolve")

	if id == uuid.Nil {
		return nil
	}

	fetch, ok := r.fetchers[targetType]
	if !ok {
		return nil
	}

	entity, err := fetch(ctx, r.db.SQLWithContext(ctx), id)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Warn("snapshot resolution failed", "targetType", targetType, "targetId", id, "error", err)
		}
		return nil
	}

	return Summarize(entity)
}

// Summarize renders any value a component hands back into the bounded JSON
// form used by the audit trail. Only values implementing Summarizable
// produce a snapshot; anything else is deliberately dropped rather than
// walked, keeping entries small and cycle-safe.
func Summarize(value any) datatypes.JSON {
	if value == nil {
		return nil
	}

	summarizable, ok := value.(Summarizable)
	if !ok {
		return nil
	}

	bytes, err := json.Marshal(summarizable.AuditSummary())
	if err != nil {
		return nil
	}

	return bytes
}
