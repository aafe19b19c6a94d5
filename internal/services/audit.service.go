package services

import (
	"context"

	"roomledger/internal/database"
	"roomledger/internal/logger"
	. "roomledger/internal/models"
	"roomledger/internal/repositories"

	"github.com/google/uuid"
)

// AuditOp declares one state-changing operation for the audit trail. The
// caller names the action, the target, and who is acting; the recorder does
// the rest.
type AuditOp struct {
	Action      AuditAction
	TargetType  TargetType
	TargetID    uuid.UUID
	Actor       string
	ActorRole   string
	Description string
	IPAddress   string
	UserAgent   string
	BranchID    *uuid.UUID
}

// ActorMeta identifies who is performing an operation and from where,
// extracted from the request by the transport layer.
type ActorMeta struct {
	Actor     string
	Role      string
	IPAddress string
	UserAgent string
}

// Op builds the audit declaration for one operation by this actor.
func (m ActorMeta) Op(action AuditAction, targetType TargetType, targetID uuid.UUID, description string) AuditOp {
	return AuditOp{
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Actor:       m.Actor,
		ActorRole:   m.Role,
		Description: description,
		IPAddress:   m.IPAddress,
		UserAgent:   m.UserAgent,
	}
}

// AuditService wraps state-changing operations with before/after snapshot
// capture and appends one write-once log entry per operation, success or
// failure. It is explicit function composition: components call Record
// directly, there is no hidden dispatch.
type AuditService struct {
	db        database.DB
	auditRepo repositories.AuditRepository
	resolver  *SnapshotResolver
	log       logger.Logger
}

func NewAuditService(db database.DB, repos repositories.Repository, resolver *SnapshotResolver) *AuditService {
	return &AuditService{
		db:        db,
		auditRepo: repos.Audit,
		resolver:  resolver,
		log:       logger.New("auditService"),
	}
}

// Record captures a before-snapshot, invokes fn, captures an after-snapshot
// (falling back to fn's own result when the target cannot be re-resolved),
// and appends one entry regardless of outcome. fn's error is always returned
// unchanged; recorder-internal failures are logged and swallowed so auditing
// never alters business outcomes.
func (s *AuditService) Record(
	ctx context.Context,
	op AuditOp,
	fn func(ctx context.Context) (any, error),
) error {
	oldValue := s.resolver.Resolve(ctx, op.TargetType, op.TargetID)

	result, opErr := fn(ctx)

	// Create-style operations only learn their target's id from the result.
	if op.TargetID == uuid.Nil && opErr == nil {
		if target, ok := result.(interface{ AuditTargetID() uuid.UUID }); ok {
			op.TargetID = target.AuditTargetID()
		}
	}

	// The audit write happens after the operation has committed or failed,
	// never inside its transaction. A failed operation gets no after-snapshot
	// from its result: fn may have returned a typed-nil entity alongside the
	// error.
	newValue := s.resolver.Resolve(ctx, op.TargetType, op.TargetID)
	if newValue == nil && opErr == nil {
		newValue = Summarize(result)
	}

	entry := &AuditLog{
		Actor:       op.Actor,
		ActorRole:   op.ActorRole,
		Action:      op.Action,
		TargetType:  op.TargetType,
		TargetID:    op.TargetID,
		Description: op.Description,
		OldValue:    oldValue,
		NewValue:    newValue,
		IPAddress:   op.IPAddress,
		UserAgent:   op.UserAgent,
		BranchID:    op.BranchID,
		Status:      AuditSuccess,
	}

	if opErr != nil {
		entry.Action = op.Action.Failed()
		entry.Status = AuditFailure
		message := opErr.Error()
		entry.ErrorMessage = &message
	}

	s.append(ctx, entry)

	return opErr
}

func (s *AuditService) append(ctx context.Context, entry *AuditLog) {
	log := s.log.Function("append")

	if entry.Actor == "" {
		entry.Actor = "system"
	}

	if err := s.auditRepo.Append(ctx, s.db.SQLWithContext(ctx), entry); err != nil {
		// Audit persistence failure must never surface to the caller.
		log.Er("failed to append audit entry", err, "action", entry.Action, "targetId", entry.TargetID)
	}
}
