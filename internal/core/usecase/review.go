package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/ports"
	"github.com/kirillkom/ad-autonamer/internal/core/store"
)

// ReviewSessionUseCase applies reviewer operations with optimistic concurrency:
// load the snapshot, run the pure mutation, save only if nobody else saved first.
type ReviewSessionUseCase struct {
	repo    ports.SessionRepository
	mutator *store.Mutator
	reader  *store.Reader
	queue   ports.MessageQueue
	now     func() time.Time
}

func NewReviewSessionUseCase(
	repo ports.SessionRepository,
	mutator *store.Mutator,
	reader *store.Reader,
	queue ports.MessageQueue,
) *ReviewSessionUseCase {
	return &ReviewSessionUseCase{
		repo:    repo,
		mutator: mutator,
		reader:  reader,
		queue:   queue,
		now:     time.Now,
	}
}

func (uc *ReviewSessionUseCase) Read(ctx context.Context, sessionID string) (store.ReadModel, error) {
	session, err := uc.repo.GetByID(ctx, sessionID)
	if err != nil {
		return store.ReadModel{}, fmt.Errorf("load session: %w", err)
	}
	return uc.reader.Read(session.Snapshot), nil
}

func (uc *ReviewSessionUseCase) UpdateFields(ctx context.Context, sessionID string, ifMatch int64, groupID string, patch domain.FieldPatch) (store.ReadModel, error) {
	return uc.mutate(ctx, sessionID, ifMatch, "update_fields", func(s domain.GroupedAssets) (domain.GroupedAssets, error) {
		return uc.mutator.UpdateFields(s, groupID, patch)
	})
}

func (uc *ReviewSessionUseCase) UpdateAsset(ctx context.Context, sessionID string, ifMatch int64, groupID, assetID string, patch domain.AssetPatch) (store.ReadModel, error) {
	return uc.mutate(ctx, sessionID, ifMatch, "update_asset", func(s domain.GroupedAssets) (domain.GroupedAssets, error) {
		return uc.mutator.UpdateAsset(s, groupID, assetID, patch)
	})
}

func (uc *ReviewSessionUseCase) Regroup(ctx context.Context, sessionID string, ifMatch int64, assetID, targetGroupID string, destIndex *int) (store.ReadModel, error) {
	return uc.mutate(ctx, sessionID, ifMatch, "regroup", func(s domain.GroupedAssets) (domain.GroupedAssets, error) {
		return uc.mutator.Regroup(s, assetID, targetGroupID, destIndex)
	})
}

func (uc *ReviewSessionUseCase) CreateGroup(ctx context.Context, sessionID string, ifMatch int64, assetID string) (store.ReadModel, error) {
	return uc.mutate(ctx, sessionID, ifMatch, "create_group", func(s domain.GroupedAssets) (domain.GroupedAssets, error) {
		out, _, err := uc.mutator.CreateGroup(s, assetID)
		return out, err
	})
}

func (uc *ReviewSessionUseCase) Reorder(ctx context.Context, sessionID string, ifMatch int64, groupID, assetID string, newIndex int) (store.ReadModel, error) {
	return uc.mutate(ctx, sessionID, ifMatch, "reorder", func(s domain.GroupedAssets) (domain.GroupedAssets, error) {
		return uc.mutator.Reorder(s, groupID, assetID, newIndex)
	})
}

func (uc *ReviewSessionUseCase) Renumber(ctx context.Context, sessionID string, ifMatch int64, start int) (store.ReadModel, error) {
	return uc.mutate(ctx, sessionID, ifMatch, "renumber", func(s domain.GroupedAssets) (domain.GroupedAssets, error) {
		return uc.mutator.Renumber(s, start)
	})
}

func (uc *ReviewSessionUseCase) BulkReplace(ctx context.Context, sessionID string, ifMatch int64, field, find, replace string) (store.ReadModel, error) {
	return uc.mutate(ctx, sessionID, ifMatch, "bulk_replace", func(s domain.GroupedAssets) (domain.GroupedAssets, error) {
		return uc.mutator.BulkReplace(s, field, find, replace)
	})
}

func (uc *ReviewSessionUseCase) BulkApply(ctx context.Context, sessionID string, ifMatch int64, groupIDs []string, field, value string) (store.ReadModel, error) {
	return uc.mutate(ctx, sessionID, ifMatch, "bulk_apply", func(s domain.GroupedAssets) (domain.GroupedAssets, error) {
		return uc.mutator.BulkApply(s, groupIDs, field, value)
	})
}

func (uc *ReviewSessionUseCase) mutate(
	ctx context.Context,
	sessionID string,
	ifMatch int64,
	operation string,
	apply func(domain.GroupedAssets) (domain.GroupedAssets, error),
) (store.ReadModel, error) {
	session, err := uc.repo.GetByID(ctx, sessionID)
	if err != nil {
		return store.ReadModel{}, fmt.Errorf("load session: %w", err)
	}
	current := session.Snapshot
	if ifMatch > 0 && ifMatch != current.Version {
		return store.ReadModel{}, domain.WrapError(domain.ErrConflict, operation,
			fmt.Errorf("snapshot is at version %d, caller expected %d", current.Version, ifMatch))
	}

	next, err := apply(current)
	if err != nil {
		return store.ReadModel{}, err
	}
	if next.Version == current.Version {
		return uc.reader.Read(next), nil
	}

	if err := uc.repo.Save(ctx, sessionID, next, current.Version); err != nil {
		return store.ReadModel{}, fmt.Errorf("save session: %w", err)
	}
	uc.announce(ctx, sessionID, next.Version, operation)
	return uc.reader.Read(next), nil
}

// announce is best effort: the snapshot is already durable.
func (uc *ReviewSessionUseCase) announce(ctx context.Context, sessionID string, version int64, operation string) {
	if uc.queue == nil {
		return
	}
	event := domain.SnapshotEvent{SessionID: sessionID, Version: version, Operation: operation, At: uc.now().UTC()}
	if err := uc.queue.PublishSnapshotUpdated(ctx, event); err != nil {
		slog.Warn("snapshot_event_publish_failed",
			slog.String("session_id", sessionID),
			slog.String("operation", operation),
			slog.Int64("version", version),
			slog.String("error", err.Error()),
		)
	}
}
