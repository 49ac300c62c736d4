package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/grouper"
	"github.com/kirillkom/ad-autonamer/internal/core/ports"
)

// Grouper runs the grouping pass over one batch of analyzed assets.
type Grouper interface {
	Group(assets []domain.ProcessedAsset, opts grouper.Options) domain.GroupedAssets
}

type AnalyzeSessionUseCase struct {
	repo    ports.SessionRepository
	grouper Grouper
	queue   ports.MessageQueue
	now     func() time.Time
}

// NewAnalyzeSessionUseCase wires a grouping run to persistence. queue may be nil.
func NewAnalyzeSessionUseCase(
	repo ports.SessionRepository,
	grouper Grouper,
	queue ports.MessageQueue,
) *AnalyzeSessionUseCase {
	return &AnalyzeSessionUseCase{
		repo:    repo,
		grouper: grouper,
		queue:   queue,
		now:     time.Now,
	}
}

func (uc *AnalyzeSessionUseCase) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.Session, error) {
	if err := validateAnalysisRequest(req); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		id = uuid.NewString()
	}

	snapshot := uc.grouper.Group(req.Assets, grouper.Options{
		StartNumber:   req.StartNumber,
		Campaign:      req.Campaign,
		Date:          req.Date,
		MonthCampaign: req.MonthCampaign,
	})

	now := uc.now().UTC()
	session := &domain.Session{
		ID:        id,
		Snapshot:  snapshot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	uc.announce(ctx, domain.SnapshotEvent{SessionID: id, Version: snapshot.Version, Operation: "analyze", At: now})
	return session, nil
}

// announce is best effort: once Create succeeds the session exists, and
// failing here would make a retry collide with it.
func (uc *AnalyzeSessionUseCase) announce(ctx context.Context, event domain.SnapshotEvent) {
	if uc.queue == nil {
		return
	}
	if err := uc.queue.PublishSnapshotUpdated(ctx, event); err != nil {
		slog.Warn("snapshot_event_publish_failed",
			slog.String("session_id", event.SessionID),
			slog.String("operation", event.Operation),
			slog.Int64("version", event.Version),
			slog.String("error", err.Error()),
		)
	}
}

func validateAnalysisRequest(req domain.AnalysisRequest) error {
	if req.StartNumber < 0 {
		return domain.WrapError(domain.ErrInvalidInput, "analyze", fmt.Errorf("start number %d is negative", req.StartNumber))
	}
	seen := make(map[string]struct{}, len(req.Assets))
	for i, a := range req.Assets {
		if strings.TrimSpace(a.ID) == "" {
			return domain.WrapError(domain.ErrInvalidInput, "analyze", fmt.Errorf("asset %d has no id", i))
		}
		if _, dup := seen[a.ID]; dup {
			return domain.WrapError(domain.ErrInvalidInput, "analyze", fmt.Errorf("duplicate asset id %q", a.ID))
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}
