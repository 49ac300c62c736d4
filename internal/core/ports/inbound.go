package ports

import (
	"context"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/export"
	"github.com/kirillkom/ad-autonamer/internal/core/store"
)

// SessionAnalyzer is the inbound contract for grouping runs.
type SessionAnalyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.Session, error)
}

// SessionReader is the inbound read model for a session.
type SessionReader interface {
	Read(ctx context.Context, sessionID string) (store.ReadModel, error)
}

// SessionReviewer is the inbound contract for reviewer mutations.
// ifMatch carries the snapshot version the caller last saw; 0 skips the check.
type SessionReviewer interface {
	UpdateFields(ctx context.Context, sessionID string, ifMatch int64, groupID string, patch domain.FieldPatch) (store.ReadModel, error)
	UpdateAsset(ctx context.Context, sessionID string, ifMatch int64, groupID, assetID string, patch domain.AssetPatch) (store.ReadModel, error)
	Regroup(ctx context.Context, sessionID string, ifMatch int64, assetID, targetGroupID string, destIndex *int) (store.ReadModel, error)
	CreateGroup(ctx context.Context, sessionID string, ifMatch int64, assetID string) (store.ReadModel, error)
	Reorder(ctx context.Context, sessionID string, ifMatch int64, groupID, assetID string, newIndex int) (store.ReadModel, error)
	Renumber(ctx context.Context, sessionID string, ifMatch int64, start int) (store.ReadModel, error)
	BulkReplace(ctx context.Context, sessionID string, ifMatch int64, field, find, replace string) (store.ReadModel, error)
	BulkApply(ctx context.Context, sessionID string, ifMatch int64, groupIDs []string, field, value string) (store.ReadModel, error)
}

// SessionExporter is the inbound contract for the flattened export view.
type SessionExporter interface {
	Rows(ctx context.Context, sessionID string) ([]export.Row, error)
	Export(ctx context.Context, sessionID, format string) (domain.Artifact, error)
	Publish(ctx context.Context, sessionID, format string) (string, error)
}
