package ports

import (
	"context"
	"io"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/export"
)

// SessionRepository persists sessions. Save is a compare-and-swap on the
// snapshot version and reports domain.ErrConflict when expectedVersion is stale.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, id string, snapshot domain.GroupedAssets, expectedVersion int64) error
}

// ObjectStorage stores export artifacts.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue carries analysis requests in and snapshot updates out.
type MessageQueue interface {
	PublishAnalysisRequested(ctx context.Context, req domain.AnalysisRequest) error
	SubscribeAnalysisRequested(ctx context.Context, handler func(context.Context, domain.AnalysisRequest) error) error
	PublishSnapshotUpdated(ctx context.Context, event domain.SnapshotEvent) error
}

// ExportEncoder renders the flattened export view in one file format.
type ExportEncoder interface {
	Format() string
	ContentType() string
	Extension() string
	Encode(w io.Writer, rows []export.Row, duplicates []string) error
}

// AssetSource yields analyzed assets from an external description such as a manifest.
type AssetSource interface {
	Load(ctx context.Context, r io.Reader) ([]domain.ProcessedAsset, error)
}
