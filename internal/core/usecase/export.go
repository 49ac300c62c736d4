package usecase

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/export"
	"github.com/kirillkom/ad-autonamer/internal/core/namer"
	"github.com/kirillkom/ad-autonamer/internal/core/ports"
)

type ExportSessionUseCase struct {
	repo     ports.SessionRepository
	scorer   export.Scorer
	encoders map[string]ports.ExportEncoder
	storage  ports.ObjectStorage
	now      func() time.Time
}

// NewExportSessionUseCase registers encoders by format name. storage may be nil
// when publishing is not configured.
func NewExportSessionUseCase(
	repo ports.SessionRepository,
	scorer export.Scorer,
	storage ports.ObjectStorage,
	encoders ...ports.ExportEncoder,
) *ExportSessionUseCase {
	byFormat := make(map[string]ports.ExportEncoder, len(encoders))
	for _, enc := range encoders {
		byFormat[strings.ToLower(enc.Format())] = enc
	}
	return &ExportSessionUseCase{
		repo:     repo,
		scorer:   scorer,
		encoders: byFormat,
		storage:  storage,
		now:      time.Now,
	}
}

func (uc *ExportSessionUseCase) Rows(ctx context.Context, sessionID string) ([]export.Row, error) {
	session, err := uc.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return export.Rows(session.Snapshot, uc.scorer), nil
}

func (uc *ExportSessionUseCase) Export(ctx context.Context, sessionID, format string) (domain.Artifact, error) {
	enc, err := uc.encoder(format)
	if err != nil {
		return domain.Artifact{}, err
	}
	session, err := uc.repo.GetByID(ctx, sessionID)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("load session: %w", err)
	}

	var buf bytes.Buffer
	rows := export.Rows(session.Snapshot, uc.scorer)
	if err := enc.Encode(&buf, rows, namer.Duplicates(session.Snapshot)); err != nil {
		return domain.Artifact{}, fmt.Errorf("encode %s export: %w", enc.Format(), err)
	}
	return domain.Artifact{
		Filename:    fmt.Sprintf("%s_v%d.%s", session.ID, session.Snapshot.Version, enc.Extension()),
		ContentType: enc.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}

// Publish encodes the export and stores it, returning the object key.
func (uc *ExportSessionUseCase) Publish(ctx context.Context, sessionID, format string) (string, error) {
	if uc.storage == nil {
		return "", domain.WrapError(domain.ErrInvalidOperation, "publish export", fmt.Errorf("object storage is not configured"))
	}
	artifact, err := uc.Export(ctx, sessionID, format)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("exports/%s/%s_%s", sessionID, uc.now().UTC().Format("20060102T150405Z"), artifact.Filename)
	if err := uc.storage.Save(ctx, key, bytes.NewReader(artifact.Body)); err != nil {
		return "", fmt.Errorf("save export artifact: %w", err)
	}
	return key, nil
}

func (uc *ExportSessionUseCase) encoder(format string) (ports.ExportEncoder, error) {
	name := strings.ToLower(strings.TrimSpace(format))
	if name == "" {
		name = "csv"
	}
	enc, ok := uc.encoders[name]
	if !ok {
		known := make([]string, 0, len(uc.encoders))
		for k := range uc.encoders {
			known = append(known, k)
		}
		sort.Strings(known)
		return nil, domain.WrapError(domain.ErrInvalidInput, "export", fmt.Errorf("unsupported format %q (known: %s)", format, strings.Join(known, ", ")))
	}
	return enc, nil
}
