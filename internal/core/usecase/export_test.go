package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/ad-autonamer/internal/core/confidence"
	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

func TestExportEncodesRowsAndDuplicates(t *testing.T) {
	session := pairSession("s")
	session.Snapshot.Groups[1].AdNumber = 1
	session.Snapshot.Groups[1].Assets[0] = testAsset("x1", 1080, 1350)
	enc := &encoderFake{}
	uc := NewExportSessionUseCase(newSessionRepoFake(session), confidence.NewModel(confidence.DefaultSettings()), nil, enc)

	artifact, err := uc.Export(context.Background(), "s", "TXT")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if artifact.Filename != "s_v1.txt" || artifact.ContentType != "text/plain" {
		t.Fatalf("unexpected artifact: %+v", artifact)
	}
	if len(enc.rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(enc.rows))
	}
	if len(enc.duplicates) != 1 || enc.duplicates[0] != "001_IMG_feed.png" {
		t.Fatalf("unexpected duplicates: %v", enc.duplicates)
	}
	if !strings.Contains(string(artifact.Body), "s1 001_IMG_story.png") {
		t.Fatalf("unexpected body: %s", artifact.Body)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	uc := NewExportSessionUseCase(newSessionRepoFake(pairSession("s")), confidence.NewModel(confidence.DefaultSettings()), nil, &encoderFake{})
	_, err := uc.Export(context.Background(), "s", "pdf")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestPublishStoresArtifact(t *testing.T) {
	storage := &storageFake{}
	uc := NewExportSessionUseCase(newSessionRepoFake(pairSession("s")), confidence.NewModel(confidence.DefaultSettings()), storage, &encoderFake{})
	uc.now = func() time.Time { return time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC) }

	key, err := uc.Publish(context.Background(), "s", "txt")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if key != "exports/s/20261016T093000Z_s_v1.txt" {
		t.Fatalf("unexpected key %s", key)
	}
	if storage.savedKey != key || storage.savedBody == "" {
		t.Fatalf("expected stored artifact under %s", key)
	}
}

func TestPublishWithoutStorage(t *testing.T) {
	uc := NewExportSessionUseCase(newSessionRepoFake(pairSession("s")), confidence.NewModel(confidence.DefaultSettings()), nil, &encoderFake{})
	if _, err := uc.Publish(context.Background(), "s", "txt"); !domain.IsKind(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected invalid operation, got %v", err)
	}
}
