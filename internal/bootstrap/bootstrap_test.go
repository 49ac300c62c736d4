package bootstrap

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/ad-autonamer/internal/config"
	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/grouper"
)

func asset(id, name string, w, h int) domain.ProcessedAsset {
	return domain.ProcessedAsset{
		Asset:       domain.Asset{ID: id, Name: name, Kind: domain.MediaImage},
		Width:       w,
		Height:      h,
		OCRText:     "glow serum morning routine",
		Fingerprint: "f0f0f0f0f0f0f0f0",
	}
}

func memoryConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		SessionStore: "memory",
		ExportStore:  "localfs",
		StoragePath:  t.TempDir(),
		NATSEnabled:  false,
	}
}

func TestNewEngineUsesDefaultsForZeroConfig(t *testing.T) {
	engine, err := NewEngine(config.Config{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	snapshot := engine.Grouper.Group([]domain.ProcessedAsset{
		asset("s1", "story.png", 1080, 1920),
		asset("f1", "feed.png", 1080, 1350),
	}, grouper.Options{StartNumber: 1})
	if len(snapshot.Groups) != 1 || snapshot.Groups[0].Type != domain.GroupStandard {
		t.Fatalf("expected one standard group, got %+v", snapshot.Groups)
	}
}

func TestNewEngineFailsOnMissingRulesFile(t *testing.T) {
	_, err := NewEngine(config.Config{RulesFile: "/nonexistent/rules.yaml"})
	if err == nil {
		t.Fatalf("expected error for missing rules file")
	}
}

func TestAppRunsAnalyzeReviewExportInMemory(t *testing.T) {
	ctx := context.Background()
	app, err := New(ctx, memoryConfig(t), nil)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	if app.Queue != nil {
		t.Fatalf("queue must stay nil when NATS is disabled")
	}

	session, err := app.AnalyzeUC.Analyze(ctx, domain.AnalysisRequest{
		SessionID:   "batch-1",
		StartNumber: 3,
		Assets: []domain.ProcessedAsset{
			asset("s1", "story.png", 1080, 1920),
			asset("f1", "feed.png", 1080, 1350),
		},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	rm, err := app.ReviewUC.UpdateFields(ctx, session.ID, session.Snapshot.Version, session.Snapshot.Groups[0].ID,
		domain.NewFieldPatch().With(domain.FieldProduct, "Glow"))
	if err != nil {
		t.Fatalf("update fields: %v", err)
	}
	if rm.Version != session.Snapshot.Version+1 {
		t.Fatalf("expected version bump, got %d", rm.Version)
	}

	artifact, err := app.ExportUC.Export(ctx, session.ID, "csv")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(string(artifact.Body), "003_IMG_story.png") {
		t.Fatalf("expected generated filename in csv, got:\n%s", artifact.Body)
	}

	key, err := app.ExportUC.Publish(ctx, session.ID, "xlsx")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	rc, err := app.Storage.Open(ctx, key)
	if err != nil {
		t.Fatalf("open published artifact: %v", err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil || len(body) == 0 {
		t.Fatalf("expected stored xlsx body, err=%v", err)
	}
}

func TestUnknownStoresAreRejected(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.SessionStore = "redis"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected unknown session store error")
	}

	cfg = memoryConfig(t)
	cfg.ExportStore = "ftp"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected unknown export store error")
	}
}
