package httpadapter

import (
	"context"
	"net/http"

	"github.com/kirillkom/ad-autonamer/internal/config"
	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/export"
	"github.com/kirillkom/ad-autonamer/internal/core/store"
)

type analyzerFake struct {
	err  error
	last domain.AnalysisRequest
}

func (f *analyzerFake) Analyze(_ context.Context, req domain.AnalysisRequest) (*domain.Session, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	id := req.SessionID
	if id == "" {
		id = "generated"
	}
	return &domain.Session{ID: id}, nil
}

type readerFake struct {
	rm  store.ReadModel
	err error
}

func (f readerFake) Read(context.Context, string) (store.ReadModel, error) {
	return f.rm, f.err
}

// reviewerFake records the last call and answers every mutation with rm or err.
type reviewerFake struct {
	rm  store.ReadModel
	err error

	calls     int
	operation string
	ifMatch   int64
	args      []any
}

func (f *reviewerFake) record(operation string, ifMatch int64, args ...any) (store.ReadModel, error) {
	f.calls++
	f.operation = operation
	f.ifMatch = ifMatch
	f.args = args
	return f.rm, f.err
}

func (f *reviewerFake) UpdateFields(_ context.Context, _ string, ifMatch int64, groupID string, patch domain.FieldPatch) (store.ReadModel, error) {
	return f.record("update_fields", ifMatch, groupID, patch)
}

func (f *reviewerFake) UpdateAsset(_ context.Context, _ string, ifMatch int64, groupID, assetID string, patch domain.AssetPatch) (store.ReadModel, error) {
	return f.record("update_asset", ifMatch, groupID, assetID, patch)
}

func (f *reviewerFake) Regroup(_ context.Context, _ string, ifMatch int64, assetID, target string, destIndex *int) (store.ReadModel, error) {
	return f.record("regroup", ifMatch, assetID, target, destIndex)
}

func (f *reviewerFake) CreateGroup(_ context.Context, _ string, ifMatch int64, assetID string) (store.ReadModel, error) {
	return f.record("create_group", ifMatch, assetID)
}

func (f *reviewerFake) Reorder(_ context.Context, _ string, ifMatch int64, groupID, assetID string, newIndex int) (store.ReadModel, error) {
	return f.record("reorder", ifMatch, groupID, assetID, newIndex)
}

func (f *reviewerFake) Renumber(_ context.Context, _ string, ifMatch int64, start int) (store.ReadModel, error) {
	return f.record("renumber", ifMatch, start)
}

func (f *reviewerFake) BulkReplace(_ context.Context, _ string, ifMatch int64, field, find, replace string) (store.ReadModel, error) {
	return f.record("bulk_replace", ifMatch, field, find, replace)
}

func (f *reviewerFake) BulkApply(_ context.Context, _ string, ifMatch int64, groupIDs []string, field, value string) (store.ReadModel, error) {
	return f.record("bulk_apply", ifMatch, groupIDs, field, value)
}

type exporterFake struct {
	rows     []export.Row
	artifact domain.Artifact
	key      string
	err      error
}

func (f exporterFake) Rows(context.Context, string) ([]export.Row, error) {
	return f.rows, f.err
}

func (f exporterFake) Export(context.Context, string, string) (domain.Artifact, error) {
	return f.artifact, f.err
}

func (f exporterFake) Publish(context.Context, string, string) (string, error) {
	return f.key, f.err
}

type recorderFake struct {
	mutations []string
}

func (f *recorderFake) RecordMutation(_ string, operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	f.mutations = append(f.mutations, operation+":"+status)
}

func (f *recorderFake) RecordExport(string, string, int, error) {}

func (f *recorderFake) RecordDuplicates(string, int) {}

func testConfig() config.Config {
	return config.Config{OpenAPIStrict: true}
}

func newTestHandler(cfg config.Config, reviewer *reviewerFake) http.Handler {
	if reviewer == nil {
		reviewer = &reviewerFake{rm: store.ReadModel{Version: 1}}
	}
	handler, err := NewRouter(
		cfg,
		&analyzerFake{},
		readerFake{rm: store.ReadModel{Version: 1}},
		reviewer,
		exporterFake{},
	).Handler()
	if err != nil {
		panic(err)
	}
	return handler
}
