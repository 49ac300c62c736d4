package httpadapter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/store"
)

func TestMutationPassesIfMatchAndSetsETag(t *testing.T) {
	reviewer := &reviewerFake{rm: store.ReadModel{Version: 8}}
	handler := newTestHandler(testConfig(), reviewer)

	res := postJSON(t, handler, http.MethodPost, "/v1/sessions/s1/renumber",
		map[string]any{"start_number": 40},
		map[string]string{"If-Match": `"7"`},
	)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if reviewer.operation != "renumber" || reviewer.ifMatch != 7 {
		t.Fatalf("expected renumber with if-match 7, got %s %d", reviewer.operation, reviewer.ifMatch)
	}
	if reviewer.args[0] != 40 {
		t.Fatalf("expected start 40, got %v", reviewer.args[0])
	}
	if got := res.Header().Get("ETag"); got != `"8"` {
		t.Fatalf("expected ETag \"8\", got %q", got)
	}

	var body map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["session_id"] != "s1" || body["version"] != float64(8) {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMalformedIfMatchIs400(t *testing.T) {
	reviewer := &reviewerFake{}
	handler := newTestHandler(testConfig(), reviewer)

	res := postJSON(t, handler, http.MethodPost, "/v1/sessions/s1/renumber",
		map[string]any{"start_number": 1},
		map[string]string{"If-Match": "abc"},
	)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if reviewer.calls != 0 {
		t.Fatalf("reviewer must not run with a malformed precondition")
	}
}

func TestParseIfMatchForms(t *testing.T) {
	cases := map[string]int64{
		"":      0,
		"*":     0,
		"3":     3,
		`"12"`:  12,
		`W/"5"`: 5,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if header != "" {
			req.Header.Set("If-Match", header)
		}
		got, err := parseIfMatch(req)
		if err != nil {
			t.Fatalf("parseIfMatch(%q): %v", header, err)
		}
		if got != want {
			t.Fatalf("parseIfMatch(%q) = %d, want %d", header, got, want)
		}
	}
}

func TestOpenAPIRejectsBadBodies(t *testing.T) {
	reviewer := &reviewerFake{}
	handler := newTestHandler(testConfig(), reviewer)

	cases := []struct {
		path string
		body any
	}{
		{"/v1/sessions/s1/renumber", map[string]any{"start_number": "ten"}},
		{"/v1/sessions/s1/renumber", map[string]any{"start_number": -1}},
		{"/v1/sessions/s1/regroup", map[string]any{"target_group_id": "g1"}},
		{"/v1/sessions/s1/groups/g1/reorder", map[string]any{"asset_id": "a", "new_index": 1, "extra": true}},
	}
	for _, tc := range cases {
		res := postJSON(t, handler, http.MethodPost, tc.path, tc.body, nil)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("%s %v: expected 400, got %d", tc.path, tc.body, res.Code)
		}
	}
	if reviewer.calls != 0 {
		t.Fatalf("reviewer must not be called for rejected bodies, got %d calls", reviewer.calls)
	}
}

func TestRegroupToPoolAndDestinationIndex(t *testing.T) {
	reviewer := &reviewerFake{rm: store.ReadModel{Version: 3}}
	handler := newTestHandler(testConfig(), reviewer)

	res := postJSON(t, handler, http.MethodPost, "/v1/sessions/s1/regroup", map[string]any{
		"asset_id":          "a1",
		"target_group_id":   "g2",
		"destination_index": 0,
	}, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	idx, ok := reviewer.args[2].(*int)
	if !ok || idx == nil || *idx != 0 {
		t.Fatalf("expected destination index 0, got %#v", reviewer.args[2])
	}

	res = postJSON(t, handler, http.MethodPost, "/v1/sessions/s1/regroup", map[string]any{"asset_id": "a1"}, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if reviewer.args[1] != "" {
		t.Fatalf("expected empty target for pool, got %v", reviewer.args[1])
	}
	if idx, _ := reviewer.args[2].(*int); idx != nil {
		t.Fatalf("expected nil destination index")
	}
}

func TestUpdateFieldsBuildsPatch(t *testing.T) {
	reviewer := &reviewerFake{rm: store.ReadModel{Version: 2}}
	handler := newTestHandler(testConfig(), reviewer)

	res := postJSON(t, handler, http.MethodPatch, "/v1/sessions/s1/groups/g1", map[string]any{
		"product": "Serum",
		"offer":   true,
	}, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	patch, ok := reviewer.args[1].(domain.FieldPatch)
	if !ok {
		t.Fatalf("expected field patch, got %T", reviewer.args[1])
	}
	if patch.Values[domain.FieldProduct] != "Serum" || patch.Values[domain.FieldOffer] != "true" {
		t.Fatalf("unexpected patch: %v", patch.Values)
	}
}

func TestMutationsAreRecorded(t *testing.T) {
	recorder := &recorderFake{}
	handler, err := NewRouter(
		testConfig(),
		&analyzerFake{},
		readerFake{},
		&reviewerFake{rm: store.ReadModel{Version: 2}},
		exporterFake{},
	).WithRecorder(recorder).Handler()
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	postJSON(t, handler, http.MethodPost, "/v1/sessions/s1/groups", map[string]any{"asset_id": "x1"}, nil)
	if len(recorder.mutations) != 1 || recorder.mutations[0] != "create_group:success" {
		t.Fatalf("unexpected recorded mutations: %v", recorder.mutations)
	}
}

func TestAnalyzeSessionReturns201(t *testing.T) {
	analyzer := &analyzerFake{}
	handler, err := NewRouter(
		testConfig(),
		analyzer,
		readerFake{rm: store.ReadModel{Version: 1}},
		&reviewerFake{},
		exporterFake{},
	).Handler()
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	res := postJSON(t, handler, http.MethodPost, "/v1/sessions", map[string]any{
		"session_id":   "batch-1",
		"start_number": 5,
		"campaign":     "Spring",
		"assets": []map[string]any{
			{"id": "s1", "name": "story.png", "width": 1080, "height": 1920, "kind": "image"},
		},
	}, nil)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if got := res.Header().Get("Location"); got != "/v1/sessions/batch-1" {
		t.Fatalf("unexpected location %q", got)
	}
	if analyzer.last.StartNumber != 5 || len(analyzer.last.Assets) != 1 || analyzer.last.Assets[0].Width != 1080 {
		t.Fatalf("request not decoded: %+v", analyzer.last)
	}
}

func TestExportWritesAttachment(t *testing.T) {
	handler, err := NewRouter(
		testConfig(),
		&analyzerFake{},
		readerFake{},
		&reviewerFake{},
		exporterFake{artifact: domain.Artifact{
			Filename:    "s1_v3.csv",
			ContentType: "text/csv; charset=utf-8",
			Body:        []byte("file_id\r\n"),
		}},
	).Handler()
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/sessions/s1/export?format=csv", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if !strings.Contains(res.Header().Get("Content-Disposition"), `filename=s1_v3.csv`) {
		t.Fatalf("unexpected disposition %q", res.Header().Get("Content-Disposition"))
	}
	if res.Body.String() != "file_id\r\n" {
		t.Fatalf("unexpected body %q", res.Body.String())
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/sessions/s1/export?format=pdf", nil))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported format, got %d", res.Code)
	}
}

func TestEmbeddedOpenAPIDocumentLoads(t *testing.T) {
	doc, err := OpenAPIDocument()
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	if doc.Paths.Find("/v1/sessions/{session_id}/regroup") == nil {
		t.Fatalf("expected regroup path in document")
	}
}
