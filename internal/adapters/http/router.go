package httpadapter

import (
	"fmt"
	"net/http"

	"github.com/kirillkom/ad-autonamer/internal/config"
	"github.com/kirillkom/ad-autonamer/internal/core/ports"
)

const serviceName = "autonamer-api"

// Recorder receives review and export outcomes, typically for metrics.
type Recorder interface {
	RecordMutation(service, operation string, err error)
	RecordExport(service, format string, size int, err error)
	RecordDuplicates(service string, count int)
}

type noopRecorder struct{}

func (noopRecorder) RecordMutation(string, string, error)    {}
func (noopRecorder) RecordExport(string, string, int, error) {}
func (noopRecorder) RecordDuplicates(string, int)            {}

type Router struct {
	cfg      config.Config
	analyzer ports.SessionAnalyzer
	reader   ports.SessionReader
	reviewer ports.SessionReviewer
	exporter ports.SessionExporter
	recorder Recorder
}

func NewRouter(
	cfg config.Config,
	analyzer ports.SessionAnalyzer,
	reader ports.SessionReader,
	reviewer ports.SessionReviewer,
	exporter ports.SessionExporter,
) *Router {
	return &Router{
		cfg:      cfg,
		analyzer: analyzer,
		reader:   reader,
		reviewer: reviewer,
		exporter: exporter,
		recorder: noopRecorder{},
	}
}

func (rt *Router) WithRecorder(recorder Recorder) *Router {
	if recorder != nil {
		rt.recorder = recorder
	}
	return rt
}

// Handler builds the routed handler. It fails only when the embedded OpenAPI
// document cannot be loaded while request validation is enabled.
func (rt *Router) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)

	mux.HandleFunc("POST /v1/sessions", rt.analyzeSession)
	mux.HandleFunc("GET /v1/sessions/{session_id}", rt.readSession)
	mux.HandleFunc("GET /v1/sessions/{session_id}/triage", rt.triageSession)
	mux.HandleFunc("GET /v1/sessions/{session_id}/rows", rt.exportRows)

	mux.HandleFunc("PATCH /v1/sessions/{session_id}/groups/{group_id}", rt.updateFields)
	mux.HandleFunc("PATCH /v1/sessions/{session_id}/groups/{group_id}/assets/{asset_id}", rt.updateAsset)
	mux.HandleFunc("POST /v1/sessions/{session_id}/groups", rt.createGroup)
	mux.HandleFunc("POST /v1/sessions/{session_id}/groups/{group_id}/reorder", rt.reorder)
	mux.HandleFunc("POST /v1/sessions/{session_id}/regroup", rt.regroup)
	mux.HandleFunc("POST /v1/sessions/{session_id}/renumber", rt.renumber)
	mux.HandleFunc("POST /v1/sessions/{session_id}/bulk/replace", rt.bulkReplace)
	mux.HandleFunc("POST /v1/sessions/{session_id}/bulk/apply", rt.bulkApply)

	mux.HandleFunc("GET /v1/sessions/{session_id}/export", rt.exportSession)
	mux.HandleFunc("POST /v1/sessions/{session_id}/export/publish", rt.publishExport)

	var handler http.Handler = mux
	if rt.cfg.OpenAPIStrict {
		doc, err := OpenAPIDocument()
		if err != nil {
			return nil, err
		}
		handler, err = openAPIValidationMiddleware(handler, doc)
		if err != nil {
			return nil, fmt.Errorf("openapi validation: %w", err)
		}
	}
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, rt.cfg.InFlightWait)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler, nil
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
