package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/ports"
)

type runMetrics interface {
	StartRun()
	FinishRun(service string, duration time.Duration, err error)
	ObserveGroups(service string, counts map[string]int, ungrouped int)
	ObserveQueueLag(service string, lag time.Duration)
}

// analysisHandler runs one grouping pass per analyzer batch.
type analysisHandler struct {
	analyzer ports.SessionAnalyzer
	metrics  runMetrics
	timeout  time.Duration
	now      func() time.Time
}

func newAnalysisHandler(analyzer ports.SessionAnalyzer, metrics runMetrics, timeout time.Duration) *analysisHandler {
	return &analysisHandler{
		analyzer: analyzer,
		metrics:  metrics,
		timeout:  timeout,
		now:      time.Now,
	}
}

func (h *analysisHandler) Handle(ctx context.Context, req domain.AnalysisRequest) error {
	start := h.now()
	if !req.RequestedAt.IsZero() {
		h.metrics.ObserveQueueLag(serviceName, start.Sub(req.RequestedAt))
	}

	runCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	h.metrics.StartRun()
	session, err := h.analyzer.Analyze(runCtx, req)
	h.metrics.FinishRun(serviceName, h.now().Sub(start), err)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	for _, g := range session.Snapshot.Groups {
		counts[string(g.Type)]++
	}
	h.metrics.ObserveGroups(serviceName, counts, len(session.Snapshot.Ungrouped))

	slog.Info("grouping_run_completed",
		"session_id", session.ID,
		"assets", len(req.Assets),
		"groups", len(session.Snapshot.Groups),
		"ungrouped", len(session.Snapshot.Ungrouped),
		"version", session.Snapshot.Version,
	)
	return nil
}
