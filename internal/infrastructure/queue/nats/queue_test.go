package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

func TestDecodeAnalysisRequest(t *testing.T) {
	req, err := decodeAnalysisRequest([]byte(`{"session_id":"batch-1","start_number":5,"assets":[{"id":"a1","name":"a.png","width":1080,"height":1920}]}`))
	if err != nil {
		t.Fatalf("decodeAnalysisRequest() error = %v", err)
	}
	if req.SessionID != "batch-1" || req.StartNumber != 5 || len(req.Assets) != 1 || req.Assets[0].Width != 1080 {
		t.Fatalf("unexpected request: %+v", req)
	}

	if _, err := decodeAnalysisRequest([]byte(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	if err := wrapTemporaryIfNeeded(nats.ErrNoServers); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary for no servers, got %v", err)
	}
	permanent := errors.New("payload too large")
	if err := wrapTemporaryIfNeeded(permanent); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error to pass through, got %v", err)
	}
	if err := wrapTemporaryIfNeeded(context.Canceled); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("cancellation must not become temporary")
	}
}

func TestNewWithOptionsRequiresSubjects(t *testing.T) {
	if _, err := NewWithOptions("nats://127.0.0.1:4222", Subjects{Analysis: "assets.analyzed"}, Options{}); err == nil {
		t.Fatalf("expected error for missing updates subject")
	}
}
