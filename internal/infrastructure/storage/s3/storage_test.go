package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/infrastructure/resilience"
)

type objectAPIFake struct {
	putErrs []error
	puts    int
	object  string
	body    string
	ctype   string
	statErr error
}

func (f *objectAPIFake) PutObject(_ context.Context, _ string, objectName string, reader io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.puts++
	raw, _ := io.ReadAll(reader)
	if len(f.putErrs) > 0 {
		err := f.putErrs[0]
		f.putErrs = f.putErrs[1:]
		if err != nil {
			return minio.UploadInfo{}, err
		}
	}
	f.object = objectName
	f.body = string(raw)
	f.ctype = opts.ContentType
	return minio.UploadInfo{Key: objectName}, nil
}

func (f *objectAPIFake) GetObject(context.Context, string, string, minio.GetObjectOptions) (*minio.Object, error) {
	return nil, errors.New("not implemented")
}

func (f *objectAPIFake) StatObject(context.Context, string, string, minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return minio.ObjectInfo{}, f.statErr
}

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
	})
}

func TestSaveAppliesPrefixAndContentType(t *testing.T) {
	api := &objectAPIFake{}
	s := &Storage{api: api, bucket: "exports", prefix: "autonamer"}

	if err := s.Save(context.Background(), "/exports/s1/rows.csv", bytes.NewReader([]byte("a,b"))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if api.object != "autonamer/exports/s1/rows.csv" {
		t.Fatalf("unexpected object name %s", api.object)
	}
	if api.ctype != "text/csv" || api.body != "a,b" {
		t.Fatalf("unexpected upload: ctype=%s body=%s", api.ctype, api.body)
	}
}

func TestSaveRetriesSeekableBodyOnServerError(t *testing.T) {
	api := &objectAPIFake{putErrs: []error{minio.ErrorResponse{StatusCode: http.StatusServiceUnavailable, Code: "SlowDown"}}}
	s := &Storage{api: api, bucket: "exports", executor: testExecutor()}

	if err := s.Save(context.Background(), "rows.xlsx", bytes.NewReader([]byte("payload"))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if api.puts != 2 {
		t.Fatalf("expected 2 put attempts, got %d", api.puts)
	}
	if api.body != "payload" {
		t.Fatalf("expected rewound body on retry, got %q", api.body)
	}
}

func TestSaveSurfacesTemporaryAfterExhaustedRetries(t *testing.T) {
	busy := minio.ErrorResponse{StatusCode: http.StatusInternalServerError, Code: "InternalError"}
	api := &objectAPIFake{putErrs: []error{busy, busy, busy}}
	s := &Storage{api: api, bucket: "exports", executor: testExecutor()}

	err := s.Save(context.Background(), "rows.csv", bytes.NewReader([]byte("x")))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}

func TestSaveDoesNotRetryAccessDenied(t *testing.T) {
	api := &objectAPIFake{putErrs: []error{minio.ErrorResponse{StatusCode: http.StatusForbidden, Code: "AccessDenied"}}}
	s := &Storage{api: api, bucket: "exports", executor: testExecutor()}

	err := s.Save(context.Background(), "rows.csv", bytes.NewReader([]byte("x")))
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if api.puts != 1 {
		t.Fatalf("expected a single attempt, got %d", api.puts)
	}
}

func TestOpenMissingObjectIsNotFound(t *testing.T) {
	api := &objectAPIFake{statErr: minio.ErrorResponse{StatusCode: http.StatusNotFound, Code: "NoSuchKey"}}
	s := &Storage{api: api, bucket: "exports"}

	if _, err := s.Open(context.Background(), "missing.csv"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
