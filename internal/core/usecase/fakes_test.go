package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/export"
)

type sessionRepoFake struct {
	sessions  map[string]*domain.Session
	createErr error
	saveErr   error
	saves     int
}

func newSessionRepoFake(sessions ...*domain.Session) *sessionRepoFake {
	f := &sessionRepoFake{sessions: map[string]*domain.Session{}}
	for _, s := range sessions {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *sessionRepoFake) Create(_ context.Context, session *domain.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	copySession := *session
	f.sessions[session.ID] = &copySession
	return nil
}

func (f *sessionRepoFake) GetByID(_ context.Context, id string) (*domain.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, domain.NotFound("get session", "session", id)
	}
	copySession := *s
	return &copySession, nil
}

func (f *sessionRepoFake) Save(_ context.Context, id string, snapshot domain.GroupedAssets, expectedVersion int64) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return domain.NotFound("save session", "session", id)
	}
	if s.Snapshot.Version != expectedVersion {
		return domain.WrapError(domain.ErrConflict, "save session", fmt.Errorf("stale version %d", expectedVersion))
	}
	s.Snapshot = snapshot
	f.saves++
	return nil
}

type queueFake struct {
	events []domain.SnapshotEvent
	err    error
}

func (f *queueFake) PublishAnalysisRequested(context.Context, domain.AnalysisRequest) error {
	return errors.New("not implemented")
}

func (f *queueFake) SubscribeAnalysisRequested(context.Context, func(context.Context, domain.AnalysisRequest) error) error {
	return errors.New("not implemented")
}

func (f *queueFake) PublishSnapshotUpdated(_ context.Context, event domain.SnapshotEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type storageFake struct {
	savedKey  string
	savedBody string
	err       error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.savedBody)), nil
}

type encoderFake struct {
	rows       []export.Row
	duplicates []string
}

func (f *encoderFake) Format() string      { return "txt" }
func (f *encoderFake) ContentType() string { return "text/plain" }
func (f *encoderFake) Extension() string   { return "txt" }

func (f *encoderFake) Encode(w io.Writer, rows []export.Row, duplicates []string) error {
	f.rows = rows
	f.duplicates = duplicates
	for _, r := range rows {
		if _, err := fmt.Fprintln(w, r.FileID, r.NewName); err != nil {
			return err
		}
	}
	return nil
}

func testAsset(id string, w, h int) domain.ProcessedAsset {
	return domain.ProcessedAsset{
		Asset:  domain.Asset{ID: id, Name: id + ".png", Kind: domain.MediaImage},
		Width:  w,
		Height: h,
	}
}

func pairSession(id string) *domain.Session {
	return &domain.Session{
		ID: id,
		Snapshot: domain.GroupedAssets{
			Version: 1,
			Groups: []domain.AdGroup{
				{ID: "g1", Type: domain.GroupStandard, AdNumber: 1, Product: "Serum",
					Assets:   []domain.ProcessedAsset{testAsset("s1", 1080, 1920), testAsset("f1", 1080, 1350)},
					Evidence: domain.Evidence{Kind: domain.EvidenceAutoPair, WinningScore: 0.9, Exactness: 1}},
				{ID: "g2", Type: domain.GroupSingle, AdNumber: 2, Product: "Serum",
					Assets:   []domain.ProcessedAsset{testAsset("x1", 1080, 1080)},
					Evidence: domain.Evidence{Kind: domain.EvidenceForcedSingle}},
			},
			Ungrouped: []domain.ProcessedAsset{},
		},
	}
}
