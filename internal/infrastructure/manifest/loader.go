package manifest

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/grouper"
)

// Document is the on-disk manifest an upstream analyzer writes for a batch.
type Document struct {
	Campaign    string                  `yaml:"campaign"`
	Date        string                  `yaml:"date"`
	StartNumber int                     `yaml:"start_number"`
	Assets      []domain.ProcessedAsset `yaml:"assets"`
}

// Options carries the run defaults from the manifest header.
func (d Document) Options() grouper.Options {
	return grouper.Options{
		StartNumber: d.StartNumber,
		Campaign:    d.Campaign,
		Date:        d.Date,
	}
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".m4v": true, ".webm": true, ".avi": true,
}

type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// Load reads only the asset list.
func (l *Loader) Load(ctx context.Context, r io.Reader) ([]domain.ProcessedAsset, error) {
	doc, err := l.LoadDocument(ctx, r)
	if err != nil {
		return nil, err
	}
	return doc.Assets, nil
}

// LoadDocument decodes a manifest and fills the fields analyzers commonly omit:
// id falls back to the name, name to the path base, kind to the extension.
func (l *Loader) LoadDocument(ctx context.Context, r io.Reader) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read manifest: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Document{}, domain.WrapError(domain.ErrInvalidInput, "parse manifest", err)
	}

	seen := make(map[string]int, len(doc.Assets))
	for i := range doc.Assets {
		a := &doc.Assets[i]
		normalize(a)
		if a.ID == "" {
			return Document{}, domain.WrapError(domain.ErrInvalidInput, "parse manifest", fmt.Errorf("asset %d has neither id, name nor path", i))
		}
		if prev, dup := seen[a.ID]; dup {
			return Document{}, domain.WrapError(domain.ErrInvalidInput, "parse manifest", fmt.Errorf("asset id %q repeats entries %d and %d", a.ID, prev, i))
		}
		seen[a.ID] = i
		if a.Width < 0 || a.Height < 0 {
			return Document{}, domain.WrapError(domain.ErrInvalidInput, "parse manifest", fmt.Errorf("asset %q has negative dimensions", a.ID))
		}
	}
	return doc, nil
}

func normalize(a *domain.ProcessedAsset) {
	a.ID = strings.TrimSpace(a.ID)
	a.Name = strings.TrimSpace(a.Name)
	a.Path = strings.TrimSpace(a.Path)
	if a.Name == "" && a.Path != "" {
		a.Name = path.Base(a.Path)
	}
	if a.ID == "" {
		a.ID = a.Name
	}
	if a.Kind == "" {
		a.Kind = domain.MediaImage
		if videoExtensions[strings.ToLower(path.Ext(a.Name))] {
			a.Kind = domain.MediaVideo
		}
	}
	if a.Placement == "" {
		a.Placement = domain.PlacementUnknown
	}
}
