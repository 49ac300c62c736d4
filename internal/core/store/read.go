package store

import (
	"github.com/kirillkom/ad-autonamer/internal/core/confidence"
	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/namer"
)

// GroupView is a group plus everything derived from it on read.
type GroupView struct {
	domain.AdGroup

	FormatToken string                  `json:"format_token"`
	AdName      string                  `json:"ad_name"`
	Filenames   []string                `json:"filenames"`
	Duplicated  []bool                  `json:"duplicated"`
	Confidence  domain.ConfidenceBundle `json:"confidence"`
}

// ReadModel is recomputed from the snapshot on every read and never cached.
type ReadModel struct {
	Version    int64                    `json:"version"`
	Groups     []GroupView              `json:"groups"`
	Ungrouped  []domain.ProcessedAsset  `json:"ungrouped"`
	Duplicates []string                 `json:"duplicates"`
	Triage     []confidence.TriageEntry `json:"triage"`
}

type Reader struct {
	model *confidence.Model
}

func NewReader(model *confidence.Model) *Reader {
	return &Reader{model: model}
}

func (r *Reader) Read(s domain.GroupedAssets) ReadModel {
	counts := namer.Occurrences(s)

	views := make([]GroupView, 0, len(s.Groups))
	for _, g := range s.Groups {
		names := namer.Filenames(g)
		dup := make([]bool, len(names))
		for i, n := range names {
			dup[i] = counts[n] > 1
		}
		views = append(views, GroupView{
			AdGroup:     g,
			FormatToken: g.FormatToken(),
			AdName:      namer.AdName(g),
			Filenames:   names,
			Duplicated:  dup,
			Confidence:  r.model.Score(g),
		})
	}

	ungrouped := s.Ungrouped
	if ungrouped == nil {
		ungrouped = []domain.ProcessedAsset{}
	}
	duplicates := namer.Duplicates(s)
	if duplicates == nil {
		duplicates = []string{}
	}

	return ReadModel{
		Version:    s.Version,
		Groups:     views,
		Ungrouped:  ungrouped,
		Duplicates: duplicates,
		Triage:     r.model.Triage(s.Groups),
	}
}
