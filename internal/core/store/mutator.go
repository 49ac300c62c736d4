package store

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

// Inferer recomputes keyword inference for groups whose membership changed.
type Inferer interface {
	Infer(text string) domain.Inference
}

// Mutator applies reviewer operations to snapshots. Every operation validates
// against the input, then edits a deep copy; the input is never touched and a
// failed call returns the zero snapshot with an error.
type Mutator struct {
	inferer     Inferer
	newID       func() string
	carouselMin int
	carouselMax int
}

func NewMutator(inferer Inferer) *Mutator {
	return &Mutator{
		inferer:     inferer,
		newID:       uuid.NewString,
		carouselMin: domain.CarouselMinCards,
		carouselMax: domain.CarouselMaxCards,
	}
}

func (m *Mutator) WithIDGenerator(fn func() string) *Mutator {
	if fn != nil {
		m.newID = fn
	}
	return m
}

func (m *Mutator) WithCarouselBounds(minCards, maxCards int) *Mutator {
	if minCards >= 2 && maxCards >= minCards {
		m.carouselMin = minCards
		m.carouselMax = maxCards
	}
	return m
}

// next deep-copies the snapshot and bumps its version.
func next(s domain.GroupedAssets) (domain.GroupedAssets, error) {
	var out domain.GroupedAssets
	if err := deepcopy.Copy(&out, &s); err != nil {
		return domain.GroupedAssets{}, fmt.Errorf("clone snapshot: %w", err)
	}
	out.Version = s.Version + 1
	return out, nil
}

// UpdateFields applies a partial update to one group's editable fields.
// Confidence is derived from stored inference and is left alone.
func (m *Mutator) UpdateFields(s domain.GroupedAssets, groupID string, patch domain.FieldPatch) (domain.GroupedAssets, error) {
	gi := s.GroupIndex(groupID)
	if gi < 0 {
		return domain.GroupedAssets{}, domain.NotFound("update fields", "group", groupID)
	}

	out, err := next(s)
	if err != nil {
		return domain.GroupedAssets{}, err
	}
	patch.Apply(&out.Groups[gi])
	return out, nil
}

// UpdateAsset edits per-asset copy fields or the custom filename override.
func (m *Mutator) UpdateAsset(s domain.GroupedAssets, groupID, assetID string, patch domain.AssetPatch) (domain.GroupedAssets, error) {
	gi := s.GroupIndex(groupID)
	if gi < 0 {
		return domain.GroupedAssets{}, domain.NotFound("update asset", "group", groupID)
	}
	ai := s.Groups[gi].IndexOf(assetID)
	if ai < 0 {
		return domain.GroupedAssets{}, domain.NotFound("update asset", "asset", assetID)
	}

	out, err := next(s)
	if err != nil {
		return domain.GroupedAssets{}, err
	}
	patch.Apply(&out.Groups[gi].Assets[ai])
	return out, nil
}

// Reorder moves an asset within its own group; newIndex is clamped.
func (m *Mutator) Reorder(s domain.GroupedAssets, groupID, assetID string, newIndex int) (domain.GroupedAssets, error) {
	gi := s.GroupIndex(groupID)
	if gi < 0 {
		return domain.GroupedAssets{}, domain.NotFound("reorder", "group", groupID)
	}
	if len(s.Groups[gi].Assets) == 0 {
		return domain.GroupedAssets{}, domain.WrapError(domain.ErrInvalidOperation, "reorder", fmt.Errorf("group %s has no assets", groupID))
	}
	from := s.Groups[gi].IndexOf(assetID)
	if from < 0 {
		return domain.GroupedAssets{}, domain.NotFound("reorder", "asset", assetID)
	}

	out, err := next(s)
	if err != nil {
		return domain.GroupedAssets{}, err
	}
	g := &out.Groups[gi]
	asset := g.Assets[from]
	g.Assets = removeAt(g.Assets, from)
	g.Assets = insertAt(g.Assets, clampIndex(newIndex, len(g.Assets)), asset)
	return out, nil
}

// Renumber assigns start, start+1, ... to groups in display order in one pass.
func (m *Mutator) Renumber(s domain.GroupedAssets, start int) (domain.GroupedAssets, error) {
	if start < 1 {
		return domain.GroupedAssets{}, domain.WrapError(domain.ErrInvalidOperation, "renumber", fmt.Errorf("start number %d must be at least 1", start))
	}

	out, err := next(s)
	if err != nil {
		return domain.GroupedAssets{}, err
	}
	for i := range out.Groups {
		out.Groups[i].AdNumber = start + i
	}
	return out, nil
}

func removeAt(assets []domain.ProcessedAsset, idx int) []domain.ProcessedAsset {
	out := make([]domain.ProcessedAsset, 0, len(assets)-1)
	out = append(out, assets[:idx]...)
	return append(out, assets[idx+1:]...)
}

func insertAt(assets []domain.ProcessedAsset, idx int, asset domain.ProcessedAsset) []domain.ProcessedAsset {
	out := make([]domain.ProcessedAsset, 0, len(assets)+1)
	out = append(out, assets[:idx]...)
	out = append(out, asset)
	return append(out, assets[idx:]...)
}

// clampIndex bounds an insertion index to [0, length].
func clampIndex(idx, length int) int {
	switch {
	case idx < 0:
		return 0
	case idx > length:
		return length
	default:
		return idx
	}
}
