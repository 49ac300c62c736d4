package store

import (
	"fmt"
	"slices"

	"github.com/kirillkom/ad-autonamer/internal/core/confidence"
	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

// Regroup moves an asset from its current home into targetGroupID at
// destIndex (nil appends). An empty target sends it to the ungrouped pool.
// Both touched groups are reclassified and re-scored; shape problems are
// flagged on the group, never returned as errors.
func (m *Mutator) Regroup(s domain.GroupedAssets, assetID, targetGroupID string, destIndex *int) (domain.GroupedAssets, error) {
	loc, ok := s.Locate(assetID)
	if !ok {
		return domain.GroupedAssets{}, domain.NotFound("regroup", "asset", assetID)
	}
	target := -1
	if targetGroupID != "" {
		target = s.GroupIndex(targetGroupID)
		if target < 0 {
			return domain.GroupedAssets{}, domain.NotFound("regroup", "group", targetGroupID)
		}
	}

	if loc.GroupIndex == target {
		if destIndex == nil {
			return next(s)
		}
		if target >= 0 {
			return m.Reorder(s, targetGroupID, assetID, *destIndex)
		}
		return m.repositionUngrouped(s, loc.Index, *destIndex)
	}

	out, err := next(s)
	if err != nil {
		return domain.GroupedAssets{}, err
	}

	var asset domain.ProcessedAsset
	sourceID := ""
	if loc.GroupIndex < 0 {
		asset = out.Ungrouped[loc.Index]
		out.Ungrouped = removeAt(out.Ungrouped, loc.Index)
	} else {
		src := &out.Groups[loc.GroupIndex]
		sourceID = src.ID
		asset = src.Assets[loc.Index]
		src.Assets = removeAt(src.Assets, loc.Index)
	}

	if target < 0 {
		idx := len(out.Ungrouped)
		if destIndex != nil {
			idx = clampIndex(*destIndex, len(out.Ungrouped))
		}
		out.Ungrouped = insertAt(out.Ungrouped, idx, asset)
	} else {
		dst := &out.Groups[target]
		idx := len(dst.Assets)
		if destIndex != nil {
			idx = clampIndex(*destIndex, len(dst.Assets))
		}
		dst.Assets = insertAt(dst.Assets, idx, asset)
		m.reshape(dst)
	}

	if sourceID != "" {
		si := out.GroupIndex(sourceID)
		if len(out.Groups[si].Assets) == 0 {
			out.Groups = slices.Delete(out.Groups, si, si+1)
		} else {
			m.reshape(&out.Groups[si])
		}
	}
	return out, nil
}

// CreateGroup moves an asset into a brand-new single group numbered after the
// current maximum. Campaign and date carry over from the asset's former group.
func (m *Mutator) CreateGroup(s domain.GroupedAssets, assetID string) (domain.GroupedAssets, domain.AdGroup, error) {
	loc, ok := s.Locate(assetID)
	if !ok {
		return domain.GroupedAssets{}, domain.AdGroup{}, domain.NotFound("create group", "asset", assetID)
	}

	out, err := next(s)
	if err != nil {
		return domain.GroupedAssets{}, domain.AdGroup{}, err
	}

	created := domain.AdGroup{
		ID:       m.newID(),
		Type:     domain.GroupSingle,
		AdNumber: s.MaxAdNumber() + 1,
	}
	if loc.GroupIndex < 0 {
		created.Assets = []domain.ProcessedAsset{out.Ungrouped[loc.Index]}
		out.Ungrouped = removeAt(out.Ungrouped, loc.Index)
	} else {
		src := &out.Groups[loc.GroupIndex]
		created.Assets = []domain.ProcessedAsset{src.Assets[loc.Index]}
		created.Campaign = src.Campaign
		created.Date = src.Date
		src.Assets = removeAt(src.Assets, loc.Index)
		if len(src.Assets) == 0 {
			out.Groups = slices.Delete(out.Groups, loc.GroupIndex, loc.GroupIndex+1)
		} else {
			m.reshape(src)
		}
	}

	m.reshape(&created)
	created.Product = created.Inference.Product
	created.Angle = created.Inference.Angle
	created.Offer = created.Inference.Offer
	out.Groups = append(out.Groups, created)
	return out, created, nil
}

func (m *Mutator) repositionUngrouped(s domain.GroupedAssets, from, to int) (domain.GroupedAssets, error) {
	out, err := next(s)
	if err != nil {
		return domain.GroupedAssets{}, err
	}
	asset := out.Ungrouped[from]
	out.Ungrouped = removeAt(out.Ungrouped, from)
	out.Ungrouped = insertAt(out.Ungrouped, clampIndex(to, len(out.Ungrouped)), asset)
	return out, nil
}

// reshape reclassifies a group after a manual membership change and replaces
// its evidence and inference. Editable field values are left as the reviewer set them.
func (m *Mutator) reshape(g *domain.AdGroup) {
	g.Evidence = domain.Evidence{
		Kind:      domain.EvidenceManual,
		Exactness: confidence.Exactness(g.Assets),
	}
	if m.inferer != nil {
		g.Inference = m.inferer.Infer(g.OCRCorpus())
	}

	kind, ok := m.classify(g.Assets)
	if ok {
		g.Type = kind
		g.NonConforming = false
		g.ShapeIssue = ""
		return
	}
	g.NonConforming = true
	g.ShapeIssue = shapeIssue(g.Type, g.Assets, m.carouselMin, m.carouselMax)
}

// classify returns the group type whose shape rule the members satisfy.
// Carousel bounds gate promotion; anything else is non-conforming.
func (m *Mutator) classify(assets []domain.ProcessedAsset) (domain.GroupType, bool) {
	n := len(assets)
	switch {
	case n == 1:
		return domain.GroupSingle, true
	case n == 2 && isStoryFeedPair(assets[0], assets[1]):
		return domain.GroupStandard, true
	case n >= m.carouselMin && n <= m.carouselMax && allSquareish(assets):
		return domain.GroupCarousel, true
	}
	return "", false
}

func isStoryFeedPair(a, b domain.ProcessedAsset) bool {
	return (a.IsStory() && b.IsFeedCompatible()) || (b.IsStory() && a.IsFeedCompatible())
}

func allSquareish(assets []domain.ProcessedAsset) bool {
	for _, a := range assets {
		if !a.IsSquareish() {
			return false
		}
	}
	return true
}

func shapeIssue(kind domain.GroupType, assets []domain.ProcessedAsset, minCards, maxCards int) string {
	switch kind {
	case domain.GroupStandard:
		return fmt.Sprintf("standard group holds %d assets; expected one story and one feed", len(assets))
	case domain.GroupCarousel:
		return fmt.Sprintf("carousel holds %d assets; expected %d-%d square-ish cards", len(assets), minCards, maxCards)
	default:
		return fmt.Sprintf("single group holds %d assets", len(assets))
	}
}
