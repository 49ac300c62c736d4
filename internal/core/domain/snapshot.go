package domain

// GroupedAssets is the snapshot threaded through analysis and review.
// Operations take one and return a new one; Version increases on every mutation.
type GroupedAssets struct {
	Version   int64            `json:"version"`
	Groups    []AdGroup        `json:"groups"`
	Ungrouped []ProcessedAsset `json:"ungrouped"`
}

// AssetLocation is the derived answer to "where does this asset live".
// GroupIndex is -1 for the ungrouped pool.
type AssetLocation struct {
	GroupIndex int
	Index      int
}

func (s GroupedAssets) GroupIndex(groupID string) int {
	for i, g := range s.Groups {
		if g.ID == groupID {
			return i
		}
	}
	return -1
}

// Locate finds the home of an asset without any stored back-reference.
func (s GroupedAssets) Locate(assetID string) (AssetLocation, bool) {
	for gi, g := range s.Groups {
		if idx := g.IndexOf(assetID); idx >= 0 {
			return AssetLocation{GroupIndex: gi, Index: idx}, true
		}
	}
	for i, a := range s.Ungrouped {
		if a.ID == assetID {
			return AssetLocation{GroupIndex: -1, Index: i}, true
		}
	}
	return AssetLocation{}, false
}

func (s GroupedAssets) AssetCount() int {
	n := len(s.Ungrouped)
	for _, g := range s.Groups {
		n += len(g.Assets)
	}
	return n
}

// MaxAdNumber returns the highest ad number in use, or 0 for an empty snapshot.
func (s GroupedAssets) MaxAdNumber() int {
	out := 0
	for _, g := range s.Groups {
		if g.AdNumber > out {
			out = g.AdNumber
		}
	}
	return out
}
