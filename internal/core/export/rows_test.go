package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

type fixedScorer struct {
	bundle domain.ConfidenceBundle
}

func (f fixedScorer) Score(domain.AdGroup) domain.ConfidenceBundle {
	return f.bundle
}

func pa(id, name string, w, h int) domain.ProcessedAsset {
	return domain.ProcessedAsset{Asset: domain.Asset{ID: id, Name: name, Kind: domain.MediaImage}, Width: w, Height: h}
}

func TestRowsProjectsEveryAssetOnce(t *testing.T) {
	s := domain.GroupedAssets{
		Version: 3,
		Groups: []domain.AdGroup{
			{ID: "g1", Type: domain.GroupStandard, AdNumber: 7, Assets: []domain.ProcessedAsset{
				pa("s1", "story.png", 1080, 1920), pa("f1", "feed.jpg", 1080, 1350),
			}},
			{ID: "g2", Type: domain.GroupCarousel, AdNumber: 12, Assets: []domain.ProcessedAsset{
				pa("c1", "a.png", 1080, 1080), pa("c2", "b.png", 1080, 1080),
			}},
		},
		Ungrouped: []domain.ProcessedAsset{pa("u1", "loose.mov", 1920, 1080)},
	}
	scorer := fixedScorer{bundle: domain.ConfidenceBundle{Group: 0.123456, Product: 0.6, Angle: 0.45, Offer: 0.2}}

	rows := Rows(s, scorer)
	require.Len(t, rows, 5)

	assert.Equal(t, "007_IMG_story.png", rows[0].NewName)
	assert.Equal(t, "007_IMG_feed.jpg", rows[1].NewName)
	assert.Equal(t, "0012_CAR_Card02.png", rows[3].NewName)
	assert.Equal(t, "carousel", rows[3].GroupType)
	assert.Equal(t, 0.123, rows[0].ConfidenceGroup)

	loose := rows[4]
	assert.Equal(t, "u1", loose.FileID)
	assert.Empty(t, loose.NewName)
	assert.Empty(t, loose.GroupID)
	assert.Equal(t, UngroupedType, loose.GroupType)
	assert.Equal(t, "unknown", loose.PlacementInferred)
}

func TestRecordFollowsHeader(t *testing.T) {
	r := Row{
		FileID: "f", OldName: "o.png", NewName: "001_IMG_feed.png", GroupID: "g", GroupType: "single",
		PlacementInferred: "feed", ConfidenceGroup: 0.2, ConfidenceProduct: 0.6, ConfidenceAngle: 0, ConfidenceOffer: 0.5,
	}
	rec := r.Record()
	require.Len(t, rec, len(Header))
	assert.Equal(t, []string{"f", "o.png", "001_IMG_feed.png", "g", "single", "feed", "0.2", "0.6", "0.0", "0.5"}, rec)
}
