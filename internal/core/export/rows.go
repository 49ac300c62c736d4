package export

import (
	"math"
	"strconv"
	"strings"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/namer"
)

// UngroupedType marks pool assets in the flattened view.
const UngroupedType = "ungrouped"

// Header is the column order shared by every tabular encoder.
var Header = []string{
	"file_id",
	"old_name",
	"new_name",
	"group_id",
	"group_type",
	"placement_inferred",
	"confidence_group",
	"confidence_product",
	"confidence_angle",
	"confidence_offer",
}

// Row is one asset of the flattened export view.
type Row struct {
	FileID            string  `json:"file_id"`
	OldName           string  `json:"old_name"`
	NewName           string  `json:"new_name"`
	GroupID           string  `json:"group_id"`
	GroupType         string  `json:"group_type"`
	PlacementInferred string  `json:"placement_inferred"`
	ConfidenceGroup   float64 `json:"confidence_group"`
	ConfidenceProduct float64 `json:"confidence_product"`
	ConfidenceAngle   float64 `json:"confidence_angle"`
	ConfidenceOffer   float64 `json:"confidence_offer"`
}

// Scorer derives a confidence bundle for a group.
type Scorer interface {
	Score(g domain.AdGroup) domain.ConfidenceBundle
}

// Rows projects a snapshot into one row per asset: groups in display order,
// members in position order, then the ungrouped pool.
func Rows(s domain.GroupedAssets, scorer Scorer) []Row {
	out := make([]Row, 0, s.AssetCount())
	for _, g := range s.Groups {
		bundle := scorer.Score(g)
		for i, a := range g.Assets {
			out = append(out, Row{
				FileID:            a.ID,
				OldName:           a.Name,
				NewName:           namer.Filename(g, i, a),
				GroupID:           g.ID,
				GroupType:         string(g.Type),
				PlacementInferred: string(a.EffectivePlacement()),
				ConfidenceGroup:   round3(bundle.Group),
				ConfidenceProduct: round3(bundle.Product),
				ConfidenceAngle:   round3(bundle.Angle),
				ConfidenceOffer:   round3(bundle.Offer),
			})
		}
	}
	for _, a := range s.Ungrouped {
		out = append(out, Row{
			FileID:            a.ID,
			OldName:           a.Name,
			GroupType:         UngroupedType,
			PlacementInferred: string(a.EffectivePlacement()),
		})
	}
	return out
}

// Record renders the row in Header order.
func (r Row) Record() []string {
	return []string{
		r.FileID,
		r.OldName,
		r.NewName,
		r.GroupID,
		r.GroupType,
		r.PlacementInferred,
		formatScore(r.ConfidenceGroup),
		formatScore(r.ConfidenceProduct),
		formatScore(r.ConfidenceAngle),
		formatScore(r.ConfidenceOffer),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// formatScore always keeps a decimal point so 0 and 1 read as "0.0" and "1.0".
func formatScore(v float64) string {
	out := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}
