package confidence

import (
	"math"
	"sort"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

// Settings tune group-level confidence.
type Settings struct {
	// MarginScale is the winning-minus-runner-up margin that maps to full confidence.
	MarginScale float64
	SingleScore float64
	ManualScore float64
	// ExactnessWeight is how much dimension exactness can pull an automatic score down.
	ExactnessWeight float64
}

func DefaultSettings() Settings {
	return Settings{
		MarginScale:     0.25,
		SingleScore:     0.2,
		ManualScore:     0.5,
		ExactnessWeight: 0.2,
	}
}

func (s Settings) normalize() Settings {
	out := s
	def := DefaultSettings()
	if out.MarginScale <= 0 {
		out.MarginScale = def.MarginScale
	}
	if out.SingleScore < 0 || out.SingleScore > 1 {
		out.SingleScore = def.SingleScore
	}
	if out.ManualScore < 0 || out.ManualScore > 1 {
		out.ManualScore = def.ManualScore
	}
	if out.ExactnessWeight < 0 || out.ExactnessWeight > 1 {
		out.ExactnessWeight = def.ExactnessWeight
	}
	return out
}

// Model turns stored evidence and inference into a confidence bundle.
// It never looks at current field values, so reviewer edits do not change it.
type Model struct {
	settings Settings
}

func NewModel(settings Settings) *Model {
	return &Model{settings: settings.normalize()}
}

func (m *Model) Score(g domain.AdGroup) domain.ConfidenceBundle {
	return domain.ConfidenceBundle{
		Group:   m.groupScore(g),
		Product: clamp01(g.Inference.ProductStrength),
		Angle:   clamp01(g.Inference.AngleStrength),
		Offer:   clamp01(g.Inference.OfferStrength),
	}
}

func (m *Model) groupScore(g domain.AdGroup) float64 {
	if g.NonConforming {
		return 0
	}
	ev := g.Evidence
	exactness := 1 - m.settings.ExactnessWeight + m.settings.ExactnessWeight*clamp01(ev.Exactness)

	switch ev.Kind {
	case domain.EvidenceAutoPair:
		margin := ev.WinningScore - ev.RunnerUpScore
		return clamp01(math.Min(1, margin/m.settings.MarginScale) * exactness)
	case domain.EvidenceCarouselChain:
		if len(ev.ChainScores) == 0 {
			return clamp01(ev.WinningScore * exactness)
		}
		sum := 0.0
		for _, s := range ev.ChainScores {
			sum += s
		}
		return clamp01(sum / float64(len(ev.ChainScores)) * exactness)
	case domain.EvidenceManual:
		return m.settings.ManualScore
	default:
		return m.settings.SingleScore
	}
}

// TriageEntry pairs a group with its bundle for low-confidence-first review.
type TriageEntry struct {
	GroupID    string                  `json:"group_id"`
	AdNumber   int                     `json:"ad_number"`
	Confidence domain.ConfidenceBundle `json:"confidence"`
	Min        float64                 `json:"min"`
}

// Triage orders groups by the minimum of their four scores, ascending.
// Equal minimums keep display order.
func (m *Model) Triage(groups []domain.AdGroup) []TriageEntry {
	out := make([]TriageEntry, 0, len(groups))
	for _, g := range groups {
		bundle := m.Score(g)
		out = append(out, TriageEntry{
			GroupID:    g.ID,
			AdNumber:   g.AdNumber,
			Confidence: bundle,
			Min:        bundle.Min(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Min < out[j].Min
	})
	return out
}

// Exactness measures how close member aspect ratios sit to their canonical
// placement ratio. 1 is pixel-exact; it falls to 0 at the edge of the window.
func Exactness(assets []domain.ProcessedAsset) float64 {
	if len(assets) == 0 {
		return 0
	}
	total := 0.0
	for _, a := range assets {
		total += assetExactness(a)
	}
	return total / float64(len(assets))
}

func assetExactness(a domain.ProcessedAsset) float64 {
	r := a.Ratio()
	if r <= 0 {
		return 0
	}
	switch a.EffectivePlacement() {
	case domain.PlacementStory:
		return closeness(r, domain.CanonicalStory, domain.StoryRatioMax-domain.CanonicalStory)
	case domain.PlacementSquare:
		return closeness(r, domain.CanonicalSquare, domain.SquareishMax-domain.CanonicalSquare)
	case domain.PlacementFeed:
		portrait := closeness(r, domain.CanonicalPortrait, domain.CanonicalPortrait-domain.FeedRatioMin)
		square := closeness(r, domain.CanonicalSquare, domain.FeedRatioMax-domain.CanonicalSquare)
		return math.Max(portrait, square)
	default:
		return 0
	}
}

func closeness(r, canonical, tolerance float64) float64 {
	if tolerance <= 0 {
		tolerance = 0.05
	}
	return clamp01(1 - math.Abs(r-canonical)/tolerance)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
