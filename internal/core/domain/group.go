package domain

import "strings"

type GroupType string

const (
	GroupStandard GroupType = "standard"
	GroupCarousel GroupType = "carousel"
	GroupSingle   GroupType = "single"
)

// Carousel size bounds.
const (
	CarouselMinCards = 5
	CarouselMaxCards = 10
)

type EvidenceKind string

const (
	EvidenceAutoPair      EvidenceKind = "auto_pair"
	EvidenceCarouselChain EvidenceKind = "carousel_chain"
	EvidenceForcedSingle  EvidenceKind = "forced_single"
	EvidenceManual        EvidenceKind = "manual"
)

// Evidence records how a group came to exist. Confidence is derived from it on read.
type Evidence struct {
	Kind          EvidenceKind `json:"kind"`
	WinningScore  float64      `json:"winning_score"`
	RunnerUpScore float64      `json:"runner_up_score"`
	ChainScores   []float64    `json:"chain_scores,omitempty"`
	Exactness     float64      `json:"exactness"`
}

// Inference holds the keyword-derived values and the strength of the signal behind each.
type Inference struct {
	Product         string  `json:"product"`
	ProductStrength float64 `json:"product_strength"`
	Angle           string  `json:"angle"`
	AngleStrength   float64 `json:"angle_strength"`
	Offer           bool    `json:"offer"`
	OfferStrength   float64 `json:"offer_strength"`
}

// ConfidenceBundle is the per-group confidence read model.
type ConfidenceBundle struct {
	Group   float64 `json:"group"`
	Product float64 `json:"product"`
	Angle   float64 `json:"angle"`
	Offer   float64 `json:"offer"`
}

func (b ConfidenceBundle) Min() float64 {
	out := b.Group
	for _, v := range []float64{b.Product, b.Angle, b.Offer} {
		if v < out {
			out = v
		}
	}
	return out
}

// AdGroup is the unit of review. Membership is one-directional: the group owns its assets.
type AdGroup struct {
	ID       string           `json:"id"`
	Type     GroupType        `json:"type"`
	Assets   []ProcessedAsset `json:"assets"`
	AdNumber int              `json:"ad_number"`

	Product  string `json:"product"`
	Angle    string `json:"angle"`
	Hook     string `json:"hook"`
	Creator  string `json:"creator"`
	Offer    bool   `json:"offer"`
	Campaign string `json:"campaign"`
	Date     string `json:"date"`

	PrimaryText       string `json:"primary_text"`
	Headline          string `json:"headline"`
	Description       string `json:"description"`
	CTA               string `json:"cta"`
	URL               string `json:"url"`
	CommentMediaBuyer string `json:"comment_media_buyer"`
	CommentClient     string `json:"comment_client"`

	Evidence      Evidence  `json:"evidence"`
	Inference     Inference `json:"inference"`
	NonConforming bool      `json:"non_conforming"`
	ShapeIssue    string    `json:"shape_issue,omitempty"`
}

// FormatToken is CAR for carousels, VID when any member is a video, IMG otherwise.
func (g AdGroup) FormatToken() string {
	if g.Type == GroupCarousel {
		return "CAR"
	}
	for _, a := range g.Assets {
		if a.Kind == MediaVideo {
			return "VID"
		}
	}
	return "IMG"
}

// IndexOf returns the position of assetID inside the group, or -1.
func (g AdGroup) IndexOf(assetID string) int {
	for i, a := range g.Assets {
		if a.ID == assetID {
			return i
		}
	}
	return -1
}

// OCRCorpus joins member OCR text in display order.
func (g AdGroup) OCRCorpus() string {
	return JoinOCR(g.Assets)
}

func JoinOCR(assets []ProcessedAsset) string {
	parts := make([]string, 0, len(assets))
	for _, a := range assets {
		if a.OCRText != "" {
			parts = append(parts, a.OCRText)
		}
	}
	return strings.Join(parts, " ")
}
