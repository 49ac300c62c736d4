package domain

import "strings"

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

type Placement string

const (
	PlacementStory   Placement = "story"
	PlacementFeed    Placement = "feed"
	PlacementSquare  Placement = "square"
	PlacementUnknown Placement = "unknown"
)

// Aspect-ratio windows (width / height) used for placement inference.
const (
	StoryRatioMin     = 0.5
	StoryRatioMax     = 0.6
	FeedRatioMin      = 0.75
	FeedRatioMax      = 1.05
	SquareishMin      = 0.95
	SquareishMax      = 1.05
	CanonicalStory    = 9.0 / 16.0
	CanonicalPortrait = 4.0 / 5.0
	CanonicalSquare   = 1.0
)

// Asset is the immutable record of one source file.
type Asset struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Path      string    `json:"path" yaml:"path"`
	Kind      MediaKind `json:"kind" yaml:"kind"`
	SizeBytes int64     `json:"size_bytes" yaml:"size_bytes"`
}

// ProcessedAsset is an Asset enriched by the analyzer plus reviewer-owned copy fields.
type ProcessedAsset struct {
	Asset `yaml:",inline"`

	Width           int       `json:"width" yaml:"width"`
	Height          int       `json:"height" yaml:"height"`
	DurationSeconds float64   `json:"duration_seconds,omitempty" yaml:"duration_seconds"`
	AspectRatio     float64   `json:"aspect_ratio" yaml:"aspect_ratio"`
	Placement       Placement `json:"placement" yaml:"placement"`
	OCRText         string    `json:"ocr_text" yaml:"ocr_text"`
	Fingerprint     string    `json:"fingerprint,omitempty" yaml:"fingerprint"`
	FrameRefs       []string  `json:"frame_refs,omitempty" yaml:"frame_refs"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty" yaml:"thumbnail_url"`

	Headline       string `json:"headline,omitempty" yaml:"headline"`
	Description    string `json:"description,omitempty" yaml:"description"`
	CustomFilename string `json:"custom_filename,omitempty" yaml:"custom_filename"`
}

// InferPlacement maps a width/height ratio onto a placement slot.
// 4:5 and 1:1 both land in feed; explicit square labels come from the analyzer.
func InferPlacement(ratio float64) Placement {
	switch {
	case ratio >= StoryRatioMin && ratio <= StoryRatioMax:
		return PlacementStory
	case ratio >= FeedRatioMin && ratio <= FeedRatioMax:
		return PlacementFeed
	default:
		return PlacementUnknown
	}
}

// Ratio returns the analyzer ratio, falling back to the pixel dimensions.
func (a ProcessedAsset) Ratio() float64 {
	if a.AspectRatio > 0 {
		return a.AspectRatio
	}
	if a.Width > 0 && a.Height > 0 {
		return float64(a.Width) / float64(a.Height)
	}
	return 0
}

// EffectivePlacement is the analyzer label when known, otherwise inferred from the ratio.
func (a ProcessedAsset) EffectivePlacement() Placement {
	switch a.Placement {
	case PlacementStory, PlacementFeed, PlacementSquare:
		return a.Placement
	}
	return InferPlacement(a.Ratio())
}

func (a ProcessedAsset) IsStory() bool {
	return a.EffectivePlacement() == PlacementStory
}

// IsFeedCompatible reports whether the asset can fill the feed slot of a standard pair.
func (a ProcessedAsset) IsFeedCompatible() bool {
	p := a.EffectivePlacement()
	return p == PlacementFeed || p == PlacementSquare
}

// IsSquareish reports carousel-card eligibility.
func (a ProcessedAsset) IsSquareish() bool {
	if a.Placement == PlacementSquare {
		return true
	}
	r := a.Ratio()
	return r >= SquareishMin && r <= SquareishMax
}

// TypeToken is the per-asset media token used in filenames.
func (a ProcessedAsset) TypeToken() string {
	if a.Kind == MediaVideo {
		return "VID"
	}
	return "IMG"
}

// Extension returns the suffix after the last dot of the source name, or "jpg".
func (a ProcessedAsset) Extension() string {
	idx := strings.LastIndex(a.Name, ".")
	if idx < 0 || idx == len(a.Name)-1 {
		return "jpg"
	}
	return a.Name[idx+1:]
}
