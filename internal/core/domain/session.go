package domain

import "time"

// Session is one review session: a grouping run and every edit made to it since.
type Session struct {
	ID        string        `json:"id"`
	Snapshot  GroupedAssets `json:"snapshot"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// AnalysisRequest asks for a fresh grouping run over analyzed assets.
// An empty SessionID lets the service assign one.
type AnalysisRequest struct {
	SessionID     string           `json:"session_id,omitempty"`
	Assets        []ProcessedAsset `json:"assets"`
	StartNumber   int              `json:"start_number,omitempty"`
	Campaign      string           `json:"campaign,omitempty"`
	Date          string           `json:"date,omitempty"`
	MonthCampaign bool             `json:"month_campaign,omitempty"`
	RequestedAt   time.Time        `json:"requested_at,omitzero"`
}

// SnapshotEvent announces that a session now holds a new snapshot version.
type SnapshotEvent struct {
	SessionID string    `json:"session_id"`
	Version   int64     `json:"version"`
	Operation string    `json:"operation"`
	At        time.Time `json:"at"`
}

// Artifact is an encoded export ready to be served or stored.
type Artifact struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"-"`
}
