package content

import (
	"strings"
	"time"
)

// Stage represents a step in the fixed publishing sequence. Values are a
// stable string contract shared with the store and any API surface.
type Stage string

const (
	StageReviewed         Stage = "reviewed"
	StageTranslated       Stage = "translated"
	StageAudioReady       Stage = "audio-ready"
	StagePackaged         Stage = "packaged"
	StageUploadedAudio    Stage = "uploaded-audio"
	StageUploadedMetadata Stage = "uploaded-metadata"
	StagePublished        Stage = "published"
)

var allStages = []Stage{
	StageReviewed,
	StageTranslated,
	StageAudioReady,
	StagePackaged,
	StageUploadedAudio,
	StageUploadedMetadata,
	StagePublished,
}

var stageOrdinal = func() map[Stage]int {
	m := make(map[Stage]int, len(allStages))
	for i, stage := range allStages {
		m[stage] = i
	}
	return m
}()

// AllStages returns the ordered list of known stages.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageOrdinal[normalized]
	return normalized, ok
}

// Before reports whether s precedes other in the pipeline order.
func (s Stage) Before(other Stage) bool {
	a, okA := stageOrdinal[s]
	b, okB := stageOrdinal[other]
	return okA && okB && a < b
}

// Terminal reports whether the stage has no successor.
func (s Stage) Terminal() bool {
	return s == StagePublished
}

// ReviewDecision is the reviewer verdict on an article.
type ReviewDecision string

const (
	ReviewPending  ReviewDecision = "pending"
	ReviewAccepted ReviewDecision = "accepted"
	ReviewRejected ReviewDecision = "rejected"
)

// StreamingURLs is the structured URL set produced by packaging and upload.
type StreamingURLs struct {
	Playlist string   `json:"playlist"`
	Segments []string `json:"segments,omitempty"`
}

// Review captures the reviewer decision fields. The pipeline reads but
// never writes these.
type Review struct {
	Decision  ReviewDecision
	Score     float64
	Reviewer  string
	Timestamp *time.Time
	Comments  string
}

// Item is one article in one language.
type Item struct {
	ID            string
	Language      string
	Category      string
	Stage         Stage // canonical only on the source-language row
	Title         string
	Body          string
	AudioPath     string
	StreamingURLs *StreamingURLs
	MetadataURL   string
	SocialHook    string
	Review        Review
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Attempt records the most recent per-language outcome of one stage.
type Attempt struct {
	ArticleID   string
	Language    string
	Stage       Stage
	Success     bool
	ErrorKind   string
	ErrorDetail string
	AttemptedAt time.Time
}

// StageCounts aggregates source-language rows per canonical stage.
type StageCounts map[Stage]int

// Total sums all counted rows.
func (c StageCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
