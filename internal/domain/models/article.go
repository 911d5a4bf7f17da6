package models

import "time"

// Article is one entry of the upstream ranking page for a single cycle.
// Score is filled in by the scorer and must not be set by callers.
type Article struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	SourceRank  int        `json:"source_rank"`
	PublishTime *time.Time `json:"publish_time,omitempty"`
	Score       float64    `json:"score"`
}

// ScoredArticle is the audit row emitted for every article that survived scoring.
type ScoredArticle struct {
	ID          string     `json:"article_id"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	SourceRank  int        `json:"source_rank"`
	PublishTime *time.Time `json:"publish_time,omitempty"`
	Score       float64    `json:"score"`
}

const unknownPublishTime = "unknown"

// PublishedLabel renders the resolved publish time, or "unknown".
func (a ScoredArticle) PublishedLabel() string {
	if a.PublishTime == nil {
		return unknownPublishTime
	}
	return a.PublishTime.Format(time.DateTime)
}
