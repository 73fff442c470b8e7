// Package types defines the raw and canonical profile domain types shared across packages.
package types

import (
	"github.com/google/uuid"
)

// RawExperience is one work-history fragment extracted from a single source
// document (or entered manually), prior to cross-document merging.
type RawExperience struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Company   string      `json:"company"`
	Title     string      `json:"title"`
	Location  string      `json:"location,omitempty"`
	StartDate string      `json:"start_date,omitempty"` // loosely formatted: "2019", "2019-07", ISO, "present"
	EndDate   string      `json:"end_date,omitempty"`
	IsCurrent bool        `json:"is_current"`
	Bullets   []RawBullet `json:"bullets,omitempty"`
}

// RawBullet is a single achievement bullet owned by one RawExperience.
type RawBullet struct {
	ID          uuid.UUID `json:"id"`
	Content     string    `json:"content"`
	SourceCount int       `json:"source_count"`
	Importance  *float64  `json:"importance,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// RawSkill is a free-text skill string as typed or extracted upstream.
type RawSkill struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	SourceCount int       `json:"source_count"`
}

// BulletCandidate is the dedupe input shape: one raw bullet flattened out of its
// experience, carrying everything the deduper needs to cluster and rank it.
type BulletCandidate struct {
	SourceID    uuid.UUID `json:"source_id"`
	Content     string    `json:"content"`
	SourceCount int       `json:"source_count"`
	Importance  float64   `json:"importance"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// DedupedBullet is one representative bullet surviving deduplication, with
// attribution back to every raw bullet it stands for.
type DedupedBullet struct {
	ID                     uuid.UUID   `json:"id"`
	Content                string      `json:"content"`
	RepresentativeSourceID uuid.UUID   `json:"representative_source_id"`
	SupportingSourceIDs    []uuid.UUID `json:"supporting_source_ids,omitempty"`
	SourceCount            int         `json:"source_count"`
	AvgSimilarity          float64     `json:"avg_similarity"`
	Embedding              []float32   `json:"embedding,omitempty"`
}

// CanonicalExperience is the merged representation of one employer stint.
type CanonicalExperience struct {
	ID                  uuid.UUID       `json:"id"`
	UserID              uuid.UUID       `json:"user_id"`
	CompanyKey          string          `json:"company_key"`
	CompanyName         string          `json:"company_name"`
	PrimaryTitle        string          `json:"primary_title"`
	TitleProgression    []string        `json:"title_progression"` // most recent first, distinct
	PrimaryLocation     string          `json:"primary_location,omitempty"`
	Locations           []string        `json:"locations,omitempty"`
	StartDate           string          `json:"start_date,omitempty"` // rendered in source granularity
	EndDate             string          `json:"end_date,omitempty"`   // "Present" or rendered date
	IsCurrent           bool            `json:"is_current"`
	SourceExperienceIDs []uuid.UUID     `json:"source_experience_ids"`
	Bullets             []DedupedBullet `json:"bullets,omitempty"`
}

// CanonicalSkill is one controlled-vocabulary skill aggregated across raw skills.
type CanonicalSkill struct {
	ID             uuid.UUID   `json:"id"`
	UserID         uuid.UUID   `json:"user_id"`
	Key            string      `json:"key"`
	Label          string      `json:"label"`
	Category       string      `json:"category"`
	SourceSkillIDs []uuid.UUID `json:"source_skill_ids"`
	SourceCount    int         `json:"source_count"`
	Weight         int         `json:"weight"`
}

// CanonicalProfile is the full rebuilt output for one user.
type CanonicalProfile struct {
	Experiences []CanonicalExperience `json:"experiences"`
	Skills      []CanonicalSkill      `json:"skills"`
}
