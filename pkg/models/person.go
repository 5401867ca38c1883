package models

import (
	"time"

	"github.com/lib/pq"
)

// Confidence tags any extracted fact. Merges promote to the highest value seen.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders confidence values for promotion (higher wins)
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// Promote returns the higher-ranked of two confidence values
func (c Confidence) Promote(other Confidence) Confidence {
	if other.Rank() > c.Rank() {
		return other
	}
	return c
}

// ParseConfidence maps a free-form string onto the closed confidence set,
// defaulting to low for anything unrecognized.
func ParseConfidence(s string) Confidence {
	switch Confidence(s) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return Confidence(s)
	}
	return ConfidenceLow
}

// TitleLevel is the coarse hierarchy rank derived from a free-text title
type TitleLevel string

const (
	TitleLevelCSuite     TitleLevel = "c_suite"
	TitleLevelPresident  TitleLevel = "president"
	TitleLevelEVP        TitleLevel = "evp"
	TitleLevelSVP        TitleLevel = "svp"
	TitleLevelVP         TitleLevel = "vp"
	TitleLevelDirector   TitleLevel = "director"
	TitleLevelManager    TitleLevel = "manager"
	TitleLevelBoard      TitleLevel = "board"
	TitleLevelIndividual TitleLevel = "individual"
	TitleLevelUnknown    TitleLevel = "unknown"
)

// ExtractedPerson is a raw person record produced by an evidence source.
// It exists only between source collection and entity resolution.
type ExtractedPerson struct {
	FullName       string     `json:"full_name"`
	Title          string     `json:"title"`
	TitleLevel     TitleLevel `json:"title_level"`
	Department     string     `json:"department"`
	Bio            string     `json:"bio"`
	LinkedInURL    string     `json:"linkedin_url"`
	Email          string     `json:"email"`
	PhotoURL       string     `json:"photo_url"`
	ReportsToName  string     `json:"reports_to_name"`
	IsBoardMember  bool       `json:"is_board_member"`
	IsExecutive    bool       `json:"is_executive"`
	Confidence     Confidence `json:"confidence"`
	SourceURL      string     `json:"source_url"`
	ProvenanceNote string     `json:"provenance_note"`
}

// Position is the canonical, persisted identity for a person within one unit.
// At most one row per (unit_id, normalized_name) has is_current=true; changed
// rows are superseded, never deleted.
type Position struct {
	ID             string     `json:"id" db:"id"`
	UnitID         string     `json:"unit_id" db:"unit_id"`
	FullName       string     `json:"full_name" db:"full_name"`
	NormalizedName string     `json:"normalized_name" db:"normalized_name"`
	Title          string     `json:"title" db:"title"`
	TitleLevel     TitleLevel `json:"title_level" db:"title_level"`

	// ManagementLevel is the numeric seniority rank: 1=CEO ... 9=unknown
	ManagementLevel int     `json:"management_level" db:"management_level"`
	ReportsToID     *string `json:"reports_to_id,omitempty" db:"reports_to_id"`

	Department    string     `json:"department" db:"department"`
	Bio           string     `json:"bio" db:"bio"`
	LinkedInURL   string     `json:"linkedin_url" db:"linkedin_url"`
	Email         string     `json:"email" db:"email"`
	PhotoURL      string     `json:"photo_url" db:"photo_url"`
	IsBoardMember bool       `json:"is_board_member" db:"is_board_member"`
	IsExecutive   bool       `json:"is_executive" db:"is_executive"`
	Confidence    Confidence `json:"confidence" db:"confidence"`

	DataSources pq.StringArray `json:"data_sources" db:"data_sources"`

	IsCurrent    bool       `json:"is_current" db:"is_current"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	SupersededAt *time.Time `json:"superseded_at,omitempty" db:"superseded_at"`
}
