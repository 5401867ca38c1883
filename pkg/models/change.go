package models

import (
	"fmt"
	"time"
)

// ChangeType classifies a detected leadership change
type ChangeType string

const (
	ChangeTypeHire             ChangeType = "hire"
	ChangeTypeDeparture        ChangeType = "departure"
	ChangeTypePromotion        ChangeType = "promotion"
	ChangeTypeDemotion         ChangeType = "demotion"
	ChangeTypeLateral          ChangeType = "lateral"
	ChangeTypeRetirement       ChangeType = "retirement"
	ChangeTypeBoardAppointment ChangeType = "board_appointment"
	ChangeTypeBoardDeparture   ChangeType = "board_departure"
	ChangeTypeInterim          ChangeType = "interim"
)

// IsValid reports whether the change type is one of the known values
func (t ChangeType) IsValid() bool {
	switch t {
	case ChangeTypeHire, ChangeTypeDeparture, ChangeTypePromotion, ChangeTypeDemotion,
		ChangeTypeLateral, ChangeTypeRetirement, ChangeTypeBoardAppointment,
		ChangeTypeBoardDeparture, ChangeTypeInterim:
		return true
	}
	return false
}

// LeadershipChange is an append-only record of a detected leadership event.
// Rows are deduplicated by (normalized person name, change_type, date) before insert.
type LeadershipChange struct {
	ID         string     `json:"id" db:"id"`
	UnitID     string     `json:"unit_id" db:"unit_id"`
	PersonName string     `json:"person_name" db:"person_name"`
	ChangeType ChangeType `json:"change_type" db:"change_type"`
	OldTitle   string     `json:"old_title" db:"old_title"`
	NewTitle   string     `json:"new_title" db:"new_title"`

	AnnouncedDate *time.Time `json:"announced_date,omitempty" db:"announced_date"`
	EffectiveDate *time.Time `json:"effective_date,omitempty" db:"effective_date"`

	IsCSuite bool `json:"is_c_suite" db:"is_c_suite"`
	IsBoard  bool `json:"is_board" db:"is_board"`

	// SignificanceScore is a 1-10 heuristic used for alert filtering
	SignificanceScore int        `json:"significance_score" db:"significance_score"`
	Confidence        Confidence `json:"confidence" db:"confidence"`
	SourceType        string     `json:"source_type" db:"source_type"`
	SourceURL         string     `json:"source_url" db:"source_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// EventDate returns the announced date when set, otherwise the effective date.
// Changes with neither date dedupe on the zero date.
func (c *LeadershipChange) EventDate() time.Time {
	if c.AnnouncedDate != nil {
		return *c.AnnouncedDate
	}
	if c.EffectiveDate != nil {
		return *c.EffectiveDate
	}
	return time.Time{}
}

// DedupKey builds the exact-match identity key for a change. The normalized
// name must be produced by the shared name normalizer so that dedup behaves
// identically everywhere.
func (c *LeadershipChange) DedupKey(normalizedName string) string {
	return fmt.Sprintf("%s|%s|%s", normalizedName, c.ChangeType, c.EventDate().Format("2006-01-02"))
}
