package models

import (
	"time"

	"github.com/lib/pq"
)

// UnitType classifies how a business unit relates to its parent
type UnitType string

const (
	UnitTypeParent     UnitType = "parent"
	UnitTypeDivision   UnitType = "division"
	UnitTypeSubsidiary UnitType = "subsidiary"
	UnitTypeAffiliate  UnitType = "affiliate"
)

// IsValid reports whether the unit type is one of the known values
func (t UnitType) IsValid() bool {
	switch t {
	case UnitTypeParent, UnitTypeDivision, UnitTypeSubsidiary, UnitTypeAffiliate:
		return true
	}
	return false
}

// BusinessUnit is a collection target: a parent company, subsidiary, division or affiliate.
// Unique per (parent_id, normalized_name). Units are upserted by discovery runs and never deleted.
type BusinessUnit struct {
	ID             string  `json:"id" db:"id"`
	ParentID       *string `json:"parent_id,omitempty" db:"parent_id"`
	Name           string  `json:"name" db:"name"`
	NormalizedName string  `json:"normalized_name" db:"normalized_name"`
	Website        string  `json:"website" db:"website"`
	Description    string  `json:"description" db:"description"`
	UnitType       UnitType `json:"unit_type" db:"unit_type"`
	IsPublic       bool    `json:"is_public" db:"is_public"`
	RegistryID     string  `json:"registry_id" db:"registry_id"` // e.g. SEC CIK
	Jurisdiction   string  `json:"jurisdiction" db:"jurisdiction"`
	OwnershipPct   *float64 `json:"ownership_pct,omitempty" db:"ownership_pct"`

	Domains          pq.StringArray `json:"domains" db:"domains"`
	DiscoverySources pq.StringArray `json:"discovery_sources" db:"discovery_sources"` // ranked, highest priority first

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UpsertBusinessUnitRequest is the input for creating/updating a unit by natural key
type UpsertBusinessUnitRequest struct {
	ParentID         *string  `json:"parent_id,omitempty"`
	Name             string   `json:"name" validate:"required"`
	Website          string   `json:"website"`
	Description      string   `json:"description"`
	UnitType         UnitType `json:"unit_type" validate:"required"`
	IsPublic         bool     `json:"is_public"`
	RegistryID       string   `json:"registry_id"`
	Jurisdiction     string   `json:"jurisdiction"`
	OwnershipPct     *float64 `json:"ownership_pct,omitempty"`
	Domains          []string `json:"domains"`
	DiscoverySources []string `json:"discovery_sources"`
}
