package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// OrgChartNode is one position in the rendered hierarchy tree
type OrgChartNode struct {
	PositionID      string          `json:"position_id,omitempty"`
	FullName        string          `json:"full_name"`
	Title           string          `json:"title"`
	ManagementLevel int             `json:"management_level"`
	Department      string          `json:"department,omitempty"`
	Reports         []*OrgChartNode `json:"reports,omitempty"`
}

// Depth returns the number of levels in the tree rooted at n
func (n *OrgChartNode) Depth() int {
	if n == nil {
		return 0
	}
	max := 0
	for _, r := range n.Reports {
		if d := r.Depth(); d > max {
			max = d
		}
	}
	return max + 1
}

// OrgChartSnapshot is a persisted, dated rendering of a unit's leadership
// structure. One row per (unit_id, snapshot_date); re-running the builder on
// the same day replaces the row.
type OrgChartSnapshot struct {
	ID           string          `json:"id" db:"id"`
	UnitID       string          `json:"unit_id" db:"unit_id"`
	SnapshotDate time.Time       `json:"snapshot_date" db:"snapshot_date"`
	Tree         json.RawMessage `json:"tree" db:"tree"`
	MaxDepth     int             `json:"max_depth" db:"max_depth"`
	Departments  pq.StringArray  `json:"departments" db:"departments"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}
