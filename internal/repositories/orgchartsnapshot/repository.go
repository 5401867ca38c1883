// Package orgchartsnapshot persists dated chart renderings, one row per
// (unit, date).
package orgchartsnapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/database"
	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

var snapshotColumns = []string{
	"id", "unit_id", "snapshot_date", "tree", "max_depth", "departments",
	"created_at", "updated_at",
}

// Repository handles org chart snapshot persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new snapshot repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert writes the snapshot for (unit, date), replacing a same-day row
func (r *Repository) Upsert(ctx context.Context, snapshot *models.OrgChartSnapshot) error {
	ctx, span := tracing.StartSpan(ctx, "orgchartsnapshot.Repository.Upsert")
	defer span.End()

	if snapshot.ID == "" {
		snapshot.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO org_chart_snapshots (
			id, unit_id, snapshot_date, tree, max_depth, departments,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (unit_id, snapshot_date) DO UPDATE SET
			tree = EXCLUDED.tree,
			max_depth = EXCLUDED.max_depth,
			departments = EXCLUDED.departments,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.ID, snapshot.UnitID, snapshot.SnapshotDate, snapshot.Tree,
		snapshot.MaxDepth, snapshot.Departments, now,
	)
	if err != nil {
		r.logger.Error("failed to upsert snapshot",
			zap.String("unit_id", snapshot.UnitID),
			zap.Time("snapshot_date", snapshot.SnapshotDate),
			zap.Error(err))
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert snapshot")
	}

	return nil
}

// GetLatest returns a unit's most recent snapshot
func (r *Repository) GetLatest(ctx context.Context, unitID string) (*models.OrgChartSnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "orgchartsnapshot.Repository.GetLatest")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(snapshotColumns...)
	sb.From("org_chart_snapshots")
	sb.Where(sb.Equal("unit_id", unitID))
	sb.OrderBy("snapshot_date DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var snapshot models.OrgChartSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no snapshot for unit %s", unitID))
		}
		r.logger.Error("failed to get snapshot", zap.String("unit_id", unitID), zap.Error(err))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get snapshot")
	}

	return &snapshot, nil
}
