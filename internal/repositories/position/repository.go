// Package position persists canonical people. At most one row per
// (unit_id, normalized_name) is current; changed rows are superseded in
// place, never deleted.
package position

import (
	"context"
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

var positionColumns = []string{
	"id", "unit_id", "full_name", "normalized_name", "title", "title_level",
	"management_level", "reports_to_id", "department", "bio", "linkedin_url",
	"email", "photo_url", "is_board_member", "is_executive", "confidence",
	"data_sources", "is_current", "created_at", "updated_at", "superseded_at",
}

// Repository handles position persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new position repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListCurrentByUnit returns the unit's current roster, most senior first
func (r *Repository) ListCurrentByUnit(ctx context.Context, unitID string) ([]models.Position, error) {
	ctx, span := tracing.StartSpan(ctx, "position.Repository.ListCurrentByUnit")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(positionColumns...)
	sb.From("positions")
	sb.Where(
		sb.Equal("unit_id", unitID),
		sb.Equal("is_current", true),
	)
	sb.OrderBy("management_level", "full_name")

	query, args := sb.Build()
	positions := []models.Position{}
	if err := r.db.SelectContext(ctx, &positions, query, args...); err != nil {
		r.logger.Error("failed to list positions", zap.String("unit_id", unitID), zap.Error(err))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list positions")
	}

	return positions, nil
}

// Create inserts a new current position
func (r *Repository) Create(ctx context.Context, position *models.Position) (*models.Position, error) {
	ctx, span := tracing.StartSpan(ctx, "position.Repository.Create")
	defer span.End()

	if position.ID == "" {
		position.ID = uuid.New().String()
	}
	position.IsCurrent = true
	position.CreatedAt = time.Now().UTC()
	position.UpdatedAt = position.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("positions")
	sb.Cols(
		"id", "unit_id", "full_name", "normalized_name", "title", "title_level",
		"management_level", "reports_to_id", "department", "bio", "linkedin_url",
		"email", "photo_url", "is_board_member", "is_executive", "confidence",
		"data_sources", "is_current", "created_at", "updated_at",
	)
	sb.Values(
		position.ID, position.UnitID, position.FullName, position.NormalizedName,
		position.Title, position.TitleLevel, position.ManagementLevel,
		position.ReportsToID, position.Department, position.Bio, position.LinkedInURL,
		position.Email, position.PhotoURL, position.IsBoardMember, position.IsExecutive,
		position.Confidence, position.DataSources, position.IsCurrent,
		position.CreatedAt, position.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create position",
			zap.String("unit_id", position.UnitID),
			zap.String("name", position.FullName),
			zap.Error(err))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create position")
	}

	return position, nil
}

// Update rewrites a position's merged fields
func (r *Repository) Update(ctx context.Context, position *models.Position) error {
	ctx, span := tracing.StartSpan(ctx, "position.Repository.Update")
	defer span.End()

	position.UpdatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("positions")
	sb.Set(
		sb.Assign("full_name", position.FullName),
		sb.Assign("title", position.Title),
		sb.Assign("title_level", position.TitleLevel),
		sb.Assign("department", position.Department),
		sb.Assign("bio", position.Bio),
		sb.Assign("linkedin_url", position.LinkedInURL),
		sb.Assign("email", position.Email),
		sb.Assign("photo_url", position.PhotoURL),
		sb.Assign("is_board_member", position.IsBoardMember),
		sb.Assign("is_executive", position.IsExecutive),
		sb.Assign("confidence", position.Confidence),
		sb.Assign("data_sources", position.DataSources),
		sb.Assign("updated_at", position.UpdatedAt),
	)
	sb.Where(sb.Equal("id", position.ID))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to update position", zap.String("id", position.ID), zap.Error(err))
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update position")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "position not found")
	}

	return nil
}

// UpdateHierarchy writes the inferred management level, reporting edge and
// division onto one position
func (r *Repository) UpdateHierarchy(ctx context.Context, positionID string, managementLevel int, reportsToID *string, department string) error {
	ctx, span := tracing.StartSpan(ctx, "position.Repository.UpdateHierarchy")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("positions")
	sb.Set(
		sb.Assign("management_level", managementLevel),
		sb.Assign("reports_to_id", reportsToID),
		sb.Assign("department", department),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(sb.Equal("id", positionID))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to update position hierarchy", zap.String("id", positionID), zap.Error(err))
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update position hierarchy")
	}

	return nil
}

// Supersede retires a position without deleting it. Reporting edges that
// pointed at it are cleared so the next chart build re-infers them.
func (r *Repository) Supersede(ctx context.Context, positionID string) error {
	ctx, span := tracing.StartSpan(ctx, "position.Repository.Supersede")
	defer span.End()

	now := time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("positions")
	sb.Set(
		sb.Assign("is_current", false),
		sb.Assign("superseded_at", now),
		sb.Assign("updated_at", now),
	)
	sb.Where(
		sb.Equal("id", positionID),
		sb.Equal("is_current", true),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to supersede position", zap.String("id", positionID), zap.Error(err))
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to supersede position")
	}

	clear := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	clear.Update("positions")
	clear.Set(clear.Assign("reports_to_id", nil))
	clear.Where(clear.Equal("reports_to_id", positionID))

	query, args = clear.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to clear reporting edges", zap.String("id", positionID), zap.Error(err))
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to clear reporting edges")
	}

	return nil
}
