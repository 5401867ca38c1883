// Package leadershipchange persists the append-only change log. Inserts are
// deduplicated by (unit, normalized name, change type, event date) so re-runs
// never duplicate an event.
package leadershipchange

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
	"github.com/Ramsey-B/banyan/pkg/normalizers"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

var changeColumns = []string{
	"id", "unit_id", "person_name", "change_type", "old_title", "new_title",
	"announced_date", "effective_date", "is_c_suite", "is_board",
	"significance_score", "confidence", "source_type", "source_url", "created_at",
}

// Repository handles leadership change persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new leadership change repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a change unless its identity key already exists. Returns
// (nil, nil) for the duplicate case so callers can count real inserts.
func (r *Repository) Create(ctx context.Context, change *models.LeadershipChange) (*models.LeadershipChange, error) {
	ctx, span := tracing.StartSpan(ctx, "leadershipchange.Repository.Create")
	defer span.End()

	if change.ID == "" {
		change.ID = uuid.New().String()
	}
	change.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO leadership_changes (
			id, unit_id, person_name, normalized_name, change_type, old_title,
			new_title, announced_date, effective_date, is_c_suite, is_board,
			significance_score, confidence, source_type, source_url, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (unit_id, normalized_name, change_type, event_date) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		change.ID, change.UnitID, change.PersonName,
		normalizers.NormalizePersonName(change.PersonName), change.ChangeType,
		change.OldTitle, change.NewTitle, change.AnnouncedDate, change.EffectiveDate,
		change.IsCSuite, change.IsBoard, change.SignificanceScore, change.Confidence,
		change.SourceType, change.SourceURL, change.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create leadership change",
			zap.String("unit_id", change.UnitID),
			zap.String("person", change.PersonName),
			zap.Error(err))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create leadership change")
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		r.logger.Debug("skipped duplicate leadership change",
			zap.String("unit_id", change.UnitID),
			zap.String("person", change.PersonName),
			zap.String("change_type", string(change.ChangeType)))
		return nil, nil
	}

	return change, nil
}

// ListByUnit returns a unit's changes at or above a significance floor,
// newest first
func (r *Repository) ListByUnit(ctx context.Context, unitID string, minSignificance int) ([]models.LeadershipChange, error) {
	ctx, span := tracing.StartSpan(ctx, "leadershipchange.Repository.ListByUnit")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(changeColumns...)
	sb.From("leadership_changes")
	sb.Where(sb.Equal("unit_id", unitID))
	if minSignificance > 0 {
		sb.Where(sb.GreaterEqualThan("significance_score", minSignificance))
	}
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	changes := []models.LeadershipChange{}
	if err := r.db.SelectContext(ctx, &changes, query, args...); err != nil {
		r.logger.Error("failed to list leadership changes", zap.String("unit_id", unitID), zap.Error(err))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list leadership changes")
	}

	return changes, nil
}
