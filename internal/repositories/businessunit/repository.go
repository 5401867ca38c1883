// Package businessunit persists collection targets keyed by their
// (parent, normalized name) natural key.
package businessunit

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
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/database"
	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/normalizers"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// nilParentKey stands in for a NULL parent in the natural-key index so two
// root units with the same name still collide
const nilParentKey = "00000000-0000-0000-0000-000000000000"

var unitColumns = []string{
	"id", "parent_id", "name", "normalized_name", "website", "description",
	"unit_type", "is_public", "registry_id", "jurisdiction", "ownership_pct",
	"domains", "discovery_sources", "created_at", "updated_at",
}

// Repository handles business unit persistence
type Repository struct {
	db     database.DB
	logger *zap.Logger
}

// NewRepository creates a new business unit repository
func NewRepository(db database.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or updates a unit by natural key. Conflicting rows keep
// their existing field values unless the incoming request supplies a
// non-empty one, and discovery_sources is replaced wholesale because the
// caller already ranked it.
func (r *Repository) Upsert(ctx context.Context, req *models.UpsertBusinessUnitRequest) (*models.BusinessUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "businessunit.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	unit := models.BusinessUnit{}

	query := fmt.Sprintf(`
		INSERT INTO business_units (
			id, parent_id, name, normalized_name, website, description,
			unit_type, is_public, registry_id, jurisdiction, ownership_pct,
			domains, discovery_sources, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		ON CONFLICT (COALESCE(parent_id, '%s'::uuid), normalized_name) DO UPDATE SET
			name = EXCLUDED.name,
			website = COALESCE(NULLIF(EXCLUDED.website, ''), business_units.website),
			description = COALESCE(NULLIF(EXCLUDED.description, ''), business_units.description),
			unit_type = EXCLUDED.unit_type,
			is_public = business_units.is_public OR EXCLUDED.is_public,
			registry_id = COALESCE(NULLIF(EXCLUDED.registry_id, ''), business_units.registry_id),
			jurisdiction = COALESCE(NULLIF(EXCLUDED.jurisdiction, ''), business_units.jurisdiction),
			ownership_pct = COALESCE(EXCLUDED.ownership_pct, business_units.ownership_pct),
			domains = CASE WHEN cardinality(EXCLUDED.domains) > 0 THEN EXCLUDED.domains ELSE business_units.domains END,
			discovery_sources = CASE WHEN cardinality(EXCLUDED.discovery_sources) > 0 THEN EXCLUDED.discovery_sources ELSE business_units.discovery_sources END,
			updated_at = EXCLUDED.updated_at
		RETURNING id, parent_id, name, normalized_name, website, description,
			unit_type, is_public, registry_id, jurisdiction, ownership_pct,
			domains, discovery_sources, created_at, updated_at
	`, nilParentKey)

	err := r.db.QueryRowxContext(ctx, query,
		uuid.New().String(), req.ParentID, req.Name, normalizers.NormalizeCompanyName(req.Name),
		req.Website, req.Description, req.UnitType, req.IsPublic, req.RegistryID,
		req.Jurisdiction, req.OwnershipPct, pq.StringArray(req.Domains),
		pq.StringArray(req.DiscoverySources), now,
	).StructScan(&unit)
	if err != nil {
		r.logger.Error("failed to upsert business unit", zap.String("name", req.Name), zap.Error(err))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert business unit")
	}

	return &unit, nil
}

// Get retrieves a unit by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.BusinessUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "businessunit.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(unitColumns...)
	sb.From("business_units")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var unit models.BusinessUnit
	if err := r.db.GetContext(ctx, &unit, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("business unit %s not found", id))
		}
		r.logger.Error("failed to get business unit", zap.String("id", id), zap.Error(err))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get business unit")
	}

	return &unit, nil
}

// ListChildren returns a parent's direct children ordered by name
func (r *Repository) ListChildren(ctx context.Context, parentID string) ([]models.BusinessUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "businessunit.Repository.ListChildren")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(unitColumns...)
	sb.From("business_units")
	sb.Where(sb.Equal("parent_id", parentID))
	sb.OrderBy("name")

	query, args := sb.Build()
	units := []models.BusinessUnit{}
	if err := r.db.SelectContext(ctx, &units, query, args...); err != nil {
		r.logger.Error("failed to list child units", zap.String("parent_id", parentID), zap.Error(err))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list child units")
	}

	return units, nil
}

// List returns all units, roots first
func (r *Repository) List(ctx context.Context) ([]models.BusinessUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "businessunit.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(unitColumns...)
	sb.From("business_units")
	sb.OrderBy("parent_id NULLS FIRST", "name")

	query, args := sb.Build()
	units := []models.BusinessUnit{}
	if err := r.db.SelectContext(ctx, &units, query, args...); err != nil {
		r.logger.Error("failed to list business units", zap.Error(err))
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list business units")
	}

	return units, nil
}
