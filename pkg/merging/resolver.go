package merging

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/normalizers"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// PositionStore is the slice of position persistence the resolver needs
type PositionStore interface {
	ListCurrentByUnit(ctx context.Context, unitID string) ([]models.Position, error)
	Create(ctx context.Context, position *models.Position) error
	Update(ctx context.Context, position *models.Position) error
}

// Resolver reconciles deduplicated extractions against the persisted
// canonical roster of one unit.
type Resolver struct {
	logger    *zap.Logger
	positions PositionStore
}

// NewResolver creates a new Resolver
func NewResolver(logger *zap.Logger, positions PositionStore) *Resolver {
	return &Resolver{
		logger:    logger,
		positions: positions,
	}
}

// Resolve merges an extraction batch into the unit's current roster. Existing
// positions are matched by normalized profile URL first, then by normalized
// name; a name match never crosses unit boundaries because the roster is
// loaded per unit. Returns how many positions were created and updated.
func (r *Resolver) Resolve(ctx context.Context, unitID string, people []models.ExtractedPerson) (int, int, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Resolver.Resolve")
	defer span.End()

	log := r.logger.With(zap.String("unit_id", unitID), zap.Int("extracted", len(people)))

	canonical := DedupeExtracted(people)

	current, err := r.positions.ListCurrentByUnit(ctx, unitID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load current roster: %w", err)
	}

	byURL := make(map[string]*models.Position, len(current))
	byName := make(map[string]*models.Position, len(current))
	for i := range current {
		pos := &current[i]
		if u := normalizers.NormalizeURL(pos.LinkedInURL); u != "" {
			byURL[u] = pos
		}
		byName[pos.NormalizedName] = pos
	}

	created, updated := 0, 0
	for _, person := range canonical {
		var existing *models.Position
		if u := normalizers.NormalizeURL(person.LinkedInURL); u != "" {
			existing = byURL[u]
		}
		if existing == nil {
			existing = byName[normalizers.NormalizePersonName(person.FullName)]
		}

		if existing == nil {
			pos := newPosition(unitID, person)
			if err := r.positions.Create(ctx, pos); err != nil {
				return created, updated, fmt.Errorf("failed to create position for %q: %w", person.FullName, err)
			}
			byName[pos.NormalizedName] = pos
			if u := normalizers.NormalizeURL(pos.LinkedInURL); u != "" {
				byURL[u] = pos
			}
			created++
			continue
		}

		if applyExtraction(existing, person) {
			if err := r.positions.Update(ctx, existing); err != nil {
				return created, updated, fmt.Errorf("failed to update position for %q: %w", person.FullName, err)
			}
			updated++
		}
	}

	log.Debug("resolved extraction batch",
		zap.Int("canonical", len(canonical)),
		zap.Int("created", created),
		zap.Int("updated", updated))

	return created, updated, nil
}

func newPosition(unitID string, p models.ExtractedPerson) *models.Position {
	titleLevel := p.TitleLevel
	if titleLevel == "" {
		titleLevel = models.TitleLevelUnknown
	}
	confidence := p.Confidence
	if confidence == "" {
		confidence = models.ConfidenceLow
	}

	pos := &models.Position{
		UnitID:         unitID,
		FullName:       p.FullName,
		NormalizedName: normalizers.NormalizePersonName(p.FullName),
		Title:          p.Title,
		TitleLevel:     titleLevel,
		Department:     p.Department,
		Bio:            p.Bio,
		LinkedInURL:    p.LinkedInURL,
		Email:          p.Email,
		PhotoURL:       p.PhotoURL,
		IsBoardMember:  p.IsBoardMember,
		IsExecutive:    p.IsExecutive,
		Confidence:     confidence,
		IsCurrent:      true,
	}
	if note := p.ProvenanceNote; note != "" {
		pos.DataSources = append(pos.DataSources, note)
	}
	return pos
}

// applyExtraction merges an extracted record into a persisted position under
// the fill-gaps policy. A fresher title at equal-or-higher confidence does
// replace the stored one so promotions reach the roster. Returns true when
// any field changed.
func applyExtraction(pos *models.Position, p models.ExtractedPerson) bool {
	changed := false

	fill := func(dst *string, incoming string) {
		if *dst == "" && incoming != "" {
			*dst = incoming
			changed = true
		}
	}
	fill(&pos.Department, p.Department)
	fill(&pos.Bio, p.Bio)
	fill(&pos.LinkedInURL, p.LinkedInURL)
	fill(&pos.Email, p.Email)
	fill(&pos.PhotoURL, p.PhotoURL)

	if p.Title != "" && p.Confidence.Rank() >= pos.Confidence.Rank() {
		if normalizers.NormalizeTitle(p.Title) != normalizers.NormalizeTitle(pos.Title) {
			pos.Title = p.Title
			if p.TitleLevel != "" {
				pos.TitleLevel = p.TitleLevel
			}
			changed = true
		}
	}
	if pos.Title == "" && p.Title != "" {
		pos.Title = p.Title
		if p.TitleLevel != "" {
			pos.TitleLevel = p.TitleLevel
		}
		changed = true
	}

	if p.IsBoardMember && !pos.IsBoardMember {
		pos.IsBoardMember = true
		changed = true
	}
	if p.IsExecutive && !pos.IsExecutive {
		pos.IsExecutive = true
		changed = true
	}

	if promoted := pos.Confidence.Promote(p.Confidence); promoted != pos.Confidence {
		pos.Confidence = promoted
		changed = true
	}

	if note := p.ProvenanceNote; note != "" {
		seen := false
		for _, s := range pos.DataSources {
			if s == note {
				seen = true
				break
			}
		}
		if !seen {
			pos.DataSources = append(pos.DataSources, note)
			changed = true
		}
	}

	return changed
}
