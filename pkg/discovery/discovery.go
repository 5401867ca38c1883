// Package discovery maps a parent company's corporate structure by merging
// three independent signals: registry filings, the parent's own website, and
// general knowledge. Registry data outranks the website, which outranks
// general knowledge; lower-ranked signals only fill gaps.
package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/normalizers"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// Candidate is one discovered unit before merge and persistence
type Candidate struct {
	Name         string
	Website      string
	Description  string
	UnitType     models.UnitType
	IsPublic     bool
	Jurisdiction string
	OwnershipPct *float64

	// Sources lists the contributing signals, highest priority first
	Sources []string
}

// Budget bounds the work a discovery signal may do
type Budget struct {
	MaxPages int
	MaxDepth int
}

// Signal produces structure candidates for a parent from one evidence channel
type Signal interface {
	Name() string
	Discover(ctx context.Context, parent *models.BusinessUnit, budget Budget) ([]Candidate, error)
}

// UnitStore persists discovered units by natural key
type UnitStore interface {
	Upsert(ctx context.Context, req *models.UpsertBusinessUnitRequest) (*models.BusinessUnit, error)
}

// Discoverer runs the configured signals and persists the merged structure
type Discoverer struct {
	signals []Signal
	store   UnitStore
	logger  *zap.Logger
}

// NewDiscoverer creates a Discoverer. Signal order does not matter; merge
// priority comes from the signal names.
func NewDiscoverer(signals []Signal, store UnitStore, logger *zap.Logger) *Discoverer {
	return &Discoverer{
		signals: signals,
		store:   store,
		logger:  logger,
	}
}

// Result is the outcome of one discovery pass
type Result struct {
	Units    []*models.BusinessUnit
	Warnings []string
}

// Discover collects candidates from every signal, merges them by normalized
// name, drops likely shell entities, caps the list at maxUnits and upserts
// the rest under the parent. A failing signal degrades to a warning; discovery
// fails outright only when persistence does.
func (d *Discoverer) Discover(ctx context.Context, parent *models.BusinessUnit, budget Budget, maxUnits int) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "discovery.Discoverer.Discover")
	defer span.End()

	result := &Result{}

	var candidates []Candidate
	for _, signal := range d.signals {
		found, err := signal.Discover(ctx, parent, budget)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("discovery: %s signal failed: %v", signal.Name(), err))
			continue
		}
		candidates = append(candidates, found...)
	}

	merged := MergeCandidates(candidates, normalizers.NormalizeCompanyName(parent.Name))
	kept := merged[:0]
	for _, candidate := range merged {
		if IsLikelyShell(candidate) {
			d.logger.Debug("dropping likely shell entity",
				zap.String("name", candidate.Name),
				zap.String("parent", parent.Name))
			continue
		}
		kept = append(kept, candidate)
	}
	if maxUnits > 0 && len(kept) > maxUnits {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("discovery: capped %d candidates at %d units", len(kept), maxUnits))
		kept = kept[:maxUnits]
	}

	for _, candidate := range kept {
		unit, err := d.store.Upsert(ctx, candidateToUpsert(parent, candidate))
		if err != nil {
			return nil, fmt.Errorf("failed to persist discovered unit %q: %w", candidate.Name, err)
		}
		result.Units = append(result.Units, unit)
	}

	d.logger.Info("structure discovery complete",
		zap.String("parent", parent.Name),
		zap.Int("candidates", len(candidates)),
		zap.Int("units", len(result.Units)))

	return result, nil
}

func candidateToUpsert(parent *models.BusinessUnit, candidate Candidate) *models.UpsertBusinessUnitRequest {
	unitType := candidate.UnitType
	if !unitType.IsValid() {
		unitType = models.UnitTypeSubsidiary
	}

	var domains []string
	if domain := normalizers.DomainOf(candidate.Website); domain != "" {
		domains = []string{domain}
	}

	return &models.UpsertBusinessUnitRequest{
		ParentID:         &parent.ID,
		Name:             candidate.Name,
		Website:          candidate.Website,
		Description:      candidate.Description,
		UnitType:         unitType,
		IsPublic:         candidate.IsPublic,
		Jurisdiction:     candidate.Jurisdiction,
		OwnershipPct:     candidate.OwnershipPct,
		Domains:          domains,
		DiscoverySources: candidate.Sources,
	}
}
