package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/registry"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// RegistrySignal reads the parent's subsidiary exhibit from the filings
// registry. This is the authoritative structure signal.
type RegistrySignal struct {
	registry *registry.Client
	logger   *zap.Logger
}

// NewRegistrySignal creates the registry-backed discovery signal
func NewRegistrySignal(client *registry.Client, logger *zap.Logger) *RegistrySignal {
	return &RegistrySignal{
		registry: client,
		logger:   logger,
	}
}

// Name implements Signal
func (s *RegistrySignal) Name() string {
	return SignalRegistry
}

// Discover returns the filed subsidiary list. Parents without a registry ID,
// or with no exhibit on file, contribute nothing.
func (s *RegistrySignal) Discover(ctx context.Context, parent *models.BusinessUnit, budget Budget) ([]Candidate, error) {
	ctx, span := tracing.StartSpan(ctx, "discovery.RegistrySignal.Discover")
	defer span.End()

	if parent.RegistryID == "" {
		return nil, nil
	}

	subsidiaries, err := s.registry.GetSubsidiaries(ctx, parent.RegistryID)
	if err != nil {
		return nil, fmt.Errorf("subsidiary lookup failed: %w", err)
	}

	candidates := make([]Candidate, 0, len(subsidiaries))
	for _, sub := range subsidiaries {
		candidates = append(candidates, Candidate{
			Name:         sub.Name,
			UnitType:     models.UnitTypeSubsidiary,
			Jurisdiction: sub.Jurisdiction,
			OwnershipPct: sub.OwnershipPct,
			Sources:      []string{SignalRegistry},
		})
	}

	s.logger.Debug("registry signal complete",
		zap.String("parent", parent.Name),
		zap.Int("subsidiaries", len(candidates)))

	return candidates, nil
}
