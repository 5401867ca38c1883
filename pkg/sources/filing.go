package sources

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/classify"
	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/registry"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// proxyFormType is the filing that lists officers and the board
const proxyFormType = "DEF 14A"

// FilingSource extracts officers and directors from the unit's most recent
// proxy filing. Filings are authoritative, so records carry high confidence.
type FilingSource struct {
	registry   *registry.Client
	classifier classify.Classifier
	logger     *zap.Logger
}

// NewFilingSource creates the regulatory-filing source
func NewFilingSource(registry *registry.Client, classifier classify.Classifier, logger *zap.Logger) *FilingSource {
	return &FilingSource{
		registry:   registry,
		classifier: classifier,
		logger:     logger,
	}
}

// Name implements Source
func (s *FilingSource) Name() string {
	return "filing"
}

// Applicable implements Source. Only registry-listed units have filings.
func (s *FilingSource) Applicable(unit *models.BusinessUnit) bool {
	return unit != nil && unit.RegistryID != ""
}

// Collect fetches the latest proxy filing and extracts the people it names.
// A unit with no filing on record is a normal empty result.
func (s *FilingSource) Collect(ctx context.Context, unit *models.BusinessUnit, budget Budget) (*CollectOutput, error) {
	ctx, span := tracing.StartSpan(ctx, "sources.FilingSource.Collect")
	defer span.End()

	out := &CollectOutput{}

	text, err := s.registry.GetLatestFilingText(ctx, unit.RegistryID, proxyFormType)
	if err != nil {
		return nil, fmt.Errorf("filing fetch failed for %s: %w", unit.Name, err)
	}
	if text == "" {
		s.logger.Debug("no proxy filing on record",
			zap.String("unit", unit.Name),
			zap.String("registry_id", unit.RegistryID))
		return out, nil
	}

	prompt := fmt.Sprintf(`Extract every executive officer and board member named in this proxy filing
excerpt for %s. Respond with a JSON array of objects with keys: name, title,
department, bio, is_board_member. Respond with [] if none are named.

Filing text:
%s`, unit.Name, truncate(text, 24000))

	raw, err := s.classifier.Classify(ctx, prompt)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("filing: extraction call failed for %s: %v", unit.Name, err))
		return out, nil
	}

	var dtos []extractedPersonDTO
	if !classify.Decode(raw, &dtos) {
		return out, nil
	}

	out.People = toPeople(dtos, s.Name(), "", models.ConfidenceHigh)

	s.logger.Debug("filing collection complete",
		zap.String("unit", unit.Name),
		zap.Int("people", len(out.People)))

	return out, nil
}
