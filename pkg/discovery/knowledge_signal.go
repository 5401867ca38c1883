package discovery

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/classify"
	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// KnowledgeSignal asks the classifier what it already knows about the
// parent's structure. This is the weakest signal: it fills gaps the registry
// and website leave, and never overrides them.
type KnowledgeSignal struct {
	classifier classify.Classifier
	logger     *zap.Logger
}

// NewKnowledgeSignal creates the general-knowledge discovery signal
func NewKnowledgeSignal(classifier classify.Classifier, logger *zap.Logger) *KnowledgeSignal {
	return &KnowledgeSignal{
		classifier: classifier,
		logger:     logger,
	}
}

// Name implements Signal
func (s *KnowledgeSignal) Name() string {
	return SignalKnowledge
}

// Discover queries the classifier's general knowledge for well-known
// subsidiaries and divisions. An unusable reply contributes nothing.
func (s *KnowledgeSignal) Discover(ctx context.Context, parent *models.BusinessUnit, budget Budget) ([]Candidate, error) {
	ctx, span := tracing.StartSpan(ctx, "discovery.KnowledgeSignal.Discover")
	defer span.End()

	prompt := fmt.Sprintf(`List the major subsidiaries, divisions and affiliate companies of %s.
Only include entities you are confident actually exist. Respond with a JSON
array of objects with keys: name, website, description, unit_type (one of
division, subsidiary, affiliate). Respond with [] if you are not sure.`, parent.Name)

	raw, err := s.classifier.Classify(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("knowledge lookup failed: %w", err)
	}

	var dtos []candidateDTO
	if !classify.Decode(raw, &dtos) {
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(dtos))
	for _, dto := range dtos {
		name := strings.TrimSpace(dto.Name)
		if name == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			Name:        name,
			Website:     strings.TrimSpace(dto.Website),
			Description: strings.TrimSpace(dto.Description),
			UnitType:    models.UnitType(strings.ToLower(strings.TrimSpace(dto.UnitType))),
			Sources:     []string{SignalKnowledge},
		})
	}

	s.logger.Debug("knowledge signal complete",
		zap.String("parent", parent.Name),
		zap.Int("candidates", len(candidates)))

	return candidates, nil
}
