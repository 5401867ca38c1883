// Package changes diffs leadership rosters into typed change events and
// scores how much each one matters.
package changes

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/matching"
	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/normalizers"
	"github.com/Ramsey-B/banyan/pkg/orgchart"
)

// Options tunes one detection pass
type Options struct {
	// NameSimilarityThreshold is the fuzzy-match cutoff for pairing old and
	// new roster entries
	NameSimilarityThreshold float64

	// DepartureConfidence rates absence-based departures. Absence from one
	// collection pass is weak evidence, so this defaults low.
	DepartureConfidence models.Confidence
}

func (o Options) normalize() Options {
	if o.NameSimilarityThreshold <= 0 {
		o.NameSimilarityThreshold = 0.85
	}
	if o.DepartureConfidence == "" {
		o.DepartureConfidence = models.ConfidenceLow
	}
	return o
}

// Detector diffs an old persisted roster against freshly extracted people
type Detector struct {
	scorer *matching.Scorer
	logger *zap.Logger
	now    func() time.Time
}

// NewDetector creates a Detector
func NewDetector(logger *zap.Logger) *Detector {
	return &Detector{
		scorer: matching.NewScorer(),
		logger: logger,
		now:    time.Now,
	}
}

// Detect pairs old and new roster entries by fuzzy name match, then emits
// title changes for the pairs, hires for unmatched new people and departures
// for unmatched old ones. Every change carries a significance score; the
// caller filters and dedupes.
func (d *Detector) Detect(unitID string, old []models.Position, current []models.ExtractedPerson, opts Options) []models.LeadershipChange {
	opts = opts.normalize()
	observed := d.now().UTC()

	oldNames := make([]string, len(old))
	for i, position := range old {
		oldNames[i] = position.NormalizedName
	}
	newNames := make([]string, len(current))
	for i, person := range current {
		newNames[i] = normalizers.NormalizePersonName(person.FullName)
	}

	assignments := d.scorer.AssignRosters(oldNames, newNames, opts.NameSimilarityThreshold)

	matchedOld := make(map[int]bool, len(assignments))
	matchedNew := make(map[int]bool, len(assignments))
	var detected []models.LeadershipChange

	for _, assignment := range assignments {
		matchedOld[assignment.OldIndex] = true
		matchedNew[assignment.NewIndex] = true

		if change, ok := titleChange(unitID, old[assignment.OldIndex], current[assignment.NewIndex], observed); ok {
			detected = append(detected, change)
		}
	}

	for i, person := range current {
		if matchedNew[i] {
			continue
		}
		detected = append(detected, arrival(unitID, person, observed))
	}

	for i, position := range old {
		if matchedOld[i] {
			continue
		}
		detected = append(detected, departure(unitID, position, observed, opts.DepartureConfidence))
	}

	for i := range detected {
		detected[i].SignificanceScore = ScoreSignificance(detected[i])
	}

	d.logger.Debug("change detection complete",
		zap.String("unit_id", unitID),
		zap.Int("old_roster", len(old)),
		zap.Int("new_roster", len(current)),
		zap.Int("changes", len(detected)))

	return detected
}

// titleChange classifies a matched pair whose title moved. Titles that
// normalize identically are not a change at all.
func titleChange(unitID string, old models.Position, current models.ExtractedPerson, observed time.Time) (models.LeadershipChange, bool) {
	oldTitle := normalizers.NormalizeTitle(old.Title)
	newTitle := normalizers.NormalizeTitle(current.Title)
	if oldTitle == newTitle || newTitle == "" {
		return models.LeadershipChange{}, false
	}

	var changeType models.ChangeType
	switch oldRank, newRank := orgchart.SeniorityRank(old.Title), orgchart.SeniorityRank(current.Title); {
	case strings.Contains(newTitle, "interim"):
		changeType = models.ChangeTypeInterim
	case newRank > oldRank:
		changeType = models.ChangeTypePromotion
	case newRank < oldRank:
		changeType = models.ChangeTypeDemotion
	default:
		changeType = models.ChangeTypeLateral
	}

	change := models.LeadershipChange{
		UnitID:        unitID,
		PersonName:    current.FullName,
		ChangeType:    changeType,
		OldTitle:      old.Title,
		NewTitle:      current.Title,
		EffectiveDate: &observed,
		Confidence:    current.Confidence,
		SourceType:    current.ProvenanceNote,
		SourceURL:     current.SourceURL,
	}
	applyRoleFlags(&change, current.Title, current.IsBoardMember || old.IsBoardMember)
	return change, true
}

// arrival emits a hire, or a board appointment for board-only members.
// A single sighting is moderate evidence at best.
func arrival(unitID string, person models.ExtractedPerson, observed time.Time) models.LeadershipChange {
	changeType := models.ChangeTypeHire
	if person.IsBoardMember && !person.IsExecutive {
		changeType = models.ChangeTypeBoardAppointment
	} else if strings.Contains(normalizers.NormalizeTitle(person.Title), "interim") {
		changeType = models.ChangeTypeInterim
	}

	confidence := models.ConfidenceMedium
	if person.Confidence.Rank() < confidence.Rank() {
		confidence = person.Confidence
	}

	change := models.LeadershipChange{
		UnitID:        unitID,
		PersonName:    person.FullName,
		ChangeType:    changeType,
		NewTitle:      person.Title,
		EffectiveDate: &observed,
		Confidence:    confidence,
		SourceType:    person.ProvenanceNote,
		SourceURL:     person.SourceURL,
	}
	applyRoleFlags(&change, person.Title, person.IsBoardMember)
	return change
}

// departure emits a departure, or a board departure for board-only members,
// inferred from absence alone.
func departure(unitID string, position models.Position, observed time.Time, confidence models.Confidence) models.LeadershipChange {
	changeType := models.ChangeTypeDeparture
	if position.IsBoardMember && !position.IsExecutive {
		changeType = models.ChangeTypeBoardDeparture
	}

	change := models.LeadershipChange{
		UnitID:        unitID,
		PersonName:    position.FullName,
		ChangeType:    changeType,
		OldTitle:      position.Title,
		EffectiveDate: &observed,
		Confidence:    confidence,
		SourceType:    "roster_diff",
	}
	applyRoleFlags(&change, position.Title, position.IsBoardMember)
	return change
}

func applyRoleFlags(change *models.LeadershipChange, title string, isBoard bool) {
	switch orgchart.TitleLevelFor(title) {
	case models.TitleLevelCSuite, models.TitleLevelPresident:
		change.IsCSuite = true
	case models.TitleLevelBoard:
		change.IsBoard = true
	}
	if isBoard {
		change.IsBoard = true
	}
}

// ScoreSignificance rates a change 1-10 for alert filtering. The heuristic is
// fixed: base 5, +3 C-suite, +2 board, +2 per chief-executive keyword in a
// title, +1 high confidence, -1 departures.
func ScoreSignificance(change models.LeadershipChange) int {
	score := 5

	if change.IsCSuite {
		score += 3
	}
	if change.IsBoard {
		score += 2
	}
	if hasChiefExecutiveKeyword(change.NewTitle) {
		score += 2
	}
	if hasChiefExecutiveKeyword(change.OldTitle) {
		score += 2
	}
	if change.Confidence == models.ConfidenceHigh {
		score++
	}
	if change.ChangeType == models.ChangeTypeDeparture || change.ChangeType == models.ChangeTypeBoardDeparture {
		score--
	}

	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score
}

func hasChiefExecutiveKeyword(title string) bool {
	normalized := normalizers.NormalizeTitle(title)
	for _, token := range strings.Fields(normalized) {
		if token == "ceo" {
			return true
		}
	}
	return strings.Contains(normalized, "chairman")
}
