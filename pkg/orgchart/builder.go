// Package orgchart assembles a unit's canonical roster into a reporting
// hierarchy. Level assignment is deterministic; division grouping and
// reporting-chain inference lean on classification calls with deterministic
// fallbacks, so a build degrades but never fails on classifier trouble.
package orgchart

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/classify"
	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/normalizers"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// defaultDivision is the bucket used when division classification is
// unavailable or unusable
const defaultDivision = "Corporate"

// PositionStore persists the inferred hierarchy onto positions
type PositionStore interface {
	UpdateHierarchy(ctx context.Context, positionID string, managementLevel int, reportsToID *string, department string) error
}

// SnapshotStore persists dated chart snapshots, one row per (unit, date)
type SnapshotStore interface {
	Upsert(ctx context.Context, snapshot *models.OrgChartSnapshot) error
}

// Builder turns a flat roster into a single-rooted reporting tree
type Builder struct {
	classifier classify.Classifier
	positions  PositionStore
	snapshots  SnapshotStore
	logger     *zap.Logger
	now        func() time.Time
}

// NewBuilder creates a Builder
func NewBuilder(classifier classify.Classifier, positions PositionStore, snapshots SnapshotStore, logger *zap.Logger) *Builder {
	return &Builder{
		classifier: classifier,
		positions:  positions,
		snapshots:  snapshots,
		logger:     logger,
		now:        time.Now,
	}
}

// Build runs the four chart passes: deterministic level assignment, division
// grouping, reporting-chain inference, and persistence of both the updated
// positions and the dated snapshot. An empty roster returns (nil, nil).
func (b *Builder) Build(ctx context.Context, unit *models.BusinessUnit, roster []models.Position) (*models.OrgChartSnapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "orgchart.Builder.Build")
	defer span.End()

	if len(roster) == 0 {
		return nil, nil
	}

	positions := make([]*models.Position, len(roster))
	for i := range roster {
		position := roster[i]
		position.ManagementLevel = ManagementLevelFor(position.Title)
		position.ReportsToID = nil
		positions[i] = &position
	}

	divisions := b.classifyDivisions(ctx, positions)
	for _, position := range positions {
		position.Department = divisions[position.ID]
	}

	b.inferReporting(ctx, positions)

	for _, position := range positions {
		if err := b.positions.UpdateHierarchy(ctx, position.ID, position.ManagementLevel, position.ReportsToID, position.Department); err != nil {
			return nil, fmt.Errorf("failed to persist hierarchy for %s: %w", position.FullName, err)
		}
	}

	snapshot, err := b.buildSnapshot(unit, positions)
	if err != nil {
		return nil, err
	}
	if err := b.snapshots.Upsert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist snapshot for unit %s: %w", unit.ID, err)
	}

	b.logger.Info("org chart built",
		zap.String("unit", unit.Name),
		zap.Int("positions", len(positions)),
		zap.Int("max_depth", snapshot.MaxDepth),
		zap.Strings("departments", snapshot.Departments))

	return snapshot, nil
}

// classifyDivisions maps every position to a division in one batched call.
// Any failure, or any person the reply misses, lands in the Corporate bucket.
func (b *Builder) classifyDivisions(ctx context.Context, positions []*models.Position) map[string]string {
	divisions := make(map[string]string, len(positions))
	for _, position := range positions {
		divisions[position.ID] = defaultDivision
	}
	if len(positions) < 2 {
		return divisions
	}

	var people strings.Builder
	for _, position := range positions {
		fmt.Fprintf(&people, "- %s, %s\n", position.FullName, position.Title)
	}

	prompt := fmt.Sprintf(`Group these leaders into business divisions based on their titles. Respond
with a JSON object mapping each person's exact name to a short division name
(e.g. "Finance", "Technology", "Sales"). Use "Corporate" when unsure.

People:
%s`, people.String())

	raw, err := b.classifier.Classify(ctx, prompt)
	if err != nil {
		b.logger.Warn("division classification failed, using single bucket", zap.Error(err))
		return divisions
	}

	var mapping map[string]string
	if !classify.Decode(raw, &mapping) {
		return divisions
	}

	byName := indexByNormalizedName(positions)
	for name, division := range mapping {
		division = strings.TrimSpace(division)
		if division == "" {
			continue
		}
		if position, ok := byName[normalizers.NormalizePersonName(name)]; ok {
			divisions[position.ID] = division
		}
	}
	return divisions
}

// inferReporting assigns reports_to edges. The top of the house is
// deterministic: level-1 people are roots and level-2 people report to the
// level-1 person when there is exactly one. Everyone else is resolved per
// division, with "report to the division head" as the fallback.
func (b *Builder) inferReporting(ctx context.Context, positions []*models.Position) {
	var top *models.Position
	levelOneCount := 0
	for _, position := range positions {
		if position.ManagementLevel == LevelCEO {
			levelOneCount++
			top = position
		}
	}
	if levelOneCount != 1 {
		top = nil
	}

	if top != nil {
		for _, position := range positions {
			if position.ManagementLevel == LevelCSuite {
				id := top.ID
				position.ReportsToID = &id
			}
		}
	}

	byDivision := make(map[string][]*models.Position)
	for _, position := range positions {
		byDivision[position.Department] = append(byDivision[position.Department], position)
	}

	for division, members := range byDivision {
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].ManagementLevel != members[j].ManagementLevel {
				return members[i].ManagementLevel < members[j].ManagementLevel
			}
			return members[i].FullName < members[j].FullName
		})

		head := members[0]
		if head.ReportsToID == nil && head.ManagementLevel > LevelCSuite && top != nil && head.ID != top.ID {
			id := top.ID
			head.ReportsToID = &id
		}

		var unassigned []*models.Position
		for _, member := range members[1:] {
			if member.ReportsToID == nil && member.ID != head.ID {
				unassigned = append(unassigned, member)
			}
		}
		if len(unassigned) == 0 {
			continue
		}

		mapping := b.classifyReporting(ctx, division, head, unassigned)
		byName := indexByNormalizedName(members)
		for _, member := range unassigned {
			headID := head.ID
			member.ReportsToID = &headID

			managerName, ok := mapping[normalizers.NormalizePersonName(member.FullName)]
			if !ok {
				continue
			}
			manager, ok := byName[managerName]
			if !ok || manager.ID == member.ID {
				continue
			}
			managerID := manager.ID
			member.ReportsToID = &managerID
		}

		breakCycles(members, head)
	}
}

// classifyReporting asks for a name -> manager-name mapping within one
// division. The reply is advisory; unresolved people keep the division head.
func (b *Builder) classifyReporting(ctx context.Context, division string, head *models.Position, members []*models.Position) map[string]string {
	var people strings.Builder
	for _, member := range members {
		fmt.Fprintf(&people, "- %s, %s\n", member.FullName, member.Title)
	}

	prompt := fmt.Sprintf(`In the %s division, %s (%s) is the most senior leader. For each person below,
name their most likely direct manager from this same list (or %s). Respond with
a JSON object mapping each person's exact name to their manager's exact name.

People, most senior first:
%s`, division, head.FullName, head.Title, head.FullName, people.String())

	raw, err := b.classifier.Classify(ctx, prompt)
	if err != nil {
		b.logger.Warn("reporting inference failed, using division head",
			zap.String("division", division), zap.Error(err))
		return nil
	}

	var mapping map[string]string
	if !classify.Decode(raw, &mapping) {
		return nil
	}

	normalized := make(map[string]string, len(mapping))
	for person, manager := range mapping {
		normalized[normalizers.NormalizePersonName(person)] = normalizers.NormalizePersonName(manager)
	}
	return normalized
}

// breakCycles re-points any member caught in a reports_to cycle at the
// division head. Classification replies are not trusted to be acyclic.
func breakCycles(members []*models.Position, head *models.Position) {
	byID := make(map[string]*models.Position, len(members))
	for _, member := range members {
		byID[member.ID] = member
	}

	for _, member := range members {
		seen := map[string]bool{member.ID: true}
		current := member
		for current.ReportsToID != nil {
			next, ok := byID[*current.ReportsToID]
			if !ok {
				break
			}
			if seen[next.ID] {
				headID := head.ID
				member.ReportsToID = &headID
				break
			}
			seen[next.ID] = true
			current = next
		}
	}
}

// buildSnapshot renders the nested tree and its summary columns. Multiple
// roots hang under a synthesized virtual root so the tree is always
// single-rooted.
func (b *Builder) buildSnapshot(unit *models.BusinessUnit, positions []*models.Position) (*models.OrgChartSnapshot, error) {
	root := BuildTree(unit.Name, positions)

	tree, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart tree: %w", err)
	}

	departmentSet := make(map[string]bool)
	for _, position := range positions {
		if position.Department != "" {
			departmentSet[position.Department] = true
		}
	}
	departments := make([]string, 0, len(departmentSet))
	for department := range departmentSet {
		departments = append(departments, department)
	}
	sort.Strings(departments)

	today := b.now().UTC().Truncate(24 * time.Hour)
	return &models.OrgChartSnapshot{
		UnitID:       unit.ID,
		SnapshotDate: today,
		Tree:         tree,
		MaxDepth:     root.Depth(),
		Departments:  departments,
	}, nil
}

// BuildTree nests positions by their reports_to edges. Orphaned edges
// (pointing outside the roster) make their position a root. More than one
// root yields a virtual root named after the unit.
func BuildTree(unitName string, positions []*models.Position) *models.OrgChartNode {
	nodes := make(map[string]*models.OrgChartNode, len(positions))
	for _, position := range positions {
		nodes[position.ID] = &models.OrgChartNode{
			PositionID:      position.ID,
			FullName:        position.FullName,
			Title:           position.Title,
			ManagementLevel: position.ManagementLevel,
			Department:      position.Department,
		}
	}

	var roots []*models.OrgChartNode
	for _, position := range positions {
		node := nodes[position.ID]
		if position.ReportsToID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*position.ReportsToID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Reports = append(parent.Reports, node)
	}

	sortTree(roots)
	for _, node := range nodes {
		sortTree(node.Reports)
	}

	if len(roots) == 1 {
		return roots[0]
	}
	return &models.OrgChartNode{
		FullName: unitName,
		Title:    "Organization",
		Reports:  roots,
	}
}

func sortTree(nodes []*models.OrgChartNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].ManagementLevel != nodes[j].ManagementLevel {
			return nodes[i].ManagementLevel < nodes[j].ManagementLevel
		}
		return nodes[i].FullName < nodes[j].FullName
	})
}

func indexByNormalizedName(positions []*models.Position) map[string]*models.Position {
	byName := make(map[string]*models.Position, len(positions))
	for _, position := range positions {
		byName[normalizers.NormalizePersonName(position.FullName)] = position
	}
	return byName
}
