package orgchart

import (
	"sort"
	"strings"

	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/normalizers"
)

// Function scopes a functional chart to one slice of the business, matched by
// title and department keywords
type Function struct {
	Name     string
	Keywords []string
}

// Predefined functional scopes
var (
	TechnologyFunction = Function{
		Name: "Technology",
		Keywords: []string{
			"cto", "cio", "technology", "engineering", "information",
			"digital", "data", "software", "infrastructure",
		},
	}
	FinanceFunction = Function{
		Name: "Finance",
		Keywords: []string{
			"cfo", "finance", "financial", "accounting", "treasury",
			"controller", "audit", "tax",
		},
	}
)

// FunctionFor resolves a function scope by name, case-insensitively
func FunctionFor(name string) (Function, bool) {
	for _, function := range []Function{TechnologyFunction, FinanceFunction} {
		if strings.EqualFold(function.Name, name) {
			return function, true
		}
	}
	return Function{}, false
}

// Matches reports whether a position belongs to this function
func (f Function) Matches(position *models.Position) bool {
	title := normalizers.NormalizeTitle(position.Title)
	department := strings.ToLower(position.Department)
	for _, keyword := range f.Keywords {
		if strings.Contains(title, keyword) || strings.Contains(department, keyword) {
			return true
		}
	}
	return false
}

// UnitRoster pairs a unit with its current canonical roster
type UnitRoster struct {
	Unit   *models.BusinessUnit
	Roster []models.Position
}

// BuildFunctionalChart renders one function's leadership across the whole
// structure. Within each unit the existing reports_to edges are kept where
// both ends are in scope; everyone else attaches to their unit's top
// functional officer. Each subsidiary's top functional officer reports to the
// parent's top functional officer unless an explicit in-scope edge already
// exists, so the chart shows the functional line crossing unit boundaries.
func BuildFunctionalChart(function Function, parent UnitRoster, subsidiaries []UnitRoster) *models.OrgChartNode {
	parentTop, parentNodes := functionalUnitTree(function, parent)

	var roots []*models.OrgChartNode
	roots = append(roots, parentNodes...)

	for _, subsidiary := range subsidiaries {
		top, nodes := functionalUnitTree(function, subsidiary)
		// only add the cross-unit edge when the top officer has no
		// explicit in-scope manager already
		if top != nil && parentTop != nil && containsNode(nodes, top) {
			parentTop.Reports = append(parentTop.Reports, top)
			nodes = removeNode(nodes, top)
		}
		roots = append(roots, nodes...)
	}

	sortTree(roots)
	if parentTop != nil {
		sortTree(parentTop.Reports)
	}

	if len(roots) == 1 {
		return roots[0]
	}
	return &models.OrgChartNode{
		FullName: parent.Unit.Name,
		Title:    function.Name + " Leadership",
		Reports:  roots,
	}
}

// functionalUnitTree filters one unit's roster to the function and nests it.
// Returns the unit's top functional officer (nil when the unit has no one in
// scope) plus the unit's root nodes.
func functionalUnitTree(function Function, unitRoster UnitRoster) (*models.OrgChartNode, []*models.OrgChartNode) {
	var inScope []*models.Position
	for i := range unitRoster.Roster {
		position := &unitRoster.Roster[i]
		if function.Matches(position) {
			inScope = append(inScope, position)
		}
	}
	if len(inScope) == 0 {
		return nil, nil
	}

	nodes := make(map[string]*models.OrgChartNode, len(inScope))
	for _, position := range inScope {
		level := position.ManagementLevel
		if level == 0 {
			level = ManagementLevelFor(position.Title)
		}
		nodes[position.ID] = &models.OrgChartNode{
			PositionID:      position.ID,
			FullName:        position.FullName,
			Title:           position.Title,
			ManagementLevel: level,
			Department:      unitRoster.Unit.Name,
		}
	}

	top := nodes[inScope[0].ID]
	for _, position := range inScope[1:] {
		if nodes[position.ID].ManagementLevel < top.ManagementLevel {
			top = nodes[position.ID]
		}
	}

	var roots []*models.OrgChartNode
	for _, position := range inScope {
		node := nodes[position.ID]
		if position.ReportsToID != nil {
			if parent, ok := nodes[*position.ReportsToID]; ok {
				parent.Reports = append(parent.Reports, node)
				continue
			}
		}
		if node != top {
			top.Reports = append(top.Reports, node)
			continue
		}
		roots = append(roots, node)
	}

	for _, node := range nodes {
		sortTree(node.Reports)
	}
	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].FullName < roots[j].FullName
	})

	return top, roots
}

func containsNode(nodes []*models.OrgChartNode, target *models.OrgChartNode) bool {
	for _, node := range nodes {
		if node == target {
			return true
		}
	}
	return false
}

func removeNode(nodes []*models.OrgChartNode, target *models.OrgChartNode) []*models.OrgChartNode {
	kept := nodes[:0]
	for _, node := range nodes {
		if node != target {
			kept = append(kept, node)
		}
	}
	return kept
}
