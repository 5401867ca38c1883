package orgchart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/banyan/pkg/models"
)

func TestFunctionFor(t *testing.T) {
	fn, ok := FunctionFor("technology")
	require.True(t, ok)
	assert.Equal(t, "Technology", fn.Name)

	fn, ok = FunctionFor("Finance")
	require.True(t, ok)
	assert.Equal(t, "Finance", fn.Name)

	_, ok = FunctionFor("Marketing")
	assert.False(t, ok)
}

func TestFunctionMatches(t *testing.T) {
	tests := []struct {
		name     string
		position models.Position
		expected bool
	}{
		{
			name:     "cto title",
			position: models.Position{Title: "Chief Technology Officer"},
			expected: true,
		},
		{
			name:     "engineering vp",
			position: models.Position{Title: "VP of Engineering"},
			expected: true,
		},
		{
			name:     "technology department",
			position: models.Position{Title: "Senior Director", Department: "Technology"},
			expected: true,
		},
		{
			name:     "sales leader out of scope",
			position: models.Position{Title: "VP of Sales", Department: "Sales"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TechnologyFunction.Matches(&tt.position))
		})
	}
}

func TestBuildFunctionalChart_CrossUnitEdge(t *testing.T) {
	parent := UnitRoster{
		Unit: &models.BusinessUnit{ID: "u1", Name: "Acme"},
		Roster: []models.Position{
			{ID: "p1", FullName: "Dana Fox", Title: "Chief Technology Officer"},
			{ID: "p2", FullName: "Bob Lee", Title: "VP of Engineering"},
			{ID: "p3", FullName: "Alice Johnson", Title: "Chief Executive Officer"},
		},
	}
	subsidiary := UnitRoster{
		Unit: &models.BusinessUnit{ID: "u2", Name: "Acme Labs"},
		Roster: []models.Position{
			{ID: "s1", FullName: "Wei Zhang", Title: "VP of Technology"},
			{ID: "s2", FullName: "Erin Cole", Title: "Director of Software"},
		},
	}

	root := BuildFunctionalChart(TechnologyFunction, parent, []UnitRoster{subsidiary})

	// The CEO is out of scope; the parent CTO roots the chart
	require.NotNil(t, root)
	assert.Equal(t, "Dana Fox", root.FullName)

	names := make(map[string]bool)
	for _, report := range root.Reports {
		names[report.FullName] = true
	}
	assert.True(t, names["Bob Lee"])
	// The subsidiary's top technology officer hangs off the parent's CTO
	assert.True(t, names["Wei Zhang"])

	var wei *models.OrgChartNode
	for _, report := range root.Reports {
		if report.FullName == "Wei Zhang" {
			wei = report
		}
	}
	require.NotNil(t, wei)
	require.Len(t, wei.Reports, 1)
	assert.Equal(t, "Erin Cole", wei.Reports[0].FullName)
	// Nodes carry their unit name so the cross-unit line stays readable
	assert.Equal(t, "Acme Labs", wei.Department)
}

func TestBuildFunctionalChart_KeepsInScopeEdges(t *testing.T) {
	cto := "p1"
	parent := UnitRoster{
		Unit: &models.BusinessUnit{ID: "u1", Name: "Acme"},
		Roster: []models.Position{
			{ID: "p1", FullName: "Dana Fox", Title: "Chief Technology Officer"},
			{ID: "p2", FullName: "Bob Lee", Title: "VP of Engineering", ReportsToID: &cto},
		},
	}

	root := BuildFunctionalChart(TechnologyFunction, parent, nil)
	require.NotNil(t, root)
	assert.Equal(t, "Dana Fox", root.FullName)
	require.Len(t, root.Reports, 1)
	assert.Equal(t, "Bob Lee", root.Reports[0].FullName)
}

func TestBuildFunctionalChart_VirtualRootWhenParentHasNoOfficer(t *testing.T) {
	parent := UnitRoster{
		Unit: &models.BusinessUnit{ID: "u1", Name: "Acme"},
		Roster: []models.Position{
			{ID: "p1", FullName: "Alice Johnson", Title: "Chief Executive Officer"},
		},
	}
	subA := UnitRoster{
		Unit:   &models.BusinessUnit{ID: "u2", Name: "Acme Labs"},
		Roster: []models.Position{{ID: "s1", FullName: "Wei Zhang", Title: "VP of Technology"}},
	}
	subB := UnitRoster{
		Unit:   &models.BusinessUnit{ID: "u3", Name: "Acme Cloud"},
		Roster: []models.Position{{ID: "s2", FullName: "Erin Cole", Title: "CTO"}},
	}

	root := BuildFunctionalChart(TechnologyFunction, parent, []UnitRoster{subA, subB})
	require.NotNil(t, root)
	assert.Equal(t, "Acme", root.FullName)
	assert.Equal(t, "Technology Leadership", root.Title)
	assert.Len(t, root.Reports, 2)
}
