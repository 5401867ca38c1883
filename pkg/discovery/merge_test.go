package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/banyan/pkg/models"
)

func TestMergeCandidates_RegistryWinsConflicts(t *testing.T) {
	candidates := []Candidate{
		{
			Name:        "Acme Labs LLC",
			Website:     "https://labs.acme.com",
			Description: "Research arm",
			Sources:     []string{SignalWebsite},
		},
		{
			Name:         "Acme Labs",
			Jurisdiction: "DE",
			Sources:      []string{SignalRegistry},
		},
	}

	merged := MergeCandidates(candidates, "acme")
	require.Len(t, merged, 1)

	out := merged[0]
	// The registry record is authoritative for the fields it carries; the
	// website record fills the gaps it left.
	assert.Equal(t, "Acme Labs", out.Name)
	assert.Equal(t, "DE", out.Jurisdiction)
	assert.Equal(t, "https://labs.acme.com", out.Website)
	assert.Equal(t, "Research arm", out.Description)
	assert.ElementsMatch(t, []string{SignalRegistry, SignalWebsite}, out.Sources)
}

func TestMergeCandidates_DropsParentName(t *testing.T) {
	candidates := []Candidate{
		{Name: "Acme Corporation", Sources: []string{SignalKnowledge}},
		{Name: "Acme Labs", Sources: []string{SignalKnowledge}},
	}

	merged := MergeCandidates(candidates, "acme")
	require.Len(t, merged, 1)
	assert.Equal(t, "Acme Labs", merged[0].Name)
}

func TestMergeCandidates_EquivalentNamesCollapse(t *testing.T) {
	candidates := []Candidate{
		{Name: "Acme Labs, Inc.", Sources: []string{SignalKnowledge}},
		{Name: "Acme Labs", Sources: []string{SignalWebsite}},
	}

	merged := MergeCandidates(candidates, "acme")
	require.Len(t, merged, 1)
	// The website signal outranks general knowledge, so its spelling wins
	assert.Equal(t, "Acme Labs", merged[0].Name)
}

func TestMergeCandidates_DeterministicOrder(t *testing.T) {
	candidates := []Candidate{
		{Name: "Zeta Division", Sources: []string{SignalKnowledge}},
		{Name: "Alpha Division", Sources: []string{SignalKnowledge}},
		{Name: "Beta Division", Sources: []string{SignalRegistry}},
	}

	merged := MergeCandidates(candidates, "acme")
	require.Len(t, merged, 3)
	assert.Equal(t, "Beta Division", merged[0].Name)
	assert.Equal(t, "Alpha Division", merged[1].Name)
	assert.Equal(t, "Zeta Division", merged[2].Name)
}

func TestIsLikelyShell(t *testing.T) {
	tests := []struct {
		name      string
		candidate Candidate
		expected  bool
	}{
		{
			name:      "bare holdings entity",
			candidate: Candidate{Name: "Acme Holdings Inc"},
			expected:  true,
		},
		{
			name:      "funding vehicle",
			candidate: Candidate{Name: "Acme Funding Trust II"},
			expected:  true,
		},
		{
			name:      "receivables entity",
			candidate: Candidate{Name: "Acme Receivables Corp"},
			expected:  true,
		},
		{
			name:      "operating subsidiary",
			candidate: Candidate{Name: "Acme Robotics"},
			expected:  false,
		},
		{
			name:      "website exempts the name",
			candidate: Candidate{Name: "Acme Holdings Inc", Website: "https://acme.com"},
			expected:  false,
		},
		{
			name:      "description exempts the name",
			candidate: Candidate{Name: "Acme Capital LLC", Description: "Consumer lending subsidiary"},
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLikelyShell(tt.candidate))
		})
	}
}

func TestFillGaps_OwnershipAndVisibility(t *testing.T) {
	pct := 80.0
	dst := Candidate{Name: "Acme Labs", Sources: []string{SignalRegistry}}
	src := Candidate{
		Name:         "Acme Labs",
		UnitType:     models.UnitTypeSubsidiary,
		OwnershipPct: &pct,
		IsPublic:     true,
		Sources:      []string{SignalWebsite},
	}

	fillGaps(&dst, src)
	require.NotNil(t, dst.OwnershipPct)
	assert.Equal(t, 80.0, *dst.OwnershipPct)
	assert.True(t, dst.IsPublic)
	assert.Equal(t, models.UnitTypeSubsidiary, dst.UnitType)
	assert.ElementsMatch(t, []string{SignalRegistry, SignalWebsite}, dst.Sources)
}
