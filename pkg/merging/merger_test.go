package merging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/banyan/pkg/models"
)

func TestIsPlausiblePerson(t *testing.T) {
	tests := []struct {
		name     string
		person   models.ExtractedPerson
		expected bool
	}{
		{
			name:     "ordinary name",
			person:   models.ExtractedPerson{FullName: "Alice Johnson"},
			expected: true,
		},
		{
			name:     "single token",
			person:   models.ExtractedPerson{FullName: "Alice"},
			expected: false,
		},
		{
			name:     "empty name",
			person:   models.ExtractedPerson{FullName: "   "},
			expected: false,
		},
		{
			name:     "mostly digits",
			person:   models.ExtractedPerson{FullName: "2024 01 15"},
			expected: false,
		},
		{
			name: "oversized title",
			person: models.ExtractedPerson{
				FullName: "Alice Johnson",
				Title:    string(make([]byte, 300)),
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsPlausiblePerson(tt.person))
		})
	}
}

func TestIdentityKey(t *testing.T) {
	withURL := models.ExtractedPerson{
		FullName:    "Alice Johnson",
		LinkedInURL: "https://www.linkedin.com/in/ajohnson?trk=nav",
	}
	withoutURL := models.ExtractedPerson{FullName: "Alice  Johnson Jr."}

	assert.Equal(t, "url:https://www.linkedin.com/in/ajohnson", IdentityKey(withURL))
	assert.Equal(t, "name:alice johnson", IdentityKey(withoutURL))
}

func TestMergeExtracted_FillGaps(t *testing.T) {
	dst := models.ExtractedPerson{
		FullName:   "Alice Johnson",
		Title:      "VP of Sales",
		Confidence: models.ConfidenceHigh,
	}
	src := models.ExtractedPerson{
		FullName:   "Alice Johnson",
		Title:      "SVP of Sales",
		Email:      "alice@example.com",
		Confidence: models.ConfidenceLow,
	}

	out := MergeExtracted(dst, src)

	// The lower-confidence title never replaces the higher-confidence one,
	// but it does fill the empty email.
	assert.Equal(t, "VP of Sales", out.Title)
	assert.Equal(t, "alice@example.com", out.Email)
	assert.Equal(t, models.ConfidenceHigh, out.Confidence)
}

func TestMergeExtracted_HigherConfidenceWins(t *testing.T) {
	dst := models.ExtractedPerson{
		FullName:   "Alice Johnson",
		Title:      "VP of Sales",
		Confidence: models.ConfidenceLow,
	}
	src := models.ExtractedPerson{
		FullName:   "Alice Johnson",
		Title:      "SVP of Sales",
		Confidence: models.ConfidenceHigh,
	}

	out := MergeExtracted(dst, src)
	assert.Equal(t, "SVP of Sales", out.Title)
	assert.Equal(t, models.ConfidenceHigh, out.Confidence)
}

func TestMergeExtracted_FlagsOrTogether(t *testing.T) {
	dst := models.ExtractedPerson{FullName: "Alice Johnson", IsBoardMember: true}
	src := models.ExtractedPerson{FullName: "Alice Johnson", IsExecutive: true}

	out := MergeExtracted(dst, src)
	assert.True(t, out.IsBoardMember)
	assert.True(t, out.IsExecutive)
}

func TestMergeExtracted_Idempotent(t *testing.T) {
	p := models.ExtractedPerson{
		FullName:   "Alice Johnson",
		Title:      "VP of Sales",
		Email:      "alice@example.com",
		Confidence: models.ConfidenceMedium,
	}
	assert.Equal(t, p, MergeExtracted(p, p))
}

func TestMergeExtracted_CommutativeAtDifferentConfidence(t *testing.T) {
	a := models.ExtractedPerson{
		FullName:   "Alice Johnson",
		Title:      "VP of Sales",
		Bio:        "Sales leader",
		Confidence: models.ConfidenceLow,
	}
	b := models.ExtractedPerson{
		FullName:    "Alice Johnson",
		Title:       "SVP of Sales",
		LinkedInURL: "https://linkedin.com/in/ajohnson",
		Confidence:  models.ConfidenceHigh,
	}

	ab := MergeExtracted(a, b)
	ba := MergeExtracted(b, a)
	assert.Equal(t, ab, ba)
}

func TestDedupeExtracted(t *testing.T) {
	t.Run("merges same identity across sources", func(t *testing.T) {
		people := []models.ExtractedPerson{
			{FullName: "Alice Johnson", Title: "VP of Sales", Confidence: models.ConfidenceHigh, ProvenanceNote: "web"},
			{FullName: "alice johnson", Email: "alice@example.com", Confidence: models.ConfidenceLow, ProvenanceNote: "filing"},
		}

		out := DedupeExtracted(people)
		require.Len(t, out, 1)
		assert.Equal(t, "VP of Sales", out[0].Title)
		assert.Equal(t, "alice@example.com", out[0].Email)
	})

	t.Run("url record claims the name key", func(t *testing.T) {
		people := []models.ExtractedPerson{
			{FullName: "Alice Johnson", LinkedInURL: "https://linkedin.com/in/ajohnson", Confidence: models.ConfidenceHigh},
			{FullName: "Alice Johnson", Title: "SVP of Sales", Confidence: models.ConfidenceLow},
		}

		out := DedupeExtracted(people)
		require.Len(t, out, 1)
		assert.Equal(t, "SVP of Sales", out[0].Title)
		assert.Equal(t, "https://linkedin.com/in/ajohnson", out[0].LinkedInURL)
	})

	t.Run("different people stay separate", func(t *testing.T) {
		people := []models.ExtractedPerson{
			{FullName: "Alice Johnson"},
			{FullName: "Wei Zhang"},
		}
		assert.Len(t, DedupeExtracted(people), 2)
	})

	t.Run("implausible records are dropped silently", func(t *testing.T) {
		people := []models.ExtractedPerson{
			{FullName: "Alice Johnson"},
			{FullName: "Alice"},
			{FullName: ""},
		}
		assert.Len(t, DedupeExtracted(people), 1)
	})
}

func TestDedupeChanges(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("exact key duplicates collapse to the higher confidence", func(t *testing.T) {
		changes := []models.LeadershipChange{
			{PersonName: "Alice Johnson", ChangeType: models.ChangeTypeHire, AnnouncedDate: &day, Confidence: models.ConfidenceLow, SourceType: "news"},
			{PersonName: "alice johnson", ChangeType: models.ChangeTypeHire, AnnouncedDate: &day, Confidence: models.ConfidenceHigh, SourceType: "web"},
		}

		out := DedupeChanges(changes)
		require.Len(t, out, 1)
		assert.Equal(t, models.ConfidenceHigh, out[0].Confidence)
		assert.Equal(t, "web", out[0].SourceType)
	})

	t.Run("different change types never collapse", func(t *testing.T) {
		changes := []models.LeadershipChange{
			{PersonName: "Alice Johnson", ChangeType: models.ChangeTypeHire, AnnouncedDate: &day},
			{PersonName: "Alice Johnson", ChangeType: models.ChangeTypePromotion, AnnouncedDate: &day},
		}
		assert.Len(t, DedupeChanges(changes), 2)
	})

	t.Run("invalid records are dropped", func(t *testing.T) {
		changes := []models.LeadershipChange{
			{PersonName: "", ChangeType: models.ChangeTypeHire},
			{PersonName: "Alice Johnson", ChangeType: models.ChangeType("bogus")},
		}
		assert.Empty(t, DedupeChanges(changes))
	})
}
