package merging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/models"
)

type fakePositionStore struct {
	rosters map[string][]models.Position
	created []*models.Position
	updated []*models.Position
}

func newFakePositionStore() *fakePositionStore {
	return &fakePositionStore{rosters: make(map[string][]models.Position)}
}

func (s *fakePositionStore) ListCurrentByUnit(_ context.Context, unitID string) ([]models.Position, error) {
	return s.rosters[unitID], nil
}

func (s *fakePositionStore) Create(_ context.Context, position *models.Position) error {
	s.created = append(s.created, position)
	return nil
}

func (s *fakePositionStore) Update(_ context.Context, position *models.Position) error {
	s.updated = append(s.updated, position)
	return nil
}

func TestResolver_CreatesNewPositions(t *testing.T) {
	store := newFakePositionStore()
	resolver := NewResolver(zap.NewNop(), store)

	created, updated, err := resolver.Resolve(context.Background(), "unit-1", []models.ExtractedPerson{
		{FullName: "Alice Johnson", Title: "VP of Sales", Confidence: models.ConfidenceHigh, ProvenanceNote: "web"},
		{FullName: "Wei Zhang", Title: "CFO", Confidence: models.ConfidenceMedium},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 0, updated)
	require.Len(t, store.created, 2)

	pos := store.created[0]
	assert.Equal(t, "unit-1", pos.UnitID)
	assert.Equal(t, "alice johnson", pos.NormalizedName)
	assert.True(t, pos.IsCurrent)
	assert.Equal(t, []string{"web"}, []string(pos.DataSources))
}

func TestResolver_MatchesByNormalizedName(t *testing.T) {
	store := newFakePositionStore()
	store.rosters["unit-1"] = []models.Position{
		{
			ID:             "pos-1",
			UnitID:         "unit-1",
			FullName:       "Alice Johnson",
			NormalizedName: "alice johnson",
			Title:          "VP of Sales",
			Confidence:     models.ConfidenceMedium,
			IsCurrent:      true,
		},
	}
	resolver := NewResolver(zap.NewNop(), store)

	created, updated, err := resolver.Resolve(context.Background(), "unit-1", []models.ExtractedPerson{
		{FullName: "Alice Johnson Jr.", Email: "alice@example.com", Confidence: models.ConfidenceLow},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, updated)
	require.Len(t, store.updated, 1)
	assert.Equal(t, "alice@example.com", store.updated[0].Email)
	// Fill-gaps never overwrites the stored title with lower confidence
	assert.Equal(t, "VP of Sales", store.updated[0].Title)
}

func TestResolver_SameNameAtDifferentUnitsStaysSeparate(t *testing.T) {
	store := newFakePositionStore()
	store.rosters["unit-1"] = []models.Position{
		{
			ID:             "pos-1",
			UnitID:         "unit-1",
			FullName:       "Alice Johnson",
			NormalizedName: "alice johnson",
			Title:          "CFO",
			Confidence:     models.ConfidenceHigh,
			IsCurrent:      true,
		},
	}
	resolver := NewResolver(zap.NewNop(), store)

	// An identically-named person at a sibling unit is a different record
	created, updated, err := resolver.Resolve(context.Background(), "unit-2", []models.ExtractedPerson{
		{FullName: "Alice Johnson", Title: "VP of Sales", Confidence: models.ConfidenceHigh},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 0, updated)
	require.Len(t, store.created, 1)
	assert.Equal(t, "unit-2", store.created[0].UnitID)
	assert.Equal(t, "VP of Sales", store.created[0].Title)
	assert.Empty(t, store.updated)
}

func TestResolver_MatchesByProfileURL(t *testing.T) {
	store := newFakePositionStore()
	store.rosters["unit-1"] = []models.Position{
		{
			ID:             "pos-1",
			UnitID:         "unit-1",
			FullName:       "A. Johnson",
			NormalizedName: "a johnson",
			Title:          "VP of Sales",
			LinkedInURL:    "https://linkedin.com/in/ajohnson",
			Confidence:     models.ConfidenceMedium,
			IsCurrent:      true,
		},
	}
	resolver := NewResolver(zap.NewNop(), store)

	// The name would not match, but the profile URL does
	created, updated, err := resolver.Resolve(context.Background(), "unit-1", []models.ExtractedPerson{
		{
			FullName:    "Alice Marie Johnson",
			Title:       "SVP of Sales",
			LinkedInURL: "https://linkedin.com/in/ajohnson/",
			Confidence:  models.ConfidenceHigh,
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, updated)
	assert.Equal(t, "SVP of Sales", store.updated[0].Title)
	assert.Equal(t, models.ConfidenceHigh, store.updated[0].Confidence)
}

func TestResolver_TitleReplacementAtEqualConfidence(t *testing.T) {
	store := newFakePositionStore()
	store.rosters["unit-1"] = []models.Position{
		{
			ID:             "pos-1",
			UnitID:         "unit-1",
			FullName:       "Alice Johnson",
			NormalizedName: "alice johnson",
			Title:          "VP of Sales",
			TitleLevel:     models.TitleLevelVP,
			Confidence:     models.ConfidenceHigh,
			IsCurrent:      true,
		},
	}
	resolver := NewResolver(zap.NewNop(), store)

	_, updated, err := resolver.Resolve(context.Background(), "unit-1", []models.ExtractedPerson{
		{
			FullName:   "Alice Johnson",
			Title:      "SVP of Sales",
			TitleLevel: models.TitleLevelSVP,
			Confidence: models.ConfidenceHigh,
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, "SVP of Sales", store.updated[0].Title)
	assert.Equal(t, models.TitleLevelSVP, store.updated[0].TitleLevel)
}

func TestResolver_SecondPassIsNoop(t *testing.T) {
	store := newFakePositionStore()
	resolver := NewResolver(zap.NewNop(), store)
	people := []models.ExtractedPerson{
		{FullName: "Alice Johnson", Title: "VP of Sales", Confidence: models.ConfidenceHigh, ProvenanceNote: "web"},
	}

	created, _, err := resolver.Resolve(context.Background(), "unit-1", people)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	// Simulate the created position now being the persisted roster
	store.rosters["unit-1"] = []models.Position{*store.created[0]}
	store.created = nil

	created, updated, err := resolver.Resolve(context.Background(), "unit-1", people)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 0, updated)
}
