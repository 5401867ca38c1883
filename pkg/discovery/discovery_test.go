package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/models"
)

type fakeSignal struct {
	name       string
	candidates []Candidate
	err        error
}

func (s *fakeSignal) Name() string { return s.name }

func (s *fakeSignal) Discover(_ context.Context, _ *models.BusinessUnit, _ Budget) ([]Candidate, error) {
	return s.candidates, s.err
}

type fakeUnitStore struct {
	upserts []*models.UpsertBusinessUnitRequest
	err     error
}

func (s *fakeUnitStore) Upsert(_ context.Context, req *models.UpsertBusinessUnitRequest) (*models.BusinessUnit, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.upserts = append(s.upserts, req)
	return &models.BusinessUnit{ID: fmt.Sprintf("unit-%d", len(s.upserts)), ParentID: req.ParentID, Name: req.Name}, nil
}

func testParent() *models.BusinessUnit {
	return &models.BusinessUnit{ID: "parent", Name: "Acme Corporation"}
}

func TestDiscover_MergesAndPersists(t *testing.T) {
	store := &fakeUnitStore{}
	d := NewDiscoverer([]Signal{
		&fakeSignal{name: SignalRegistry, candidates: []Candidate{
			{Name: "Acme Labs", Jurisdiction: "DE", Sources: []string{SignalRegistry}},
		}},
		&fakeSignal{name: SignalWebsite, candidates: []Candidate{
			{Name: "Acme Labs LLC", Website: "https://labs.acme.com", Sources: []string{SignalWebsite}},
			{Name: "Acme Robotics", Website: "https://robotics.acme.com", Sources: []string{SignalWebsite}},
		}},
	}, store, zap.NewNop())

	result, err := d.Discover(context.Background(), testParent(), Budget{MaxPages: 5, MaxDepth: 1}, 25)
	require.NoError(t, err)
	require.Len(t, result.Units, 2)
	require.Len(t, store.upserts, 2)

	labs := store.upserts[0]
	assert.Equal(t, "Acme Labs", labs.Name)
	assert.Equal(t, "DE", labs.Jurisdiction)
	assert.Equal(t, "https://labs.acme.com", labs.Website)
	assert.Equal(t, []string{"labs.acme.com"}, labs.Domains)
	assert.Equal(t, models.UnitTypeSubsidiary, labs.UnitType)
	require.NotNil(t, labs.ParentID)
	assert.Equal(t, "parent", *labs.ParentID)
}

func TestDiscover_FailingSignalIsAWarning(t *testing.T) {
	store := &fakeUnitStore{}
	d := NewDiscoverer([]Signal{
		&fakeSignal{name: SignalRegistry, err: errors.New("registry timeout")},
		&fakeSignal{name: SignalKnowledge, candidates: []Candidate{
			{Name: "Acme Labs", Sources: []string{SignalKnowledge}},
		}},
	}, store, zap.NewNop())

	result, err := d.Discover(context.Background(), testParent(), Budget{}, 25)
	require.NoError(t, err)
	assert.Len(t, result.Units, 1)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "registry signal failed")
}

func TestDiscover_DropsShellEntities(t *testing.T) {
	store := &fakeUnitStore{}
	d := NewDiscoverer([]Signal{
		&fakeSignal{name: SignalRegistry, candidates: []Candidate{
			{Name: "Acme Receivables Corp", Sources: []string{SignalRegistry}},
			{Name: "Acme Robotics", Sources: []string{SignalRegistry}},
		}},
	}, store, zap.NewNop())

	result, err := d.Discover(context.Background(), testParent(), Budget{}, 25)
	require.NoError(t, err)
	require.Len(t, result.Units, 1)
	assert.Equal(t, "Acme Robotics", result.Units[0].Name)
}

func TestDiscover_CapsAtMaxUnits(t *testing.T) {
	candidates := make([]Candidate, 5)
	for i := range candidates {
		candidates[i] = Candidate{Name: fmt.Sprintf("Acme Division %d", i), Sources: []string{SignalRegistry}}
	}
	store := &fakeUnitStore{}
	d := NewDiscoverer([]Signal{
		&fakeSignal{name: SignalRegistry, candidates: candidates},
	}, store, zap.NewNop())

	result, err := d.Discover(context.Background(), testParent(), Budget{}, 3)
	require.NoError(t, err)
	assert.Len(t, result.Units, 3)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "capped")
}

func TestDiscover_PersistenceFailureIsFatal(t *testing.T) {
	store := &fakeUnitStore{err: errors.New("db down")}
	d := NewDiscoverer([]Signal{
		&fakeSignal{name: SignalRegistry, candidates: []Candidate{
			{Name: "Acme Labs", Sources: []string{SignalRegistry}},
		}},
	}, store, zap.NewNop())

	result, err := d.Discover(context.Background(), testParent(), Budget{}, 25)
	assert.Error(t, err)
	assert.Nil(t, result)
}
