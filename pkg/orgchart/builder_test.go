package orgchart

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/models"
)

type fakeClassifier struct {
	replies map[string]json.RawMessage
	err     error
	calls   int
}

func (f *fakeClassifier) Classify(_ context.Context, prompt string) (json.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for needle, reply := range f.replies {
		if strings.Contains(prompt, needle) {
			return reply, nil
		}
	}
	return json.RawMessage(`{}`), nil
}

type fakeHierarchyStore struct {
	updates map[string]struct {
		level       int
		reportsToID *string
		department  string
	}
}

func newFakeHierarchyStore() *fakeHierarchyStore {
	return &fakeHierarchyStore{updates: make(map[string]struct {
		level       int
		reportsToID *string
		department  string
	})}
}

func (s *fakeHierarchyStore) UpdateHierarchy(_ context.Context, positionID string, managementLevel int, reportsToID *string, department string) error {
	s.updates[positionID] = struct {
		level       int
		reportsToID *string
		department  string
	}{managementLevel, reportsToID, department}
	return nil
}

type fakeSnapshotStore struct {
	snapshots []*models.OrgChartSnapshot
}

func (s *fakeSnapshotStore) Upsert(_ context.Context, snapshot *models.OrgChartSnapshot) error {
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func testBuilder(classifier *fakeClassifier, positions *fakeHierarchyStore, snapshots *fakeSnapshotStore) *Builder {
	b := NewBuilder(classifier, positions, snapshots, zap.NewNop())
	b.now = func() time.Time { return time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC) }
	return b
}

func testUnit() *models.BusinessUnit {
	return &models.BusinessUnit{ID: "unit-1", Name: "Acme"}
}

func testRoster() []models.Position {
	return []models.Position{
		{ID: "p1", UnitID: "unit-1", FullName: "Alice Johnson", NormalizedName: "alice johnson", Title: "Chief Executive Officer"},
		{ID: "p2", UnitID: "unit-1", FullName: "Wei Zhang", NormalizedName: "wei zhang", Title: "Chief Financial Officer"},
		{ID: "p3", UnitID: "unit-1", FullName: "Bob Lee", NormalizedName: "bob lee", Title: "VP of Engineering"},
	}
}

func TestBuild_DeterministicTopOfHouse(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("unavailable")}
	positions := newFakeHierarchyStore()
	snapshots := &fakeSnapshotStore{}
	b := testBuilder(classifier, positions, snapshots)

	snapshot, err := b.Build(context.Background(), testUnit(), testRoster())
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	// CFO reports to the single CEO without any classifier help
	cfo := positions.updates["p2"]
	require.NotNil(t, cfo.reportsToID)
	assert.Equal(t, "p1", *cfo.reportsToID)
	assert.Equal(t, LevelCSuite, cfo.level)

	ceo := positions.updates["p1"]
	assert.Nil(t, ceo.reportsToID)
	assert.Equal(t, LevelCEO, ceo.level)
}

func TestBuild_CorporateFallbackWhenClassifierFails(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("unavailable")}
	positions := newFakeHierarchyStore()
	snapshots := &fakeSnapshotStore{}
	b := testBuilder(classifier, positions, snapshots)

	snapshot, err := b.Build(context.Background(), testUnit(), testRoster())
	require.NoError(t, err)

	for _, update := range positions.updates {
		assert.Equal(t, "Corporate", update.department)
	}
	assert.Equal(t, []string{"Corporate"}, []string(snapshot.Departments))
}

func TestBuild_DivisionsFromClassifier(t *testing.T) {
	classifier := &fakeClassifier{replies: map[string]json.RawMessage{
		"divisions": json.RawMessage(`{"Alice Johnson": "Corporate", "Wei Zhang": "Finance", "Bob Lee": "Technology"}`),
	}}
	positions := newFakeHierarchyStore()
	snapshots := &fakeSnapshotStore{}
	b := testBuilder(classifier, positions, snapshots)

	snapshot, err := b.Build(context.Background(), testUnit(), testRoster())
	require.NoError(t, err)

	assert.Equal(t, "Finance", positions.updates["p2"].department)
	assert.Equal(t, "Technology", positions.updates["p3"].department)
	assert.Equal(t, []string{"Corporate", "Finance", "Technology"}, []string(snapshot.Departments))
}

func TestBuild_SingleRootedTree(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("unavailable")}
	positions := newFakeHierarchyStore()
	snapshots := &fakeSnapshotStore{}
	b := testBuilder(classifier, positions, snapshots)

	snapshot, err := b.Build(context.Background(), testUnit(), testRoster())
	require.NoError(t, err)

	var root models.OrgChartNode
	require.NoError(t, json.Unmarshal(snapshot.Tree, &root))
	assert.Equal(t, "Alice Johnson", root.FullName)
	assert.GreaterOrEqual(t, snapshot.MaxDepth, 2)
}

func TestBuild_VirtualRootWithoutCEO(t *testing.T) {
	classifier := &fakeClassifier{replies: map[string]json.RawMessage{
		"divisions": json.RawMessage(`{"Wei Zhang": "Finance", "Dana Fox": "Technology"}`),
	}}
	positions := newFakeHierarchyStore()
	snapshots := &fakeSnapshotStore{}
	b := testBuilder(classifier, positions, snapshots)

	// No level-1 person and two separate divisions: both heads stay roots and
	// hang under a synthesized virtual root named after the unit.
	roster := []models.Position{
		{ID: "p1", UnitID: "unit-1", FullName: "Wei Zhang", NormalizedName: "wei zhang", Title: "Chief Financial Officer"},
		{ID: "p2", UnitID: "unit-1", FullName: "Dana Fox", NormalizedName: "dana fox", Title: "Chief Technology Officer"},
	}

	snapshot, err := b.Build(context.Background(), testUnit(), roster)
	require.NoError(t, err)

	var root models.OrgChartNode
	require.NoError(t, json.Unmarshal(snapshot.Tree, &root))
	assert.Equal(t, "Acme", root.FullName)
	assert.Equal(t, "Organization", root.Title)
	require.Len(t, root.Reports, 2)
}

func TestBuild_SingleCorporateBucketCollapsesToOneRoot(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("unavailable")}
	positions := newFakeHierarchyStore()
	snapshots := &fakeSnapshotStore{}
	b := testBuilder(classifier, positions, snapshots)

	// Without a CEO the most senior Corporate member heads the division, so
	// the tree still comes out single-rooted.
	roster := []models.Position{
		{ID: "p1", UnitID: "unit-1", FullName: "Wei Zhang", NormalizedName: "wei zhang", Title: "Chief Financial Officer"},
		{ID: "p2", UnitID: "unit-1", FullName: "Dana Fox", NormalizedName: "dana fox", Title: "Chief Technology Officer"},
	}

	snapshot, err := b.Build(context.Background(), testUnit(), roster)
	require.NoError(t, err)

	var root models.OrgChartNode
	require.NoError(t, json.Unmarshal(snapshot.Tree, &root))
	assert.Equal(t, "Dana Fox", root.FullName)
	require.Len(t, root.Reports, 1)
	assert.Equal(t, "Wei Zhang", root.Reports[0].FullName)
}

func TestBuild_SnapshotDateIsStableWithinADay(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("unavailable")}
	positions := newFakeHierarchyStore()
	snapshots := &fakeSnapshotStore{}
	b := testBuilder(classifier, positions, snapshots)

	first, err := b.Build(context.Background(), testUnit(), testRoster())
	require.NoError(t, err)
	second, err := b.Build(context.Background(), testUnit(), testRoster())
	require.NoError(t, err)

	assert.Equal(t, first.SnapshotDate, second.SnapshotDate)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), first.SnapshotDate)
	assert.JSONEq(t, string(first.Tree), string(second.Tree))
	assert.Len(t, snapshots.snapshots, 2)
}

func TestBuild_EmptyRoster(t *testing.T) {
	classifier := &fakeClassifier{}
	positions := newFakeHierarchyStore()
	snapshots := &fakeSnapshotStore{}
	b := testBuilder(classifier, positions, snapshots)

	snapshot, err := b.Build(context.Background(), testUnit(), nil)
	require.NoError(t, err)
	assert.Nil(t, snapshot)
	assert.Empty(t, snapshots.snapshots)
	assert.Zero(t, classifier.calls)
}

func TestBuildTree_OrphanEdgesBecomeRoots(t *testing.T) {
	gone := "missing-position"
	positions := []*models.Position{
		{ID: "p1", FullName: "Alice Johnson", ManagementLevel: 1},
		{ID: "p2", FullName: "Bob Lee", ManagementLevel: 5, ReportsToID: &gone},
	}

	root := BuildTree("Acme", positions)
	assert.Equal(t, "Acme", root.FullName)
	require.Len(t, root.Reports, 2)
	assert.Equal(t, "Alice Johnson", root.Reports[0].FullName)
}
