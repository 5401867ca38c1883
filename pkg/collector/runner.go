// Package collector orchestrates a full collection run: structure discovery,
// bounded fan-out over the units, entity resolution, change detection and
// chart building. One failing unit never takes down the run; the result
// aggregates partial successes with explicit error and warning lists.
package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/changes"
	"github.com/Ramsey-B/banyan/pkg/discovery"
	"github.com/Ramsey-B/banyan/pkg/events"
	"github.com/Ramsey-B/banyan/pkg/merging"
	"github.com/Ramsey-B/banyan/pkg/metrics"
	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/normalizers"
	"github.com/Ramsey-B/banyan/pkg/sources"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// UnitStore is the unit persistence the runner needs
type UnitStore interface {
	Get(ctx context.Context, id string) (*models.BusinessUnit, error)
	ListChildren(ctx context.Context, parentID string) ([]models.BusinessUnit, error)
}

// PositionStore is the position persistence the runner needs
type PositionStore interface {
	ListCurrentByUnit(ctx context.Context, unitID string) ([]models.Position, error)
	Supersede(ctx context.Context, positionID string) error
}

// ChangeStore persists detected changes. Create returns (nil, nil) for
// cross-run duplicates.
type ChangeStore interface {
	Create(ctx context.Context, change *models.LeadershipChange) (*models.LeadershipChange, error)
}

// Discoverer maps the parent's structure
type Discoverer interface {
	Discover(ctx context.Context, parent *models.BusinessUnit, budget discovery.Budget, maxUnits int) (*discovery.Result, error)
}

// Resolver merges extracted people into a unit's canonical roster
type Resolver interface {
	Resolve(ctx context.Context, unitID string, people []models.ExtractedPerson) (int, int, error)
}

// Detector diffs rosters into change events
type Detector interface {
	Detect(unitID string, old []models.Position, current []models.ExtractedPerson, opts changes.Options) []models.LeadershipChange
}

// ChartBuilder assembles and persists a unit's org chart
type ChartBuilder interface {
	Build(ctx context.Context, unit *models.BusinessUnit, roster []models.Position) (*models.OrgChartSnapshot, error)
}

// GraphProjector mirrors results into the graph database. Optional.
type GraphProjector interface {
	ProjectUnit(ctx context.Context, unit *models.BusinessUnit) error
	ProjectRoster(ctx context.Context, unit *models.BusinessUnit, roster []models.Position) error
}

// Runner executes collection runs
type Runner struct {
	units      UnitStore
	positions  PositionStore
	changes    ChangeStore
	discoverer Discoverer
	resolver   Resolver
	detector   Detector
	builder    ChartBuilder
	sources    []sources.Source
	emitter    *events.Emitter
	graph      GraphProjector
	logger     *zap.Logger
}

// Deps bundles the runner's collaborators. Emitter and Graph may be nil.
type Deps struct {
	Units      UnitStore
	Positions  PositionStore
	Changes    ChangeStore
	Discoverer Discoverer
	Resolver   Resolver
	Detector   Detector
	Builder    ChartBuilder
	Sources    []sources.Source
	Emitter    *events.Emitter
	Graph      GraphProjector
	Logger     *zap.Logger
}

// NewRunner creates a Runner
func NewRunner(deps Deps) *Runner {
	return &Runner{
		units:      deps.Units,
		positions:  deps.Positions,
		changes:    deps.Changes,
		discoverer: deps.Discoverer,
		resolver:   deps.Resolver,
		detector:   deps.Detector,
		builder:    deps.Builder,
		sources:    deps.Sources,
		emitter:    deps.Emitter,
		graph:      deps.Graph,
		logger:     deps.Logger,
	}
}

// unitOutcome is one unit's contribution to the aggregate result
type unitOutcome struct {
	succeeded      bool
	peopleFound    int
	peopleCreated  int
	peopleUpdated  int
	changesCreated int
	snapshotsBuilt int
	errors         []string
	warnings       []string
}

// Run executes one collection run rooted at parentUnitID. The only fatal
// error is an unknown parent unit; everything else degrades into the
// result's error and warning lists.
func (r *Runner) Run(ctx context.Context, parentUnitID string, cfg models.CollectionConfig) (*models.CollectionResult, error) {
	ctx, span := tracing.StartSpan(ctx, "collector.Runner.Run")
	defer span.End()

	cfg = cfg.Normalize()
	start := time.Now()
	result := &models.CollectionResult{PhaseDurationsMs: make(map[string]int64)}

	parent, err := r.units.Get(ctx, parentUnitID)
	if err != nil {
		metrics.CollectionRunsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("parent unit lookup failed: %w", err)
	}

	log := r.logger.With(zap.String("parent", parent.Name), zap.String("parent_id", parent.ID))
	log.Info("collection run starting",
		zap.Int("max_concurrent_units", cfg.MaxConcurrentUnits),
		zap.Int("max_units", cfg.MaxUnits))

	if !cfg.SkipDiscovery {
		phaseStart := time.Now()
		r.runDiscovery(ctx, parent, cfg, result)
		result.PhaseDurationsMs["discovery"] = time.Since(phaseStart).Milliseconds()
	}

	targets, err := r.collectionTargets(ctx, parent, cfg.MaxUnits)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to list collection targets: %v", err))
		targets = []models.BusinessUnit{*parent}
	}

	phaseStart := time.Now()
	r.fanOut(ctx, targets, cfg, result)
	result.PhaseDurationsMs["collection"] = time.Since(phaseStart).Milliseconds()

	result.Success = result.UnitsCollected > 0 || result.UnitsDiscovered > 0

	elapsed := time.Since(start)
	result.PhaseDurationsMs["total"] = elapsed.Milliseconds()

	status := "succeeded"
	if !result.Success {
		status = "failed"
	}
	metrics.CollectionRunsTotal.WithLabelValues(status).Inc()
	metrics.CollectionDuration.Observe(elapsed.Seconds())

	log.Info("collection run finished",
		zap.Bool("success", result.Success),
		zap.Int("units_collected", result.UnitsCollected),
		zap.Int("people_found", result.PeopleFound),
		zap.Int("changes_detected", result.ChangesDetected),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("elapsed", elapsed))

	return result, nil
}

func (r *Runner) runDiscovery(ctx context.Context, parent *models.BusinessUnit, cfg models.CollectionConfig, result *models.CollectionResult) {
	budget := discovery.Budget{MaxPages: cfg.MaxPagesPerUnit, MaxDepth: cfg.MaxCrawlDepth}

	discovered, err := r.discoverer.Discover(ctx, parent, budget, cfg.MaxUnits)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("structure discovery failed: %v", err))
		return
	}

	result.UnitsDiscovered = len(discovered.Units)
	result.Warnings = append(result.Warnings, discovered.Warnings...)
	for _, unit := range discovered.Units {
		signal := "unknown"
		if len(unit.DiscoverySources) > 0 {
			signal = unit.DiscoverySources[0]
		}
		metrics.UnitsDiscovered.WithLabelValues(signal).Inc()
	}

	if r.graph != nil {
		for _, unit := range discovered.Units {
			if err := r.graph.ProjectUnit(ctx, unit); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("graph projection failed for %s: %v", unit.Name, err))
			}
		}
	}
}

// collectionTargets is the parent plus its children, capped at maxUnits
// children
func (r *Runner) collectionTargets(ctx context.Context, parent *models.BusinessUnit, maxUnits int) ([]models.BusinessUnit, error) {
	children, err := r.units.ListChildren(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	if maxUnits > 0 && len(children) > maxUnits {
		children = children[:maxUnits]
	}
	return append([]models.BusinessUnit{*parent}, children...), nil
}

// fanOut collects every target unit under a concurrency semaphore. A panic in
// one unit is contained and reported as that unit's error.
func (r *Runner) fanOut(ctx context.Context, targets []models.BusinessUnit, cfg models.CollectionConfig, result *models.CollectionResult) {
	semaphore := make(chan struct{}, cfg.MaxConcurrentUnits)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := range targets {
		unit := targets[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			outcome := r.collectUnitSafe(ctx, &unit, cfg)

			mu.Lock()
			defer mu.Unlock()
			if outcome.succeeded {
				result.UnitsCollected++
			}
			result.PeopleFound += outcome.peopleFound
			result.PeopleCreated += outcome.peopleCreated
			result.PeopleUpdated += outcome.peopleUpdated
			result.ChangesDetected += outcome.changesCreated
			result.SnapshotsBuilt += outcome.snapshotsBuilt
			result.Errors = append(result.Errors, outcome.errors...)
			result.Warnings = append(result.Warnings, outcome.warnings...)
		}()
	}

	wg.Wait()
}

func (r *Runner) collectUnitSafe(ctx context.Context, unit *models.BusinessUnit, cfg models.CollectionConfig) (outcome *unitOutcome) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("unit collection panicked",
				zap.String("unit", unit.Name),
				zap.Any("panic", p))
			outcome = &unitOutcome{
				errors: []string{fmt.Sprintf("%s: collection panicked: %v", unit.Name, p)},
			}
		}
	}()
	return r.collectUnit(ctx, unit, cfg)
}

// collectUnit runs the full per-unit pipeline: sources, resolution against
// the pre-collection roster, change detection, persistence and chart build.
func (r *Runner) collectUnit(ctx context.Context, unit *models.BusinessUnit, cfg models.CollectionConfig) *unitOutcome {
	ctx, span := tracing.StartSpan(ctx, "collector.Runner.collectUnit")
	defer span.End()

	outcome := &unitOutcome{}
	log := r.logger.With(zap.String("unit", unit.Name), zap.String("unit_id", unit.ID))

	people, sourceChanges := r.runSources(ctx, unit, cfg, outcome)
	outcome.peopleFound = len(people)
	if len(people) == 0 && len(sourceChanges) == 0 {
		log.Debug("unit yielded no evidence")
		outcome.succeeded = len(outcome.errors) == 0
		return outcome
	}

	// The roster before resolution is the "old" side of change detection
	oldRoster, err := r.positions.ListCurrentByUnit(ctx, unit.ID)
	if err != nil {
		outcome.errors = append(outcome.errors, fmt.Sprintf("%s: failed to load roster: %v", unit.Name, err))
		return outcome
	}

	canonical := merging.DedupeExtracted(people)

	if len(canonical) > 0 {
		created, updated, err := r.resolver.Resolve(ctx, unit.ID, canonical)
		outcome.peopleCreated = created
		outcome.peopleUpdated = updated
		metrics.PeopleMerged.WithLabelValues("created").Add(float64(created))
		metrics.PeopleMerged.WithLabelValues("updated").Add(float64(updated))
		if err != nil {
			outcome.errors = append(outcome.errors, fmt.Sprintf("%s: resolution failed: %v", unit.Name, err))
			return outcome
		}
	}

	// Roster diffing only makes sense against a non-empty baseline; the
	// first collection of a unit is all arrivals, not news.
	var detected []models.LeadershipChange
	if len(oldRoster) > 0 {
		detected = r.detector.Detect(unit.ID, oldRoster, canonical, changes.Options{
			NameSimilarityThreshold: cfg.NameSimilarityThreshold,
			DepartureConfidence:     cfg.DepartureConfidence,
		})
	}

	r.persistChanges(ctx, unit, append(detected, sourceChanges...), oldRoster, cfg, outcome)

	if cfg.BuildOrgCharts {
		r.buildChart(ctx, unit, outcome)
	}

	outcome.succeeded = true
	return outcome
}

// runSources fans the applicable sources out concurrently into disjoint
// slots, then flattens. A failed source contributes an error and nothing
// else.
func (r *Runner) runSources(ctx context.Context, unit *models.BusinessUnit, cfg models.CollectionConfig, outcome *unitOutcome) ([]models.ExtractedPerson, []models.LeadershipChange) {
	budget := sources.Budget{
		MaxPages:    cfg.MaxPagesPerUnit,
		MaxDepth:    cfg.MaxCrawlDepth,
		MaxSearches: cfg.MaxSearches,
	}

	var applicable []sources.Source
	for _, source := range r.sources {
		if !r.sourceEnabled(source.Name(), cfg) || !source.Applicable(unit) {
			continue
		}
		applicable = append(applicable, source)
	}

	outputs := make([]*sources.CollectOutput, len(applicable))
	errs := make([]error, len(applicable))
	var wg sync.WaitGroup
	for i, source := range applicable {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outputs[i], errs[i] = source.Collect(ctx, unit, budget)
		}()
	}
	wg.Wait()

	var people []models.ExtractedPerson
	var sourceChanges []models.LeadershipChange
	for i, source := range applicable {
		if errs[i] != nil {
			outcome.errors = append(outcome.errors, fmt.Sprintf("%s: %s source failed: %v", unit.Name, source.Name(), errs[i]))
			continue
		}
		if outputs[i] == nil {
			continue
		}
		people = append(people, outputs[i].People...)
		sourceChanges = append(sourceChanges, outputs[i].Changes...)
		outcome.warnings = append(outcome.warnings, outputs[i].Errors...)
	}

	return people, sourceChanges
}

func (r *Runner) sourceEnabled(name string, cfg models.CollectionConfig) bool {
	switch name {
	case "web":
		return cfg.EnableWebSource
	case "filing":
		return cfg.EnableFilingSource
	case "news":
		return cfg.EnableNewsSource
	}
	return true
}

// persistChanges scores, filters, dedupes and stores the combined change set,
// emitting an event per stored change. Departures corroborated at medium or
// better confidence supersede the position.
func (r *Runner) persistChanges(ctx context.Context, unit *models.BusinessUnit, detected []models.LeadershipChange, oldRoster []models.Position, cfg models.CollectionConfig, outcome *unitOutcome) {
	if len(detected) == 0 {
		return
	}

	for i := range detected {
		if detected[i].SignificanceScore == 0 {
			detected[i].SignificanceScore = changes.ScoreSignificance(detected[i])
		}
	}

	deduped := merging.DedupeChanges(detected)
	for _, change := range deduped {
		if change.SignificanceScore < cfg.MinSignificance {
			continue
		}

		stored, err := r.changes.Create(ctx, &change)
		if err != nil {
			outcome.errors = append(outcome.errors, fmt.Sprintf("%s: failed to store change for %s: %v", unit.Name, change.PersonName, err))
			continue
		}
		if stored == nil {
			continue
		}

		outcome.changesCreated++
		metrics.ChangesDetected.WithLabelValues(string(change.ChangeType)).Inc()

		if r.emitter != nil {
			if err := r.emitter.EmitChange(ctx, stored); err != nil {
				outcome.warnings = append(outcome.warnings, fmt.Sprintf("%s: failed to emit change event: %v", unit.Name, err))
			}
		}

		if isDeparture(change.ChangeType) && change.Confidence.Rank() >= models.ConfidenceMedium.Rank() {
			r.supersedeDeparted(ctx, change, oldRoster, outcome)
		}
	}
}

func isDeparture(changeType models.ChangeType) bool {
	return changeType == models.ChangeTypeDeparture ||
		changeType == models.ChangeTypeBoardDeparture ||
		changeType == models.ChangeTypeRetirement
}

func (r *Runner) supersedeDeparted(ctx context.Context, change models.LeadershipChange, oldRoster []models.Position, outcome *unitOutcome) {
	// Departures come out of a fuzzy roster diff, so the stored spelling can
	// differ from the change's; match on the normalized form.
	departed := normalizers.NormalizePersonName(change.PersonName)
	for i := range oldRoster {
		if oldRoster[i].NormalizedName != departed {
			continue
		}
		if err := r.positions.Supersede(ctx, oldRoster[i].ID); err != nil {
			outcome.warnings = append(outcome.warnings, fmt.Sprintf("failed to supersede %s: %v", change.PersonName, err))
		}
		return
	}
}

func (r *Runner) buildChart(ctx context.Context, unit *models.BusinessUnit, outcome *unitOutcome) {
	roster, err := r.positions.ListCurrentByUnit(ctx, unit.ID)
	if err != nil {
		outcome.errors = append(outcome.errors, fmt.Sprintf("%s: failed to reload roster for chart: %v", unit.Name, err))
		return
	}
	if len(roster) == 0 {
		return
	}

	snapshot, err := r.builder.Build(ctx, unit, roster)
	if err != nil {
		outcome.errors = append(outcome.errors, fmt.Sprintf("%s: chart build failed: %v", unit.Name, err))
		return
	}
	if snapshot == nil {
		return
	}

	outcome.snapshotsBuilt++
	metrics.SnapshotsBuilt.Inc()

	if r.emitter != nil {
		if err := r.emitter.EmitSnapshot(ctx, snapshot); err != nil {
			outcome.warnings = append(outcome.warnings, fmt.Sprintf("%s: failed to emit snapshot event: %v", unit.Name, err))
		}
	}

	if r.graph != nil {
		// Reload so the persisted hierarchy edges are what gets projected
		updated, err := r.positions.ListCurrentByUnit(ctx, unit.ID)
		if err == nil {
			if err := r.graph.ProjectRoster(ctx, unit, updated); err != nil {
				outcome.warnings = append(outcome.warnings, fmt.Sprintf("%s: graph projection failed: %v", unit.Name, err))
			}
		}
	}
}
