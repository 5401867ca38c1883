package models

// CollectionConfig carries the per-run budgets and toggles for a collection run.
// Every fan-out and crawl budget is explicit so runs terminate regardless of
// how much data a source returns.
type CollectionConfig struct {
	MaxConcurrentUnits int `json:"max_concurrent_units"`
	MaxUnits           int `json:"max_units"`
	MaxPagesPerUnit    int `json:"max_pages_per_unit"`
	MaxCrawlDepth      int `json:"max_crawl_depth"`
	MaxSearches        int `json:"max_searches"`

	EnableWebSource    bool `json:"enable_web_source"`
	EnableFilingSource bool `json:"enable_filing_source"`
	EnableNewsSource   bool `json:"enable_news_source"`
	SkipDiscovery      bool `json:"skip_discovery"`
	BuildOrgCharts     bool `json:"build_org_charts"`

	// MinSignificance filters detected changes for alerting (1-10)
	MinSignificance int `json:"min_significance"`

	// NameSimilarityThreshold is the fuzzy-match cutoff for roster diffing
	NameSimilarityThreshold float64 `json:"name_similarity_threshold"`

	// DepartureConfidence calibrates absence-based departure inference.
	// Kept a tunable rather than a fixed constant; defaults to low.
	DepartureConfidence Confidence `json:"departure_confidence"`
}

// Normalize fills zero values with safe defaults so a partially specified
// config still yields a bounded run.
func (c CollectionConfig) Normalize() CollectionConfig {
	if c.MaxConcurrentUnits <= 0 {
		c.MaxConcurrentUnits = 4
	}
	if c.MaxUnits <= 0 {
		c.MaxUnits = 25
	}
	if c.MaxPagesPerUnit <= 0 {
		c.MaxPagesPerUnit = 10
	}
	if c.MaxCrawlDepth <= 0 {
		c.MaxCrawlDepth = 2
	}
	if c.MaxSearches <= 0 {
		c.MaxSearches = 5
	}
	if c.MinSignificance <= 0 {
		c.MinSignificance = 1
	}
	if c.NameSimilarityThreshold <= 0 {
		c.NameSimilarityThreshold = 0.85
	}
	if c.DepartureConfidence == "" {
		c.DepartureConfidence = ConfidenceLow
	}
	return c
}

// CollectionResult is the aggregate outcome of one collection run. Callers
// always receive a result with partial successes and explicit error/warning
// lists; only a missing parent unit aborts a run outright.
type CollectionResult struct {
	Success         bool `json:"success"`
	UnitsDiscovered int  `json:"units_discovered"`
	UnitsCollected  int  `json:"units_collected"`
	PeopleFound     int  `json:"people_found"`
	PeopleCreated   int  `json:"people_created"`
	PeopleUpdated   int  `json:"people_updated"`
	ChangesDetected int  `json:"changes_detected"`
	SnapshotsBuilt  int  `json:"snapshots_built"`

	PhaseDurationsMs map[string]int64 `json:"phase_durations_ms"`

	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
