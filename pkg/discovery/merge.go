package discovery

import (
	"sort"
	"strings"

	"github.com/Ramsey-B/banyan/pkg/normalizers"
)

// Signal names, also recorded in discovery_sources
const (
	SignalRegistry  = "registry"
	SignalWebsite   = "website"
	SignalKnowledge = "knowledge"
)

// signalPriority ranks the signals for conflict resolution. Higher wins.
var signalPriority = map[string]int{
	SignalRegistry:  3,
	SignalWebsite:   2,
	SignalKnowledge: 1,
}

// shellMarkers flag pass-through legal entities that exist on paper but have
// no leadership of their own
var shellMarkers = []string{
	"holding", "holdings", "trust", "funding", "finance",
	"capital", "insurance company", "receivables",
}

// MergeCandidates collapses candidates onto one record per normalized name.
// The highest-priority signal's fields win; lower-priority signals fill gaps
// only. Candidates matching the parent's own normalized name are dropped.
// Output order is deterministic: best signal first, then name.
func MergeCandidates(candidates []Candidate, parentNormalizedName string) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return candidatePriority(sorted[i]) > candidatePriority(sorted[j])
	})

	merged := make(map[string]*Candidate)
	var order []string
	for _, candidate := range sorted {
		key := normalizers.NormalizeCompanyName(candidate.Name)
		if key == "" || key == parentNormalizedName {
			continue
		}

		existing, ok := merged[key]
		if !ok {
			clone := candidate
			merged[key] = &clone
			order = append(order, key)
			continue
		}
		fillGaps(existing, candidate)
	}

	result := make([]Candidate, 0, len(order))
	for _, key := range order {
		result = append(result, *merged[key])
	}
	sort.SliceStable(result, func(i, j int) bool {
		pi, pj := candidatePriority(result[i]), candidatePriority(result[j])
		if pi != pj {
			return pi > pj
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// fillGaps copies fields from a lower-priority candidate into dst where dst
// has none, and appends the contributing signal to the provenance list.
func fillGaps(dst *Candidate, src Candidate) {
	if dst.Website == "" {
		dst.Website = src.Website
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if !dst.UnitType.IsValid() {
		dst.UnitType = src.UnitType
	}
	if dst.Jurisdiction == "" {
		dst.Jurisdiction = src.Jurisdiction
	}
	if dst.OwnershipPct == nil {
		dst.OwnershipPct = src.OwnershipPct
	}
	dst.IsPublic = dst.IsPublic || src.IsPublic

	for _, source := range src.Sources {
		if !containsSource(dst.Sources, source) {
			dst.Sources = append(dst.Sources, source)
		}
	}
}

// IsLikelyShell reports whether a candidate looks like a pass-through legal
// entity. A real website or description exempts it: an operating company can
// legitimately be named "X Holdings".
func IsLikelyShell(candidate Candidate) bool {
	if candidate.Website != "" || candidate.Description != "" {
		return false
	}
	// Match on the raw lowercased name: company-name normalization strips
	// trailing legal suffixes, which is exactly what the markers are.
	name := " " + strings.ToLower(strings.TrimSpace(candidate.Name)) + " "
	for _, marker := range shellMarkers {
		if strings.Contains(name, " "+marker+" ") {
			return true
		}
	}
	return false
}

func candidatePriority(candidate Candidate) int {
	best := 0
	for _, source := range candidate.Sources {
		if p := signalPriority[source]; p > best {
			best = p
		}
	}
	return best
}

func containsSource(sources []string, source string) bool {
	for _, s := range sources {
		if s == source {
			return true
		}
	}
	return false
}
