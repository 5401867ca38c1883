package orgchart

import (
	"strings"

	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/normalizers"
)

// Management levels, 1 = top of the house. Unrecognized titles rank 9 so they
// sort below every recognized level.
const (
	LevelCEO      = 1
	LevelCSuite   = 2
	LevelEVP      = 3
	LevelSVP      = 4
	LevelVP       = 5
	LevelDirector = 6
	LevelManager  = 7
	LevelUnknown  = 9
)

// ManagementLevelFor pattern-matches a free-text title against the fixed
// keyword table. The match runs on the normalized title, so "Chief Executive
// Officer", "CEO" and "Chairman and C.E.O." all resolve identically.
func ManagementLevelFor(title string) int {
	normalized := normalizers.NormalizeTitle(title)
	if normalized == "" {
		return LevelUnknown
	}
	tokens := tokenSet(normalized)

	switch {
	case tokens["ceo"]:
		return LevelCEO
	case strings.Contains(normalized, "chairman") && !strings.Contains(normalized, "vice"):
		return LevelCEO
	case tokens["cfo"], tokens["coo"], tokens["cto"], tokens["cio"], tokens["cmo"],
		tokens["chro"], tokens["clo"], strings.HasPrefix(normalized, "chief"):
		return LevelCSuite
	case tokens["president"] && !tokens["vp"]:
		return LevelCSuite
	case tokens["evp"]:
		return LevelEVP
	case tokens["svp"]:
		return LevelSVP
	case tokens["vp"]:
		return LevelVP
	case tokens["director"], strings.Contains(normalized, "board"):
		return LevelDirector
	case tokens["manager"]:
		return LevelManager
	default:
		return LevelUnknown
	}
}

// TitleLevelFor derives the coarse title level enum from a free-text title
func TitleLevelFor(title string) models.TitleLevel {
	normalized := normalizers.NormalizeTitle(title)
	if normalized == "" {
		return models.TitleLevelUnknown
	}
	tokens := tokenSet(normalized)

	switch {
	case strings.Contains(normalized, "board"):
		return models.TitleLevelBoard
	case tokens["ceo"], tokens["cfo"], tokens["coo"], tokens["cto"], tokens["cio"],
		tokens["cmo"], tokens["chro"], tokens["clo"], strings.HasPrefix(normalized, "chief"):
		return models.TitleLevelCSuite
	case strings.Contains(normalized, "chairman") && !strings.Contains(normalized, "vice"):
		return models.TitleLevelBoard
	case tokens["president"] && !tokens["vp"]:
		return models.TitleLevelPresident
	case tokens["evp"]:
		return models.TitleLevelEVP
	case tokens["svp"]:
		return models.TitleLevelSVP
	case tokens["vp"]:
		return models.TitleLevelVP
	case tokens["director"]:
		return models.TitleLevelDirector
	case tokens["manager"]:
		return models.TitleLevelManager
	default:
		return models.TitleLevelUnknown
	}
}

// SeniorityRank orders normalized titles on the fixed ladder used by change
// classification: ceo > president > evp > svp > vp > director > manager.
// Unrecognized titles rank lowest.
func SeniorityRank(title string) int {
	level := ManagementLevelFor(title)
	if level == LevelUnknown {
		return 0
	}
	// Invert so higher rank means more senior
	return 10 - level
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(s)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
