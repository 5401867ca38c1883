// Package merging implements entity resolution for extracted person records
// and dedup for leadership changes.
package merging

import (
	"strings"
	"unicode/utf8"

	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/normalizers"
)

const (
	maxNameLength  = 120
	maxTitleLength = 200
)

// IsPlausiblePerson applies the basic sanity checks used to silently drop
// malformed extractions: a real name has at least two tokens and stays within
// sane length bounds. Failures are not errors, they are filtered input.
func IsPlausiblePerson(p models.ExtractedPerson) bool {
	name := strings.TrimSpace(p.FullName)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return false
	}
	if utf8.RuneCountInString(p.Title) > maxTitleLength {
		return false
	}

	tokens := strings.Fields(normalizers.NormalizePersonName(name))
	if len(tokens) < 2 {
		return false
	}

	// Reject names that are mostly digits (table artifacts, dates)
	digits := 0
	for _, r := range name {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits*2 < len(name)
}

// IdentityKey returns the dedup key for an extracted person: the normalized
// profile URL when present, otherwise the normalized full name. Name keys are
// only valid within a single unit; callers must not compare them across units.
func IdentityKey(p models.ExtractedPerson) string {
	if u := normalizers.NormalizeURL(p.LinkedInURL); u != "" {
		return "url:" + u
	}
	return "name:" + normalizers.NormalizePersonName(p.FullName)
}

// MergeExtracted merges src into dst under the fill-gaps policy: existing
// non-empty fields are kept unless the incoming record carries strictly
// higher confidence, empty fields are filled from the other record, boolean
// flags OR together and confidence promotes to the highest value seen.
// Merging a record into itself is a no-op.
func MergeExtracted(dst, src models.ExtractedPerson) models.ExtractedPerson {
	srcWins := src.Confidence.Rank() > dst.Confidence.Rank()

	pick := func(existing, incoming string) string {
		if existing == "" {
			return incoming
		}
		if incoming != "" && srcWins {
			return incoming
		}
		return existing
	}

	out := dst
	out.FullName = pick(dst.FullName, src.FullName)
	out.Title = pick(dst.Title, src.Title)
	out.Department = pick(dst.Department, src.Department)
	out.Bio = pick(dst.Bio, src.Bio)
	out.LinkedInURL = pick(dst.LinkedInURL, src.LinkedInURL)
	out.Email = pick(dst.Email, src.Email)
	out.PhotoURL = pick(dst.PhotoURL, src.PhotoURL)
	out.ReportsToName = pick(dst.ReportsToName, src.ReportsToName)
	out.SourceURL = pick(dst.SourceURL, src.SourceURL)
	out.ProvenanceNote = pick(dst.ProvenanceNote, src.ProvenanceNote)

	if out.TitleLevel == "" || out.TitleLevel == models.TitleLevelUnknown {
		if src.TitleLevel != "" {
			out.TitleLevel = src.TitleLevel
		}
	} else if src.TitleLevel != "" && src.TitleLevel != models.TitleLevelUnknown && srcWins {
		out.TitleLevel = src.TitleLevel
	}

	out.IsBoardMember = dst.IsBoardMember || src.IsBoardMember
	out.IsExecutive = dst.IsExecutive || src.IsExecutive
	out.Confidence = dst.Confidence.Promote(src.Confidence)

	return out
}

// DedupeExtracted reconciles a raw extraction list into one canonical record
// per identity. Records failing the sanity checks are dropped silently.
// Output order follows first appearance of each identity.
func DedupeExtracted(people []models.ExtractedPerson) []models.ExtractedPerson {
	byKey := make(map[string]int, len(people))
	out := make([]models.ExtractedPerson, 0, len(people))

	for _, p := range people {
		if !IsPlausiblePerson(p) {
			continue
		}

		key := IdentityKey(p)
		if idx, ok := byKey[key]; ok {
			out[idx] = MergeExtracted(out[idx], p)
			continue
		}

		// A record with a profile URL also claims its name key, so later
		// URL-less records for the same person still merge in.
		byKey[key] = len(out)
		if nameKey := "name:" + normalizers.NormalizePersonName(p.FullName); nameKey != key {
			if idx, ok := byKey[nameKey]; ok {
				out[idx] = MergeExtracted(out[idx], p)
				byKey[key] = idx
				continue
			}
			byKey[nameKey] = len(out)
		}
		out = append(out, p)
	}

	return out
}

// DedupeChanges removes duplicate change records. Change identity is an exact
// key match on (normalized name, change type, announced-or-effective date);
// changes are transient events, so no fuzzy matching is applied. On duplicate
// keys the higher-confidence record wins.
func DedupeChanges(changes []models.LeadershipChange) []models.LeadershipChange {
	byKey := make(map[string]int, len(changes))
	out := make([]models.LeadershipChange, 0, len(changes))

	for _, c := range changes {
		if !c.ChangeType.IsValid() || strings.TrimSpace(c.PersonName) == "" {
			continue
		}

		key := c.DedupKey(normalizers.NormalizePersonName(c.PersonName))
		if idx, ok := byKey[key]; ok {
			if c.Confidence.Rank() > out[idx].Confidence.Rank() {
				out[idx] = c
			}
			continue
		}
		byKey[key] = len(out)
		out = append(out, c)
	}

	return out
}
