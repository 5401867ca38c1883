// Package sources implements the per-unit evidence sources. Each source is a
// self-contained collector: it fetches its own raw material, extracts people
// and change records from it, and reports recoverable problems as warnings in
// its output rather than failing the unit. A source returns a non-nil error
// only when it could not run at all.
package sources

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/Ramsey-B/banyan/pkg/merging"
	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/orgchart"
)

// CollectOutput is everything one source produced for one unit
type CollectOutput struct {
	People  []models.ExtractedPerson
	Changes []models.LeadershipChange
	Errors  []string
}

// Budget caps how much work a source may do for one unit
type Budget struct {
	MaxPages    int
	MaxDepth    int
	MaxSearches int
}

// Source collects leadership evidence for a single business unit
type Source interface {
	// Name identifies the source in provenance notes and logs
	Name() string

	// Applicable reports whether the source can run for this unit at all
	// (e.g. a filings source needs a registry ID)
	Applicable(unit *models.BusinessUnit) bool

	// Collect gathers evidence for the unit. Data-not-found conditions
	// (no leadership page, no filing, no coverage) return an empty output,
	// not an error.
	Collect(ctx context.Context, unit *models.BusinessUnit, budget Budget) (*CollectOutput, error)
}

// extractedPersonDTO is the wire shape extraction replies use
type extractedPersonDTO struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Department  string `json:"department"`
	Bio         string `json:"bio"`
	LinkedInURL string `json:"linkedin_url"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url"`
	ReportsTo   string `json:"reports_to"`
	IsBoard     bool   `json:"is_board_member"`
	Confidence  string `json:"confidence"`
}

// toPeople converts extraction DTOs into person records, dropping implausible
// entries and stamping provenance. defaultConfidence applies when the
// extraction did not rate the record itself.
func toPeople(dtos []extractedPersonDTO, sourceName, sourceURL string, defaultConfidence models.Confidence) []models.ExtractedPerson {
	people := make([]models.ExtractedPerson, 0, len(dtos))
	for _, dto := range dtos {
		confidence := defaultConfidence
		if dto.Confidence != "" {
			confidence = models.ParseConfidence(dto.Confidence)
		}

		titleLevel := orgchart.TitleLevelFor(dto.Title)
		person := models.ExtractedPerson{
			FullName:       strings.TrimSpace(dto.Name),
			Title:          strings.TrimSpace(dto.Title),
			TitleLevel:     titleLevel,
			Department:     strings.TrimSpace(dto.Department),
			Bio:            strings.TrimSpace(dto.Bio),
			LinkedInURL:    strings.TrimSpace(dto.LinkedInURL),
			Email:          strings.TrimSpace(dto.Email),
			PhotoURL:       strings.TrimSpace(dto.PhotoURL),
			ReportsToName:  strings.TrimSpace(dto.ReportsTo),
			IsBoardMember:  dto.IsBoard || titleLevel == models.TitleLevelBoard,
			IsExecutive:    isExecutiveLevel(titleLevel),
			Confidence:     confidence,
			SourceURL:      sourceURL,
			ProvenanceNote: sourceName,
		}
		if !merging.IsPlausiblePerson(person) {
			continue
		}
		people = append(people, person)
	}
	return people
}

func isExecutiveLevel(level models.TitleLevel) bool {
	switch level {
	case models.TitleLevelCSuite, models.TitleLevelPresident, models.TitleLevelEVP,
		models.TitleLevelSVP, models.TitleLevelVP:
		return true
	}
	return false
}

// htmlToText flattens an HTML body into whitespace-separated text, skipping
// script and style content. Extraction prompts get text, never markup.
func htmlToText(body []byte) string {
	tokenizer := html.NewTokenizer(strings.NewReader(string(body)))
	var builder strings.Builder
	skipDepth := 0

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			return strings.Join(strings.Fields(builder.String()), " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				builder.Write(tokenizer.Text())
				builder.WriteByte(' ')
			}
		}
	}
}

func isSkippedTag(name string) bool {
	return name == "script" || name == "style" || name == "noscript"
}

// truncate caps prompt material so one giant page cannot blow the
// classification request
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
