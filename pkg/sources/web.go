package sources

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/classify"
	"github.com/Ramsey-B/banyan/pkg/crawler"
	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// maxExtractionPages caps how many crawled pages get sent for extraction.
// Leadership content is almost always concentrated on a handful of pages.
const maxExtractionPages = 3

// leadershipPathHints rank crawled URLs by how likely they are to hold
// leadership content
var leadershipPathHints = []string{
	"leadership", "executive", "management", "board", "governance",
	"our-team", "team", "officers", "about",
}

// WebSource crawls a unit's website and extracts its leadership roster.
// Records from a company's own site carry high confidence.
type WebSource struct {
	crawler    *crawler.Crawler
	classifier classify.Classifier
	logger     *zap.Logger
}

// NewWebSource creates the website source
func NewWebSource(crawler *crawler.Crawler, classifier classify.Classifier, logger *zap.Logger) *WebSource {
	return &WebSource{
		crawler:    crawler,
		classifier: classifier,
		logger:     logger,
	}
}

// Name implements Source
func (s *WebSource) Name() string {
	return "web"
}

// Applicable implements Source
func (s *WebSource) Applicable(unit *models.BusinessUnit) bool {
	return unit != nil && unit.Website != ""
}

// Collect crawls the unit's site within budget, picks the pages most likely
// to describe leadership, and extracts person records from each.
func (s *WebSource) Collect(ctx context.Context, unit *models.BusinessUnit, budget Budget) (*CollectOutput, error) {
	ctx, span := tracing.StartSpan(ctx, "sources.WebSource.Collect")
	defer span.End()

	out := &CollectOutput{}

	pages, err := s.crawler.Crawl(ctx, unit.Website, crawler.Options{
		MaxPages: budget.MaxPages,
		MaxDepth: budget.MaxDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("website crawl failed for %s: %w", unit.Name, err)
	}
	if len(pages) == 0 {
		s.logger.Debug("website yielded no pages", zap.String("unit", unit.Name))
		return out, nil
	}

	for _, page := range rankLeadershipPages(pages) {
		people, warning := s.extractPeople(ctx, page)
		if warning != "" {
			out.Errors = append(out.Errors, warning)
		}
		out.People = append(out.People, people...)
	}

	s.logger.Debug("website collection complete",
		zap.String("unit", unit.Name),
		zap.Int("pages_crawled", len(pages)),
		zap.Int("people", len(out.People)))

	return out, nil
}

func (s *WebSource) extractPeople(ctx context.Context, page crawler.Page) ([]models.ExtractedPerson, string) {
	text := truncate(htmlToText(page.Body), 24000)
	if text == "" {
		return nil, ""
	}

	prompt := fmt.Sprintf(`Extract every leader, executive and board member from this company web page.
Respond with a JSON array of objects with keys: name, title, department, bio,
linkedin_url, email, photo_url, reports_to, is_board_member. Omit anyone who is
not a person (teams, departments, products). Respond with [] if the page lists
no leadership.

Page URL: %s

Page text:
%s`, page.URL, text)

	raw, err := s.classifier.Classify(ctx, prompt)
	if err != nil {
		return nil, fmt.Sprintf("web: extraction call failed for %s: %v", page.URL, err)
	}

	var dtos []extractedPersonDTO
	if !classify.Decode(raw, &dtos) {
		return nil, ""
	}

	return toPeople(dtos, s.Name(), page.URL, models.ConfidenceHigh), ""
}

// rankLeadershipPages orders pages by URL hint strength and returns the top
// candidates. Pages with no hint at all only qualify when nothing better
// exists, and then only the shallowest one.
func rankLeadershipPages(pages []crawler.Page) []crawler.Page {
	type scored struct {
		page  crawler.Page
		score int
	}

	ranked := make([]scored, 0, len(pages))
	for _, page := range pages {
		lower := strings.ToLower(page.URL)
		score := 0
		for weight, hint := range leadershipPathHints {
			if strings.Contains(lower, hint) {
				score = len(leadershipPathHints) - weight
				break
			}
		}
		ranked = append(ranked, scored{page: page, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].page.Depth < ranked[j].page.Depth
	})

	if ranked[0].score == 0 {
		return []crawler.Page{ranked[0].page}
	}

	selected := make([]crawler.Page, 0, maxExtractionPages)
	for _, entry := range ranked {
		if entry.score == 0 || len(selected) == maxExtractionPages {
			break
		}
		selected = append(selected, entry.page)
	}
	return selected
}
