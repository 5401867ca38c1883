package discovery

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/Ramsey-B/banyan/pkg/classify"
	"github.com/Ramsey-B/banyan/pkg/crawler"
	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// structurePathHints rank crawled URLs by how likely they are to describe
// corporate structure
var structurePathHints = []string{
	"subsidiaries", "brands", "divisions", "businesses",
	"companies", "portfolio", "structure", "about",
}

// WebsiteSignal crawls the parent's own site for pages that describe its
// brands, divisions and subsidiaries.
type WebsiteSignal struct {
	crawler    *crawler.Crawler
	classifier classify.Classifier
	logger     *zap.Logger
}

// NewWebsiteSignal creates the website-backed discovery signal
func NewWebsiteSignal(crawler *crawler.Crawler, classifier classify.Classifier, logger *zap.Logger) *WebsiteSignal {
	return &WebsiteSignal{
		crawler:    crawler,
		classifier: classifier,
		logger:     logger,
	}
}

// Name implements Signal
func (s *WebsiteSignal) Name() string {
	return SignalWebsite
}

type candidateDTO struct {
	Name        string `json:"name"`
	Website     string `json:"website"`
	Description string `json:"description"`
	UnitType    string `json:"unit_type"`
}

// Discover crawls the parent site within budget and extracts structure
// candidates from the most promising page.
func (s *WebsiteSignal) Discover(ctx context.Context, parent *models.BusinessUnit, budget Budget) ([]Candidate, error) {
	ctx, span := tracing.StartSpan(ctx, "discovery.WebsiteSignal.Discover")
	defer span.End()

	if parent.Website == "" {
		return nil, nil
	}

	pages, err := s.crawler.Crawl(ctx, parent.Website, crawler.Options{
		MaxPages: budget.MaxPages,
		MaxDepth: budget.MaxDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("parent site crawl failed: %w", err)
	}
	if len(pages) == 0 {
		return nil, nil
	}

	page := bestStructurePage(pages)
	text := pageText(page.Body)
	if text == "" {
		return nil, nil
	}

	prompt := fmt.Sprintf(`This page is from the website of %s. List every subsidiary, division, brand
or affiliate company it names. Respond with a JSON array of objects with keys:
name, website, description, unit_type (one of division, subsidiary, affiliate).
Do not include %s itself, products, or people. Respond with [] if the page
names none.

Page text:
%s`, parent.Name, parent.Name, text)

	raw, err := s.classifier.Classify(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("structure extraction failed: %w", err)
	}

	var dtos []candidateDTO
	if !classify.Decode(raw, &dtos) {
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(dtos))
	for _, dto := range dtos {
		name := strings.TrimSpace(dto.Name)
		if name == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			Name:        name,
			Website:     strings.TrimSpace(dto.Website),
			Description: strings.TrimSpace(dto.Description),
			UnitType:    models.UnitType(strings.ToLower(strings.TrimSpace(dto.UnitType))),
			Sources:     []string{SignalWebsite},
		})
	}

	s.logger.Debug("website signal complete",
		zap.String("parent", parent.Name),
		zap.String("page", page.URL),
		zap.Int("candidates", len(candidates)))

	return candidates, nil
}

func bestStructurePage(pages []crawler.Page) crawler.Page {
	best := pages[0]
	bestScore := -1
	for _, page := range pages {
		lower := strings.ToLower(page.URL)
		score := 0
		for weight, hint := range structurePathHints {
			if strings.Contains(lower, hint) {
				score = len(structurePathHints) - weight
				break
			}
		}
		if score > bestScore {
			best, bestScore = page, score
		}
	}
	return best
}

// pageText flattens HTML to whitespace-normalized text, capped for prompting
func pageText(body []byte) string {
	tokenizer := html.NewTokenizer(strings.NewReader(string(body)))
	var builder strings.Builder
	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			break
		}
		if tokenType == html.TextToken {
			builder.Write(tokenizer.Text())
			builder.WriteByte(' ')
		}
	}
	text := strings.Join(strings.Fields(builder.String()), " ")
	if len(text) > 24000 {
		text = text[:24000]
	}
	return text
}
