package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/classify"
	"github.com/Ramsey-B/banyan/pkg/httpclient"
	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/orgchart"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// maxHeadlines caps how many headlines one classification call carries
const maxHeadlines = 40

// newsQueries are the search templates run per unit, in priority order.
// The budget's MaxSearches truncates this list.
var newsQueries = []string{
	`"%s" leadership change`,
	`"%s" appoints`,
	`"%s" steps down`,
	`"%s" names new`,
	`"%s" board of directors`,
}

// NewsSource searches news feeds for leadership-change announcements about a
// unit. Press coverage is secondhand, so records carry medium confidence.
type NewsSource struct {
	client     *httpclient.Client
	classifier classify.Classifier
	logger     *zap.Logger
	baseURL    string
}

// NewNewsSource creates the news source. baseURL points at an RSS search
// endpoint (Google News compatible).
func NewNewsSource(client *httpclient.Client, classifier classify.Classifier, logger *zap.Logger, baseURL string) *NewsSource {
	return &NewsSource{
		client:     client,
		classifier: classifier,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name implements Source
func (s *NewsSource) Name() string {
	return "news"
}

// Applicable implements Source
func (s *NewsSource) Applicable(unit *models.BusinessUnit) bool {
	return unit != nil && unit.Name != "" && s.baseURL != ""
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
}

type changeDTO struct {
	Name          string `json:"name"`
	ChangeType    string `json:"change_type"`
	OldTitle      string `json:"old_title"`
	NewTitle      string `json:"new_title"`
	AnnouncedDate string `json:"announced_date"`
	HeadlineIndex int    `json:"headline_index"`
}

// Collect runs up to budget.MaxSearches queries, gathers the headlines, and
// classifies them into structured change records in one call. A unit with no
// press coverage is a normal empty result.
func (s *NewsSource) Collect(ctx context.Context, unit *models.BusinessUnit, budget Budget) (*CollectOutput, error) {
	ctx, span := tracing.StartSpan(ctx, "sources.NewsSource.Collect")
	defer span.End()

	out := &CollectOutput{}

	queries := newsQueries
	if budget.MaxSearches > 0 && budget.MaxSearches < len(queries) {
		queries = queries[:budget.MaxSearches]
	}

	seen := make(map[string]bool)
	var items []rssItem
	for _, template := range queries {
		feed, err := s.search(ctx, fmt.Sprintf(template, unit.Name))
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("news: search failed for %s: %v", unit.Name, err))
			continue
		}
		for _, item := range feed {
			if item.Title == "" || seen[item.Link] {
				continue
			}
			seen[item.Link] = true
			items = append(items, item)
			if len(items) == maxHeadlines {
				break
			}
		}
		if len(items) == maxHeadlines {
			break
		}
	}
	if len(items) == 0 {
		return out, nil
	}

	changes, warning := s.classifyHeadlines(ctx, unit, items)
	if warning != "" {
		out.Errors = append(out.Errors, warning)
	}
	out.Changes = changes

	s.logger.Debug("news collection complete",
		zap.String("unit", unit.Name),
		zap.Int("headlines", len(items)),
		zap.Int("changes", len(out.Changes)))

	return out, nil
}

func (s *NewsSource) search(ctx context.Context, query string) ([]rssItem, error) {
	searchURL := fmt.Sprintf("%s/rss/search?q=%s", s.baseURL, url.QueryEscape(query))
	resp, err := s.client.Get(ctx, searchURL, map[string]string{"Accept": "application/rss+xml"})
	if err != nil {
		return nil, err
	}
	if resp.IsNotFound() {
		return nil, nil
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("news search returned status %d", resp.StatusCode)
	}

	var feed rssFeed
	if err := xml.Unmarshal(resp.Body, &feed); err != nil {
		return nil, fmt.Errorf("news feed was not valid RSS: %w", err)
	}
	return feed.Channel.Items, nil
}

func (s *NewsSource) classifyHeadlines(ctx context.Context, unit *models.BusinessUnit, items []rssItem) ([]models.LeadershipChange, string) {
	var headlines strings.Builder
	for i, item := range items {
		fmt.Fprintf(&headlines, "%d. %s (%s)\n", i, item.Title, item.PubDate)
	}

	prompt := fmt.Sprintf(`These are news headlines about %s. Identify every concrete leadership change
they announce. Respond with a JSON array of objects with keys: name,
change_type (one of hire, departure, promotion, demotion, lateral, retirement,
board_appointment, board_departure, interim), old_title, new_title,
announced_date (YYYY-MM-DD), headline_index. Ignore rumors and headlines about
other companies. Respond with [] if there are none.

Headlines:
%s`, unit.Name, headlines.String())

	raw, err := s.classifier.Classify(ctx, prompt)
	if err != nil {
		return nil, fmt.Sprintf("news: classification call failed for %s: %v", unit.Name, err)
	}

	var dtos []changeDTO
	if !classify.Decode(raw, &dtos) {
		return nil, ""
	}

	changes := make([]models.LeadershipChange, 0, len(dtos))
	for _, dto := range dtos {
		changeType := models.ChangeType(strings.ToLower(strings.TrimSpace(dto.ChangeType)))
		name := strings.TrimSpace(dto.Name)
		if name == "" || !changeType.IsValid() {
			continue
		}

		change := models.LeadershipChange{
			UnitID:     unit.ID,
			PersonName: name,
			ChangeType: changeType,
			OldTitle:   strings.TrimSpace(dto.OldTitle),
			NewTitle:   strings.TrimSpace(dto.NewTitle),
			Confidence: models.ConfidenceMedium,
			SourceType: s.Name(),
		}

		if dto.HeadlineIndex >= 0 && dto.HeadlineIndex < len(items) {
			change.SourceURL = items[dto.HeadlineIndex].Link
		}
		if announced := parseNewsDate(dto.AnnouncedDate); announced != nil {
			change.AnnouncedDate = announced
		} else if dto.HeadlineIndex >= 0 && dto.HeadlineIndex < len(items) {
			change.AnnouncedDate = parsePubDate(items[dto.HeadlineIndex].PubDate)
		}

		title := change.NewTitle
		if title == "" {
			title = change.OldTitle
		}
		switch orgchart.TitleLevelFor(title) {
		case models.TitleLevelCSuite, models.TitleLevelPresident:
			change.IsCSuite = true
		case models.TitleLevelBoard:
			change.IsBoard = true
		}
		if changeType == models.ChangeTypeBoardAppointment || changeType == models.ChangeTypeBoardDeparture {
			change.IsBoard = true
		}

		changes = append(changes, change)
	}

	return changes, ""
}

func parseNewsDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &parsed
}

func parsePubDate(value string) *time.Time {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}
