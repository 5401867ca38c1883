// Package crawler implements a bounded breadth-first site crawl. Recursion is
// replaced by an explicit work queue with a page budget so termination never
// depends on how many links a site returns.
package crawler

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/Ramsey-B/banyan/pkg/httpclient"
	"github.com/Ramsey-B/banyan/pkg/normalizers"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// Page is one fetched page
type Page struct {
	URL   string
	Depth int
	Body  []byte
}

// Options bounds a crawl. Every budget is checked before new work is taken.
type Options struct {
	MaxPages       int
	MaxDepth       int
	AllowedDomains []string
}

// Crawler fetches pages through the run's shared HTTP client
type Crawler struct {
	client *httpclient.Client
	logger *zap.Logger
}

// New creates a new Crawler
func New(client *httpclient.Client, logger *zap.Logger) *Crawler {
	return &Crawler{
		client: client,
		logger: logger,
	}
}

type workItem struct {
	url   string
	depth int
}

// Crawl walks outward from startURL breadth-first. It fetches at most
// opts.MaxPages pages, never follows links deeper than opts.MaxDepth, and
// never leaves the allowed-domain set (which defaults to the start URL's
// domain). Fetch failures skip the page rather than aborting the crawl.
func (c *Crawler) Crawl(ctx context.Context, startURL string, opts Options) ([]Page, error) {
	ctx, span := tracing.StartSpan(ctx, "crawler.Crawler.Crawl")
	defer span.End()

	if opts.MaxPages <= 0 || startURL == "" {
		return nil, nil
	}

	allowed := make(map[string]bool, len(opts.AllowedDomains)+1)
	for _, d := range opts.AllowedDomains {
		allowed[strings.TrimPrefix(strings.ToLower(d), "www.")] = true
	}
	if startDomain := normalizers.DomainOf(startURL); startDomain != "" {
		allowed[startDomain] = true
	}

	visited := make(map[string]bool, opts.MaxPages)
	queue := []workItem{{url: startURL, depth: 0}}
	pages := make([]Page, 0, opts.MaxPages)
	budget := opts.MaxPages

	for len(queue) > 0 && budget > 0 {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		item := queue[0]
		queue = queue[1:]

		key := normalizers.NormalizeURL(item.url)
		if visited[key] {
			continue
		}
		if !allowed[normalizers.DomainOf(item.url)] {
			continue
		}
		visited[key] = true
		budget--

		resp, err := c.client.Get(ctx, item.url, nil)
		if err != nil {
			c.logger.Debug("crawl fetch failed", zap.String("url", item.url), zap.Error(err))
			continue
		}
		if resp.StatusCode != 200 || !strings.Contains(resp.ContentType, "html") {
			continue
		}

		pages = append(pages, Page{URL: item.url, Depth: item.depth, Body: resp.Body})

		if item.depth >= opts.MaxDepth {
			continue
		}
		for _, link := range extractLinks(item.url, resp.Body) {
			if !visited[normalizers.NormalizeURL(link)] {
				queue = append(queue, workItem{url: link, depth: item.depth + 1})
			}
		}
	}

	c.logger.Debug("crawl complete",
		zap.String("start_url", startURL),
		zap.Int("pages", len(pages)),
		zap.Int("budget_left", budget))

	return pages, nil
}

// extractLinks pulls absolute, same-scheme anchor targets out of an HTML body
func extractLinks(baseURL string, body []byte) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []string
	tokenizer := html.NewTokenizer(strings.NewReader(string(body)))
	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			return links
		}
		if tokenType != html.StartTagToken && tokenType != html.SelfClosingTagToken {
			continue
		}

		name, hasAttr := tokenizer.TagName()
		if string(name) != "a" || !hasAttr {
			continue
		}

		for {
			attrKey, attrValue, more := tokenizer.TagAttr()
			if string(attrKey) == "href" {
				if link := resolveLink(base, string(attrValue)); link != "" {
					links = append(links, link)
				}
			}
			if !more {
				break
			}
		}
	}
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""

	// Skip obvious binary/document targets
	lower := strings.ToLower(resolved.Path)
	for _, ext := range []string{".pdf", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".zip", ".doc", ".docx", ".xls", ".xlsx", ".mp4"} {
		if strings.HasSuffix(lower, ext) {
			return ""
		}
	}

	return resolved.String()
}
