package feed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/nostr-comb/app/config"
	"github.com/lysyi3m/nostr-comb/app/content"
)

// Source produces articles from a site's RSS/Atom feed.
type Source struct {
	site    *config.SiteConfig
	fetcher PageFetcher
	parser  *gofeed.Parser
}

// PageFetcher retrieves a page body. Satisfied by scraper.Fetcher.
type PageFetcher interface {
	Get(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

func NewSource(site *config.SiteConfig, fetcher PageFetcher) *Source {
	return &Source{
		site:    site,
		fetcher: fetcher,
		parser:  gofeed.NewParser(),
	}
}

func (s *Source) Name() string {
	return s.site.Site.Name
}

func (s *Source) List(ctx context.Context) ([]content.Article, error) {
	timeout := time.Duration(s.site.Settings.Timeout) * time.Second

	data, err := s.fetcher.Get(ctx, s.site.Site.FeedURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	articles, err := s.parseFeed(data)
	if err != nil {
		return nil, err
	}

	slog.Debug("Feed parsed", "site", s.Name(), "articles", len(articles))
	return articles, nil
}

func (s *Source) parseFeed(data []byte) ([]content.Article, error) {
	parsed, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	articles := make([]content.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}

		article := content.Article{
			URL:     item.Link,
			Title:   item.Title,
			Summary: item.Description,
			Tags:    item.Categories,
		}

		if item.Image != nil {
			article.ImageURL = item.Image.URL
		}
		for _, enc := range item.Enclosures {
			if enc.URL != "" && article.ImageURL == "" {
				article.ImageURL = enc.URL
			}
		}

		switch {
		case item.PublishedParsed != nil:
			article.PublishedAt = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			article.PublishedAt = *item.UpdatedParsed
		default:
			article.PublishedAt = time.Now()
		}

		articles = append(articles, article)
	}

	return articles, nil
}

// Enrich fetches the item's page for the full article body. Feed-provided
// content is kept when the page yields nothing usable; most feeds only
// carry a teaser, so the page wins when both exist.
func (s *Source) Enrich(ctx context.Context, article *content.Article) error {
	timeout := time.Duration(s.site.Settings.Timeout) * time.Second

	data, err := s.fetcher.Get(ctx, article.URL, timeout)
	if err != nil {
		return fmt.Errorf("failed to fetch article page: %w", err)
	}

	html, err := extractBody(data, article.URL)
	if err != nil {
		if article.Content != "" {
			slog.Debug("Keeping feed-provided content", "url", article.URL, "error", err)
			return nil
		}
		return err
	}

	article.Content = html
	return nil
}
