package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/lysyi3m/nostr-comb/app/config"
	"github.com/lysyi3m/nostr-comb/app/content"
)

// Source scrapes articles from a site's listing page using the CSS
// selectors from its configuration.
type Source struct {
	site    *config.SiteConfig
	fetcher *Fetcher
	baseURL *url.URL
}

func NewSource(site *config.SiteConfig, fetcher *Fetcher) (*Source, error) {
	baseURL, err := url.Parse(site.Site.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid site URL %q: %w", site.Site.URL, err)
	}

	return &Source{
		site:    site,
		fetcher: fetcher,
		baseURL: baseURL,
	}, nil
}

func (s *Source) Name() string {
	return s.site.Site.Name
}

func (s *Source) List(ctx context.Context) ([]content.Article, error) {
	data, err := s.fetcher.Get(ctx, s.site.Site.URL, s.timeout())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing page: %w", err)
	}

	articles, err := s.parseListing(data)
	if err != nil {
		return nil, err
	}

	slog.Debug("Listing page scraped", "site", s.Name(), "articles", len(articles))
	return articles, nil
}

func (s *Source) parseListing(data []byte) ([]content.Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}

	sel := s.site.Selectors

	var articles []content.Article
	doc.Find(sel.Item).Each(func(_ int, item *goquery.Selection) {
		link := item
		if sel.Link != "" {
			link = item.Find(sel.Link).First()
		} else if !item.Is("a") {
			link = item.Find("a").First()
		}

		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		article := content.Article{
			URL:   s.resolveURL(href),
			Title: strings.TrimSpace(firstText(item, sel.Title, link)),
		}

		if sel.Summary != "" {
			article.Summary = strings.TrimSpace(item.Find(sel.Summary).First().Text())
		}
		if sel.Image != "" {
			article.ImageURL = s.imageURL(item.Find(sel.Image).First())
		}
		if sel.Tags != "" {
			item.Find(sel.Tags).Each(func(_ int, tag *goquery.Selection) {
				if text := strings.TrimSpace(tag.Text()); text != "" {
					article.Tags = append(article.Tags, text)
				}
			})
		}
		if sel.Date != "" {
			article.PublishedAt = s.parseDate(item.Find(sel.Date).First())
		}
		if article.PublishedAt.IsZero() {
			article.PublishedAt = time.Now()
		}

		articles = append(articles, article)
	})

	return articles, nil
}

func (s *Source) timeout() time.Duration {
	return time.Duration(s.site.Settings.Timeout) * time.Second
}

func (s *Source) resolveURL(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return s.baseURL.ResolveReference(ref).String()
}

func (s *Source) imageURL(img *goquery.Selection) string {
	src, ok := img.Attr("src")
	if !ok || src == "" {
		// Lazy-loading markup keeps the real source in data-src
		src, _ = img.Attr("data-src")
	}
	if src == "" {
		return ""
	}
	return s.resolveURL(src)
}

func (s *Source) parseDate(node *goquery.Selection) time.Time {
	raw, ok := node.Attr("datetime")
	if !ok || raw == "" {
		raw = node.Text()
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	if layout := s.site.Selectors.DateFormat; layout != "" {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		slog.Debug("Unparseable article date", "site", s.Name(), "value", raw)
		return time.Time{}
	}
	return t
}

// firstText returns the text of the first selector that yields anything,
// falling back to the link's own text.
func firstText(item *goquery.Selection, titleSel string, link *goquery.Selection) string {
	if titleSel != "" {
		if text := item.Find(titleSel).First().Text(); strings.TrimSpace(text) != "" {
			return text
		}
	}
	return link.Text()
}
