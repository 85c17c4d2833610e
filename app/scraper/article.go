package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"

	"github.com/lysyi3m/nostr-comb/app/content"
)

// Enrich fetches the article's own page and fills content, title, summary,
// image and timestamp from it. Page-level values win; listing values are
// kept when page-level extraction yields nothing.
func (s *Source) Enrich(ctx context.Context, article *content.Article) error {
	data, err := s.fetcher.Get(ctx, article.URL, s.timeout())
	if err != nil {
		return fmt.Errorf("failed to fetch article page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse article HTML: %w", err)
	}

	pageURL, _ := url.Parse(article.URL)

	html := s.selectContent(doc)
	if html == "" {
		// No content selector match, let readability find the main body
		extracted, err := readability.FromReader(bytes.NewReader(data), pageURL)
		if err != nil {
			return fmt.Errorf("failed to extract article content: %w", err)
		}
		html = extracted.Content
		if article.Summary == "" {
			article.Summary = strings.TrimSpace(extracted.Excerpt)
		}
		if article.ImageURL == "" {
			article.ImageURL = extracted.Image
		}
	}
	article.Content = html

	s.applyMetadata(doc, article)

	return nil
}

func (s *Source) selectContent(doc *goquery.Document) string {
	sel := s.site.Selectors.Content
	if sel == "" {
		return ""
	}

	node := doc.Find(sel).First()
	if node.Length() == 0 {
		return ""
	}

	html, err := goquery.OuterHtml(node)
	if err != nil {
		return ""
	}
	return html
}

// applyMetadata overrides article fields with Open Graph values when the
// page declares them.
func (s *Source) applyMetadata(doc *goquery.Document, article *content.Article) {
	if v := metaContent(doc, "og:title"); v != "" {
		article.Title = v
	}
	if v := metaContent(doc, "og:description"); v != "" {
		article.Summary = v
	}
	if v := metaContent(doc, "og:image"); v != "" {
		article.ImageURL = s.resolveURL(v)
	}
	if v := metaContent(doc, "article:published_time"); v != "" {
		if t, err := dateparse.ParseAny(v); err == nil {
			article.PublishedAt = t
		}
	}
}

func metaContent(doc *goquery.Document, property string) string {
	node := doc.Find(fmt.Sprintf("meta[property=%q], meta[name=%q]", property, property)).First()
	v, _ := node.Attr("content")
	return strings.TrimSpace(v)
}
