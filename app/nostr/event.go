package nostr

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr"

	"github.com/lysyi3m/nostr-comb/app/content"
)

const (
	// Attribution literal carried in every published event's client tag
	ClientName = "nostr-comb"

	// Identifier used when an article URL has no path to derive one from
	fallbackIdentifier = "home"
)

// Static categorization applied to every published event
var subjectTags = [2]string{"news", "press-review"}

// Identifier derives the addressable identifier (the d tag value) from an
// article URL. It is a pure function of the URL: republishing the same
// article produces the same identifier, so the new event replaces the old
// one instead of duplicating it.
func Identifier(rawURL string) string {
	path := ""
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}

	path = strings.TrimPrefix(path, "/")
	path = strings.TrimSuffix(path, "/")

	if path == "" {
		return fallbackIdentifier
	}
	return path
}

// BuildEvent maps an article and its Markdown body to an unsigned
// long-form content event. It never fails; a malformed URL falls back to
// the fixed identifier.
func BuildEvent(article content.Article, markdown string) nostr.Event {
	tags := nostr.Tags{
		{"d", Identifier(article.URL)},
		{"title", article.Title},
		{"published_at", strconv.FormatInt(article.PublishedAt.Unix(), 10)},
		{"client", ClientName},
		{"r", article.URL},
	}

	if article.Summary != "" {
		tags = append(tags, nostr.Tag{"summary", article.Summary})
	}
	if article.ImageURL != "" {
		tags = append(tags, nostr.Tag{"image", article.ImageURL})
	}
	for _, topic := range article.Tags {
		tags = append(tags, nostr.Tag{"t", strings.ToLower(topic)})
	}
	for _, subject := range subjectTags {
		tags = append(tags, nostr.Tag{"subject", subject})
	}

	return nostr.Event{
		Kind:      nostr.KindArticle,
		CreatedAt: nostr.Now(),
		Content:   markdown,
		Tags:      tags,
	}
}
