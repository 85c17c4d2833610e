package content

import (
	"context"
	"time"
)

// Article is the unit of work flowing through the mirror pipeline. A source
// creates it from a listing entry with empty Content; Enrich fills Content
// and the remaining fields from the article's own page, keeping listing
// values when page-level extraction yields nothing.
type Article struct {
	Title       string
	URL         string // Canonical URL, used as identity
	Content     string // Raw HTML until transformed to Markdown
	Summary     string
	ImageURL    string
	PublishedAt time.Time
	Tags        []string
}

// Source produces articles for one mirrored site.
type Source interface {
	Name() string
	List(ctx context.Context) ([]Article, error)
	Enrich(ctx context.Context, article *Article) error
}
