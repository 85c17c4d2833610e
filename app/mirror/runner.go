package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/nostr-comb/app/config"
	"github.com/lysyi3m/nostr-comb/app/content"
	"github.com/lysyi3m/nostr-comb/app/database"
	"github.com/lysyi3m/nostr-comb/app/feed"
	"github.com/lysyi3m/nostr-comb/app/markdown"
	"github.com/lysyi3m/nostr-comb/app/nostr"
	"github.com/lysyi3m/nostr-comb/app/scraper"
)

// PublisherInterface is the slice of the publisher the runner uses.
type PublisherInterface interface {
	PublishAll(ctx context.Context, items []nostr.BatchItem, opts nostr.PublishOptions) []nostr.PublishResult
}

// Options are the per-run settings, resolved from the CLI configuration.
type Options struct {
	Limit            int
	MinContentLength int
	Relays           []string
	Delay            time.Duration
	SkipExisting     bool
	DryRun           bool
}

// Runner drives the mirror pipeline: list articles per site, enrich,
// transform, gate, publish, record.
type Runner struct {
	sites       []siteSource
	transformer *markdown.Transformer
	publisher   PublisherInterface
	repo        database.PublicationRepositoryInterface
	opts        Options

	mu        sync.Mutex
	lastCycle *CycleStats
}

type siteSource struct {
	config *config.SiteConfig
	source content.Source
}

func NewRunner(sites []*config.SiteConfig, fetcher *scraper.Fetcher, publisher PublisherInterface,
	repo database.PublicationRepositoryInterface, opts Options) (*Runner, error) {

	runner := &Runner{
		transformer: markdown.NewTransformer(),
		publisher:   publisher,
		repo:        repo,
		opts:        opts,
	}

	for _, site := range sites {
		if !site.Settings.Enabled {
			slog.Debug("Site disabled, skipping", "site", site.Site.Name)
			continue
		}

		source, err := buildSource(site, fetcher)
		if err != nil {
			return nil, fmt.Errorf("failed to set up source for %s: %w", site.Site.Name, err)
		}
		runner.sites = append(runner.sites, siteSource{config: site, source: source})
	}

	return runner, nil
}

func buildSource(site *config.SiteConfig, fetcher *scraper.Fetcher) (content.Source, error) {
	switch site.Site.Source {
	case config.SourceFeed:
		return feed.NewSource(site, fetcher), nil
	default:
		return scraper.NewSource(site, fetcher)
	}
}

// SiteStats summarizes one site's share of a mirror cycle.
type SiteStats struct {
	Site       string `json:"site"`
	Candidates int    `json:"candidates"`
	Published  int    `json:"published"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}

// CycleStats summarizes one full mirror cycle.
type CycleStats struct {
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Sites      []SiteStats `json:"sites"`
}

func (c CycleStats) Published() int {
	total := 0
	for _, s := range c.Sites {
		total += s.Published
	}
	return total
}

// Run executes one mirror cycle over all enabled sites.
func (r *Runner) Run(ctx context.Context) CycleStats {
	cycle := CycleStats{StartedAt: time.Now()}

	for _, site := range r.sites {
		select {
		case <-ctx.Done():
			cycle.FinishedAt = time.Now()
			return cycle
		default:
		}

		stats := r.runSite(ctx, site)
		cycle.Sites = append(cycle.Sites, stats)

		slog.Info("Site processed",
			"site", stats.Site,
			"candidates", stats.Candidates,
			"published", stats.Published,
			"skipped", stats.Skipped,
			"failed", stats.Failed)
	}

	cycle.FinishedAt = time.Now()

	r.mu.Lock()
	r.lastCycle = &cycle
	r.mu.Unlock()

	return cycle
}

// LastCycle returns the stats of the most recent completed cycle.
func (r *Runner) LastCycle() (CycleStats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastCycle == nil {
		return CycleStats{}, false
	}
	return *r.lastCycle, true
}

func (r *Runner) runSite(ctx context.Context, site siteSource) SiteStats {
	stats := SiteStats{Site: site.config.Site.Name}

	articles, err := site.source.List(ctx)
	if err != nil {
		slog.Error("Failed to list articles", "site", stats.Site, "error", err)
		stats.Failed++
		return stats
	}

	limit := r.opts.Limit
	if max := site.config.Settings.MaxArticles; max > 0 && max < limit {
		limit = max
	}
	if len(articles) > limit {
		articles = articles[:limit]
	}

	items := r.prepare(ctx, site, articles, &stats)

	if r.opts.DryRun || len(items) == 0 {
		return stats
	}

	results := r.publisher.PublishAll(ctx, items, nostr.PublishOptions{
		Relays: r.opts.Relays,
		Delay:  r.opts.Delay,
	})

	stats.Published = len(results)
	stats.Failed += len(items) - len(results)

	for _, result := range results {
		r.record(result)
	}

	return stats
}

// prepare runs the per-article pipeline up to the publish gate. Failures
// are isolated: a bad article is logged and skipped, never aborting the
// site.
func (r *Runner) prepare(ctx context.Context, site siteSource, articles []content.Article, stats *SiteStats) []nostr.BatchItem {
	var items []nostr.BatchItem

	for _, article := range articles {
		identifier := nostr.Identifier(article.URL)

		if r.opts.SkipExisting && r.repo != nil {
			published, err := r.repo.IsPublished(identifier)
			if err != nil {
				slog.Error("Failed to check publication store", "identifier", identifier, "error", err)
			} else if published {
				slog.Debug("Article already published, skipping", "identifier", identifier)
				stats.Skipped++
				continue
			}
		}

		if err := site.source.Enrich(ctx, &article); err != nil {
			slog.Error("Failed to fetch article", "url", article.URL, "error", err)
			stats.Failed++
			continue
		}

		result, err := r.transformer.Run(article.Content)
		if err != nil {
			slog.Error("Failed to convert article", "url", article.URL, "error", err)
			stats.Failed++
			continue
		}

		if result.LeadImage != "" {
			article.ImageURL = result.LeadImage
		}

		minLength := site.config.Settings.MinContentLength
		if minLength == 0 {
			minLength = r.opts.MinContentLength
		}
		if len(result.Markdown) < minLength {
			slog.Info("Article content too short, skipping",
				"url", article.URL, "length", len(result.Markdown), "min", minLength)
			stats.Skipped++
			continue
		}

		article.Tags = append(article.Tags, site.config.Tags...)
		stats.Candidates++

		if r.opts.DryRun {
			slog.Info("Dry run: would publish",
				"identifier", identifier,
				"title", article.Title,
				"url", article.URL,
				"length", len(result.Markdown))
			continue
		}

		items = append(items, nostr.BatchItem{Article: article, Markdown: result.Markdown})
	}

	return items
}

func (r *Runner) record(result nostr.PublishResult) {
	if r.repo == nil {
		return
	}

	err := r.repo.Record(database.Publication{
		Identifier:     result.Identifier,
		URL:            result.Article.URL,
		Title:          result.Article.Title,
		EventID:        result.EventID,
		RelayCount:     result.Relays,
		ConfirmedCount: result.Confirmed,
		PublishedAt:    result.Article.PublishedAt,
	})
	if err != nil {
		slog.Error("Failed to record publication", "identifier", result.Identifier, "error", err)
	}
}
