package config

// SiteConfig represents a complete mirrored-site configuration
type SiteConfig struct {
	Site      SiteInfo     `yaml:"site"`
	Selectors Selectors    `yaml:"selectors"`
	Settings  SiteSettings `yaml:"settings"`
	Tags      []string     `yaml:"tags"`
}

// SiteInfo contains basic site information
type SiteInfo struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`      // Listing page URL (scrape source) or homepage
	Source  string `yaml:"source"`   // "scrape" or "feed"
	FeedURL string `yaml:"feed_url"` // RSS/Atom URL, required when source is "feed"
}

// Selectors contains the CSS selectors used by the scrape source
type Selectors struct {
	Item       string `yaml:"item"`    // Listing entry
	Link       string `yaml:"link"`    // Anchor inside an entry
	Title      string `yaml:"title"`
	Summary    string `yaml:"summary"`
	Image      string `yaml:"image"`
	Tags       string `yaml:"tags"`
	Date       string `yaml:"date"`
	DateFormat string `yaml:"date_format"` // Go reference layout
	Content    string `yaml:"content"`     // Article body on the article page
}

// SiteSettings contains per-site processing settings
type SiteSettings struct {
	Enabled          bool `yaml:"enabled"`
	MinContentLength int  `yaml:"min_content_length"`
	Timeout          int  `yaml:"timeout"` // seconds
	MaxArticles      int  `yaml:"max_articles"`
}

const (
	SourceScrape = "scrape"
	SourceFeed   = "feed"
)
