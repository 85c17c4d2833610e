package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of site configurations
type Loader struct {
	sitesDir string
}

// NewLoader creates a new configuration loader
func NewLoader(sitesDir string) *Loader {
	return &Loader{sitesDir: sitesDir}
}

// LoadAll loads all YAML configuration files from the sites directory
func (l *Loader) LoadAll() ([]*SiteConfig, error) {
	var configs []*SiteConfig

	if _, err := os.Stat(l.sitesDir); os.IsNotExist(err) {
		return configs, nil
	}

	files, err := filepath.Glob(filepath.Join(l.sitesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.sitesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		config, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(config); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", file, err)
		}

		configs = append(configs, config)
		slog.Debug("Loaded site configuration", "file", file, "site", config.Site.Name)
	}

	return configs, nil
}

// loadFile loads a single YAML configuration file
func (l *Loader) loadFile(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	config := &SiteConfig{}
	config.Settings.Enabled = true

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(config)

	return config, nil
}

// setDefaults applies default values to configuration
func (l *Loader) setDefaults(config *SiteConfig) {
	if config.Site.Source == "" {
		config.Site.Source = SourceScrape
	}
	if config.Settings.Timeout == 0 {
		config.Settings.Timeout = 30 // seconds
	}
	if config.Settings.MaxArticles == 0 {
		config.Settings.MaxArticles = 100
	}
}

// validate validates the configuration
func (l *Loader) validate(config *SiteConfig) error {
	if config.Site.Name == "" {
		return fmt.Errorf("site name is required")
	}
	if config.Site.URL == "" {
		return fmt.Errorf("site URL is required")
	}

	switch config.Site.Source {
	case SourceScrape:
		if config.Selectors.Item == "" {
			return fmt.Errorf("selectors.item is required for scrape sources")
		}
	case SourceFeed:
		if config.Site.FeedURL == "" {
			return fmt.Errorf("feed_url is required for feed sources")
		}
	default:
		return fmt.Errorf("unknown source type: %s", config.Site.Source)
	}

	if config.Settings.MinContentLength < 0 {
		return fmt.Errorf("min content length must be non-negative")
	}
	if config.Settings.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if config.Settings.MaxArticles < 0 {
		return fmt.Errorf("max articles must be non-negative")
	}

	return nil
}
