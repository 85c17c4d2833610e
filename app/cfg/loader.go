package cfg

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Signer configuration
	NostrKey string `long:"nostr-key" env:"NOSTR_KEY" description:"Signer key: nsec, hex private key or bunker:// URI (required unless --dry-run)"`

	// Content configuration
	SitesDir         string `long:"sites-dir" env:"SITES_DIR" default:"./sites" description:"Directory containing site configuration files"`
	Limit            int    `long:"limit" env:"LIMIT" default:"10" description:"Maximum number of articles to publish per site"`
	MinContentLength int    `long:"min-content-length" env:"MIN_CONTENT_LENGTH" default:"300" description:"Minimum Markdown length for an article to be published"`

	// Publishing configuration
	Relays       string `long:"relays" env:"RELAYS" description:"Comma-separated relay URLs (overrides the default relay set)"`
	Delay        int    `long:"delay" env:"DELAY" default:"5" description:"Delay between publications in seconds"`
	SkipExisting bool   `long:"skip-existing" env:"SKIP_EXISTING" description:"Skip articles already recorded in the local store"`
	DryRun       bool   `long:"dry-run" env:"DRY_RUN" description:"List candidate articles without signing or publishing"`

	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./nostr-comb.db" description:"Path to the publications database"`

	// Daemon mode configuration
	Serve    bool   `long:"serve" env:"SERVE" description:"Run continuously with the status HTTP server"`
	Port     string `long:"port" env:"PORT" default:"8080" description:"Status HTTP server port (daemon mode)"`
	Interval int    `long:"interval" env:"INTERVAL" default:"900" description:"Mirror cycle interval in seconds (daemon mode)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Nostr Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Paris)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	return load(nil)
}

// LoadArgs parses the provided argument list instead of os.Args. Used by tests.
func LoadArgs(args []string) (*Cfg, error) {
	return load(args)
}

func load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		NostrKey:         raw.NostrKey,
		SitesDir:         raw.SitesDir,
		Limit:            raw.Limit,
		MinContentLength: raw.MinContentLength,
		Relays:           splitRelays(raw.Relays),
		Delay:            raw.Delay,
		SkipExisting:     raw.SkipExisting,
		DryRun:           raw.DryRun,
		DBPath:           raw.DBPath,
		Serve:            raw.Serve,
		Port:             raw.Port,
		Interval:         raw.Interval,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if cfg.NostrKey == "" && !cfg.DryRun {
		return fmt.Errorf("nostr key is required: set --nostr-key (or NOSTR_KEY), or run with --dry-run")
	}
	if cfg.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", cfg.Limit)
	}
	if cfg.Delay < 0 {
		return fmt.Errorf("delay must be non-negative, got %d", cfg.Delay)
	}
	if cfg.Serve && cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive in daemon mode, got %d", cfg.Interval)
	}
	if cfg.Serve && cfg.DryRun {
		return fmt.Errorf("--serve and --dry-run cannot be combined: run a one-shot dry run instead")
	}
	return nil
}

func splitRelays(s string) []string {
	if s == "" {
		return nil
	}
	var relays []string
	for _, r := range strings.Split(s, ",") {
		r = strings.TrimSpace(r)
		if r != "" {
			relays = append(relays, r)
		}
	}
	return relays
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
