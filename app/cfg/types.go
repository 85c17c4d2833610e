package cfg

type Cfg struct {
	// Signer configuration
	NostrKey string

	// Content configuration
	SitesDir         string
	Limit            int
	MinContentLength int

	// Publishing configuration
	Relays       []string
	Delay        int
	SkipExisting bool
	DryRun       bool

	// Storage configuration
	DBPath string

	// Daemon mode configuration
	Serve    bool
	Port     string
	Interval int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
