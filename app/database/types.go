package database

import (
	"time"
)

// Publication is one published article, keyed by its addressable
// identifier (the event's d tag). Republishing the same article updates
// the row the same way it replaces the event on the relays.
type Publication struct {
	Identifier     string
	URL            string
	Title          string
	EventID        string
	RelayCount     int
	ConfirmedCount int
	PublishedAt    time.Time
	CreatedAt      time.Time
}
