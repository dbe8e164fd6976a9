package cfg

import (
	"time"
)

type Cfg struct {
	// Merge configuration
	SourcesFile  string
	OutputFile   string
	Languages    []string
	Timezone     string
	Location     *time.Location
	FetchTimeout time.Duration
	UserAgent    string

	// Service configuration
	Serve         bool
	Port          string
	DBPath        string
	MergeInterval time.Duration
	APIAccessKey  string

	// Application metadata
	Debug   bool
	Version string
}

// GeneratorName is written to the root of every merged guide.
func (c *Cfg) GeneratorName() string {
	return "EPG Comb/" + c.Version
}
