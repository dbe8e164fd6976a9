package cfg

import (
	"cmp"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/jessevdk/go-flags"
	"golang.org/x/text/language"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Merge configuration
	SourcesFile  string `long:"sources" env:"SOURCES_FILE" default:"./sources.yml" description:"Source list file (.yml/.yaml or .txt, one location per line)"`
	OutputFile   string `long:"output" env:"OUTPUT_FILE" default:"./epg.xml.gz" description:"Merged guide destination; gzip compressed when it ends in .gz"`
	Languages    string `long:"languages" env:"LANGUAGES" default:"lt,ru,en" description:"Comma separated language priority for title, sub-title and desc"`
	Timezone     string `long:"timezone" env:"TARGET_TIMEZONE" default:"Europe/Vilnius" description:"Time zone programme times are rewritten to (e.g., UTC, Europe/Vilnius)"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"60" description:"Per-source fetch timeout in seconds"`
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"EPG Comb/1.0" description:"User agent string for HTTP requests"`

	// Service configuration
	Serve         bool   `long:"serve" env:"SERVE" description:"Run as a service: merge on a schedule and serve the guide over HTTP"`
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	DBPath        string `long:"db-path" env:"DB_PATH" default:"./epg-comb.db" description:"SQLite database file for run history"`
	MergeInterval int    `long:"merge-interval" env:"MERGE_INTERVAL" default:"21600" description:"Merge interval in seconds"`
	APIAccessKey  string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses the process arguments and environment. It returns nil, nil
// when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	location, err := time.LoadLocation(raw.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", raw.Timezone, err)
	}

	languages, err := parseLanguages(raw.Languages)
	if err != nil {
		return nil, err
	}

	if raw.FetchTimeout <= 0 {
		return nil, fmt.Errorf("fetch timeout must be positive, got %d", raw.FetchTimeout)
	}
	if raw.MergeInterval <= 0 {
		return nil, fmt.Errorf("merge interval must be positive, got %d", raw.MergeInterval)
	}

	cfg := &Cfg{
		SourcesFile:   raw.SourcesFile,
		OutputFile:    raw.OutputFile,
		Languages:     languages,
		Timezone:      raw.Timezone,
		Location:      location,
		FetchTimeout:  time.Duration(raw.FetchTimeout) * time.Second,
		UserAgent:     raw.UserAgent,
		Serve:         raw.Serve,
		Port:          raw.Port,
		DBPath:        raw.DBPath,
		MergeInterval: time.Duration(raw.MergeInterval) * time.Second,
		APIAccessKey:  raw.APIAccessKey,
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// parseLanguages validates each tag as BCP 47 and returns them lower-cased
// with duplicates removed, keeping the first occurrence.
func parseLanguages(list string) ([]string, error) {
	var languages []string
	seen := make(map[string]bool)

	for _, part := range strings.Split(list, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" {
			continue
		}
		if _, err := language.Parse(tag); err != nil {
			return nil, fmt.Errorf("invalid language tag '%s': %w", tag, err)
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		languages = append(languages, tag)
	}

	if len(languages) == 0 {
		return nil, fmt.Errorf("at least one language is required")
	}

	return languages, nil
}
