// Package source provides the collaborators the merge engine reads guides
// through: the source list loader, the fetcher and gzip detection.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/epg-comb/app/epg"
)

// LoadSources reads an ordered source list. Plain text files hold one
// location per line; YAML files hold a sources list with per-source settings.
// Disabled entries are dropped and the remaining order is kept.
func LoadSources(path string, defaultTimeout time.Duration) ([]epg.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var entries []Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		entries, err = parseYAML(data)
	case ".txt", "":
		entries, err = parseText(data)
	default:
		return nil, fmt.Errorf("unsupported sources file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("invalid sources file %s: %w", path, err)
	}

	sources := make([]epg.Source, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsEnabled() {
			slog.Debug("Source disabled, skipping", "source", entry.Name)
			continue
		}

		timeout := defaultTimeout
		if entry.Timeout > 0 {
			timeout = time.Duration(entry.Timeout) * time.Second
		}

		sources = append(sources, epg.Source{
			Name:     entry.Name,
			Location: entry.URL,
			Timeout:  timeout,
		})
	}

	slog.Info("Sources loaded", "file", path, "total", len(entries), "enabled", len(sources))

	return sources, nil
}

func parseYAML(data []byte) ([]Entry, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range file.Sources {
		entry := &file.Sources[i]
		entry.URL = strings.TrimSpace(entry.URL)
		if entry.URL == "" {
			return nil, fmt.Errorf("source #%d: url is required", i+1)
		}
		if entry.Name == "" {
			entry.Name = entry.URL
		}
		if entry.Timeout < 0 {
			return nil, fmt.Errorf("source %s: timeout must not be negative", entry.Name)
		}
	}

	return file.Sources, nil
}

// parseText skips blank lines and lines starting with #.
func parseText(data []byte) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, Entry{Name: line, URL: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
