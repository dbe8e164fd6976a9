// Package epg merges several XMLTV guides into one. Channels are
// deduplicated by id and programmes by channel and normalized time window,
// with title, sub-title and desc reconciled by language preference.
package epg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/epg-comb/app/xmltv"
)

const DefaultFetchTimeout = 60 * time.Second

// Source is one guide location, consumed once per run.
type Source struct {
	Name     string
	Location string
	Timeout  time.Duration
}

type Fetcher interface {
	Fetch(ctx context.Context, src Source) ([]byte, error)
}

type Decompressor interface {
	Decompress(location string, data []byte) ([]byte, error)
}

type Config struct {
	Languages    []string
	Location     *time.Location
	FetchTimeout time.Duration
}

type Engine struct {
	config       Config
	fetcher      Fetcher
	decompressor Decompressor
	parser       *xmltv.Parser
}

func NewEngine(config Config, fetcher Fetcher, decompressor Decompressor) *Engine {
	if config.Languages == nil {
		config.Languages = DefaultLanguages
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultFetchTimeout
	}

	return &Engine{
		config:       config,
		fetcher:      fetcher,
		decompressor: decompressor,
		parser:       xmltv.NewParser(),
	}
}

type Result struct {
	Guide  *xmltv.TV
	Report *Report
}

// Run merges sources strictly in order. Failing sources and records are
// skipped and reported; only a run where no source could be used fails.
func (e *Engine) Run(ctx context.Context, sources []Source) (*Result, error) {
	report := &Report{StartedAt: time.Now()}
	result := &Result{Report: report}

	if len(sources) == 0 {
		report.FinishedAt = time.Now()
		return result, fmt.Errorf("%w: source list is empty", ErrNoUsableSources)
	}

	channels := NewChannelSet()
	programmes := NewProgrammeMerger(NewNormalizer(e.config.Location), NewSelector(e.config.Languages))

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sourceReport := SourceReport{Name: src.Name, Location: src.Location}

		tv, err := e.load(ctx, src)
		if err != nil {
			sourceReport.Err = err
			report.Sources = append(report.Sources, sourceReport)
			slog.Warn("Source skipped", "source", src.Name, "location", src.Location, "error", err)
			continue
		}

		for _, ch := range tv.Channels {
			sourceReport.Channels++
			if _, err := channels.Add(ch); err != nil {
				report.skip(src.Name, "channel", ch.ID, err)
			}
		}

		for _, p := range tv.Programmes {
			sourceReport.Programmes++
			if err := programmes.Add(p); err != nil {
				report.skip(src.Name, "programme", programmeLabel(p), err)
			}
		}

		report.Sources = append(report.Sources, sourceReport)
		slog.Info("Source merged",
			"source", src.Name,
			"channels", sourceReport.Channels,
			"programmes", sourceReport.Programmes)
	}

	report.FinishedAt = time.Now()

	if report.UsableSources() == 0 {
		return result, fmt.Errorf("%w: all %d sources failed", ErrNoUsableSources, len(sources))
	}

	result.Guide = &xmltv.TV{
		Channels:   channels.All(),
		Programmes: programmes.Finalize(),
	}
	report.Channels = len(result.Guide.Channels)
	report.Programmes = len(result.Guide.Programmes)

	slog.Info("Merge completed",
		"sources", len(sources),
		"usable", report.UsableSources(),
		"channels", report.Channels,
		"programmes", report.Programmes,
		"skipped", len(report.Skipped),
		"duration", report.Duration())

	return result, nil
}

func (e *Engine) load(ctx context.Context, src Source) (*xmltv.TV, error) {
	timeout := src.Timeout
	if timeout <= 0 {
		timeout = e.config.FetchTimeout
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := e.fetcher.Fetch(fetchCtx, src)
	if err != nil {
		if errors.Is(err, ErrFetch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	if e.decompressor != nil {
		data, err = e.decompressor.Decompress(src.Location, data)
		if err != nil {
			if errors.Is(err, ErrDecode) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
	}

	tv, err := e.parser.Run(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	return tv, nil
}

func programmeLabel(p xmltv.Programme) string {
	return fmt.Sprintf("%s@%s", p.Channel, p.Start)
}
