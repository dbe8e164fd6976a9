package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/epg-comb/app/database"
	"github.com/lysyi3m/epg-comb/app/epg"
	"github.com/lysyi3m/epg-comb/app/source"
	"github.com/lysyi3m/epg-comb/app/store"
	"github.com/lysyi3m/epg-comb/app/xmltv"
)

type MergeSettings struct {
	SourcesFile  string
	OutputFile   string
	FetchTimeout time.Duration
}

// MergeTask runs one merge end to end: load the source list, merge, encode,
// write the output file, publish to the store and record the run.
// guideStore and runRepo are optional.
type MergeTask struct {
	Task
	settings   MergeSettings
	engine     *epg.Engine
	writer     *xmltv.Writer
	guideStore *store.GuideStore
	runRepo    database.RunRepository

	Report *epg.Report
}

func NewMergeTask(trigger string, settings MergeSettings, engine *epg.Engine, writer *xmltv.Writer, guideStore *store.GuideStore, runRepo database.RunRepository) *MergeTask {
	return &MergeTask{
		Task:       NewTask(TaskTypeMerge, trigger),
		settings:   settings,
		engine:     engine,
		writer:     writer,
		guideStore: guideStore,
		runRepo:    runRepo,
	}
}

func (t *MergeTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	sources, err := source.LoadSources(t.settings.SourcesFile, t.settings.FetchTimeout)
	if err != nil {
		t.fail(err)
		return fmt.Errorf("failed to load sources: %w", err)
	}

	runID := t.startRun(len(sources))

	result, err := t.engine.Run(ctx, sources)
	if result != nil {
		t.Report = result.Report
		t.recordSources(runID, result.Report)
	}
	if err != nil {
		t.finishRun(runID, nil, err)
		t.fail(err)
		return fmt.Errorf("merge failed: %w", err)
	}

	data, err := t.writer.Run(result.Guide)
	if err != nil {
		t.finishRun(runID, result.Report, err)
		t.fail(err)
		return fmt.Errorf("failed to encode guide: %w", err)
	}

	if t.settings.OutputFile != "" {
		if err := xmltv.WriteFile(t.settings.OutputFile, data); err != nil {
			t.finishRun(runID, result.Report, err)
			t.fail(err)
			return fmt.Errorf("failed to write guide: %w", err)
		}
	}

	if t.guideStore != nil {
		if err := t.guideStore.Publish(runID, data, result.Report); err != nil {
			t.finishRun(runID, result.Report, err)
			return fmt.Errorf("failed to publish guide: %w", err)
		}
	}

	t.finishRun(runID, result.Report, nil)

	report := result.Report
	slog.Info("Task completed",
		"type", "Merge",
		"trigger", t.Trigger,
		"run_id", runID,
		"duration", t.GetDuration(),
		"sources", len(sources),
		"failed_sources", len(report.FailedSources()),
		"channels", report.Channels,
		"programmes", report.Programmes,
		"skipped", len(report.Skipped),
		"output", t.settings.OutputFile)

	if len(report.FailedSources()) > 0 || len(report.Skipped) > 0 {
		slog.Info("Merge summary", "details", report.Summary())
	}

	return nil
}

// startRun falls back to the task id when the run cannot be recorded.
func (t *MergeTask) startRun(sourceCount int) string {
	if t.runRepo == nil {
		return t.ID
	}

	runID, err := t.runRepo.CreateRun(t.Trigger, sourceCount)
	if err != nil {
		slog.Warn("Failed to record run start", "task_id", t.ID, "error", err)
		return t.ID
	}
	return runID
}

func (t *MergeTask) recordSources(runID string, report *epg.Report) {
	if t.runRepo == nil || report == nil {
		return
	}

	for i, s := range report.Sources {
		runSource := database.RunSource{
			RunID:          runID,
			Position:       i,
			Name:           s.Name,
			Location:       s.Location,
			Status:         database.SourceStatusOK,
			ChannelCount:   s.Channels,
			ProgrammeCount: s.Programmes,
		}
		if s.Err != nil {
			runSource.Status = database.SourceStatusFailed
			runSource.Error = s.Err.Error()
		}

		if err := t.runRepo.AddRunSource(runSource); err != nil {
			slog.Warn("Failed to record run source", "run_id", runID, "source", s.Name, "error", err)
		}
	}
}

func (t *MergeTask) finishRun(runID string, report *epg.Report, runErr error) {
	if t.runRepo == nil {
		return
	}

	result := database.RunResult{Status: database.RunStatusSuccess}
	if report != nil {
		result.ChannelCount = report.Channels
		result.ProgrammeCount = report.Programmes
		result.SkippedCount = len(report.Skipped)
	}
	if runErr != nil {
		result.Status = database.RunStatusFailed
		result.Error = runErr.Error()
	}

	if err := t.runRepo.FinishRun(runID, result); err != nil {
		slog.Warn("Failed to record run result", "run_id", runID, "error", err)
	}
}

func (t *MergeTask) fail(err error) {
	if t.guideStore != nil {
		t.guideStore.Fail(err)
	}
}

// IsNoUsableSources reports whether err means no source could be merged.
func IsNoUsableSources(err error) bool {
	return errors.Is(err, epg.ErrNoUsableSources)
}
