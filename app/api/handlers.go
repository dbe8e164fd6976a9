package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/epg-comb/app/database"
	"github.com/lysyi3m/epg-comb/app/store"
	"github.com/lysyi3m/epg-comb/app/tasks"
)

func NewHandler(guideStore *store.GuideStore, runRepo database.RunRepository,
	scheduler tasks.TaskSchedulerInterface, version string) *Handler {
	return &Handler{
		guideStore: guideStore,
		runRepo:    runRepo,
		scheduler:  scheduler,
		version:    version,
	}
}

func (h *Handler) GetGuide(c *gin.Context) {
	snapshot := h.currentGuide(c)
	if snapshot == nil {
		return
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", snapshot.XML)
}

func (h *Handler) GetGuideGzip(c *gin.Context) {
	snapshot := h.currentGuide(c)
	if snapshot == nil {
		return
	}

	c.Header("Content-Disposition", `attachment; filename="epg.xml.gz"`)
	c.Data(http.StatusOK, "application/gzip", snapshot.Gzip)
}

// currentGuide writes a 503 and returns nil until the first merge succeeded
func (h *Handler) currentGuide(c *gin.Context) *store.Snapshot {
	snapshot := h.guideStore.Current()
	if snapshot == nil {
		c.Header("Retry-After", "60")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Guide not available yet"})
		return nil
	}

	c.Header("X-Guide-Channels", strconv.Itoa(snapshot.Channels))
	c.Header("X-Guide-Programmes", strconv.Itoa(snapshot.Programmes))
	c.Header("X-Run-ID", snapshot.RunID)
	c.Header("Last-Modified", snapshot.UpdatedAt.Format(http.TimeFormat))

	return snapshot
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":       time.Now().Format(time.RFC3339),
		"guide_available": h.guideStore.Current() != nil,
	}

	if h.scheduler != nil {
		for k, v := range h.scheduler.Health() {
			health[k] = v
		}
	}

	if err := h.guideStore.LastError(); err != nil {
		health["last_error"] = err.Error()
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"version": h.version,
	}

	if snapshot := h.guideStore.Current(); snapshot != nil {
		guide := map[string]interface{}{
			"run_id":     snapshot.RunID,
			"channels":   snapshot.Channels,
			"programmes": snapshot.Programmes,
			"updated_at": snapshot.UpdatedAt,
			"size":       len(snapshot.XML),
			"gzip_size":  len(snapshot.Gzip),
		}

		if report := snapshot.Report; report != nil {
			guide["usable_sources"] = report.UsableSources()
			guide["failed_sources"] = len(report.FailedSources())
			guide["skipped_records"] = len(report.Skipped)
			guide["duration"] = report.Duration().String()
		}

		stats["guide"] = guide
	}

	if lastRun := h.guideStore.LastRunAt(); !lastRun.IsZero() {
		stats["last_run_at"] = lastRun
	}

	if h.runRepo != nil {
		if count, err := h.runRepo.GetRunCount(); err == nil {
			stats["runs"] = count
		}
	}

	if h.scheduler != nil {
		schedulerStats := h.scheduler.GetStats()
		stats["scheduler"] = map[string]interface{}{
			"queue_size":      schedulerStats.QueueSize,
			"total_processed": schedulerStats.TotalProcessed,
			"total_errors":    schedulerStats.TotalErrors,
		}
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = min(parsed, maxRunsLimit)
	}

	runs, err := h.runRepo.GetRecentRuns(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(runs))
	for i := range runs {
		items = append(items, runInfo(&runs[i]))
	}

	total, err := h.runRepo.GetRunCount()
	if err != nil {
		slog.Error("Database error", "operation", "get_run_count", "error", err)
		total = len(items)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"runs":  items,
		"total": total,
	})
}

func (h *Handler) APIGetRun(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing run id parameter"})
		return
	}

	run, err := h.runRepo.GetRun(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	sources, err := h.runRepo.GetRunSources(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run_sources", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	sourceItems := make([]map[string]interface{}, 0, len(sources))
	for _, s := range sources {
		item := map[string]interface{}{
			"position":   s.Position,
			"name":       s.Name,
			"location":   s.Location,
			"status":     s.Status,
			"channels":   s.ChannelCount,
			"programmes": s.ProgrammeCount,
		}
		if s.Error != "" {
			item["error"] = s.Error
		}
		sourceItems = append(sourceItems, item)
	}

	details := runInfo(run)
	details["sources"] = sourceItems

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APITriggerMerge(c *gin.Context) {
	taskID, err := h.scheduler.EnqueueMerge(tasks.TriggerAPI)
	if err != nil {
		slog.Error("Error enqueueing merge task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue merge task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Merge task enqueued successfully",
		"task": gin.H{
			"id":   taskID,
			"type": tasks.TaskTypeMerge,
		},
	})
}

func runInfo(run *database.Run) map[string]interface{} {
	info := map[string]interface{}{
		"id":         run.ID,
		"trigger":    run.Trigger,
		"status":     run.Status,
		"sources":    run.SourceCount,
		"channels":   run.ChannelCount,
		"programmes": run.ProgrammeCount,
		"skipped":    run.SkippedCount,
		"started_at": run.StartedAt,
	}

	if run.FinishedAt != nil {
		info["finished_at"] = run.FinishedAt
		info["duration"] = run.Duration().String()
	}
	if run.Error != "" {
		info["error"] = run.Error
	}

	return info
}
