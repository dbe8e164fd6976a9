package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// TaskFactory builds a fresh merge task for a trigger.
type TaskFactory func(trigger string) TaskInterface

type Stats struct {
	TotalProcessed int64
	TotalErrors    int64
	QueueSize      int
	LastTaskID     string
	LastRunAt      *time.Time
	LastError      string
}

// Scheduler runs merges on a single worker so that no two merges ever
// overlap. A merge is queued at startup and then on every interval tick.
type Scheduler struct {
	newTask     TaskFactory
	interval    time.Duration
	taskTimeout time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	mu    sync.Mutex
	stats Stats
}

func NewScheduler(newTask TaskFactory, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		newTask:     newTask,
		interval:    interval,
		taskTimeout: 30 * time.Minute,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 5),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueue(TriggerStartup)

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueue(TriggerSchedule)
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueMerge queues a new merge and returns its task id.
func (s *Scheduler) EnqueueMerge(trigger string) (string, error) {
	task := s.newTask(trigger)
	if err := s.EnqueueTask(task); err != nil {
		return "", err
	}
	return task.GetID(), nil
}

func (s *Scheduler) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.QueueSize = len(s.taskQueue)
	return stats
}

// Health reports degraded when more than 10% of merges failed.
func (s *Scheduler) Health() map[string]any {
	stats := s.GetStats()

	errorRate := 0.0
	if stats.TotalProcessed > 0 {
		errorRate = float64(stats.TotalErrors) / float64(stats.TotalProcessed)
	}

	status := "healthy"
	if errorRate > 0.1 {
		status = "degraded"
	}

	return map[string]any{
		"status":          status,
		"queue_size":      stats.QueueSize,
		"total_processed": stats.TotalProcessed,
		"total_errors":    stats.TotalErrors,
		"error_rate":      errorRate,
	}
}

func (s *Scheduler) enqueue(trigger string) {
	taskID, err := s.EnqueueMerge(trigger)
	if err != nil {
		slog.Warn("Failed to enqueue merge task", "trigger", trigger, "error", err)
		return
	}
	slog.Debug("Merge task enqueued", "trigger", trigger, "id", taskID)
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	s.recordResult(task, err)

	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	delay := retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "trigger", task.GetTrigger(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", delay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

func (s *Scheduler) recordResult(task TaskInterface, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.stats.TotalProcessed++
	s.stats.LastTaskID = task.GetID()
	s.stats.LastRunAt = &now
	s.stats.LastError = ""
	if err != nil {
		s.stats.TotalErrors++
		s.stats.LastError = err.Error()
	}
}
