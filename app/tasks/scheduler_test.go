package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeTask struct {
	Task
	err error

	mu       *sync.Mutex
	executed *[]string
}

func (f *fakeTask) Execute(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	*f.executed = append(*f.executed, f.Trigger)
	return f.err
}

type fakeFactory struct {
	mu       sync.Mutex
	executed []string
	err      error
}

func (f *fakeFactory) newTask(trigger string) TaskInterface {
	return &fakeTask{
		Task:     NewTask(TaskTypeMerge, trigger),
		err:      f.err,
		mu:       &f.mu,
		executed: &f.executed,
	}
}

func (f *fakeFactory) triggers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.executed...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

func TestScheduler_StartupAndManualMerge(t *testing.T) {
	factory := &fakeFactory{}
	scheduler := NewScheduler(factory.newTask, time.Hour)
	scheduler.Start()
	defer scheduler.Stop()

	waitFor(t, 2*time.Second, func() bool { return len(factory.triggers()) == 1 })

	taskID, err := scheduler.EnqueueMerge(TriggerAPI)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if taskID == "" {
		t.Error("Expected a task id")
	}

	waitFor(t, 2*time.Second, func() bool { return len(factory.triggers()) == 2 })

	triggers := factory.triggers()
	if triggers[0] != TriggerStartup || triggers[1] != TriggerAPI {
		t.Errorf("Expected [startup api], got %v", triggers)
	}

	waitFor(t, 2*time.Second, func() bool { return scheduler.GetStats().TotalProcessed == 2 })
	stats := scheduler.GetStats()
	if stats.TotalErrors != 0 || stats.LastTaskID != taskID || stats.LastRunAt == nil {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestScheduler_TickerEnqueuesMerges(t *testing.T) {
	factory := &fakeFactory{}
	scheduler := NewScheduler(factory.newTask, 50*time.Millisecond)
	scheduler.Start()
	defer scheduler.Stop()

	waitFor(t, 2*time.Second, func() bool { return len(factory.triggers()) >= 3 })

	triggers := factory.triggers()
	if triggers[1] != TriggerSchedule {
		t.Errorf("Expected scheduled merges after startup, got %v", triggers)
	}
}

func TestScheduler_QueueFull(t *testing.T) {
	factory := &fakeFactory{}
	scheduler := NewScheduler(factory.newTask, time.Hour)
	defer scheduler.Stop()

	for i := 0; i < cap(scheduler.taskQueue); i++ {
		if _, err := scheduler.EnqueueMerge(TriggerAPI); err != nil {
			t.Fatalf("Expected no error on enqueue %d, got: %v", i, err)
		}
	}

	if _, err := scheduler.EnqueueMerge(TriggerAPI); err == nil || err.Error() != "task queue is full" {
		t.Errorf("Expected 'task queue is full', got: %v", err)
	}

	if scheduler.GetStats().QueueSize != cap(scheduler.taskQueue) {
		t.Errorf("Expected queue size %d, got %d", cap(scheduler.taskQueue), scheduler.GetStats().QueueSize)
	}
}

func TestScheduler_EnqueueAfterStop(t *testing.T) {
	scheduler := NewScheduler((&fakeFactory{}).newTask, time.Hour)
	scheduler.Start()
	scheduler.Stop()

	if _, err := scheduler.EnqueueMerge(TriggerAPI); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled after stop, got: %v", err)
	}
}

func TestScheduler_RetriesFailedTask(t *testing.T) {
	factory := &fakeFactory{err: errors.New("no usable sources")}
	scheduler := NewScheduler(factory.newTask, time.Hour)
	defer scheduler.Stop()

	task := factory.newTask(TriggerAPI)
	scheduler.executeTask(task)

	if task.GetRetryCount() != 1 {
		t.Errorf("Expected retry count 1, got %d", task.GetRetryCount())
	}

	waitFor(t, 3*time.Second, func() bool { return len(scheduler.taskQueue) == 1 })

	requeued := <-scheduler.taskQueue
	if requeued.GetID() != task.GetID() {
		t.Errorf("Expected the same task to be re-enqueued, got %s", requeued.GetID())
	}

	health := scheduler.Health()
	if health["status"] != "degraded" || health["total_errors"] != int64(1) {
		t.Errorf("Expected degraded health after a failure, got %v", health)
	}
}

func TestScheduler_GivesUpAfterMaxRetries(t *testing.T) {
	factory := &fakeFactory{err: errors.New("boom")}
	scheduler := NewScheduler(factory.newTask, time.Hour)
	defer scheduler.Stop()

	task := factory.newTask(TriggerAPI)
	for i := 0; i < task.GetMaxRetries(); i++ {
		task.IncrementRetryCount()
	}

	scheduler.executeTask(task)
	time.Sleep(50 * time.Millisecond)

	if len(scheduler.taskQueue) != 0 {
		t.Error("Expected no retry after max retries")
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		retry    int
		expected time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{40, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := retryDelay(tt.retry); got != tt.expected {
			t.Errorf("retryDelay(%d) = %v, expected %v", tt.retry, got, tt.expected)
		}
	}
}

func TestNewTask(t *testing.T) {
	a := NewTask(TaskTypeMerge, TriggerCLI)
	b := NewTask(TaskTypeMerge, TriggerCLI)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("Expected unique task ids, got %q and %q", a.ID, b.ID)
	}
	if a.GetType() != TaskTypeMerge || a.GetTrigger() != TriggerCLI {
		t.Errorf("Unexpected task: %+v", a)
	}
	if !a.CanRetry() || a.GetDuration() != 0 {
		t.Error("Expected fresh task to be retryable with no duration")
	}

	a.Start()
	if a.StartedAt == nil {
		t.Error("Expected start time to be set")
	}
}
