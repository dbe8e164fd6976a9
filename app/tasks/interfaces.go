package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the HTTP API to run merges in the background.
// Example usage:
//
//	scheduler := NewScheduler(newMergeTask, interval)
//	scheduler.Start()
//	defer scheduler.Stop()
//	taskID, err := scheduler.EnqueueMerge(TriggerAPI)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueMerge(trigger string) (string, error)
	GetStats() Stats
	Health() map[string]any
}
