package database

type RunRepository interface {
	CreateRun(trigger string, sourceCount int) (string, error)
	FinishRun(runID string, result RunResult) error
	AddRunSource(source RunSource) error

	GetRun(runID string) (*Run, error)
	GetRecentRuns(limit int) ([]Run, error)
	GetRunSources(runID string) ([]RunSource, error)
	GetRunCount() (int, error)
	GetLastSuccessfulRun() (*Run, error)
}
