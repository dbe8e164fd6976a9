package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

var runColumns = []string{
	"id", "triggered_by", "status", "source_count", "channel_count",
	"programme_count", "skipped_count", "error", "started_at", "finished_at",
}

// SQLiteRunRepository stores the history of merge runs
type SQLiteRunRepository struct {
	db  *DB
	now func() time.Time
}

var _ RunRepository = (*SQLiteRunRepository)(nil)

func NewRunRepository(db *DB) *SQLiteRunRepository {
	return &SQLiteRunRepository{db: db, now: time.Now}
}

// CreateRun records a run in progress and returns its id
func (r *SQLiteRunRepository) CreateRun(trigger string, sourceCount int) (string, error) {
	id := uuid.NewString()

	query, args, err := psql.Insert("merge_runs").
		Columns("id", "triggered_by", "status", "source_count", "started_at").
		Values(id, trigger, RunStatusRunning, sourceCount, r.now().UnixMilli()).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.db.Exec(query, args...); err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}

	return id, nil
}

func (r *SQLiteRunRepository) FinishRun(runID string, result RunResult) error {
	query, args, err := psql.Update("merge_runs").
		Set("status", result.Status).
		Set("channel_count", result.ChannelCount).
		Set("programme_count", result.ProgrammeCount).
		Set("skipped_count", result.SkippedCount).
		Set("error", result.Error).
		Set("finished_at", r.now().UnixMilli()).
		Where(sq.Eq{"id": runID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	res, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run '%s' not found", runID)
	}

	return nil
}

func (r *SQLiteRunRepository) AddRunSource(source RunSource) error {
	query, args, err := psql.Insert("run_sources").
		Columns("run_id", "position", "name", "location", "status", "channel_count", "programme_count", "error").
		Values(source.RunID, source.Position, source.Name, source.Location, source.Status,
			source.ChannelCount, source.ProgrammeCount, source.Error).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to add run source: %w", err)
	}

	return nil
}

// GetRun returns nil without error when the run does not exist
func (r *SQLiteRunRepository) GetRun(runID string) (*Run, error) {
	query, args, err := psql.Select(runColumns...).
		From("merge_runs").
		Where(sq.Eq{"id": runID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	run, err := scanRun(r.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

func (r *SQLiteRunRepository) GetLastSuccessfulRun() (*Run, error) {
	query, args, err := psql.Select(runColumns...).
		From("merge_runs").
		Where(sq.Eq{"status": RunStatusSuccess}).
		OrderBy("started_at DESC", "rowid DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	run, err := scanRun(r.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last successful run: %w", err)
	}

	return run, nil
}

// GetRecentRuns returns the newest runs first
func (r *SQLiteRunRepository) GetRecentRuns(limit int) ([]Run, error) {
	builder := psql.Select(runColumns...).
		From("merge_runs").
		OrderBy("started_at DESC", "rowid DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}

// GetRunSources returns the per-source results of a run in source order
func (r *SQLiteRunRepository) GetRunSources(runID string) ([]RunSource, error) {
	query, args, err := psql.Select("run_id", "position", "name", "location", "status", "channel_count", "programme_count", "error").
		From("run_sources").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get run sources: %w", err)
	}
	defer rows.Close()

	var sources []RunSource
	for rows.Next() {
		var s RunSource
		err := rows.Scan(&s.RunID, &s.Position, &s.Name, &s.Location, &s.Status,
			&s.ChannelCount, &s.ProgrammeCount, &s.Error)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run source row: %w", err)
		}
		sources = append(sources, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run source rows: %w", err)
	}

	return sources, nil
}

func (r *SQLiteRunRepository) GetRunCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM merge_runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get run count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var startedAt int64
	var finishedAt sql.NullInt64

	err := row.Scan(
		&run.ID, &run.Trigger, &run.Status, &run.SourceCount, &run.ChannelCount,
		&run.ProgrammeCount, &run.SkippedCount, &run.Error, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt = time.UnixMilli(startedAt).UTC()
	if finishedAt.Valid {
		t := time.UnixMilli(finishedAt.Int64).UTC()
		run.FinishedAt = &t
	}

	return &run, nil
}
