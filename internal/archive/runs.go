package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/consilium/internal/scheduler"
)

// TaskRecord is one archived task row.
type TaskRecord struct {
	TaskID        string
	Title         string
	Role          string
	Kind          string
	Status        string
	RevisionCount int
	Output        string
}

// SaveRun archives one finished run with its full task snapshot and every
// recorded review. Idempotent per run ID.
func (s *Store) SaveRun(ctx context.Context, run Run, tasks []*scheduler.Task) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, workflow, rounds, complete, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			workflow = excluded.workflow,
			rounds = excluded.rounds,
			complete = excluded.complete,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, run.ID, run.Workflow, run.Rounds, boolToInt(run.Complete),
		run.StartedAt.UTC().Format(time.RFC3339), run.FinishedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}

	// Replace the run's tasks and reviews wholesale.
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_tasks WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear old tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_reviews WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear old reviews: %w", err)
	}

	for _, task := range tasks {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_tasks (run_id, task_id, title, role, kind, status, revision_count, output)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, task.ID, task.Title, task.Role, task.Kind.String(),
			task.Status.String(), task.RevisionCount, task.Output)
		if err != nil {
			return fmt.Errorf("failed to insert task %q: %w", task.ID, err)
		}

		for _, rev := range task.Reviews {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO run_reviews (run_id, target_task_id, reviewer_role, approved, confidence, critical_issues, concerns)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, run.ID, rev.TargetTaskID, rev.ReviewerRole, boolToInt(rev.Approved),
				rev.Confidence, len(rev.CriticalIssues), len(rev.Concerns))
			if err != nil {
				return fmt.Errorf("failed to insert review for %q: %w", task.ID, err)
			}
		}
	}

	return tx.Commit()
}

// ListRuns returns all archived runs, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workflow, rounds, complete, started_at, finished_at
		FROM runs ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var complete int
		var started, finished string
		if err := rows.Scan(&run.ID, &run.Workflow, &run.Rounds, &complete, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Complete = complete != 0
		run.StartedAt, _ = time.Parse(time.RFC3339, started)
		run.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// TasksForRun returns the archived task rows of a run, in task ID order.
func (s *Store) TasksForRun(ctx context.Context, runID string) ([]TaskRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, title, role, kind, status, revision_count, COALESCE(output, '')
		FROM run_tasks WHERE run_id = ? ORDER BY task_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var records []TaskRecord
	for rows.Next() {
		var rec TaskRecord
		if err := rows.Scan(&rec.TaskID, &rec.Title, &rec.Role, &rec.Kind, &rec.Status, &rec.RevisionCount, &rec.Output); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
