package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"songforge/internal/pipeline"
	"songforge/internal/rubric"
)

const runColumns = "id, base_seed, fingerprint, status, composite, report_json, failure_reason, failed_stage, created_at, updated_at"

// GetRun fetches a run summary by identifier. A missing run returns
// nil without error.
func (s *Store) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	record, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return record, nil
}

// ListRuns returns runs filtered by status set (or all runs when no
// status is provided), newest first.
func (s *Store) ListRuns(ctx context.Context, statuses ...pipeline.Status) ([]*RunRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + runColumns + ` FROM runs`
	orderClause := ` ORDER BY created_at DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// RunsByFingerprint returns every run of one specification, oldest
// first, so repeat executions can be compared for reproducibility.
func (s *Store) RunsByFingerprint(ctx context.Context, fingerprint string) ([]*RunRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM runs WHERE fingerprint = ? ORDER BY created_at`,
		fingerprint,
	)
	if err != nil {
		return nil, fmt.Errorf("runs by fingerprint: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ArtifactsForRun returns a run's artifacts in production order,
// including superseded artifacts from before fix re-runs.
func (s *Store) ArtifactsForRun(ctx context.Context, runID string) ([]*ArtifactRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, stage_name, stage_index, fix_iteration, hash, payload_json, created_at
         FROM artifacts WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("artifacts for run: %w", err)
	}
	defer rows.Close()

	var records []*ArtifactRecord
	for rows.Next() {
		var (
			record     ArtifactRecord
			createdRaw string
		)
		if err := rows.Scan(
			&record.RunID,
			&record.StageName,
			&record.StageIndex,
			&record.FixIteration,
			&record.Hash,
			&record.PayloadJSON,
			&createdRaw,
		); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			record.CreatedAt = created
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// FixAttemptsForRun returns a run's repair history in iteration order.
func (s *Store) FixAttemptsForRun(ctx context.Context, runID string) ([]*FixAttemptRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, iteration, implicated_json, reran_json, prior_hashes_json, new_hashes_json, report_json, created_at
         FROM fix_attempts WHERE run_id = ? ORDER BY iteration`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("fix attempts for run: %w", err)
	}
	defer rows.Close()

	var records []*FixAttemptRecord
	for rows.Next() {
		var (
			record     FixAttemptRecord
			implicated string
			reran      string
			prior      string
			updated    string
			report     sql.NullString
			createdRaw string
		)
		if err := rows.Scan(
			&record.RunID,
			&record.Iteration,
			&implicated,
			&reran,
			&prior,
			&updated,
			&report,
			&createdRaw,
		); err != nil {
			return nil, fmt.Errorf("scan fix attempt: %w", err)
		}
		if err := json.Unmarshal([]byte(implicated), &record.Implicated); err != nil {
			return nil, fmt.Errorf("decode implicated stages: %w", err)
		}
		if err := json.Unmarshal([]byte(reran), &record.Reran); err != nil {
			return nil, fmt.Errorf("decode reran stages: %w", err)
		}
		if err := json.Unmarshal([]byte(prior), &record.PriorHashes); err != nil {
			return nil, fmt.Errorf("decode prior hashes: %w", err)
		}
		if err := json.Unmarshal([]byte(updated), &record.NewHashes); err != nil {
			return nil, fmt.Errorf("decode new hashes: %w", err)
		}
		if report.Valid && report.String != "" {
			var parsed rubric.ScoreReport
			if err := json.Unmarshal([]byte(report.String), &parsed); err != nil {
				return nil, fmt.Errorf("decode attempt report: %w", err)
			}
			record.Report = &parsed
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			record.CreatedAt = created
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// Stats returns a count of runs grouped by status.
func (s *Store) Stats(ctx context.Context) (StatusCounts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(StatusCounts)
	for rows.Next() {
		var status pipeline.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Clear removes all runs, their artifacts, and fix attempts. Pins are
// kept so reproducibility guarantees survive history cleanup.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*RunRecord, error) {
	var (
		id            string
		baseSeedRaw   string
		fingerprint   string
		statusStr     string
		composite     sql.NullFloat64
		reportRaw     sql.NullString
		failureReason sql.NullString
		failedStage   sql.NullString
		createdRaw    string
		updatedRaw    string
	)

	if err := scanner.Scan(
		&id,
		&baseSeedRaw,
		&fingerprint,
		&statusStr,
		&composite,
		&reportRaw,
		&failureReason,
		&failedStage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	baseSeed, err := strconv.ParseUint(baseSeedRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse base seed %q: %w", baseSeedRaw, err)
	}

	record := &RunRecord{
		ID:            id,
		BaseSeed:      baseSeed,
		Fingerprint:   fingerprint,
		Status:        pipeline.Status(statusStr),
		Composite:     composite.Float64,
		FailureReason: failureReason.String,
		FailedStage:   failedStage.String,
	}
	if reportRaw.Valid && reportRaw.String != "" {
		var parsed rubric.ScoreReport
		if err := json.Unmarshal([]byte(reportRaw.String), &parsed); err != nil {
			return nil, fmt.Errorf("decode run report: %w", err)
		}
		record.Report = &parsed
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
