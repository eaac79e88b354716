package runstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"songforge/internal/artifact"
	"songforge/internal/pipeline"
)

// RunStarted implements pipeline.Recorder.
func (s *Store) RunStarted(ctx context.Context, runID string, baseSeed uint64, fingerprint string) error {
	now := timestamp()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, base_seed, fingerprint, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		runID,
		strconv.FormatUint(baseSeed, 10),
		fingerprint,
		pipeline.StatusRunning,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ArtifactProduced implements pipeline.Recorder. Fix-loop re-runs
// append new rows rather than overwriting, so the full artifact history
// survives.
func (s *Store) ArtifactProduced(ctx context.Context, runID string, art *artifact.Artifact) error {
	payload, err := artifact.CanonicalJSON(art.Payload)
	if err != nil {
		return fmt.Errorf("serialize artifact payload: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO artifacts (run_id, stage_name, stage_index, fix_iteration, hash, payload_json, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID,
		art.StageName,
		art.StageIndex,
		art.FixIteration,
		art.Hash,
		string(payload),
		timestamp(),
	)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// FixAttemptRecorded implements pipeline.Recorder.
func (s *Store) FixAttemptRecorded(ctx context.Context, runID string, attempt pipeline.FixAttempt) error {
	implicated, err := json.Marshal(attempt.Implicated)
	if err != nil {
		return fmt.Errorf("marshal implicated stages: %w", err)
	}
	reran, err := json.Marshal(attempt.Reran)
	if err != nil {
		return fmt.Errorf("marshal reran stages: %w", err)
	}
	prior, err := json.Marshal(attempt.PriorHashes)
	if err != nil {
		return fmt.Errorf("marshal prior hashes: %w", err)
	}
	updated, err := json.Marshal(attempt.NewHashes)
	if err != nil {
		return fmt.Errorf("marshal new hashes: %w", err)
	}
	var report []byte
	if attempt.Report != nil {
		report, err = json.Marshal(attempt.Report)
		if err != nil {
			return fmt.Errorf("marshal attempt report: %w", err)
		}
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO fix_attempts (run_id, iteration, implicated_json, reran_json, prior_hashes_json, new_hashes_json, report_json, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		attempt.Iteration,
		string(implicated),
		string(reran),
		string(prior),
		string(updated),
		nullableString(string(report)),
		timestamp(),
	)
	if err != nil {
		return fmt.Errorf("insert fix attempt: %w", err)
	}
	return nil
}

// RunFinished implements pipeline.Recorder.
func (s *Store) RunFinished(ctx context.Context, result *pipeline.RunResult) error {
	var (
		composite any
		report    []byte
		err       error
	)
	if result.Report != nil {
		composite = result.Report.Composite
		report, err = json.Marshal(result.Report)
		if err != nil {
			return fmt.Errorf("marshal run report: %w", err)
		}
	}
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, composite = ?, report_json = ?, failure_reason = ?, failed_stage = ?, updated_at = ?
         WHERE id = ?`,
		result.Status,
		composite,
		nullableString(string(report)),
		nullableString(result.FailureReason),
		nullableString(result.FailedStage),
		timestamp(),
		result.RunID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}
