package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const recordColumns = `id, kind, input_path, output_name, params_json, status,
    error_message, artifacts_json, created_at, updated_at, started_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(value sql.NullString) (time.Time, error) {
	if !value.Valid || value.String == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value.String, err)
	}
	return parsed, nil
}

func makePlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func scanRecord(scanner rowScanner) (*Record, error) {
	var (
		rec           Record
		status        string
		outputName    sql.NullString
		paramsJSON    sql.NullString
		errorMessage  sql.NullString
		artifactsJSON sql.NullString
		createdAt     sql.NullString
		updatedAt     sql.NullString
		startedAt     sql.NullString
		finishedAt    sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID, &rec.Kind, &rec.InputPath, &outputName, &paramsJSON, &status,
		&errorMessage, &artifactsJSON, &createdAt, &updatedAt, &startedAt, &finishedAt,
	); err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	rec.OutputName = outputName.String
	rec.ParamsJSON = paramsJSON.String
	rec.ErrorMessage = errorMessage.String
	rec.ArtifactsJSON = artifactsJSON.String

	var err error
	if rec.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	if rec.StartedAt, err = parseTimestamp(startedAt); err != nil {
		return nil, err
	}
	if rec.FinishedAt, err = parseTimestamp(finishedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Insert stores a new pending record and returns the persisted row.
func (s *Store) Insert(ctx context.Context, id, kind, inputPath, outputName, paramsJSON string) (*Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("record id is empty")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (
            id, kind, input_path, output_name, params_json, status,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		kind,
		inputPath,
		nullableString(outputName),
		nullableString(paramsJSON),
		StatusPending,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a record by identifier. Returns nil when no row matches.
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM jobs WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return rec, nil
}

// MarkRunning records the moment a job leaves the queue and starts work.
func (s *Store) MarkRunning(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs SET status = ?, started_at = ?, updated_at = ? WHERE id = ?`,
		StatusRunning, now, now, id,
	); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	return nil
}

// MarkFinished records a job's terminal state with its outcome details.
func (s *Store) MarkFinished(ctx context.Context, id string, status Status, errorMessage, artifactsJSON string) error {
	if !status.Finished() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, error_message = ?, artifacts_json = ?, finished_at = ?, updated_at = ?
         WHERE id = ?`,
		status,
		nullableString(errorMessage),
		nullableString(artifactsJSON),
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("mark finished: %w", err)
	}
	return nil
}

// List returns records filtered by status set, oldest first. No statuses
// means all records.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Record, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + recordColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at`

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
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Remove deletes a record by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearFinished removes terminal records, keeping pending and running rows.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM jobs WHERE status IN (?, ?, ?, ?)`,
		StatusCompleted, StatusFailed, StatusCancelled, StatusTimedOut,
	)
	if err != nil {
		return 0, fmt.Errorf("clear finished: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all records.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs`)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}

// Summarize returns aggregated counts per lifecycle state.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize jobs: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch Status(status) {
		case StatusPending:
			summary.Pending = count
		case StatusRunning:
			summary.Running = count
		case StatusCompleted:
			summary.Completed = count
		case StatusFailed:
			summary.Failed = count
		case StatusCancelled:
			summary.Cancelled = count
		case StatusTimedOut:
			summary.TimedOut = count
		}
	}
	return summary, rows.Err()
}
