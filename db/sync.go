// ABOUTME: Database operations for sync_state and sync_runs tables
// ABOUTME: Stores the sync token, status transitions, and run history
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kaonmir/Nocioun-sub000/models"
)

// SyncState is the persisted state for one service.
type SyncState struct {
	Service       string
	LastSyncTime  *time.Time
	LastSyncToken *string
	Status        string
	ErrorMessage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TokenStore holds the sync token for one service as a sync_state row.
// It satisfies the engine's two-method load/save contract.
type TokenStore struct {
	db      *sql.DB
	service string
}

// NewTokenStore creates a token store for a service.
func NewTokenStore(db *sql.DB, service string) *TokenStore {
	return &TokenStore{db: db, service: service}
}

// Load returns the stored token. ok is false when no token has been saved;
// absence is never an error.
func (s *TokenStore) Load(ctx context.Context) (string, bool, error) {
	var token sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT last_sync_token FROM sync_state WHERE service = ?
	`, s.service).Scan(&token)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load sync token: %w", err)
	}
	if !token.Valid || token.String == "" {
		return "", false, nil
	}

	return token.String, true, nil
}

// Save overwrites the stored token and stamps the last sync time.
func (s *TokenStore) Save(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (service, last_sync_time, last_sync_token, status)
		VALUES (?, CURRENT_TIMESTAMP, ?, 'idle')
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = CURRENT_TIMESTAMP,
			last_sync_token = excluded.last_sync_token,
			updated_at = CURRENT_TIMESTAMP
	`, s.service, token)

	if err != nil {
		return fmt.Errorf("failed to save sync token: %w", err)
	}

	return nil
}

// UpdateSyncStatus updates the status column for a service.
func UpdateSyncStatus(db *sql.DB, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (service, status, error_message)
		VALUES (?, ?, ?)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, errorMsgVal)

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// GetSyncState retrieves the sync state for a service, or nil when the
// service has never synced.
func GetSyncState(db *sql.DB, service string) (*SyncState, error) {
	var state SyncState
	var lastSyncTime sql.NullTime
	var lastSyncToken sql.NullString
	var errorMessage sql.NullString

	err := db.QueryRow(`
		SELECT service, last_sync_time, last_sync_token, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE service = ?
	`, service).Scan(
		&state.Service,
		&lastSyncTime,
		&lastSyncToken,
		&state.Status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	if lastSyncToken.Valid {
		state.LastSyncToken = &lastSyncToken.String
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}

	return &state, nil
}

// RunLog records orchestrator runs in the sync_runs table.
type RunLog struct {
	db *sql.DB
}

// NewRunLog creates a run log.
func NewRunLog(db *sql.DB) *RunLog {
	return &RunLog{db: db}
}

// BeginRun inserts the run row and flips the service status to syncing.
func (l *RunLog) BeginRun(ctx context.Context, run *models.SyncRun) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, service, started_at)
		VALUES (?, ?, ?)
	`, run.ID.String(), run.Service, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	return UpdateSyncStatus(l.db, run.Service, "syncing", nil)
}

// FinishRun records the run outcome and flips the service status back to
// idle, or to error when the run failed.
func (l *RunLog) FinishRun(ctx context.Context, run *models.SyncRun) error {
	var errorMsgVal sql.NullString
	if run.ErrorMessage != nil {
		errorMsgVal = sql.NullString{String: *run.ErrorMessage, Valid: true}
	}

	_, err := l.db.ExecContext(ctx, `
		UPDATE sync_runs
		SET is_full_sync = ?, fetched = ?, upserted = ?, archived = ?, failed = ?,
			error_message = ?, finished_at = ?
		WHERE id = ?
	`, boolToInt(run.IsFullSync), run.Fetched, run.Upserted, run.Archived, run.Failed,
		errorMsgVal, run.FinishedAt, run.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	status := "idle"
	if run.ErrorMessage != nil {
		status = "error"
	}
	return UpdateSyncStatus(l.db, run.Service, status, run.ErrorMessage)
}

// RecentRuns returns the most recent runs for a service, newest first.
func RecentRuns(db *sql.DB, service string, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.Query(`
		SELECT id, service, is_full_sync, fetched, upserted, archived, failed, error_message, started_at, finished_at
		FROM sync_runs
		WHERE service = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, service, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.SyncRun
	for rows.Next() {
		var run models.SyncRun
		var id string
		var isFull int
		var errorMessage sql.NullString
		var finishedAt sql.NullTime

		err := rows.Scan(&id, &run.Service, &isFull, &run.Fetched, &run.Upserted,
			&run.Archived, &run.Failed, &errorMessage, &run.StartedAt, &finishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}

		run.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run id: %w", err)
		}
		run.IsFullSync = isFull != 0
		if errorMessage.Valid {
			run.ErrorMessage = &errorMessage.String
		}
		if finishedAt.Valid {
			run.FinishedAt = &finishedAt.Time
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}

	return runs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
