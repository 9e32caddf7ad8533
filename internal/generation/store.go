package generation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

// SessionRecorder persists generation session records. The orchestrator
// writes rows at run start and completion; the progress store, not this
// table, serves live observers.
type SessionRecorder interface {
	CreateSession(ctx context.Context, sessionID string, req models.UserRequirements) error
	CompleteSession(ctx context.Context, sessionID string, result *models.GenerationResult) error
}

// PostgresRecorder stores session records in Postgres
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder creates a Postgres-backed session recorder
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

// CreateSession inserts a session row in the generating state
func (r *PostgresRecorder) CreateSession(ctx context.Context, sessionID string, req models.UserRequirements) error {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal requirements: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO generation_sessions (id, app_name, requirements, status)
		 VALUES ($1, $2, $3, 'generating')`,
		sessionID, req.Name, reqJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// CompleteSession finalizes a session row with the run result
func (r *PostgresRecorder) CompleteSession(ctx context.Context, sessionID string, result *models.GenerationResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE generation_sessions
		 SET status = 'completed', result = $1, file_count = $2, build_success = $3, completed_at = NOW()
		 WHERE id = $4`,
		resultJSON, len(result.Files), result.Build.Success, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}

	return nil
}
