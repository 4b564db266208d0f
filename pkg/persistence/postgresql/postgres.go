// Package postgresql provides PostgreSQL session persistence.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/windscape/windscape/pkg/models"
	"github.com/windscape/windscape/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL. Session
// snapshots are stored as JSONB documents.
type Persistence struct {
	db          *sql.DB
	logger      *slog.Logger
	sessionRepo *SessionRepository
}

// NewPersistence connects to PostgreSQL and runs pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:          database,
		logger:      logger,
		sessionRepo: NewSessionRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Sessions returns all stored session snapshots.
func (p *Persistence) Sessions(ctx context.Context) ([]*models.WorkflowState, error) {
	return p.sessionRepo.GetAll(ctx)
}

// SessionByID returns one session snapshot.
func (p *Persistence) SessionByID(ctx context.Context, id string) (*models.WorkflowState, error) {
	return p.sessionRepo.GetByID(ctx, id)
}

// SaveSession upserts the session snapshot.
func (p *Persistence) SaveSession(ctx context.Context, state *models.WorkflowState) error {
	return p.sessionRepo.Save(ctx, state)
}

// DeleteSession removes a session.
func (p *Persistence) DeleteSession(ctx context.Context, id string) error {
	return p.sessionRepo.Delete(ctx, id)
}
