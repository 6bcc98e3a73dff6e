package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tietracker/tiexport/internal/domain/entity"
	"go.uber.org/zap"
)

// ProjectRepository handles client and project database operations
type ProjectRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// CreateClient inserts a client
func (r *ProjectRepository) CreateClient(ctx context.Context, client *entity.Client) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, color) VALUES (?, ?, ?)`,
		client.ID, client.Name, client.Color,
	)
	if err != nil {
		r.logger.Error("Failed to create client", zap.String("client_id", client.ID), zap.Error(err))
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// Create inserts a project
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, client_id, name, hourly_rate, vat) VALUES (?, ?, ?, ?, ?)`,
		project.ID, project.ClientID, project.Name, project.HourlyRate, project.VAT,
	)
	if err != nil {
		r.logger.Error("Failed to create project", zap.String("project_id", project.ID), zap.Error(err))
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetByID returns the project with its client, or ErrNotFound
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	query := `
		SELECT p.id, p.client_id, p.name, p.hourly_rate, p.vat, p.created_at,
		       c.id, c.name, c.color, c.created_at
		FROM projects p
		JOIN clients c ON c.id = p.client_id
		WHERE p.id = ?
	`

	project := &entity.Project{}
	client := &entity.Client{}

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID,
		&project.ClientID,
		&project.Name,
		&project.HourlyRate,
		&project.VAT,
		&project.CreatedAt,
		&client.ID,
		&client.Name,
		&client.Color,
		&client.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get project", zap.String("project_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	project.Client = client
	return project, nil
}
