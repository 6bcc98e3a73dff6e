package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tietracker/tiexport/internal/domain/entity"
	"go.uber.org/zap"
)

// TaskRepository handles task entry database operations
type TaskRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a task entry and sets its ID
func (r *TaskRepository) Create(ctx context.Context, task *entity.TaskEntry) error {
	day := task.Day
	if day == "" {
		day = task.From.Format(entity.DayLayout)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (project_id, day, description, from_at, to_at, billable) VALUES (?, ?, ?, ?, ?, ?)`,
		task.ProjectID, day, task.Description, task.From, task.To, task.Billable,
	)
	if err != nil {
		r.logger.Error("Failed to create task", zap.String("project_id", task.ProjectID), zap.Error(err))
		return fmt.Errorf("failed to create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = id
	task.Day = day
	return nil
}

// ListByProjectAndDays returns the project's entries on the given days, ordered by start
func (r *TaskRepository) ListByProjectAndDays(ctx context.Context, projectID string, days []string) ([]*entity.TaskEntry, error) {
	if len(days) == 0 {
		return nil, nil
	}

	args := make([]interface{}, 0, len(days)+1)
	args = append(args, projectID)
	for _, d := range days {
		args = append(args, d)
	}

	query := fmt.Sprintf(`
		SELECT id, project_id, day, description, from_at, to_at, billable
		FROM tasks
		WHERE project_id = ? AND day IN (%s)
		ORDER BY from_at ASC, id ASC
	`, strings.TrimSuffix(strings.Repeat("?,", len(days)), ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list tasks",
			zap.String("project_id", projectID),
			zap.Int("days", len(days)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*entity.TaskEntry
	for rows.Next() {
		t := &entity.TaskEntry{}
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Day, &t.Description, &t.From, &t.To, &t.Billable); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}
