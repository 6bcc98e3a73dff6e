package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tietracker/tiexport/internal/domain/entity"
	"github.com/tietracker/tiexport/pkg/database"
	"go.uber.org/zap"
)

func setupDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "tasks.db"), MaxOpenConns: 1}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunEmbedded(context.Background()))
	return db
}

func seed(t *testing.T, db *database.DB) (*ProjectRepository, *TaskRepository) {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	projects := NewProjectRepository(db.DB, logger)
	tasks := NewTaskRepository(db.DB, logger)

	require.NoError(t, projects.CreateClient(ctx, &entity.Client{ID: "c1", Name: "Acme", Color: "#ff0000"}))
	require.NoError(t, projects.Create(ctx, &entity.Project{ID: "p1", ClientID: "c1", Name: "Website", HourlyRate: 120, VAT: true}))
	require.NoError(t, projects.Create(ctx, &entity.Project{ID: "p2", ClientID: "c1", Name: "Other"}))

	base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	entries := []*entity.TaskEntry{
		{ProjectID: "p1", Description: "late", From: base.Add(5 * time.Hour), To: base.Add(6 * time.Hour), Billable: true},
		{ProjectID: "p1", Description: "early", From: base, To: base.Add(time.Hour), Billable: false},
		{ProjectID: "p1", Description: "next day", From: base.AddDate(0, 0, 1), To: base.AddDate(0, 0, 1).Add(time.Hour), Billable: true},
		{ProjectID: "p1", Description: "out of range", From: base.AddDate(0, 0, 5), To: base.AddDate(0, 0, 5).Add(time.Hour)},
		{ProjectID: "p2", Description: "other project", From: base, To: base.Add(time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, tasks.Create(ctx, e))
		assert.NotZero(t, e.ID)
	}

	return projects, tasks
}

func TestProjectRepository_GetByID(t *testing.T) {
	db := setupDB(t)
	projects, _ := seed(t, db)

	t.Run("returns project with client", func(t *testing.T) {
		p, err := projects.GetByID(context.Background(), "p1")
		require.NoError(t, err)

		assert.Equal(t, "Website", p.Name)
		assert.Equal(t, 120.0, p.HourlyRate)
		assert.True(t, p.VAT)
		require.NotNil(t, p.Client)
		assert.Equal(t, "Acme", p.Client.Name)
		assert.Equal(t, "#ff0000", p.Client.Color)
	})

	t.Run("returns not found", func(t *testing.T) {
		_, err := projects.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTaskRepository_ListByProjectAndDays(t *testing.T) {
	db := setupDB(t)
	_, tasks := seed(t, db)
	ctx := context.Background()

	t.Run("filters by project and days ordered by start", func(t *testing.T) {
		got, err := tasks.ListByProjectAndDays(ctx, "p1", []string{"2024-03-01", "2024-03-02"})
		require.NoError(t, err)

		require.Len(t, got, 3)
		assert.Equal(t, "early", got[0].Description)
		assert.Equal(t, "late", got[1].Description)
		assert.Equal(t, "next day", got[2].Description)
		assert.Equal(t, time.Hour, got[0].Duration())
		assert.False(t, got[0].Billable)
		assert.True(t, got[1].Billable)
	})

	t.Run("empty day list", func(t *testing.T) {
		got, err := tasks.ListByProjectAndDays(ctx, "p1", nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("unknown project", func(t *testing.T) {
		got, err := tasks.ListByProjectAndDays(ctx, "nope", []string{"2024-03-01"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
