package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tietracker/tiexport/internal/domain/entity"
	"go.uber.org/zap"
)

func TestDownloadStrategy(t *testing.T) {
	logger := zap.NewNop()
	artifact := &entity.Artifact{Data: []byte("spreadsheet"), MIMEType: entity.SpreadsheetMIMEType}

	t.Run("triggers link then revokes it", func(t *testing.T) {
		registry := NewResourceRegistry(0)
		var captured *Link
		var fetched []byte
		trigger := TriggerFunc(func(ctx context.Context, link *Link) error {
			captured = link
			res, err := link.Open()
			if err != nil {
				return err
			}
			fetched = res.Data
			return nil
		})
		s := NewDownloadStrategy(registry, trigger, logger)

		deliver, err := s.Prepare(context.Background(), Target{Filename: "Acme.xlsx"})
		require.NoError(t, err)
		require.NoError(t, deliver(context.Background(), artifact))

		assert.Equal(t, []byte("spreadsheet"), fetched)
		assert.Equal(t, "Acme.xlsx", captured.Filename)
		assert.Equal(t, entity.SpreadsheetMIMEType, captured.MIMEType)
		assert.Equal(t, 0, registry.Len())

		_, err = captured.Open()
		assert.ErrorIs(t, err, ErrResourceNotFound)
	})

	t.Run("target trigger overrides default", func(t *testing.T) {
		defaultCalled, overrideCalled := false, false
		s := NewDownloadStrategy(NewResourceRegistry(0), TriggerFunc(func(ctx context.Context, link *Link) error {
			defaultCalled = true
			return nil
		}), logger)

		deliver, err := s.Prepare(context.Background(), Target{
			Filename: "a.xlsx",
			Trigger: TriggerFunc(func(ctx context.Context, link *Link) error {
				overrideCalled = true
				return nil
			}),
		})
		require.NoError(t, err)
		require.NoError(t, deliver(context.Background(), artifact))

		assert.False(t, defaultCalled)
		assert.True(t, overrideCalled)
	})

	t.Run("fails without any trigger", func(t *testing.T) {
		s := NewDownloadStrategy(NewResourceRegistry(0), nil, logger)

		_, err := s.Prepare(context.Background(), Target{Filename: "a.xlsx"})
		assert.ErrorIs(t, err, ErrResourceCreateFailed)
	})

	t.Run("surfaces resource creation failure", func(t *testing.T) {
		triggered := false
		s := NewDownloadStrategy(NewResourceRegistry(4), TriggerFunc(func(ctx context.Context, link *Link) error {
			triggered = true
			return nil
		}), logger)

		deliver, err := s.Prepare(context.Background(), Target{Filename: "a.xlsx"})
		require.NoError(t, err)

		err = deliver(context.Background(), artifact)
		assert.ErrorIs(t, err, ErrResourceCreateFailed)
		assert.False(t, triggered)
	})

	t.Run("revokes resource when trigger fails", func(t *testing.T) {
		registry := NewResourceRegistry(0)
		s := NewDownloadStrategy(registry, TriggerFunc(func(ctx context.Context, link *Link) error {
			return errors.New("client went away")
		}), logger)

		deliver, err := s.Prepare(context.Background(), Target{Filename: "a.xlsx"})
		require.NoError(t, err)

		assert.Error(t, deliver(context.Background(), artifact))
		assert.Equal(t, 0, registry.Len())
	})
}

func TestResourceRegistry(t *testing.T) {
	r := NewResourceRegistry(0)

	url, err := r.Create([]byte("x"), "text/plain", "x.txt")
	require.NoError(t, err)
	assert.Contains(t, url, resourceURLPrefix)

	res, err := r.Resolve(url)
	require.NoError(t, err)
	assert.Equal(t, "x.txt", res.Filename)

	r.Revoke(url)
	r.Revoke(url)

	_, err = r.Resolve(url)
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = r.Resolve("https://example.com")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = r.Create(nil, "text/plain", "x.txt")
	assert.ErrorIs(t, err, ErrResourceCreateFailed)
}
