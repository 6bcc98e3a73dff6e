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

func TestNativeStrategy_Prepare(t *testing.T) {
	logger := zap.NewNop()

	t.Run("asks for an xlsx file", func(t *testing.T) {
		picker := &fakePicker{handle: &fakeHandle{name: "Acme.xlsx", session: &fakeSession{}}}
		s := NewNativeStrategy(picker, logger)

		_, err := s.Prepare(context.Background(), Target{Filename: "Acme.xlsx"})
		require.NoError(t, err)

		require.Len(t, picker.opts, 1)
		assert.Equal(t, "Acme.xlsx", picker.opts[0].SuggestedName)
		assert.Equal(t, []string{"xlsx"}, picker.opts[0].Extensions)
		assert.Equal(t, []string{entity.SpreadsheetMIMEType}, picker.opts[0].MIMETypes)
	})

	t.Run("surfaces cancellation as permission denied", func(t *testing.T) {
		s := NewNativeStrategy(&fakePicker{err: ErrHandleCancelled}, logger)

		_, err := s.Prepare(context.Background(), Target{Filename: "a.xlsx"})

		assert.ErrorIs(t, err, ErrHandleCancelled)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("wraps picker failure as filesystem unavailable", func(t *testing.T) {
		s := NewNativeStrategy(&fakePicker{err: errors.New("no picker")}, logger)

		_, err := s.Prepare(context.Background(), Target{Filename: "a.xlsx"})

		assert.ErrorIs(t, err, ErrFilesystemUnavailable)
	})

	t.Run("rejects missing handle", func(t *testing.T) {
		s := NewNativeStrategy(&fakePicker{}, logger)

		_, err := s.Prepare(context.Background(), Target{Filename: "a.xlsx"})

		assert.ErrorIs(t, err, ErrFilesystemUnavailable)
	})
}

func TestNativeStrategy_Deliver(t *testing.T) {
	logger := zap.NewNop()
	artifact := &entity.Artifact{Data: []byte("spreadsheet")}

	t.Run("writes full artifact and closes session", func(t *testing.T) {
		session := &fakeSession{}
		s := NewNativeStrategy(&fakePicker{handle: &fakeHandle{name: "a.xlsx", session: session}}, logger)

		deliver, err := s.Prepare(context.Background(), Target{Filename: "a.xlsx"})
		require.NoError(t, err)

		require.NoError(t, deliver(context.Background(), artifact))
		assert.Equal(t, []byte("spreadsheet"), session.data)
		assert.Equal(t, 1, session.closed)
	})

	t.Run("closes session when write fails", func(t *testing.T) {
		session := &fakeSession{writeErr: errors.New("disk full")}
		s := NewNativeStrategy(&fakePicker{handle: &fakeHandle{name: "a.xlsx", session: session}}, logger)

		deliver, err := s.Prepare(context.Background(), Target{Filename: "a.xlsx"})
		require.NoError(t, err)

		err = deliver(context.Background(), artifact)
		assert.ErrorIs(t, err, ErrFilesystemUnavailable)
		assert.Contains(t, err.Error(), "disk full")
		assert.Equal(t, 1, session.closed)
	})

	t.Run("reports close failure", func(t *testing.T) {
		session := &fakeSession{closeErr: errors.New("flush failed")}
		s := NewNativeStrategy(&fakePicker{handle: &fakeHandle{name: "a.xlsx", session: session}}, logger)

		deliver, err := s.Prepare(context.Background(), Target{Filename: "a.xlsx"})
		require.NoError(t, err)

		err = deliver(context.Background(), artifact)
		assert.ErrorIs(t, err, ErrFilesystemUnavailable)
		assert.Equal(t, 1, session.closed)
	})

	t.Run("write error wins over close error", func(t *testing.T) {
		session := &fakeSession{writeErr: errors.New("disk full"), closeErr: errors.New("flush failed")}
		s := NewNativeStrategy(&fakePicker{handle: &fakeHandle{name: "a.xlsx", session: session}}, logger)

		deliver, err := s.Prepare(context.Background(), Target{Filename: "a.xlsx"})
		require.NoError(t, err)

		err = deliver(context.Background(), artifact)
		assert.Contains(t, err.Error(), "disk full")
		assert.NotContains(t, err.Error(), "flush failed")
	})

	t.Run("denied writer", func(t *testing.T) {
		handle := &fakeHandle{name: "a.xlsx", writerErr: errors.New("read-only")}
		s := NewNativeStrategy(&fakePicker{handle: handle}, logger)

		deliver, err := s.Prepare(context.Background(), Target{Filename: "a.xlsx"})
		require.NoError(t, err)

		assert.ErrorIs(t, deliver(context.Background(), artifact), ErrPermissionDenied)
	})
}
