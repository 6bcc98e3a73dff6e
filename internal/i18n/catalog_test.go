package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads english catalog", func(t *testing.T) {
		c, err := Load("en")
		require.NoError(t, err)

		assert.Equal(t, "en", c.Locale())
		assert.Equal(t, "Total billable hours", c.T("export:total_billable_hours"))
	})

	t.Run("normalizes regional locale", func(t *testing.T) {
		c, err := Load("fr-CH")
		require.NoError(t, err)

		assert.Equal(t, "fr", c.Locale())
		assert.Equal(t, "TVA", c.T("export:vat"))
	})

	t.Run("falls back to default locale", func(t *testing.T) {
		c, err := Load("xx")
		require.NoError(t, err)

		assert.Equal(t, DefaultLocale, c.Locale())
	})

	t.Run("missing key returns key", func(t *testing.T) {
		c, err := Load("en")
		require.NoError(t, err)

		assert.Equal(t, "export:unknown", c.T("export:unknown"))
	})
}

func TestLoadFS(t *testing.T) {
	t.Run("rejects malformed catalog", func(t *testing.T) {
		fsys := fstest.MapFS{
			"l/en.yaml": {Data: []byte("export: [not, a, map")},
		}

		_, err := LoadFS(fsys, "l", "en")
		assert.Error(t, err)
	})

	t.Run("errors when default catalog missing", func(t *testing.T) {
		_, err := LoadFS(fstest.MapFS{}, "l", "de")
		assert.Error(t, err)
	})
}
