// Package i18n provides synchronous label lookups backed by embedded YAML catalogs.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when the requested locale has no catalog
const DefaultLocale = "en"

// ExportNamespace holds the spreadsheet label keys
const ExportNamespace = "export"

//go:embed locales/*.yaml
var localeFS embed.FS

// Localizer resolves a namespaced key ("namespace:key") to a display string
type Localizer interface {
	T(key string) string
}

// Catalog is a Localizer for a single locale
type Catalog struct {
	locale  string
	entries map[string]string
}

// Load loads the embedded catalog for locale, falling back to DefaultLocale
func Load(locale string) (*Catalog, error) {
	return LoadFS(localeFS, "locales", locale)
}

// LoadFS loads <dir>/<locale>.yaml from fsys
func LoadFS(fsys fs.FS, dir, locale string) (*Catalog, error) {
	locale = normalizeLocale(locale)

	data, err := fs.ReadFile(fsys, path.Join(dir, locale+".yaml"))
	if err != nil {
		if locale == DefaultLocale {
			return nil, fmt.Errorf("failed to read default catalog: %w", err)
		}
		return LoadFS(fsys, dir, DefaultLocale)
	}

	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", locale, err)
	}

	entries := make(map[string]string)
	for ns, keys := range raw {
		for k, v := range keys {
			entries[ns+":"+k] = v
		}
	}

	return &Catalog{locale: locale, entries: entries}, nil
}

// Locale returns the locale actually loaded
func (c *Catalog) Locale() string {
	return c.locale
}

// T returns the translation for key, or the key itself when missing
func (c *Catalog) T(key string) string {
	if v, ok := c.entries[key]; ok {
		return v
	}
	return key
}

// normalizeLocale maps "fr-CH" or "fr_CH" to "fr"
func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	if locale == "" {
		return DefaultLocale
	}
	return locale
}
