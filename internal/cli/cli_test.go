package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	body := fmt.Sprintf(`
database:
  path: %[1]s/tietracker.db
logger:
  level: error
  output_path: %[1]s/logs/tiexport.log
export:
  native_dir: %[1]s/exports
  download_dir: %[1]s/downloads
  sandbox:
    documents: %[1]s/sandbox
`, dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path, dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestExportCommand(t *testing.T) {
	cfgPath, dir := writeTestConfig(t)

	clientID, err := run(t, "client", "add", "--config", cfgPath, "--name", "Acme", "--color", "#ff6600")
	require.NoError(t, err)
	require.NotEmpty(t, clientID)

	projectID, err := run(t, "project", "add", "-c", cfgPath, "--client", clientID, "--name", "Website", "--rate", "120", "--vat")
	require.NoError(t, err)
	require.NotEmpty(t, projectID)

	_, err = run(t, "task", "add", "-c", cfgPath, "--project", projectID,
		"--description", "Design", "--from", "2024-03-01T09:00", "--to", "2024-03-01T11:30", "--billable")
	require.NoError(t, err)

	out, err := run(t, "export", "-c", cfgPath, "-p", projectID, "--from", "2024-03-01", "--to", "2024-03-02", "--billable", "--vat", "7.7")
	require.NoError(t, err)
	assert.Contains(t, out, "download\tAcme-2024-03-01-2024-03-02.xlsx\t2 days")
	assert.FileExists(t, filepath.Join(dir, "downloads", "Acme-2024-03-01-2024-03-02.xlsx"))

	_, err = run(t, "export", "-c", cfgPath, "-s", "native", "-p", projectID, "--from", "2024-03-01", "--to", "2024-03-01")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "exports", "Acme-2024-03-01-2024-03-01.xlsx"))

	_, err = run(t, "export", "-c", cfgPath, "-s", "mobile", "-p", projectID, "--from", "2024-03-01", "--to", "2024-03-01")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "sandbox", "tietracker", "Acme-2024-03-01-2024-03-01.xlsx"))
}

func TestExportCommand_Errors(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"missing project flag", []string{"export", "-c", cfgPath}, "project"},
		{"bad strategy", []string{"export", "-c", cfgPath, "-p", "x", "-s", "fax"}, "invalid strategy"},
		{"bad currency", []string{"export", "-c", cfgPath, "-p", "x", "--currency", "eur"}, "invalid currency code"},
		{"bad vat", []string{"export", "-c", cfgPath, "-p", "x", "--vat", "120"}, "vat rate"},
		{"unknown project", []string{"export", "-c", cfgPath, "-p", "missing", "--from", "2024-03-01"}, "record not found"},
		{"bad day", []string{"export", "-c", cfgPath, "-p", "missing", "--from", "1.3.2024"}, "invalid day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestTaskAdd_RejectsInvertedTimes(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)

	_, err := run(t, "task", "add", "-c", cfgPath, "--project", "p", "--from", "2024-03-01T11:00", "--to", "2024-03-01T09:00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--to must not be before --from")
}
