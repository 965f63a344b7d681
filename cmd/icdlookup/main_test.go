package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/icdlookup/internal/cli"
	"github.com/hyperjump/icdlookup/internal/config"
	"github.com/hyperjump/icdlookup/internal/models"
)

// writeTestConfig writes a config serving the built-in sample with a code
// store inside dir, and returns its path.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(dir, "codes.db")
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Save(path, cfg))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestJoinArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"pneumonia"}, "pneumonia"},
		{"multiple words", []string{"type", "2", "diabetes"}, "type 2 diabetes"},
		{"single quoted phrase", []string{"chest pain"}, "chest pain"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinArgs(tt.args); got != tt.expected {
				t.Errorf("joinArgs(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestSplitCodes(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"separate args", []string{"I10", "E11.9"}, []string{"I10", "E11.9"}},
		{"comma separated", []string{"I10,E11.9, J18.9"}, []string{"I10", "E11.9", "J18.9"}},
		{"repeats dropped", []string{"I10", "I10,E11.9"}, []string{"I10", "E11.9"}},
		{"only separators", []string{",, ,"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitCodes(tt.args))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		dir := t.TempDir()
		path := writeTestConfig(t, dir)
		cfg, resolved, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, path, resolved)
		assert.Equal(t, filepath.Join(dir, "codes.db"), cfg.Storage.DatabasePath)
	})

	t.Run("local config.yaml wins over default path", func(t *testing.T) {
		dir := t.TempDir()
		writeTestConfig(t, dir)
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { _ = os.Chdir(wd) })
		_, resolved, err := loadConfig(defaultConfigPath)
		require.NoError(t, err)
		assert.Equal(t, "config.yaml", filepath.Base(resolved))
		assert.NotEqual(t, defaultConfigPath, resolved)
	})

	t.Run("missing explicit path fails", func(t *testing.T) {
		_, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestInitializeComponents_Sample(t *testing.T) {
	cfg := config.Default()
	c, err := initializeComponents(cfg, nil)
	require.NoError(t, err)
	defer c.Close()

	entry, err := c.Engine.Lookup(context.Background(), "i10")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "I10", entry.Code)
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "icdlookup version dev\n", out)
}

func TestLookupCmd(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())

	out, err := runCmd(t, "--config", cfgPath, "lookup", "I10")
	require.NoError(t, err)
	assert.Contains(t, out, "I10: Essential (primary) hypertension")

	out, err = runCmd(t, "--config", cfgPath, "lookup", "X99.9")
	require.NoError(t, err)
	assert.Equal(t, "X99.9: not found\n", out)
}

func TestSearchCmd(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())

	out, err := runCmd(t, "--config", cfgPath, "-o", "json", "search", "type", "2", "diabetes")
	require.NoError(t, err)
	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "type 2 diabetes", resp.Query)
	for _, r := range resp.Results {
		assert.True(t, strings.HasPrefix(r.Code, "E1"), "unexpected code %s", r.Code)
	}

	out, err = runCmd(t, "--config", cfgPath, "-o", "compact", "search", "--limit", "1", "hypertension")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestSearchCmd_BadOutputFormat(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())
	_, err := runCmd(t, "--config", cfgPath, "-o", "xml", "search", "asthma")
	assert.Error(t, err)
}

func TestSearchCmd_ViaServer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/search", r.URL.Path)
		var q models.SearchQuery
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		_ = json.NewEncoder(w).Encode(&models.SearchResponse{
			Query:   q.Query,
			Total:   1,
			Results: []*models.SearchResult{{Code: "R05", Description: "Cough", MatchType: models.MatchKeyword, Score: 3}},
		})
	}))
	defer ts.Close()

	out, err := runCmd(t, "-o", "compact", "search", "--server", ts.URL, "cough")
	require.NoError(t, err)
	assert.Equal(t, "R05\tCough\n", out)
}

func TestValidateCmd(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())
	out, err := runCmd(t, "--config", cfgPath, "-o", "compact", "validate", "I10,X99.9")
	require.NoError(t, err)
	assert.Equal(t, "I10\tvalid\tI10\nX99.9\tinvalid\t\n", out)
}

func TestVerifyCmd_CorrectsUnknownCode(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())
	out, err := runCmd(t, "--config", cfgPath, "-o", "json", "verify", "I10.9",
		"--description", "essential hypertension", "--confidence", "0.95")
	require.NoError(t, err)

	var v models.Verification
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.False(t, v.Valid)
	assert.True(t, v.Corrected)
	require.NotNil(t, v.Entry)
	assert.Equal(t, "I10", v.Entry.Code)
	assert.InDelta(t, config.DefaultCorrectionConfidenceCap, v.Confidence, 1e-9)
}

func TestContextCmd(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())
	out, err := runCmd(t, "--config", cfgPath, "context", "asthma")
	require.NoError(t, err)
	assert.Contains(t, out, "J45.909")
}

func TestExportCmd(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir())
	out, err := runCmd(t, "--config", cfgPath, "-o", "json", "export")
	require.NoError(t, err)
	var entries []models.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotEmpty(t, entries)
	assert.Equal(t, "A09", entries[0].Code)
}

func TestImportAndStatsCmd(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)
	csvPath := filepath.Join(dir, "codes.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"code,description\n"+
			"I10,Essential (primary) hypertension\n"+
			"I10,Duplicate row\n"+
			",Missing code\n"+
			"R05,Cough\n"), 0644))

	out, err := runCmd(t, "--config", cfgPath, "import", csvPath, "--use")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 codes")
	assert.Contains(t, out, "(2 skipped")

	out, err = runCmd(t, "--config", cfgPath, "-o", "json", "stats")
	require.NoError(t, err)
	var report cli.StatsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, filepath.Join(dir, "codes.db"), report.Source)
	assert.Equal(t, 2, report.Stats.TotalCodes)
	assert.Equal(t, int64(2), report.StoredCodes)
	require.Len(t, report.Imports, 1)
	assert.Equal(t, 2, report.Imports[0].RecordCount)
	assert.Equal(t, 2, report.Imports[0].Skipped)

	out, err = runCmd(t, "--config", cfgPath, "lookup", "R05")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "R05: Cough\n"), "lookup output: %q", out)
}

func TestImportCmd_NoValidCodes(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)
	csvPath := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("code,description\n,nothing\n"), 0644))

	_, err := runCmd(t, "--config", cfgPath, "import", csvPath)
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "codes.db"))
	assert.True(t, os.IsNotExist(statErr))
}
