package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1.0, cfg.Prune.Tolerance)
	assert.Equal(t, 50.0, cfg.Outcome.ReviewThreshold)
	assert.Equal(t, "CLEAN", cfg.Cleaner.OutputDirName)
	assert.Equal(t, 3, cfg.Cleaner.OpenAttempts)
	assert.Equal(t, "5s", cfg.Cleaner.RetryDelay().String())
	assert.True(t, cfg.Report.CSV)
	assert.True(t, cfg.Report.HTML)
	assert.True(t, cfg.Report.Thumbnails)
	assert.NotEmpty(t, cfg.History.Path)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Cleaner, cfg.Cleaner)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "CLEAN", cfg.Cleaner.OutputDirName)
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "cfg.yaml", `
outcome:
  review_threshold: 70
cleaner:
  output_dir_name: CLEANED
  extensions: [".json", ".dxf.json"]
detection:
  parallel: true
`},
		{"toml", "cfg.toml", `
[outcome]
review_threshold = 70.0

[cleaner]
output_dir_name = "CLEANED"
extensions = [".json", ".dxf.json"]

[detection]
parallel = true
`},
		{"json", "cfg.json", `{
  "outcome": {"review_threshold": 70},
  "cleaner": {"output_dir_name": "CLEANED", "extensions": [".json", ".dxf.json"]},
  "detection": {"parallel": true}
}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, 70.0, cfg.Outcome.ReviewThreshold)
			assert.Equal(t, "CLEANED", cfg.Cleaner.OutputDirName)
			assert.Equal(t, []string{".json", ".dxf.json"}, cfg.Cleaner.Extensions)
			assert.True(t, cfg.Detection.Parallel)
			// Untouched sections keep their defaults.
			assert.Equal(t, 3, cfg.Cleaner.OpenAttempts)
			assert.Equal(t, 1.0, cfg.Prune.Tolerance)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("outcome: [not, a, map"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	unknown := filepath.Join(dir, "cfg.ini")
	require.NoError(t, os.WriteFile(unknown, []byte("x=1"), 0o644))
	_, err = Load(unknown)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("outcome:\n  review_threshold: 150\n"), 0o644))
	_, err = Load(invalid)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "outcome.review_threshold", verrs[0].Field)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("FRAME_CLEANER_LOG_LEVEL", "debug")
	t.Setenv("FRAME_CLEANER_HTTP_ADDR", ":9999")
	t.Setenv("FRAME_CLEANER_REVIEW_THRESHOLD", "35.5")
	t.Setenv("FRAME_CLEANER_OPEN_ATTEMPTS", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, 35.5, cfg.Outcome.ReviewThreshold)
	assert.Equal(t, 3, cfg.Cleaner.OpenAttempts)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Prune.Tolerance = -1
	cfg.Cleaner.OutputDirName = "a/b"
	cfg.Cleaner.Extensions = []string{"json"}
	cfg.Cleaner.OpenAttempts = 0
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{
		"prune.tolerance",
		"cleaner.output_dir_name",
		"cleaner.extensions",
		"cleaner.open_attempts",
		"log.level",
	}, fields)
}

func TestSave_RoundTrip(t *testing.T) {
	for _, ext := range []string{".yaml", ".toml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			cfg := Default()
			cfg.Cleaner.OutputDirName = "OUT"
			cfg.Watch.DebounceMs = 250

			path := filepath.Join(t.TempDir(), "nested", "cfg"+ext)
			require.NoError(t, Save(cfg, path))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, "OUT", got.Cleaner.OutputDirName)
			assert.Equal(t, 250, got.Watch.DebounceMs)
		})
	}
}
