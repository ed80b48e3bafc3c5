package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, 2, cfg.MaxDepth)
	assert.Equal(t, 50, cfg.MaxPages)
	assert.Equal(t, "rules", cfg.Classifier)
	assert.True(t, cfg.Scope.DefaultExcludes)
	assert.False(t, cfg.Checks.Ports)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }},
		{"zero pages", func(c *Config) { c.MaxPages = 0 }},
		{"zero request timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"negative scan timeout", func(c *Config) { c.ScanTimeout = -time.Second }},
		{"negative rate", func(c *Config) { c.RateLimit.RequestsPerSecond = -1 }},
		{"unknown classifier", func(c *Config) { c.Classifier = "svm" }},
		{"negative threshold", func(c *Config) { c.Probe.DifferentialThreshold = -1 }},
		{"confidence above one", func(c *Config) { c.Probe.ClassifierMinConfidence = 1.5 }},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }},
		{"missing signatures dir", func(c *Config) { c.SignaturesDir = "/nonexistent/dir" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_SignaturesDirMustBeDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "table.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0644))

	cfg := DefaultConfig()
	cfg.SignaturesDir = file
	assert.Error(t, cfg.Validate())

	cfg.SignaturesDir = filepath.Dir(file)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.yaml")
	data := `
workers: 3
max_depth: 1
request_timeout: 4s
classifier: bayes
rate_limit:
  requests_per_second: 2
probe:
  differential_threshold: 250
checks:
  ports: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 1, cfg.MaxDepth)
	assert.Equal(t, 4*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "bayes", cfg.Classifier)
	assert.Equal(t, 2.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 250, cfg.Probe.DifferentialThreshold)
	assert.True(t, cfg.Checks.Ports)

	// unset fields keep their defaults
	assert.Equal(t, 50, cfg.MaxPages)
	assert.True(t, cfg.Checks.Headers)
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"workers": 7, "max_pages": 10}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, 10, cfg.MaxPages)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [\n"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestConfig_SaveAndLoad(t *testing.T) {
	for _, name := range []string{"scan.yaml", "scan.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := DefaultConfig()
			cfg.Workers = 9
			cfg.CustomHeaders = map[string]string{"X-Scan": "1"}

			require.NoError(t, cfg.SaveToFile(path))
			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, 9, loaded.Workers)
			assert.Equal(t, "1", loaded.CustomHeaders["X-Scan"])
			assert.Equal(t, cfg.RequestTimeout, loaded.RequestTimeout)
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CustomHeaders = map[string]string{"A": "1"}
	cfg.Scope.ExcludePatterns = []string{"/logout"}

	clone := cfg.Clone()
	clone.CustomHeaders["A"] = "2"
	clone.Scope.ExcludePatterns[0] = "/admin"
	clone.Workers = 1

	assert.Equal(t, "1", cfg.CustomHeaders["A"])
	assert.Equal(t, "/logout", cfg.Scope.ExcludePatterns[0])
	assert.Equal(t, 5, cfg.Workers)
}

func TestOptions(t *testing.T) {
	s, err := New(
		WithWorkers(0),
		WithMaxDepth(-3),
		WithMaxPages(0),
		WithTimeout(3*time.Second),
		WithScanTimeout(time.Minute),
		WithRateLimit(0, 0),
		WithUserAgent("agent/1"),
		WithDifferentialThreshold(80),
		WithPortScan(true),
		WithDirectoryEnumeration(false),
	)
	require.NoError(t, err)

	cfg := s.Config()
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 1, cfg.Probe.Workers)
	assert.Equal(t, 0, cfg.MaxDepth)
	assert.Equal(t, 1, cfg.MaxPages)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.ScanTimeout)
	assert.Equal(t, 0.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "agent/1", cfg.UserAgent)
	assert.Equal(t, 80, cfg.Probe.DifferentialThreshold)
	assert.True(t, cfg.Checks.Ports)
	assert.False(t, cfg.Checks.Directories)
}
