package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coordinator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
guard:
  max_consecutive_calls: 3
  monitored_tool: dispatch_worker
  monitored_caller: planner
  expected_reset_agent: builder
sequencer:
  docs_root: ./docs
telemetry:
  db_path: ./telemetry.db
logging:
  level: debug
  pretty: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Guard.MaxConsecutiveCalls)
	assert.Equal(t, "dispatch_worker", cfg.Guard.MonitoredTool)
	assert.Equal(t, "planner", cfg.Guard.MonitoredCaller)
	assert.Equal(t, "builder", cfg.Guard.ExpectedResetAgent)
	assert.Equal(t, "./docs", cfg.Sequencer.DocsRoot)
	assert.Equal(t, "./telemetry.db", cfg.Telemetry.DBPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Pretty)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
guard:
  monitored_tool: dispatch_worker
  monitored_caller: planner
  expected_reset_agent: builder
sequencer:
  docs_root: ./docs
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Guard.MaxConsecutiveCalls)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Telemetry.DBPath)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "non-positive threshold",
			content: `
guard:
  max_consecutive_calls: -1
  monitored_tool: dispatch_worker
  monitored_caller: planner
  expected_reset_agent: builder
sequencer:
  docs_root: ./docs
`,
			wantErr: ErrInvalidThreshold,
		},
		{
			name: "missing tool",
			content: `
guard:
  monitored_caller: planner
  expected_reset_agent: builder
sequencer:
  docs_root: ./docs
`,
			wantErr: ErrMissingTool,
		},
		{
			name: "missing caller",
			content: `
guard:
  monitored_tool: dispatch_worker
  expected_reset_agent: builder
sequencer:
  docs_root: ./docs
`,
			wantErr: ErrMissingCaller,
		},
		{
			name: "missing reset agent",
			content: `
guard:
  monitored_tool: dispatch_worker
  monitored_caller: planner
sequencer:
  docs_root: ./docs
`,
			wantErr: ErrMissingResetter,
		},
		{
			name: "missing docs root",
			content: `
guard:
  monitored_tool: dispatch_worker
  monitored_caller: planner
  expected_reset_agent: builder
`,
			wantErr: ErrMissingDocsRoot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
guard:
  monitored_tool: dispatch_worker
  monitored_caller: planner
  expected_reset_agent: builder
  monitored_tools: [a, b]
sequencer:
  docs_root: ./docs
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
