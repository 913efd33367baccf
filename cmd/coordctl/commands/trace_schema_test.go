package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrace(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateTraceFileAcceptsValidTrace(t *testing.T) {
	path := writeTrace(t, `{"kind":"TOOL_INVOKED","session_id":"run-1","agent":"planner","tool":"dispatch_worker"}
{"kind":"AGENT_COMPLETED","session_id":"run-1","agent":"builder"}

{"kind":"BEFORE_AGENT","agent":"builder"}
{"kind":"AFTER_AGENT","agent":"builder"}
`)

	assert.NoError(t, validateTraceFile(path))
}

func TestValidateTraceFileAcceptsStampedEvents(t *testing.T) {
	// Lines recorded by the coordinator itself carry an id and timestamp.
	path := writeTrace(t, `{"id":"ev-1","kind":"TOOL_INVOKED","session_id":"run-1","agent":"planner","tool":"dispatch_worker","timestamp":"2026-08-30T12:00:00Z"}
{"id":"ev-2","kind":"AGENT_COMPLETED","session_id":"run-1","agent":"builder","timestamp":"2026-08-30T12:00:05Z","result":{"status":"ok"}}
`)

	assert.NoError(t, validateTraceFile(path))
}

func TestValidateTraceFileRejectsUnknownKind(t *testing.T) {
	path := writeTrace(t, `{"kind":"HEARTBEAT"}`)
	err := validateTraceFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trace line 1")
}

func TestValidateTraceFileRejectsMissingKind(t *testing.T) {
	path := writeTrace(t, `{"agent":"planner"}`)
	assert.Error(t, validateTraceFile(path))
}

func TestValidateTraceFileRejectsUnknownField(t *testing.T) {
	path := writeTrace(t, `{"kind":"TOOL_INVOKED","channel":"slack"}`)
	assert.Error(t, validateTraceFile(path))
}

func TestValidateTraceFileRejectsMalformedJSON(t *testing.T) {
	path := writeTrace(t, `{"kind":`)
	assert.Error(t, validateTraceFile(path))
}
