package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// traceEventSchema is the wire contract for one trace line. Validation runs
// before replay so a malformed trace fails as a whole instead of halfway
// through mutating guard state.
const traceEventSchema = `{
	"type": "object",
	"required": ["kind"],
	"additionalProperties": false,
	"properties": {
		"id": {"type": "string"},
		"kind": {
			"type": "string",
			"enum": ["TOOL_INVOKED", "AGENT_COMPLETED", "BEFORE_AGENT", "AFTER_AGENT"]
		},
		"session_id": {"type": "string"},
		"agent": {"type": "string"},
		"tool": {"type": "string"},
		"timestamp": {"type": "string", "format": "date-time"},
		"result": {"type": "object"}
	}
}`

func validateTraceFile(path string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(traceEventSchema))
	if err != nil {
		return fmt.Errorf("failed to compile trace schema: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		result, err := schema.Validate(gojsonschema.NewStringLoader(text))
		if err != nil {
			return fmt.Errorf("trace line %d is not valid JSON: %w", line, err)
		}
		if !result.Valid() {
			var reasons []string
			for _, desc := range result.Errors() {
				reasons = append(reasons, desc.String())
			}
			return fmt.Errorf("trace line %d failed validation: %s", line, strings.Join(reasons, "; "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read trace file: %w", err)
	}

	return nil
}
