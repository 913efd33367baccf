package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"coordinator/pkg/proto"
)

// TraceEvent is one line of a recorded event trace (JSONL): the lifecycle
// event as the host runtime observed it, plus the tool result payload for
// TOOL_INVOKED lines. Traces come from the host runtime's event log and
// drive offline replay of the coordination components.
type TraceEvent struct {
	proto.Event
	Result proto.ToolResult `json:"result,omitempty"`
}

// LoadTrace reads a JSONL trace file. Blank lines are skipped. Events without
// a session id share one generated id, so a bare trace replays as a single
// pipeline run. Lines recorded without an event id (hand-written fixtures,
// older traces) get a fresh identity.
func LoadTrace(path string) ([]TraceEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = file.Close() }()

	defaultSession := uuid.NewString()

	var events []TraceEvent
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var ev TraceEvent
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			return nil, fmt.Errorf("failed to parse trace line %d: %w", line, err)
		}
		if ev.SessionID == "" {
			ev.SessionID = defaultSession
		}
		if ev.ID == "" {
			identity := proto.NewEvent(ev.Kind, ev.SessionID, ev.Agent)
			identity.Tool = ev.Tool
			if !ev.Timestamp.IsZero() {
				identity.Timestamp = ev.Timestamp
			}
			ev.Event = identity
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}

	return events, nil
}

// ReplaySummary aggregates one replay run.
type ReplaySummary struct {
	Events      int
	Escalations int
	Injections  int

	// FinalCounts holds the guard counter per session at end of replay.
	FinalCounts map[string]int
}

// Replay drives the coordinator with a recorded trace and summarizes what
// the components decided.
func (c *Coordinator) Replay(events []TraceEvent) ReplaySummary {
	summary := ReplaySummary{FinalCounts: make(map[string]int)}
	sessions := make(map[string]struct{})

	for _, ev := range events {
		summary.Events++
		sessions[ev.SessionID] = struct{}{}

		switch ev.Kind {
		case proto.EventToolInvoked:
			escalated, _ := c.OnToolInvoked(ev.SessionID, ev.Agent, ev.Tool, ev.Result)
			if escalated {
				summary.Escalations++
			}
		case proto.EventAgentCompleted:
			c.OnAgentCompleted(ev.SessionID, ev.Agent)
		case proto.EventBeforeAgent:
			turn := &proto.TurnContext{SessionID: ev.SessionID, Agent: ev.Agent}
			c.BeforeAgentRuns(ev.Agent, turn)
			if turn.InjectedDocument != "" {
				summary.Injections++
			}
		case proto.EventAfterAgent:
			c.AfterAgentRuns(ev.Agent)
		default:
			c.logger.Warn().Str("kind", string(ev.Kind)).Msg("skipping unknown trace event kind")
		}
	}

	for id := range sessions {
		summary.FinalCounts[id] = c.guard.Snapshot(id)
	}
	return summary
}

// SessionIDs returns the summary's session ids in stable order.
func (s ReplaySummary) SessionIDs() []string {
	ids := make([]string, 0, len(s.FinalCounts))
	for id := range s.FinalCounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
