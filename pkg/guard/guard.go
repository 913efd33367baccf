// Package guard implements the delegation loop guard: it watches one agent's
// calls to one delegation tool and requests loop termination when the calls
// keep repeating without the downstream agent ever completing.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"coordinator/pkg/proto"
	"coordinator/pkg/session"
	"coordinator/pkg/telemetry"
)

// DefaultMaxConsecutiveCalls is the delegation streak allowed before the
// guard escalates.
const DefaultMaxConsecutiveCalls = 2

// Construction-time validation errors.
var (
	ErrInvalidThreshold = errors.New("max consecutive calls must be positive")
	ErrMissingTool      = errors.New("monitored tool name is required")
	ErrMissingCaller    = errors.New("monitored caller name is required")
	ErrMissingResetter  = errors.New("expected reset agent name is required")
)

// Recorder receives guard metrics. Implemented by pkg/metrics.
type Recorder interface {
	DelegationObserved(tool, caller string, count int)
	EscalationFired(tool, caller string)
}

// Config defines guard behavior. All fields are fixed at construction.
type Config struct {
	// MaxConsecutiveCalls is the number of monitored calls still allowed
	// without a downstream completion. The call after it escalates.
	// 0 means DefaultMaxConsecutiveCalls; negative is a configuration error.
	MaxConsecutiveCalls int

	// MonitoredTool is the delegation tool whose calls are counted.
	MonitoredTool string

	// MonitoredCaller is the agent whose calls to MonitoredTool are counted.
	MonitoredCaller string

	// ExpectedResetAgent is the downstream agent whose completion proves
	// forward progress and resets the counter.
	ExpectedResetAgent string

	// Registry holds the per-session counters. Nil creates a private one;
	// pass a shared registry when tooling needs to inspect counts.
	Registry *session.Registry

	Logger zerolog.Logger

	// Metrics is optional.
	Metrics Recorder

	// Telemetry is optional; failures to append are logged and ignored.
	Telemetry telemetry.Sink

	// OnEscalate, if set, is invoked with the session id and reason when an
	// escalation fires, before the counter resets. The return value of
	// OnToolInvoked remains the primary termination signal; this hook exists
	// for hosts that propagate cancellation out of band.
	OnEscalate func(sessionID, reason string)
}

// Guard is safe for concurrent use across sessions. Events within one
// session must be delivered in the order the host runtime observed them.
type Guard struct {
	cfg      Config
	registry *session.Registry
	logger   zerolog.Logger
}

// New validates the configuration and creates a guard. Configuration errors
// fail here, before any session processing begins.
func New(cfg Config) (*Guard, error) {
	if cfg.MaxConsecutiveCalls == 0 {
		cfg.MaxConsecutiveCalls = DefaultMaxConsecutiveCalls
	}
	if cfg.MaxConsecutiveCalls < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidThreshold, cfg.MaxConsecutiveCalls)
	}
	if cfg.MonitoredTool == "" {
		return nil, ErrMissingTool
	}
	if cfg.MonitoredCaller == "" {
		return nil, ErrMissingCaller
	}
	if cfg.ExpectedResetAgent == "" {
		return nil, ErrMissingResetter
	}

	registry := cfg.Registry
	if registry == nil {
		registry = session.NewRegistry()
	}

	return &Guard{
		cfg:      cfg,
		registry: registry,
		logger:   cfg.Logger.With().Str("component", "guard").Logger(),
	}, nil
}

// OnToolInvoked processes one completed tool call. It returns true, together
// with an annotated copy of the result, when the enclosing loop should be
// terminated; otherwise it returns false and the original result unchanged.
//
// This callback never panics: the guard protects the pipeline and must not
// destabilize it, so any internal failure is logged and treated as a no-op.
func (g *Guard) OnToolInvoked(sessionID, callerAgent, toolName string, result proto.ToolResult) (escalate bool, out proto.ToolResult) {
	out = result
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().
				Str("session_id", sessionID).
				Interface("panic", r).
				Msg("tool invocation hook failed, treating as no-op")
			escalate = false
			out = result
		}
	}()

	if toolName != g.cfg.MonitoredTool || callerAgent != g.cfg.MonitoredCaller {
		return false, result
	}

	count := g.registry.Increment(sessionID)
	if g.cfg.Metrics != nil {
		g.cfg.Metrics.DelegationObserved(toolName, callerAgent, count)
	}

	if count <= g.cfg.MaxConsecutiveCalls {
		g.logger.Info().
			Str("session_id", sessionID).
			Str("tool", toolName).
			Str("caller", callerAgent).
			Int("count", count).
			Int("threshold", g.cfg.MaxConsecutiveCalls).
			Msg("delegation observed")
		g.appendTelemetry(sessionID, callerAgent, telemetry.KindDelegation,
			fmt.Sprintf("%s call %d/%d", toolName, count, g.cfg.MaxConsecutiveCalls))
		return false, result
	}

	reason := fmt.Sprintf("%s called %d times by %s without %s completing; loop terminated.",
		toolName, count, callerAgent, g.cfg.ExpectedResetAgent)

	g.logger.Warn().
		Str("session_id", sessionID).
		Str("tool", toolName).
		Str("caller", callerAgent).
		Int("count", count).
		Int("threshold", g.cfg.MaxConsecutiveCalls).
		Msg("delegation loop detected, escalating")

	if g.cfg.OnEscalate != nil {
		g.cfg.OnEscalate(sessionID, reason)
	}

	// Reset so a retry after escalation starts a clean streak.
	g.registry.Reset(sessionID)

	if g.cfg.Metrics != nil {
		g.cfg.Metrics.EscalationFired(toolName, callerAgent)
	}
	g.appendTelemetry(sessionID, callerAgent, telemetry.KindEscalation, reason)

	annotated := result.Clone()
	annotated.SetPayload(proto.KeyEscalationTriggered, true)
	annotated.SetPayload(proto.KeyEscalationReason, reason)
	return true, annotated
}

// OnAgentCompleted processes one agent completion. Completion of the expected
// downstream agent proves forward progress and resets the session counter.
// Idempotent when the counter is already 0.
func (g *Guard) OnAgentCompleted(sessionID, agentName string) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().
				Str("session_id", sessionID).
				Interface("panic", r).
				Msg("agent completion hook failed, treating as no-op")
		}
	}()

	if agentName != g.cfg.ExpectedResetAgent {
		return
	}

	count := g.registry.GetCount(sessionID)
	if count == 0 {
		return
	}

	g.logger.Info().
		Str("session_id", sessionID).
		Str("agent", agentName).
		Int("count", count).
		Msg("downstream agent completed, resetting delegation counter")
	g.registry.Reset(sessionID)
	g.appendTelemetry(sessionID, agentName, telemetry.KindReset,
		fmt.Sprintf("counter reset from %d", count))
}

// Snapshot returns the current counter for a session. Intended for operator
// tooling and tests; the guard itself only reads counts through the hooks.
func (g *Guard) Snapshot(sessionID string) int {
	return g.registry.GetCount(sessionID)
}

func (g *Guard) appendTelemetry(sessionID, agent, kind, detail string) {
	if g.cfg.Telemetry == nil {
		return
	}
	ev := telemetry.Event{SessionID: sessionID, Agent: agent, Kind: kind, Detail: detail}
	if err := g.cfg.Telemetry.Append(context.Background(), ev); err != nil {
		g.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to append telemetry event")
	}
}
