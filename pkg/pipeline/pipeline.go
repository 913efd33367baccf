// Package pipeline composes the delegation loop guard and the context
// sequencer around the host runtime's lifecycle hooks. The two components
// never call each other; the coordinator holds them side by side and exposes
// one hook per lifecycle point.
package pipeline

import (
	"github.com/rs/zerolog"

	"coordinator/pkg/guard"
	"coordinator/pkg/proto"
	"coordinator/pkg/sequencer"
)

// Coordinator is the host-runtime-facing seam. All hooks are synchronous and
// never panic; they complete in bounded time barring document I/O.
type Coordinator struct {
	guard     *guard.Guard
	sequencer *sequencer.Sequencer
	logger    zerolog.Logger
}

// New wires a coordinator from already-constructed components.
func New(g *guard.Guard, s *sequencer.Sequencer, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		guard:     g,
		sequencer: s,
		logger:    logger.With().Str("component", "coordinator").Logger(),
	}
}

// OnToolInvoked forwards a completed tool call to the guard.
func (c *Coordinator) OnToolInvoked(sessionID, callerAgent, toolName string, result proto.ToolResult) (bool, proto.ToolResult) {
	return c.guard.OnToolInvoked(sessionID, callerAgent, toolName, result)
}

// OnAgentCompleted forwards an agent completion to the guard.
func (c *Coordinator) OnAgentCompleted(sessionID, agentName string) {
	c.guard.OnAgentCompleted(sessionID, agentName)
}

// BeforeAgentRuns forwards a turn start to the sequencer.
func (c *Coordinator) BeforeAgentRuns(agentName string, turn *proto.TurnContext) {
	c.sequencer.BeforeAgentRuns(agentName, turn)
}

// AfterAgentRuns forwards a turn end to the sequencer.
func (c *Coordinator) AfterAgentRuns(agentName string) {
	c.sequencer.AfterAgentRuns(agentName)
}

// Guard exposes the underlying guard to operator tooling.
func (c *Coordinator) Guard() *guard.Guard { return c.guard }

// Sequencer exposes the underlying sequencer to operator tooling.
func (c *Coordinator) Sequencer() *sequencer.Sequencer { return c.sequencer }
