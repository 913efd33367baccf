// Package sequencer feeds a long-running agent its reference documents one
// per turn: each time the agent is about to run, the next unseen document is
// injected into its working context, and a per-agent cursor advances when
// the turn ends. Once the cursor passes the last document the cycle is
// exhausted and injection stops for the remainder of the process lifetime.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"coordinator/pkg/proto"
	"coordinator/pkg/telemetry"
	"coordinator/pkg/utils"
)

// ErrMissingResolver is returned when no document resolver is configured.
var ErrMissingResolver = errors.New("document resolver is required")

// Recorder receives sequencer metrics. Implemented by pkg/metrics.
type Recorder interface {
	DocumentInjected(agent, document string, tokens int)
	CycleExhausted(agent string)
}

// Config defines sequencer collaborators.
type Config struct {
	// Resolver supplies each agent's ordered document list, resolved once
	// on the agent's first turn.
	Resolver Resolver

	Logger zerolog.Logger

	// Metrics is optional.
	Metrics Recorder

	// Telemetry is optional; failures to append are logged and ignored.
	Telemetry telemetry.Sink
}

type cursor struct {
	index int
	docs  []DocumentRef
}

// Sequencer tracks one cursor per agent role. The host runtime must deliver
// before/after calls for one agent strictly alternating within a session;
// turns of distinct agents may run concurrently.
type Sequencer struct {
	cfg    Config
	logger zerolog.Logger

	mu      sync.Mutex
	cursors map[string]*cursor
}

// New validates the configuration and creates a sequencer.
func New(cfg Config) (*Sequencer, error) {
	if cfg.Resolver == nil {
		return nil, ErrMissingResolver
	}
	return &Sequencer{
		cfg:     cfg,
		logger:  cfg.Logger.With().Str("component", "sequencer").Logger(),
		cursors: make(map[string]*cursor),
	}, nil
}

// BeforeAgentRuns injects the next unseen document into the turn context.
// No-op when the agent's document list is empty or already exhausted, and
// when loading the document fails; the turn always proceeds.
//
// Like the guard's hooks, this never panics out to the host runtime.
func (s *Sequencer) BeforeAgentRuns(agentName string, turn *proto.TurnContext) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("agent", agentName).
				Interface("panic", r).
				Msg("before-agent hook failed, proceeding without injection")
		}
	}()

	cur := s.cursorFor(agentName)

	s.mu.Lock()
	if cur.index >= len(cur.docs) {
		s.mu.Unlock()
		return
	}
	doc := cur.docs[cur.index]
	s.mu.Unlock()

	// Document content loads outside the lock so slow I/O cannot stall
	// unrelated agents.
	content, err := doc.Load()
	if err != nil {
		s.logger.Warn().
			Str("agent", agentName).
			Str("document", doc.Name).
			Err(err).
			Msg("failed to load document, proceeding without injection")
		return
	}

	turn.AppendUserInput(injectionBlock(doc.Name, content))
	turn.InjectedDocument = doc.Name

	tokens := utils.CountTokensSimple(content)
	s.logger.Info().
		Str("agent", agentName).
		Str("document", doc.Name).
		Int("tokens", tokens).
		Msg("injected reference document")

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.DocumentInjected(agentName, doc.Name, tokens)
	}
	s.appendTelemetry(turn.SessionID, agentName, telemetry.KindInjection, doc.Name)
}

// AfterAgentRuns advances the agent's cursor by exactly one. Defensive no-op
// when no cursor exists yet or the cycle is already exhausted; an exhausted
// cursor stays pinned at the end of its list no matter how many times the
// hook fires.
func (s *Sequencer) AfterAgentRuns(agentName string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("agent", agentName).
				Interface("panic", r).
				Msg("after-agent hook failed, treating as no-op")
		}
	}()

	s.mu.Lock()
	cur, ok := s.cursors[agentName]
	if !ok || cur.index >= len(cur.docs) {
		s.mu.Unlock()
		return
	}
	cur.index++
	index, total := cur.index, len(cur.docs)
	var next string
	if index < total {
		next = cur.docs[index].Name
	}
	s.mu.Unlock()

	if index == total {
		s.logger.Info().
			Str("agent", agentName).
			Int("documents", total).
			Msg("all documents processed")
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.CycleExhausted(agentName)
		}
		s.appendTelemetry("", agentName, telemetry.KindExhausted,
			fmt.Sprintf("%d documents processed", total))
		return
	}

	s.logger.Info().
		Str("agent", agentName).
		Str("next", next).
		Int("remaining", total-index).
		Msg("advanced document cursor")
}

// Pending returns the names of the agent's not-yet-injected documents,
// resolving the list if this agent has not run yet. Used by operator tooling.
func (s *Sequencer) Pending(agentName string) []string {
	cur := s.cursorFor(agentName)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur.index >= len(cur.docs) {
		return nil
	}
	names := make([]string, 0, len(cur.docs)-cur.index)
	for _, doc := range cur.docs[cur.index:] {
		names = append(names, doc.Name)
	}
	return names
}

// Reset discards the agent's cursor so its document cycle starts over, with
// the list re-resolved on the next turn. Nothing in the normal pipeline flow
// calls this; it exists for hosts that reuse an agent role's cycle within
// one long-lived process.
func (s *Sequencer) Reset(agentName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, agentName)
}

// cursorFor returns the agent's cursor, resolving its document list on first
// use. Resolution happens outside the lock; a concurrent first turn for the
// same agent keeps whichever cursor lands first.
func (s *Sequencer) cursorFor(agentName string) *cursor {
	s.mu.Lock()
	cur, ok := s.cursors[agentName]
	s.mu.Unlock()
	if ok {
		return cur
	}

	docs := s.resolve(agentName)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cursors[agentName]; ok {
		return existing
	}
	cur = &cursor{docs: docs}
	s.cursors[agentName] = cur

	s.logger.Debug().
		Str("agent", agentName).
		Int("documents", len(docs)).
		Msg("resolved document list")
	return cur
}

// resolve calls the pluggable resolver, absorbing panics into an empty list.
func (s *Sequencer) resolve(agentName string) (docs []DocumentRef) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().
				Str("agent", agentName).
				Interface("panic", r).
				Msg("document resolver failed, treating as empty list")
			docs = nil
		}
	}()
	return s.cfg.Resolver(agentName)
}

func (s *Sequencer) appendTelemetry(sessionID, agent, kind, detail string) {
	if s.cfg.Telemetry == nil {
		return
	}
	ev := telemetry.Event{SessionID: sessionID, Agent: agent, Kind: kind, Detail: detail}
	if err := s.cfg.Telemetry.Append(context.Background(), ev); err != nil {
		s.logger.Warn().Err(err).Str("agent", agent).Msg("failed to append telemetry event")
	}
}

func injectionBlock(name, content string) string {
	return fmt.Sprintf(
		"## Reference document: %s\n\n%s\n\nReview %s carefully. Has everything it describes already been implemented? If anything is missing, implement it now.",
		name, content, name,
	)
}
