// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package agent

import (
	"context"
	"log/slog"

	"github.com/poiesic/invoicit/ai"
	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/qa"
	"github.com/poiesic/invoicit/storage"
)

// DefaultMemoryTurns is how many recent turns are replayed to the model
// when no explicit window is configured.
const DefaultMemoryTurns = 10

// Reply is the assistant's response to one user message.
type Reply struct {
	Text    string
	Sources []*core.ScoredDocument
}

// Agent is the conversational invoice assistant. It persists the dialogue,
// routes each message through a planning step, and answers invoice questions
// with the retrieval QA chain.
type Agent struct {
	conversationRepository storage.ConversationRepository
	chain                  *qa.RetrievalQA
	planner                *planner
	memoryTurns            int
	planning               bool
	trace                  *Trace
	logger                 *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets a custom logger. If nil, the default logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMemoryTurns sets how many recent turns the agent replays as context.
// Values below 1 keep the default.
func WithMemoryTurns(turns int) Option {
	return func(a *Agent) {
		if turns >= 1 {
			a.memoryTurns = turns
		}
	}
}

// WithTraceCapacity bounds the number of trace events kept per exchange.
func WithTraceCapacity(capacity int) Option {
	return func(a *Agent) {
		a.trace = NewTrace(capacity)
	}
}

// WithoutPlanning disables the planning step. Every message goes straight
// to retrieval QA. Useful for weak models that cannot produce reliable JSON.
func WithoutPlanning() Option {
	return func(a *Agent) {
		a.planning = false
	}
}

// New creates an agent over the given conversation store, QA chain, and
// chat model. The chat model drives the planning step.
func New(conversationRepository storage.ConversationRepository, chain *qa.RetrievalQA, chat ai.ChatModel, opts ...Option) (*Agent, error) {
	if conversationRepository == nil {
		return nil, ErrConversationRepositoryRequired
	}
	if chain == nil {
		return nil, ErrChainRequired
	}
	if chat == nil {
		return nil, ErrChatModelRequired
	}

	agent := &Agent{
		conversationRepository: conversationRepository,
		chain:                  chain,
		memoryTurns:            DefaultMemoryTurns,
		planning:               true,
		trace:                  NewTrace(DefaultTraceCapacity),
		logger:                 slog.Default().With("component", "agent"),
	}

	for _, opt := range opts {
		opt(agent)
	}

	agent.planner = &planner{
		chat:   chat,
		logger: agent.logger,
	}

	return agent, nil
}

// Chat handles one user message: it records the turn, decides whether to
// search, answers, and records the assistant's reply.
func (a *Agent) Chat(ctx context.Context, message string) (*Reply, error) {
	a.trace.Begin()
	a.trace.Add("chat.start", message)

	// Load the context window before recording the new message so the
	// history does not include the message itself.
	history, err := a.recentHistory(ctx)
	if err != nil {
		a.logger.Error("error loading conversation history", "err", err)
		return nil, err
	}

	if _, err := a.conversationRepository.AppendTurns(ctx, &core.Turn{
		Speaker:  core.SpeakerTypeHuman,
		Contents: message,
	}); err != nil {
		a.logger.Error("error recording user turn", "err", err)
		return nil, err
	}

	reply, err := a.respond(ctx, message, history)
	if err != nil {
		return nil, err
	}

	if _, err := a.conversationRepository.AppendTurns(ctx, &core.Turn{
		Speaker:  core.SpeakerTypeAssistant,
		Contents: reply.Text,
	}); err != nil {
		a.logger.Error("error recording assistant turn", "err", err)
		return nil, err
	}

	a.trace.Add("chat.finish", reply.Text)
	return reply, nil
}

func (a *Agent) respond(ctx context.Context, message string, history []*core.Turn) (*Reply, error) {
	if !a.planning {
		return a.search(ctx, message, history)
	}

	plan, err := a.planner.Plan(ctx, message, history)
	if err != nil {
		// Planning is best effort: fall back to searching with the raw
		// message rather than failing the whole exchange.
		a.logger.Warn("planning failed, falling back to search", "err", err)
		a.trace.Add("plan.fallback", message)
		return a.search(ctx, message, history)
	}

	if plan.Action == ActionAnswer {
		a.trace.Add("plan.answer", plan.Answer)
		return &Reply{Text: plan.Answer}, nil
	}

	a.trace.Add("plan.search", plan.Query)
	return a.search(ctx, plan.Query, history)
}

func (a *Agent) search(ctx context.Context, query string, history []*core.Turn) (*Reply, error) {
	answer, err := a.chain.AnswerWithHistory(ctx, query, history, &traceMonitor{trace: a.trace})
	if err != nil {
		a.logger.Error("error answering question", "query", query, "err", err)
		return nil, err
	}
	return &Reply{
		Text:    answer.Text,
		Sources: answer.Sources,
	}, nil
}

// recentHistory loads the memory window in chronological order.
func (a *Agent) recentHistory(ctx context.Context) ([]*core.Turn, error) {
	turns, err := a.conversationRepository.GetRecentTurns(ctx, a.memoryTurns)
	if err != nil {
		return nil, err
	}
	// GetRecentTurns returns newest first; the model wants oldest first
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// History returns the most recent turns, newest first.
func (a *Agent) History(ctx context.Context, limit int) ([]*core.Turn, error) {
	return a.conversationRepository.GetRecentTurns(ctx, limit)
}

// ClearMemory deletes the entire conversation history.
func (a *Agent) ClearMemory(ctx context.Context) error {
	return a.conversationRepository.ClearTurns(ctx)
}

// Trace returns the events recorded during the last exchange.
func (a *Agent) Trace() []TraceEvent {
	return a.trace.Snapshot()
}
