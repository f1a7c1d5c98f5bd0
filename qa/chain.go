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


package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/invoicit/ai"
	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/retrieval"
)

// DefaultTemperature keeps answers close to the retrieved records.
const DefaultTemperature = 0.1

// NoResultsReply is returned when retrieval finds nothing to answer from.
const NoResultsReply = "No relevant invoices found."

const systemPromptTemplate = `You are an invoice assistant. Answer the question using only the invoice records below.
If the records do not contain the answer, say you don't know. Do not invent invoices or amounts.
Be concise and mention invoice IDs when they support your answer.

Invoice records:
%s`

// Answer is the result of a question answered from retrieved invoices.
type Answer struct {
	// Text is the model's reply.
	Text string

	// Sources are the retrieved documents the answer was generated from,
	// ranked by relevance.
	Sources []*core.ScoredDocument
}

// RetrievalQA answers questions by stuffing retrieved invoice records into
// the model's context.
type RetrievalQA struct {
	retriever   *retrieval.Retriever
	chat        ai.ChatModel
	maxHits     int
	temperature float64
	logger      *slog.Logger
}

// Option configures a RetrievalQA.
type Option func(*RetrievalQA) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(q *RetrievalQA) error {
		if logger == nil {
			logger = slog.Default()
		}
		q.logger = logger
		return nil
	}
}

// WithMaxHits sets how many documents are retrieved per question.
// Default is retrieval.DefaultMaxHits.
func WithMaxHits(maxHits int) Option {
	return func(q *RetrievalQA) error {
		q.maxHits = maxHits
		return nil
	}
}

// WithTemperature sets the completion temperature.
// Default is DefaultTemperature.
func WithTemperature(temperature float64) Option {
	return func(q *RetrievalQA) error {
		q.temperature = temperature
		return nil
	}
}

// NewRetrievalQA creates a new retrieval-QA chain.
func NewRetrievalQA(retriever *retrieval.Retriever, chat ai.ChatModel, opts ...Option) (*RetrievalQA, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if chat == nil {
		return nil, ErrChatModelRequired
	}

	q := &RetrievalQA{
		retriever:   retriever,
		chat:        chat,
		maxHits:     retrieval.DefaultMaxHits,
		temperature: DefaultTemperature,
		logger:      slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}

	return q, nil
}

// Answer retrieves relevant invoices and answers the question from them.
func (q *RetrievalQA) Answer(ctx context.Context, question string) (*Answer, error) {
	return q.AnswerWithHistory(ctx, question, nil, nil)
}

// AnswerWithHistory answers the question with prior conversation turns as
// context and optional retrieval monitoring.
// History turns are replayed to the model before the question, oldest first.
func (q *RetrievalQA) AnswerWithHistory(ctx context.Context, question string, history []*core.Turn, monitor retrieval.Monitor) (*Answer, error) {
	sources, err := q.retriever.RetrieveWithMonitor(ctx, question, q.maxHits, monitor)
	if err != nil {
		q.logger.Error("retrieval failed", "question", question, "err", err)
		return nil, err
	}

	if len(sources) == 0 {
		q.logger.Debug("no documents retrieved", "question", question)
		return &Answer{Text: NoResultsReply}, nil
	}

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{
		Role:    ai.RoleSystem,
		Content: buildSystemPrompt(sources),
	})
	for _, turn := range history {
		messages = append(messages, ai.Message{
			Role:    roleForSpeaker(turn.Speaker),
			Content: turn.Contents,
		})
	}
	messages = append(messages, ai.Message{
		Role:    ai.RoleUser,
		Content: question,
	})

	text, err := q.chat.Complete(ctx, messages, ai.WithTemperature(q.temperature))
	if err != nil {
		q.logger.Error("completion failed", "question", question, "err", err)
		return nil, err
	}

	q.logger.Debug("answered question",
		"question", question,
		"sources", len(sources),
		"reply_length", len(text))

	return &Answer{Text: text, Sources: sources}, nil
}

// buildSystemPrompt stuffs the retrieved records into the system prompt.
func buildSystemPrompt(sources []*core.ScoredDocument) string {
	var records strings.Builder
	for i, source := range sources {
		if i > 0 {
			records.WriteString("\n\n")
		}
		records.WriteString(source.Document.Contents)
	}
	return fmt.Sprintf(systemPromptTemplate, records.String())
}

// roleForSpeaker maps a conversation speaker to a chat role.
func roleForSpeaker(speaker core.SpeakerType) ai.Role {
	if speaker == core.SpeakerTypeAssistant {
		return ai.RoleAssistant
	}
	return ai.RoleUser
}
