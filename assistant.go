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


package invoicit

import (
	"log/slog"

	"github.com/poiesic/invoicit/agent"
	"github.com/poiesic/invoicit/ai"
	"github.com/poiesic/invoicit/ai/openai"
	"github.com/poiesic/invoicit/ingest"
	"github.com/poiesic/invoicit/qa"
	"github.com/poiesic/invoicit/retrieval"
	"github.com/poiesic/invoicit/storage"
	"github.com/poiesic/invoicit/storage/badger"
)

// Assistant owns one invoice database and the AI services over it. It wires
// the repositories and hands out the pipeline, retriever, QA chain, and
// conversational agent that operate on them.
type Assistant struct {
	backend        *badger.Backend
	documents      storage.DocumentRepository
	conversations  storage.ConversationRepository
	packRepository storage.PackRepository
	checkpoints    storage.CheckpointRepository
	provider       ai.AIProvider
	logger         *slog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*assistantOptions)

type assistantOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
}

// WithAIConfig selects the AI service configuration. Defaults to
// ai.DefaultConfig if not provided.
func WithAIConfig(config *ai.Config) AssistantOption {
	return func(o *assistantOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider supplies a ready AI provider instead of building one from
// the configuration. Used by tests to inject mocks.
func WithProvider(provider ai.AIProvider) AssistantOption {
	return func(o *assistantOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the database in memory, discarding all data on close.
func WithInMemory() AssistantOption {
	return func(o *assistantOptions) {
		o.inMemory = true
	}
}

// NewAssistant opens the database at filePath and wires all components.
func NewAssistant(filePath string, opts ...AssistantOption) (*Assistant, error) {
	options := &assistantOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	conversations, err := badger.NewConversationRepository(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	packRepository, err := badger.NewPackRepository(backend)
	if err != nil {
		conversations.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	checkpoints := badger.NewCheckpointRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			packRepository.Close()
			conversations.Close()
			documents.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Assistant{
		backend:        backend,
		documents:      documents,
		conversations:  conversations,
		packRepository: packRepository,
		checkpoints:    checkpoints,
		provider:       provider,
		logger:         slog.Default(),
	}, nil
}

func (a *Assistant) Close() error {
	// Close AI provider first
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := a.packRepository.Close(); err != nil {
		a.logger.Error("error closing pack repository", "err", err)
		return err
	}
	if err := a.conversations.Close(); err != nil {
		a.logger.Error("error closing conversation repository", "err", err)
		return err
	}
	if err := a.documents.Close(); err != nil {
		a.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close backend
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (a *Assistant) DocumentRepository() storage.DocumentRepository {
	return a.documents
}

func (a *Assistant) ConversationRepository() storage.ConversationRepository {
	return a.conversations
}

func (a *Assistant) PackRepository() storage.PackRepository {
	return a.packRepository
}

func (a *Assistant) CheckpointRepository() storage.CheckpointRepository {
	return a.checkpoints
}

func (a *Assistant) Provider() ai.AIProvider {
	return a.provider
}

func (a *Assistant) NewIngestionPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(a.documents, a.checkpoints, a.provider, opts...)
}

func (a *Assistant) NewRetriever(opts ...retrieval.Option) (*retrieval.Retriever, error) {
	return retrieval.NewRetriever(a.documents, a.provider, opts...)
}

// NewRetrievalQA builds the question answering chain over a fresh retriever.
func (a *Assistant) NewRetrievalQA(opts ...qa.Option) (*qa.RetrievalQA, error) {
	retriever, err := a.NewRetriever()
	if err != nil {
		return nil, err
	}
	return qa.NewRetrievalQA(retriever, a.provider.ChatModel(), opts...)
}

// NewAgent builds the conversational agent over a fresh QA chain.
func (a *Assistant) NewAgent(opts ...agent.Option) (*agent.Agent, error) {
	chain, err := a.NewRetrievalQA()
	if err != nil {
		return nil, err
	}
	return agent.New(a.conversations, chain, a.provider.ChatModel(), opts...)
}
