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


// Package web serves the chat interface: an embedded single-page UI on /
// and a JSON API under /api for chat, history, search, status, trace, and
// stats. Errors are returned as {"error": "..."} with a matching HTTP
// status.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/invoicit/agent"
	"github.com/poiesic/invoicit/config"
	"github.com/poiesic/invoicit/retrieval"
	"github.com/poiesic/invoicit/storage"
)

// DefaultChatTimeout bounds one chat exchange, including planning,
// retrieval, and the model round trips.
const DefaultChatTimeout = 60 * time.Second

// Server is the HTTP front end of the invoice assistant.
type Server struct {
	assistant     *agent.Agent
	retriever     *retrieval.Retriever
	documents     storage.DocumentRepository
	conversations storage.ConversationRepository
	packs         storage.PackRepository
	cfg           *config.Config
	logger        *slog.Logger
	chatTimeout   time.Duration
	router        *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger. If nil, the default logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithChatTimeout overrides the per-exchange chat deadline. Non-positive
// values are ignored.
func WithChatTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.chatTimeout = timeout
		}
	}
}

// NewServer wires the HTTP routes over the assistant and its stores.
func NewServer(
	assistant *agent.Agent,
	retriever *retrieval.Retriever,
	documents storage.DocumentRepository,
	conversations storage.ConversationRepository,
	packs storage.PackRepository,
	cfg *config.Config,
	opts ...Option,
) (*Server, error) {
	if assistant == nil {
		return nil, ErrAgentRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if documents == nil || conversations == nil || packs == nil {
		return nil, ErrRepositoryRequired
	}
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	s := &Server{
		assistant:     assistant,
		retriever:     retriever,
		documents:     documents,
		conversations: conversations,
		packs:         packs,
		cfg:           cfg,
		logger:        slog.Default().With("component", "web"),
		chatTimeout:   DefaultChatTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))

	router.GET("/", s.handleIndex)

	api := router.Group("/api")
	api.POST("/chat", s.handleChat)
	api.GET("/history", s.handleHistory)
	api.DELETE("/history", s.handleClearHistory)
	api.GET("/status", s.handleStatus)
	api.GET("/examples", s.handleExamples)
	api.POST("/search", s.handleSearch)
	api.GET("/trace", s.handleTrace)
	api.GET("/stats", s.handleStats)

	s.router = router
	return s, nil
}

// Handler exposes the route tree, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP on addr until the context is canceled, then shuts down
// gracefully with a ten second drain window.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	s.logger.Info("Web interface listening", "addr", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("Web interface stopped")
		return nil
	}
}
