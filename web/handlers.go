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


package web

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/invoicit/agent"
	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/retrieval"
	"github.com/poiesic/invoicit/storage"
)

//go:embed index.html
var indexHTML []byte

// DefaultHistoryLimit is how many turns one history page returns.
const DefaultHistoryLimit = 50

// DefaultTraceEvents is how many execution-log events are shown.
const DefaultTraceEvents = 5

// maxSearchResults bounds the work one search request may ask for.
const maxSearchResults = 50

// exampleQueries are the canned sidebar suggestions.
var exampleQueries = []string{
	"Find all invoices for Alice Johnson",
	"What products did we sell in May 2025?",
	"Show me unpaid invoices",
	"What's the total amount for invoice 101?",
	"Which customers bought wireless mice?",
}

// writeError sends the JSON error envelope shared by every endpoint.
func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply     string       `json:"reply"`
	Sources   []sourceView `json:"sources"`
	Timestamp time.Time    `json:"timestamp"`
}

// sourceView is the wire shape of one retrieved document.
type sourceView struct {
	Contents string            `json:"contents"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func sourceViews(sources []*core.ScoredDocument) []sourceView {
	views := make([]sourceView, 0, len(sources))
	for _, source := range sources {
		views = append(views, sourceView{
			Contents: source.Document.Contents,
			Score:    source.Score,
			Metadata: source.Document.Metadata,
		})
	}
	return views
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(c, http.StatusBadRequest, "message must not be empty")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.chatTimeout)
	defer cancel()

	reply, err := s.assistant.Chat(ctx, message)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			writeError(c, http.StatusRequestTimeout, "chat timed out")
			return
		}
		s.logger.Error("Chat exchange failed", "error", err)
		writeError(c, http.StatusInternalServerError, "chat failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Reply:     reply.Text,
		Sources:   sourceViews(reply.Sources),
		Timestamp: time.Now().UTC(),
	})
}

// turnView is the wire shape of one conversation turn. IDs travel as
// decimal strings because they do not fit in a JavaScript number.
type turnView struct {
	ID        string    `json:"id"`
	Speaker   string    `json:"speaker"`
	Contents  string    `json:"contents"`
	Timestamp time.Time `json:"timestamp"`
}

func speakerLabel(speaker core.SpeakerType) string {
	switch speaker {
	case core.SpeakerTypeHuman:
		return "user"
	case core.SpeakerTypeAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

func turnViews(turns []*core.Turn) []turnView {
	views := make([]turnView, 0, len(turns))
	for _, turn := range turns {
		views = append(views, turnView{
			ID:        strconv.FormatUint(uint64(turn.Id), 10),
			Speaker:   speakerLabel(turn.Speaker),
			Contents:  turn.Contents,
			Timestamp: turn.Timestamp,
		})
	}
	return views
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	var turns []*core.Turn
	var err error
	if raw := c.Query("before"); raw != "" {
		beforeID, parseErr := strconv.ParseUint(raw, 10, 64)
		if parseErr != nil {
			writeError(c, http.StatusBadRequest, "before must be a turn id")
			return
		}
		turns, err = s.conversations.GetTurnsBefore(c.Request.Context(), core.ID(beforeID), limit)
		if errors.Is(err, storage.ErrNotFound) {
			writeError(c, http.StatusNotFound, "unknown turn id")
			return
		}
	} else {
		turns, err = s.assistant.History(c.Request.Context(), limit)
	}
	if err != nil {
		s.logger.Error("History lookup failed", "error", err)
		writeError(c, http.StatusInternalServerError, "failed to load history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"turns": turnViews(turns)})
}

func (s *Server) handleClearHistory(c *gin.Context) {
	if err := s.assistant.ClearMemory(c.Request.Context()); err != nil {
		s.logger.Error("Clearing history failed", "error", err)
		writeError(c, http.StatusInternalServerError, "failed to clear history")
		return
	}
	c.Status(http.StatusNoContent)
}

// componentStatus reports readiness of one runtime component.
type componentStatus struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) handleStatus(c *gin.Context) {
	ctx := c.Request.Context()
	components := make([]componentStatus, 0, 4)

	documentCount, err := s.documents.CountDocuments(ctx)
	if err != nil {
		components = append(components, componentStatus{Name: "database", Detail: err.Error()})
	} else {
		components = append(components, componentStatus{Name: "database", Ready: true})
		documentDetail := fmt.Sprintf("%d documents", documentCount)
		if documentCount == 0 {
			documentDetail = "no documents ingested"
		}
		components = append(components, componentStatus{
			Name:   "documents",
			Ready:  documentCount > 0,
			Detail: documentDetail,
		})
	}

	if installs, err := s.packs.ListInstalls(ctx); err == nil {
		components = append(components, componentStatus{
			Name:   "packs",
			Ready:  true,
			Detail: fmt.Sprintf("%d installed", len(installs)),
		})
	} else {
		components = append(components, componentStatus{Name: "packs", Detail: err.Error()})
	}

	components = append(components, componentStatus{
		Name:   "ai",
		Ready:  true,
		Detail: fmt.Sprintf("chat %s, embeddings %s", s.cfg.ChatModel, s.cfg.EmbeddingModel),
	})

	c.JSON(http.StatusOK, gin.H{
		"variables":  s.cfg.Status(),
		"components": components,
	})
}

func (s *Server) handleExamples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"examples": exampleQueries})
}

type searchRequest struct {
	Query string `json:"query"`
	Top   int    `json:"top"`
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(c, http.StatusBadRequest, "query must not be empty")
		return
	}
	top := req.Top
	if top <= 0 {
		top = retrieval.DefaultMaxHits
	}
	if top > maxSearchResults {
		top = maxSearchResults
	}

	results, err := s.retriever.Retrieve(c.Request.Context(), query, top)
	if err != nil {
		s.logger.Error("Search failed", "error", err, "query", query)
		writeError(c, http.StatusInternalServerError, "search failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": sourceViews(results)})
}

func (s *Server) handleTrace(c *gin.Context) {
	limit := DefaultTraceEvents
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events := s.assistant.Trace()
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	if events == nil {
		events = []agent.TraceEvent{}
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleStats(c *gin.Context) {
	ctx := c.Request.Context()

	documentCount, err := s.documents.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("Counting documents failed", "error", err)
		writeError(c, http.StatusInternalServerError, "failed to collect stats")
		return
	}
	turnCount, err := s.conversations.CountTurns(ctx)
	if err != nil {
		s.logger.Error("Counting turns failed", "error", err)
		writeError(c, http.StatusInternalServerError, "failed to collect stats")
		return
	}
	installs, err := s.packs.ListInstalls(ctx)
	if err != nil {
		s.logger.Error("Listing packs failed", "error", err)
		writeError(c, http.StatusInternalServerError, "failed to collect stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": documentCount,
		"turns":     turnCount,
		"packs":     len(installs),
	})
}
