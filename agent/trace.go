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
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/retrieval"
)

// DefaultTraceCapacity bounds the trace ring when no capacity is given.
const DefaultTraceCapacity = 256

// TraceEvent is one recorded step of the assistant's reasoning.
type TraceEvent struct {
	Stage   string        `json:"stage"`
	Detail  string        `json:"detail"`
	At      time.Time     `json:"at"`
	Elapsed time.Duration `json:"elapsed"`
}

// Trace is a bounded ring of events. Once full, new events overwrite the
// oldest ones.
type Trace struct {
	mu       sync.Mutex
	events   []TraceEvent
	next     int
	size     int
	started  time.Time
	capacity int
}

// NewTrace creates a trace ring. A capacity below 1 falls back to
// DefaultTraceCapacity.
func NewTrace(capacity int) *Trace {
	if capacity < 1 {
		capacity = DefaultTraceCapacity
	}
	return &Trace{
		events:   make([]TraceEvent, capacity),
		capacity: capacity,
	}
}

// Begin marks the start of a new traced exchange and clears prior events.
func (t *Trace) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next = 0
	t.size = 0
	t.started = time.Now()
}

// Add records an event with its offset from the start of the exchange.
func (t *Trace) Add(stage, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	if t.started.IsZero() {
		t.started = now
	}
	t.events[t.next] = TraceEvent{
		Stage:   stage,
		Detail:  detail,
		At:      now,
		Elapsed: now.Sub(t.started),
	}
	t.next = (t.next + 1) % t.capacity
	if t.size < t.capacity {
		t.size++
	}
}

// Snapshot returns the recorded events in chronological order.
func (t *Trace) Snapshot() []TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEvent, 0, t.size)
	if t.size < t.capacity {
		out = append(out, t.events[:t.size]...)
		return out
	}
	out = append(out, t.events[t.next:]...)
	out = append(out, t.events[:t.next]...)
	return out
}

// traceMonitor feeds retrieval progress into the trace ring.
type traceMonitor struct {
	trace *Trace
}

var _ retrieval.Monitor = (*traceMonitor)(nil)

func (m *traceMonitor) Start(query string) {
	m.trace.Add("retrieve.start", query)
}

func (m *traceMonitor) AfterSemanticSearch(ids []uint64) {
	m.trace.Add("retrieve.semantic", fmt.Sprintf("%d similar documents", len(ids)))
}

func (m *traceMonitor) AfterQueryTokenization(terms []string) {
	m.trace.Add("retrieve.tokenize", fmt.Sprintf("%d query terms", len(terms)))
}

func (m *traceMonitor) FoundTermMatches(term string, documentIds []uint64) {
	m.trace.Add("retrieve.term", fmt.Sprintf("%s: %d documents", term, len(documentIds)))
}

func (m *traceMonitor) AfterKeywordSearch(ids iter.Seq[uint64]) {
	count := 0
	for range ids {
		count++
	}
	m.trace.Add("retrieve.keyword", fmt.Sprintf("%d keyword candidates", count))
}

func (m *traceMonitor) AfterDocumentRetrieval(documents []*core.Document) {
	m.trace.Add("retrieve.fetch", fmt.Sprintf("%d documents loaded", len(documents)))
}

func (m *traceMonitor) SemanticAndKeywordHit(document *core.Document) {
	m.trace.Add("score.hybrid", fmt.Sprintf("document %d", document.Id))
}

func (m *traceMonitor) SemanticHit(document *core.Document) {
	m.trace.Add("score.semantic", fmt.Sprintf("document %d", document.Id))
}

func (m *traceMonitor) KeywordHit(document *core.Document) {
	m.trace.Add("score.keyword", fmt.Sprintf("document %d", document.Id))
}

func (m *traceMonitor) Finish(results []*core.ScoredDocument) {
	m.trace.Add("retrieve.finish", fmt.Sprintf("%d results", len(results)))
}
