package retrieval

import (
	"iter"

	"github.com/poiesic/invoicit/core"
)

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results during retrieval.
type Monitor interface {
	Start(query string)
	AfterSemanticSearch(ids []uint64)
	AfterQueryTokenization(terms []string)
	FoundTermMatches(term string, documentIds []uint64)
	AfterKeywordSearch(iter.Seq[uint64])
	AfterDocumentRetrieval(documents []*core.Document)
	SemanticAndKeywordHit(document *core.Document)
	SemanticHit(document *core.Document)
	KeywordHit(document *core.Document)
	Finish(results []*core.ScoredDocument)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) AfterSemanticSearch(_ []uint64)             {}
func (n *noopMonitor) AfterQueryTokenization(_ []string)          {}
func (n *noopMonitor) FoundTermMatches(_ string, _ []uint64)      {}
func (n *noopMonitor) AfterKeywordSearch(_ iter.Seq[uint64])      {}
func (n *noopMonitor) AfterDocumentRetrieval(_ []*core.Document)  {}
func (n *noopMonitor) SemanticAndKeywordHit(_ *core.Document)     {}
func (n *noopMonitor) SemanticHit(_ *core.Document)               {}
func (n *noopMonitor) KeywordHit(_ *core.Document)                {}
func (n *noopMonitor) Finish(_ []*core.ScoredDocument)            {}
