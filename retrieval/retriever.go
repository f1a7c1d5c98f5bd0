package retrieval

import (
	"context"
	"log/slog"
	"maps"
	"sort"

	"github.com/poiesic/invoicit/ai"
	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/storage"
)

// MinSimilarity is the cosine similarity threshold for semantic candidates.
const MinSimilarity = 0.60

// DefaultMaxHits is the number of results returned when the caller passes
// a non-positive limit.
const DefaultMaxHits = 5

// Retriever provides hybrid semantic and keyword retrieval over documents.
type Retriever struct {
	documentRepository storage.DocumentRepository
	embedder           ai.Embedder
	logger             *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(
	documentRepository storage.DocumentRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Retriever, error) {
	if documentRepository == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	r := &Retriever{
		documentRepository: documentRepository,
		embedder:           provider.Embedder(),
		logger:             slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Retrieve searches for documents relevant to the query.
// Returns up to maxHits results, ranked by relevance score.
// A non-positive maxHits uses DefaultMaxHits.
func (r *Retriever) Retrieve(ctx context.Context, query string, maxHits int) ([]*core.ScoredDocument, error) {
	return r.RetrieveWithMonitor(ctx, query, maxHits, nil)
}

// RetrieveWithMonitor searches for documents relevant to the query with monitoring.
// The monitor receives callbacks at each stage of the retrieval process.
// Returns up to maxHits results, ranked by relevance score.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, maxHits int, monitor Monitor) ([]*core.ScoredDocument, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if maxHits <= 0 {
		maxHits = DefaultMaxHits
	}

	monitor.Start(query)

	// 1. Perform semantic search
	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	matches, err := r.documentRepository.FindSimilar(ctx, embedding, MinSimilarity, maxHits)
	if err != nil {
		r.logger.Error("error querying for similar documents", "err", err)
		return nil, err
	}

	// Track semantic results
	semanticSet := make(map[uint64]bool)
	semanticScores := make(map[uint64]float32)
	semanticIds := make([]uint64, 0, len(matches))
	for _, match := range matches {
		semanticSet[uint64(match.Document.Id)] = true
		semanticScores[uint64(match.Document.Id)] = match.Score
		semanticIds = append(semanticIds, uint64(match.Document.Id))
	}
	monitor.AfterSemanticSearch(semanticIds)

	// 2. Tokenize the query into keyword terms
	terms := uniqueTerms(query)
	monitor.AfterQueryTokenization(terms)

	// 3. Find documents via the keyword term index
	keywordSet := make(map[uint64]bool)
	for _, term := range terms {
		documentIds, err := r.documentRepository.GetDocumentsByTerm(ctx, core.IDFromContent(term))
		if err != nil {
			r.logger.Warn("failed to get documents for term", "term", term, "err", err)
			continue
		}
		if len(documentIds) == 0 {
			continue
		}

		matchedIds := make([]uint64, 0, len(documentIds))
		for _, documentId := range documentIds {
			keywordSet[uint64(documentId)] = true
			matchedIds = append(matchedIds, uint64(documentId))
		}
		monitor.FoundTermMatches(term, matchedIds)
	}
	monitor.AfterKeywordSearch(maps.Keys(keywordSet))

	// 4. Combine and score results
	allIds := make(map[uint64]bool)
	for id := range semanticSet {
		allIds[id] = true
	}
	for id := range keywordSet {
		allIds[id] = true
	}

	if len(allIds) == 0 {
		return []*core.ScoredDocument{}, nil
	}

	// Retrieve all documents
	uniqueIds := make([]core.ID, 0, len(allIds))
	for id := range allIds {
		uniqueIds = append(uniqueIds, core.ID(id))
	}

	documents, err := r.documentRepository.GetDocuments(ctx, uniqueIds...)
	if err != nil {
		r.logger.Error("error retrieving documents", "documentCount", len(uniqueIds), "err", err)
		return nil, err
	}
	monitor.AfterDocumentRetrieval(documents)

	// Score and build results
	results := make([]*core.ScoredDocument, 0, len(documents))

	for _, document := range documents {
		if document == nil {
			continue
		}

		inSemantic := semanticSet[uint64(document.Id)]
		inKeyword := keywordSet[uint64(document.Id)]

		var score float32
		if inSemantic && inKeyword {
			// In both: boost by 1.5x, weighted by similarity score
			similarityScore := semanticScores[uint64(document.Id)]
			score = 1.5 * similarityScore
			monitor.SemanticAndKeywordHit(document)
		} else if inKeyword {
			// Keyword only: 1.2
			score = 1.2
			monitor.KeywordHit(document)
		} else {
			// Semantic only: 1.0, weighted by similarity score
			similarityScore := semanticScores[uint64(document.Id)]
			score = 1.0 * similarityScore
			monitor.SemanticHit(document)
		}

		// Apply verbatim match boost
		if core.ContainsAllQueryWords(document.Contents, query) {
			score += 0.3
		}

		results = append(results, &core.ScoredDocument{
			Document: document,
			Score:    score,
		})
	}

	// Sort by score descending
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

// uniqueTerms tokenizes a query and deduplicates the terms, preserving order.
func uniqueTerms(query string) []string {
	words := core.TokenizeAndFilter(query)
	seen := make(map[string]bool, len(words))
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if seen[word] {
			continue
		}
		seen[word] = true
		terms = append(terms, word)
	}
	return terms
}
