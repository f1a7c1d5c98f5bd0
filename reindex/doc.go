// Package reindex provides bulk maintenance jobs for the document index:
// reembedding every document with a new or updated embedding model, and
// rebuilding the keyword term index after tokenizer changes.
//
// Jobs process documents in batches with progress tracking, retry logic with
// exponential backoff for embedding calls, and vector normalization for
// cosine similarity. Progress is checkpointed after each batch so an
// interrupted run resumes where it left off.
package reindex
