// Package ingest provides pipeline orchestration for adding invoice documents.
//
// The Pipeline type manages the ingestion workflow, including:
//   - Converting invoices to searchable documents
//   - Tokenizing contents into keyword terms
//   - Adding documents to storage
//   - Generating embeddings asynchronously
//
// Embedding is performed concurrently using a worker pool to maximize
// throughput. Errors during async processing are logged but do not fail
// the ingestion operation.
package ingest
