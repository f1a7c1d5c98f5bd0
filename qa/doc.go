// Package qa answers questions about invoices from retrieved records.
//
// RetrievalQA implements a "stuff" chain: the top retrieval hits are placed
// verbatim into the system prompt and the model is instructed to answer only
// from them. When retrieval comes back empty the chain short-circuits with a
// fixed reply instead of asking the model, so it never invents invoices.
package qa
