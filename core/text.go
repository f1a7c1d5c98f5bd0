package core

import "strings"

// Stop words excluded from the keyword index and verbatim matching
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "which": true, "me": true,
	"all": true, "we": true,
}

// TokenizeAndFilter splits text into words, lowercases, trims punctuation,
// and removes stop words. Both document terms and query terms go through
// this so the keyword index and lookups agree.
func TokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}|"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// TermsFromText returns the deduplicated keyword term IDs for a piece of
// text. Term IDs are content-hashed, so the same word always maps to the
// same ID across documents and queries.
func TermsFromText(text string) []ID {
	words := TokenizeAndFilter(text)
	seen := make(map[ID]bool, len(words))
	terms := make([]ID, 0, len(words))
	for _, word := range words {
		id := IDFromContent(word)
		if seen[id] {
			continue
		}
		seen[id] = true
		terms = append(terms, id)
	}
	return terms
}

// ContainsAllQueryWords checks if every query word (after filtering) appears
// in the document text.
func ContainsAllQueryWords(document, query string) bool {
	queryWords := TokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := TokenizeAndFilter(document)
	docWordSet := make(map[string]bool, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = true
	}

	for _, qWord := range queryWords {
		if !docWordSet[qWord] {
			return false
		}
	}

	return true
}
