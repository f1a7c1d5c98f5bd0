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

import "strings"

// stripFences removes markdown code fences around a model response.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// repairJSON fixes the quoting slip small models make most often: an object
// key missing its opening quote, as in `{action": "search"}`. Anything it
// does not recognize passes through unchanged.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

	runes := []rune(s)
	for i := 0; i < len(runes); {
		b.WriteRune(runes[i])
		if runes[i] != '{' && runes[i] != ',' {
			i++
			continue
		}
		i++

		// Copy whitespace following the separator.
		for i < len(runes) && (runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t') {
			b.WriteRune(runes[i])
			i++
		}

		// A bare word ending in `":` is a key that lost its opening quote.
		start := i
		for i < len(runes) && (isLetter(runes[i]) || runes[i] == '_' || runes[i] == ' ') {
			i++
		}
		if i > start && i+1 < len(runes) && runes[i] == '"' && runes[i+1] == ':' {
			b.WriteRune('"')
			b.WriteString(strings.TrimRight(string(runes[start:i]), " "))
			continue
		}
		// Not a bare key, keep what was scanned.
		b.WriteString(string(runes[start:i]))
	}
	return b.String()
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
