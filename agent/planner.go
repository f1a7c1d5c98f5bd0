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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/invoicit/ai"
	"github.com/poiesic/invoicit/core"
)

// Plan actions.
const (
	ActionSearch = "search"
	ActionAnswer = "answer"
)

const plannerPrompt = `You are the planner for an invoice assistant. Decide how to handle the user's message.

Output ONLY valid JSON. Do not include any preamble, explanation, greeting, or acknowledgment.
Start your response directly with the opening brace { and end with the closing brace }.

Choose exactly one action:
- If the message asks about invoices, customers, products, amounts, dates, payments, or order status, output:
  {"action": "search", "query": "<a short search query capturing what to look up>"}
- If the message is small talk, a greeting, or unrelated to invoice records, output:
  {"action": "answer", "answer": "<a brief direct reply>"}

Rules:
- The query must be self-contained: resolve pronouns and references using the conversation.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "how much did Alice spend?"
Output:
{"action": "search", "query": "Alice total amount"}

Example:
Input: "thanks, that's all!"
Output:
{"action": "answer", "answer": "You're welcome! Ask me about your invoices any time."}`

// Plan is the planner's decision for one user message.
type Plan struct {
	Action string `json:"action"`
	Query  string `json:"query,omitempty"`
	Answer string `json:"answer,omitempty"`
}

// planner asks the chat model to route a user message.
type planner struct {
	chat   ai.ChatModel
	logger *slog.Logger
}

// Plan routes the message, retrying when the model returns malformed JSON.
// History turns give the model context for resolving references.
func (p *planner) Plan(ctx context.Context, message string, history []*core.Turn) (*Plan, error) {
	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: plannerPrompt})
	for _, turn := range history {
		role := ai.RoleUser
		if turn.Speaker == core.SpeakerTypeAssistant {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.Message{Role: role, Content: turn.Contents})
	}
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: message})

	// Try up to 3 times in case of malformed JSON
	var plan Plan
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := p.chat.Complete(ctx, messages, ai.WithTemperature(0.0), ai.WithJSONMode())
		if err != nil {
			p.logger.Error("planner completion failed", "attempt", attempt+1, "err", err)
			return nil, err
		}

		// Strip markdown code fences and repair common JSON issues
		responseText := repairJSON(stripFences(response))

		if err := json.Unmarshal([]byte(responseText), &plan); err != nil {
			lastErr = err
			p.logger.Warn("error parsing planner response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		if plan.Action != ActionSearch && plan.Action != ActionAnswer {
			lastErr = fmt.Errorf("unknown plan action %q", plan.Action)
			p.logger.Warn("planner returned unknown action",
				"attempt", attempt+1,
				"action", plan.Action)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		p.logger.Error("failed to parse planner response after retries", "err", lastErr)
		return nil, lastErr
	}

	if plan.Action == ActionSearch && plan.Query == "" {
		// A search with no query falls back to the raw message
		plan.Query = message
	}

	p.logger.Debug("planned action", "action", plan.Action, "query", plan.Query)
	return &plan, nil
}
