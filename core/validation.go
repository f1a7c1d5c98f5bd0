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


package core

import (
	"fmt"
	"time"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Contents must not be empty
//   - Timestamp must not be in the future
//
// NOT validated (populated by processors):
//   - Vector (can be empty until embedding processor runs)
//   - Terms (can be empty for term-free content)
//   - ID (0 is valid from database sequences)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Contents == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if !IsValidTimestamp(doc.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateTurn validates a conversation Turn according to domain rules.
//
// Validation rules:
//   - Contents must not be empty
//   - SpeakerType must be valid (Human or Assistant)
//   - Timestamp must not be in the future
func ValidateTurn(turn *Turn) error {
	if turn == nil {
		return fmt.Errorf("%w: turn is nil", ErrInvalidTurn)
	}

	if turn.Contents == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrEmptyContent)
	}

	if err := ValidateSpeakerType(turn.Speaker); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, err)
	}

	if !IsValidTimestamp(turn.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateInvoice validates an Invoice according to domain rules.
//
// Validation rules:
//   - InvoiceID must not be empty
//   - Quantity, UnitPrice, and TotalAmount must not be negative
func ValidateInvoice(inv *Invoice) error {
	if inv == nil {
		return fmt.Errorf("%w: invoice is nil", ErrInvalidInvoice)
	}

	if inv.InvoiceID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidInvoice, ErrEmptyInvoiceID)
	}

	if inv.Quantity < 0 {
		return fmt.Errorf("%w: %w: quantity %d", ErrInvalidInvoice, ErrNegativeAmount, inv.Quantity)
	}

	if inv.UnitPrice < 0 {
		return fmt.Errorf("%w: %w: unit price %.2f", ErrInvalidInvoice, ErrNegativeAmount, inv.UnitPrice)
	}

	if inv.TotalAmount < 0 {
		return fmt.Errorf("%w: %w: total amount %.2f", ErrInvalidInvoice, ErrNegativeAmount, inv.TotalAmount)
	}

	return nil
}

// ValidateSpeakerType validates that a SpeakerType has a valid value.
func ValidateSpeakerType(speaker SpeakerType) error {
	if speaker != SpeakerTypeHuman && speaker != SpeakerTypeAssistant {
		return fmt.Errorf("%w: value %d", ErrInvalidSpeakerType, speaker)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
