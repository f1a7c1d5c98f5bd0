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

import "errors"

// Validation errors. Validate methods wrap the field-level sentinel inside
// the record-level one, so errors.Is matches either.
var (
	// ErrInvalidDocument is returned when a Document fails validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidTurn is returned when a conversation Turn fails validation.
	ErrInvalidTurn = errors.New("invalid turn")

	// ErrInvalidInvoice is returned when an Invoice fails validation.
	ErrInvalidInvoice = errors.New("invalid invoice")

	// ErrInvalidTimestamp is returned for timestamps in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyContent is returned when the Contents field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidSpeakerType is returned for SpeakerType values outside the
	// defined set.
	ErrInvalidSpeakerType = errors.New("invalid speaker type")

	// ErrEmptyInvoiceID is returned when the invoice number field is empty.
	ErrEmptyInvoiceID = errors.New("invoice id cannot be empty")

	// ErrNegativeAmount is returned for negative quantities or monetary
	// amounts.
	ErrNegativeAmount = errors.New("amount cannot be negative")
)
