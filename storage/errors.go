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


package storage

import "errors"

var (
	// ErrNotFound is returned when no record exists for the requested key.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a write would reuse an existing key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrTransactionFailed is returned when a storage transaction could not
	// commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrStorageClosed is returned for operations on a closed backend.
	ErrStorageClosed = errors.New("storage closed")

	// ErrInvalidQuery is returned for malformed query parameters.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrSerializationFailed is returned when a record cannot be encoded or
	// decoded.
	ErrSerializationFailed = errors.New("record serialization failed")
)
