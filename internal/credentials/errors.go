// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credentials

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Error codes attached to store failures.
const (
	CodeVersionConflict = "STORE_VERSION_CONFLICT"
	CodeUnavailable     = "STORE_UNAVAILABLE"
	CodeInvalidDocument = "STORE_INVALID_DOCUMENT"
)

var (
	// ErrVersionConflict is returned by Write when the expected version is stale.
	ErrVersionConflict = errors.New("credential record version conflict")

	// ErrUnavailable is returned when the backing store cannot be reached or
	// answers with a non-success status.
	ErrUnavailable = errors.New("credential store unavailable")

	// ErrInvalidDocument is returned when stored content is not a valid
	// credential document, or a record violates its invariants.
	ErrInvalidDocument = errors.New("invalid credential document")

	// ErrDocumentMissing is returned by Read when the backend holds no
	// document and the store was not opened with create-if-missing.
	ErrDocumentMissing = errors.New("credential document does not exist")
)

// VersionConflict builds the error a backend returns for a stale write.
func VersionConflict(backend string, expected Version) error {
	return oops.Code(CodeVersionConflict).
		With("backend", backend).
		With("expected_version", string(expected)).
		Wrap(ErrVersionConflict)
}

// Unavailable builds the error a backend returns for transport failures.
func Unavailable(backend, operation string, cause error) error {
	return oops.Code(CodeUnavailable).
		With("backend", backend).
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", ErrUnavailable, cause))
}

// UnavailableStatus builds the error for a backend answering with a
// non-success status code.
func UnavailableStatus(backend, operation string, status int) error {
	return oops.Code(CodeUnavailable).
		With("backend", backend).
		With("operation", operation).
		With("status", status).
		Wrap(ErrUnavailable)
}

// DocumentMissing builds the read error for an absent document. It carries
// CodeUnavailable and matches both ErrUnavailable and ErrDocumentMissing.
func DocumentMissing(backend string) error {
	return oops.Code(CodeUnavailable).
		With("backend", backend).
		With("operation", "read").
		Wrap(fmt.Errorf("%w: %w", ErrUnavailable, ErrDocumentMissing))
}

func invalidDocument(format string, args ...any) error {
	return oops.Code(CodeInvalidDocument).Wrap(fmt.Errorf("%w: "+format, append([]any{ErrInvalidDocument}, args...)...))
}
