// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credentials

import "context"

// Version is the opaque token a backend hands out on Read and expects
// back on Write. The empty Version means the document does not exist yet.
type Version string

// Store reads and writes the credential document under optimistic
// concurrency. Implementations never lock; a Write whose expected version
// is stale fails with ErrVersionConflict and the caller re-reads.
type Store interface {
	// Read returns a freshly decoded record and its version. A missing
	// document yields an empty record and the empty Version.
	Read(ctx context.Context) (*Record, Version, error)

	// Write stores rec if the current version still equals expected and
	// returns the new version. change is a human-readable description
	// kept by backends that record history.
	Write(ctx context.Context, rec *Record, expected Version, change string) (Version, error)
}
