// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package credentials models the shared credential document and the
// versioned store that holds it.
//
// # Document
//
// The credential document is a single JSON file with top-level "users",
// "patients" and "lastUpdated" keys. It is shared with other tools, so keys
// this package does not understand are carried through a read-modify-write
// cycle untouched.
//
// # Optimistic concurrency
//
// A Store never locks. Read returns the record together with an opaque
// Version; Write must present the Version observed by the caller and fails
// with ErrVersionConflict when another writer got there first. Retrying is
// the caller's job: re-read, re-validate, write again.
//
// Backends live in subpackages (github, s3, postgres); MemoryStore is the
// in-process implementation used by tests and local development.
package credentials
