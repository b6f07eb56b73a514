// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth authenticates panel operators and patients.
//
// # Components
//
//   - PasswordHasher - salted one-way hashing (argon2id, bcrypt, or both)
//   - LockoutPolicy - failed-attempt counter and temporary lock
//   - SessionManager - server sessions with idle and absolute expiry
//   - JWTIssuer - long-lived signed bearer tokens
//   - Service - login, password change, patient registration and the
//     account queries built on them
//
// # Concurrency
//
// Service holds no lock over account data. Every mutating operation reads
// the credential record fresh, applies its change, and writes it back with
// the version it read. A version conflict restarts the whole cycle, up to
// a bounded number of attempts, before failing with CodeConflict.
//
// Services are created with New* constructors that validate dependencies.
package auth
