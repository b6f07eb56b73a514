// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres stores the credential document as a JSONB row with an
// integer version column. Writes are compare-and-set on that column.
package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lipodem/trackpanel/internal/credentials"
)

const backendName = "postgres"

// DefaultRecordName is the row key used when none is configured.
const DefaultRecordName = "default"

// DB is the subset of pgxpool.Pool the store uses. The schema comes from
// the migrations in internal/store.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Option configures a Store.
type Option func(*Store)

// WithCreateIfMissing makes Read answer a missing row with an empty record
// so the first Write inserts it.
func WithCreateIfMissing(create bool) Option {
	return func(s *Store) {
		s.createIfMissing = create
	}
}

// Store implements credentials.Store on PostgreSQL.
type Store struct {
	db              DB
	name            string
	createIfMissing bool
}

// New returns a Store keeping the document in the row called name.
func New(db DB, name string, opts ...Option) *Store {
	if name == "" {
		name = DefaultRecordName
	}
	s := &Store{db: db, name: name}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read implements credentials.Store.
func (s *Store) Read(ctx context.Context) (*credentials.Record, credentials.Version, error) {
	var (
		content []byte
		version int64
	)
	err := s.db.QueryRow(ctx,
		`SELECT content, version FROM credential_records WHERE name = $1`,
		s.name).Scan(&content, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		if s.createIfMissing {
			return &credentials.Record{}, "", nil
		}
		return nil, "", credentials.DocumentMissing(backendName)
	}
	if err != nil {
		return nil, "", credentials.Unavailable(backendName, "read", err)
	}

	rec, err := credentials.Decode(content)
	if err != nil {
		return nil, "", err
	}
	return rec, formatVersion(version), nil
}

// Write implements credentials.Store. The change description is appended
// to credential_changes in the same transaction.
func (s *Store) Write(ctx context.Context, rec *credentials.Record, expected credentials.Version, change string) (credentials.Version, error) {
	data, err := credentials.Encode(rec)
	if err != nil {
		return "", err
	}

	var expectedN int64
	if expected != "" {
		expectedN, err = strconv.ParseInt(string(expected), 10, 64)
		if err != nil {
			return "", credentials.VersionConflict(backendName, expected)
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", credentials.Unavailable(backendName, "write", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var newVersion int64
	if expected == "" {
		err = tx.QueryRow(ctx,
			`INSERT INTO credential_records (name, content, version, updated_at)
			 VALUES ($1, $2, 1, now()) RETURNING version`,
			s.name, data).Scan(&newVersion)
		if isUniqueViolation(err) {
			return "", credentials.VersionConflict(backendName, expected)
		}
	} else {
		err = tx.QueryRow(ctx,
			`UPDATE credential_records SET content = $2, version = version + 1, updated_at = now()
			 WHERE name = $1 AND version = $3 RETURNING version`,
			s.name, data, expectedN).Scan(&newVersion)
		if errors.Is(err, pgx.ErrNoRows) {
			return "", credentials.VersionConflict(backendName, expected)
		}
	}
	if err != nil {
		return "", credentials.Unavailable(backendName, "write", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO credential_changes (name, version, description) VALUES ($1, $2, $3)`,
		s.name, newVersion, change); err != nil {
		return "", credentials.Unavailable(backendName, "record change", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", credentials.Unavailable(backendName, "commit", err)
	}
	return formatVersion(newVersion), nil
}

func formatVersion(v int64) credentials.Version {
	return credentials.Version(strconv.FormatInt(v, 10))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
