// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credentials_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipodem/trackpanel/internal/credentials"
	"github.com/lipodem/trackpanel/pkg/errutil"
)

func seedRecord() *credentials.Record {
	rec := &credentials.Record{}
	rec.AddUser(&credentials.Account{ID: "u1", Username: "alice", PasswordHash: "h", Role: credentials.RoleAdmin, Active: true})
	return rec
}

func TestMemoryStore_MissingDocument(t *testing.T) {
	store, err := credentials.NewMemoryStore(nil)
	require.NoError(t, err)

	rec, version, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, credentials.Version(""), version)
	assert.Empty(t, rec.Accounts())

	v1, err := store.Write(context.Background(), seedRecord(), "", "create")
	require.NoError(t, err)
	assert.NotEmpty(t, v1)
}

func TestMemoryStore_StaleWriteConflicts(t *testing.T) {
	ctx := context.Background()
	store, err := credentials.NewMemoryStore(seedRecord())
	require.NoError(t, err)

	recA, v1, err := store.Read(ctx)
	require.NoError(t, err)
	recB, v1b, err := store.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, v1, v1b)

	recA.Users[0].FullName = "Alice A"
	v2, err := store.Write(ctx, recA, v1, "update from A")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)

	recB.Users[0].FullName = "Alice B"
	_, err = store.Write(ctx, recB, v1, "update from B")
	require.Error(t, err)
	assert.ErrorIs(t, err, credentials.ErrVersionConflict)
	errutil.AssertErrorCode(t, err, credentials.CodeVersionConflict)

	fresh, v, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, v2, v)
	assert.Equal(t, "Alice A", fresh.Users[0].FullName)
	assert.Equal(t, []string{"update from A"}, store.Changes())
}

func TestMemoryStore_ReadReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	store, err := credentials.NewMemoryStore(seedRecord())
	require.NoError(t, err)

	first, _, err := store.Read(ctx)
	require.NoError(t, err)
	first.Users[0].Username = "mallory"

	second, _, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", second.Users[0].Username)
}

func TestMemoryStore_InvalidRecordNotWritten(t *testing.T) {
	ctx := context.Background()
	store, err := credentials.NewMemoryStore(seedRecord())
	require.NoError(t, err)

	rec, v, err := store.Read(ctx)
	require.NoError(t, err)
	rec.AddPatient(&credentials.Account{ID: "p1", Username: "alice", PasswordHash: "h"})

	_, err = store.Write(ctx, rec, v, "duplicate")
	assert.ErrorIs(t, err, credentials.ErrInvalidDocument)

	_, after, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, v, after)
}

func TestInstrumentedStore_CountsResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	credentials.RegisterMetrics(reg)

	ctx := context.Background()
	mem, err := credentials.NewMemoryStore(seedRecord())
	require.NoError(t, err)
	store := credentials.Instrument("memtest", mem)

	rec, v, err := store.Read(ctx)
	require.NoError(t, err)
	_, err = store.Write(ctx, rec, v, "ok")
	require.NoError(t, err)
	_, err = store.Write(ctx, rec, v, "stale")
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(credentials.StoreOperations.WithLabelValues("memtest", "read", credentials.ResultOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(credentials.StoreOperations.WithLabelValues("memtest", "write", credentials.ResultOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(credentials.StoreOperations.WithLabelValues("memtest", "write", credentials.ResultConflict)), 0)
}
