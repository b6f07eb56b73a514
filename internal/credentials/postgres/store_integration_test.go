// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lipodem/trackpanel/internal/credentials"
	"github.com/lipodem/trackpanel/internal/credentials/postgres"
	"github.com/lipodem/trackpanel/internal/store"
)

var _ = Describe("Store", Ordered, func() {
	var (
		ctx       context.Context
		container *tcpostgres.PostgresContainer
		pool      *pgxpool.Pool
		credStore *postgres.Store
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("trackpanel_test"),
			tcpostgres.WithUsername("trackpanel"),
			tcpostgres.WithPassword("trackpanel"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.NewPool(ctx, connStr)
		Expect(err).NotTo(HaveOccurred())
		credStore = postgres.New(pool, "integration")
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	It("reports a missing document as unavailable", func() {
		_, _, err := credStore.Read(ctx)
		Expect(err).To(MatchError(credentials.ErrDocumentMissing))
	})

	It("reads a missing document as empty when create-if-missing is set", func() {
		rec, version, err := postgres.New(pool, "integration", postgres.WithCreateIfMissing(true)).Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeEmpty())
		Expect(rec.Accounts()).To(BeEmpty())
	})

	It("creates, updates and rejects stale writes", func() {
		rec := &credentials.Record{}
		rec.AddUser(&credentials.Account{ID: "u1", Username: "alice", PasswordHash: "h", Role: credentials.RoleAdmin, Active: true})

		v1, err := credStore.Write(ctx, rec, "", "bootstrap admin: alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(v1).To(Equal(credentials.Version("1")))

		recA, vA, err := credStore.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		recB, vB, err := credStore.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(vA).To(Equal(vB))

		recA.FindByUsername("alice").FullName = "Alice A"
		v2, err := credStore.Write(ctx, recA, vA, "update A")
		Expect(err).NotTo(HaveOccurred())
		Expect(v2).To(Equal(credentials.Version("2")))

		_, err = credStore.Write(ctx, recB, vB, "update B")
		Expect(err).To(MatchError(credentials.ErrVersionConflict))

		_, err = credStore.Write(ctx, rec, "", "second create")
		Expect(err).To(MatchError(credentials.ErrVersionConflict))

		var changes int
		Expect(pool.QueryRow(ctx, `SELECT count(*) FROM credential_changes WHERE name = 'integration'`).Scan(&changes)).To(Succeed())
		Expect(changes).To(Equal(2))
	})
})
