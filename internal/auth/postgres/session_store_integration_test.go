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

	"github.com/lipodem/trackpanel/internal/auth"
	"github.com/lipodem/trackpanel/internal/auth/postgres"
	"github.com/lipodem/trackpanel/internal/credentials"
	"github.com/lipodem/trackpanel/internal/store"
)

var _ = Describe("SessionStore", Ordered, func() {
	var (
		ctx       context.Context
		container *tcpostgres.PostgresContainer
		pool      *pgxpool.Pool
		sessions  *postgres.SessionStore
		base      time.Time
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
		sessions = postgres.NewSessionStore(pool)
		base = time.Now().UTC().Truncate(time.Microsecond)
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if container != nil {
			Expect(testcontainers.TerminateContainer(container)).To(Succeed())
		}
	})

	newSession := func(accountID string) *auth.Session {
		_, hash, err := auth.GenerateSessionToken()
		Expect(err).NotTo(HaveOccurred())
		account := &credentials.Account{
			ID: accountID, Username: accountID, Role: credentials.RoleDietitian,
			AssignedPatients: []string{"P-1"},
		}
		s, err := auth.NewSession(account, hash, base, 4*time.Hour)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	It("round-trips a session", func() {
		s := newSession("user_rt")
		Expect(sessions.Create(ctx, s)).To(Succeed())

		got, err := sessions.GetByTokenHash(ctx, s.TokenHash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.AccountID).To(Equal("user_rt"))
		Expect(got.Permissions).To(Equal(s.Permissions))
		Expect(got.AssignedPatients).To(Equal([]string{"P-1"}))
		Expect(got.ExpiresAt.Equal(s.ExpiresAt)).To(BeTrue())
	})

	It("rejects duplicate token hashes", func() {
		s := newSession("user_dup")
		Expect(sessions.Create(ctx, s)).To(Succeed())
		dup := newSession("user_dup")
		dup.TokenHash = s.TokenHash
		Expect(sessions.Create(ctx, dup)).NotTo(Succeed())
	})

	It("updates activity and deletes", func() {
		s := newSession("user_upd")
		Expect(sessions.Create(ctx, s)).To(Succeed())

		later := base.Add(time.Hour)
		Expect(sessions.UpdateActivity(ctx, s.ID, later, later.Add(4*time.Hour))).To(Succeed())
		got, err := sessions.GetByTokenHash(ctx, s.TokenHash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.LastActivity.Equal(later)).To(BeTrue())

		Expect(sessions.Delete(ctx, s.ID)).To(Succeed())
		_, err = sessions.GetByTokenHash(ctx, s.TokenHash)
		Expect(err).To(MatchError(auth.ErrNotFound))
		Expect(sessions.Delete(ctx, s.ID)).To(MatchError(auth.ErrNotFound))
	})

	It("touches activity without moving expiry", func() {
		s := newSession("user_touch")
		Expect(sessions.Create(ctx, s)).To(Succeed())

		later := base.Add(time.Hour)
		Expect(sessions.Touch(ctx, s.ID, later)).To(Succeed())
		got, err := sessions.GetByTokenHash(ctx, s.TokenHash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.LastActivity.Equal(later)).To(BeTrue())
		Expect(got.ExpiresAt.Equal(s.ExpiresAt)).To(BeTrue())

		Expect(sessions.Touch(ctx, "missing", later)).To(MatchError(auth.ErrNotFound))
	})

	It("deletes an account's other sessions", func() {
		keep := newSession("user_multi")
		drop := newSession("user_multi")
		Expect(sessions.Create(ctx, keep)).To(Succeed())
		Expect(sessions.Create(ctx, drop)).To(Succeed())

		n, err := sessions.DeleteByAccount(ctx, "user_multi", keep.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))

		_, err = sessions.GetByTokenHash(ctx, keep.TokenHash)
		Expect(err).NotTo(HaveOccurred())
	})

	It("sweeps expired and idle sessions", func() {
		s := newSession("user_sweep")
		Expect(sessions.Create(ctx, s)).To(Succeed())

		n, err := sessions.DeleteExpired(ctx, base.Add(5*time.Hour), base.Add(time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeNumerically(">=", 1))

		_, err = sessions.GetByTokenHash(ctx, s.TokenHash)
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})
