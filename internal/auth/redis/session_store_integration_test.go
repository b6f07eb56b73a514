// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package redis_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lipodem/trackpanel/internal/auth"
	"github.com/lipodem/trackpanel/internal/auth/redis"
	"github.com/lipodem/trackpanel/internal/credentials"
)

var _ = Describe("SessionStore", Ordered, func() {
	var (
		ctx       context.Context
		container testcontainers.Container
		client    *goredis.Client
		sessions  *redis.SessionStore
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
			},
			Started: true,
		})
		Expect(err).NotTo(HaveOccurred())

		endpoint, err := container.Endpoint(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		client = goredis.NewClient(&goredis.Options{Addr: endpoint})
		Expect(client.Ping(ctx).Err()).To(Succeed())
		sessions = redis.NewSessionStore(client, redis.WithPrefix("test:"))
	})

	AfterAll(func() {
		if client != nil {
			Expect(client.Close()).To(Succeed())
		}
		if container != nil {
			Expect(testcontainers.TerminateContainer(container)).To(Succeed())
		}
	})

	newSession := func(accountID string, now time.Time) *auth.Session {
		_, hash, err := auth.GenerateSessionToken()
		Expect(err).NotTo(HaveOccurred())
		account := &credentials.Account{ID: accountID, Username: accountID, Role: credentials.RoleAdmin}
		s, err := auth.NewSession(account, hash, now, 4*time.Hour)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	It("round-trips a session with a TTL", func() {
		s := newSession("user_rt", time.Now())
		Expect(sessions.Create(ctx, s)).To(Succeed())

		got, err := sessions.GetByTokenHash(ctx, s.TokenHash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(s.ID))
		Expect(got.Permissions).To(Equal([]string{auth.PermissionAll}))

		ttl, err := client.TTL(ctx, "test:session:"+s.ID).Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(ttl).To(BeNumerically(">", 3*time.Hour))
	})

	It("updates activity", func() {
		now := time.Now()
		s := newSession("user_upd", now)
		Expect(sessions.Create(ctx, s)).To(Succeed())

		later := now.Add(time.Hour)
		Expect(sessions.UpdateActivity(ctx, s.ID, later, later.Add(4*time.Hour))).To(Succeed())
		got, err := sessions.GetByTokenHash(ctx, s.TokenHash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.LastActivity.Equal(later)).To(BeTrue())

		Expect(sessions.UpdateActivity(ctx, "missing", later, later)).To(MatchError(auth.ErrNotFound))
	})

	It("touches activity without moving expiry", func() {
		now := time.Now()
		s := newSession("user_touch", now)
		Expect(sessions.Create(ctx, s)).To(Succeed())

		later := now.Add(time.Hour)
		Expect(sessions.Touch(ctx, s.ID, later)).To(Succeed())
		got, err := sessions.GetByTokenHash(ctx, s.TokenHash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.LastActivity.Equal(later)).To(BeTrue())
		Expect(got.ExpiresAt.Equal(s.ExpiresAt)).To(BeTrue())

		Expect(sessions.Touch(ctx, "missing", later)).To(MatchError(auth.ErrNotFound))
	})

	It("deletes sessions and their index entries", func() {
		s := newSession("user_del", time.Now())
		Expect(sessions.Create(ctx, s)).To(Succeed())
		Expect(sessions.Delete(ctx, s.ID)).To(Succeed())

		_, err := sessions.GetByTokenHash(ctx, s.TokenHash)
		Expect(err).To(MatchError(auth.ErrNotFound))
		Expect(sessions.Delete(ctx, s.ID)).To(MatchError(auth.ErrNotFound))
		Expect(client.SIsMember(ctx, "test:account:user_del", s.ID).Val()).To(BeFalse())
	})

	It("deletes an account's other sessions", func() {
		now := time.Now()
		keep := newSession("user_multi", now)
		drop1 := newSession("user_multi", now)
		drop2 := newSession("user_multi", now)
		for _, s := range []*auth.Session{keep, drop1, drop2} {
			Expect(sessions.Create(ctx, s)).To(Succeed())
		}

		n, err := sessions.DeleteByAccount(ctx, "user_multi", keep.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(2)))

		_, err = sessions.GetByTokenHash(ctx, keep.TokenHash)
		Expect(err).NotTo(HaveOccurred())
	})

	It("sweeps idle sessions", func() {
		now := time.Now()
		idle := newSession("user_idle", now.Add(-3*time.Hour))
		fresh := newSession("user_fresh", now)
		Expect(sessions.Create(ctx, idle)).To(Succeed())
		Expect(sessions.Create(ctx, fresh)).To(Succeed())

		n, err := sessions.DeleteExpired(ctx, now, now.Add(-2*time.Hour))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeNumerically(">=", 1))

		_, err = sessions.GetByTokenHash(ctx, idle.TokenHash)
		Expect(err).To(MatchError(auth.ErrNotFound))
		_, err = sessions.GetByTokenHash(ctx, fresh.TokenHash)
		Expect(err).NotTo(HaveOccurred())
	})
})
