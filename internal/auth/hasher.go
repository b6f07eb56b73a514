// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hash algorithm names accepted by HasherConfig.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// DefaultBcryptCost matches the work factor of the existing credential data.
const DefaultBcryptCost = 10

const argon2SaltLen = 16

// Argon2Params tunes argon2id.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultArgon2Params are the OWASP-recommended argon2id parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32}
}

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a self-describing hash of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, hash string) (bool, error)

	// NeedsUpgrade returns true if the hash should be re-created with the
	// current algorithm and parameters.
	NeedsUpgrade(hash string) bool
}

// HasherConfig selects the primary algorithm and its cost.
type HasherConfig struct {
	Algorithm  string       `koanf:"algorithm"`
	BcryptCost int          `koanf:"bcrypt_cost"`
	Argon2     Argon2Params `koanf:"-"`
}

// NewHasher returns a hasher that hashes with the configured algorithm and
// verifies both argon2id and bcrypt hashes.
func NewHasher(cfg HasherConfig) (*CompositeHasher, error) {
	argon := NewArgon2idHasherWithParams(cfg.Argon2)
	bc, err := NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	switch cfg.Algorithm {
	case "", AlgorithmArgon2id:
		return NewCompositeHasher(argon, bc), nil
	case AlgorithmBcrypt:
		return NewCompositeHasher(bc, argon), nil
	default:
		return nil, oops.Code("AUTH_UNKNOWN_ALGORITHM").
			With("algorithm", cfg.Algorithm).
			Errorf("unsupported password hash algorithm %q", cfg.Algorithm)
	}
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct {
	params Argon2Params
}

// NewArgon2idHasher creates an Argon2idHasher with the default parameters.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: DefaultArgon2Params()}
}

// NewArgon2idHasherWithParams creates an Argon2idHasher. Zero fields fall
// back to the defaults.
func NewArgon2idHasherWithParams(p Argon2Params) *Argon2idHasher {
	d := DefaultArgon2Params()
	if p.Time == 0 {
		p.Time = d.Time
	}
	if p.Memory == 0 {
		p.Memory = d.Memory
	}
	if p.Threads == 0 {
		p.Threads = d.Threads
	}
	if p.KeyLen == 0 {
		p.KeyLen = d.KeyLen
	}
	return &Argon2idHasher{params: p}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	p := h.params
	hash := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Time,
		p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

type argon2Hash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func parseArgon2Hash(encoded string) (*argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d out of range", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<30 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", len(key))
	}

	return &argon2Hash{
		params: Argon2Params{Time: time, Memory: memory, Threads: uint8(threads), KeyLen: uint32(len(key))},
		salt:   salt,
		key:    key,
	}, nil
}

// Verify checks if the password matches the hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	parsed, err := parseArgon2Hash(encodedHash)
	if err != nil {
		return false, err
	}
	p := parsed.params
	computed := argon2.IDKey([]byte(password), parsed.salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(computed, parsed.key) == 1, nil
}

// NeedsUpgrade returns true if the hash is not argon2id or was made with
// different parameters.
func (h *Argon2idHasher) NeedsUpgrade(hash string) bool {
	parsed, err := parseArgon2Hash(hash)
	if err != nil {
		return true
	}
	return parsed.params != h.params
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. Zero cost selects DefaultBcryptCost.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, oops.Code("AUTH_INVALID_COST").
			With("cost", cost).
			Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

// Verify checks if the password matches the hash.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
}

// NeedsUpgrade returns true if the hash is not bcrypt or uses another cost.
func (h *BcryptHasher) NeedsUpgrade(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost != h.cost
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

// CompositeHasher hashes with a primary hasher and verifies hashes from
// any known algorithm, so upgraded and legacy hashes coexist.
type CompositeHasher struct {
	primary PasswordHasher
	argon   PasswordHasher
	bcrypt  PasswordHasher
}

// NewCompositeHasher builds a CompositeHasher. The first argument hashes new
// passwords; each known algorithm is verified by the matching hasher.
func NewCompositeHasher(primary PasswordHasher, others ...PasswordHasher) *CompositeHasher {
	c := &CompositeHasher{primary: primary}
	for _, h := range append([]PasswordHasher{primary}, others...) {
		switch h.(type) {
		case *Argon2idHasher:
			if c.argon == nil {
				c.argon = h
			}
		case *BcryptHasher:
			if c.bcrypt == nil {
				c.bcrypt = h
			}
		}
	}
	return c
}

// Hash implements PasswordHasher using the primary algorithm.
func (c *CompositeHasher) Hash(password string) (string, error) {
	return c.primary.Hash(password)
}

// Verify implements PasswordHasher, dispatching on the hash prefix.
func (c *CompositeHasher) Verify(password, hash string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, "$argon2id$") && c.argon != nil:
		return c.argon.Verify(password, hash)
	case isBcryptHash(hash) && c.bcrypt != nil:
		return c.bcrypt.Verify(password, hash)
	default:
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("unrecognized hash format")
	}
}

// NeedsUpgrade implements PasswordHasher against the primary algorithm.
func (c *CompositeHasher) NeedsUpgrade(hash string) bool {
	return c.primary.NeedsUpgrade(hash)
}
