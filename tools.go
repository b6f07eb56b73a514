// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build tools

// Package main pins test dependencies that are only reached through
// build-tagged suites, so go mod tidy keeps them when integration tests
// are excluded.
package main

import (
	// Integration suites (//go:build integration)
	_ "github.com/onsi/ginkgo/v2"
	_ "github.com/onsi/gomega"
	_ "github.com/testcontainers/testcontainers-go"
	_ "github.com/testcontainers/testcontainers-go/modules/postgres"

	// Generated mocks
	_ "github.com/stretchr/testify/mock"
)
