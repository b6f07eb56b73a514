// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package github stores the credential document as a file in a GitHub
// repository through the contents API. The blob SHA is the version.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/lipodem/trackpanel/internal/credentials"
)

const backendName = "github"

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// Config locates the document.
type Config struct {
	BaseURL string
	Owner   string
	Repo    string
	Path    string
	Branch  string
	Token   string

	// CreateIfMissing makes Read answer a 404 with an empty record so the
	// first Write creates the file. Otherwise a 404 is ErrDocumentMissing.
	CreateIfMissing bool
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) {
		s.client = c
	}
}

// Store implements credentials.Store on the GitHub contents API.
type Store struct {
	cfg    Config
	client *http.Client
	url    string
}

// New validates cfg and returns a Store.
func New(cfg Config, opts ...Option) (*Store, error) {
	if cfg.Owner == "" || cfg.Repo == "" || cfg.Path == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("github store requires owner, repo and path")
	}
	if cfg.Token == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("github store requires a token")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	s := &Store{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		url: fmt.Sprintf("%s/repos/%s/%s/contents/%s",
			strings.TrimRight(cfg.BaseURL, "/"),
			url.PathEscape(cfg.Owner), url.PathEscape(cfg.Repo),
			strings.TrimLeft(cfg.Path, "/")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
}

type updateRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type updateResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// Read implements credentials.Store.
func (s *Store) Read(ctx context.Context) (*credentials.Record, credentials.Version, error) {
	target := s.url
	if s.cfg.Branch != "" {
		target += "?ref=" + url.QueryEscape(s.cfg.Branch)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", oops.With("operation", "read").Wrap(err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", credentials.Unavailable(backendName, "read", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	switch {
	case resp.StatusCode == http.StatusNotFound && s.cfg.CreateIfMissing:
		return &credentials.Record{}, "", nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", oops.With("status", resp.StatusCode).Wrap(credentials.DocumentMissing(backendName))
	case resp.StatusCode != http.StatusOK:
		return nil, "", credentials.UnavailableStatus(backendName, "read", resp.StatusCode)
	}

	var body contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", credentials.Unavailable(backendName, "read", err)
	}
	if body.Encoding != "" && body.Encoding != "base64" {
		return nil, "", oops.Code(credentials.CodeInvalidDocument).
			With("encoding", body.Encoding).
			Wrap(credentials.ErrInvalidDocument)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(body.Content, "\n", ""))
	if err != nil {
		return nil, "", oops.Code(credentials.CodeInvalidDocument).Wrap(fmt.Errorf("%w: %w", credentials.ErrInvalidDocument, err))
	}
	rec, err := credentials.Decode(raw)
	if err != nil {
		return nil, "", err
	}
	return rec, credentials.Version(body.SHA), nil
}

// Write implements credentials.Store.
func (s *Store) Write(ctx context.Context, rec *credentials.Record, expected credentials.Version, change string) (credentials.Version, error) {
	data, err := credentials.Encode(rec)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(updateRequest{
		Message: change,
		Content: base64.StdEncoding.EncodeToString(data),
		SHA:     string(expected),
		Branch:  s.cfg.Branch,
	})
	if err != nil {
		return "", oops.With("operation", "write").Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.url, bytes.NewReader(payload))
	if err != nil {
		return "", oops.With("operation", "write").Wrap(err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", credentials.Unavailable(backendName, "write", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict, http.StatusPreconditionFailed:
		return "", credentials.VersionConflict(backendName, expected)
	case http.StatusUnprocessableEntity:
		// Creating a file that already exists is rejected without a sha.
		if expected == "" {
			return "", credentials.VersionConflict(backendName, expected)
		}
		return "", credentials.UnavailableStatus(backendName, "write", resp.StatusCode)
	default:
		//nolint:errcheck // drain for connection reuse
		io.Copy(io.Discard, resp.Body)
		return "", credentials.UnavailableStatus(backendName, "write", resp.StatusCode)
	}

	var body updateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", credentials.Unavailable(backendName, "write", err)
	}
	if body.Content.SHA == "" {
		return "", credentials.Unavailable(backendName, "write", fmt.Errorf("response carried no sha"))
	}
	return credentials.Version(body.Content.SHA), nil
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}
