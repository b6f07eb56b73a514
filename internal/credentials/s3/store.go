// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package s3 stores the credential document as a single S3 object. The
// object ETag is the version and writes use conditional PUTs.
package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/samber/oops"

	"github.com/lipodem/trackpanel/internal/credentials"
)

const backendName = "s3"

// API is the subset of the S3 client the store calls.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config locates the object and, optionally, a non-AWS endpoint.
type Config struct {
	Bucket    string
	Key       string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string

	CreateIfMissing bool
}

// Option configures a Store.
type Option func(*Store)

// WithCreateIfMissing makes Read answer NoSuchKey with an empty record so
// the first Write creates the object.
func WithCreateIfMissing(create bool) Option {
	return func(s *Store) {
		s.createIfMissing = create
	}
}

// Store implements credentials.Store on S3.
type Store struct {
	api             API
	bucket          string
	key             string
	createIfMissing bool
}

// New returns a Store using an existing client.
func New(api API, bucket, key string, opts ...Option) (*Store, error) {
	if api == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("s3 client is required")
	}
	if bucket == "" || key == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("s3 store requires bucket and key")
	}
	s := &Store{api: api, bucket: bucket, key: key}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromConfig builds an S3 client from cfg. Static keys are used when
// given; otherwise the default AWS credential chain applies.
func NewFromConfig(ctx context.Context, cfg Config) (*Store, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, oops.Code(credentials.CodeUnavailable).With("backend", backendName).Wrap(err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return New(client, cfg.Bucket, cfg.Key, WithCreateIfMissing(cfg.CreateIfMissing))
}

// Read implements credentials.Store.
func (s *Store) Read(ctx context.Context) (*credentials.Record, credentials.Version, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isNotFound(err) {
			if s.createIfMissing {
				return &credentials.Record{}, "", nil
			}
			return nil, "", credentials.DocumentMissing(backendName)
		}
		return nil, "", credentials.Unavailable(backendName, "read", err)
	}
	defer out.Body.Close() //nolint:errcheck // read-only body

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", credentials.Unavailable(backendName, "read", err)
	}
	rec, err := credentials.Decode(data)
	if err != nil {
		return nil, "", err
	}
	return rec, credentials.Version(aws.ToString(out.ETag)), nil
}

// Write implements credentials.Store.
func (s *Store) Write(ctx context.Context, rec *credentials.Record, expected credentials.Version, change string) (credentials.Version, error) {
	data, err := credentials.Encode(rec)
	if err != nil {
		return "", err
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"change-description": url.QueryEscape(change)},
	}
	if expected == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(string(expected))
	}

	out, err := s.api.PutObject(ctx, in)
	if err != nil {
		if isConflict(err) {
			return "", credentials.VersionConflict(backendName, expected)
		}
		return "", credentials.Unavailable(backendName, "write", err)
	}
	return credentials.Version(aws.ToString(out.ETag)), nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func isConflict(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}
