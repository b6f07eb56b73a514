// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package s3_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lipodem/trackpanel/internal/credentials"
	s3store "github.com/lipodem/trackpanel/internal/credentials/s3"
	"github.com/lipodem/trackpanel/pkg/errutil"
)

// fakeS3 honors If-Match and If-None-Match the way S3 does.
type fakeS3 struct {
	mu       sync.Mutex
	data     []byte
	etag     string
	n        int
	metadata map[string]string
	getErr   error
	putErr   error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.etag == "" {
		return nil, &types.NoSuchKey{Message: aws.String("missing " + aws.ToString(in.Key))}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(f.data)),
		ETag: aws.String(f.etag),
	}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	if aws.ToString(in.IfNoneMatch) == "*" && f.etag != "" {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "object exists"}
	}
	if in.IfMatch != nil && aws.ToString(in.IfMatch) != f.etag {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "etag mismatch"}
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.n++
	f.data = data
	f.etag = fmt.Sprintf(`"etag-%d"`, f.n)
	f.metadata = in.Metadata
	return &s3.PutObjectOutput{ETag: aws.String(f.etag)}, nil
}

func sampleRecord() *credentials.Record {
	rec := &credentials.Record{}
	rec.AddPatient(&credentials.Account{ID: "p1", Username: "bob", PasswordHash: "h", Role: credentials.RolePatient, Active: true})
	return rec
}

func TestNew_Validates(t *testing.T) {
	_, err := s3store.New(nil, "b", "k")
	require.Error(t, err)
	_, err = s3store.New(&fakeS3{}, "", "k")
	require.Error(t, err)
}

func TestStore_RoundTripWithConditionalWrites(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{}
	store, err := s3store.New(fake, "panel", "credentials.json", s3store.WithCreateIfMissing(true))
	require.NoError(t, err)

	rec, v0, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, v0)
	assert.Empty(t, rec.Accounts())

	v1, err := store.Write(ctx, sampleRecord(), v0, "register patient: bob")
	require.NoError(t, err)
	assert.Equal(t, credentials.Version(`"etag-1"`), v1)
	desc, err := url.QueryUnescape(fake.metadata["change-description"])
	require.NoError(t, err)
	assert.Equal(t, "register patient: bob", desc)

	recA, vA, err := store.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, v1, vA)
	recB, _, err := store.Read(ctx)
	require.NoError(t, err)

	_, err = store.Write(ctx, recA, v1, "A")
	require.NoError(t, err)

	_, err = store.Write(ctx, recB, v1, "B")
	require.Error(t, err)
	assert.ErrorIs(t, err, credentials.ErrVersionConflict)
	errutil.AssertErrorCode(t, err, credentials.CodeVersionConflict)
}

func TestStore_MissingObjectIsUnavailable(t *testing.T) {
	store, err := s3store.New(&fakeS3{}, "panel", "credentials.json")
	require.NoError(t, err)

	rec, _, err := store.Read(context.Background())
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, credentials.ErrDocumentMissing)
	assert.ErrorIs(t, err, credentials.ErrUnavailable)
	errutil.AssertErrorCode(t, err, credentials.CodeUnavailable)
}

func TestStore_CreateWhenObjectExistsConflicts(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{}
	store, err := s3store.New(fake, "panel", "credentials.json")
	require.NoError(t, err)

	_, err = store.Write(ctx, sampleRecord(), "", "first")
	require.NoError(t, err)
	_, err = store.Write(ctx, sampleRecord(), "", "second")
	assert.ErrorIs(t, err, credentials.ErrVersionConflict)
}

func TestStore_OtherFailuresAreUnavailable(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{
		getErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"},
		putErr: errors.New("connection reset"),
	}
	store, err := s3store.New(fake, "panel", "credentials.json")
	require.NoError(t, err)

	_, _, err = store.Read(ctx)
	assert.ErrorIs(t, err, credentials.ErrUnavailable)
	errutil.AssertErrorCode(t, err, credentials.CodeUnavailable)

	_, err = store.Write(ctx, sampleRecord(), `"etag-1"`, "x")
	assert.ErrorIs(t, err, credentials.ErrUnavailable)
}
