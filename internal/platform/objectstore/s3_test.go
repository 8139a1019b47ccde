package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3ArchivePut(t *testing.T) {
	fake := &fakePutter{}
	archive := &S3Archive{
		client: fake,
		bucket: "notes",
		now:    func() time.Time { return time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) },
	}

	key, err := archive.Put(context.Background(), 7, "Biology Notes.PDF", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "uploads/7/2026/03/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.Equal(t, "notes", aws.ToString(fake.input.Bucket))
	assert.Equal(t, key, aws.ToString(fake.input.Key))
	assert.Equal(t, "application/pdf", aws.ToString(fake.input.ContentType))
	assert.Equal(t, []byte("%PDF"), fake.body)
}

func TestS3ArchivePutFailure(t *testing.T) {
	archive := &S3Archive{client: &fakePutter{err: errors.New("denied")}, bucket: "notes", now: time.Now}
	_, err := archive.Put(context.Background(), 7, "a.pdf", "", nil)
	assert.ErrorContains(t, err, "put object failed")
}

func TestNewS3ArchiveRequiresCredentials(t *testing.T) {
	_, err := NewS3Archive(Options{Bucket: "notes"})
	assert.Error(t, err)

	archive, err := NewS3Archive(Options{Bucket: "notes", AccessKeyID: "a", SecretAccessKey: "s", Endpoint: "minio:9000"})
	require.NoError(t, err)
	assert.Equal(t, "notes", archive.bucket)
}
