package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/aiverse-api/pkg/errcode"
)

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("20240101_000000_000001_upload.jpg"))
	for _, bad := range []string{"", ".", "..", "../etc/passwd", "a/b.jpg", `a\b.jpg`} {
		assert.False(t, ValidName(bad), bad)
	}
}

func TestLocalStorage_SaveOpen(t *testing.T) {
	store, dir := newLocal(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a.jpg", []byte("jpeg-bytes")))
	assert.Equal(t, []string{"a.jpg"}, dirEntries(t, dir))

	rc, err := store.Open(ctx, "a.jpg")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	_, err = store.Open(ctx, "missing.jpg")
	assert.True(t, errcode.Is(err, errcode.NotFound))

	_, err = store.Open(ctx, "../a.jpg")
	assert.True(t, errcode.Is(err, errcode.NotFound))

	assert.ErrorIs(t, store.Save(ctx, "../x.jpg", nil), ErrInvalidName)
}

type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Storage(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	store := newS3Storage(fake, "bucket", "uploads")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "b.jpg", []byte("xyz")))
	assert.Contains(t, fake.objects, "bucket/uploads/b.jpg")

	rc, err := store.Open(ctx, "b.jpg")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "xyz", string(data))

	_, err = store.Open(ctx, "nope.jpg")
	assert.True(t, errcode.Is(err, errcode.NotFound))

	assert.True(t, errors.Is(store.Save(ctx, "a/b.jpg", nil), ErrInvalidName))
}
