package s3_test

import (
	"context"
	"errors"
	"io"
	"testing"

	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gridlinecompany/LetsEcrypt/integration/storage/s3"
	"github.com/gridlinecompany/LetsEcrypt/pkg/letsencrypt"
)

var _ letsencrypt.Mirror = (*s3.Mirror)(nil)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) PutObject(ctx context.Context, in *s3aws.PutObjectInput, _ ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3aws.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockClient) HeadBucket(ctx context.Context, in *s3aws.HeadBucketInput, _ ...func(*s3aws.Options)) (*s3aws.HeadBucketOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3aws.HeadBucketOutput)
	return out, args.Error(1)
}

func newMirror(t *testing.T, client *mockClient) *s3.Mirror {
	t.Helper()
	m, err := s3.New(context.Background(), s3.Config{
		Bucket: "certs",
		Region: "eu-west-1",
		Prefix: "issued/",
	}, s3.WithClient(client))
	require.NoError(t, err)
	return m
}

func TestNewRequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := s3.New(context.Background(), s3.Config{Region: "eu-west-1"})
	assert.ErrorIs(t, err, s3.ErrInvalidConfig)
	assert.False(t, s3.Config{}.Enabled())
}

func TestMirrorPut(t *testing.T) {
	t.Parallel()

	client := &mockClient{}
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3aws.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return *in.Bucket == "certs" &&
			*in.Key == "issued/example.com_1.cert.pem" &&
			*in.ContentType == "application/x-pem-file" &&
			in.ServerSideEncryption == types.ServerSideEncryptionAes256 &&
			string(body) == "PEM"
	})).Return(&s3aws.PutObjectOutput{}, nil).Once()

	m := newMirror(t, client)
	require.NoError(t, m.Put(context.Background(), "/example.com_1.cert.pem", []byte("PEM"), "application/x-pem-file"))
	client.AssertExpectations(t)
}

func TestMirrorPutClassifiesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, s3.ErrAccessDenied},
		{"missing bucket", &types.NoSuchBucket{}, s3.ErrBucketNotFound},
		{"throttled", &smithy.GenericAPIError{Code: "SlowDown"}, s3.ErrServiceUnavailable},
		{"deadline", context.DeadlineExceeded, s3.ErrOperationTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{}
			client.On("PutObject", mock.Anything, mock.Anything).Return(nil, tt.err)

			err := newMirror(t, client).Put(context.Background(), "k", nil, "text/plain")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unknown code keeps cause", func(t *testing.T) {
		cause := &smithy.GenericAPIError{Code: "Weird"}
		client := &mockClient{}
		client.On("PutObject", mock.Anything, mock.Anything).Return(nil, cause)

		err := newMirror(t, client).Put(context.Background(), "k", nil, "text/plain")
		var apiErr smithy.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Weird", apiErr.ErrorCode())
	})
}

func TestMirrorHealthcheck(t *testing.T) {
	t.Parallel()

	client := &mockClient{}
	client.On("HeadBucket", mock.Anything, mock.Anything).Return(&s3aws.HeadBucketOutput{}, nil).Once()
	client.On("HeadBucket", mock.Anything, mock.Anything).Return(nil, &smithy.GenericAPIError{Code: "NotFound"}).Once()

	m := newMirror(t, client)
	assert.NoError(t, m.Healthcheck(context.Background()))
	assert.ErrorIs(t, m.Healthcheck(context.Background()), s3.ErrBucketNotFound)
}
