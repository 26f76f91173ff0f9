package file_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filesvc/pkg/file"
)

// MockS3Client is a mock implementation of the S3Client interface
type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockS3Client) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.HeadBucketOutput), args.Error(1)
}

func (m *MockS3Client) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.CreateBucketOutput), args.Error(1)
}

// MockPresigner is a mock implementation of the S3Presigner interface
type MockPresigner struct {
	mock.Mock
}

func (m *MockPresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	args := m.Called(ctx, params, opts.Expires)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*v4.PresignedHTTPRequest), args.Error(1)
}

func newS3(t *testing.T, region string) (*file.S3Storage, *MockS3Client, *MockPresigner) {
	t.Helper()
	client := &MockS3Client{}
	presigner := &MockPresigner{}
	s, err := file.NewS3Storage(context.Background(), file.S3Config{
		Bucket: "chat-files",
		Region: region,
	}, file.WithS3Client(client), file.WithS3Presigner(presigner))
	require.NoError(t, err)
	return s, client, presigner
}

func TestNewS3Storage_InvalidConfig(t *testing.T) {
	t.Parallel()
	_, err := file.NewS3Storage(context.Background(), file.S3Config{Region: "us-east-1"})
	assert.ErrorIs(t, err, file.ErrInvalidConfig)
	_, err = file.NewS3Storage(context.Background(), file.S3Config{Bucket: "b"})
	assert.ErrorIs(t, err, file.ErrInvalidConfig)
}

func TestS3Storage_Put(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		s, client, _ := newS3(t, "us-east-1")
		body := strings.NewReader("hello world")

		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return aws.ToString(in.Bucket) == "chat-files" &&
				aws.ToString(in.Key) == "id/hello.txt" &&
				aws.ToInt64(in.ContentLength) == 11 &&
				aws.ToString(in.ContentType) == "text/plain" &&
				in.Body == body
		})).Return(&s3.PutObjectOutput{}, nil).Once()

		loc, err := s.Put(context.Background(), "id/hello.txt", body, 11, "text/plain")
		require.NoError(t, err)
		assert.Equal(t, file.Locator{Namespace: "chat-files", Key: "id/hello.txt"}, loc)
		assert.Equal(t, "s3://chat-files/id/hello.txt", loc.URI(s.Kind()))
		client.AssertExpectations(t)
	})

	t.Run("classifies api errors", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			err  error
			want error
		}{
			{&smithy.GenericAPIError{Code: "AccessDenied"}, file.ErrAccessDenied},
			{&smithy.GenericAPIError{Code: "SlowDown"}, file.ErrServiceUnavailable},
			{&smithy.GenericAPIError{Code: "RequestTimeout"}, file.ErrRequestTimeout},
			{&types.NoSuchBucket{}, file.ErrBucketNotFound},
			{context.DeadlineExceeded, file.ErrOperationTimeout},
			{context.Canceled, file.ErrOperationCanceled},
		}
		for _, tc := range cases {
			s, client, _ := newS3(t, "us-east-1")
			client.On("PutObject", mock.Anything, mock.Anything).Return(nil, tc.err).Once()
			_, err := s.Put(context.Background(), "id/x", strings.NewReader("x"), 1, "")
			assert.ErrorIs(t, err, tc.want)
		}
	})

	t.Run("unknown error keeps cause", func(t *testing.T) {
		t.Parallel()
		s, client, _ := newS3(t, "us-east-1")
		cause := errors.New("connection reset")
		client.On("PutObject", mock.Anything, mock.Anything).Return(nil, cause).Once()
		_, err := s.Put(context.Background(), "id/x", strings.NewReader("x"), 1, "")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("invalid key never reaches s3", func(t *testing.T) {
		t.Parallel()
		s, client, _ := newS3(t, "us-east-1")
		_, err := s.Put(context.Background(), "../x", strings.NewReader("x"), 1, "")
		assert.ErrorIs(t, err, file.ErrInvalidKey)
		client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
	})
}

func TestS3Storage_PresignGet(t *testing.T) {
	t.Parallel()

	t.Run("signs with ttl and disposition", func(t *testing.T) {
		t.Parallel()
		s, _, presigner := newS3(t, "us-east-1")
		presigner.On("PresignGetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return aws.ToString(in.Key) == "id/hello.txt" &&
				strings.HasPrefix(aws.ToString(in.ResponseContentDisposition), `attachment; filename="hello.txt"`)
		}), time.Hour).Return(&v4.PresignedHTTPRequest{URL: "https://files.example.com/chat-files/id/hello.txt?X-Amz-Signature=abc"}, nil).Once()

		url, err := s.PresignGet(context.Background(), "id/hello.txt", time.Hour, "hello.txt")
		require.NoError(t, err)
		assert.Equal(t, "https://files.example.com/chat-files/id/hello.txt?X-Amz-Signature=abc", url)
		presigner.AssertExpectations(t)
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()
		s, _, presigner := newS3(t, "us-east-1")
		presigner.On("PresignGetObject", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("no credentials")).Once()
		_, err := s.PresignGet(context.Background(), "id/x", time.Minute, "")
		assert.ErrorIs(t, err, file.ErrFailedToPresign)
	})
}

func TestS3Storage_CheckNamespace(t *testing.T) {
	t.Parallel()

	t.Run("bucket exists", func(t *testing.T) {
		t.Parallel()
		s, client, _ := newS3(t, "us-east-1")
		client.On("HeadBucket", mock.Anything, mock.Anything).Return(&s3.HeadBucketOutput{}, nil).Once()
		require.NoError(t, s.CheckNamespace(context.Background()))
		client.AssertExpectations(t)
	})

	t.Run("missing bucket is reported, not created", func(t *testing.T) {
		t.Parallel()
		s, client, _ := newS3(t, "us-east-1")
		client.On("HeadBucket", mock.Anything, mock.Anything).Return(nil, &types.NotFound{}).Once()
		assert.ErrorIs(t, s.CheckNamespace(context.Background()), file.ErrBucketNotFound)
		client.AssertNotCalled(t, "CreateBucket", mock.Anything, mock.Anything)
	})
}

func TestS3Storage_EnsureNamespace(t *testing.T) {
	t.Parallel()

	t.Run("bucket exists", func(t *testing.T) {
		t.Parallel()
		s, client, _ := newS3(t, "us-east-1")
		client.On("HeadBucket", mock.Anything, mock.Anything).Return(&s3.HeadBucketOutput{}, nil).Once()
		require.NoError(t, s.EnsureNamespace(context.Background()))
		client.AssertNotCalled(t, "CreateBucket", mock.Anything, mock.Anything)
	})

	t.Run("creates missing bucket without location in us-east-1", func(t *testing.T) {
		t.Parallel()
		s, client, _ := newS3(t, "us-east-1")
		client.On("HeadBucket", mock.Anything, mock.Anything).Return(nil, &types.NotFound{}).Once()
		client.On("CreateBucket", mock.Anything, mock.MatchedBy(func(in *s3.CreateBucketInput) bool {
			return aws.ToString(in.Bucket) == "chat-files" && in.CreateBucketConfiguration == nil
		})).Return(&s3.CreateBucketOutput{}, nil).Once()
		require.NoError(t, s.EnsureNamespace(context.Background()))
		client.AssertExpectations(t)
	})

	t.Run("sets location constraint elsewhere", func(t *testing.T) {
		t.Parallel()
		s, client, _ := newS3(t, "eu-central-1")
		client.On("HeadBucket", mock.Anything, mock.Anything).Return(nil, &types.NotFound{}).Once()
		client.On("CreateBucket", mock.Anything, mock.MatchedBy(func(in *s3.CreateBucketInput) bool {
			return in.CreateBucketConfiguration != nil &&
				in.CreateBucketConfiguration.LocationConstraint == types.BucketLocationConstraint("eu-central-1")
		})).Return(&s3.CreateBucketOutput{}, nil).Once()
		require.NoError(t, s.EnsureNamespace(context.Background()))
	})

	t.Run("concurrent creation is fine", func(t *testing.T) {
		t.Parallel()
		s, client, _ := newS3(t, "us-east-1")
		client.On("HeadBucket", mock.Anything, mock.Anything).Return(nil, &types.NotFound{}).Once()
		client.On("CreateBucket", mock.Anything, mock.Anything).Return(nil, &types.BucketAlreadyOwnedByYou{}).Once()
		require.NoError(t, s.EnsureNamespace(context.Background()))
	})

	t.Run("access denied surfaces", func(t *testing.T) {
		t.Parallel()
		s, client, _ := newS3(t, "us-east-1")
		client.On("HeadBucket", mock.Anything, mock.Anything).Return(nil, &smithy.GenericAPIError{Code: "AccessDenied"}).Once()
		assert.ErrorIs(t, s.EnsureNamespace(context.Background()), file.ErrAccessDenied)
	})
}
