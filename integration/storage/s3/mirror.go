package s3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/gridlinecompany/LetsEcrypt/core/logger"
)

// S3Client is the subset of the SDK client the mirror uses.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3aws.HeadBucketInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadBucketOutput, error)
}

// Mirror copies certificate artifacts to a bucket. It satisfies
// letsencrypt.Mirror.
type Mirror struct {
	client S3Client
	cfg    Config
	log    *slog.Logger
}

// Option configures a Mirror.
type Option func(*options)

type options struct {
	client     S3Client
	httpClient *http.Client
	log        *slog.Logger
}

// WithClient uses a pre-built client instead of loading AWS config.
func WithClient(c S3Client) Option {
	return func(o *options) { o.client = c }
}

// WithHTTPClient sets the HTTP client for SDK requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// New builds a Mirror. Without static keys the default AWS credential
// chain is used.
func New(ctx context.Context, cfg Config, opts ...Option) (*Mirror, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}
	o := &options{log: logger.Nop()}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		if o.httpClient != nil {
			loadOpts = append(loadOpts, config.WithHTTPClient(o.httpClient))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client = s3aws.NewFromConfig(awsCfg, func(so *s3aws.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &Mirror{client: client, cfg: cfg, log: o.log}, nil
}

// Put uploads data under the configured prefix. Private keys are stored
// with server-side encryption like every other object.
func (m *Mirror) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if m.cfg.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.UploadTimeout)
		defer cancel()
	}

	objectKey := m.objectKey(key)
	_, err := m.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:               aws.String(m.cfg.Bucket),
		Key:                  aws.String(objectKey),
		Body:                 bytes.NewReader(data),
		ContentLength:        aws.Int64(int64(len(data))),
		ContentType:          aws.String(contentType),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
		ACL:                  types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return classify(err, "put object")
	}
	m.log.DebugContext(ctx, "artifact mirrored", logger.Component("s3"), logger.Key("key", objectKey))
	return nil
}

// Healthcheck checks that the bucket is reachable.
func (m *Mirror) Healthcheck(ctx context.Context) error {
	_, err := m.client.HeadBucket(ctx, &s3aws.HeadBucketInput{Bucket: aws.String(m.cfg.Bucket)})
	return classify(err, "head bucket")
}

func (m *Mirror) objectKey(key string) string {
	key = strings.TrimLeft(key, "/")
	if m.cfg.Prefix == "" {
		return key
	}
	return path.Join(m.cfg.Prefix, key)
}
