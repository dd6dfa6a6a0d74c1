// Package s3host stores photos in an S3-compatible bucket (AWS S3 or MinIO)
// and serves them from a public base URL.
package s3host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"pataalerta/internal/photo"
)

type Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional; custom endpoint such as MinIO
	PublicBaseURL   string // objects are served from PublicBaseURL/<key>
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string
	PathStyle       bool
	MaxAttempts     int // 0 keeps the SDK default
}

type Host struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// New creates a Host from Config. Extra options are applied to the S3 client
// after the ones derived from cfg.
func New(ctx context.Context, cfg Config, optFns ...func(*s3.Options)) (*Host, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	if cfg.MaxAttempts > 0 {
		loadOpts = append(loadOpts, config.WithRetryMaxAttempts(cfg.MaxAttempts))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		for _, fn := range optFns {
			fn(o)
		}
		next := o.HTTPClient
		if next == nil {
			next = awshttp.NewBuildableClient()
		}
		o.HTTPClient = countingClient{next: next}
	})
	return &Host{client: client, bucket: cfg.Bucket, baseURL: strings.TrimRight(cfg.PublicBaseURL, "/")}, nil
}

func (h *Host) Configured() bool {
	return h != nil && h.client != nil && h.bucket != "" && h.baseURL != ""
}

func (h *Host) Upload(ctx context.Context, p photo.Payload, progress photo.ProgressFunc) (string, error) {
	if progress != nil {
		ctx = context.WithValue(ctx, progressKey{}, tracked{progress: progress, total: int64(len(p.Data))})
	}
	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(h.bucket),
		Key:           aws.String(p.Name),
		Body:          bytes.NewReader(p.Data),
		ContentType:   aws.String(p.ContentType),
		ContentLength: aws.Int64(int64(len(p.Data))),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", &photo.BackendError{Code: CodeFor(apiErr.ErrorCode()), Raw: apiErr.ErrorCode()}
		}
		return "", fmt.Errorf("put object %s: %w", p.Name, err)
	}
	return h.baseURL + "/" + p.Name, nil
}

// CodeFor maps an S3 error code onto the closed code set.
func CodeFor(code string) photo.Code {
	switch code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return photo.Unauthorized
	case "EntityTooLarge", "InvalidArgument", "BadDigest", "InvalidDigest":
		return photo.InvalidFile
	case "SlowDown", "TooManyRequests", "Throttling":
		return photo.RateLimited
	case "InternalError", "ServiceUnavailable":
		return photo.ServerUnavailable
	case "QuotaExceeded":
		return photo.QuotaExceeded
	}
	return photo.Unknown
}

type progressKey struct{}

type tracked struct {
	progress photo.ProgressFunc
	total    int64
}

// countingClient reports request body bytes as the transport reads them.
// The SDK has already read and rewound the body for signing by then.
type countingClient struct {
	next s3.HTTPClient
}

func (c countingClient) Do(req *http.Request) (*http.Response, error) {
	t, ok := req.Context().Value(progressKey{}).(tracked)
	if ok && req.Body != nil && req.Body != http.NoBody {
		req.Body = &countingBody{ReadCloser: req.Body, total: t.total, progress: t.progress}
	}
	return c.next.Do(req)
}

type countingBody struct {
	io.ReadCloser
	sent     int64
	total    int64
	progress photo.ProgressFunc
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		b.sent += int64(n)
		b.progress(b.sent, b.total)
	}
	return n, err
}
