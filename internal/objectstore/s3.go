// Package objectstore is the tenant-scoped object store adapter over any
// S3-compatible backend (MinIO in deployment). Each tenant owns one bucket
// named tenant-{tenant_id}; documents live at documents/{document_id}.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

const (
	bucketPrefix = "tenant-"
	documentKey  = "documents/%s"
)

// Config holds S3 connection settings. Endpoint and UsePathStyle target
// MinIO and other S3-compatible stores.
type Config struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// Client is the tenant-scoped object store adapter.
type Client struct {
	s3     *s3.Client
	logger *zap.Logger
}

// New builds the S3 client.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, ragerr.Internal(err, "loading aws config")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &Client{s3: client, logger: logger}, nil
}

// NewWithClient wraps an existing S3 client. Used by tests.
func NewWithClient(client *s3.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{s3: client, logger: logger}
}

// BucketFor resolves and validates the tenant's bucket name against the
// request context.
func BucketFor(ctx context.Context, tenantID string) (string, error) {
	if err := tenantctx.CheckTenant(ctx, tenantID); err != nil {
		return "", err
	}
	bucket := bucketPrefix + tenantID
	if !strings.HasPrefix(bucket, bucketPrefix) || tenantID == "" {
		return "", ragerr.TenantIsolation("invalid bucket for tenant %q", tenantID)
	}
	return bucket, nil
}

// EnsureBucket creates the tenant's bucket on demand. A bucket owned by
// another principal is a conflict.
func (c *Client) EnsureBucket(ctx context.Context, tenantID string) error {
	bucket, err := BucketFor(ctx, tenantID)
	if err != nil {
		return err
	}
	_, err = c.s3.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		var exists *types.BucketAlreadyExists
		if errors.As(err, &exists) {
			return ragerr.Conflict("bucket_owned", "bucket %s owned by another principal", bucket)
		}
		return ragerr.Transient(err, "creating bucket %s", bucket)
	}
	return nil
}

// PutDocument stores document bytes at documents/{document_id}.
func (c *Client) PutDocument(ctx context.Context, tenantID, documentID string, content []byte) error {
	bucket, err := BucketFor(ctx, tenantID)
	if err != nil {
		return err
	}
	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fmt.Sprintf(documentKey, documentID)),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return ragerr.Transient(err, "putting object for tenant %s", tenantID)
	}
	return nil
}

// GetDocument fetches document bytes. Missing objects are not-found.
func (c *Client) GetDocument(ctx context.Context, tenantID, documentID string) ([]byte, error) {
	bucket, err := BucketFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fmt.Sprintf(documentKey, documentID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ragerr.NotFound("object", documentID)
		}
		return nil, ragerr.Transient(err, "getting object for tenant %s", tenantID)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, ragerr.Transient(err, "reading object body")
	}
	return data, nil
}

// DeleteDocument removes a document object.
func (c *Client) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	bucket, err := BucketFor(ctx, tenantID)
	if err != nil {
		return err
	}
	_, err = c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fmt.Sprintf(documentKey, documentID)),
	})
	if err != nil {
		return ragerr.Transient(err, "deleting object for tenant %s", tenantID)
	}
	return nil
}

// ListDocumentIDs lists document IDs present in the tenant's bucket.
func (c *Client) ListDocumentIDs(ctx context.Context, tenantID string) ([]string, error) {
	bucket, err := BucketFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var ids []string
	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String("documents/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, ragerr.Transient(err, "listing objects for tenant %s", tenantID)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			ids = append(ids, strings.TrimPrefix(key, "documents/"))
		}
	}
	return ids, nil
}

// DeleteBucket removes the tenant's bucket and all objects in it.
func (c *Client) DeleteBucket(ctx context.Context, tenantID string) error {
	bucket, err := BucketFor(ctx, tenantID)
	if err != nil {
		return err
	}
	ids, err := c.ListDocumentIDs(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := c.DeleteDocument(ctx, tenantID, id); err != nil {
			return err
		}
	}
	_, err = c.s3.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		return ragerr.Transient(err, "deleting bucket %s", bucket)
	}
	return nil
}

// Ping probes the backend by listing buckets.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.s3.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return ragerr.Transient(err, "object store unreachable")
	}
	return nil
}
