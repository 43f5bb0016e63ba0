package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/isow/backend/internal/domain/record"
	"github.com/isow/backend/internal/domain/shared"
	"github.com/isow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const s3FetchConcurrency = 8

var (
	_ record.Store   = (*S3Store)(nil)
	_ record.Counter = (*S3Store)(nil)
	_ record.Pinger  = (*S3Store)(nil)
)

// s3API is the subset of the S3 client the store uses
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Store keeps each document as a JSON object at <prefix>/<collection>/<id>.json.
// It works with any S3-compatible service (AWS S3, MinIO, RustFS).
type S3Store struct {
	client s3API
	bucket string
	prefix string
	newID  func() string
	logger *zap.Logger
}

// S3Option configures an S3Store
type S3Option func(*S3Store)

// WithS3Logger sets the logger
func WithS3Logger(logger *zap.Logger) S3Option {
	return func(s *S3Store) {
		s.logger = logger
	}
}

// s3Object is the stored JSON body
type s3Object struct {
	ID     string        `json:"id"`
	Fields record.Fields `json:"fields"`
}

// NewS3Store creates an S3Store from configuration
func NewS3Store(ctx context.Context, cfg *config.StorageConfig, opts ...S3Option) (*S3Store, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := ""
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			if cfg.UseSSL {
				endpoint = "https://" + endpoint
			} else {
				endpoint = "http://" + endpoint
			}
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return newS3Store(client, cfg.Bucket, cfg.Prefix, opts...), nil
}

func newS3Store(client s3API, bucket, prefix string, opts ...S3Option) *S3Store {
	s := &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		newID:  uuid.NewString,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating record bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (s *S3Store) collectionPrefix(collection string) string {
	if s.prefix == "" {
		return collection + "/"
	}
	return s.prefix + "/" + collection + "/"
}

func (s *S3Store) key(collection, id string) string {
	return s.collectionPrefix(collection) + id + ".json"
}

// idFromKey strips the collection prefix and the .json suffix
func idFromKey(key string) (string, bool) {
	base := path.Base(key)
	if !strings.HasSuffix(base, ".json") {
		return "", false
	}
	return strings.TrimSuffix(base, ".json"), true
}

func (s *S3Store) listKeys(ctx context.Context, collection string) ([]string, error) {
	var keys []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.collectionPrefix(collection)),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, shared.ErrStoreUnavailable.WithCause(err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if _, ok := idFromKey(key); ok {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

// List reads every object of the collection
func (s *S3Store) List(ctx context.Context, collection string) ([]record.Document, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return nil, err
	}

	keys, err := s.listKeys(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	docs := make([]record.Document, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s3FetchConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			doc, err := s.read(gctx, key)
			if err != nil {
				return err
			}
			docs[i] = *doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	record.SortByID(docs)
	return docs, nil
}

// Get reads one document
func (s *S3Store) Get(ctx context.Context, collection, id string) (*record.Document, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return nil, err
	}
	doc, err := s.read(ctx, s.key(collection, id))
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// Add writes a new object under a generated id
func (s *S3Store) Add(ctx context.Context, collection string, fields record.Fields) (string, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return "", err
	}
	id := s.newID()
	if err := s.write(ctx, collection, id, fields); err != nil {
		return "", fmt.Errorf("add %s: %w", collection, err)
	}
	return id, nil
}

// Update rewrites the object with the merged fields
func (s *S3Store) Update(ctx context.Context, collection, id string, fields record.Fields) error {
	if err := record.ValidateCollection(collection); err != nil {
		return err
	}
	current, err := s.read(ctx, s.key(collection, id))
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if err := s.write(ctx, collection, id, current.Fields.Merge(fields)); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes the object and fails when it is missing
func (s *S3Store) Delete(ctx context.Context, collection, id string) error {
	if err := record.ValidateCollection(collection); err != nil {
		return err
	}
	key := s.key(collection, id)

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, classifyS3Error(err))
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, classifyS3Error(err))
	}
	return nil
}

// Count lists keys without reading bodies
func (s *S3Store) Count(ctx context.Context, collection string) (int64, error) {
	if err := record.ValidateCollection(collection); err != nil {
		return 0, err
	}
	keys, err := s.listKeys(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return int64(len(keys)), nil
}

// Ping checks that the bucket is reachable
func (s *S3Store) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return shared.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

func (s *S3Store) read(ctx context.Context, key string) (*record.Document, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyS3Error(err)
	}
	defer out.Body.Close()

	var obj s3Object
	if err := json.NewDecoder(out.Body).Decode(&obj); err != nil {
		return nil, shared.ErrStoreUnavailable.WithCause(fmt.Errorf("decode %s: %w", key, err))
	}
	id, _ := idFromKey(key)
	if obj.Fields == nil {
		obj.Fields = record.Fields{}
	}
	return &record.Document{ID: id, Fields: obj.Fields}, nil
}

func (s *S3Store) write(ctx context.Context, collection, id string, fields record.Fields) error {
	payload, err := json.Marshal(s3Object{ID: id, Fields: fields})
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(collection, id)),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return shared.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

// classifyS3Error maps missing-key errors to ErrNotFound. Some S3-compatible
// services only report the code in the message.
func classifyS3Error(err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) ||
		strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound") {
		return shared.ErrNotFound.WithCause(err)
	}
	return shared.ErrStoreUnavailable.WithCause(err)
}
