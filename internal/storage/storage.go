// AngelaMos | 2026
// storage.go

package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/solution-ledger/internal/config"
	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/metrics"
)

const maxConcurrentUploads = 5

// Upload is one attachment received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Object is where an upload landed: a public URL and the key needed to
// release it later.
type Object struct {
	URL string
	Key string
}

type Store interface {
	Store(ctx context.Context, upload Upload) (Object, error)
	Release(ctx context.Context, key string) error
}

type objectAPI interface {
	PutObject(
		ctx context.Context,
		in *s3.PutObjectInput,
		opts ...func(*s3.Options),
	) (*s3.PutObjectOutput, error)
	DeleteObject(
		ctx context.Context,
		in *s3.DeleteObjectInput,
		opts ...func(*s3.Options),
	) (*s3.DeleteObjectOutput, error)
}

// S3Store talks to any S3-compatible bucket (R2, MinIO, S3).
type S3Store struct {
	client        objectAPI
	bucket        string
	keyPrefix     string
	publicBaseURL string
}

func NewS3Store(ctx context.Context, cfg config.StorageConfig) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" && cfg.Endpoint != "" {
		baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		keyPrefix:     strings.Trim(cfg.KeyPrefix, "/"),
		publicBaseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *S3Store) Store(ctx context.Context, upload Upload) (Object, error) {
	key := s.objectKey(upload.Filename)

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(upload.Data),
		ContentLength: aws.Int64(int64(len(upload.Data))),
		ContentType:   aws.String(contentType),
	})
	metrics.AttachmentOps.WithLabelValues("store", metrics.Outcome(err)).Inc()
	if err != nil {
		return Object{}, fmt.Errorf("put object: %w: %w", core.ErrUpstream, err)
	}

	return Object{URL: s.publicBaseURL + "/" + key, Key: key}, nil
}

func (s *S3Store) Release(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	metrics.AttachmentOps.WithLabelValues("release", metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("delete object %s: %w: %w", key, core.ErrUpstream, err)
	}
	return nil
}

func (s *S3Store) objectKey(filename string) string {
	name := uuid.New().String() + strings.ToLower(path.Ext(filename))
	if s.keyPrefix == "" {
		return name
	}
	return s.keyPrefix + "/" + name
}

// Disabled rejects every upload. Used when no bucket is configured so
// cash-only ledgers still work.
type Disabled struct{}

func (Disabled) Store(context.Context, Upload) (Object, error) {
	return Object{}, fmt.Errorf("attachment storage disabled: %w", core.ErrUpstream)
}

func (Disabled) Release(context.Context, string) error {
	return nil
}

// StoreAll uploads concurrently and returns objects in upload order. If any
// upload fails, the ones that succeeded are released before returning.
func StoreAll(
	ctx context.Context,
	store Store,
	uploads []Upload,
	logger *slog.Logger,
) ([]Object, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	objects := make([]Object, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)

	for i, upload := range uploads {
		g.Go(func() error {
			obj, err := store.Store(gctx, upload)
			if err != nil {
				return err
			}
			objects[i] = obj
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var stored []string
		for _, obj := range objects {
			if obj.Key != "" {
				stored = append(stored, obj.Key)
			}
		}
		ReleaseAll(context.WithoutCancel(ctx), store, stored, logger)
		return nil, fmt.Errorf("store attachments: %w", err)
	}

	return objects, nil
}

// ReleaseAll attempts every key independently and never fails. Each
// failure is logged and recorded on the active span; the count of
// failures is returned.
func ReleaseAll(
	ctx context.Context,
	store Store,
	keys []string,
	logger *slog.Logger,
) int {
	if len(keys) == 0 {
		return 0
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
	)

	for _, key := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := store.Release(ctx, key); err != nil {
				logger.Warn("attachment release failed",
					"key", key,
					"error", err,
				)
				core.AddSpanEvent(ctx, "attachment.release_failed",
					core.AttrAttachment.String(key),
					attribute.String("error", err.Error()),
				)

				mu.Lock()
				failures++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return failures
}
