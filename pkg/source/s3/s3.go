// Package s3 opens Spark event logs stored in AWS S3 or S3-compatible
// object stores.
package s3

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"golang.org/x/time/rate"

	"github.com/sparkqual/sparkqual/pkg/source"
)

// DefaultMaxKeys is the page size for List operations.
const DefaultMaxKeys = 1000

// Config configures an S3 log store.
//
// Credentials follow the AWS SDK v2 default chain unless AccessKeyID
// and SecretAccessKey are set explicitly. For S3-compatible stores
// (MinIO, Wasabi), set Endpoint and typically ForcePathStyle.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool

	// RateLimit caps List requests per second. Zero means unlimited.
	RateLimit float64

	// MaxKeys is the List page size. Zero uses DefaultMaxKeys.
	MaxKeys int
}

// Store lists and opens event logs in one bucket.
type Store struct {
	client  *awss3.Client
	bucket  string
	limiter *rate.Limiter
	maxKeys int
}

// New builds a Store from the config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, &source.SourceError{Op: "configure", Name: cfg.Bucket, Err: err}
	}

	s3Opts := []func(*awss3.Options){
		func(o *awss3.Options) {
			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}
		},
	}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	maxKeys := cfg.MaxKeys
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}

	return &Store{
		client:  awss3.NewFromConfig(awsCfg, s3Opts...),
		bucket:  cfg.Bucket,
		limiter: limiter,
		maxKeys: maxKeys,
	}, nil
}

func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	return config.LoadDefaultConfig(ctx, opts...)
}

// List returns the keys under prefix, across all pages, honoring the
// configured rate limit.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var token *string
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		input := &awss3.ListObjectsV2Input{
			Bucket:  aws.String(s.bucket),
			MaxKeys: aws.Int32(int32(s.maxKeys)),
		}
		if prefix != "" {
			input.Prefix = aws.String(prefix)
		}
		input.ContinuationToken = token

		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, wrapError("list", s.bucket+"/"+prefix, err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	return keys, nil
}

// ObjectSource returns a Source reading one key. Gzipped logs are
// decompressed transparently, matching the local file source.
func (s *Store) ObjectSource(key string) source.Source {
	return &objectSource{store: s, key: key}
}

type objectSource struct {
	store *Store
	key   string
}

func (o *objectSource) Name() string {
	return "s3://" + o.store.bucket + "/" + o.key
}

func (o *objectSource) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := o.store.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(o.store.bucket),
		Key:    aws.String(o.key),
	})
	if err != nil {
		return nil, wrapError("get", o.Name(), err)
	}
	if !strings.HasSuffix(o.key, ".gz") {
		return out.Body, nil
	}

	gz, err := gzip.NewReader(out.Body)
	if err != nil {
		_ = out.Body.Close()
		return nil, wrapError("gunzip", o.Name(), err)
	}
	return &gzipBody{gz: gz, body: out.Body}, nil
}

type gzipBody struct {
	gz   *gzip.Reader
	body io.ReadCloser
}

func (g *gzipBody) Read(p []byte) (int, error) {
	return g.gz.Read(p)
}

func (g *gzipBody) Close() error {
	gzErr := g.gz.Close()
	bodyErr := g.body.Close()
	if gzErr != nil {
		return gzErr
	}
	return bodyErr
}

// wrapError surfaces the service error code when the SDK provides one.
func wrapError(op, name string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &source.SourceError{
			Op:   op + " (" + apiErr.ErrorCode() + ")",
			Name: name,
			Err:  err,
		}
	}
	return &source.SourceError{Op: op, Name: name, Err: err}
}
