package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/platinummonkey/mockapi/pkg/apierrors"
	"github.com/sirupsen/logrus"
)

// ErrSourceNotFound is returned by a Source whose document does not exist
var ErrSourceNotFound = errors.New("data document not found")

// Source fetches the raw catalog document
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// FileSource reads the document from the local filesystem
type FileSource struct {
	Path string
}

// Fetch implements Source.Fetch
func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	return data, nil
}

func (s FileSource) String() string {
	return s.Path
}

// ObjectGetter is the subset of the S3 client used by S3Source
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads the document from an object store
type S3Source struct {
	Client ObjectGetter
	Bucket string
	Key    string
}

// Fetch implements Source.Fetch
func (s S3Source) Fetch(ctx context.Context) ([]byte, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, s)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

func (s S3Source) String() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

// S3Config holds object store connection settings
type S3Config struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// NewS3Client creates an S3 client. Static credentials are used when both
// keys are set, otherwise the default credential chain applies.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	}), nil
}

// ParseS3URL splits s3://bucket/key into its parts
func ParseS3URL(location string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(location, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 location: %s", location)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 location must be s3://bucket/key: %s", location)
	}
	return bucket, key, nil
}

// NewSource returns an S3Source for s3:// locations and a FileSource otherwise
func NewSource(ctx context.Context, location string, cfg S3Config) (Source, error) {
	if !strings.HasPrefix(location, "s3://") {
		return FileSource{Path: location}, nil
	}
	bucket, key, err := ParseS3URL(location)
	if err != nil {
		return nil, err
	}
	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return S3Source{Client: client, Bucket: bucket, Key: key}, nil
}

// Load fetches and decodes the document from src. Any failure is
// reported as ServiceUnavailable.
func Load(ctx context.Context, src Source, log *logrus.Logger) (*Repository, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	data, err := src.Fetch(ctx)
	if err != nil {
		log.WithError(err).WithField("source", src.String()).Error("Failed to fetch catalog data")
		if errors.Is(err, ErrSourceNotFound) {
			return nil, apierrors.Unavailable("Data file not found", err)
		}
		return nil, apierrors.Unavailable("Data file unavailable", err)
	}
	return New(data, src.String(), log)
}
