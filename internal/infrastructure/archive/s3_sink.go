package archive

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/errors"
	"github.com/davidleathers/account-intelligence-backend/internal/service/crossref"
)

// S3API is the subset of the S3 client used by S3Sink
type S3API interface {
	HeadBucket(ctx context.Context, input *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads each result as a JSON object under an optional key prefix
type S3Sink struct {
	client  S3API
	bucket  string
	prefix  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewS3Sink loads the default AWS credential chain and verifies the bucket is
// reachable
func NewS3Sink(ctx context.Context, cfg Config, logger *zap.Logger) (*S3Sink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, errors.NewInternalError("failed to load AWS config").WithCause(err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Sink(ctx, client, cfg, logger)
}

func newS3Sink(ctx context.Context, client S3API, cfg Config, logger *zap.Logger) (*S3Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Bucket == "" {
		return nil, errors.NewValidationError("INVALID_CONFIG", "bucket is required for the s3 sink")
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, errors.NewInternalError("bucket is not accessible").
			WithCause(err).
			WithDetails(map[string]interface{}{"bucket": cfg.Bucket})
	}

	return &S3Sink{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		timeout: cfg.Timeout,
		logger:  logger.Named("s3_sink"),
	}, nil
}

// Store uploads the result; the returned location is an s3:// URI
func (s *S3Sink) Store(ctx context.Context, result *crossref.AnalysisResult) (string, error) {
	data, err := encode(result)
	if err != nil {
		return "", errors.NewInternalError("failed to encode analysis result").WithCause(err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	key := objectKey(s.prefix, result.CustomerID)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"session-id":   result.SessionID,
			"customer-id":  result.CustomerID,
			"risk-level":   string(result.RiskAssessment.RiskLevel),
			"health-score": strconv.Itoa(result.HealthView.UnifiedHealthScore),
		},
	})
	if err != nil {
		return "", errors.NewInternalError("failed to upload analysis result").
			WithCause(err).
			WithDetails(map[string]interface{}{"bucket": s.bucket, "key": key})
	}

	location := "s3://" + s.bucket + "/" + key
	s.logger.Debug("stored analysis result",
		zap.String("customer_id", result.CustomerID),
		zap.String("location", location))
	return location, nil
}
