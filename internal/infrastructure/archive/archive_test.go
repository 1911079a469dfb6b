package archive

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/davidleathers/account-intelligence-backend/internal/domain/errors"
	"github.com/davidleathers/account-intelligence-backend/internal/service/crossref"
)

// MockS3Client is a mock implementation of S3API
type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) HeadBucket(ctx context.Context, input *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.HeadBucketOutput), args.Error(1)
}

func (m *MockS3Client) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func sampleResult(customerID string) *crossref.AnalysisResult {
	return &crossref.AnalysisResult{
		SessionID:  "session-1",
		CustomerID: customerID,
		RiskAssessment: crossref.MultiSignalRiskAssessment{
			RiskLevel: crossref.RiskHigh,
		},
		HealthView: crossref.CustomerHealthView{UnifiedHealthScore: 55},
	}
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		customerID string
		expected   string
	}{
		{customerID: "cust-1", expected: "cust-1.analysis.json"},
		{customerID: "../etc/passwd", expected: ".._etc_passwd.analysis.json"},
		{customerID: `a\b`, expected: "a_b.analysis.json"},
		{customerID: "", expected: "_.analysis.json"},
		{customerID: "..", expected: "_.analysis.json"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ObjectName(tt.customerID), tt.customerID)
	}
}

func TestFileSink_Store(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	sink, err := NewFileSink(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	location, err := sink.Store(context.Background(), sampleResult("cust-1"))

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cust-1.analysis.json"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	var decoded crossref.AnalysisResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "session-1", decoded.SessionID)
	assert.Equal(t, crossref.RiskHigh, decoded.RiskAssessment.RiskLevel)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFileSink_Overwrites(t *testing.T) {
	sink, err := NewFileSink(t.TempDir(), nil)
	require.NoError(t, err)

	first := sampleResult("cust-1")
	_, err = sink.Store(context.Background(), first)
	require.NoError(t, err)

	second := sampleResult("cust-1")
	second.SessionID = "session-2"
	location, err := sink.Store(context.Background(), second)
	require.NoError(t, err)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session-2")
}

func TestFileSink_CancelledContext(t *testing.T) {
	sink, err := NewFileSink(t.TempDir(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sink.Store(ctx, sampleResult("cust-1"))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFileSink_RequiresDirectory(t *testing.T) {
	_, err := NewFileSink("", nil)

	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestS3Sink_Store(t *testing.T) {
	client := new(MockS3Client)
	client.On("HeadBucket", mock.Anything, mock.Anything).Return(&s3.HeadBucketOutput{}, nil)

	var body []byte
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "results" && aws.ToString(in.Key) == "daily/cust-1.analysis.json"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		body, _ = io.ReadAll(in.Body)
		assert.Equal(t, "high", in.Metadata["risk-level"])
		assert.Equal(t, "55", in.Metadata["health-score"])
	}).Return(&s3.PutObjectOutput{}, nil)

	sink, err := newS3Sink(context.Background(), client, Config{Bucket: "results", Prefix: "daily"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	location, err := sink.Store(context.Background(), sampleResult("cust-1"))

	require.NoError(t, err)
	assert.Equal(t, "s3://results/daily/cust-1.analysis.json", location)
	assert.Contains(t, string(body), `"customer_id": "cust-1"`)
	client.AssertExpectations(t)
}

func TestS3Sink_UploadFailure(t *testing.T) {
	client := new(MockS3Client)
	client.On("HeadBucket", mock.Anything, mock.Anything).Return(&s3.HeadBucketOutput{}, nil)
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	sink, err := newS3Sink(context.Background(), client, Config{Bucket: "results"}, nil)
	require.NoError(t, err)

	_, err = sink.Store(context.Background(), sampleResult("cust-1"))

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, errors.IsRetryable(err))
}

func TestNewS3Sink_Validation(t *testing.T) {
	t.Run("missing bucket", func(t *testing.T) {
		_, err := newS3Sink(context.Background(), new(MockS3Client), Config{}, nil)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("bucket not reachable", func(t *testing.T) {
		client := new(MockS3Client)
		client.On("HeadBucket", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		_, err := newS3Sink(context.Background(), client, Config{Bucket: "results"}, nil)

		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestNewSink(t *testing.T) {
	sink, err := NewSink(context.Background(), Config{Provider: "file", Directory: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, sink)

	_, err = NewSink(context.Background(), Config{Provider: "gcs"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
