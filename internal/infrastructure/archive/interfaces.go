package archive

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/davidleathers/account-intelligence-backend/internal/service/crossref"
)

// ResultSink persists analysis results. Implementations must be safe for
// concurrent use; the batch runner stores results from several goroutines.
type ResultSink interface {
	// Store writes one result and returns where it was written
	Store(ctx context.Context, result *crossref.AnalysisResult) (string, error)
}

// Config selects and configures a sink
type Config struct {
	// Provider is "file" or "s3"
	Provider string
	// Directory receives result files for the file provider
	Directory string

	Bucket string
	Prefix string
	Region string
	// Endpoint overrides the S3 endpoint, e.g. for MinIO or LocalStack
	Endpoint string
	Timeout  time.Duration
}

// DefaultConfig returns a file sink writing to ./out
func DefaultConfig() Config {
	return Config{
		Provider:  "file",
		Directory: "out",
		Region:    "us-east-1",
		Timeout:   30 * time.Second,
	}
}

// ObjectName is the file or key name of a result: <customer_id>.analysis.json.
// Path separators in the customer ID are replaced so a result can never escape
// its directory or prefix.
func ObjectName(customerID string) string {
	id := strings.NewReplacer("/", "_", "\\", "_").Replace(customerID)
	if id == "" || id == "." || id == ".." {
		id = "_"
	}
	return id + ".analysis.json"
}

func objectKey(prefix, customerID string) string {
	if prefix == "" {
		return ObjectName(customerID)
	}
	return path.Join(prefix, ObjectName(customerID))
}

func encode(result *crossref.AnalysisResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}
