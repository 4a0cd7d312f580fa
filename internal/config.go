package internal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultGroundTruthQuality is the probability used when no quality is
// configured: 80% of the synthetic labels match the model's prediction.
const DefaultGroundTruthQuality = 0.8

// ErrGroundTruthLocationRequired indicates the S3 datastore branch was
// selected without a ground-truth destination configured.
var ErrGroundTruthLocationRequired = errors.New("ground-truth location is required when labeling data captured in S3")

// ErrInvalidDatastoreURI indicates the datastore location has an
// unsupported scheme.
var ErrInvalidDatastoreURI = errors.New(
	"invalid datastore location: must be an S3 location in the format `s3://bucket/prefix` " +
		"or a SQLite database file in the format `sqlite:///path/to/database.db`")

// DatastoreKind enumerates the supported datastore backends. The kind is
// decided once, when the URI is parsed, so the rest of the code never
// branches on URI strings.
type DatastoreKind int

const (
	// DatastoreS3 is data captured by a SageMaker endpoint and stored in S3.
	DatastoreS3 DatastoreKind = iota
	// DatastoreSQLite is data collected into a local SQLite database.
	DatastoreSQLite
)

// DatastoreLocation is a parsed, validated datastore URI.
type DatastoreLocation struct {
	Kind DatastoreKind

	// Bucket and Prefix are set for DatastoreS3.
	Bucket string
	Prefix string

	// Path is set for DatastoreSQLite.
	Path string
}

// S3Location addresses an S3 bucket and key prefix.
type S3Location struct {
	Bucket string
	Prefix string
}

// ParseDatastoreURI validates the datastore location and resolves it into
// a closed DatastoreLocation. Unsupported schemes fail here, before any
// data access happens.
func ParseDatastoreURI(uri string) (DatastoreLocation, error) {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		loc, err := ParseS3URI(uri)
		if err != nil {
			return DatastoreLocation{}, err
		}
		return DatastoreLocation{Kind: DatastoreS3, Bucket: loc.Bucket, Prefix: loc.Prefix}, nil
	case strings.HasPrefix(uri, "sqlite://"):
		return DatastoreLocation{Kind: DatastoreSQLite, Path: strings.TrimPrefix(uri, "sqlite://")}, nil
	default:
		return DatastoreLocation{}, ErrInvalidDatastoreURI
	}
}

// ParseS3URI splits an s3://bucket/prefix URI into bucket and prefix.
func ParseS3URI(uri string) (S3Location, error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return S3Location{}, fmt.Errorf("not an S3 URI: %q", uri)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return S3Location{}, fmt.Errorf("missing bucket in S3 URI: %q", uri)
	}
	return S3Location{Bucket: bucket, Prefix: strings.TrimSuffix(prefix, "/")}, nil
}

// ValidateQuality checks that a ground-truth quality probability is in [0, 1].
func ValidateQuality(q float64) error {
	if q < 0 || q > 1 {
		return fmt.Errorf("ground-truth quality must be between 0 and 1, got %g", q)
	}
	return nil
}

// GroundTruthKey builds the destination key for a ground-truth payload
// uploaded at time t: <prefix>/<YYYY>/<MM>/<DD>/<HH>/<MMSS>.jsonl.
// The time is taken in UTC.
func GroundTruthKey(prefix string, t time.Time) string {
	stamp := t.UTC().Format("2006/01/02/15/0405")
	if prefix == "" {
		return stamp + ".jsonl"
	}
	return strings.TrimSuffix(prefix, "/") + "/" + stamp + ".jsonl"
}
