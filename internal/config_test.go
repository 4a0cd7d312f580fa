package internal

import (
	"errors"
	"testing"
	"time"
)

func TestParseDatastoreURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    DatastoreLocation
		wantErr error
	}{
		{
			name: "s3 with prefix",
			uri:  "s3://penguins/datastore",
			want: DatastoreLocation{Kind: DatastoreS3, Bucket: "penguins", Prefix: "datastore"},
		},
		{
			name: "s3 with trailing slash",
			uri:  "s3://penguins/datastore/",
			want: DatastoreLocation{Kind: DatastoreS3, Bucket: "penguins", Prefix: "datastore"},
		},
		{
			name: "s3 bucket only",
			uri:  "s3://penguins",
			want: DatastoreLocation{Kind: DatastoreS3, Bucket: "penguins"},
		},
		{
			name: "sqlite file",
			uri:  "sqlite:///path/to/penguins.db",
			want: DatastoreLocation{Kind: DatastoreSQLite, Path: "/path/to/penguins.db"},
		},
		{
			name:    "unsupported scheme",
			uri:     "https://penguins/datastore",
			wantErr: ErrInvalidDatastoreURI,
		},
		{
			name:    "empty",
			uri:     "",
			wantErr: ErrInvalidDatastoreURI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDatastoreURI(tt.uri)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseDatastoreURI(%q) error = %v, want %v", tt.uri, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDatastoreURI(%q): %v", tt.uri, err)
			}
			if got != tt.want {
				t.Errorf("ParseDatastoreURI(%q) = %+v, want %+v", tt.uri, got, tt.want)
			}
		})
	}
}

func TestParseS3URI(t *testing.T) {
	loc, err := ParseS3URI("s3://penguins/ground-truth/")
	if err != nil {
		t.Fatalf("ParseS3URI: %v", err)
	}
	if loc.Bucket != "penguins" || loc.Prefix != "ground-truth" {
		t.Errorf("got %+v, want bucket penguins, prefix ground-truth", loc)
	}

	if _, err := ParseS3URI("s3://"); err == nil {
		t.Error("ParseS3URI accepted a URI without a bucket")
	}
	if _, err := ParseS3URI("/local/path"); err == nil {
		t.Error("ParseS3URI accepted a non-S3 URI")
	}
}

func TestValidateQuality(t *testing.T) {
	for _, q := range []float64{0, 0.5, 0.8, 1} {
		if err := ValidateQuality(q); err != nil {
			t.Errorf("ValidateQuality(%g): %v", q, err)
		}
	}
	for _, q := range []float64{-0.1, 1.01, 2} {
		if err := ValidateQuality(q); err == nil {
			t.Errorf("ValidateQuality(%g) accepted an out-of-range value", q)
		}
	}
}

func TestGroundTruthKey(t *testing.T) {
	at := time.Date(2026, 8, 29, 7, 41, 9, 0, time.UTC)

	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "with prefix", prefix: "ground-truth", want: "ground-truth/2026/08/29/07/4109.jsonl"},
		{name: "trailing slash", prefix: "ground-truth/", want: "ground-truth/2026/08/29/07/4109.jsonl"},
		{name: "empty prefix", prefix: "", want: "2026/08/29/07/4109.jsonl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GroundTruthKey(tt.prefix, at); got != tt.want {
				t.Errorf("GroundTruthKey(%q) = %q, want %q", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestGroundTruthKeyUsesUTC(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	at := time.Date(2026, 8, 29, 1, 30, 0, 0, zone)
	want := "gt/2026/08/28/23/3000.jsonl"
	if got := GroundTruthKey("gt", at); got != want {
		t.Errorf("GroundTruthKey = %q, want %q", got, want)
	}
}
