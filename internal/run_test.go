package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// fakeStore is a map-backed ObjectStore for tests.
type fakeStore struct {
	objects   map[string][]byte
	puts      []string
	listCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) path(bucket, key string) string { return bucket + "/" + key }

func (f *fakeStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.objects[f.path(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("no such object: %s/%s", bucket, key)
	}
	return data, nil
}

func (f *fakeStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	p := f.path(bucket, key)
	f.objects[p] = data
	f.puts = append(f.puts, p)
	return nil
}

func (f *fakeStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	f.listCalls++
	var keys []string
	for p := range f.objects {
		if strings.HasPrefix(p, bucket+"/"+prefix) {
			keys = append(keys, strings.TrimPrefix(p, bucket+"/"))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

const captureLineEvent1 = `{"captureData":{"endpointInput":{"observedContentType":"text/csv","mode":"INPUT","data":"Torgersen,39.1,18.7,181,3750\nBiscoe,46.5,14.5,213,4400\n","encoding":"CSV"},"endpointOutput":{"observedContentType":"application/json","mode":"OUTPUT","data":"{\"predictions\":[{\"prediction\":\"Adelie\",\"confidence\":0.98},{\"prediction\":\"Gentoo\",\"confidence\":0.91}]}","encoding":"JSON"}},"eventMetadata":{"eventId":"event-1","inferenceTime":"2026-08-29T07:00:00Z"},"eventVersion":"0"}`

const captureLineEvent2 = `{"captureData":{"endpointInput":{"observedContentType":"text/csv","mode":"INPUT","data":"Dream,45.2,16.6,191,3250\n","encoding":"CSV"},"endpointOutput":{"observedContentType":"application/json","mode":"OUTPUT","data":"{\"predictions\":[{\"prediction\":\"Chinstrap\",\"confidence\":0.88}]}","encoding":"JSON"}},"eventMetadata":{"eventId":"event-2","inferenceTime":"2026-08-29T07:05:00Z"},"eventVersion":"0"}`

func newTestRunner(store ObjectStore) *Runner {
	return &Runner{
		Store:   store,
		Log:     newTestLogger(),
		Labeler: &Labeler{Quality: 1.0, Rand: rand.New(rand.NewSource(1))},
		Now:     func() time.Time { return time.Date(2026, 8, 29, 7, 41, 9, 0, time.UTC) },
	}
}

func TestRunInvalidDatastoreScheme(t *testing.T) {
	store := newFakeStore()
	runner := newTestRunner(store)

	_, err := runner.Run(context.Background(), RunParams{
		DatastoreURI: "ftp://penguins/datastore",
		Quality:      0.8,
	})
	if !errors.Is(err, ErrInvalidDatastoreURI) {
		t.Fatalf("error = %v, want ErrInvalidDatastoreURI", err)
	}
	if store.listCalls != 0 || len(store.puts) != 0 {
		t.Error("storage was accessed despite a configuration error")
	}
}

func TestRunQualityOutOfRange(t *testing.T) {
	runner := newTestRunner(newFakeStore())
	if _, err := runner.Run(context.Background(), RunParams{
		DatastoreURI: "s3://penguins/datastore",
		Quality:      1.5,
	}); err == nil {
		t.Fatal("out-of-range quality was accepted")
	}
}

func TestRunMissingGroundTruthURI(t *testing.T) {
	store := newFakeStore()
	runner := newTestRunner(store)

	_, err := runner.Run(context.Background(), RunParams{
		DatastoreURI: "s3://penguins/datastore",
		Quality:      0.8,
	})
	if !errors.Is(err, ErrGroundTruthLocationRequired) {
		t.Fatalf("error = %v, want ErrGroundTruthLocationRequired", err)
	}
	if store.listCalls != 0 {
		t.Error("data was accessed before the precondition check failed")
	}
}

func TestRunSQLiteIsNoOp(t *testing.T) {
	store := newFakeStore()
	runner := newTestRunner(store)

	result, err := runner.Run(context.Background(), RunParams{
		DatastoreURI: "sqlite:///path/to/penguins.db",
		Quality:      0.8,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil for the SQLite branch", result)
	}
	if store.listCalls != 0 || len(store.puts) != 0 {
		t.Error("storage was accessed on the SQLite branch")
	}
}

func TestRunEmptyDatastoreWritesNothing(t *testing.T) {
	store := newFakeStore()
	runner := newTestRunner(store)

	result, err := runner.Run(context.Background(), RunParams{
		DatastoreURI:   "s3://penguins/datastore",
		GroundTruthURI: "s3://penguins/ground-truth",
		Quality:        0.8,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil for an empty datastore", result)
	}
	if len(store.puts) != 0 {
		t.Errorf("wrote %v despite an empty datastore", store.puts)
	}
}

func TestRunUploadsGroundTruth(t *testing.T) {
	store := newFakeStore()
	store.objects["penguins/datastore/capture/part-0.jsonl"] = []byte(captureLineEvent1 + "\n" + captureLineEvent2)
	runner := newTestRunner(store)

	result, err := runner.Run(context.Background(), RunParams{
		DatastoreURI:   "s3://penguins/datastore",
		GroundTruthURI: "s3://penguins/ground-truth",
		Quality:        1.0,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result == nil {
		t.Fatal("result is nil, want an upload summary")
	}

	wantKey := "ground-truth/2026/08/29/07/4109.jsonl"
	if result.DestinationKey != wantKey {
		t.Errorf("DestinationKey = %q, want %q", result.DestinationKey, wantKey)
	}
	if result.Events != 2 || result.Rows != 3 || result.Substituted != 0 {
		t.Errorf("summary = %d events, %d rows, %d substituted; want 2, 3, 0",
			result.Events, result.Rows, result.Substituted)
	}

	payload, ok := store.objects["penguins/"+wantKey]
	if !ok {
		t.Fatalf("no payload at %q; puts: %v", wantKey, store.puts)
	}
	lines := strings.Split(string(payload), "\n")
	if len(lines) != 2 {
		t.Fatalf("payload has %d lines, want 2", len(lines))
	}
	want := `{"groundTruthData":{"data":["Adelie","Gentoo"],"encoding":"CSV"},"eventMetadata":{"eventId":"event-1"},"eventVersion":"0"}`
	if lines[0] != want {
		t.Errorf("line 0 = %s, want %s", lines[0], want)
	}

	if result.LabelCounts["Adelie"] != 1 || result.LabelCounts["Gentoo"] != 1 || result.LabelCounts["Chinstrap"] != 1 {
		t.Errorf("LabelCounts = %v, want one of each", result.LabelCounts)
	}
}

func TestRunSkipsAlreadyLabeledEvents(t *testing.T) {
	store := newFakeStore()
	store.objects["penguins/datastore/capture/part-0.jsonl"] = []byte(captureLineEvent1 + "\n" + captureLineEvent2)
	store.objects["penguins/ground-truth/2026/08/29/06/0000.jsonl"] = []byte(
		`{"groundTruthData":{"data":["Adelie","Gentoo"],"encoding":"CSV"},"eventMetadata":{"eventId":"event-1"},"eventVersion":"0"}`)
	runner := newTestRunner(store)

	result, err := runner.Run(context.Background(), RunParams{
		DatastoreURI:   "s3://penguins/datastore",
		GroundTruthURI: "s3://penguins/ground-truth",
		Quality:        1.0,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result == nil {
		t.Fatal("result is nil, want an upload for the unlabeled event")
	}
	if result.Events != 1 || result.Rows != 1 {
		t.Errorf("summary = %d events, %d rows; want only event-2 (1, 1)", result.Events, result.Rows)
	}

	payload := store.objects["penguins/"+result.DestinationKey]
	if !strings.Contains(string(payload), `"eventId":"event-2"`) {
		t.Errorf("payload missing event-2: %s", payload)
	}
	if strings.Contains(string(payload), `"eventId":"event-1"`) {
		t.Errorf("payload relabeled event-1: %s", payload)
	}
}
