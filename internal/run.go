package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// RunParams are the parameters of one labeling run, mirroring the
// pipeline step inputs.
type RunParams struct {
	DatastoreURI   string
	GroundTruthURI string
	Quality        float64
}

// RunResult summarizes a completed labeling run.
type RunResult struct {
	RunID          string
	Rows           int
	Events         int
	Substituted    int
	DestinationKey string
	Quality        float64
	LabelCounts    map[string]int
}

// Runner executes the labeling step: load unlabeled collected data,
// generate synthetic ground truth, upload the payload.
type Runner struct {
	Store   ObjectStore
	Log     logrus.FieldLogger
	Labeler *Labeler

	// Now is the clock used for the destination key and run id.
	// Defaults to time.Now.
	Now func() time.Time
}

// Run validates the parameters and executes the step. A SQLite datastore
// is currently a recognized no-op and returns a nil result. An empty
// dataset also returns a nil result without touching the destination.
func (r *Runner) Run(ctx context.Context, params RunParams) (*RunResult, error) {
	if err := ValidateQuality(params.Quality); err != nil {
		return nil, err
	}
	datastore, err := ParseDatastoreURI(params.DatastoreURI)
	if err != nil {
		return nil, err
	}

	switch datastore.Kind {
	case DatastoreSQLite:
		r.Log.WithField("path", datastore.Path).Info("SQLite datastore labeling is not implemented; nothing to do")
		return nil, nil
	case DatastoreS3:
		return r.labelSageMakerData(ctx, datastore, params)
	default:
		return nil, ErrInvalidDatastoreURI
	}
}

// labelSageMakerData labels data captured by a SageMaker endpoint and
// uploads the ground-truth payload next to the configured location.
func (r *Runner) labelSageMakerData(ctx context.Context, datastore DatastoreLocation, params RunParams) (*RunResult, error) {
	if params.GroundTruthURI == "" {
		return nil, ErrGroundTruthLocationRequired
	}
	groundTruth, err := ParseS3URI(params.GroundTruthURI)
	if err != nil {
		return nil, fmt.Errorf("ground-truth location: %w", err)
	}

	rows, err := LoadUnlabeledCollectedData(ctx, r.Store,
		S3Location{Bucket: datastore.Bucket, Prefix: datastore.Prefix}, groundTruth)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		r.Log.Info("no unlabeled data collected by the endpoint; nothing to do")
		return nil, nil
	}

	labeler := r.Labeler
	if labeler == nil {
		labeler = NewLabeler(params.Quality)
	}
	records, substituted := labeler.LabelRows(rows)

	payload, err := EncodeGroundTruth(records)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	uploadTime := now().UTC()
	key := GroundTruthKey(groundTruth.Prefix, uploadTime)

	if err := r.Store.Put(ctx, groundTruth.Bucket, key, payload); err != nil {
		return nil, fmt.Errorf("upload ground truth payload: %w", err)
	}

	counts := make(map[string]int)
	for _, record := range records {
		for _, label := range record.GroundTruthData.Data {
			counts[label]++
		}
	}

	result := &RunResult{
		RunID:          fmt.Sprintf("label-%d", uploadTime.UnixNano()),
		Rows:           len(rows),
		Events:         len(records),
		Substituted:    substituted,
		DestinationKey: key,
		Quality:        labeler.Quality,
		LabelCounts:    counts,
	}
	r.Log.WithFields(logrus.Fields{
		"events":      result.Events,
		"rows":        result.Rows,
		"substituted": result.Substituted,
		"key":         result.DestinationKey,
	}).Info("uploaded ground truth payload")
	return result, nil
}
