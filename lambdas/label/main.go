package main

import (
	"context"
	"fmt"

	"labeling/internal"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

// labelInput matches the Step Functions payload for the label step.
// Quality is a pointer so an explicit 0 (always substitute) can be told
// apart from an omitted field.
type labelInput struct {
	DatastoreURI   string   `json:"datastore_uri"`
	GroundTruthURI string   `json:"ground_truth_uri"`
	Quality        *float64 `json:"ground_truth_quality,omitempty"`
}

// labelOutput is passed along to the next state.
type labelOutput struct {
	RunID          string `json:"run_id,omitempty"`
	Events         int    `json:"events"`
	Rows           int    `json:"rows"`
	Substituted    int    `json:"substituted"`
	DestinationKey string `json:"destination_key,omitempty"`
}

func handler(ctx context.Context, input labelInput) (labelOutput, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.Info("Labeling Lambda triggered")

	if input.DatastoreURI == "" {
		return labelOutput{}, fmt.Errorf("missing required field: datastore_uri")
	}
	quality := internal.DefaultGroundTruthQuality
	if input.Quality != nil {
		quality = *input.Quality
	}

	store, err := internal.NewS3Store(ctx)
	if err != nil {
		return labelOutput{}, err
	}

	runner := &internal.Runner{Store: store, Log: log}
	result, err := runner.Run(ctx, internal.RunParams{
		DatastoreURI:   input.DatastoreURI,
		GroundTruthURI: input.GroundTruthURI,
		Quality:        quality,
	})
	if err != nil {
		return labelOutput{}, err
	}
	if result == nil {
		return labelOutput{}, nil
	}

	item := internal.LabelRunItem{
		RunID:          result.RunID,
		Status:         "completed",
		Rows:           result.Rows,
		Events:         result.Events,
		Substituted:    result.Substituted,
		DestinationKey: result.DestinationKey,
	}
	if err := internal.SaveLabelRunItem(ctx, item); err != nil {
		log.WithError(err).Warn("failed to save label run tracker item")
	}
	if err := internal.NotifyRunUploaded(ctx, result); err != nil {
		log.WithError(err).Warn("failed to publish run notification")
	}

	return labelOutput{
		RunID:          result.RunID,
		Events:         result.Events,
		Rows:           result.Rows,
		Substituted:    result.Substituted,
		DestinationKey: result.DestinationKey,
	}, nil
}

func main() {
	lambda.Start(handler)
}
