package main

import (
	"context"
	"flag"
	"os"

	"labeling/internal"

	"github.com/sirupsen/logrus"
)

func main() {
	datastoreURI := flag.String("datastore-uri", "",
		"location of the data collected by the hosted model (s3://bucket/prefix or sqlite:///path/to/database.db)")
	endpointName := flag.String("endpoint", "",
		"SageMaker endpoint to resolve the datastore location from, when -datastore-uri is not set")
	groundTruthURI := flag.String("ground-truth-uri", "",
		"S3 location where the ground truth labels are stored (required for S3 datastores)")
	quality := flag.Float64("ground-truth-quality", internal.DefaultGroundTruthQuality,
		"probability that a synthetic label matches the model's prediction")
	report := flag.Bool("report", false, "upload a PDF run report next to the ground truth payload")
	notify := flag.Bool("notify", false, "publish an SNS notification when the run uploads ground truth")
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx := context.Background()

	if *datastoreURI == "" && *endpointName != "" {
		uri, err := internal.ResolveCaptureURI(ctx, *endpointName)
		if err != nil {
			log.WithError(err).Fatal("failed to resolve the endpoint's data capture location")
		}
		*datastoreURI = uri
	}
	if *datastoreURI == "" {
		log.Fatal("either -datastore-uri or -endpoint is required")
	}

	store, err := internal.NewS3Store(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize object storage")
	}

	runner := &internal.Runner{Store: store, Log: log}
	result, err := runner.Run(ctx, internal.RunParams{
		DatastoreURI:   *datastoreURI,
		GroundTruthURI: *groundTruthURI,
		Quality:        *quality,
	})
	if err != nil {
		log.WithError(err).Fatal("labeling run failed")
	}
	if result == nil {
		log.Info("labeling run finished without uploading ground truth")
		return
	}

	if *report {
		if err := internal.UploadRunReport(ctx, store, *groundTruthURI, result); err != nil {
			log.WithError(err).Warn("failed to upload run report")
		}
	}
	if *notify {
		if err := internal.NotifyRunUploaded(ctx, result); err != nil {
			log.WithError(err).Warn("failed to publish run notification")
		}
	}
}
