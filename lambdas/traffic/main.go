package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"labeling/internal"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

// trafficInput configures one traffic-generation burst. Endpoint falls
// back to the SAGEMAKER_ENDPOINT env var.
type trafficInput struct {
	Endpoint string `json:"endpoint,omitempty"`
	Count    int    `json:"count,omitempty"`
}

type trafficOutput struct {
	Endpoint string `json:"endpoint"`
	Sent     int    `json:"sent"`
}

func handler(ctx context.Context, input trafficInput) (trafficOutput, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.Info("Traffic Lambda triggered")

	endpoint := input.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("SAGEMAKER_ENDPOINT")
	}
	if endpoint == "" {
		return trafficOutput{}, fmt.Errorf("SAGEMAKER_ENDPOINT not configured")
	}

	count := input.Count
	if count <= 0 {
		count = 10
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	sent, err := internal.GenerateTraffic(ctx, endpoint, count, rnd)
	if err != nil {
		return trafficOutput{Endpoint: endpoint, Sent: sent}, err
	}

	log.WithFields(logrus.Fields{"endpoint": endpoint, "sent": sent}).Info("generated endpoint traffic")
	return trafficOutput{Endpoint: endpoint, Sent: sent}, nil
}

func main() {
	lambda.Start(handler)
}
