package internal

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
)

// samplePenguins are feature rows (island, culmen length/depth, flipper
// length, body mass) sent to the endpoint to produce capture data for
// the labeling step to pick up.
var samplePenguins = []string{
	"Torgersen,39.1,18.7,181,3750",
	"Torgersen,40.3,18.0,195,3250",
	"Biscoe,46.5,14.5,213,4400",
	"Biscoe,49.9,16.1,213,5400",
	"Dream,46.5,17.9,192,3500",
	"Dream,50.0,19.5,196,3900",
	"Biscoe,37.8,18.3,174,3400",
	"Dream,45.2,16.6,191,3250",
}

// GenerateTraffic invokes the SageMaker endpoint with count random sample
// rows, one invocation per row, so the endpoint's data capture records
// one event per request. Returns the number of successful invocations.
func GenerateTraffic(ctx context.Context, endpointName string, count int, rnd *rand.Rand) (int, error) {
	if endpointName == "" {
		return 0, fmt.Errorf("endpoint name is required")
	}
	if count <= 0 {
		count = 1
	}

	cfg, err := getAWSConfig(ctx)
	if err != nil {
		return 0, err
	}
	client := sagemakerruntime.NewFromConfig(cfg)

	sent := 0
	for i := 0; i < count; i++ {
		row := samplePenguins[rnd.Intn(len(samplePenguins))]
		_, err := client.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
			EndpointName: aws.String(endpointName),
			Body:         []byte(row + "\n"),
			ContentType:  aws.String("text/csv"),
			Accept:       aws.String("application/json"),
		})
		if err != nil {
			return sent, fmt.Errorf("invoke endpoint %q: %w", endpointName, err)
		}
		sent++
	}
	return sent, nil
}
