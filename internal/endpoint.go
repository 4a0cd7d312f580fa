package internal

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
)

// ResolveCaptureURI looks up the S3 destination where the given SageMaker
// endpoint stores its captured request/response data. This is the
// datastore the labeling step reads from.
func ResolveCaptureURI(ctx context.Context, endpointName string) (string, error) {
	cfg, err := getAWSConfig(ctx)
	if err != nil {
		return "", err
	}
	client := sagemaker.NewFromConfig(cfg)

	out, err := client.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{
		EndpointName: aws.String(endpointName),
	})
	if err != nil {
		return "", fmt.Errorf("describe endpoint %q: %w", endpointName, err)
	}
	if out.DataCaptureConfig == nil || out.DataCaptureConfig.DestinationS3Uri == nil {
		return "", fmt.Errorf("endpoint %q has no data capture destination configured", endpointName)
	}
	return *out.DataCaptureConfig.DestinationS3Uri, nil
}
