package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
)

// WorkflowParams is the input passed to the labeling state machine. The
// label step Lambda receives the same structure.
type WorkflowParams struct {
	DatastoreURI   string  `json:"datastore_uri"`
	GroundTruthURI string  `json:"ground_truth_uri"`
	Quality        float64 `json:"ground_truth_quality"`
}

// StartLabelingWorkflow starts an execution of the labeling state
// machine with the given parameters and returns the execution ARN.
func StartLabelingWorkflow(ctx context.Context, stateMachineArn string, params WorkflowParams) (string, error) {
	cfg, err := getAWSConfig(ctx)
	if err != nil {
		return "", err
	}
	client := sfn.NewFromConfig(cfg)

	inputJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal workflow input: %w", err)
	}

	execName := fmt.Sprintf("labeling-%d", time.Now().UnixNano())
	out, err := client.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(stateMachineArn),
		Name:            aws.String(execName),
		Input:           aws.String(string(inputJSON)),
	})
	if err != nil {
		return "", err
	}
	if out.ExecutionArn == nil {
		return "", fmt.Errorf("missing execution arn in response")
	}
	return *out.ExecutionArn, nil
}
