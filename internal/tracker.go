package internal

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// LabelRunItem represents one labeling run in the label-run-tracker
// DynamoDB table. Primary key: run_id (HASH), status (RANGE).
type LabelRunItem struct {
	RunID          string `dynamodbav:"run_id" json:"run_id"`
	Status         string `dynamodbav:"status" json:"status"`
	Rows           int    `dynamodbav:"rows" json:"rows"`
	Events         int    `dynamodbav:"events" json:"events"`
	Substituted    int    `dynamodbav:"substituted" json:"substituted"`
	DestinationKey string `dynamodbav:"destination_key" json:"destination_key"`
	CreatedOn      int64  `dynamodbav:"createdon" json:"createdon_ms"`
	UpdatedOn      int64  `dynamodbav:"updatedon" json:"updatedon_ms"`
}

// labelRunTable returns the tracker table name; override with
// LABEL_RUN_TRACKER_TABLE.
func labelRunTable() string {
	table := os.Getenv("LABEL_RUN_TRACKER_TABLE")
	if table == "" {
		table = "label-run-tracker"
	}
	return table
}

// SaveLabelRunItem writes a labeling run record to the tracker table.
// CreatedOn/UpdatedOn default to the current epoch millis when unset.
func SaveLabelRunItem(ctx context.Context, item LabelRunItem) error {
	cfg, err := getAWSConfig(ctx)
	if err != nil {
		return err
	}
	client := dynamodb.NewFromConfig(cfg)

	nowEpochMs := time.Now().UTC().UnixMilli()
	if item.CreatedOn == 0 {
		item.CreatedOn = nowEpochMs
	}
	if item.UpdatedOn == 0 {
		item.UpdatedOn = nowEpochMs
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	table := labelRunTable()
	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &table,
		Item:      av,
	})
	return err
}

// GetLabelRunItem fetches a labeling run record by run id and status.
// Returns (nil, nil) if no such item exists.
func GetLabelRunItem(ctx context.Context, runID, status string) (*LabelRunItem, error) {
	cfg, err := getAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(cfg)

	key, err := attributevalue.MarshalMap(struct {
		RunID  string `dynamodbav:"run_id"`
		Status string `dynamodbav:"status"`
	}{
		RunID:  runID,
		Status: status,
	})
	if err != nil {
		return nil, err
	}

	consistent := true
	table := labelRunTable()
	out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &table,
		Key:            key,
		ConsistentRead: &consistent,
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var item LabelRunItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListRecentLabelRuns returns at most 'limit' runs created on or after
// sinceEpochMs. Uses a Scan with FilterExpression; the table is small.
func ListRecentLabelRuns(ctx context.Context, sinceEpochMs int64, limit int) ([]LabelRunItem, error) {
	cfg, err := getAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(cfg)

	if limit <= 0 {
		limit = 100
	}
	exprValues, err := attributevalue.MarshalMap(map[string]int64{":since": sinceEpochMs})
	if err != nil {
		return nil, err
	}

	table := labelRunTable()
	var items []LabelRunItem
	var lastKey map[string]types.AttributeValue
	for {
		out, err := client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 &table,
			FilterExpression:          awsString("createdon >= :since"),
			ExpressionAttributeValues: exprValues,
			ExclusiveStartKey:         lastKey,
			Limit:                     awsInt32(int32(limit - len(items))),
		})
		if err != nil {
			return nil, err
		}
		var batch []LabelRunItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &batch); err != nil {
			return nil, err
		}
		items = append(items, batch...)
		if len(items) >= limit || len(out.LastEvaluatedKey) == 0 {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return items, nil
}

func awsString(s string) *string { return &s }
func awsInt32(v int32) *int32    { return &v }
