package internal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// capturePayload is one side (input or output) of a SageMaker data
// capture record.
type capturePayload struct {
	Data                string `json:"data"`
	Encoding            string `json:"encoding"`
	Mode                string `json:"mode"`
	ObservedContentType string `json:"observedContentType"`
}

// captureRecord matches one line of a SageMaker data capture file.
type captureRecord struct {
	CaptureData struct {
		EndpointInput  capturePayload `json:"endpointInput"`
		EndpointOutput capturePayload `json:"endpointOutput"`
	} `json:"captureData"`
	EventMetadata struct {
		EventID       string `json:"eventId"`
		InferenceTime string `json:"inferenceTime"`
	} `json:"eventMetadata"`
	EventVersion string `json:"eventVersion"`
}

// endpointOutput is the JSON document the model writes into
// endpointOutput.data: one prediction per input row.
type endpointOutput struct {
	Predictions []struct {
		Prediction string  `json:"prediction"`
		Confidence float64 `json:"confidence"`
	} `json:"predictions"`
}

// ParseCaptureData extracts one CollectedRow per predicted row from the
// newline-delimited capture file contents. Lines without an endpoint
// output are skipped.
func ParseCaptureData(data []byte) ([]CollectedRow, error) {
	var rows []CollectedRow
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record captureRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("parse capture record: %w", err)
		}
		if record.CaptureData.EndpointOutput.Data == "" {
			continue
		}
		var out endpointOutput
		if err := json.Unmarshal([]byte(record.CaptureData.EndpointOutput.Data), &out); err != nil {
			return nil, fmt.Errorf("parse endpoint output for event %q: %w", record.EventMetadata.EventID, err)
		}
		for _, p := range out.Predictions {
			rows = append(rows, CollectedRow{
				EventID:    record.EventMetadata.EventID,
				Prediction: p.Prediction,
				Confidence: p.Confidence,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan capture data: %w", err)
	}
	return rows, nil
}

// LoadLabeledEventIDs collects the event ids already present under the
// ground-truth prefix, so reruns don't label the same events twice.
func LoadLabeledEventIDs(ctx context.Context, store ObjectStore, groundTruth S3Location) (map[string]bool, error) {
	keys, err := store.List(ctx, groundTruth.Bucket, groundTruth.Prefix)
	if err != nil {
		return nil, fmt.Errorf("list ground truth objects: %w", err)
	}

	labeled := make(map[string]bool)
	for _, key := range keys {
		if !strings.HasSuffix(key, ".jsonl") {
			continue
		}
		data, err := store.Get(ctx, groundTruth.Bucket, key)
		if err != nil {
			return nil, fmt.Errorf("load ground truth object %q: %w", key, err)
		}
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var record GroundTruthRecord
			if err := json.Unmarshal(line, &record); err != nil {
				return nil, fmt.Errorf("parse ground truth record in %q: %w", key, err)
			}
			labeled[record.EventMetadata.EventID] = true
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}
	return labeled, nil
}

// LoadUnlabeledCollectedData reads every capture file under the
// datastore prefix and returns the rows of events that have no ground
// truth yet. Returns an empty slice when nothing was captured.
func LoadUnlabeledCollectedData(ctx context.Context, store ObjectStore, datastore, groundTruth S3Location) ([]CollectedRow, error) {
	keys, err := store.List(ctx, datastore.Bucket, datastore.Prefix)
	if err != nil {
		return nil, fmt.Errorf("list capture objects: %w", err)
	}

	var rows []CollectedRow
	for _, key := range keys {
		if !strings.HasSuffix(key, ".jsonl") {
			continue
		}
		data, err := store.Get(ctx, datastore.Bucket, key)
		if err != nil {
			return nil, fmt.Errorf("load capture object %q: %w", key, err)
		}
		parsed, err := ParseCaptureData(data)
		if err != nil {
			return nil, fmt.Errorf("capture object %q: %w", key, err)
		}
		rows = append(rows, parsed...)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	labeled, err := LoadLabeledEventIDs(ctx, store, groundTruth)
	if err != nil {
		return nil, err
	}

	unlabeled := rows[:0]
	for _, row := range rows {
		if !labeled[row.EventID] {
			unlabeled = append(unlabeled, row)
		}
	}
	return unlabeled, nil
}
