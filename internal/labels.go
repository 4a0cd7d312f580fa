package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// PenguinSpecies is the closed label universe. Random substitutions draw
// from this set only.
var PenguinSpecies = []string{"Adelie", "Chinstrap", "Gentoo"}

// CollectedRow is one unlabeled row captured by the hosted endpoint.
// Rows sharing an EventID belong to the same inference event.
type CollectedRow struct {
	EventID    string
	Prediction string
	Confidence float64
}

// GroundTruthData holds the labels for every row of one event, in the
// order the rows were received.
type GroundTruthData struct {
	Data     []string `json:"data"`
	Encoding string   `json:"encoding"`
}

// EventMetadata identifies the captured event a ground-truth record
// belongs to. EventId must match the id recorded by the endpoint.
type EventMetadata struct {
	EventID string `json:"eventId"`
}

// GroundTruthRecord is one line of the ground-truth payload consumed by
// the monitoring process.
type GroundTruthRecord struct {
	GroundTruthData GroundTruthData `json:"groundTruthData"`
	EventMetadata   EventMetadata   `json:"eventMetadata"`
	EventVersion    string          `json:"eventVersion"`
}

// Labeler generates synthetic ground-truth labels for collected rows.
// With probability Quality a row keeps the model's original prediction;
// otherwise the label is drawn uniformly from PenguinSpecies. The draw is
// independent of the original value, so it may reproduce it by chance.
type Labeler struct {
	Quality float64
	Rand    *rand.Rand
}

// NewLabeler returns a Labeler with its own time-seeded random source.
func NewLabeler(quality float64) *Labeler {
	return &Labeler{
		Quality: quality,
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// LabelRows groups rows by event id and produces one GroundTruthRecord
// per event. Event groups are emitted in sorted id order; row order
// within each group is preserved. Substituted reports how many labels
// were replaced with a random draw.
func (l *Labeler) LabelRows(rows []CollectedRow) (records []GroundTruthRecord, substituted int) {
	groups := make(map[string][]string)
	for _, row := range rows {
		label := row.Prediction
		if l.Rand.Float64() >= l.Quality {
			label = PenguinSpecies[l.Rand.Intn(len(PenguinSpecies))]
			substituted++
		}
		groups[row.EventID] = append(groups[row.EventID], label)
	}

	eventIDs := make([]string, 0, len(groups))
	for id := range groups {
		eventIDs = append(eventIDs, id)
	}
	sort.Strings(eventIDs)

	for _, id := range eventIDs {
		records = append(records, GroundTruthRecord{
			GroundTruthData: GroundTruthData{
				Data:     groups[id],
				Encoding: "CSV",
			},
			EventMetadata: EventMetadata{EventID: id},
			EventVersion:  "0",
		})
	}
	return records, substituted
}

// EncodeGroundTruth serializes records as newline-delimited JSON, one
// object per line.
func EncodeGroundTruth(records []GroundTruthRecord) ([]byte, error) {
	var buf bytes.Buffer
	for i, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("marshal ground truth record %q: %w", record.EventMetadata.EventID, err)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(line)
	}
	return buf.Bytes(), nil
}
