package internal

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// GenerateRunReportPDF renders a one-page summary of a labeling run:
// run metadata on top, label distribution table below.
func GenerateRunReportPDF(result *RunResult, uploadedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, top, right, _ := pdf.GetMargins()
	usableW := pageW - left - right

	pdf.SetFont("Arial", "B", 18)
	pdf.SetXY(left, top)
	pdf.CellFormat(usableW, 10, "Labeling Run Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	summary := []string{
		fmt.Sprintf("Run: %s", result.RunID),
		fmt.Sprintf("Uploaded: %s", uploadedAt.UTC().Format(time.RFC3339)),
		fmt.Sprintf("Destination: %s", result.DestinationKey),
		fmt.Sprintf("Events: %d    Rows: %d", result.Events, result.Rows),
		fmt.Sprintf("Quality: %.2f    Substituted labels: %d (%.1f%%)",
			result.Quality, result.Substituted, substitutionRate(result)),
	}
	y := top + 14
	for _, line := range summary {
		pdf.SetXY(left, y)
		pdf.CellFormat(usableW, 6, line, "", 1, "L", false, 0, "")
		y += 7
	}
	y += 4

	// Label distribution table
	pdf.SetFont("Arial", "B", 11)
	widths := []float64{usableW * 0.6, usableW * 0.4}
	headers := []string{"Label", "Count"}
	x := left
	for i, h := range headers {
		pdf.Rect(x, y-5, widths[i], 8, "D")
		pdf.Text(x+2, y, h)
		x += widths[i]
	}

	pdf.SetFont("Arial", "", 10)
	y += 10
	for _, label := range sortedLabels(result.LabelCounts) {
		x = left
		cells := []string{label, fmt.Sprintf("%d", result.LabelCounts[label])}
		for i, c := range cells {
			pdf.Rect(x, y-5, widths[i], 8, "D")
			pdf.Text(x+2, y, c)
			x += widths[i]
		}
		y += 10
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// RunReportKey places the report next to the ground truth payload,
// swapping the extension.
func RunReportKey(destinationKey string) string {
	return strings.TrimSuffix(destinationKey, ".jsonl") + "-report.pdf"
}

// UploadRunReport renders the run report and stores it in the
// ground-truth bucket, next to the uploaded payload.
func UploadRunReport(ctx context.Context, store ObjectStore, groundTruthURI string, result *RunResult) error {
	loc, err := ParseS3URI(groundTruthURI)
	if err != nil {
		return fmt.Errorf("ground-truth location: %w", err)
	}
	pdfBytes, err := GenerateRunReportPDF(result, time.Now())
	if err != nil {
		return fmt.Errorf("generate run report: %w", err)
	}
	key := RunReportKey(result.DestinationKey)
	if err := store.Put(ctx, loc.Bucket, key, pdfBytes); err != nil {
		return fmt.Errorf("upload run report: %w", err)
	}
	return nil
}

func substitutionRate(result *RunResult) float64 {
	if result.Rows == 0 {
		return 0
	}
	return float64(result.Substituted) / float64(result.Rows) * 100
}

func sortedLabels(counts map[string]int) []string {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
