package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"labeling/internal"

	"github.com/sirupsen/logrus"
)

// Handler serves the labeling API. The logger is injected once at
// process start.
type Handler struct {
	Log logrus.FieldLogger
}

// runResponse is returned after starting the labeling workflow.
type runResponse struct {
	Message      string `json:"message"`
	Timestamp    string `json:"timestamp"`
	ExecutionArn string `json:"execution_arn,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// Health returns a basic OK response.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Run starts the labeling workflow through Step Functions. Parameters
// are validated here so configuration errors come back as 400s instead
// of failing inside the pipeline.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.Log.Info("labeling run requested")

	stateMachineArn := os.Getenv("STATE_MACHINE_ARN")
	if stateMachineArn == "" {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "STATE_MACHINE_ARN not configured"})
		return
	}

	datastoreURI := r.URL.Query().Get("datastore-uri")
	if datastoreURI == "" {
		endpoint := os.Getenv("SAGEMAKER_ENDPOINT")
		if endpoint == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "datastore-uri is required (or configure SAGEMAKER_ENDPOINT)"})
			return
		}
		uri, err := internal.ResolveCaptureURI(ctx, endpoint)
		if err != nil {
			h.Log.WithError(err).Error("failed to resolve capture location")
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		datastoreURI = uri
	}

	datastore, err := internal.ParseDatastoreURI(datastoreURI)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	groundTruthURI := r.URL.Query().Get("ground-truth-uri")
	if datastore.Kind == internal.DatastoreS3 && groundTruthURI == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": internal.ErrGroundTruthLocationRequired.Error()})
		return
	}

	quality := internal.DefaultGroundTruthQuality
	if q := r.URL.Query().Get("quality"); q != "" {
		parsed, err := strconv.ParseFloat(q, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quality must be a number"})
			return
		}
		quality = parsed
	}
	if err := internal.ValidateQuality(quality); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	execArn, err := internal.StartLabelingWorkflow(ctx, stateMachineArn, internal.WorkflowParams{
		DatastoreURI:   datastoreURI,
		GroundTruthURI: groundTruthURI,
		Quality:        quality,
	})
	if err != nil {
		h.Log.WithError(err).Error("start labeling workflow failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": fmt.Sprintf("workflow start failed: %v", err)})
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Message:      "execution started",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		ExecutionArn: execArn,
	})
}

// Runs lists recent labeling runs from the tracker table. Supports
// `hours` (lookback window, default 24) and `limit` query params.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "hours must be a positive integer"})
			return
		}
		hours = parsed
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour).UTC().UnixMilli()
	items, err := internal.ListRecentLabelRuns(ctx, since, limit)
	if err != nil {
		h.Log.WithError(err).Error("list label runs failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": items})
}

// SubscribeNotifications subscribes an email address to run notifications.
func (h *Handler) SubscribeNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	arn, err := internal.SubscribeNotificationsEmail(ctx, email)
	if errors.Is(err, internal.ErrAlreadySubscribed) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("subscribe failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "subscription pending confirmation", "subscription_arn": arn})
}

// GenerateTraffic sends sample rows to the SageMaker endpoint so its
// data capture produces events for the labeling step to pick up.
func (h *Handler) GenerateTraffic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		endpoint = os.Getenv("SAGEMAKER_ENDPOINT")
	}
	if endpoint == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint is required (or configure SAGEMAKER_ENDPOINT)"})
		return
	}

	count := 10
	if v := r.URL.Query().Get("count"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "count must be a positive integer"})
			return
		}
		count = parsed
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	sent, err := internal.GenerateTraffic(ctx, endpoint, count, rnd)
	if err != nil {
		h.Log.WithError(err).Error("traffic generation failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error(), "sent": sent})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"endpoint": endpoint, "sent": sent})
}
