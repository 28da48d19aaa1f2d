// Package handlers exposes the poller's HTTP API: the sync trigger and
// health endpoints.
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/crownpoint-data/pos-sync/common/httputil"
	"github.com/crownpoint-data/pos-sync/common/logging"
	possync "github.com/crownpoint-data/pos-sync/poller/internal/sync"
)

const (
	minDaysBack = 1
	maxDaysBack = 365
)

type SyncHandler struct {
	syncer          *possync.Syncer
	defaultDaysBack int
	log             *logging.Logger
}

func NewSyncHandler(syncer *possync.Syncer, defaultDaysBack int, log *logging.Logger) *SyncHandler {
	if log == nil {
		log = logging.Default()
	}
	return &SyncHandler{
		syncer:          syncer,
		defaultDaysBack: defaultDaysBack,
		log:             log,
	}
}

// syncRequest is the trigger payload. Endpoints accepts either the string
// "all" or an explicit list of endpoint names.
type syncRequest struct {
	DaysBack  *int            `json:"days_back"`
	Endpoints json.RawMessage `json:"endpoints"`
}

type syncSummary struct {
	TotalValidEndpoints int `json:"total_valid_endpoints"`
	Successful          int `json:"successful"`
	Failed              int `json:"failed"`
}

type syncResponse struct {
	Status           string                            `json:"status"`
	DaysBack         int                               `json:"days_back"`
	Results          map[string]possync.EndpointResult `json:"results"`
	Summary          syncSummary                       `json:"summary"`
	InvalidEndpoints []string                          `json:"invalid_endpoints,omitempty"`
	Message          string                            `json:"message,omitempty"`
}

// HandleSync triggers a synchronous sync run across the requested endpoints.
// The response carries per-endpoint outcomes; a partial failure returns 207.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req, err := h.parseRequest(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	daysBack := h.defaultDaysBack
	if req.DaysBack != nil {
		daysBack = *req.DaysBack
	}
	if daysBack < minDaysBack || daysBack > maxDaysBack {
		httputil.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("days_back must be between %d and %d", minDaysBack, maxDaysBack))
		return
	}

	requested, err := h.requestedEndpoints(req.Endpoints)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	valid, invalid := h.syncer.FilterEndpoints(requested)
	for _, name := range invalid {
		h.log.WarnContext(r.Context(), "ignoring unknown endpoint", "endpoint", name)
	}

	if len(valid) == 0 {
		httputil.WriteJSON(w, http.StatusOK, syncResponse{
			Status:           "completed",
			DaysBack:         daysBack,
			Results:          map[string]possync.EndpointResult{},
			InvalidEndpoints: invalid,
			Message:          "no valid endpoints requested",
		})
		return
	}

	h.log.InfoContext(r.Context(), "sync triggered", "endpoints", valid, "days_back", daysBack)
	results, failed := h.syncer.Run(r.Context(), valid, daysBack)

	resp := syncResponse{
		Status:   "completed",
		DaysBack: daysBack,
		Results:  results,
		Summary: syncSummary{
			TotalValidEndpoints: len(valid),
			Successful:          len(valid) - failed,
			Failed:              failed,
		},
		InvalidEndpoints: invalid,
	}
	status := http.StatusOK
	if failed > 0 {
		resp.Status = "completed_with_errors"
		status = http.StatusMultiStatus
	}
	httputil.WriteJSON(w, status, resp)
}

func (h *SyncHandler) parseRequest(r *http.Request) (syncRequest, error) {
	var req syncRequest
	if r.Body == nil || r.ContentLength == 0 {
		return req, nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %v", err)
	}
	return req, nil
}

// requestedEndpoints resolves the endpoints field. Absent, null, or "all"
// means every configured endpoint.
func (h *SyncHandler) requestedEndpoints(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return h.syncer.KnownEndpoints(), nil
	}
	var all string
	if err := json.Unmarshal(raw, &all); err == nil {
		if all == "all" {
			return h.syncer.KnownEndpoints(), nil
		}
		return []string{all}, nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("endpoints must be \"all\" or a list of names")
	}
	return names, nil
}

// Health reports liveness.
func (h *SyncHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "pos-poller"})
}
