// Package handlers exposes the processor's HTTP API: the push delivery
// endpoint and health/ops endpoints.
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/crownpoint-data/pos-sync/common/httputil"
	"github.com/crownpoint-data/pos-sync/common/logging"
	"github.com/crownpoint-data/pos-sync/common/models"
	"github.com/crownpoint-data/pos-sync/processor/internal/dlq"
	"github.com/crownpoint-data/pos-sync/processor/internal/service"
)

// DLQStore is the dead letter queue surface exposed to operators: counters
// on health, listing and purging on the ops endpoint.
type DLQStore interface {
	Stats() map[string]any
	List(limit int) ([]dlq.FailedMessage, error)
	Purge() error
}

type PushHandler struct {
	processor *service.Processor
	dlqStore  DLQStore
	log       *logging.Logger
}

func NewPushHandler(processor *service.Processor, dlqStore DLQStore, log *logging.Logger) *PushHandler {
	if log == nil {
		log = logging.Default()
	}
	return &PushHandler{processor: processor, dlqStore: dlqStore, log: log}
}

// HandlePush receives one push-delivered sync message. Response codes drive
// the sender's retry behavior: 2xx acknowledges, 5xx requests redelivery.
// Unfixable payloads are acknowledged so they stop retrying; they land in
// the DLQ instead.
func (h *PushHandler) HandlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var envelope models.PushEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil || envelope.Message.Data == "" {
		h.log.WarnContext(r.Context(), "received invalid push envelope")
		httputil.WriteError(w, http.StatusBadRequest, "invalid push message format")
		return
	}

	payload, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		// Acknowledge: redelivery cannot fix a bad encoding.
		h.log.ErrorContext(r.Context(), "failed to decode push message data", "error", err)
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "malformed message data"})
		return
	}

	result := h.processor.Process(r.Context(), payload)
	switch {
	case result.Retryable:
		httputil.WriteError(w, http.StatusInternalServerError, result.Err.Error())
	case result.Outcome == service.OutcomeInserted, result.Outcome == service.OutcomeDuplicate:
		w.WriteHeader(http.StatusNoContent)
	default:
		// Validation failures and malformed payloads: handled, stop retrying.
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": result.Outcome})
	}
}

// HandleDLQ serves the dead letter queue ops surface: GET lists parked
// messages, DELETE purges them.
func (h *PushHandler) HandleDLQ(w http.ResponseWriter, r *http.Request) {
	if h.dlqStore == nil {
		httputil.WriteError(w, http.StatusNotImplemented, "dead letter queue disabled")
		return
	}

	switch r.Method {
	case http.MethodGet:
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				httputil.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}
		messages, err := h.dlqStore.List(limit)
		if err != nil {
			h.log.ErrorContext(r.Context(), "failed to list dead letter queue", "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "failed to list dead letter queue")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"count":    len(messages),
			"messages": messages,
		})
	case http.MethodDelete:
		if err := h.dlqStore.Purge(); err != nil {
			h.log.ErrorContext(r.Context(), "failed to purge dead letter queue", "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "failed to purge dead letter queue")
			return
		}
		h.log.InfoContext(r.Context(), "purged dead letter queue")
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "purged"})
	default:
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Health reports liveness plus DLQ counters.
func (h *PushHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "healthy", "service": "pos-processor"}
	if h.dlqStore != nil {
		body["dlq"] = h.dlqStore.Stats()
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}
