package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"relist-engine/internal/bulk"
	"relist-engine/internal/events"
	"relist-engine/internal/pipeline"
	"relist-engine/internal/ratelimit"
)

type ConvertHandler struct {
	Runner  bulk.Runner
	Engine  *bulk.Engine
	Limiter *ratelimit.PerCaller
	Hub     *events.Hub
}

type convertReq struct {
	URL       string  `json:"url"`
	Publish   bool    `json:"publish"`
	SellPrice float64 `json:"sell_price"`
}

type bulkConvertReq struct {
	URLs      []string `json:"urls"`
	Publish   bool     `json:"publish"`
	SellPrice float64  `json:"sell_price"`
}

// Single runs one URL through the pipeline synchronously and returns
// the terminal ConversionResult. Success of the HTTP call does not
// imply success of the conversion; check result.status.
func (h ConvertHandler) Single(w http.ResponseWriter, r *http.Request) {
	if err := h.Limiter.Allow(clientKey(r)); err != nil {
		WriteError(w, r, http.StatusTooManyRequests, "rate_limited", err.Error())
		return
	}

	var req convertReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}
	if req.URL == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_url", "url is required")
		return
	}

	res := h.Runner.Run(r.Context(), req.URL, pipeline.Options{
		Publish:   req.Publish,
		SellPrice: req.SellPrice,
	}, nil)
	WriteJSON(w, http.StatusOK, res)
}

// Bulk submits a job and streams its events as SSE until
// job_completed. If the client goes away mid-job the stream keeps
// draining so workers never block; the job itself runs to the end and
// stays queryable under /jobs/{id}.
func (h ConvertHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	if err := h.Limiter.Allow(clientKey(r)); err != nil {
		WriteError(w, r, http.StatusTooManyRequests, "rate_limited", err.Error())
		return
	}

	var req bulkConvertReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}

	job, err := h.Engine.Submit(r.Context(), req.URLs, bulk.Options{
		Publish:   req.Publish,
		SellPrice: req.SellPrice,
	})
	if err != nil {
		if errors.Is(err, bulk.ErrInvalidJobSize) {
			WriteError(w, r, http.StatusBadRequest, "invalid_job_size", err.Error())
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "submit_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Job-ID", job.ID)

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}

	clientGone := false
	for ev := range job.Stream.C {
		if !clientGone {
			select {
			case <-r.Context().Done():
				clientGone = true
				continue
			default:
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", ev.Encode())
			flusher.Flush()
		}
	}
}

// clientKey is the per-caller rate limit key: the client IP.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
