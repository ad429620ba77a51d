// Package server exposes the prediction handler as a JSON-over-HTTP RPC service, with
// a WebSocket variant for callers that stream many requests over one connection.
//
// Fault classes travel in the body as {"code", "message"} and map to HTTP statuses:
// INVALID_ARGUMENT -> 400, INTERNAL -> 500, DEADLINE_EXCEEDED -> 504.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"wine-classifier/internal/features"
	"wine-classifier/internal/serving"
	"wine-classifier/internal/storage"
)

const maxRequestBytes = 1 << 20

// Recorder persists served predictions. *storage.Store implements it.
type Recorder interface {
	StorePrediction(record storage.PredictionRecord) error
}

// RecorderMetrics counts failed prediction log writes.
type RecorderMetrics interface {
	PredictionLogErrorsInc()
}

// Options configures a ModelServer.
type Options struct {
	Addr            string
	RequestTimeout  time.Duration
	Recorder        Recorder        // optional
	RecorderMetrics RecorderMetrics // optional
	MetricsHandler  http.Handler    // defaults to promhttp.Handler()
}

// ModelServer provides the HTTP API for model predictions
type ModelServer struct {
	handler  *serving.Handler
	opts     Options
	server   *http.Server
	upgrader websocket.Upgrader
}

// wireEntry carries an untyped value so non-numeric input surfaces as InvalidValue.
type wireEntry struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type wireRequest struct {
	ID       string      `json:"id,omitempty"`
	Features []wireEntry `json:"features"`
}

// streamReply is one WebSocket answer; exactly one of Response and Error is set.
type streamReply struct {
	ID       string                      `json:"id,omitempty"`
	Response *serving.PredictionResponse `json:"response,omitempty"`
	Error    *serving.StatusError        `json:"error,omitempty"`
}

// NewModelServer creates a new HTTP server for model serving
func NewModelServer(handler *serving.Handler, opts Options) *ModelServer {
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}
	ms := &ModelServer{
		handler: handler,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}

	ms.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           ms.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return ms
}

// Routes returns the service mux.
func (ms *ModelServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/predict", ms.handlePredict)
	mux.HandleFunc("/v1/predict/stream", ms.handleStream)
	mux.HandleFunc("/v1/health", ms.handleHealth)
	mux.HandleFunc("/v1/model/info", ms.handleModelInfo)
	mux.Handle("/metrics", ms.opts.MetricsHandler)
	return mux
}

// Start begins serving HTTP requests
func (ms *ModelServer) Start() error {
	log.Info().Str("addr", ms.server.Addr).Msg("starting model server")
	return ms.server.ListenAndServe()
}

// Serve accepts connections on l.
func (ms *ModelServer) Serve(l net.Listener) error {
	log.Info().Str("addr", l.Addr().String()).Msg("starting model server")
	return ms.server.Serve(l)
}

// Shutdown gracefully shuts down the server
func (ms *ModelServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

func (ms *ModelServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req wireRequest
	if err := decodeRequest(http.MaxBytesReader(w, r.Body, maxRequestBytes), &req); err != nil {
		writeFault(w, serving.InvalidArgument(fmt.Sprintf("invalid request: %v", err)))
		return
	}

	entries := toEntries(req.Features)
	resp, err := ms.predictWithDeadline(r.Context(), entries)
	if err != nil {
		writeFault(w, err)
		return
	}

	ms.record(entries, resp)
	writeJSON(w, http.StatusOK, resp)
}

type predictResult struct {
	resp serving.PredictionResponse
	err  error
}

// predictWithDeadline bounds one Predict call by the configured request timeout. The
// handler itself has no cancellation hook; on expiry the caller gets a fault and the
// computation finishes in the background.
func (ms *ModelServer) predictWithDeadline(parent context.Context, entries []features.Entry) (serving.PredictionResponse, error) {
	if ms.opts.RequestTimeout <= 0 {
		return ms.handler.Predict(entries)
	}

	ctx, cancel := context.WithTimeout(parent, ms.opts.RequestTimeout)
	defer cancel()

	done := make(chan predictResult, 1)
	go func() {
		resp, err := ms.handler.Predict(entries)
		done <- predictResult{resp, err}
	}()

	select {
	case res := <-done:
		return res.resp, res.err
	case <-ctx.Done():
		log.Warn().Dur("timeout", ms.opts.RequestTimeout).Msg("prediction deadline exceeded")
		return serving.PredictionResponse{}, &serving.StatusError{
			Code:    serving.CodeDeadlineExceeded,
			Message: "Deadline exceeded",
		}
	}
}

func (ms *ModelServer) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := ms.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBytes)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		reply := ms.streamPredict(r.Context(), data)
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn().Err(err).Msg("websocket write failed")
			return
		}
	}
}

func (ms *ModelServer) streamPredict(ctx context.Context, data []byte) streamReply {
	var req wireRequest
	if err := decodeRequest(bytes.NewReader(data), &req); err != nil {
		return streamReply{Error: serving.InvalidArgument(fmt.Sprintf("invalid request: %v", err))}
	}

	entries := toEntries(req.Features)
	resp, err := ms.predictWithDeadline(ctx, entries)
	if err != nil {
		return streamReply{ID: req.ID, Error: asStatus(err)}
	}
	ms.record(entries, resp)
	return streamReply{ID: req.ID, Response: &resp}
}

func (ms *ModelServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, ms.handler.Health())
}

func (ms *ModelServer) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, ms.handler.Info())
}

func (ms *ModelServer) record(entries []features.Entry, resp serving.PredictionResponse) {
	if ms.opts.Recorder == nil {
		return
	}
	set, err := features.NewSet(entries)
	if err != nil {
		// Predict already accepted these entries
		log.Error().Err(err).Msg("cannot record prediction")
		return
	}
	err = ms.opts.Recorder.StorePrediction(storage.PredictionRecord{
		Timestamp:    time.Now(),
		Features:     set.Map(),
		Prediction:   resp.Prediction,
		Confidence:   resp.Confidence,
		ModelVersion: resp.ModelVersion,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to record prediction")
		if ms.opts.RecorderMetrics != nil {
			ms.opts.RecorderMetrics.PredictionLogErrorsInc()
		}
	}
}

func toEntries(in []wireEntry) []features.Entry {
	out := make([]features.Entry, len(in))
	for i, e := range in {
		out[i] = features.Entry{Name: e.Name, Value: features.Coerce(e.Value)}
	}
	return out
}

// decodeRequest reads exactly one JSON value from r; anything after it but whitespace
// makes the request malformed.
func decodeRequest(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("unexpected data after request body")
	}
	return nil
}

func asStatus(err error) *serving.StatusError {
	var se *serving.StatusError
	if errors.As(err, &se) {
		return se
	}
	return &serving.StatusError{Code: serving.CodeInternal, Message: "Internal server error"}
}

func httpStatus(code serving.Code) int {
	switch code {
	case serving.CodeInvalidArgument:
		return http.StatusBadRequest
	case serving.CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeFault(w http.ResponseWriter, err error) {
	se := asStatus(err)
	writeJSON(w, httpStatus(se.Code), se)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}
