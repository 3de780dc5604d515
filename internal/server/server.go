// Package server exposes the tokenizer over HTTP. It is a thin wrapper:
// every endpoint calls only the public encode/decode operations of the
// core, which is safe for concurrent requests without coordination.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/go-bpe/internal/config"
	"github.com/example/go-bpe/tokenizer"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Codec is the tokenizer surface the server exposes.
type Codec interface {
	Encode(text string, allowed, disallowed []string) ([]int, error)
	Decode(ids []int) (string, error)
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   1 << 20,
		requestTimeout: 60 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed request text size in bytes.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithRequestTimeout sets the per-request codec deadline. Zero or
// negative disables the deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	codec Codec
	opts  options
	log   *slog.Logger
}

// NewHandler returns an http.Handler serving /health, POST /encode,
// POST /decode, and POST /count.
func NewHandler(codec Codec, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		codec: codec,
		opts:  opts,
		log:   opts.logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/encode", h.handleEncode)
	mux.HandleFunc("/decode", h.handleDecode)
	mux.HandleFunc("/count", h.handleCount)
	return mux
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type encodeRequest struct {
	Text string `json:"text"`
	// A null allowed/disallowed list keeps the codec defaults: nothing
	// allowed, every special token disallowed. An empty list is explicit.
	AllowedSpecial    []string `json:"allowed_special"`
	DisallowedSpecial []string `json:"disallowed_special"`
}

type encodeResponse struct {
	IDs   []int `json:"ids"`
	Count int   `json:"count"`
}

func (h *handler) handleEncode(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readEncodeRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	ids, err := h.encodeIDs(r, req)
	if err != nil {
		h.writeCodecError(w, r, "encode", err)
		return
	}

	h.log.InfoContext(r.Context(), "encode complete",
		slog.Int("text_len", len(req.Text)),
		slog.Int("tokens", len(ids)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if ids == nil {
		ids = []int{}
	}
	writeJSON(w, http.StatusOK, encodeResponse{IDs: ids, Count: len(ids)})
}

func (h *handler) handleCount(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readEncodeRequest(w, r)
	if !ok {
		return
	}

	ids, err := h.encodeIDs(r, req)
	if err != nil {
		h.writeCodecError(w, r, "count", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": len(ids)})
}

type decodeRequest struct {
	IDs []int `json:"ids"`
}

func (h *handler) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req decodeRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	text, err := h.decodeText(r, req.IDs)
	if err != nil {
		h.writeCodecError(w, r, "decode", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// encodeIDs runs the encode under the per-request deadline. The codec
// has no cancellation path, so the call runs in its own goroutine and
// the request stops waiting when the deadline fires; an abandoned encode
// finishes on its own in bounded time.
func (h *handler) encodeIDs(r *http.Request, req encodeRequest) ([]int, error) {
	if h.opts.requestTimeout <= 0 {
		return h.codec.Encode(req.Text, req.AllowedSpecial, req.DisallowedSpecial)
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	type result struct {
		ids []int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		ids, err := h.codec.Encode(req.Text, req.AllowedSpecial, req.DisallowedSpecial)
		ch <- result{ids: ids, err: err}
	}()

	select {
	case res := <-ch:
		return res.ids, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *handler) decodeText(r *http.Request, ids []int) (string, error) {
	if h.opts.requestTimeout <= 0 {
		return h.codec.Decode(ids)
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := h.codec.Decode(ids)
		ch <- result{text: text, err: err}
	}()

	select {
	case res := <-ch:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (h *handler) readEncodeRequest(w http.ResponseWriter, r *http.Request) (encodeRequest, bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return encodeRequest{}, false
	}

	var req encodeRequest
	if !h.readJSON(w, r, &req) {
		return encodeRequest{}, false
	}

	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return encodeRequest{}, false
	}

	return req, true
}

func (h *handler) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}

	// The body limit leaves headroom over the text limit for JSON framing.
	body := http.MaxBytesReader(w, r.Body, int64(h.opts.maxTextBytes)+4096)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}

	return true
}

// writeCodecError maps per-call tokenizer errors to 422, deadline hits
// to 504, and anything else to 500. Load errors can never surface here:
// the server only starts with a fully built codec.
func (h *handler) writeCodecError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		disallowed *tokenizer.DisallowedSpecialError
		segErr     *tokenizer.SegmentationError
		unknown    *tokenizer.UnknownTokenError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &disallowed), errors.As(err, &segErr),
		errors.As(err, &unknown), errors.Is(err, tokenizer.ErrInvalidUTF8):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
		err = fmt.Errorf("%s timed out", op)
	}

	h.log.WarnContext(r.Context(), op+" failed",
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)

	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server — wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	codec           Codec
	shutdownTimeout time.Duration
}

func New(cfg config.Config, codec Codec) *Server {
	return &Server{
		cfg:             cfg,
		codec:           codec,
		shutdownTimeout: 30 * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Start(ctx context.Context) error {
	h := NewHandler(s.codec,
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeoutMS)*time.Millisecond),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// ProbeHTTP checks the /health endpoint of a running server.
func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
