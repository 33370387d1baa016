package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/park285/mchess-live/internal/live"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	requestTimeout = 5 * time.Second
	maxBodySize    = 64 << 10
)

// Backend answers read-model and intent requests. live.Loop implements it.
type Backend interface {
	View(ctx context.Context) (live.View, error)
	Submit(ctx context.Context, in live.Intent) (live.IntentResult, error)
}

// Server exposes the read model and the intent interface over HTTP for external renderers.
type Server struct {
	addr    string
	backend Backend
	srv     *fasthttp.Server
	logger  *zap.Logger
}

func New(addr string, backend Backend, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{addr: addr, backend: backend, logger: logger}
	s.srv = &fasthttp.Server{
		Handler:            s.Handle,
		Name:               "mchess-live",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		MaxRequestBodySize: maxBodySize,
	}
	return s
}

// ListenAndServe blocks until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http_listen", zap.String("addr", s.addr))
	return s.srv.ListenAndServe(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handle routes one request.
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	switch {
	case path == "/healthz" && ctx.IsGet():
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
	case path == "/api/view" && ctx.IsGet():
		s.handleView(ctx)
	case path == "/api/intent" && ctx.IsPost():
		s.handleIntent(ctx)
	case path == "/healthz" || path == "/api/view" || path == "/api/intent":
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (s *Server) handleView(ctx *fasthttp.RequestCtx) {
	rctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	v, err := s.backend.View(rctx)
	if err != nil {
		s.logger.Warn("http_view_failed", zap.Error(err))
		writeError(ctx, statusFor(err), err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, v)
}

func (s *Server) handleIntent(ctx *fasthttp.RequestCtx) {
	var in live.Intent
	if err := json.Unmarshal(ctx.PostBody(), &in); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "malformed intent: "+err.Error())
		return
	}
	rctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	res, err := s.backend.Submit(rctx, in)
	if err != nil {
		s.logger.Warn("http_intent_failed", zap.String("kind", in.Kind), zap.Error(err))
		writeError(ctx, statusFor(err), err.Error())
		return
	}
	status := fasthttp.StatusOK
	if !res.OK && in.Kind != live.IntentDragStart {
		status = fasthttp.StatusUnprocessableEntity
	}
	writeJSON(ctx, status, res)
}

func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return fasthttp.StatusGatewayTimeout
	}
	return fasthttp.StatusServiceUnavailable
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		ctx.Error("encode failed", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(raw)
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}
