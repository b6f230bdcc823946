// Package server 是推荐引擎的 JSON HTTP API（chi）。
//
// 用户身份来自路径参数或 X-User-ID 请求头，本服务不做鉴权。
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/rushteam/shoprec/engine"
	"github.com/rushteam/shoprec/pkg/logger"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// UserHeader 携带当前用户 ID（评分矩阵中的短用户 ID）。
const UserHeader = "X-User-ID"

type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type Server struct {
	engine  *engine.Engine
	log     *logger.Logger
	metrics *metrics.Recorder
	opts    Options
	handler http.Handler
}

func New(e *engine.Engine, log *logger.Logger, rec *metrics.Recorder, opts Options) *Server {
	s := &Server{
		engine:  e,
		log:     logger.OrNop(log).With("component", "server"),
		metrics: rec,
		opts:    opts,
	}
	s.handler = s.routes()
	return s
}

// Handler 返回完整的路由（含中间件），测试直接使用。
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", UserHeader, requestIDHeader},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if s.opts.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(s.opts.RateLimitRequests, s.opts.RateLimitWindow))
		}

		r.Get("/products/trending", s.handleTrending)
		r.Get("/products/{productID}", s.handleProduct)
		r.Get("/recommendations", s.handleRecommendations)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/recommendations/{strategy}", s.handleUserRecommendations)
			r.Get("/history", s.handleHistory)
			r.Post("/history", s.handleRecordView)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	return r
}

// ListenAndServe 启动 HTTP 服务，ctx 取消后优雅退出。
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
