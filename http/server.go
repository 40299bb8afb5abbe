// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"wildtrack/monitoring"
	"wildtrack/reload"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	hub    *Hub
	log    *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8501,
		Timeout:        30 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// Deps are the collaborators every route reads.
type Deps struct {
	Artifacts *reload.Holder
	Metrics   *monitoring.Metrics
	Logger    *zap.Logger
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, deps Deps) (*Server, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	pages, err := parseViews()
	if err != nil {
		return nil, err
	}

	h := &handlers{
		artifacts: deps.Artifacts,
		metrics:   deps.Metrics,
		log:       log,
		views:     pages,
	}
	h.hub = NewHub(h.predict, config.AllowedOrigins, deps.Metrics, log)

	mux := http.NewServeMux()
	h.register(mux)

	chain := Chain(
		RecoveryMiddleware(log),               // 1. 恢复中间件（最先执行，捕获panic）
		LoggerMiddleware(log),                 // 2. 日志中间件
		SecurityHeadersMiddleware,             // 3. 安全头中间件
		CORSMiddleware(config.AllowedOrigins), // 4. CORS中间件
		TimeoutMiddleware(config.Timeout),     // 5. 超时中间件
		RequestSizeMiddleware(maxBodyBytes),   // 6. 请求大小限制
	)

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           chain(mux),
			ReadHeaderTimeout: config.Timeout,
			IdleTimeout:       120 * time.Second,
		},
		config: config,
		hub:    h.hub,
		log:    log,
	}, nil
}

// Handler returns the routed and wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Hub returns the live-prediction hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start 启动服务器，阻塞直到服务器关闭
func (s *Server) Start() error {
	go s.hub.Run()

	s.log.Info("starting HTTP server",
		zap.String("addr", s.server.Addr),
		zap.String("websocket", "/api/ws/predict"))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	s.hub.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}
