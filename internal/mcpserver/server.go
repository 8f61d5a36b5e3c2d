// Package mcpserver assembles the tourism and weather clients into an
// MCP tool server with selectable transports.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smdeveloper7/mcp-services/client"
	"github.com/smdeveloper7/mcp-services/internal/config"
	"github.com/smdeveloper7/mcp-services/tourapi"
	"github.com/smdeveloper7/mcp-services/weather"
)

const (
	serverName = "korea-travel-guide"

	// Version is reported in the MCP initialize handshake.
	Version = "1.0.0"

	cacheSweepInterval = 10 * time.Minute
	shutdownTimeout    = 10 * time.Second
)

// Server wires the API clients, tool handlers and transport together.
type Server struct {
	cfg      config.Config
	logger   *zap.Logger
	mcp      *server.MCPServer
	registry *prometheus.Registry
	cleanup  []func()
}

// New assembles a Server from configuration. The tourism API key is
// mandatory; weather tools are registered only when a weather key is
// present.
func New(cfg config.Config, logger *zap.Logger) (*Server, error) {
	if cfg.Tourism.APIKey == "" {
		return nil, fmt.Errorf("mcpserver: tourism API key is not configured (KOREA_TOURISM_API_KEY)")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	tourism, err := s.buildTourism()
	if err != nil {
		return nil, err
	}

	var weatherSvc *weather.Service
	if cfg.Weather.APIKey != "" {
		weatherSvc, err = s.buildWeather()
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("weather API key not configured, weather tools disabled")
	}

	s.mcp = server.NewMCPServer(serverName, Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	d := &deps{tourism: tourism, weather: weatherSvc, logger: logger}
	tools := d.tourismTools()
	if weatherSvc != nil {
		tools = append(tools, d.weatherTools()...)
	}

	filter := NewFilter(cfg.Server.EnabledTools)
	registered := 0
	for _, tool := range tools {
		def := tool.Handle()
		if !filter.Allows(def.Name) {
			continue
		}
		s.mcp.AddTool(def, tool.Handler)
		registered++
	}
	if registered == 0 {
		return nil, fmt.Errorf("mcpserver: tool filter %v leaves no tools enabled", filter.Names())
	}
	logger.Info("tools registered", zap.Int("count", registered))
	return s, nil
}

func (s *Server) buildTourism() (*tourapi.API, error) {
	cache, name := s.buildCache("tourism")
	opts := []client.Option{
		client.WithCache(cache),
		client.WithCacheTTL(s.cfg.Tourism.CacheTTL),
		client.WithRateLimit(s.cfg.Tourism.RateLimitCalls, s.cfg.Tourism.RateLimitPeriod),
		client.WithConcurrencyLimit(s.cfg.Tourism.ConcurrencyLimit),
		client.WithDefaultLanguage(tourapi.NormalizeLanguage(s.cfg.Tourism.DefaultLanguage)),
		client.WithLogger(s.logger.Named("tourism")),
		client.WithMetrics(client.NewMetrics(s.registry, "tourism")),
	}
	s.logger.Info("tourism client ready",
		zap.String("cache", name),
		zap.Int("rateLimitCalls", s.cfg.Tourism.RateLimitCalls),
		zap.Duration("cacheTTL", s.cfg.Tourism.CacheTTL))
	return tourapi.New(s.cfg.Tourism.APIKey, opts...)
}

func (s *Server) buildWeather() (*weather.Service, error) {
	cache, name := s.buildCache("weather")
	opts := []client.Option{
		client.WithCache(cache),
		client.WithRateLimit(s.cfg.Weather.RateLimitCalls, s.cfg.Weather.RateLimitPeriod),
		client.WithLogger(s.logger.Named("weather")),
		client.WithMetrics(client.NewMetrics(s.registry, "weather")),
	}
	s.logger.Info("weather client ready",
		zap.String("cache", name),
		zap.Int("rateLimitCalls", s.cfg.Weather.RateLimitCalls))
	return weather.New(s.cfg.Weather.APIKey, opts...)
}

// buildCache returns the configured cache backend and its name for
// logging. Redis failures at runtime degrade to cache misses, so no
// connectivity check happens here.
func (s *Server) buildCache(prefix string) (client.Cache, string) {
	if s.cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		})
		s.cleanup = append(s.cleanup, func() { _ = rdb.Close() })
		return client.NewRedisCache(rdb, prefix), "redis"
	}

	mem := client.NewMemoryCache(0)
	mem.StartJanitor(cacheSweepInterval)
	s.cleanup = append(s.cleanup, mem.StopJanitor)
	return mem, "memory"
}

// Run serves the configured transport until ctx is cancelled or the
// transport fails.
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		for _, fn := range s.cleanup {
			fn()
		}
	}()

	switch s.cfg.Server.Transport {
	case config.TransportStdio:
		return s.runStdio(ctx)
	case config.TransportSSE:
		return s.runSSE(ctx)
	case config.TransportStreamableHTTP:
		return s.runStreamableHTTP(ctx)
	default:
		return fmt.Errorf("mcpserver: unknown transport %q", s.cfg.Server.Transport)
	}
}

func (s *Server) runStdio(ctx context.Context) error {
	s.logger.Info("serving on stdio")
	stdio := server.NewStdioServer(s.mcp)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcpserver: stdio transport: %w", err)
	}
	return nil
}

func (s *Server) runSSE(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	sse := server.NewSSEServer(s.mcp)
	s.logger.Info("serving SSE", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() { errCh <- sse.Start(addr) }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("mcpserver: sse transport: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return sse.Shutdown(shutdownCtx)
	}
}

func (s *Server) runStreamableHTTP(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	mux := http.NewServeMux()
	mux.Handle(s.cfg.Server.Path, server.NewStreamableHTTPServer(s.mcp))
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","version":%q}`, Version)
	})

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	s.logger.Info("serving streamable HTTP",
		zap.String("addr", addr), zap.String("path", s.cfg.Server.Path))

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("mcpserver: http transport: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
