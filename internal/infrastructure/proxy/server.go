package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"livedock/internal/core/ports"
	"livedock/internal/infrastructure/middleware"
	"livedock/internal/infrastructure/monitoring"
	apperrors "livedock/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// mimeTypes maps the asset extensions the panel bundle uses. Anything
// else is served as an opaque octet stream.
var mimeTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript",
	".json":  "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
}

// Options tunes the server beyond its required collaborators.
type Options struct {
	RateLimitPerSecond float64
	RateLimitBurst     int
	Metrics            *monitoring.Collector
}

// Server is the loopback HTTP bridge between the sandboxed panel and the
// authenticated platform client. It serves the static panel bundle and
// dispatches a fixed allow-list of actions; the credential never crosses
// this surface.
type Server struct {
	address   string
	assetRoot string
	engine    *gin.Engine
	actions   *dispatcher
	metrics   *monitoring.Collector
	logger    *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	httpSrv  *http.Server
	done     chan struct{}
}

// NewServer builds the server and its routing table. The routing table and
// allow-list are immutable after construction; Start only binds and serves.
func NewServer(address, assetRoot string, client ports.PlatformClient, opts Options, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		address:   address,
		assetRoot: assetRoot,
		engine:    engine,
		actions:   newDispatcher(client, opts.Metrics),
		metrics:   opts.Metrics,
		logger:    logger,
	}

	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "PONG")
	})

	lapi := engine.Group("/")
	lapi.Use(middleware.NewRateLimitMiddleware(opts.RateLimitPerSecond, opts.RateLimitBurst))
	lapi.POST("/lapi", s.handleLAPI)

	if opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	engine.NoRoute(s.serveStatic)

	return s
}

// Start binds the loopback listener and serves in the background. It
// returns a bind error when the port cannot be acquired or the asset root
// does not exist; it never blocks on network I/O.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	info, err := os.Stat(s.assetRoot)
	if err != nil || !info.IsDir() {
		return apperrors.NewBindError(
			fmt.Sprintf("asset root %s is not a directory", s.assetRoot), err)
	}

	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return apperrors.NewBindError(
			fmt.Sprintf("cannot bind %s", s.address), err)
	}

	s.listener = ln
	s.httpSrv = &http.Server{Handler: s.engine}
	s.done = make(chan struct{})

	go func(srv *http.Server, done chan struct{}) {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("proxy server stopped unexpectedly", zap.Error(err))
		}
		close(done)
	}(s.httpSrv, s.done)

	s.logger.Info("proxy server listening", zap.String("address", ln.Addr().String()))
	return nil
}

// Port reports the bound port, or 0 before Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Stop shuts the server down and waits for the serving goroutine to exit,
// so no handler runs after it returns. Idempotent.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv, done := s.httpSrv, s.done
	s.httpSrv = nil
	s.listener = nil
	s.done = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		srv.Close()
	}

	<-done
	s.logger.Info("proxy server stopped")
	return nil
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// serveStatic serves the panel bundle under the asset root. Unknown paths
// get a plain-text 404; the content type comes from the extension table.
func (s *Server) serveStatic(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.String(http.StatusNotFound, "404 not found")
		return
	}

	reqPath := path.Clean("/" + c.Request.URL.Path)
	full := filepath.Join(s.assetRoot, filepath.FromSlash(reqPath))

	// Clean above keeps the path rooted; this guard is for symlinked roots.
	if !strings.HasPrefix(full, filepath.Clean(s.assetRoot)) {
		c.String(http.StatusNotFound, "404 not found")
		return
	}

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		full = filepath.Join(full, "index.html")
		info, err = os.Stat(full)
	}
	if err != nil || info.IsDir() {
		c.String(http.StatusNotFound, "404 not found: %s", reqPath)
		return
	}

	contentType, ok := mimeTypes[strings.ToLower(filepath.Ext(full))]
	if !ok {
		contentType = "application/octet-stream"
	}

	data, err := os.ReadFile(full)
	if err != nil {
		c.String(http.StatusNotFound, "404 not found: %s", reqPath)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}
