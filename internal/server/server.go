// Package server wires the core (llm/transform, llm/pipeline) to a gin HTTP
// server: one route per inbound dialect, a channel router picking the
// outbound dialect/service per request, and process-local reference
// implementations of the external collaborators (key pool, queue, token
// counter, log sink) the core depends on only through interfaces.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coralmesh/llmgateway/internal/config"
	"github.com/coralmesh/llmgateway/internal/log"
	"github.com/coralmesh/llmgateway/llm/httpclient"
	"github.com/coralmesh/llmgateway/llm/imagehistory"
	"github.com/coralmesh/llmgateway/llm/imagemirror"
	"github.com/coralmesh/llmgateway/llm/pipeline"

	_ "github.com/coralmesh/llmgateway/llm/bedrock" // registers the AWS event-stream decoder
	_ "github.com/coralmesh/llmgateway/llm/sse"     // registers the raw-SSE and Google array decoders
)

// Server owns the gin engine and the net/http.Server it listens with.
type Server struct {
	*gin.Engine

	Config config.ServerConfig

	httpServer *http.Server
}

// New builds a Server fully wired against cfg: a memory key pool seeded
// from cfg.Upstreams, an image mirror backed by cfg.Assets, and the
// response pipeline (C6) constructed with those collaborators.
func New(cfg config.Config) *Server {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	pool := NewMemoryPool(cfg.Upstreams)
	queue := &MemoryQueue{}
	queue.OnRetry(func(ctx context.Context, requestID string, retryCount int) {
		log.Info(ctx, "request re-enqueued", log.String("request_id", requestID), log.Int("retry_count", retryCount))
	})

	history := imagehistory.New()
	mirror := imagemirror.New(cfg.Assets.Dir, cfg.Assets.ProxyHost, history)

	pl := pipeline.New(pool, queue, NoopTokenCounter{}, mirror)

	client := httpclient.NewHttpClient()

	gw := NewGateway(cfg, pool, queue, pl, client)

	engine := gin.New()
	SetupRoutes(engine, cfg.Server, gw)

	return &Server{Engine: engine, Config: cfg.Server}
}

// Run starts the HTTP listener and blocks until it stops or fails.
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Engine,
		ReadTimeout:  s.Config.ReadTimeout,
		WriteTimeout: s.Config.RequestTimeout,
	}

	log.Info(context.Background(), "llmgateway listening", log.String("addr", addr))

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	}

	return nil
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
