// Package server implements the receiver side of the LocalSend v2
// handshake: the five HTTP(S) endpoints under /api/localsend/v2 and the
// session state machine that guards them. Structured on MoYoez-localsend-go's
// api.Server (gin.Engine + http.Server, route group under the same
// prefix), generalized from that example's callback-handler shape to an
// explicit session/consent state machine per spec §4.3.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/lanshare/lanshare/internal/logging"
	"github.com/lanshare/lanshare/pkg/consent"
	"github.com/lanshare/lanshare/pkg/identity"
	"github.com/lanshare/lanshare/pkg/protocol"
)

// shutdownGrace bounds how long Stop waits for in-flight handlers to
// drain before forcing the listener closed.
const shutdownGrace = 5 * time.Second

// prepareUploadRateLimit and prepareUploadBurst bound how often a single
// source IP may call /prepare-upload, the 429 RateLimited trigger spec.md
// leaves server-side policy for.
const (
	prepareUploadRateLimit = 1 // requests per second
	prepareUploadBurst     = 3
)

// Config configures a Server.
type Config struct {
	Self     protocol.DeviceInfo
	Identity *identity.Identity
	SaveDir  string
	Pin      string
	Bridge   *consent.Bridge
	Logger   logging.Logger
}

// Server wraps a gin.Engine and the http.Server that drives it, plus the
// session and received-files state the handlers mutate.
type Server struct {
	self    protocol.DeviceInfo
	ident   *identity.Identity
	saveDir string
	pin     string
	bridge  *consent.Bridge
	log     logging.Logger

	sessions *sessionManager
	received *receivedLog

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter

	httpServer *http.Server
}

// New builds a Server. It does not start listening until Start is called.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop{}
	}
	return &Server{
		self:     cfg.Self,
		ident:    cfg.Identity,
		saveDir:  cfg.SaveDir,
		pin:      cfg.Pin,
		bridge:   cfg.Bridge,
		log:      cfg.Logger,
		sessions: newSessionManager(),
		received: newReceivedLog(),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Received returns a snapshot of every file accepted so far.
func (s *Server) Received() []ReceivedFile {
	return s.received.Snapshot()
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	v2 := engine.Group(protocol.APIPrefix)
	{
		v2.GET("/info", s.handleInfo)
		v2.POST("/register", s.handleRegister)
		v2.POST("/prepare-upload", s.rateLimitPrepareUpload(), s.handlePrepareUpload)
		v2.POST("/upload", s.handleUpload)
		v2.POST("/cancel", s.handleCancel)
	}
	return engine
}

// Start binds and serves on port, over TLS when the node's identity
// carries a bootstrap certificate. It returns once the listener is
// closed (by Stop or a fatal accept error), matching net/http.Server's
// own contract.
func (s *Server) Start(port int) error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.routes(),
	}

	if s.ident != nil && s.ident.HTTPS {
		s.httpServer.TLSConfig = &tls.Config{Certificates: []tls.Certificate{*s.ident.Certificate}}
		s.log.Info("receiver listening", "addr", s.httpServer.Addr, "protocol", "https")
		err := s.httpServer.ListenAndServeTLS("", "")
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}

	s.log.Info("receiver listening", "addr", s.httpServer.Addr, "protocol", "http")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully drains in-flight handlers, per spec §5's shutdown
// contract, falling back to an abrupt close if the grace period elapses.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) limiterFor(ip string) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	l, ok := s.limiters[ip]
	if !ok {
		l = rate.NewLimiter(rate.Limit(prepareUploadRateLimit), prepareUploadBurst)
		s.limiters[ip] = l
	}
	return l
}

func (s *Server) rateLimitPrepareUpload() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(protocol.HTTPStatus(protocol.RateLimited), gin.H{"error": "rate limited"})
			return
		}
		c.Next()
	}
}
