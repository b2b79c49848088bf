package intelrpc

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// DefaultMaxMessageSize caps request and response documents. Full cell
// dumps of a large grid fit comfortably.
const DefaultMaxMessageSize = 4 * 1024 * 1024

// EndpointConfig configures the gRPC listener.
type EndpointConfig struct {
	ListenAddr     string
	MaxMessageSize int
	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
}

// Endpoint owns the grpc.Server that serves one IntelGridServer.
type Endpoint struct {
	config   EndpointConfig
	logger   *log.Logger
	server   *grpc.Server
	listener net.Listener
	running  atomic.Bool
	calls    atomic.Uint64
	failures atomic.Uint64
	wg       sync.WaitGroup
}

// NewEndpoint builds the server and registers srv on it.
func NewEndpoint(cfg EndpointConfig, srv IntelGridServer) *Endpoint {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultMaxMessageSize
	}
	e := &Endpoint{config: cfg, logger: cfg.Logger}
	if e.logger == nil {
		e.logger = log.Default()
	}
	e.server = grpc.NewServer(
		grpc.MaxRecvMsgSize(cfg.MaxMessageSize),
		grpc.MaxSendMsgSize(cfg.MaxMessageSize),
		grpc.ChainUnaryInterceptor(e.logCalls),
	)
	RegisterIntelGridServer(e.server, srv)
	return e
}

// Start binds ListenAddr and serves in the background.
func (e *Endpoint) Start() error {
	lis, err := net.Listen("tcp", e.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return e.Serve(lis)
}

// Serve serves on lis in the background. The endpoint takes ownership of lis.
func (e *Endpoint) Serve(lis net.Listener) error {
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("intelrpc: endpoint already running")
	}
	e.listener = lis
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.logger.Printf("[gRPC] IntelGrid listening on %s", lis.Addr())
		if err := e.server.Serve(lis); err != nil && e.running.Load() {
			e.logger.Printf("[gRPC] server error: %v", err)
		}
	}()
	return nil
}

// Addr is the bound address, or nil before Start.
func (e *Endpoint) Addr() net.Addr {
	if e.listener == nil {
		return nil
	}
	return e.listener.Addr()
}

// Calls returns the number of calls served and how many of them failed.
func (e *Endpoint) Calls() (total, failed uint64) {
	return e.calls.Load(), e.failures.Load()
}

// Stop drains in-flight calls and stops the server.
func (e *Endpoint) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}
	e.server.GracefulStop()
	e.wg.Wait()
	e.logger.Printf("[gRPC] server stopped")
}

func (e *Endpoint) logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	e.calls.Add(1)
	if err != nil {
		e.failures.Add(1)
		e.logger.Printf("[gRPC] %s failed after %v: %s", info.FullMethod, time.Since(start), status.Convert(err).Message())
	}
	return resp, err
}
