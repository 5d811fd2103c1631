// Package echo runs small local endpoints that answer knock's probers: a TCP
// echo, a UDP echo, a fixed-reply TCP server, an HTTP server and a gRPC health
// server.
package echo

import (
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// drainTimeout bounds how long a connection is drained after replying.
const drainTimeout = time.Second

// Server is a running endpoint.
type Server struct {
	// Addr is the address the server listens on, with the real port when
	// ":0" was requested.
	Addr string

	logger *zap.Logger
	close  func() error
	wg     sync.WaitGroup
}

// Close stops the server and waits for its goroutines.
func (s *Server) Close() error {
	err := s.close()
	s.wg.Wait()
	return err
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// NewTCP starts a TCP server that echoes every byte back.
func NewTCP(addr string, logger *zap.Logger) (*Server, error) {
	return serveTCP(addr, logger, func(conn net.Conn) {
		io.Copy(conn, conn)
	})
}

// NewRaw starts a TCP server that reads the request head, writes reply
// verbatim and closes. Useful to fake arbitrary HTTP responses.
func NewRaw(addr string, reply []byte, logger *zap.Logger) (*Server, error) {
	return serveTCP(addr, logger, func(conn net.Conn) {
		conn.SetReadDeadline(time.Now().Add(drainTimeout))
		buf := make([]byte, 4096)
		conn.Read(buf)

		conn.Write(reply)
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.CloseWrite()
		}
		conn.SetReadDeadline(time.Now().Add(drainTimeout))
		io.Copy(io.Discard, conn)
	})
}

// NewSilent starts a TCP server that accepts connections and never answers.
func NewSilent(addr string, logger *zap.Logger) (*Server, error) {
	return serveTCP(addr, logger, func(conn net.Conn) {
		io.Copy(io.Discard, conn)
	})
}

func serveTCP(addr string, logger *zap.Logger, handle func(net.Conn)) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{Addr: ln.Addr().String(), logger: nopIfNil(logger)}

	var mu sync.Mutex
	conns := make(map[net.Conn]struct{})
	s.close = func() error {
		err := ln.Close()
		mu.Lock()
		for c := range conns {
			c.Close()
		}
		mu.Unlock()
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				if !errors.Is(err, net.ErrClosed) {
					s.logger.Warn("accept failed", zap.Error(err))
				}
				return
			}

			mu.Lock()
			conns[conn] = struct{}{}
			mu.Unlock()

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer func() {
					mu.Lock()
					delete(conns, conn)
					mu.Unlock()
					conn.Close()
				}()
				s.logger.Debug("tcp connection", zap.String("remote", conn.RemoteAddr().String()))
				handle(conn)
			}()
		}
	}()

	return s, nil
}

// NewUDP starts a UDP server that sends every datagram back to its sender.
func NewUDP(addr string, logger *zap.Logger) (*Server, error) {
	pc, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{Addr: pc.LocalAddr().String(), logger: nopIfNil(logger), close: pc.Close}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		buf := make([]byte, 64*1024)
		for {
			n, from, err := pc.ReadFrom(buf)
			if err != nil {
				if !errors.Is(err, net.ErrClosed) {
					s.logger.Warn("udp read failed", zap.Error(err))
				}
				return
			}
			s.logger.Debug("udp datagram", zap.String("remote", from.String()), zap.Int("bytes", n))
			if _, err := pc.WriteTo(buf[:n], from); err != nil {
				s.logger.Warn("udp write failed", zap.Error(err))
			}
		}
	}()

	return s, nil
}

// NewHTTP starts an HTTP server. Paths listed in routes answer 200 for any
// method; everything else answers 404.
func NewHTTP(addr string, routes []string, logger *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(routes))
	for _, r := range routes {
		known[r] = true
	}

	s := &Server{Addr: ln.Addr().String(), logger: nopIfNil(logger)}

	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
			if !known[r.URL.Path] {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.close = srv.Close

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("http server stopped", zap.Error(err))
		}
	}()

	return s, nil
}

// NewGRPC starts a gRPC server exposing the standard health service with
// the overall status set to serving or not serving.
func NewGRPC(addr string, serving bool, logger *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	hs := health.NewServer()
	st := grpc_health_v1.HealthCheckResponse_SERVING
	if !serving {
		st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", st)

	gs := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)

	s := &Server{Addr: ln.Addr().String(), logger: nopIfNil(logger)}
	s.close = func() error {
		gs.Stop()
		return nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := gs.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.logger.Warn("grpc server stopped", zap.Error(err))
		}
	}()

	return s, nil
}
