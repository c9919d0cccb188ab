// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package http runs a [http.Handler] as an [app.Runtime].
package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/z5labs/items"
	"github.com/z5labs/items/app"
	"github.com/z5labs/items/config"
	"github.com/z5labs/items/health"

	"github.com/sourcegraph/conc/pool"
)

const (
	// DefaultHost is the interface the listener binds to when HOST is not set.
	DefaultHost = "0.0.0.0"

	// DefaultPort is used when PORT is not set.
	DefaultPort = "8000"
)

// TCPListener is a [config.Reader] which opens a TCP listener on Addr.
type TCPListener struct {
	Addr config.Reader[string]
}

// TCPListenerOption is a functional option for configuring a TCPListener.
type TCPListenerOption func(*TCPListener)

// Addr sets the "host:port" address the listener binds to.
func Addr(addr config.Reader[string]) TCPListenerOption {
	return func(tcpLn *TCPListener) {
		tcpLn.Addr = addr
	}
}

// AddrFromEnv joins the HOST and PORT environment variables into a
// listener address, defaulting to [DefaultHost] and [DefaultPort].
func AddrFromEnv() config.Reader[string] {
	return config.ReaderFunc[string](func(ctx context.Context) (config.Value[string], error) {
		host := config.MustOr(ctx, DefaultHost, config.Env("HOST"))
		port := config.MustOr(ctx, DefaultPort, config.Env("PORT"))

		return config.ValueOf(net.JoinHostPort(host, port)), nil
	})
}

// NewTCPListener creates a new TCPListener with the given options.
// Without an [Addr] option the address is read with [AddrFromEnv].
func NewTCPListener(options ...TCPListenerOption) TCPListener {
	tcpLn := TCPListener{
		Addr: AddrFromEnv(),
	}

	for _, option := range options {
		option(&tcpLn)
	}

	return tcpLn
}

// Read implements the [config.Reader] interface.
func (tcpLn TCPListener) Read(ctx context.Context) (config.Value[net.Listener], error) {
	addr := config.MustOr(ctx, net.JoinHostPort(DefaultHost, DefaultPort), tcpLn.Addr)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return config.Value[net.Listener]{}, err
	}

	return config.ValueOf(ln), nil
}

// Server holds the configuration for an HTTP server.
type Server struct {
	Listener          config.Reader[net.Listener]
	ReadTimeout       config.Reader[time.Duration]
	ReadHeaderTimeout config.Reader[time.Duration]
	WriteTimeout      config.Reader[time.Duration]
	IdleTimeout       config.Reader[time.Duration]
	ShutdownTimeout   config.Reader[time.Duration]
	MaxHeaderBytes    config.Reader[int]

	// Serving, when set, is healthy only while the server accepts new
	// connections.
	Serving *health.Binary
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// ReadTimeout sets the maximum duration for reading the entire request,
// including the body. The default is 5 seconds.
func ReadTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.ReadTimeout = d
	}
}

// ReadHeaderTimeout sets the maximum duration for reading request headers.
// The default is 2 seconds.
func ReadHeaderTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.ReadHeaderTimeout = d
	}
}

// WriteTimeout sets the maximum duration before timing out writes of the
// response. The default is 10 seconds.
func WriteTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.WriteTimeout = d
	}
}

// IdleTimeout sets the maximum duration to wait for the next request when
// keep-alives are enabled. The default is 120 seconds.
func IdleTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.IdleTimeout = d
	}
}

// ShutdownTimeout bounds how long in-flight requests are given to finish
// once the server is asked to stop. The default is 10 seconds.
func ShutdownTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.ShutdownTimeout = d
	}
}

// MaxHeaderBytes sets the maximum number of bytes the server will read
// parsing the request header. The default is 1 MB.
func MaxHeaderBytes(n config.Reader[int]) ServerOption {
	return func(srv *Server) {
		srv.MaxHeaderBytes = n
	}
}

// Serving marks b healthy once the server starts serving and unhealthy
// as soon as it begins shutting down.
func Serving(b *health.Binary) ServerOption {
	return func(srv *Server) {
		srv.Serving = b
	}
}

// OptionsFromEnv reads every [Server] setting from its HTTP_* environment
// variable:
//
//	HTTP_READ_TIMEOUT, HTTP_READ_HEADER_TIMEOUT, HTTP_WRITE_TIMEOUT,
//	HTTP_IDLE_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT, HTTP_MAX_HEADER_BYTES
func OptionsFromEnv() []ServerOption {
	return []ServerOption{
		ReadTimeout(config.DurationFromString(config.Env("HTTP_READ_TIMEOUT"))),
		ReadHeaderTimeout(config.DurationFromString(config.Env("HTTP_READ_HEADER_TIMEOUT"))),
		WriteTimeout(config.DurationFromString(config.Env("HTTP_WRITE_TIMEOUT"))),
		IdleTimeout(config.DurationFromString(config.Env("HTTP_IDLE_TIMEOUT"))),
		ShutdownTimeout(config.DurationFromString(config.Env("HTTP_SHUTDOWN_TIMEOUT"))),
		MaxHeaderBytes(config.IntFromString(config.Env("HTTP_MAX_HEADER_BYTES"))),
	}
}

// NewServer creates a new Server with the given listener and options.
// The listener is required; all other settings have default values.
func NewServer(listener config.Reader[net.Listener], options ...ServerOption) Server {
	srv := Server{
		Listener:          listener,
		ReadTimeout:       config.EmptyReader[time.Duration](),
		ReadHeaderTimeout: config.EmptyReader[time.Duration](),
		WriteTimeout:      config.EmptyReader[time.Duration](),
		IdleTimeout:       config.EmptyReader[time.Duration](),
		ShutdownTimeout:   config.EmptyReader[time.Duration](),
		MaxHeaderBytes:    config.EmptyReader[int](),
	}

	for _, option := range options {
		option(&srv)
	}

	return srv
}

// App is a HTTP server bound to a listener.
type App struct {
	ls              net.Listener
	srv             *http.Server
	shutdownTimeout time.Duration
	serving         *health.Binary
	log             *slog.Logger
}

// Run serves HTTP until ctx is cancelled and then shuts the server down
// gracefully. A clean shutdown returns nil.
func (a App) Run(ctx context.Context) error {
	pool := pool.New().WithContext(ctx).WithCancelOnError()

	pool.Go(func(ctx context.Context) error {
		a.log.InfoContext(ctx, "serving http", slog.String("addr", a.ls.Addr().String()))
		if a.serving != nil {
			a.serving.MarkHealthy()
		}
		return a.srv.Serve(a.ls)
	})

	pool.Go(func(ctx context.Context) error {
		<-ctx.Done()
		if a.serving != nil {
			a.serving.MarkUnhealthy()
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.shutdownTimeout)
		defer cancel()

		a.log.InfoContext(shutdownCtx, "shutting down http server")
		return a.srv.Shutdown(shutdownCtx)
	})

	err := pool.Wait()
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Build creates an [app.Builder] for an [App] serving the handler built by b.
// Unset settings fall back to the defaults documented on each [ServerOption].
func Build(srv Server, b app.Builder[http.Handler]) app.Builder[App] {
	return app.Bind(b, func(h http.Handler) app.Builder[App] {
		return app.BuilderFunc[App](func(ctx context.Context) (App, error) {
			ln := config.Must(ctx, srv.Listener)

			httpServer := &http.Server{
				Handler:           h,
				ReadTimeout:       config.MustOr(ctx, 5*time.Second, srv.ReadTimeout),
				ReadHeaderTimeout: config.MustOr(ctx, 2*time.Second, srv.ReadHeaderTimeout),
				WriteTimeout:      config.MustOr(ctx, 10*time.Second, srv.WriteTimeout),
				IdleTimeout:       config.MustOr(ctx, 120*time.Second, srv.IdleTimeout),
				MaxHeaderBytes:    config.MustOr(ctx, 1048576, srv.MaxHeaderBytes),
			}

			app := App{
				ls:              ln,
				srv:             httpServer,
				shutdownTimeout: config.MustOr(ctx, 10*time.Second, srv.ShutdownTimeout),
				serving:         srv.Serving,
				log:             items.Logger("github.com/z5labs/items/http"),
			}

			return app, nil
		})
	})
}
