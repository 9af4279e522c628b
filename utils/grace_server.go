package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout     = 60 * time.Second
	defaultWriteTimeout    = defaultReadTimeout
	defaultShutdownTimeout = 30 * time.Second
	// a restarted child finds the inherited listener at this fd
	inheritedListenerFD = 3
	inheritedEnvKey     = "IS_GRACEFUL"
	inheritedEnvPair    = inheritedEnvKey + "=1"
)

// ShutdownHook runs after the HTTP server has drained.
type ShutdownHook func(ctx context.Context) error

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithShutdownTimeout bounds how long in-flight requests and hooks may take.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.shutdownTimeout = d }
}

// WithTimeouts sets read and write timeouts of the underlying http.Server.
func WithTimeouts(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.http.ReadTimeout = read
		s.http.WriteTimeout = write
	}
}

// Server serves HTTP until SIGINT or SIGTERM, then drains and runs its shutdown hooks.
// SIGUSR2 first hands the listening socket to a freshly exec'd copy of the binary.
type Server struct {
	http            *http.Server
	listener        net.Listener
	inherited       bool
	shutdownTimeout time.Duration
	hooks           []ShutdownHook

	signals chan os.Signal
	ready   chan struct{}
	done    chan struct{}
}

// NewServer creates a Server for handler on addr.
func NewServer(addr string, handler http.Handler, opts ...ServerOption) *Server {
	s := &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       defaultReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      defaultWriteTimeout,
		},
		inherited:       os.Getenv(inheritedEnvKey) != "",
		shutdownTimeout: defaultShutdownTimeout,
		signals:         make(chan os.Signal, 1),
		ready:           make(chan struct{}),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnShutdown registers hooks, run in order once the server has drained.
func (s *Server) OnShutdown(hooks ...ShutdownHook) {
	s.hooks = append(s.hooks, hooks...)
}

// Ready is closed once the server accepts connections.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr is the bound listener address; valid after Ready.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Stop asks the server to shut down as if it had received SIGTERM.
func (s *Server) Stop() {
	select {
	case s.signals <- syscall.SIGTERM:
	default:
	}
}

// ListenAndServe blocks until the server has shut down and every hook has run.
func (s *Server) ListenAndServe() error {
	ln, err := s.listen()
	if err != nil {
		return err
	}
	s.listener = ln
	close(s.ready)

	signal.Notify(s.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)
	go s.watchSignals()

	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		signal.Stop(s.signals)
		return err
	}
	<-s.done
	return nil
}

func (s *Server) listen() (net.Listener, error) {
	if s.inherited {
		ln, err := net.FileListener(os.NewFile(inheritedListenerFD, "listener"))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	addr := s.http.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (s *Server) watchSignals() {
	defer signal.Stop(s.signals)
	for sig := range s.signals {
		switch sig {
		case syscall.SIGUSR2:
			pid, err := s.forkWithListener()
			if err != nil {
				Sugar.Errorf("graceful restart failed, still serving: %v", err)
				continue
			}
			Sugar.Infof("graceful restart: child pid=%d took over the listener", pid)
		default:
			Sugar.Infof("received %s, draining HTTP server", sig)
		}
		s.shutdown()
		return
	}
}

func (s *Server) shutdown() {
	defer close(s.done)
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
	} else {
		Sugar.Info("HTTP server drained")
	}
	for _, hook := range s.hooks {
		if err := hook(ctx); err != nil {
			Sugar.Errorf("shutdown hook failed: %v", err)
		}
	}
}

// forkWithListener re-executes the binary with the listening socket as fd 3.
func (s *Server) forkWithListener() (int, error) {
	tcpLn, ok := s.listener.(*net.TCPListener)
	if !ok {
		return 0, errors.New("listener is not a TCP listener")
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}
	defer file.Close()

	env := make([]string, 0, len(os.Environ())+1)
	for _, kv := range os.Environ() {
		if kv != inheritedEnvPair {
			env = append(env, kv)
		}
	}
	env = append(env, inheritedEnvPair)

	pid, err := syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	})
	if err != nil {
		return 0, fmt.Errorf("forkexec: %w", err)
	}
	return pid, nil
}

// GraceServer serves handler on addr and returns once it has drained and run hooks.
func GraceServer(addr string, handler http.Handler, hooks ...ShutdownHook) error {
	srv := NewServer(addr, handler)
	srv.OnShutdown(hooks...)
	return srv.ListenAndServe()
}
