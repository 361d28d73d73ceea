package daemon

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
)

// MetricsServer serves the Prometheus endpoint while the watcher runs.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
}

// NewMetricsServer binds listen and mounts handler at path.
func NewMetricsServer(listen, path string, handler http.Handler) (*MetricsServer, error) {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, errors.DaemonError("failed to bind metrics listener").WithCause(err).WithContext("listen", listen).Build()
	}
	return &MetricsServer{
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		listener: ln,
	}, nil
}

// Addr returns the bound address.
func (m *MetricsServer) Addr() string { return m.listener.Addr().String() }

// Serve blocks until ctx is done, then shuts the server down.
func (m *MetricsServer) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- m.server.Serve(m.listener) }()
	slog.Info("Metrics endpoint listening", slog.String("addr", m.Addr()))

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.DaemonError("metrics server failed").WithCause(err).Build()
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.server.Shutdown(shutdownCtx)
	}
}
