package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/riskibarqy/facr-ledger/internal/config"
	"github.com/riskibarqy/facr-ledger/internal/platform/logging"
)

// StartPprofServer serves the runtime profiles and the given debug endpoints
// on PPROF_ADDR. It returns a nil server when profiling is disabled.
func StartPprofServer(cfg config.Config, logger *logging.Logger, endpoints ...DebugEndpoint) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.PprofEnabled {
		logger.Info("pprof disabled", "reason", "PPROF_ENABLED=false")
		return nil, nil
	}

	mux, paths, err := newDebugMux(endpoints)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              cfg.PprofAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("pprof server starting", "addr", cfg.PprofAddr, "debug_endpoints", paths)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pprof server failed", "error", err)
		}
	}()

	return srv, nil
}

func newDebugMux(endpoints []DebugEndpoint) (*http.ServeMux, []string, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	paths := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		if !strings.HasPrefix(endpoint.Path, "/debug/") || strings.HasPrefix(endpoint.Path, "/debug/pprof/") {
			return nil, nil, fmt.Errorf("debug endpoint %q must live under /debug/ outside /debug/pprof/", endpoint.Path)
		}
		if endpoint.Handler == nil {
			return nil, nil, fmt.Errorf("debug endpoint %q has no handler", endpoint.Path)
		}
		mux.Handle(endpoint.Path, endpoint.Handler)
		paths = append(paths, endpoint.Path)
	}
	return mux, paths, nil
}

func StopPprofServer(srv *http.Server, logger *logging.Logger, timeout time.Duration) error {
	if srv == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("pprof server stopped")

	return nil
}
