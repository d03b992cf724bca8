// Package metrics exposes bot counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/park285/goldenbells-bot/internal/obslog"
)

// Metrics methods are safe on a nil receiver so callers can run without metrics.
type Metrics struct {
	reg *prometheus.Registry

	commands        *prometheus.CounterVec
	sessions        *prometheus.CounterVec
	sendFailures    prometheus.Counter
	persistFailures prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &Metrics{
		reg: reg,
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "goldenbells",
			Name:      "commands_total",
			Help:      "Commands dispatched, by command name.",
		}, []string{"command"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "goldenbells",
			Name:      "sessions_total",
			Help:      "Sessions started, by kind.",
		}, []string{"kind"}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "goldenbells",
			Name:      "send_failures_total",
			Help:      "Replies that could not be delivered.",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "goldenbells",
			Name:      "persist_failures_total",
			Help:      "Table writes that failed to reach the store.",
		}),
	}
	reg.MustRegister(m.commands, m.sessions, m.sendFailures, m.persistFailures)
	return m
}

func (m *Metrics) Command(name string) {
	if m != nil {
		m.commands.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) SessionStarted(kind string) {
	if m != nil {
		m.sessions.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) SendFailure() {
	if m != nil {
		m.sendFailures.Inc()
	}
}

func (m *Metrics) PersistFailure() {
	if m != nil {
		m.persistFailures.Inc()
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		obslog.L().Info("metrics_listen", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			obslog.L().Warn("metrics_shutdown_error", zap.Error(err))
		}
		return <-errCh
	}
}
