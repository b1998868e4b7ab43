package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spirit-labs/tekagg/common"
	"github.com/spirit-labs/tekagg/conf"
	log "github.com/spirit-labs/tekagg/logger"
)

type (
	Labels      = prometheus.Labels
	Counter     = prometheus.Counter
	CounterVec  = prometheus.CounterVec
	CounterOpts = prometheus.CounterOpts
	Gauge       = prometheus.Gauge
	GaugeOpts   = prometheus.GaugeOpts
)

type Server struct {
	config     conf.Config
	httpServer *http.Server
	dummy      bool
}

type metricServer struct{}

func (ms *metricServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer, promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			DisableCompression: true,
		}),
	).ServeHTTP(w, r)
}

// NewServer creates a server exporting the default registry on /metrics. If metrics are not enabled in the
// config the server is a dummy and Start and Stop do nothing.
func NewServer(config conf.Config) *Server {
	if config.MetricsEnabled == nil || !*config.MetricsEnabled {
		return &Server{dummy: true}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", &metricServer{})
	return &Server{
		config: config,
		httpServer: &http.Server{
			Addr:    *config.MetricsBind,
			Handler: mux,
		},
	}
}

func (s *Server) Start() error {
	if s.dummy {
		return nil
	}
	common.Go(func() {
		log.Debugf("starting prometheus http server on address %s", *s.config.MetricsBind)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("prometheus http export server failed to listen %v", err)
		}
	})
	return nil
}

func (s *Server) Stop() error {
	if s.dummy {
		return nil
	}
	return s.httpServer.Close()
}
