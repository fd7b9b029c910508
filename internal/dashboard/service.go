package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/zeluilo/hms-sub001/internal/notify"
	"github.com/zeluilo/hms-sub001/internal/payment"
	"github.com/zeluilo/hms-sub001/internal/upstream"
	"github.com/zeluilo/hms-sub001/pkg/config"
	"github.com/zeluilo/hms-sub001/pkg/interfaces"
	"github.com/zeluilo/hms-sub001/pkg/logger"
	"github.com/zeluilo/hms-sub001/pkg/monitoring"
	"github.com/zeluilo/hms-sub001/pkg/session"
)

const serviceName = "dashboard-service"

// Service serves the role dashboards: it fetches flat billing records
// from the upstream backend, runs grouping/filtering/aggregation
// server-side and exposes the computed views as JSON.
type Service struct {
	config   *config.Config
	logger   *logger.Logger
	metrics  *monitoring.MetricsCollector
	health   *monitoring.HealthManager
	billing  interfaces.BillingReader
	auth     interfaces.Authenticator
	sessions *session.Manager
	poller   *notify.Poller
	payments payment.Submitter
	logins   *loginLimiter
	server   *http.Server
	pageSize int
}

// New creates a new dashboard service
func New(cfg *config.Config, log *logger.Logger) *Service {
	metrics := monitoring.NewMetricsCollector(serviceName)

	client := upstream.NewClient(&cfg.Upstream, log, metrics)

	health := monitoring.NewHealthManager(serviceName, "1.0.0")
	health.RegisterChecker("upstream", monitoring.NewUpstreamHealthChecker(
		cfg.Upstream.BaseURL,
		time.Duration(cfg.Upstream.RequestTimeout)*time.Second,
	))

	poller := notify.NewPoller(client, time.Duration(cfg.Polling.Interval)*time.Second, log, metrics)

	return &Service{
		config:   cfg,
		logger:   log,
		metrics:  metrics,
		health:   health,
		billing:  client,
		auth:     client,
		sessions: session.NewManager(&cfg.JWT),
		poller:   poller,
		payments: client,
		logins:   newLoginLimiter(5, time.Minute),
		pageSize: cfg.Pagination.EntriesPerPage,
	}
}

// Start starts the dashboard HTTP server and, when enabled, the
// notification poller.
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	if s.config.Polling.Enabled {
		s.poller.Start(context.Background())
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.logger.Infof("Starting Dashboard Service on %s", addr)
	return s.server.ListenAndServe()
}

// Stop stops the dashboard service
func (s *Service) Stop() error {
	s.poller.Stop()

	if s.server != nil {
		s.logger.Info("Stopping Dashboard Service")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Service) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
}
