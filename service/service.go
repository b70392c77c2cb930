package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/suite-runner/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = "8080"

	MetricsHost = "0.0.0.0"
	MetricsPort = "7300"
)

// Config carries the listen addresses for the service's HTTP surfaces.
// Empty fields fall back to the package defaults.
type Config struct {
	HealthzHost string
	HealthzPort string

	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    string
}

type Service struct {
	config  Config
	Healthz *HealthzServer
	Metrics *MetricsServer
}

// FromEnv builds a Config from the environment. The HTTP surfaces start
// before CLI parsing, so their listen addresses are env-only overrides.
func FromEnv() Config {
	cfg := Config{MetricsEnabled: true}
	if host, ok := os.LookupEnv("SUITE_RUNNER_HEALTHZ_HOST"); ok {
		cfg.HealthzHost = host
	}
	if port, ok := os.LookupEnv("SUITE_RUNNER_HEALTHZ_PORT"); ok {
		cfg.HealthzPort = port
	}
	if host, ok := os.LookupEnv("SUITE_RUNNER_METRICS_HOST"); ok {
		cfg.MetricsHost = host
	}
	if port, ok := os.LookupEnv("SUITE_RUNNER_METRICS_PORT"); ok {
		cfg.MetricsPort = port
	}
	if enabled, ok := os.LookupEnv("SUITE_RUNNER_METRICS_ENABLED"); ok {
		cfg.MetricsEnabled = enabled != "false" && enabled != "0"
	}
	return cfg
}

func New(cfg Config) *Service {
	if cfg.HealthzHost == "" {
		cfg.HealthzHost = HealthzHost
	}
	if cfg.HealthzPort == "" {
		cfg.HealthzPort = HealthzPort
	}
	if cfg.MetricsHost == "" {
		cfg.MetricsHost = MetricsHost
	}
	if cfg.MetricsPort == "" {
		cfg.MetricsPort = MetricsPort
	}
	s := &Service{
		config:  cfg,
		Healthz: &HealthzServer{},
		Metrics: &MetricsServer{},
	}
	return s
}

func (s *Service) Start(ctx context.Context) {
	log.Info("service starting")

	go func() {
		addr := net.JoinHostPort(s.config.HealthzHost, s.config.HealthzPort)
		log.Info("starting healthz server", "addr", addr)
		if err := s.Healthz.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting healthz server", "err", err)
			metrics.RecordErrorDetails("error starting healthz server", err)
		}
	}()

	if s.config.MetricsEnabled {
		go func() {
			addr := net.JoinHostPort(s.config.MetricsHost, s.config.MetricsPort)
			log.Info("starting metrics server", "addr", addr)
			if err := s.Metrics.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("error starting metrics server", "err", err)
				metrics.RecordErrorDetails("error starting metrics server", err)
			}
		}()
	}

	log.Info("service started")
}

func (s *Service) Shutdown() {
	log.Info("service shutting down")

	_ = s.Healthz.Shutdown()
	log.Info("healthz stopped")

	_ = s.Metrics.Shutdown()
	log.Info("metrics stopped")

	log.Info("service stopped")
}
