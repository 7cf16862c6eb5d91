package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskory/admin-access/internal/core/domain"
	"github.com/taskory/admin-access/internal/infra/config"
)

// Provider holds the permission engine metrics. It implements the metrics
// hooks the resolver and grant cache accept.
type Provider struct {
	decisions      *prometheus.CounterVec
	cacheRefreshes *prometheus.CounterVec
}

// Attach registers the engine metrics on the default registry and returns a
// provider handle. Re-attaching in one process rebinds to the collectors
// already registered, so counts are never split across instances.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	labels := prometheus.Labels{}
	if cfg.Telemetry.ServiceName != "" {
		labels["service"] = cfg.Telemetry.ServiceName
	}

	decisions, err := registerCounterVec(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "rbac",
		Name:        "decisions_total",
		Help:        "Permission decisions by reason code",
		ConstLabels: labels,
	}, []string{"reason"}))
	if err != nil {
		return nil, err
	}

	cacheRefreshes, err := registerCounterVec(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "rbac",
		Name:        "cache_refreshes_total",
		Help:        "Role permission cache refresh attempts by outcome",
		ConstLabels: labels,
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}

	return &Provider{
		decisions:      decisions,
		cacheRefreshes: cacheRefreshes,
	}, nil
}

func registerCounterVec(vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := prometheus.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("register collector: %w", err)
	}
	return vec, nil
}

// ObserveDecision counts a resolution outcome by reason code.
func (p *Provider) ObserveDecision(reason domain.ReasonCode) {
	if p == nil {
		return
	}
	p.decisions.WithLabelValues(string(reason)).Inc()
}

// ObserveCacheRefresh counts a role map refresh attempt by outcome.
func (p *Provider) ObserveCacheRefresh(outcome string) {
	if p == nil {
		return
	}
	p.cacheRefreshes.WithLabelValues(outcome).Inc()
}
