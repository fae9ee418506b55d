package internal

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type healthChecker interface {
	Name() string
	Health(ctx context.Context) error
}

// Poller periodically checks the model and translator backends. Hosted models unload when
// idle, so the checks also keep them warm.
type Poller struct {
	backends []healthChecker
	period   time.Duration
	log      *logrus.Logger

	mu     sync.RWMutex
	status map[string]BackendHealth
}

func NewPoller(model CaptionModel, translator Translator, period time.Duration, log *logrus.Logger) *Poller {
	return &Poller{
		backends: []healthChecker{model, translator},
		period:   period,
		log:      log,
		status:   make(map[string]BackendHealth),
	}
}

func (p *Poller) Run(ctx context.Context) {
	if p.period <= 0 {
		return
	}

	p.Poll(ctx)

	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Poll(ctx)

		case <-ctx.Done():
			return
		}
	}
}

// Poll checks every backend once and returns the results in backend order.
func (p *Poller) Poll(ctx context.Context) []BackendHealth {
	results := make([]BackendHealth, 0, len(p.backends))

	for _, backend := range p.backends {
		health := BackendHealth{
			Name:      backend.Name(),
			Healthy:   true,
			CheckedAt: time.Now().UTC(),
		}
		if err := backend.Health(ctx); err != nil {
			health.Healthy = false
			health.Message = err.Error()
		}

		p.mu.Lock()
		previous, seen := p.status[health.Name]
		p.status[health.Name] = health
		p.mu.Unlock()

		if !seen || previous.Healthy != health.Healthy {
			entry := p.log.WithField("backend", health.Name)
			if health.Healthy {
				entry.Info("Backend healthy")
			} else {
				entry.WithField("error", health.Message).Warn("Backend unhealthy")
			}
		}
		results = append(results, health)
	}

	return results
}

// Status returns the last recorded results. Without a poll period, or before the first poll,
// it checks now.
func (p *Poller) Status(ctx context.Context) []BackendHealth {
	if p.period <= 0 {
		return p.Poll(ctx)
	}

	p.mu.RLock()
	results := make([]BackendHealth, 0, len(p.backends))
	for _, backend := range p.backends {
		if health, ok := p.status[backend.Name()]; ok {
			results = append(results, health)
		}
	}
	p.mu.RUnlock()

	if len(results) < len(p.backends) {
		return p.Poll(ctx)
	}
	return results
}
