package instrumentation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends the metrics gathered so far to the configured Pushgateway.
// It is a no-op when no Pushgateway is configured or the Prometheus exporter is not in use.
func (p *Provider) Push(ctx context.Context) error {
	if !p.enabled || p.config.PushgatewayURL == "" || p.registry == nil {
		return nil
	}

	job := p.config.PushJobName
	if job == "" {
		job = p.config.ServiceName
	}

	pusher := push.New(p.config.PushgatewayURL, job).
		Gatherer(p.registry).
		Grouping("instance", p.instanceLabel())

	if err := pusher.AddContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", p.config.PushgatewayURL, err)
	}

	slog.Debug("pushed metrics", "component", "instrumentation", "job", job)
	return nil
}

func (p *Provider) instanceLabel() string {
	if p.config.ServiceInstanceID != "" {
		return p.config.ServiceInstanceID
	}
	return p.config.ServiceName
}
