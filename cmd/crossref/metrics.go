package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// pushMetrics sends the batch metrics to a Pushgateway. It is a no-op when no
// gateway is configured.
func pushMetrics(url, job string, g prometheus.Gatherer) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(g).Push()
}
