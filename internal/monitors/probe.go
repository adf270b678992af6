// Package monitors probes the dependencies the service needs to accept
// traffic.
package monitors

import (
	"context"
	"time"
)

const (
	StatusUp   = "up"
	StatusDown = "down"

	defaultTimeout = 2 * time.Second
)

type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

type Result struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Run executes each probe in order with its own timeout. The second return
// value is false when any probe failed.
func Run(ctx context.Context, timeout time.Duration, probes []Probe) (map[string]Result, bool) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	results := make(map[string]Result, len(probes))
	healthy := true

	for _, probe := range probes {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		err := probe.Check(probeCtx)
		cancel()

		result := Result{Status: StatusUp, LatencyMS: time.Since(start).Milliseconds()}

		if err != nil {
			result.Status = StatusDown
			result.Error = err.Error()
			healthy = false
		}

		results[probe.Name] = result
	}

	return results, healthy
}
