package middleware

import (
	pyroscope "github.com/grafana/pyroscope-go"

	"github.com/duynhne/credential-service/config"
)

var profiler *pyroscope.Profiler

// InitProfiling starts continuous profiling with Pyroscope.
func InitProfiling(cfg *config.Config) error {
	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.Service.Name,
		ServerAddress:   cfg.Profiling.Endpoint,
		Tags: map[string]string{
			"version": cfg.Service.Version,
			"env":     cfg.Service.Env,
		},
	})
	if err != nil {
		return err
	}

	profiler = p
	return nil
}

// StopProfiling flushes and stops the profiler if it was started.
func StopProfiling() {
	if profiler != nil {
		_ = profiler.Stop()
	}
}
