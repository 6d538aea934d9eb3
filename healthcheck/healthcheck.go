// Package healthcheck reports dependency health over HTTP and the gRPC
// health protocol.
package healthcheck

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	checkTimeout = 3 * time.Second
)

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (r Report) Healthy() bool {
	return r.Status == StatusHealthy
}

type Checker struct {
	deps   map[string]Pinger
	logger logrus.FieldLogger
}

func NewChecker(logger logrus.FieldLogger) *Checker {
	return &Checker{deps: make(map[string]Pinger), logger: logger}
}

// Register adds a named dependency. A nil pinger is ignored so optional
// backends can be registered unconditionally.
func (c *Checker) Register(name string, p Pinger) {
	if p == nil {
		return
	}
	c.deps[name] = p
}

func (c *Checker) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	report := Report{Status: StatusHealthy, Checks: make(map[string]string, len(c.deps))}
	for name, dep := range c.deps {
		if err := dep.Ping(ctx); err != nil {
			c.logger.WithError(err).WithField("dependency", name).Warn("health check failed")
			report.Checks[name] = StatusUnhealthy
			report.Status = StatusUnhealthy
			continue
		}
		report.Checks[name] = StatusHealthy
	}
	return report
}

// Watch mirrors Check into srv every interval until ctx is done.
func (c *Checker) Watch(ctx context.Context, srv *health.Server, interval time.Duration) {
	c.update(ctx, srv)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			srv.Shutdown()
			return
		case <-ticker.C:
			c.update(ctx, srv)
		}
	}
}

func (c *Checker) update(ctx context.Context, srv *health.Server) {
	status := healthpb.HealthCheckResponse_SERVING
	if !c.Check(ctx).Healthy() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	srv.SetServingStatus("", status)
}
