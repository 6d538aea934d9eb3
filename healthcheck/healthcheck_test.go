package healthcheck

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestCheckAllHealthy(t *testing.T) {
	logger, _ := test.NewNullLogger()
	c := NewChecker(logger)
	c.Register("database", PingFunc(func(ctx context.Context) error { return nil }))
	c.Register("redis", nil)

	report := c.Check(context.Background())
	assert.True(t, report.Healthy())
	assert.Equal(t, map[string]string{"database": StatusHealthy}, report.Checks)
}

func TestCheckReportsFailingDependency(t *testing.T) {
	logger, hook := test.NewNullLogger()
	c := NewChecker(logger)
	c.Register("database", PingFunc(func(ctx context.Context) error { return nil }))
	c.Register("redis", PingFunc(func(ctx context.Context) error { return errors.New("refused") }))

	report := c.Check(context.Background())
	assert.False(t, report.Healthy())
	assert.Equal(t, StatusUnhealthy, report.Checks["redis"])
	assert.Equal(t, StatusHealthy, report.Checks["database"])
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "redis", hook.LastEntry().Data["dependency"])
}

func TestWatchUpdatesGRPCStatus(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var healthy = make(chan bool, 1)
	healthy <- false

	c := NewChecker(logger)
	c.Register("database", PingFunc(func(ctx context.Context) error {
		ok := <-healthy
		healthy <- ok
		if !ok {
			return errors.New("down")
		}
		return nil
	}))

	srv := health.NewServer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Watch(ctx, srv, 10*time.Millisecond)
		close(done)
	}()

	status := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return resp.Status
	}

	require.Eventually(t, func() bool {
		return status() == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 5*time.Millisecond)

	<-healthy
	healthy <- true

	require.Eventually(t, func() bool {
		return status() == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
