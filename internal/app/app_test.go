package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-study-api/internal/config"
	"github.com/noah-isme/gema-study-api/internal/push"
	"github.com/noah-isme/gema-study-api/internal/service"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		AppName:       "GEMA Study API",
		DatabaseURL:   fmt.Sprintf("sqlite:file:%s?mode=memory&cache=shared", t.Name()),
		PushTransport: push.TransportLog,
		Timezone:      time.UTC,
	}
}

func TestNewWiresLogTransport(t *testing.T) {
	container, err := New(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Close()) })

	require.Equal(t, push.TransportLog, container.Transport.Name())
	require.Contains(t, container.HealthProbes(), "database")
	require.NoError(t, container.HealthProbes()["database"](context.Background()))

	processed, err := container.Notifications.Sweep(context.Background(), service.SystemActor(), time.Now())
	require.NoError(t, err)
	require.Zero(t, processed)
}

func TestNewWiresRedisTransport(t *testing.T) {
	server := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.RedisURL = "redis://" + server.Addr()
	cfg.PushTransport = push.TransportRedis

	container, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	require.Equal(t, push.TransportRedis, container.Transport.Name())
	probes := container.HealthProbes()
	require.Contains(t, probes, "redis")
	require.NoError(t, probes["redis"](context.Background()))
}

func TestNewRejectsBrokerlessTransport(t *testing.T) {
	cfg := testConfig(t)
	cfg.PushTransport = push.TransportNATS

	_, err := New(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}
