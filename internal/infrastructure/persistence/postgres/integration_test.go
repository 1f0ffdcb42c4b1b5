//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wavecard/guard/internal/config"
	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/logger"
)

func startPostgres(t *testing.T) *Connection {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("guard_test"),
		tcpostgres.WithUsername("guard"),
		tcpostgres.WithPassword("guard"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	conn, err := NewConnection(&config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "guard",
		Password: "guard",
		Database: "guard_test",
		SSLMode:  "disable",
		MaxConns: 4,
		MinConns: 1,
	}, logger.NewNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.Migrate())
	return conn
}

func TestRuleRepoRoundTrip(t *testing.T) {
	conn := startPostgres(t)
	repo := NewRateLimitRuleRepo(conn.DB)
	ctx := context.Background()

	rule := &models.RateLimitRule{
		EndpointPattern: "/api/auth/login",
		Method:          "POST",
		MaxRequests:     5,
		WindowMs:        60000,
		Enabled:         true,
	}
	require.NoError(t, repo.Save(ctx, rule))
	require.NotZero(t, rule.ID)

	disabled := &models.RateLimitRule{
		EndpointPattern: "/api/cards/*",
		Method:          "*",
		MaxRequests:     100,
		WindowMs:        60000,
		Enabled:         false,
	}
	require.NoError(t, repo.Save(ctx, disabled))

	enabled, err := repo.ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, rule.ID, enabled[0].ID)

	rule.MaxRequests = 10
	require.NoError(t, repo.Update(ctx, rule))
	got, err := repo.FindByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.MaxRequests)

	require.NoError(t, repo.Delete(ctx, rule.ID))
	_, err = repo.FindByID(ctx, rule.ID)
	assert.Error(t, err)
}

func TestAttemptRepoWindowCounting(t *testing.T) {
	conn := startPostgres(t)
	repo := NewAttemptRepo(conn.Pool)
	ctx := context.Background()

	key := "/api/auth/login:POST:1.2.3.4"
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Record(ctx, &models.RateLimitAttempt{
			Key:       key,
			IPAddress: "1.2.3.4",
			Endpoint:  "/api/auth/login",
			Method:    "POST",
			Blocked:   i == 2,
			CreatedAt: time.Now(),
		}))
	}

	count, err := repo.CountInWindow(ctx, key, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)
}

func TestSecurityEventRepoPersistsDetails(t *testing.T) {
	conn := startPostgres(t)
	repo := NewSecurityEventRepo(conn.DB)
	ctx := context.Background()

	event := models.NewSecurityEvent(constants.EventInjectionAttempt, constants.SeverityHigh, "9.9.9.9").
		WithUser("u1").
		WithDetails(map[string]string{"pattern": "sql_injection"})
	require.NoError(t, repo.Save(ctx, event))

	recent, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, event.ID, recent[0].ID)
	assert.JSONEq(t, `{"pattern": "sql_injection"}`, string(recent[0].Details))

	count, err := repo.CountByIP(ctx, "9.9.9.9", "high")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
