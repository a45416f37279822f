package testutil

// Package testutil provides helpers for integration tests against the
// backing stores. Tests skip automatically when the store is unavailable;
// set TEST_REQUIRE_INFRA to fail instead of skipping (CI).

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	// Import pgx driver for database/sql compatibility in tests.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/foliohq/folio-auth/internal/migrate"
)

// TestingTB is the subset of testing.TB the helpers need, so they work from
// both tests and benchmarks.
type TestingTB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Skip(args ...any)
	Skipf(format string, args ...any)
	Logf(format string, args ...any)
	Cleanup(func())
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envBool parses common truthy values from env vars.
func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func requireInfra() bool { return envBool("TEST_REQUIRE_INFRA") }

// TestDBConfig holds configuration for the test database.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig returns default test database configuration.
// Defaults to port 55432 (local test DB from docker-compose test profile).
// CI environments should set TEST_DB_PORT=5432 explicitly.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "55432"),
		User:     getEnvOrDefault("TEST_DB_USER", "folio"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "folio"),
		DBName:   getEnvOrDefault("TEST_DB_NAME", "folio"),
	}
}

// SetupTestDB opens the test database, applies migrations, and registers
// cleanup. Skips the test when the database is unreachable.
func SetupTestDB(t TestingTB) *sql.DB {
	t.Helper()

	cfg := DefaultTestDBConfig()
	hostPort := net.JoinHostPort(cfg.Host, cfg.Port)
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		cfg.User, cfg.Password, hostPort, cfg.DBName)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		skipOrFail(t, "Test database not available:", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if pingErr := db.PingContext(ctx); pingErr != nil {
		if cerr := db.Close(); cerr != nil {
			t.Logf("test db close failed: %v", cerr)
		}
		skipOrFail(t, "Test database not available:", pingErr)
		return nil
	}

	if migErr := migrate.Run(context.Background(), db); migErr != nil {
		t.Fatal("apply migrations:", migErr)
	}

	t.Cleanup(func() {
		if cerr := db.Close(); cerr != nil {
			t.Logf("test db close failed: %v", cerr)
		}
	})
	return db
}

// SetupTestRedis returns a Redis client for testing, skipping when no Redis
// is reachable. REDIS_ADDR overrides discovery; otherwise common local and
// CI addresses are probed.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr, ok := testRedisAddr(t)
	if !ok {
		skipOrFail(t, "Redis not available for testing")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: redisTestDB()})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: failed to close redis client after ping error: %v", cerr)
		}
		skipOrFail(t, fmt.Sprintf("Redis not available for testing at %s: %v", addr, err))
		return nil
	}
	return client
}

func testRedisAddr(t TestingTB) (string, bool) {
	t.Helper()

	if ciAddr := os.Getenv("REDIS_ADDR"); ciAddr != "" {
		return pingRedis(t, ciAddr)
	}
	for _, candidate := range []string{"localhost:56379", "redis:6379", "localhost:6379"} {
		if addr, ok := pingRedis(t, candidate); ok {
			return addr, true
		}
	}
	return "", false
}

func pingRedis(t TestingTB, addr string) (string, bool) {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer func() {
		if err := client.Close(); err != nil {
			t.Logf("warning: failed to close redis client: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Logf("Redis not available at %s: %v", addr, err)
		return addr, false
	}
	return addr, true
}

// redisTestDB picks the DB index for tests; defaults to 1 so a stray flush
// never touches production data in DB 0.
func redisTestDB() int {
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil && i >= 0 {
			return i
		}
	}
	return 1
}

func skipOrFail(t TestingTB, args ...any) {
	t.Helper()
	if requireInfra() {
		t.Fatal(args...)
	}
	t.Skip(args...)
}
