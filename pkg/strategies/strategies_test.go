package strategies

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/hushnetwork-social/hush-node/pkg/config"
	"github.com/hushnetwork-social/hush-node/pkg/persistence"
)

// testPersist is nil unless HUSH_TEST_DB names a reachable Postgres
// connection string; every test below skips when it is unset.
var testPersist *persistence.Client

func TestMain(m *testing.M) {
	dsn := os.Getenv("HUSH_TEST_DB")
	if dsn == "" {
		os.Exit(m.Run())
	}

	cfg := &config.Config{
		DatabaseURL:       dsn,
		DBMaxOpenConns:    5,
		DBMaxIdleConns:    2,
		DBConnMaxLifetime: time.Hour,
	}
	client, err := persistence.NewClient(cfg)
	if err != nil {
		panic("connecting to test database: " + err.Error())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.MigrateUp(ctx); err != nil {
		panic("migrating test database: " + err.Error())
	}
	testPersist = client

	code := m.Run()
	client.Close()
	os.Exit(code)
}
