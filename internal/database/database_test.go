package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/weatherengine/maritime/config"
	"github.com/weatherengine/maritime/internal/logger"
)

func TestNew_NoDatabase(t *testing.T) {
	logger.Init("error", "text")

	db, err := New(context.Background(), config.DatabaseConfig{URL: ""})
	if err != nil {
		t.Errorf("Expected no error for empty database URL, got %v", err)
	}
	if db == nil {
		t.Fatal("Expected DB instance, got nil")
	}
	if db.pool != nil {
		t.Error("Expected pool to be nil when no database URL provided")
	}
	if db.IsConfigured() {
		t.Error("Expected IsConfigured to return false when no database")
	}
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.DatabaseConfig{URL: "invalid-url"})
	if err == nil {
		t.Error("Expected error for invalid database URL, got nil")
	}
}

func TestDB_Operations_NoPool(t *testing.T) {
	db := &DB{cfg: config.DatabaseConfig{}}
	ctx := context.Background()

	if err := db.Exec(ctx, "SELECT 1"); err != nil {
		t.Errorf("Expected no error for Exec with no pool, got %v", err)
	}
	if _, err := db.Query(ctx, "SELECT 1"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured for Query, got %v", err)
	}
	var n int
	if err := db.QueryRow(ctx, "SELECT 1").Scan(&n); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured for QueryRow, got %v", err)
	}
	if err := db.WithTx(ctx, nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured for WithTx, got %v", err)
	}
	if err := db.Health(ctx); err == nil {
		t.Error("Expected error for Health with no pool, got nil")
	}
	if err := db.Migrate(ctx); err != nil {
		t.Errorf("Expected Migrate to be a no-op without pool, got %v", err)
	}
}

func TestDB_Close(t *testing.T) {
	db := &DB{cfg: config.DatabaseConfig{}}
	// Should not panic when closing with no pool
	db.Close(context.Background())
}

func TestDB_CollectMetrics_NoPool(t *testing.T) {
	db := &DB{cfg: config.DatabaseConfig{}}

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*100)
	defer cancel()

	// Should return immediately when no pool
	db.collectMetrics(ctx)
}

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"alerts", "archived_alerts", "applied_recommendations", "alert_preferences"} {
		if !strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" ") {
			t.Errorf("Expected schema to create %s", table)
		}
	}
	if !strings.Contains(schemaSQL, "expiry_time > issue_time") {
		t.Error("Expected expiry constraint in schema")
	}
}
