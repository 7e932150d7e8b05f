package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ASSETHOST_STORE", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Store.Backend != StoreBackendMemory {
		t.Fatalf("unexpected backend: %s", cfg.Store.Backend)
	}
	if cfg.Upload.MaxChunkBytes != 2*1024*1024 {
		t.Fatalf("unexpected chunk limit: %d", cfg.Upload.MaxChunkBytes)
	}
	if cfg.Server.Address() != "0.0.0.0:8080" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ASSETHOST_STORE", "POSTGRES")
	t.Setenv("ASSETHOST_AUTH_TOKEN_TTL", "90m")
	t.Setenv("MINIO_USE_SSL", "yes")
	t.Setenv("POSTGRES_PORT", "6543")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Store.Backend != StoreBackendPostgres {
		t.Fatalf("unexpected backend: %s", cfg.Store.Backend)
	}
	if cfg.Auth.TokenTTL != 90*time.Minute {
		t.Fatalf("unexpected token ttl: %s", cfg.Auth.TokenTTL)
	}
	if !cfg.MinIO.UseSSL {
		t.Fatalf("expected MinIO SSL enabled")
	}
	if cfg.Postgres.Port != 6543 {
		t.Fatalf("unexpected postgres port: %d", cfg.Postgres.Port)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("ASSETHOST_STORE", "etcd")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRejectsNonPositiveChunkLimit(t *testing.T) {
	t.Setenv("ASSETHOST_STORE", "memory")
	t.Setenv("ASSETHOST_MAX_CHUNK_BYTES", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero chunk limit")
	}
}
