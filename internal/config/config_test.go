package config

import (
	"os"
	"testing"
	"time"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "APP_ENV", "PORT", "JWT_SECRET", "JWT_TTL", "UPLOAD_BACKEND", "UPLOAD_DIR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != 5000 {
		t.Fatalf("expected default port 5000, got %d", cfg.ServerPort)
	}
	if cfg.JWTSecret != devJWTSecret {
		t.Fatalf("expected dev secret fallback, got %q", cfg.JWTSecret)
	}
	if cfg.JWTTTL != 30*24*time.Hour {
		t.Fatalf("unexpected ttl %s", cfg.JWTTTL)
	}
	if cfg.Upload.Backend != "disk" || cfg.Upload.Dir != "uploads" {
		t.Fatalf("unexpected upload config %+v", cfg.Upload)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DATABASE_URL", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != 8081 {
		t.Fatalf("expected port 8081, got %d", cfg.ServerPort)
	}
	if cfg.DatabaseURL != "mongodb://localhost:27017" {
		t.Fatalf("unexpected database url %q", cfg.DatabaseURL)
	}
	if got := cfg.CORSAllowedOrigins; len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", got)
	}
	if !cfg.Upload.Minio.UseSSL {
		t.Fatalf("expected MINIO_USE_SSL to be parsed")
	}
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without JWT_SECRET in production")
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid PORT")
	}
}
