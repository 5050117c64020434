package config

import "testing"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_PRIVATE_KEY_PATH", "/keys/private.pem")
	t.Setenv("AUTH_PUBLIC_KEY_PATH", "/keys/public.pem")
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("WORKER_JOB_POSTING_TTL_DAYS", "45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("api port = %d", cfg.API.Port)
	}
	if cfg.Redis.Addr() != "redis.internal:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr())
	}
	if cfg.Worker.JobPostingTTLDays != 45 {
		t.Errorf("ttl days = %d", cfg.Worker.JobPostingTTLDays)
	}
	if cfg.Auth.AccessTokenTTLMin != 15 {
		t.Errorf("access ttl default = %d", cfg.Auth.AccessTokenTTLMin)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("sslmode default = %q", cfg.Database.SSLMode)
	}
}

func TestLoad_RequiresKeyPaths(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
	t.Setenv("AUTH_PRIVATE_KEY_PATH", "")
	t.Setenv("AUTH_PUBLIC_KEY_PATH", "")

	if _, err := Load(); err == nil {
		t.Fatal("missing key paths should fail validation")
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "devboard", User: "u", Password: "p", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=devboard sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestOrigins(t *testing.T) {
	a := APIConfig{AllowedOrigins: "https://app.example.com, https://admin.example.com ,"}
	got := a.Origins()
	if len(got) != 2 || got[0] != "https://app.example.com" || got[1] != "https://admin.example.com" {
		t.Errorf("Origins() = %v", got)
	}
	if (APIConfig{}).Origins() != nil {
		t.Error("empty origins should be nil")
	}
}
