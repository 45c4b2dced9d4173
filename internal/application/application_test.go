package application

import (
	"testing"
	"time"

	"github.com/JonMunkholm/timesheet/internal/config"
)

func TestPoolConfig(t *testing.T) {
	pc, err := PoolConfig(config.DatabaseConfig{
		URL:             "postgres://user:pw@localhost:5432/timesheet?sslmode=disable",
		MaxConns:        12,
		MinConns:        3,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("PoolConfig: %v", err)
	}
	if pc.MaxConns != 12 || pc.MinConns != 3 {
		t.Errorf("conns = %d/%d, want 12/3", pc.MaxConns, pc.MinConns)
	}
	if pc.MaxConnLifetime != time.Hour || pc.MaxConnIdleTime != 5*time.Minute {
		t.Errorf("lifetimes = %v/%v", pc.MaxConnLifetime, pc.MaxConnIdleTime)
	}
	if pc.ConnConfig.Database != "timesheet" {
		t.Errorf("database = %q", pc.ConnConfig.Database)
	}

	if _, err := PoolConfig(config.DatabaseConfig{URL: "postgres://%zz"}); err == nil {
		t.Error("expected error for malformed URL")
	}
}

func TestServiceConfig(t *testing.T) {
	cfg := &config.Config{Import: config.ImportConfig{
		MaxFileSize:            2048,
		MaxConcurrent:          3,
		MaxWaitTime:            time.Second,
		BatchSize:              50,
		Timeout:                time.Minute,
		DefaultCustomer:        "Internal",
		DefaultProject:         "Overhead",
		PlaceholderEmailDomain: "example.invalid",
		WatchDir:               "/srv/drop",
		WatchInterval:          10 * time.Second,
	}}

	sc := ServiceConfig(cfg, nil)
	if sc.MaxConcurrent != 3 || sc.MaxWait != time.Second || sc.ImportTimeout != time.Minute || sc.MaxFileSize != 2048 {
		t.Errorf("limits = %+v", sc)
	}
	if sc.Import.BatchSize != 50 {
		t.Errorf("BatchSize = %d", sc.Import.BatchSize)
	}
	d := sc.Import.Defaults
	if d.Customer != "Internal" || d.Project != "Overhead" || d.EmailDomain != "example.invalid" {
		t.Errorf("Defaults = %+v", d)
	}
	if sc.Cache != nil {
		t.Error("nil cache became non-nil")
	}

	dd := DropDirConfig(cfg)
	if dd.Dir != "/srv/drop" || dd.Interval != 10*time.Second {
		t.Errorf("DropDirConfig = %+v", dd)
	}
}

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgres://u:p@db:5432/timesheet", "timesheet"},
		{"postgres://u:p@db:5432/", ""},
		{"://bad", ""},
	}
	for _, tt := range tests {
		if got := databaseName(tt.url); got != tt.want {
			t.Errorf("databaseName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
