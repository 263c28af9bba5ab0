package db

import (
	"testing"

	"shopifyauth/pkg/config"
)

func TestRuntimeConnString_PrefersDatabaseURL(t *testing.T) {
	cfg := config.Config{DatabaseURL: "postgres://u:p@h:1/d"}
	if got := runtimeConnString(cfg); got != "postgres://u:p@h:1/d" {
		t.Fatalf("unexpected conn string: %q", got)
	}
}

func TestMigrationConnString_FallsBackToDSN(t *testing.T) {
	cfg := config.Config{DB: config.DBConfig{User: "u", Password: "p", Host: "h", Port: "5432", Name: "d"}}
	want := "postgres://u:p@h:5432/d?sslmode=disable"
	if got := migrationConnString(cfg); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	cfg.DirectURL = "postgres://direct"
	if got := migrationConnString(cfg); got != "postgres://direct" {
		t.Fatalf("expected direct url, got %q", got)
	}
}
