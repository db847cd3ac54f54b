package config

import (
	"testing"
	"time"
)

func TestLoadAppliesLocalDefaults(t *testing.T) {
	configViper := NewViper()
	configViper.Set("local.signing_secret", "test-secret")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Mode != ModeLocal {
		t.Fatalf("expected local mode by default, got %q", cfg.Mode)
	}
	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("unexpected http address %q", cfg.HTTPAddress)
	}
	if cfg.LocalDatabasePath != "userservice.db" {
		t.Fatalf("unexpected database path %q", cfg.LocalDatabasePath)
	}
	if cfg.LocalTokenTTL != 30*time.Minute {
		t.Fatalf("unexpected token ttl %v", cfg.LocalTokenTTL)
	}
	if cfg.Collections.Residents != "residents" || cfg.Collections.Departments != "departments" {
		t.Fatalf("unexpected collection defaults %+v", cfg.Collections)
	}
}

func TestLoadRejectsLocalModeWithoutSecret(t *testing.T) {
	configViper := NewViper()

	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected local mode to require a signing secret")
	}
}

func TestLoadRequiresProjectIDInFirebaseMode(t *testing.T) {
	configViper := NewViper()
	configViper.Set("backend.mode", ModeFirebase)

	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected firebase mode to require a project id")
	}

	configViper.Set("firebase.project_id", "civicgrid-prod")
	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Mode != ModeFirebase {
		t.Fatalf("expected firebase mode, got %q", cfg.Mode)
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	configViper := NewViper()
	configViper.Set("backend.mode", "clustered")

	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected an unknown backend mode to be rejected")
	}
}
