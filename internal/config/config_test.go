package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Timeout != 60*time.Second {
		t.Errorf("Timeout = %s, want 60s", cfg.HTTP.Timeout)
	}
	if cfg.Attack.KillChain != "mitre-attack" {
		t.Errorf("KillChain = %q", cfg.Attack.KillChain)
	}
	if cfg.Vault.Folder != "Files" {
		t.Errorf("Vault.Folder = %q", cfg.Vault.Folder)
	}
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := []byte("attack:\n  tags_url: http://localhost/tags\nhttp:\n  timeout: 5s\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Attack.TagsURL != "http://localhost/tags" {
		t.Errorf("TagsURL = %q", cfg.Attack.TagsURL)
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s", cfg.HTTP.Timeout)
	}
	// untouched keys keep their defaults
	if cfg.Attack.DefaultVersion != "master" {
		t.Errorf("DefaultVersion = %q", cfg.Attack.DefaultVersion)
	}
}

func TestLoadRejectsTemplateWithoutPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("attack:\n  bundle_url: http://x/feed.json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for bundle_url without {version}")
	}
}

func TestBundleURLFor(t *testing.T) {
	c := AttackConfig{BundleURL: "https://h/{version}/e.json", DefaultVersion: "master"}

	if got := c.BundleURLFor(""); got != "https://h/master/e.json" {
		t.Errorf("BundleURLFor(\"\") = %q", got)
	}
	if got := c.BundleURLFor("ATT&CK-v10.1"); got != "https://h/ATT&CK-v10.1/e.json" {
		t.Errorf("BundleURLFor(tag) = %q", got)
	}
}
