package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
server: {}
database:
  host: db.internal
  port: 3306
  user: portal
  password: secret
  name: techsupport
pipeline:
  uploadRoot: /srv/uploads
  scriptsDir: /srv/scripts
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("driver = %q, want mysql", cfg.Database.Driver)
	}
	if cfg.Pipeline.Python != "python3" {
		t.Errorf("python = %q", cfg.Pipeline.Python)
	}
	if cfg.Pipeline.MaxDepth != 10 {
		t.Errorf("maxDepth = %d, want 10", cfg.Pipeline.MaxDepth)
	}
	if cfg.TaskTimeout() != 15*time.Minute {
		t.Errorf("task timeout = %v, want 15m", cfg.TaskTimeout())
	}
	if cfg.RawRetention() != 30*24*time.Hour {
		t.Errorf("raw retention = %v", cfg.RawRetention())
	}
	if cfg.IORetention() != 360*24*time.Hour {
		t.Errorf("io retention = %v", cfg.IORetention())
	}
	if cfg.Mail.Port != 25 {
		t.Errorf("mail port = %d, want 25", cfg.Mail.Port)
	}
}

func TestLoadExplicitValuesWin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
server:
  port: 9000
database:
  driver: postgres
  host: pg.internal
  port: 5432
  user: portal
  password: secret
  name: techsupport
pipeline:
  uploadRoot: /srv/uploads
  taskTimeoutMin: 5
  maxDepth: 3
  async: true
retention:
  rawDays: 7
  ioDays: 30
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.TaskTimeout() != 5*time.Minute {
		t.Errorf("task timeout = %v", cfg.TaskTimeout())
	}
	if !cfg.Pipeline.Async {
		t.Error("async should be true")
	}
	if cfg.RawRetention() != 7*24*time.Hour {
		t.Errorf("raw retention = %v", cfg.RawRetention())
	}
}

func TestDSNHelpers(t *testing.T) {
	var cfg Config
	cfg.Database.Host = "db"
	cfg.Database.Port = 3306
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Name = "n"

	want := "u:p@tcp(db:3306)/n?parseTime=true&charset=utf8mb4&loc=UTC"
	if got := cfg.MySQLDSN(); got != want {
		t.Errorf("MySQLDSN = %q, want %q", got, want)
	}
	wantPG := "host=db port=3306 user=u password=p dbname=n sslmode=disable"
	if got := cfg.PostgresDSN(); got != wantPG {
		t.Errorf("PostgresDSN = %q, want %q", got, wantPG)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
