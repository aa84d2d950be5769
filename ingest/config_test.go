package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	body := `
db: /var/lib/schoolphoto/schoolphoto.db
entity_mode: strict
on_duplicate: reject
archive_dir: /var/lib/schoolphoto/done
error_dir: /var/lib/schoolphoto/failed
debug: true
school_name_mappings:
  旧さくら校: さくら小学校
manager_aliases:
  J.スミス: Jane
`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DB != "/var/lib/schoolphoto/schoolphoto.db" {
		t.Fatalf("unexpected db: %q", cfg.DB)
	}
	if cfg.EntityMode != "strict" || cfg.OnDuplicate != "reject" {
		t.Fatalf("unexpected modes: %q %q", cfg.EntityMode, cfg.OnDuplicate)
	}
	if cfg.ArchiveDir == "" || cfg.ErrorDir == "" || !cfg.Debug {
		t.Fatalf("unexpected dirs/debug: %+v", cfg)
	}
	if cfg.SchoolNameMappings["旧さくら校"] != "さくら小学校" {
		t.Fatalf("unexpected name mappings: %v", cfg.SchoolNameMappings)
	}
	if cfg.ManagerAliases["J.スミス"] != "Jane" {
		t.Fatalf("unexpected aliases: %v", cfg.ManagerAliases)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
