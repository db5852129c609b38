package main

import (
	"io/fs"
	"strings"
	"testing"

	appmigrations "github.com/wolfman30/dentaai-platform/migrations"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

func TestRunRequiresDatabaseURL(t *testing.T) {
	err := run("  ", nil, logging.New("error"))
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(appmigrations.FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	ups, downs := 0, 0
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups++
		case strings.HasSuffix(name, ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Fatalf("expected paired migrations, got %d up and %d down", ups, downs)
	}

	data, err := fs.ReadFile(appmigrations.FS, "000001_documents.up.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "appointments_active_slot_idx") {
		t.Fatalf("expected active slot index in documents migration")
	}
}
