package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}

	if len(names) < 2 {
		t.Fatalf("embedded migrations = %v, want at least 2", names)
	}

	for _, name := range names {
		body, err := fs.ReadFile(FS, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}

		if !strings.Contains(string(body), "-- +goose Up") {
			t.Errorf("%s has no goose Up section", name)
		}
	}
}
