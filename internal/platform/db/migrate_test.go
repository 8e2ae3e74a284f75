package db

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/healthguard/assistant/migrations"
)

func TestLoadMigrations(t *testing.T) {
	source := fstest.MapFS{
		"001_records.sql": {Data: []byte("CREATE TABLE staff (id SERIAL PRIMARY KEY);")},
		"002_history.sql": {Data: []byte("CREATE TABLE chat_history (id SERIAL PRIMARY KEY);")},
	}

	migrations, err := NewMigrator(nil, source).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "001_records.sql" {
		t.Errorf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].SQL != "CREATE TABLE chat_history (id SERIAL PRIMARY KEY);" {
		t.Errorf("unexpected SQL content: %s", migrations[1].SQL)
	}
}

func TestLoadMigrations_SortOrder(t *testing.T) {
	source := fstest.MapFS{
		"010_tables.sql": {Data: []byte("SELECT 10;")},
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"001_first.sql":  {Data: []byte("SELECT 1;")},
		"005_middle.sql": {Data: []byte("SELECT 5;")},
	}

	migrations, err := NewMigrator(nil, source).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	want := []int{1, 2, 5, 10}
	if len(migrations) != len(want) {
		t.Fatalf("expected %d migrations, got %d", len(want), len(migrations))
	}
	for i, v := range want {
		if migrations[i].Version != v {
			t.Errorf("migrations[%d].Version = %d, want %d", i, migrations[i].Version, v)
		}
	}
}

func TestLoadMigrations_SkipsNonSQL(t *testing.T) {
	source := fstest.MapFS{
		"001_core.sql":       {Data: []byte("SELECT 1;")},
		"README.md":          {Data: []byte("# notes")},
		"notes.sql":          {Data: []byte("SELECT 0;")},
		"abc_invalid.sql":    {Data: []byte("SELECT 0;")},
		"sub/002_nested.sql": {Data: []byte("SELECT 2;")},
	}

	migrations, err := NewMigrator(nil, source).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 1 || migrations[0].Version != 1 {
		t.Fatalf("expected only 001_core.sql, got %+v", migrations)
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	source := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"1_b.sql":   {Data: []byte("SELECT 1;")},
	}
	_, err := NewMigrator(nil, source).LoadMigrations()
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate version error, got %v", err)
	}
}

func TestLoadMigrations_Embedded(t *testing.T) {
	migs, err := NewMigrator(nil, migrations.FS).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migs) < 2 {
		t.Fatalf("expected embedded migrations, got %d", len(migs))
	}
	if !strings.Contains(migs[0].SQL, "CREATE TABLE IF NOT EXISTS patient") {
		t.Error("expected first migration to create the patient table")
	}
	if !strings.Contains(migs[1].SQL, "chat_history") {
		t.Error("expected second migration to create chat_history")
	}
}

func TestPending(t *testing.T) {
	all := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}
	applied := map[int]time.Time{1: time.Now()}

	got := pending(all, applied, 0)
	if len(got) != 2 || got[0].Version != 2 || got[1].Version != 3 {
		t.Errorf("unexpected pending set: %+v", got)
	}

	got = pending(all, applied, 2)
	if len(got) != 1 || got[0].Version != 2 {
		t.Errorf("expected only version 2 up to target, got %+v", got)
	}
}

func TestStatusOf(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	statuses := statusOf(
		[]Migration{{Version: 1, Name: "001_a.sql"}, {Version: 2, Name: "002_b.sql"}},
		map[int]time.Time{1: at},
	)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].Applied || statuses[0].AppliedAt == nil || !statuses[0].AppliedAt.Equal(at) {
		t.Errorf("expected first migration applied at %v, got %+v", at, statuses[0])
	}
	if statuses[1].Applied || statuses[1].AppliedAt != nil {
		t.Errorf("expected second migration pending, got %+v", statuses[1])
	}
}
