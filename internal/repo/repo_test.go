package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- Helpers Tests ---

func TestNullString(t *testing.T) {
	if nullString("") != nil {
		t.Error("empty string should be NULL")
	}
	if got := nullString("x"); got == nil || *got != "x" {
		t.Errorf("nullString(x) = %v", got)
	}
}

func TestNullUUID(t *testing.T) {
	if nullUUID(uuid.Nil) != nil {
		t.Error("uuid.Nil should be NULL")
	}
	id := uuid.New()
	if got := nullUUID(id); got == nil || *got != id {
		t.Errorf("nullUUID() = %v, want %v", got, id)
	}
}

func TestMarshalJSON(t *testing.T) {
	data, err := marshalJSON(nil)
	if err != nil || data != nil {
		t.Errorf("marshalJSON(nil) = %s, %v", data, err)
	}

	data, err = marshalJSON(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("marshalJSON() error = %v", err)
	}

	var m map[string]any
	if err := unmarshalJSON(data, &m); err != nil {
		t.Fatalf("unmarshalJSON() error = %v", err)
	}
	if m["a"] != float64(1) {
		t.Errorf("m[a] = %v", m["a"])
	}

	var empty map[string]any
	if err := unmarshalJSON(nil, &empty); err != nil || empty != nil {
		t.Errorf("unmarshalJSON(nil) = %v, %v", empty, err)
	}
}

// --- Migrations Tests ---

func TestMigrations_Embedded(t *testing.T) {
	files, err := fs.Glob(migrations, migrationsDir+"/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no migrations embedded")
	}

	for _, name := range files {
		data, err := fs.ReadFile(migrations, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		body := string(data)
		if !strings.Contains(body, "-- +goose Up") || !strings.Contains(body, "-- +goose Down") {
			t.Errorf("%s: missing goose annotations", name)
		}
	}
}

func TestMigrations_Tables(t *testing.T) {
	data, err := fs.ReadFile(migrations, migrationsDir+"/00001_init.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	for _, table := range []string{"supertasks", "jobs", "tasks"} {
		if !strings.Contains(string(data), "CREATE TABLE "+table) {
			t.Errorf("table %s not created", table)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})) {
		t.Error("23505 should be unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("23503 is not unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Error("plain error is not unique violation")
	}
}
