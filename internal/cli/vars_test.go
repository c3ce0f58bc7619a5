package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseExtraVars(t *testing.T) {
	file := filepath.Join(t.TempDir(), "vars.yml")
	data := "env: staging\nreplicas: 3\nfeatures:\n  - a\n  - b\n"
	if err := os.WriteFile(file, []byte(data), 0o600); err != nil {
		t.Fatalf("write vars: %v", err)
	}

	got, err := parseExtraVars([]string{"env=prod", "empty=", "url=http://x?a=b"}, file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"env":      "prod",
		"empty":    "",
		"url":      "http://x?a=b",
		"replicas": float64(3),
		"features": []any{"a", "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseExtraVars() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseExtraVars_JSONFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "vars.json")
	if err := os.WriteFile(file, []byte(`{"a": {"b": true}}`), 0o600); err != nil {
		t.Fatalf("write vars: %v", err)
	}

	got, err := parseExtraVars(nil, file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": map[string]any{"b": true}}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseExtraVars_Errors(t *testing.T) {
	if _, err := parseExtraVars([]string{"novalue"}, ""); !errors.Is(err, ErrInvalidVars) {
		t.Errorf("expected ErrInvalidVars, got %v", err)
	}
	if _, err := parseExtraVars([]string{"=x"}, ""); !errors.Is(err, ErrInvalidVars) {
		t.Errorf("expected ErrInvalidVars for empty key, got %v", err)
	}

	list := filepath.Join(t.TempDir(), "list.yml")
	if err := os.WriteFile(list, []byte("- a\n- b\n"), 0o600); err != nil {
		t.Fatalf("write vars: %v", err)
	}
	if _, err := parseExtraVars(nil, list); !errors.Is(err, ErrInvalidVars) {
		t.Errorf("expected ErrInvalidVars for a list, got %v", err)
	}

	if _, err := parseExtraVars(nil, filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseVariables(t *testing.T) {
	got, err := parseVariables("ansible_host: 10.0.0.1\nport: 22\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"ansible_host":"10.0.0.1","port":22}` {
		t.Errorf("unexpected JSON: %s", got)
	}

	file := filepath.Join(t.TempDir(), "host_vars.json")
	if err := os.WriteFile(file, []byte(`{"a": 1}`), 0o600); err != nil {
		t.Fatalf("write vars: %v", err)
	}
	got, err = parseVariables("@" + file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"a":1}` {
		t.Errorf("unexpected JSON: %s", got)
	}

	if _, err := parseVariables("just a string"); !errors.Is(err, ErrInvalidVars) {
		t.Errorf("expected ErrInvalidVars, got %v", err)
	}
}
