package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"sigs.k8s.io/yaml"

	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/resolve"
)

func gatewayOrgs() []domain.Record {
	return []domain.Record{
		{"id": 1, "name": "Default", "description": "Default organization",
			"summary_fields": map[string]any{
				"related_field_counts": map[string]any{"users": 3, "teams": 1},
			}},
		{"id": 2, "name": "420", "description": "numeric"},
	}
}

func hosts() []domain.Record {
	return []domain.Record{
		{"id": 11, "name": "web", "inventory": 3, "enabled": true,
			"summary_fields": map[string]any{"inventory": map[string]any{"id": 3, "name": "prod"}}},
		{"id": 12, "name": "420", "inventory": 3, "enabled": false},
		{"id": 13, "name": "web", "inventory": 4, "enabled": true},
		{"id": 14, "name": "db01", "inventory": 3, "enabled": true},
		{"id": 420, "name": "legacy", "inventory": 3, "enabled": true},
	}
}

func TestOrganizationList_Table(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(gatewayPrefix+"organizations/", gatewayOrgs()...)

	stdout, _, err := runCLI(t, f, "organization", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got:\n%s", stdout)
	}
	if got := strings.Fields(lines[0]); !cmp.Equal(got, []string{"ID", "Name", "Description"}) {
		t.Errorf("unexpected header: %v", got)
	}
	if !strings.Contains(lines[3], `"420"`) {
		t.Errorf("expected numeric name to be quoted, got %q", lines[3])
	}
}

func TestOrganizationShow_MergesController(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(gatewayPrefix+"organizations/", gatewayOrgs()...)
	f.collection(controllerPrefix+"organizations/", domain.Record{
		"id": 7, "name": "Default", "max_hosts": 50,
		"summary_fields": map[string]any{
			"related_field_counts": map[string]any{"users": 4, "teams": 2, "projects": 5, "job_templates": 6, "inventories": 7},
		},
	})

	stdout, _, err := runCLI(t, f, "org", "show", "Default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for field, want := range map[string]string{
		"ID":            "1",
		"Max Hosts":     "50",
		"Users":         "4",
		"Projects":      "5",
		"Job Templates": "6",
	} {
		if got, ok := detailValue(stdout, field); !ok || got != want {
			t.Errorf("%s: expected %q, got %q (found=%v)", field, want, got, ok)
		}
	}
}

func TestOrganizationShow_ControllerUnavailable(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(gatewayPrefix+"organizations/", gatewayOrgs()...)
	f.failCollection(controllerPrefix+"organizations/", http.StatusInternalServerError)

	stdout, stderr, err := runCLI(t, f, "organization", "show", "Default")
	if err != nil {
		t.Fatalf("expected Gateway data despite Controller failure, got %v", err)
	}

	if got, _ := detailValue(stdout, "Users"); got != "3" {
		t.Errorf("expected Gateway user count 3, got %q", got)
	}
	if got, _ := detailValue(stdout, "Max Hosts"); got != "" {
		t.Errorf("expected empty Max Hosts, got %q", got)
	}
	if !strings.Contains(stderr, "could not fetch operational details") {
		t.Errorf("expected a warning on stderr, got %q", stderr)
	}
}

func TestHostShow_NumericNameWinsOverID(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"hosts/", hosts()...)

	stdout, _, err := runCLI(t, f, "host", "show", "420")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := detailValue(stdout, "ID"); got != "12" {
		t.Errorf("expected host 12 named \"420\", got ID %q", got)
	}
	if got, _ := detailValue(stdout, "Name"); got != `"420"` {
		t.Errorf("expected quoted name, got %q", got)
	}
}

func TestHostShow_PositionalIDFallback(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"hosts/", hosts()...)

	stdout, _, err := runCLI(t, f, "host", "show", "14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := detailValue(stdout, "Name"); got != "db01" {
		t.Errorf("expected db01, got %q", got)
	}
}

func TestHostShow_NotFound(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"hosts/", hosts()...)

	_, _, err := runCLI(t, f, "host", "show", "--name", "nope")
	if !errors.Is(err, resolve.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != "Host 'nope' not found" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestHostDelete_AmbiguousName(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"hosts/", hosts()...)

	_, _, err := runCLI(t, f, "host", "delete", "web")
	if !errors.Is(err, resolve.ErrAmbiguous) {
		t.Fatalf("expected ErrAmbiguous, got %v", err)
	}
	if err.Error() != "2 host resources found with name 'web'" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if f.called("DELETE " + controllerPrefix + "hosts/11/") {
		t.Error("ambiguous delete must not delete anything")
	}
}

func TestHostDelete_IDAndNameMismatch(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"hosts/", hosts()...)

	_, _, err := runCLI(t, f, "host", "delete", "--id", "14", "--name", "legacy")
	if !errors.Is(err, resolve.ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
	if _, ok := f.record(controllerPrefix+"hosts/", 14); !ok {
		t.Error("host 14 must not be deleted")
	}
}

func TestHostDelete_MultipleTargets(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"hosts/", hosts()...)

	_, stderr, err := runCLI(t, f, "host", "delete", "db01", "missing", "420")
	if err == nil || err.Error() != "failed to delete 1 of 3 hosts" {
		t.Fatalf("expected aggregated error, got %v", err)
	}

	if _, ok := f.record(controllerPrefix+"hosts/", 14); ok {
		t.Error("db01 should be deleted")
	}
	if _, ok := f.record(controllerPrefix+"hosts/", 12); ok {
		t.Error(`host named "420" should be deleted`)
	}
	if _, ok := f.record(controllerPrefix+"hosts/", 420); !ok {
		t.Error("host with id 420 must survive")
	}
	if !strings.Contains(stderr, "Host 'db01' (ID 14) deleted") {
		t.Errorf("expected success message, got %q", stderr)
	}
	if !strings.Contains(stderr, "Error: Host 'missing' not found") {
		t.Errorf("expected per-target error, got %q", stderr)
	}
}

func TestHostList_JSON(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"hosts/", hosts()...)

	stdout, _, err := runCLI(t, f, "host", "list", "-o", "json", "--limit", "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if len(got) != 2 || got[0]["name"] != "web" {
		t.Errorf("unexpected hosts: %v", got)
	}
}

func TestHostList_EmptyJSON(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix + "hosts/")

	stdout, _, err := runCLI(t, f, "host", "list", "-o", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) != "[]" {
		t.Errorf("expected empty JSON array, got %q", stdout)
	}
}

func TestOrganizationShow_YAML(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(gatewayPrefix+"organizations/", gatewayOrgs()...)
	f.collection(controllerPrefix+"organizations/", domain.Record{"id": 7, "name": "Default", "max_hosts": 0})

	stdout, _, err := runCLI(t, f, "organization", "show", "--id", "1", "-o", "yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, stdout)
	}
	if got["name"] != "Default" {
		t.Errorf("expected name Default, got %v", got["name"])
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	f := newFakeAAP(t)

	_, _, err := runCLI(t, f, "whoami", "-o", "xml")
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestSet_NothingToUpdate(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(gatewayPrefix + "users/")

	for _, args := range [][]string{
		{"user", "set", "alice"},
		{"host", "set", "web"},
		{"organization", "set", "Default"},
	} {
		_, _, err := runCLI(t, f, args...)
		if !errors.Is(err, ErrNothingToUpdate) {
			t.Errorf("%v: expected ErrNothingToUpdate, got %v", args, err)
		}
	}
}

func TestUserSet_PatchesFields(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(gatewayPrefix+"users/", domain.Record{"id": 4, "username": "alice", "is_active": true})

	stdout, _, err := runCLI(t, f, "user", "set", "alice", "--email", "alice@example.com", "--inactive")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{"email": "alice@example.com", "is_active": false}
	if diff := cmp.Diff(want, f.body("PATCH "+gatewayPrefix+"users/4/")); diff != "" {
		t.Errorf("PATCH body mismatch (-want +got):\n%s", diff)
	}
	if got, _ := detailValue(stdout, "Active"); got != "No" {
		t.Errorf("expected Active No, got %q", got)
	}
}

func TestTeamCreate_ResolvesOrganization(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(gatewayPrefix+"organizations/", gatewayOrgs()...)
	f.collection(gatewayPrefix + "teams/")

	_, _, err := runCLI(t, f, "team", "create", "ops", "--organization", "Default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{"name": "ops", "organization": float64(1)}
	if diff := cmp.Diff(want, f.body("POST "+gatewayPrefix+"teams/")); diff != "" {
		t.Errorf("POST body mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplateLaunch(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"job_templates/", domain.Record{"id": 7, "name": "Deploy web"})
	f.collection(controllerPrefix+"inventories/", domain.Record{"id": 3, "name": "prod"})
	f.handle("POST "+controllerPrefix+"job_templates/7/launch/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 99, "name": "Deploy web", "status": "pending", "job_template": 7,
			"summary_fields": map[string]any{"job_template": map[string]any{"id": 7, "name": "Deploy web"}},
		})
	})

	vars := filepath.Join(t.TempDir(), "vars.yml")
	if err := os.WriteFile(vars, []byte("env: staging\nreplicas: 3\n"), 0o600); err != nil {
		t.Fatalf("write vars: %v", err)
	}

	stdout, _, err := runCLI(t, f, "template", "launch", "Deploy web",
		"-e", "env=prod", "--extra-vars-file", vars,
		"--inventory", "prod", "--verbosity", "2", "--limit", "web01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"extra_vars": map[string]any{"env": "prod", "replicas": float64(3)},
		"inventory":  float64(3),
		"verbosity":  float64(2),
		"limit":      "web01",
	}
	if diff := cmp.Diff(want, f.body("POST "+controllerPrefix+"job_templates/7/launch/")); diff != "" {
		t.Errorf("launch body mismatch (-want +got):\n%s", diff)
	}
	if got, _ := detailValue(stdout, "Job Template"); got != "Deploy web" {
		t.Errorf("expected template name, got %q", got)
	}
}

func TestTemplateLaunch_InvalidVerbosity(t *testing.T) {
	f := newFakeAAP(t)

	_, _, err := runCLI(t, f, "template", "launch", "x", "--verbosity", "6")
	if err == nil || !strings.Contains(err.Error(), "--verbosity") {
		t.Fatalf("expected verbosity error, got %v", err)
	}
}

func TestJobCancel(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"jobs/",
		domain.Record{"id": 5, "name": "Deploy", "status": "successful"},
		domain.Record{"id": 6, "name": "Deploy", "status": "running"},
	)
	f.handle("POST "+controllerPrefix+"jobs/6/cancel/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	stdout, _, err := runCLI(t, f, "job", "cancel", "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) != "Job 5 cannot be canceled (status: successful)" {
		t.Errorf("unexpected output: %q", stdout)
	}
	if f.called("POST " + controllerPrefix + "jobs/5/cancel/") {
		t.Error("finished job must not be canceled")
	}

	_, stderr, err := runCLI(t, f, "job", "cancel", "6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.called("POST " + controllerPrefix + "jobs/6/cancel/") {
		t.Error("expected cancel request for running job")
	}
	if !strings.Contains(stderr, "Job 6 cancellation requested") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestJob_RejectsNonNumericID(t *testing.T) {
	f := newFakeAAP(t)

	_, _, err := runCLI(t, f, "job", "show", "Deploy")
	if err == nil || !strings.Contains(err.Error(), "must be a positive integer") {
		t.Fatalf("expected ID error, got %v", err)
	}
}

func TestJobOutput_Events(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"jobs/", domain.Record{"id": 5, "status": "successful"})
	f.handle("GET "+controllerPrefix+"jobs/5/job_events/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"count": 3,
			"results": []any{
				map[string]any{"counter": 1, "created": "2025-07-01T14:00:00Z", "stdout": "PLAY [all]"},
				map[string]any{"counter": 2, "created": "2025-07-01T14:00:01Z", "stdout": ""},
				map[string]any{"counter": 3, "created": "2025-07-01T14:00:02Z", "stdout": "ok: [web01]"},
			},
		})
	})

	stdout, _, err := runCLI(t, f, "job", "output", "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "[2025-07-01 14:00:00] PLAY [all]\n[2025-07-01 14:00:02] ok: [web01]\n"
	if stdout != want {
		t.Errorf("unexpected output:\n%q\nwant:\n%q", stdout, want)
	}
}

func TestJobOutput_FallsBackToStdout(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"jobs/", domain.Record{"id": 5, "status": "failed"})
	f.handle("GET "+controllerPrefix+"jobs/5/job_events/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	f.handle("GET "+controllerPrefix+"jobs/5/stdout/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "PLAY RECAP\n")
	})

	stdout, _, err := runCLI(t, f, "job", "output", "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "PLAY RECAP\n" {
		t.Errorf("unexpected output: %q", stdout)
	}
}

func TestJobOutput_Follow(t *testing.T) {
	followInterval = 10 * time.Millisecond
	t.Cleanup(func() { followInterval = 2 * time.Second })

	f := newFakeAAP(t)
	polls := 0
	f.handle("GET "+controllerPrefix+"jobs/5/", func(w http.ResponseWriter, r *http.Request) {
		polls++
		status := "running"
		if polls > 2 {
			status = "successful"
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 5, "status": status})
	})
	f.handle("GET "+controllerPrefix+"jobs/5/job_events/", func(w http.ResponseWriter, r *http.Request) {
		events := []any{}
		if r.URL.Query().Get("counter__gt") == "" {
			events = append(events, map[string]any{"counter": 1, "created": "2025-07-01T14:00:00Z", "stdout": "PLAY [all]"})
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": len(events), "results": events})
	})

	stdout, stderr, err := runCLI(t, f, "job", "output", "5", "--follow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(stdout, "PLAY [all]") != 1 {
		t.Errorf("expected event printed once, got %q", stdout)
	}
	if !strings.Contains(stderr, "Job 5 finished with status successful") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestPing_Partial(t *testing.T) {
	f := newFakeAAP(t)
	f.handle("GET "+gatewayPrefix+"ping/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"version": "2.5", "pong": "2025-07-01T14:47:53.988589Z",
			"db_connected": true, "proxy_connected": false,
		})
	})
	f.handle("GET "+controllerPrefix+"ping/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"detail": "maintenance"})
	})

	stdout, _, err := runCLI(t, f, "ping")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for field, want := range map[string]string{
		"Overall Status":        "PARTIAL",
		"Authentication":        "Token",
		"Gateway API Status":    "OK",
		"Gateway Version":       "2.5",
		"Gateway Server Time":   "2025-07-01 14:47:53",
		"Gateway DB Status":     "Connected",
		"Gateway Proxy Status":  "Disconnected",
		"Controller API Status": "FAILED",
		"Controller Version":    "Unknown",
		"Controller Error":      "HTTP 503: maintenance",
	} {
		if got, ok := detailValue(stdout, field); !ok || got != want {
			t.Errorf("%s: expected %q, got %q (found=%v)", field, want, got, ok)
		}
	}
	if strings.Index(stdout, "Gateway API Status") > strings.Index(stdout, "Controller API Status") {
		t.Error("expected Gateway section before Controller")
	}
}

func TestPing_DetailJSON(t *testing.T) {
	f := newFakeAAP(t)
	f.handle("GET "+gatewayPrefix+"ping/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"version": "2.5"})
	})
	f.handle("GET "+controllerPrefix+"ping/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"version": "4.6.0", "active_node": "ctrl-1", "ha": false,
			"instances": []any{map[string]any{"node": "ctrl-1", "node_type": "hybrid", "capacity": 57}},
		})
	})

	stdout, _, err := runCLI(t, f, "ping", "--detail", "-o", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var report struct {
		OverallStatus string `json:"overall_status"`
		Controller    struct {
			ActiveNode string `json:"active_node"`
		} `json:"controller"`
		Detail map[string]any `json:"detail"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if report.OverallStatus != "OK" {
		t.Errorf("expected OK, got %s", report.OverallStatus)
	}
	if report.Controller.ActiveNode != "ctrl-1" {
		t.Errorf("expected active node, got %q", report.Controller.ActiveNode)
	}
	if _, ok := report.Detail["instances"]; !ok {
		t.Error("expected instances in detail")
	}
}

func TestResourceList_ErrorMarker(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"job_templates/", domain.Record{"id": 1}, domain.Record{"id": 2}, domain.Record{"id": 3}, domain.Record{"id": 4})
	f.collection(controllerPrefix+"projects/", domain.Record{"id": 1})
	f.collection(controllerPrefix + "inventories/")
	f.collection(controllerPrefix+"hosts/", hosts()...)
	f.collection(controllerPrefix + "credentials/")
	f.collection(gatewayPrefix+"organizations/", gatewayOrgs()...)
	f.collection(gatewayPrefix + "teams/")
	f.failCollection(gatewayPrefix+"users/", http.StatusInternalServerError)

	stdout, _, err := runCLI(t, f, "resource", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got [][]string
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n")[2:] {
		got = append(got, strings.Fields(line))
	}
	want := [][]string{
		{"Templates", "4"},
		{"Projects", "1"},
		{"Inventories", "0"},
		{"Hosts", "5"},
		{"Credentials", "0"},
		{"Organizations", "2"},
		{"Teams", "0"},
		{"Users", "Error"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resource counts mismatch (-want +got):\n%s", diff)
	}
}

func TestWhoami(t *testing.T) {
	f := newFakeAAP(t)
	f.handle("GET "+gatewayPrefix+"me/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"count": 1,
			"results": []any{map[string]any{
				"id": 1, "username": "admin", "is_superuser": true,
				"summary_fields": map[string]any{
					"organizations": []any{
						map[string]any{"id": 1, "name": "Default"},
						map[string]any{"id": 2, "name": "Engineering"},
					},
				},
			}},
		})
	})

	stdout, _, err := runCLI(t, f, "whoami")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := detailValue(stdout, "Organizations"); got != "Default, Engineering" {
		t.Errorf("unexpected organizations: %q", got)
	}
	if got, _ := detailValue(stdout, "Superuser"); got != "Yes" {
		t.Errorf("expected superuser Yes, got %q", got)
	}
}

func TestMissingHost(t *testing.T) {
	f := newFakeAAP(t)

	for _, k := range []string{"AAP_USERNAME", "AAP_PASSWORD", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("AAP_HOST", "")
	t.Setenv("AAP_TOKEN", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	err := Execute(context.Background(), "test", []string{"host", "list"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "AAP host is required") {
		t.Fatalf("expected missing host error, got %v", err)
	}
	if len(f.calls) != 0 {
		t.Errorf("expected no requests, got %v", f.calls)
	}
}

func TestMetricsFile(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"hosts/", hosts()...)
	path := filepath.Join(t.TempDir(), "aap.prom")

	if _, _, err := runCLI(t, f, "host", "list", "--metrics-file", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), "aap_client_requests_total") {
		t.Errorf("expected request counter in metrics file:\n%s", data)
	}
}

func TestCredentialShow_RedactsSecrets(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"credentials/", domain.Record{
		"id": 8, "name": "deploy", "credential_type": 1,
		"inputs": map[string]any{"username": "admin", "password": "plain", "ssh_key_data": "KEY"},
	})

	stdout, _, err := runCLI(t, f, "credential", "show", "deploy", "-o", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(stdout, "plain") || strings.Contains(stdout, "KEY") {
		t.Fatalf("secret leaked into output:\n%s", stdout)
	}

	var got struct {
		Inputs map[string]any `json:"inputs"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	want := map[string]any{"username": "admin", "password": "$encrypted$", "ssh_key_data": "$encrypted$"}
	if diff := cmp.Diff(want, got.Inputs); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
}

func TestCredentialSet_MergesInputs(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"credentials/", domain.Record{
		"id": 8, "name": "deploy", "credential_type": 1,
		"inputs": map[string]any{"username": "admin", "password": "$encrypted$"},
	})

	_, _, err := runCLI(t, f, "credential", "set", "deploy")
	if !errors.Is(err, ErrNothingToUpdate) {
		t.Fatalf("expected ErrNothingToUpdate, got %v", err)
	}

	stdout, _, err := runCLI(t, f, "credential", "set", "deploy", "--username", "root", "--password", "s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{"inputs": map[string]any{"username": "root", "password": "s3cret"}}
	if diff := cmp.Diff(want, f.body("PATCH "+controllerPrefix+"credentials/8/")); diff != "" {
		t.Errorf("PATCH body mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(stdout, "s3cret") {
		t.Errorf("secret leaked into output:\n%s", stdout)
	}

	_, _, err = runCLI(t, f, "credential", "set", "deploy", "--become-method", "sudo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = map[string]any{"inputs": map[string]any{"username": "root", "password": "s3cret", "become_method": "sudo"}}
	if diff := cmp.Diff(want, f.body("PATCH "+controllerPrefix+"credentials/8/")); diff != "" {
		t.Errorf("PATCH body mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectUpdate(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"projects/",
		domain.Record{"id": 21, "name": "playbooks"},
		domain.Record{"id": 22, "name": "legacy"},
	)
	f.handle("POST "+controllerPrefix+"projects/21/update/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusAccepted, map[string]any{"id": 55, "status": "pending"})
	})
	f.handle("POST "+controllerPrefix+"projects/22/update/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	stdout, _, err := runCLI(t, f, "project", "update", "playbooks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for field, want := range map[string]string{
		"Project Update ID": "55",
		"Project":           "playbooks",
		"Status":            "pending",
	} {
		if got, _ := detailValue(stdout, field); got != want {
			t.Errorf("%s: expected %q, got %q", field, want, got)
		}
	}

	stdout, stderr, err := runCLI(t, f, "project", "update", "--id", "22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "" {
		t.Errorf("expected empty stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "Project 'legacy' update started") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestWorkflowLaunch(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"workflow_job_templates/", domain.Record{"id": 30, "name": "Release"})
	f.collection(controllerPrefix+"inventories/", domain.Record{"id": 3, "name": "prod"})
	f.handle("POST "+controllerPrefix+"workflow_job_templates/30/launch/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 140, "name": "Release", "status": "pending", "workflow_job_template": 30,
			"summary_fields": map[string]any{"workflow_job_template": map[string]any{"id": 30, "name": "Release"}},
		})
	})

	stdout, _, err := runCLI(t, f, "workflow", "launch", "Release",
		"-e", "version=1.4", "--inventory", "prod", "--limit", "web*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"extra_vars": map[string]any{"version": "1.4"},
		"inventory":  float64(3),
		"limit":      "web*",
	}
	if diff := cmp.Diff(want, f.body("POST "+controllerPrefix+"workflow_job_templates/30/launch/")); diff != "" {
		t.Errorf("launch body mismatch (-want +got):\n%s", diff)
	}
	if got, _ := detailValue(stdout, "ID"); got != "140" {
		t.Errorf("expected workflow job 140, got %q", got)
	}
	if got, _ := detailValue(stdout, "Workflow Job Template"); got != "Release" {
		t.Errorf("expected template name, got %q", got)
	}
}

func TestWorkflowLaunch_RejectsVerbosity(t *testing.T) {
	f := newFakeAAP(t)

	_, _, err := runCLI(t, f, "workflow", "launch", "Release", "--verbosity", "2")
	if err == nil || !strings.Contains(err.Error(), "verbosity") {
		t.Fatalf("expected unknown flag error, got %v", err)
	}
}

func TestWorkflowCreateAndSet(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"organizations/", domain.Record{"id": 7, "name": "Default"})
	f.collection(controllerPrefix + "workflow_job_templates/")

	_, _, err := runCLI(t, f, "workflow", "create", "nightly",
		"--organization", "Default", "--extra-vars", "env: prod", "--allow-simultaneous")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"name":               "nightly",
		"organization":       float64(7),
		"extra_vars":         `{"env":"prod"}`,
		"allow_simultaneous": true,
	}
	if diff := cmp.Diff(want, f.body("POST "+controllerPrefix+"workflow_job_templates/")); diff != "" {
		t.Errorf("POST body mismatch (-want +got):\n%s", diff)
	}

	stdout, _, err := runCLI(t, f, "workflow", "set", "nightly", "--name", "nightly-2", "--no-allow-simultaneous")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want = map[string]any{"name": "nightly-2", "allow_simultaneous": false}
	if diff := cmp.Diff(want, f.body("PATCH "+controllerPrefix+"workflow_job_templates/1001/")); diff != "" {
		t.Errorf("PATCH body mismatch (-want +got):\n%s", diff)
	}
	if got, _ := detailValue(stdout, "Name"); got != "nightly-2" {
		t.Errorf("expected renamed workflow, got %q", got)
	}

	_, _, err = runCLI(t, f, "workflow", "set", "nightly-2")
	if !errors.Is(err, ErrNothingToUpdate) {
		t.Errorf("expected ErrNothingToUpdate, got %v", err)
	}
}

func TestWorkflowJobRelaunch(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"workflow_jobs/", domain.Record{"id": 40, "name": "Release", "status": "failed"})
	f.handle("POST "+controllerPrefix+"workflow_jobs/40/relaunch/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": 41, "name": "Release", "status": "pending"})
	})

	stdout, _, err := runCLI(t, f, "workflow-job", "relaunch", "40")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.called("POST " + controllerPrefix + "workflow_jobs/40/relaunch/") {
		t.Error("expected relaunch request")
	}
	if got, _ := detailValue(stdout, "ID"); got != "41" {
		t.Errorf("expected new workflow job 41, got %q", got)
	}
}

func TestInventoryCreate_Variables(t *testing.T) {
	f := newFakeAAP(t)
	f.collection(controllerPrefix+"organizations/", domain.Record{"id": 7, "name": "Default"})
	f.collection(controllerPrefix + "inventories/")

	_, _, err := runCLI(t, f, "inventory", "create", "prod",
		"--organization", "Default", "--kind", "smart", "--variables", "region: eu\nhosts: 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"name":         "prod",
		"organization": float64(7),
		"kind":         "smart",
		"variables":    `{"hosts":2,"region":"eu"}`,
	}
	if diff := cmp.Diff(want, f.body("POST "+controllerPrefix+"inventories/")); diff != "" {
		t.Errorf("POST body mismatch (-want +got):\n%s", diff)
	}
}
