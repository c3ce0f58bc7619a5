package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/shaiso/aap/internal/domain"
	"github.com/shaiso/aap/internal/format"
)

const (
	gatewayPrefix    = "/api/gateway/v1/"
	controllerPrefix = "/api/v2/"
)

// fakeAAP — минимальный AAP: коллекции с фильтрацией по полям,
// CRUD по id и произвольные обработчики для остальных путей.
type fakeAAP struct {
	t      *testing.T
	server *httptest.Server

	mu          sync.Mutex
	collections map[string]*fakeCollection
	handlers    map[string]http.HandlerFunc
	calls       []string
	bodies      map[string]map[string]any
}

type fakeCollection struct {
	records map[int]domain.Record
	nextID  int
	fail    int
}

func newFakeAAP(t *testing.T) *fakeAAP {
	t.Helper()
	f := &fakeAAP{
		t:           t,
		collections: map[string]*fakeCollection{},
		handlers:    map[string]http.HandlerFunc{},
		bodies:      map[string]map[string]any{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

// collection регистрирует коллекцию по пути ("/api/v2/hosts/").
func (f *fakeAAP) collection(path string, recs ...domain.Record) {
	c := &fakeCollection{records: map[int]domain.Record{}, nextID: 1000}
	for _, r := range recs {
		id, _ := r.ID()
		c.records[id] = r
	}
	f.collections[path] = c
}

// failCollection заставляет коллекцию отвечать статусом code.
func (f *fakeAAP) failCollection(path string, code int) {
	c, ok := f.collections[path]
	if !ok {
		c = &fakeCollection{records: map[int]domain.Record{}}
		f.collections[path] = c
	}
	c.fail = code
}

// handle регистрирует обработчик для "METHOD /path/".
func (f *fakeAAP) handle(pattern string, h http.HandlerFunc) {
	f.handlers[pattern] = h
}

func (f *fakeAAP) called(pattern string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == pattern {
			return true
		}
	}
	return false
}

func (f *fakeAAP) body(pattern string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[pattern]
}

func (f *fakeAAP) record(path string, id int) (domain.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.collections[path].records[id]
	return r, ok
}

func (f *fakeAAP) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	var body map[string]any
	if r.Method == http.MethodPost || r.Method == http.MethodPatch {
		json.NewDecoder(r.Body).Decode(&body)
	}

	f.mu.Lock()
	f.calls = append(f.calls, key)
	if body != nil {
		f.bodies[key] = body
	}
	h, ok := f.handlers[key]
	f.mu.Unlock()

	if ok {
		h(w, r)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.collections[r.URL.Path]; ok {
		f.serveCollection(w, r, c, body)
		return
	}

	dir, last := splitItem(r.URL.Path)
	if c, ok := f.collections[dir]; ok {
		if id, err := strconv.Atoi(last); err == nil {
			f.serveItem(w, r, c, id, body)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
}

func (f *fakeAAP) serveCollection(w http.ResponseWriter, r *http.Request, c *fakeCollection, body map[string]any) {
	if c.fail != 0 {
		writeJSON(w, c.fail, map[string]any{"detail": "boom"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		var results []domain.Record
		for _, rec := range c.records {
			if matches(rec, r.URL.Query()) {
				results = append(results, rec)
			}
		}
		sort.Slice(results, func(i, j int) bool {
			a, _ := results[i].ID()
			b, _ := results[j].ID()
			return a < b
		})
		count := len(results)
		if size, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && size < len(results) {
			results = results[:size]
		}
		if results == nil {
			results = []domain.Record{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": count, "results": results})
	case http.MethodPost:
		c.nextID++
		rec := domain.Record{"id": c.nextID}
		for k, v := range body {
			rec[k] = v
		}
		c.records[c.nextID] = rec
		writeJSON(w, http.StatusCreated, rec)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeAAP) serveItem(w http.ResponseWriter, r *http.Request, c *fakeCollection, id int, body map[string]any) {
	rec, ok := c.records[id]
	if !ok || c.fail != 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, rec)
	case http.MethodPatch:
		for k, v := range body {
			rec[k] = v
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		delete(c.records, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// matches применяет фильтры запроса к полям записи. Служебные параметры
// и параметры без соответствующего поля игнорируются.
func matches(rec domain.Record, q map[string][]string) bool {
	for key, values := range q {
		switch key {
		case "page_size", "order_by", "page":
			continue
		}
		v, ok := rec[key]
		if !ok {
			continue
		}
		if format.Stringify(v) != values[0] {
			return false
		}
	}
	return true
}

func splitItem(path string) (string, string) {
	trimmed := strings.TrimSuffix(path, "/")
	i := strings.LastIndexByte(trimmed, '/')
	if i < 0 {
		return "", ""
	}
	return trimmed[:i+1], trimmed[i+1:]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// runCLI выполняет команду против fake и возвращает stdout и stderr.
func runCLI(t *testing.T, f *fakeAAP, args ...string) (string, string, error) {
	t.Helper()

	for _, k := range []string{"AAP_USERNAME", "AAP_PASSWORD", "AAP_CA_BUNDLE", "AAP_TIMEOUT", "AAP_VERIFY_SSL", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	t.Setenv("AAP_HOST", f.server.URL)
	t.Setenv("AAP_TOKEN", "test-token")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), "test", args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

// detailValue находит значение поля в выводе Field/Value.
func detailValue(out, field string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, field+"  "); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}
