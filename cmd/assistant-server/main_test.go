package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthguard/assistant/internal/domain/chat"
	"github.com/healthguard/assistant/internal/domain/records"
	"github.com/healthguard/assistant/internal/platform/auth"
	"github.com/healthguard/assistant/internal/platform/blobstore"
	"github.com/healthguard/assistant/internal/platform/db"
)

// ---------------------------------------------------------------------------
// seed fixture
// ---------------------------------------------------------------------------

func TestReadSeedFile(t *testing.T) {
	data, err := readSeedFile(filepath.Join("testdata", "seed.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data.Staff) != 3 || len(data.Wards) != 1 || len(data.Patients) != 2 {
		t.Fatalf("unexpected counts: staff=%d wards=%d patients=%d", len(data.Staff), len(data.Wards), len(data.Patients))
	}

	john := data.Patients[0]
	if john.PatientID != "P001" || john.AssignedDoctor != "Dr. Emily Carter" {
		t.Errorf("unexpected first patient: %+v", john)
	}
	meds := john.Prescriptions[0].Medicines
	if len(meds) != 2 || meds[1].Name != "Aspirin" {
		t.Errorf("expected bare medicine name to decode, got %+v", meds)
	}
	if data.Wards[0].Capacity == nil || *data.Wards[0].Capacity != 24 {
		t.Errorf("expected ward capacity 24, got %v", data.Wards[0].Capacity)
	}
}

func TestReadSeedFile_Missing(t *testing.T) {
	if _, err := readSeedFile(filepath.Join("testdata", "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadSeedFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := readSeedFile(path)
	if err == nil || !strings.Contains(err.Error(), "parse seed file") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// health
// ---------------------------------------------------------------------------

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func checkHealth(t *testing.T, h *healthHandler) healthResponse {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Check(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func fixedNow() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestHealth_AllUp(t *testing.T) {
	h := &healthHandler{
		database: db.NewProbe(fakePinger{}, time.Second),
		llm:      fakePinger{},
		history:  fakePinger{},
		stats:    func() *db.PoolStats { return &db.PoolStats{MaxConns: 10} },
		timeout:  time.Second,
		now:      fixedNow,
	}
	out := checkHealth(t, h)

	if out.Status != "healthy" {
		t.Errorf("expected healthy, got %s", out.Status)
	}
	if out.Timestamp != "2024-03-01T12:00:00Z" {
		t.Errorf("unexpected timestamp %s", out.Timestamp)
	}
	want := map[string]string{"database": "connected", "llm": "available", "history": "connected"}
	for k, v := range want {
		if out.Services[k] != v {
			t.Errorf("services[%s] = %q, want %q", k, out.Services[k], v)
		}
	}
	if out.Pool == nil || out.Pool.MaxConns != 10 {
		t.Errorf("expected pool stats, got %+v", out.Pool)
	}
	if out.Tagline != tagline {
		t.Errorf("unexpected tagline %q", out.Tagline)
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	h := &healthHandler{
		database: db.NewProbe(fakePinger{err: errors.New("dial tcp: refused")}, time.Second),
		llm:      fakePinger{err: errors.New("timeout")},
		history:  nil,
		timeout:  time.Second,
		now:      fixedNow,
	}
	out := checkHealth(t, h)

	if out.Status != "degraded" {
		t.Errorf("expected degraded, got %s", out.Status)
	}
	if out.Services["database"] != "disconnected" {
		t.Errorf("expected database disconnected, got %s", out.Services["database"])
	}
	if out.Services["llm"] != "unavailable" {
		t.Errorf("expected llm unavailable, got %s", out.Services["llm"])
	}
	if out.Services["history"] != "disconnected" {
		t.Errorf("expected history disconnected when unset, got %s", out.Services["history"])
	}
	if out.Pool != nil {
		t.Errorf("expected no pool stats, got %+v", out.Pool)
	}
}

func TestUpDown(t *testing.T) {
	if got := upDown(true, "a", "b"); got != "a" {
		t.Errorf("got %q", got)
	}
	if got := upDown(false, "a", "b"); got != "b" {
		t.Errorf("got %q", got)
	}
}

// ---------------------------------------------------------------------------
// route table
// ---------------------------------------------------------------------------

func TestRegisterRoutes(t *testing.T) {
	e := echo.New()
	deps := serverDeps{
		Records: records.NewService(nil, nil, nil, zerolog.Nop()),
		Tokens:  auth.NewTokenIssuer("", time.Hour),
		History: chat.NewMemoryHistory(),
		Blobs:   blobstore.NewInMemoryBlobStore(),
		Doctors: []string{"Dr. Emily Carter"},
		Health:  &healthHandler{now: time.Now},
	}
	registerRoutes(e, deps, zerolog.Nop())

	want := []string{
		"GET /health",
		"POST /login",
		"POST /chat",
		"GET /api/chat/search",
		"GET /api/patients/:patientId",
		"GET /api/staff",
		"GET /mypatient/",
		"GET /mypatient/:patientId",
		"GET /mypatient/:patientId/prescriptions",
		"GET /mypatient/uploads/:filename",
		"POST /disease/predict",
		"POST /machine/predict",
	}
	got := make(map[string]bool)
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, w := range want {
		if !got[w] {
			t.Errorf("route %s not registered", w)
		}
	}
}
