package stubserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/raido/internal/models"
)

// testEnv sets up a temp SQLite store seeded with the default dataset and
// returns the router.
func testEnv(t *testing.T) (*Store, http.Handler) {
	t.Helper()

	dbFile, err := os.CreateTemp("", "raido-stub-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := OpenStore(dbFile.Name())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.ApplySeed(DefaultSeed()); err != nil {
		t.Fatalf("ApplySeed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(store, "test-secret", logger)
	return store, srv.Router()
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func loginAs(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/auth/login", "",
		map[string]string{"email": email, "password": "password"})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", email, w.Code, w.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Token
}

func TestLoginAndMe(t *testing.T) {
	_, router := testEnv(t)

	w := doRequest(t, router, http.MethodPost, "/auth/login", "",
		map[string]string{"email": "admin@acme.test", "password": "password"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.User.Email != "admin@acme.test" || resp.User.Role != models.RoleAdmin || resp.User.TenantID != "acme" {
		t.Errorf("unexpected user: %+v", resp.User)
	}

	w = doRequest(t, router, http.MethodGet, "/auth/me", resp.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}
	var me models.User
	_ = json.Unmarshal(w.Body.Bytes(), &me)
	if me.ID != resp.User.ID {
		t.Errorf("me id = %q, want %q", me.ID, resp.User.ID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, router := testEnv(t)

	for _, creds := range []map[string]string{
		{"email": "admin@acme.test", "password": "nope"},
		{"email": "nobody@acme.test", "password": "password"},
	} {
		w := doRequest(t, router, http.MethodPost, "/auth/login", "", creds)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("login %v: status = %d, want 401", creds, w.Code)
		}
		var body errResponse
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body.Error != "invalid email or password" {
			t.Errorf("error = %q", body.Error)
		}
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	_, router := testEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/auth/me"},
		{http.MethodGet, "/notes"},
		{http.MethodGet, "/tenants/acme"},
	} {
		w := doRequest(t, router, tc.method, tc.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", tc.method, tc.path, w.Code)
		}
	}

	w := doRequest(t, router, http.MethodGet, "/notes", "garbage-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", w.Code)
	}
}

func TestNotesCRUDScopedToTenant(t *testing.T) {
	_, router := testEnv(t)
	acme := loginAs(t, router, "admin@acme.test")
	globex := loginAs(t, router, "admin@globex.test")

	w := doRequest(t, router, http.MethodPost, "/notes", acme,
		map[string]string{"title": "Plan", "content": "ship it"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created models.Note
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" || created.Title != "Plan" {
		t.Fatalf("unexpected note: %+v", created)
	}

	// The other tenant sees an empty collection and cannot touch the note.
	w = doRequest(t, router, http.MethodGet, "/notes", globex, nil)
	var globexNotes []models.Note
	_ = json.Unmarshal(w.Body.Bytes(), &globexNotes)
	if len(globexNotes) != 0 {
		t.Errorf("globex sees %d notes, want 0", len(globexNotes))
	}
	w = doRequest(t, router, http.MethodDelete, "/notes/"+created.ID, globex, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-tenant delete: status = %d, want 404", w.Code)
	}

	w = doRequest(t, router, http.MethodPut, "/notes/"+created.ID, acme,
		map[string]string{"title": "Plan v2", "content": "ship it later"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	var updated models.Note
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Title != "Plan v2" {
		t.Errorf("title = %q", updated.Title)
	}

	w = doRequest(t, router, http.MethodDelete, "/notes/"+created.ID, acme, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doRequest(t, router, http.MethodGet, "/notes", acme, nil)
	var remaining []models.Note
	_ = json.Unmarshal(w.Body.Bytes(), &remaining)
	if len(remaining) != 0 {
		t.Errorf("remaining = %d, want 0", len(remaining))
	}
}

func TestCreateNoteValidation(t *testing.T) {
	_, router := testEnv(t)
	token := loginAs(t, router, "user@acme.test")

	for _, body := range []map[string]string{
		{"title": "", "content": "x"},
		{"title": "x", "content": ""},
	} {
		w := doRequest(t, router, http.MethodPost, "/notes", token, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("create %v: status = %d, want 400", body, w.Code)
		}
	}
}

func TestNoteLimitAndUpgrade(t *testing.T) {
	_, router := testEnv(t)
	admin := loginAs(t, router, "admin@acme.test")
	member := loginAs(t, router, "user@acme.test")

	for i := 0; i < 3; i++ {
		w := doRequest(t, router, http.MethodPost, "/notes", admin,
			map[string]string{"title": "n", "content": "c"})
		if w.Code != http.StatusCreated {
			t.Fatalf("create %d: status = %d", i, w.Code)
		}
	}

	// At the limit, the next create is rejected.
	w := doRequest(t, router, http.MethodPost, "/notes", admin,
		map[string]string{"title": "n", "content": "c"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("over-limit create: status = %d, want 403", w.Code)
	}
	var body errResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Error != "note limit reached" {
		t.Errorf("error = %q", body.Error)
	}

	// Members cannot upgrade.
	w = doRequest(t, router, http.MethodPost, "/tenants/acme/upgrade", member, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("member upgrade: status = %d, want 403", w.Code)
	}

	// Admin upgrade lifts the cap.
	w = doRequest(t, router, http.MethodPost, "/tenants/acme/upgrade", admin, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("admin upgrade: status = %d, body = %s", w.Code, w.Body.String())
	}
	w = doRequest(t, router, http.MethodGet, "/tenants/acme", admin, nil)
	var tenant models.Tenant
	_ = json.Unmarshal(w.Body.Bytes(), &tenant)
	if tenant.Plan != models.PlanPro {
		t.Errorf("plan = %q, want pro", tenant.Plan)
	}
	w = doRequest(t, router, http.MethodPost, "/notes", admin,
		map[string]string{"title": "n4", "content": "c"})
	if w.Code != http.StatusCreated {
		t.Errorf("post-upgrade create: status = %d, want 201", w.Code)
	}
}

func TestTenantScope(t *testing.T) {
	_, router := testEnv(t)
	acme := loginAs(t, router, "admin@acme.test")

	w := doRequest(t, router, http.MethodGet, "/tenants/globex", acme, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign tenant read: status = %d, want 403", w.Code)
	}
	w = doRequest(t, router, http.MethodPost, "/tenants/globex/upgrade", acme, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign tenant upgrade: status = %d, want 403", w.Code)
	}
}

func TestSeedValidation(t *testing.T) {
	seed := DefaultSeed()
	if err := seed.Validate(); err != nil {
		t.Fatalf("default seed should validate: %v", err)
	}

	// A free-plan tenant must carry a positive note limit.
	seed.Tenants[0].NoteLimit = 0
	if err := seed.Validate(); err == nil {
		t.Fatal("free-plan tenant without a note limit should fail validation")
	}

	// Pro tenants have no quota, so the limit may be omitted.
	seed.Tenants[0].Plan = models.PlanPro
	if err := seed.Validate(); err != nil {
		t.Errorf("pro tenant without a note limit should validate: %v", err)
	}
}

func TestSeedReload(t *testing.T) {
	store, router := testEnv(t)

	seedPath := filepath.Join(t.TempDir(), "seed.yaml")
	seed := DefaultSeed()
	writeSeedFile(t, seedPath, seed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = WatchSeed(ctx, seedPath, store, logger)
	}()

	// Give the watcher a moment to register, then rewrite the seed with a
	// new account and wait for the reload to land.
	time.Sleep(100 * time.Millisecond)
	seed.Users = append(seed.Users, SeedUser{
		ID: "u-acme-extra", TenantID: "acme", Email: "extra@acme.test",
		Password: "password", Role: models.RoleMember,
	})
	writeSeedFile(t, seedPath, seed)

	deadline := time.Now().Add(5 * time.Second)
	for {
		w := doRequest(t, router, http.MethodPost, "/auth/login", "",
			map[string]string{"email": "extra@acme.test", "password": "password"})
		if w.Code == http.StatusOK {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("seed reload never applied the new account")
		}
		time.Sleep(100 * time.Millisecond)
	}

	cancel()
	<-done
}

func writeSeedFile(t *testing.T, path string, seed Seed) {
	t.Helper()
	raw, err := yaml.Marshal(seed)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
}
