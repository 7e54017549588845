package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/raido/internal/apperr"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestBearerHeaderAttachedWhenTokenPresent(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL, staticToken("t1"))
	if _, err := c.ListNotes(context.Background()); err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if seenAuth != "Bearer t1" {
		t.Errorf("Authorization = %q, want Bearer t1", seenAuth)
	}
}

func TestBearerHeaderOmittedWhenAnonymous(t *testing.T) {
	var seenAuth string
	var hadHeader bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		_, hadHeader = r.Header["Authorization"]
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "t1"})
	}))
	defer server.Close()

	c := New(server.URL, staticToken(""))
	if _, err := c.Login(context.Background(), "user@acme.test", "password"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if hadHeader {
		t.Errorf("Authorization header present: %q", seenAuth)
	}
}

func TestRequestBodySerialized(t *testing.T) {
	var seen NoteRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&seen)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"n1"}`))
	}))
	defer server.Close()

	c := New(server.URL, staticToken("t1"))
	if _, err := c.CreateNote(context.Background(), "Title", "Body"); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if seen.Title != "Title" || seen.Content != "Body" {
		t.Errorf("decoded body = %+v", seen)
	}
}

func TestFailureClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind error
		wantMsg  string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid token"}`, apperr.ErrAuthentication, "invalid token"},
		{"not found", http.StatusNotFound, `{"error":"note not found"}`, apperr.ErrNotFound, "note not found"},
		{"message field", http.StatusForbidden, `{"message":"note limit reached"}`, apperr.ErrBackend, "note limit reached"},
		{"server error", http.StatusInternalServerError, `{"error":"internal error"}`, apperr.ErrBackend, "internal error"},
		{"malformed body", http.StatusBadGateway, `<html>oops</html>`, apperr.ErrBackend, "request failed"},
		{"empty body", http.StatusServiceUnavailable, ``, apperr.ErrBackend, "request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := New(server.URL, staticToken("t1"))
			_, err := c.ListNotes(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("kind = %v, want %v", err, tt.wantKind)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // unreachable from here on

	c := New(server.URL, staticToken(""))
	_, err := c.ListNotes(context.Background())
	if !errors.Is(err, apperr.ErrTransport) {
		t.Fatalf("err = %v, want transport failure", err)
	}
}

func TestAuthErrorCallbackFires(t *testing.T) {
	status := http.StatusUnauthorized
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer server.Close()

	var fired int
	c := New(server.URL, staticToken("t1"))
	c.OnAuthError(func() { fired++ })

	_, err := c.ListNotes(context.Background())
	if !errors.Is(err, apperr.ErrAuthentication) {
		t.Fatalf("err = %v, want authentication failure", err)
	}
	if fired != 1 {
		t.Errorf("callback fired %d times, want 1", fired)
	}

	// Non-authentication failures leave the callback alone.
	status = http.StatusInternalServerError
	if _, err := c.ListNotes(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	if fired != 1 {
		t.Errorf("callback fired %d times after server error, want 1", fired)
	}
}

func TestEmptyResponseBodyWithNilOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := New(server.URL, staticToken("t1"))
	if err := c.DeleteNote(context.Background(), "n1"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
}
