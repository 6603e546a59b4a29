package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestGateway_GetJSON(t *testing.T) {
	var gotUserAgent, gotAccept, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"login": "octocat"})
	}))
	defer server.Close()

	g := NewGateway(nil, nil)
	header := http.Header{"Authorization": {"token TOK3N"}}
	var dst struct {
		Login string `json:"login"`
	}
	if err := g.GetJSON(context.Background(), server.URL+"/user", header, &dst); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}

	if dst.Login != "octocat" {
		t.Errorf("decoded login = %q, want %q", dst.Login, "octocat")
	}
	if gotAuth != "token TOK3N" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "token TOK3N")
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want application/json", gotAccept)
	}
	if !strings.HasPrefix(gotUserAgent, "consoleauth/") {
		t.Errorf("User-Agent = %q, want consoleauth/<version>", gotUserAgent)
	}
}

func TestGateway_GetJSON_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	g := NewGateway(nil, nil)
	err := g.GetJSON(context.Background(), server.URL+"/user", nil, &struct{}{})
	if err == nil {
		t.Fatal("GetJSON() error = nil, want transport error")
	}

	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("GetJSON() error type = %T, want *TransportError", err)
	}
	if transport.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want %d", transport.StatusCode, http.StatusUnauthorized)
	}
	if !strings.Contains(transport.Body, "Bad credentials") {
		t.Errorf("Body = %q, want response snippet", transport.Body)
	}
}

func TestGateway_GetJSON_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	g := NewGateway(nil, nil)
	err := g.GetJSON(context.Background(), server.URL+"/user", nil, &struct{}{})
	if err == nil {
		t.Fatal("GetJSON() error = nil, want malformed response")
	}

	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("GetJSON() error type = %T, want *MalformedResponseError", err)
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("GetJSON() error = %v, want invalid JSON", err)
	}
}

func TestGateway_GetJSON_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // shut down before the request

	g := NewGateway(nil, nil)
	err := g.GetJSON(context.Background(), server.URL+"/user", nil, &struct{}{})
	if err == nil {
		t.Fatal("GetJSON() error = nil, want transport error")
	}

	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("GetJSON() error type = %T, want *TransportError", err)
	}
	if transport.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 when no response was received", transport.StatusCode)
	}
	if transport.Unwrap() == nil {
		t.Error("Unwrap() = nil, want underlying transport error")
	}
}

func TestGateway_PostJSON(t *testing.T) {
	var gotContentType string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	g := NewGateway(nil, nil)
	var dst struct {
		OK bool `json:"ok"`
	}
	err := g.PostJSON(context.Background(), server.URL+"/graphql", nil, map[string]string{"query": "{ viewer }"}, &dst)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}

	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody["query"] != "{ viewer }" {
		t.Errorf("posted query = %q, want %q", gotBody["query"], "{ viewer }")
	}
	if !dst.OK {
		t.Error("decoded ok = false, want true")
	}
}

func TestGateway_PostForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("echo=" + r.PostForm.Get("key")))
	}))
	defer server.Close()

	g := NewGateway(nil, nil)
	body, err := g.PostForm(context.Background(), server.URL+"/token", nil, url.Values{"key": {"value"}})
	if err != nil {
		t.Fatalf("PostForm() error = %v", err)
	}
	if string(body) != "echo=value" {
		t.Errorf("PostForm() body = %q, want %q", body, "echo=value")
	}
}

func TestGateway_TruncatesErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	g := NewGateway(nil, nil)
	err := g.GetJSON(context.Background(), server.URL+"/user", nil, &struct{}{})

	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("GetJSON() error type = %T, want *TransportError", err)
	}
	if len(transport.Body) > errorSnippetLen {
		t.Errorf("Body length = %d, want at most %d", len(transport.Body), errorSnippetLen)
	}
}
