package caddy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdminClient(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)

		if r.URL.Path == "/id/lab-missing" {
			http.Error(w, `{"error":"unknown object ID"}`, http.StatusNotFound)
			return
		}
		w.Write([]byte(`[{"@id":"lab-demo"}]`))
	}))
	defer srv.Close()

	client := NewAdminClient(srv.URL)
	ctx := context.Background()

	data, err := client.Get(ctx, RoutesPath)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if gotMethod != http.MethodGet || gotPath != RoutesPath {
		t.Errorf("Get() issued %s %s", gotMethod, gotPath)
	}
	if string(data) != `[{"@id":"lab-demo"}]` {
		t.Errorf("Get() body = %s", data)
	}

	if err := client.Post(ctx, RoutesPath, []byte(`{"@id":"lab-x"}`)); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if gotMethod != http.MethodPost || gotContentType != "application/json" {
		t.Errorf("Post() issued %s with content-type %q", gotMethod, gotContentType)
	}
	if string(gotBody) != `{"@id":"lab-x"}` {
		t.Errorf("Post() body = %s", gotBody)
	}

	err = client.Delete(ctx, "/id/lab-missing")
	if err == nil {
		t.Fatal("Delete() of missing id: expected error, got nil")
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false, want true", err)
	}
}

func TestAdminClientUnreachable(t *testing.T) {
	// Closed server: connection refused, not a StatusError.
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewAdminClient(srv.URL)
	if _, err := client.Get(context.Background(), RoutesPath); err == nil {
		t.Error("Get() against closed server: expected error, got nil")
	} else if IsNotFound(err) {
		t.Errorf("transport error classified as not-found: %v", err)
	}
}
