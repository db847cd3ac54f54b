package issues

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCountByAuthorForwardsBearerAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/issues/count" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer caller-token" {
			t.Errorf("expected the inbound bearer to be forwarded, got %q", got)
		}
		if got := r.URL.Query().Get("authorId"); got != "res-1" {
			t.Errorf("expected authorId=res-1, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]int64{"count": 7}) //nolint:errcheck
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	count, err := client.CountByAuthor(context.Background(), "caller-token", "res-1")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 7 {
		t.Fatalf("expected 7, got %d", count)
	}
}

func TestListByAuthorAppliesStatusFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "SOLVING" {
			t.Errorf("expected status filter, got %q", got)
		}
		json.NewEncoder(w).Encode([]Issue{ //nolint:errcheck
			{UID: "iss-1", Title: "Broken lamp", Status: "SOLVING", AuthorUID: "res-1"},
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	issues, err := client.ListByAuthor(context.Background(), "caller-token", "res-1", "SOLVING")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(issues) != 1 || issues[0].UID != "iss-1" {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestClientSurfacesUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	if _, err := client.CountByService(context.Background(), "caller-token", "svc-1"); err == nil {
		t.Fatalf("expected the upstream failure to propagate")
	}
}
