package exa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sellersight/sellersight/internal/testutil"
)

func TestSearch_Replayed(t *testing.T) {
	recorder, cleanup := testutil.NewVCRRecorder(t, "exa_search")
	defer cleanup()

	client := NewClient("test-key", WithHTTPClient(testutil.VCRHTTPClient(recorder)))

	resp, err := client.Search(context.Background(), &SearchRequest{
		Query:      "wireless earbuds market trends 2026",
		NumResults: 3,
		Contents:   &ContentsRequest{Text: true},
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(resp.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(resp.Results))
	}
	first := resp.Results[0]
	if first.Title != "Wireless Earbuds Market Outlook 2026" {
		t.Errorf("title = %q", first.Title)
	}
	if first.URL != "https://example.com/earbuds-2026" {
		t.Errorf("url = %q", first.URL)
	}
	if first.PublishedDate != "2026-02-11" {
		t.Errorf("publishedDate = %q", first.PublishedDate)
	}
	if first.Text == "" {
		t.Error("expected page text in result")
	}
}

func TestSearch_RequestShape(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotPath = r.URL.Path
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	client := NewClient("exa-key", WithBaseURL(srv.URL))
	if _, err := client.Search(context.Background(), &SearchRequest{Query: "q"}); err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if gotKey != "exa-key" {
		t.Errorf("x-api-key = %q, want exa-key", gotKey)
	}
	if gotPath != "/search" {
		t.Errorf("path = %q, want /search", gotPath)
	}
}

func TestSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad", WithBaseURL(srv.URL))
	if _, err := client.Search(context.Background(), &SearchRequest{Query: "q"}); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
