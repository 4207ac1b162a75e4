package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetcherGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>only $5.00</body></html>")
	}))
	defer server.Close()

	f := New(time.Second)
	body, err := f.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !strings.Contains(string(body), "$5.00") {
		t.Errorf("Get() body = %q, missing expected content", body)
	}
}

func TestFetcherGetNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := New(time.Second)
	if _, err := f.Get(context.Background(), server.URL); err == nil {
		t.Fatal("Get() succeeded on a 404 response")
	}
}
