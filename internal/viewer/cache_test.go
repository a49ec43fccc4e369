package viewer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func tempCache(t *testing.T) *documentCache {
	t.Helper()
	t.Setenv(cacheEnvVar, t.TempDir())
	cache, err := newDocumentCache(nil)
	if err != nil {
		t.Fatalf("newDocumentCache: %v", err)
	}
	return cache
}

func TestFetchDownloadsAndReuses(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Etag", `"v1"`)
		w.Write([]byte("%PDF-1.4 fake body"))
	}))
	defer server.Close()

	cache := tempCache(t)
	ctx := context.Background()

	path, err := cache.Fetch(ctx, server.URL+"/files/paper.pdf")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "%PDF-1.4 fake body" {
		t.Errorf("cached body = %q", data)
	}

	again, err := cache.Fetch(ctx, server.URL+"/files/paper.pdf")
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if again != path {
		t.Errorf("second Fetch path = %q, want %q", again, path)
	}
	if hits != 1 {
		t.Errorf("server hit %d times, want 1 (fresh entry should be reused)", hits)
	}
}

func TestFetchFallsBackToStaleCopyWhenOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("stale but usable"))
	}))
	cache := tempCache(t)
	ctx := context.Background()

	url := server.URL + "/files/offline.pdf"
	path, err := cache.Fetch(ctx, url)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// Age the entry past its TTL, then take the server away.
	_, metaPath, _ := cache.pathsFor(cacheKey(url))
	writeMeta(metaPath, cacheMeta{URL: url})
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	server.Close()

	again, err := cache.Fetch(ctx, url)
	if err != nil {
		t.Fatalf("Fetch after server gone: %v", err)
	}
	if again != path {
		t.Errorf("stale path = %q, want %q", again, path)
	}
}

func TestCacheKeyKeepsReadableNames(t *testing.T) {
	key := cacheKey("http://localhost:8000/files/deep%20learning.pdf")
	if !strings.HasPrefix(key, "deep_learning-") {
		t.Errorf("key = %q, want readable prefix", key)
	}

	hashed := cacheKey("http://localhost:8000/documents")
	if len(hashed) != 40 {
		t.Errorf("non-pdf key = %q, want full hash", hashed)
	}
}
