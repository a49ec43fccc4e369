package viewer

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	cacheEnvVar        = "INKLET_CACHE_DIR"
	cacheSubdir        = "inklet/docs"
	cacheTTL           = 24 * time.Hour
	partialSuffix      = ".part"
	metaSuffix         = ".meta"
	defaultHTTPTimeout = 90 * time.Second
)

// Fetcher resolves a document URL to a local file path.
type Fetcher interface {
	Fetch(ctx context.Context, docURL string) (string, error)
}

// documentCache keeps engine-served PDFs on disk so page renders and
// strategy switches do not refetch the same bytes. Entries are reused for
// cacheTTL, then revalidated with conditional requests; interrupted
// downloads resume with Range requests.
type documentCache struct {
	dir    string
	client *http.Client
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

// NewDocumentCache returns the shared on-disk document fetcher.
func NewDocumentCache(client *http.Client) (Fetcher, error) {
	return newDocumentCache(client)
}

func newDocumentCache(client *http.Client) (*documentCache, error) {
	dir := os.Getenv(cacheEnvVar)
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "inklet-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &documentCache{dir: dir, client: client}, nil
}

func (c *documentCache) Fetch(ctx context.Context, docURL string) (string, error) {
	key := cacheKey(docURL)
	docPath, metaPath, partialPath := c.pathsFor(key)

	if info, err := os.Stat(docPath); err == nil && time.Since(info.ModTime()) < cacheTTL && info.Size() > 0 {
		return docPath, nil
	}

	meta, _ := readMeta(metaPath)
	info, _ := os.Stat(docPath)
	path, err := c.download(ctx, docURL, docPath, metaPath, partialPath, meta, info)
	if err == nil {
		return path, nil
	}
	if info != nil && info.Size() > 0 {
		return docPath, nil
	}
	return "", err
}

func (c *documentCache) download(ctx context.Context, docURL, docPath, metaPath, partialPath string, meta cacheMeta, current os.FileInfo) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return "", err
	}
	if current != nil && current.Size() > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	var partialSize int64
	if info, err := os.Stat(partialPath); err == nil && info.Size() > 0 {
		partialSize = info.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", partialSize))
		if meta.ETag != "" {
			req.Header.Set("If-Range", meta.ETag)
		} else if meta.LastModified != "" {
			req.Header.Set("If-Range", meta.LastModified)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if current != nil && current.Size() > 0 {
			meta.CachedAt = time.Now().UTC()
			writeMeta(metaPath, meta)
			return docPath, nil
		}
		return c.download(ctx, docURL, docPath, metaPath, partialPath, cacheMeta{}, nil)
	case http.StatusOK:
		return c.saveBody(resp, docPath, metaPath, partialPath, false)
	case http.StatusPartialContent:
		return c.saveBody(resp, docPath, metaPath, partialPath, partialSize > 0)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("document download failed: %s (%s)", resp.Status, string(body))
	}
}

func (c *documentCache) saveBody(resp *http.Response, docPath, metaPath, partialPath string, appendExisting bool) (string, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendExisting {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(partialPath, flags, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(partialPath, docPath); err != nil {
		return "", err
	}

	meta := cacheMeta{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		CachedAt:     time.Now().UTC(),
	}
	if info, err := os.Stat(docPath); err == nil {
		meta.Size = info.Size()
	}
	if err := writeMeta(metaPath, meta); err != nil {
		return "", err
	}
	return docPath, nil
}

func (c *documentCache) pathsFor(key string) (string, string, string) {
	return filepath.Join(c.dir, key+".pdf"), filepath.Join(c.dir, key+metaSuffix), filepath.Join(c.dir, key+partialSuffix)
}

// cacheKey prefers the served filename so cache entries are recognizable;
// anything unparseable falls back to a hash of the full URL.
func cacheKey(docURL string) string {
	if parsed, err := url.Parse(docURL); err == nil {
		base := filepath.Base(parsed.Path)
		if base != "." && base != "/" && strings.HasSuffix(strings.ToLower(base), ".pdf") {
			if unescaped, err := url.PathUnescape(base); err == nil {
				base = unescaped
			}
			sum := sha1.Sum([]byte(docURL))
			return sanitizeKey(strings.TrimSuffix(base, filepath.Ext(base))) + "-" + hex.EncodeToString(sum[:4])
		}
	}
	sum := sha1.Sum([]byte(docURL))
	return hex.EncodeToString(sum[:])
}

func sanitizeKey(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, "/", "-")
	value = strings.ReplaceAll(value, ":", "-")
	value = strings.ReplaceAll(value, "..", "-")
	value = strings.ReplaceAll(value, " ", "_")
	return value
}

func readMeta(path string) (cacheMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cacheMeta{}, err
	}
	var meta cacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func writeMeta(path string, meta cacheMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
