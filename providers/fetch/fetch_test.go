package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/sdtt/internal/utils"
)

const testPage = `<!DOCTYPE html>
<html>
<head><title>Test Page</title><meta property="og:title" content="Test"></head>
<body><h1>Welcome</h1><p>This is a <strong>test</strong> paragraph.</p></body>
</html>`

// TestFetch_Success tests a plain 200 response.
func TestFetch_Success(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, testPage)
	}))
	defer server.Close()

	doc, err := New().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if doc.FinalURL != server.URL {
		t.Errorf("Expected final URL %s, got %s", server.URL, doc.FinalURL)
	}
	if doc.BaseURL() != server.URL {
		t.Errorf("Expected base URL %s, got %s", server.URL, doc.BaseURL())
	}
	if doc.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", doc.StatusCode)
	}
	if string(doc.Body) != testPage {
		t.Error("Body does not match the served page")
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("Expected default user agent, got %q", gotUA)
	}

	md, err := doc.Markdown()
	if err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}
	if !strings.Contains(md, "Welcome") || !strings.Contains(md, "**test**") {
		t.Errorf("Unexpected markdown: %q", md)
	}
}

// TestFetch_Redirect tests that the final URL follows redirects.
func TestFetch_Redirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testPage)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	doc, err := New().Fetch(context.Background(), server.URL+"/old")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if doc.Source != server.URL+"/old" {
		t.Errorf("Expected source to stay the requested URL, got %s", doc.Source)
	}
	if doc.FinalURL != server.URL+"/new" {
		t.Errorf("Expected final URL %s/new, got %s", server.URL, doc.FinalURL)
	}
}

// TestFetch_StatusError tests that non-200 responses fail with a typed error.
func TestFetch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := New().Fetch(context.Background(), server.URL)

	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", fetchErr.StatusCode)
	}
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("Expected ErrUnexpectedStatus, got %v", err)
	}
}

// TestFetch_BodyTooLarge tests the body size limit.
func TestFetch_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("a", 2048))
	}))
	defer server.Close()

	_, err := New(WithMaxBodySize(1024)).Fetch(context.Background(), server.URL)
	if !errors.Is(err, utils.ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
}

// TestFetch_Timeout tests that a slow server hits the configured timeout.
func TestFetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	start := time.Now()
	_, err := New(WithTimeout(100*time.Millisecond)).Fetch(context.Background(), server.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected a deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected the fetch to stop near the timeout, took %v", elapsed)
	}
}

// TestFetch_UserAgent tests a custom user agent.
func TestFetch_UserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.Header.Get("User-Agent"))
	}))
	defer server.Close()

	doc, err := New(WithUserAgent("custom/2.0")).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(doc.Body) != "custom/2.0" {
		t.Errorf("Expected custom user agent, got %q", doc.Body)
	}
}

// TestFetch_InvalidURL tests that bad URLs fail before any request.
func TestFetch_InvalidURL(t *testing.T) {
	tests := []struct {
		url  string
		want error
	}{
		{"", ErrEmptyURL},
		{"   ", ErrEmptyURL},
		{"ftp://example.com", ErrUnsupportedScheme},
		{"file:///etc/passwd", ErrUnsupportedScheme},
		{"javascript:alert(1)", ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			_, err := New().Fetch(context.Background(), tt.url)
			var fetchErr *Error
			if !errors.As(err, &fetchErr) || fetchErr.Op != "url" {
				t.Fatalf("Expected *Error with op url, got %v", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"example.com":              "https://example.com",
		"  example.com/page  ":     "https://example.com/page",
		"localhost:8080/x":         "https://localhost:8080/x",
		"http://example.com/a?b=c": "http://example.com/a?b=c",
		"HTTPS://example.com":      "https://example.com",
	}
	for in, want := range tests {
		got, err := NormalizeURL(in)
		if err != nil {
			t.Errorf("NormalizeURL(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	if err := os.WriteFile(path, []byte(testPage), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := ReadFile(path, 0)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(doc.Body) != testPage {
		t.Error("Body does not match the file")
	}
	if doc.BaseURL() != "" {
		t.Errorf("Expected no base URL for a file, got %q", doc.BaseURL())
	}

	if _, err := ReadFile(path, 10); !errors.Is(err, utils.ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}

	var fetchErr *Error
	if _, err := ReadFile(filepath.Join(dir, "missing.html"), 0); !errors.As(err, &fetchErr) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected *Error wrapping ErrNotExist, got %v", err)
	}
	if _, err := ReadFile(dir, 0); !errors.As(err, &fetchErr) {
		t.Errorf("Expected *Error for a directory, got %v", err)
	}
}

func TestRenderer_NoBrowserNeeded(t *testing.T) {
	r := NewRenderer()

	var fetchErr *Error
	if _, err := r.Render(context.Background(), "ftp://example.com"); !errors.As(err, &fetchErr) || fetchErr.Op != "url" {
		t.Errorf("Expected URL error before launching a browser, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on an idle renderer: %v", err)
	}
	if _, err := r.Render(context.Background(), "https://example.com"); !errors.As(err, &fetchErr) {
		t.Errorf("Expected *Error after Close, got %v", err)
	}
}

func TestDocument_Markdown(t *testing.T) {
	doc := &Document{Body: []byte(`<html><body><h1>Title</h1><p>Some <strong>bold</strong> text.</p></body></html>`)}
	md, err := doc.Markdown()
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	for _, want := range []string{"# Title", "**bold**"} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected %q in %q", want, md)
		}
	}
}
