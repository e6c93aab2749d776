package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
)

func TestHTTPSourcePrimary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Latest: Python 3.13.12 - Dec. 2, 2025")
	}))
	defer server.Close()

	src := &HTTPSource{
		Client:  NewHTTPClient(WithTransport(server.Client())),
		Primary: Endpoint{URL: server.URL, Parser: &RegexParser{Pattern: `Python\s+(\d+\.\d+\.\d+)\s+-`}},
	}
	version, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if version != "3.13.12" {
		t.Errorf("version = %q", version)
	}
}

func TestHTTPSourceFallbackReusesPrimaryBody(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		fmt.Fprint(w, "Ver.2.4.2 now available")
	}))
	defer server.Close()

	src := &HTTPSource{
		Client:  NewHTTPClient(WithTransport(server.Client())),
		Primary: Endpoint{URL: server.URL, Parser: &RegexParser{Pattern: `Ver\.(\d+\.\d+\.\d+)\s+released`}},
		Fallback: &Endpoint{
			Parser: &RegexParser{Pattern: `Ver\.(\d+\.\d+\.\d+)`},
		},
	}
	version, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if version != "2.4.2" {
		t.Errorf("version = %q", version)
	}
	if got := atomic.LoadInt32(&requestCount); got != 1 {
		t.Errorf("requests = %d, want 1 (fallback reparses the same body)", got)
	}
}

func TestHTTPSourceFallbackURL(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer primary.Close()
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Download Python 3.13.12")
	}))
	defer fallback.Close()

	src := &HTTPSource{
		Client:  NewHTTPClient(WithTransport(primary.Client())),
		Primary: Endpoint{URL: primary.URL, Parser: &RegexParser{Pattern: `Python\s+(\d+\.\d+\.\d+)\s+-`}},
		Fallback: &Endpoint{
			URL:    fallback.URL,
			Parser: &RegexParser{Pattern: `Download\s+Python\s+(\d+\.\d+\.\d+)`},
		},
	}
	version, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if version != "3.13.12" {
		t.Errorf("version = %q", version)
	}
}

func TestHTTPSourceBothEndpointsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "nothing useful")
	}))
	defer server.Close()

	src := &HTTPSource{
		Client:   NewHTTPClient(WithTransport(server.Client())),
		Primary:  Endpoint{URL: server.URL, Parser: &RegexParser{Pattern: `first\s+(\d+)`}},
		Fallback: &Endpoint{Parser: &RegexParser{Pattern: `second\s+(\d+)`}},
	}
	_, err := src.Fetch(context.Background())
	if !errors.Is(err, ErrNoVersionFound) {
		t.Errorf("err = %v, want ErrNoVersionFound", err)
	}
}

func TestHTTPSourceNormalize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"FIREFOX_ESR": "140.7.0esr"}`)
	}))
	defer server.Close()

	src := &HTTPSource{
		Client:  NewHTTPClient(WithTransport(server.Client())),
		Primary: Endpoint{URL: server.URL, Parser: &JSONParser{Path: "FIREFOX_ESR"}},
		Normalize: func(v string) (string, error) {
			return strings.TrimSuffix(v, "esr"), nil
		},
	}
	version, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if version != "140.7.0" {
		t.Errorf("version = %q, want 140.7.0", version)
	}
}

func TestStaticVersion(t *testing.T) {
	f := StaticVersion("8.1")
	version, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if version != "8.1" {
		t.Errorf("version = %q", version)
	}
}

func TestDirectoryListingPicksHighestVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingHTML)
	}))
	defer server.Close()

	d := &DirectoryListing{
		Client:  NewHTTPClient(WithTransport(server.Client())),
		URL:     server.URL,
		Pattern: regexp.MustCompile(`virt-viewer-([0-9]+\.[0-9]+)\.tar\.(?:xz|gz|bz2)`),
	}
	version, err := d.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if version != "11.0" {
		t.Errorf("version = %q, want 11.0", version)
	}
}

func TestDirectoryListingNoMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="../">up</a></body></html>`)
	}))
	defer server.Close()

	d := &DirectoryListing{
		Client:  NewHTTPClient(WithTransport(server.Client())),
		URL:     server.URL,
		Pattern: regexp.MustCompile(`virt-viewer-([0-9]+\.[0-9]+)\.tar\.xz`),
	}
	if _, err := d.Fetch(context.Background()); !errors.Is(err, ErrNoVersionFound) {
		t.Errorf("err = %v, want ErrNoVersionFound", err)
	}
}

func TestStripVPrefix(t *testing.T) {
	tests := []struct{ in, want string }{
		{"v5.4.1", "5.4.1"},
		{"5.4.1", "5.4.1"},
		{" v1.0 ", "1.0"},
	}
	for _, tt := range tests {
		if got := stripVPrefix(tt.in); got != tt.want {
			t.Errorf("stripVPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
