package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSources(t *testing.T) {
	path := writeSourcesFile(t, `
[sources.mytool]
url = "https://example.org/download"
parser = "regex"
pattern = 'MyTool\s+(\d+\.\d+\.\d+)'

[sources.otherfeed]
url = "https://example.org/releases.json"
parser = "json"
path = "0.version"
`)

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("sources = %v, want 2 entries", sources)
	}
	if sources["mytool"].Parser != "regex" {
		t.Errorf("mytool parser = %q", sources["mytool"].Parser)
	}
	if sources["otherfeed"].Path != "0.version" {
		t.Errorf("otherfeed path = %q", sources["otherfeed"].Path)
	}
}

func TestLoadSourcesValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "missing url",
			content: "[sources.x]\nparser = \"json\"\npath = \"v\"\n",
			wantErr: ErrMissingURL,
		},
		{
			name:    "missing parser",
			content: "[sources.x]\nurl = \"https://example.org\"\n",
			wantErr: ErrMissingParser,
		},
		{
			name:    "json without path",
			content: "[sources.x]\nurl = \"https://example.org\"\nparser = \"json\"\n",
			wantErr: ErrMissingPath,
		},
		{
			name:    "regex without pattern",
			content: "[sources.x]\nurl = \"https://example.org\"\nparser = \"regex\"\n",
			wantErr: ErrMissingPattern,
		},
		{
			name:    "regex without capture group",
			content: "[sources.x]\nurl = \"https://example.org\"\nparser = \"regex\"\npattern = 'v1'\n",
			wantErr: ErrNoCaptureGroup,
		},
		{
			name:    "unknown parser type",
			content: "[sources.x]\nurl = \"https://example.org\"\nparser = \"xml\"\n",
			wantErr: ErrInvalidParserType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSourcesFile(t, tt.content)
			_, err := LoadSources(path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplySourcesOverridesBuiltin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "MyPython 3.99.0 is out")
	}))
	defer server.Close()

	client := NewHTTPClient(WithTransport(server.Client()))
	reg := BuiltinRegistry(client)

	sources := map[string]SourceConfig{
		"python": {
			URL:     server.URL,
			Parser:  "regex",
			Pattern: `MyPython\s+(\d+\.\d+\.\d+)`,
		},
	}
	if err := reg.ApplySources(client, sources); err != nil {
		t.Fatalf("ApplySources: %v", err)
	}

	f, ok := reg.Lookup("python")
	if !ok {
		t.Fatal("python missing after override")
	}
	version, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if version != "3.99.0" {
		t.Errorf("version = %q, want 3.99.0", version)
	}
}

func TestApplySourcesWithFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "download MyTool build 7.2.1 here")
	}))
	defer server.Close()

	client := NewHTTPClient(WithTransport(server.Client()))
	reg := NewRegistry()
	sources := map[string]SourceConfig{
		"mytool": {
			URL:             server.URL,
			Parser:          "regex",
			Pattern:         `release\s+(\d+\.\d+\.\d+)`,
			FallbackParser:  "regex",
			FallbackPattern: `build\s+(\d+\.\d+\.\d+)`,
		},
	}
	if err := reg.ApplySources(client, sources); err != nil {
		t.Fatalf("ApplySources: %v", err)
	}

	f, _ := reg.Lookup("mytool")
	version, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if version != "7.2.1" {
		t.Errorf("version = %q, want 7.2.1 from fallback", version)
	}
}
