package fetch

import (
	"regexp"
	"sort"
	"strings"
)

// Registry maps catalog keys to fetchers. It is static configuration:
// extending coverage means registering another key here (or in a TOML
// sources file); there is no dynamic discovery.
type Registry struct {
	fetchers map[string]Fetcher
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[string]Fetcher)}
}

// Register adds or replaces the fetcher for a key
func (r *Registry) Register(key string, f Fetcher) {
	r.fetchers[key] = f
}

// Lookup returns the fetcher for a key and whether one is registered
func (r *Registry) Lookup(key string) (Fetcher, bool) {
	f, ok := r.fetchers[key]
	return f, ok
}

// Keys returns the registered keys, sorted
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.fetchers))
	for k := range r.fetchers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered fetchers
func (r *Registry) Len() int {
	return len(r.fetchers)
}

// BuiltinRegistry returns the registry for the tracked software catalog.
// Each entry encodes where one upstream publishes its latest version and
// how to extract it.
func BuiltinRegistry(client *HTTPClient) *Registry {
	gh := NewGitHubClient(client)
	r := NewRegistry()

	r.Register("python", &HTTPSource{
		Client: client,
		// Source releases page is the most stable marker
		Primary: Endpoint{
			URL:    "https://www.python.org/downloads/source/",
			Parser: &RegexParser{Pattern: `Python\s+(\d+\.\d+\.\d+)\s+-`},
		},
		Fallback: &Endpoint{
			URL:    "https://www.python.org/downloads/",
			Parser: &RegexParser{Pattern: `Download\s+Python\s+(\d+\.\d+\.\d+)`},
		},
	})

	r.Register("vscode", &HTTPSource{
		Client: client,
		Primary: Endpoint{
			URL:    "https://update.code.visualstudio.com/api/releases/stable",
			Parser: &JSONParser{Path: "0"},
		},
	})

	r.Register("gitea", &GitHubStableMinor{
		Client:  gh,
		Owner:   "go-gitea",
		Repo:    "gitea",
		PerPage: 50,
	})

	// qview tags are tracked verbatim, v prefix included
	r.Register("qview", &GitHubLatest{Client: gh, Owner: "jurplel", Repo: "qView", KeepTag: true})

	r.Register("teraterm", &GitHubLatest{Client: gh, Owner: "TeraTermProject", Repo: "teraterm"})

	// Upstream development has ended; versions pinned
	r.Register("idm", StaticVersion("8.1"))
	r.Register("gpad", StaticVersion("3.1.0b"))

	r.Register("firefox", &HTTPSource{
		Client: client,
		Primary: Endpoint{
			URL:    "https://product-details.mozilla.org/1.0/firefox_versions.json",
			Parser: &JSONParser{Path: "FIREFOX_ESR"},
		},
		// "140.7.0esr" -> "140.7.0"
		Normalize: func(v string) (string, error) {
			return strings.TrimSuffix(v, "esr"), nil
		},
	})

	r.Register("clibor", &HTTPSource{
		Client: client,
		Primary: Endpoint{
			URL:    "https://chigusa-web.com/en/download/",
			Parser: &RegexParser{Pattern: `Clibor\s+(\d+\.\d+\.\d+)`},
		},
	})

	r.Register("sakura_editor", &HTTPSource{
		Client: client,
		Primary: Endpoint{
			URL:    "https://sakura-editor.github.io/",
			Parser: &HTMLParser{Selector: "body", Regex: `Ver\.(\d+\.\d+\.\d+)\s+をリリース`},
		},
		// Announcement phrasing changes; fall back to the first Ver. mention
		Fallback: &Endpoint{
			Parser: &HTMLParser{Selector: "body", Regex: `Ver\.(\d+\.\d+\.\d+)`},
		},
	})

	r.Register("winmerge", &HTTPSource{
		Client: client,
		Primary: Endpoint{
			URL:    "https://winmerge.org/downloads/?lang=en",
			Parser: &RegexParser{Pattern: `(?i)current\s+WinMerge\s+version\s+(\d+\.\d+\.\d+)`},
		},
		Fallback: &Endpoint{
			Parser: &RegexParser{Pattern: `(?i)current\s+WinMerge\s+version\s+is\s+(\d+\.\d+\.\d+)`},
		},
	})

	r.Register("wireshark", &HTTPSource{
		Client: client,
		Primary: Endpoint{
			URL:    "https://www.wireshark.org/download.html",
			Parser: &RegexParser{Pattern: `(?i)Stable\s+Release:\s*([0-9]+\.[0-9]+\.[0-9]+)`},
		},
	})

	r.Register("libreoffice", &HTTPSource{
		Client: client,
		Primary: Endpoint{
			URL:    "https://www.libreoffice.org/download/release-notes/",
			Parser: &RegexParser{Pattern: `(?i)LibreOffice\s+(\d+\.\d+\.\d+)\s*\([^)]+\)\s*-\s*Latest\s+Release`},
		},
	})

	r.Register("edge", &HTTPSource{
		Client: client,
		Primary: Endpoint{
			URL:    "https://learn.microsoft.com/en-us/deployedge/microsoft-edge-relnote-stable-channel",
			Parser: &RegexParser{Pattern: `##\s*Version\s+(\d+\.\d+\.\d+\.\d+):`},
		},
	})

	r.Register("windows-terminal", &GitHubLatest{Client: gh, Owner: "microsoft", Repo: "terminal"})

	r.Register("virtviewer", &DirectoryListing{
		Client:  client,
		URL:     "https://releases.pagure.org/virt-viewer/",
		Pattern: regexp.MustCompile(`virt-viewer-([0-9]+\.[0-9]+)\.tar\.(?:xz|gz|bz2)`),
	})

	// Tag looks like "v2.52.0.windows.1"; only the upstream git version matters
	r.Register("git", &GitHubLatest{Client: gh, Owner: "git-for-windows", Repo: "git", TrimPattern: `^(\d+\.\d+\.\d+)`})

	return r
}
