package fetch

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Error variables for sources-file errors
var (
	// ErrMissingURL is returned when a source definition lacks the url field
	ErrMissingURL = errors.New("missing required field: url")
	// ErrMissingParser is returned when a source definition lacks the parser field
	ErrMissingParser = errors.New("missing required field: parser")
	// ErrMissingPath is returned when a json source lacks the path field
	ErrMissingPath = errors.New("missing required field: path (required for json parser)")
	// ErrMissingPattern is returned when a regex source lacks the pattern field
	ErrMissingPattern = errors.New("missing required field: pattern (required for regex parser)")
)

// SourceConfig is one declarative source definition from a TOML sources
// file. It covers the HTTP-source shapes; GitHub-release fetchers stay in
// the compiled-in registry.
type SourceConfig struct {
	// URL is the primary URL to query for version information
	URL string `toml:"url"`
	// Parser specifies the parser type: "json", "regex" or "html"
	Parser string `toml:"parser"`
	// Path is the gjson path (json parser)
	Path string `toml:"path,omitempty"`
	// Pattern is the regex with capture group (regex parser, html post-processing)
	Pattern string `toml:"pattern,omitempty"`
	// Selector is the CSS selector (html parser)
	Selector string `toml:"selector,omitempty"`
	// XPath is the XPath expression (html parser)
	XPath string `toml:"xpath,omitempty"`
	// FallbackURL is an alternative URL tried when the primary fails;
	// empty reuses the primary response
	FallbackURL string `toml:"fallback_url,omitempty"`
	// FallbackParser is the parser type for the fallback
	FallbackParser string `toml:"fallback_parser,omitempty"`
	// FallbackPattern is the pattern for the fallback parser
	FallbackPattern string `toml:"fallback_pattern,omitempty"`
}

// sourcesFile is the TOML document structure:
//
//	[sources.mytool]
//	url = "https://example.org/download"
//	parser = "regex"
//	pattern = 'MyTool\s+(\d+\.\d+\.\d+)'
type sourcesFile struct {
	Sources map[string]SourceConfig `toml:"sources"`
}

// LoadSources parses a TOML sources file
func LoadSources(path string) (map[string]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file sourcesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	for key, cfg := range file.Sources {
		if err := validateSource(key, cfg); err != nil {
			return nil, err
		}
	}
	return file.Sources, nil
}

func validateSource(key string, cfg SourceConfig) error {
	if cfg.URL == "" {
		return fmt.Errorf("source %s: %w", key, ErrMissingURL)
	}
	if cfg.Parser == "" {
		return fmt.Errorf("source %s: %w", key, ErrMissingParser)
	}
	if _, err := buildParser(cfg.Parser, cfg.Path, cfg.Pattern, cfg.Selector, cfg.XPath); err != nil {
		return fmt.Errorf("source %s: %w", key, err)
	}
	if cfg.FallbackParser != "" {
		pattern := cfg.FallbackPattern
		if pattern == "" {
			pattern = cfg.Pattern
		}
		if _, err := buildParser(cfg.FallbackParser, cfg.Path, pattern, cfg.Selector, cfg.XPath); err != nil {
			return fmt.Errorf("source %s fallback: %w", key, err)
		}
	}
	return nil
}

func buildParser(parserType, path, pattern, selector, xpath string) (Parser, error) {
	switch parserType {
	case "json":
		if path == "" {
			return nil, ErrMissingPath
		}
		return &JSONParser{Path: path}, nil
	case "regex":
		if pattern == "" {
			return nil, ErrMissingPattern
		}
		return NewRegexParser(pattern)
	case "html":
		return NewHTMLParser(selector, xpath, pattern)
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidParserType, parserType)
	}
}

// ApplySources registers a fetcher for every definition, overriding any
// built-in fetcher with the same key.
func (r *Registry) ApplySources(client *HTTPClient, sources map[string]SourceConfig) error {
	for key, cfg := range sources {
		primary, err := buildParser(cfg.Parser, cfg.Path, cfg.Pattern, cfg.Selector, cfg.XPath)
		if err != nil {
			return fmt.Errorf("source %s: %w", key, err)
		}

		src := &HTTPSource{
			Client:  client,
			Primary: Endpoint{URL: cfg.URL, Parser: primary},
		}
		if cfg.FallbackParser != "" {
			pattern := cfg.FallbackPattern
			if pattern == "" {
				pattern = cfg.Pattern
			}
			fallback, err := buildParser(cfg.FallbackParser, cfg.Path, pattern, cfg.Selector, cfg.XPath)
			if err != nil {
				return fmt.Errorf("source %s fallback: %w", key, err)
			}
			src.Fallback = &Endpoint{URL: cfg.FallbackURL, Parser: fallback}
		}

		r.Register(key, src)
	}
	return nil
}
