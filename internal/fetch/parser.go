package fetch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Error variables for parser errors
var (
	// ErrJSONPathNotFound is returned when the JSON path does not exist in the document
	ErrJSONPathNotFound = errors.New("JSON path not found in response")
	// ErrRegexNoMatch is returned when the regex pattern does not match the content
	ErrRegexNoMatch = errors.New("regex pattern did not match")
	// ErrNoVersionFound is returned when no version could be extracted from upstream
	ErrNoVersionFound = errors.New("could not extract version from upstream")
	// ErrInvalidRegexPattern is returned when the regex pattern is invalid
	ErrInvalidRegexPattern = errors.New("invalid regex pattern")
	// ErrNoCaptureGroup is returned when the regex pattern has no capture group
	ErrNoCaptureGroup = errors.New("regex pattern must contain at least one capture group")
	// ErrInvalidParserType is returned when an unknown parser type is configured
	ErrInvalidParserType = errors.New("invalid parser type: must be 'json', 'regex' or 'html'")
)

// Parser extracts a version string from fetched content.
// Ambiguous extraction is an error, never a best guess.
type Parser interface {
	// Parse extracts a version string from the given content.
	// Returns the extracted version or an error if extraction fails.
	Parse(content []byte) (string, error)
}

// JSONParser extracts version using a gjson path expression
// (e.g. "tag_name", "0", "releases.0.version").
type JSONParser struct {
	// Path is the gjson path to the version field
	Path string
}

// Parse extracts a version string from JSON content using the configured path
func (p *JSONParser) Parse(content []byte) (string, error) {
	if p.Path == "" {
		return "", fmt.Errorf("%w: empty path", ErrJSONPathNotFound)
	}
	if !gjson.ValidBytes(content) {
		return "", fmt.Errorf("%w: response is not valid JSON", ErrJSONPathNotFound)
	}

	result := gjson.GetBytes(content, p.Path)
	if !result.Exists() {
		return "", fmt.Errorf("%w: %q", ErrJSONPathNotFound, p.Path)
	}

	version := strings.TrimSpace(result.String())
	if version == "" {
		return "", fmt.Errorf("%w: value at %q is empty", ErrNoVersionFound, p.Path)
	}
	return version, nil
}

// RegexParser extracts version using a regular expression.
// The first capture group in the pattern is used as the version.
type RegexParser struct {
	// Pattern is the regex pattern with at least one capture group
	Pattern string
	// compiled is the compiled regex (cached after first use)
	compiled *regexp.Regexp
}

// Parse extracts a version string from content using the configured pattern
func (p *RegexParser) Parse(content []byte) (string, error) {
	if p.Pattern == "" {
		return "", ErrInvalidRegexPattern
	}

	if p.compiled == nil {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidRegexPattern, err)
		}
		p.compiled = re
	}

	if p.compiled.NumSubexp() < 1 {
		return "", ErrNoCaptureGroup
	}

	matches := p.compiled.FindSubmatch(content)
	if matches == nil || len(matches) < 2 {
		return "", fmt.Errorf("%w: %q", ErrRegexNoMatch, p.Pattern)
	}

	version := strings.TrimSpace(string(matches[1]))
	if version == "" {
		return "", fmt.Errorf("%w: capture group matched empty string", ErrRegexNoMatch)
	}
	return version, nil
}

// NewRegexParser compiles and validates a regex parser upfront
func NewRegexParser(pattern string) (*RegexParser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegexPattern, err)
	}
	if re.NumSubexp() < 1 {
		return nil, ErrNoCaptureGroup
	}
	return &RegexParser{Pattern: pattern, compiled: re}, nil
}
