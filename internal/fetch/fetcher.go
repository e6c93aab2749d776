package fetch

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Lane classifies fetchers for orchestration purposes. GitHub API
// fetchers share one authenticated rate limit, so they run under an
// additional, smaller concurrency bound.
type Lane int

const (
	// LaneDefault is for ordinary upstream sources
	LaneDefault Lane = iota
	// LaneGitHub is for fetchers calling the GitHub API
	LaneGitHub
)

// Fetcher retrieves and extracts one upstream version string.
// Implementations must not mutate shared state, must respect the
// caller's context, and must return an error rather than a partial or
// guessed version.
type Fetcher interface {
	// Fetch returns the latest upstream version
	Fetch(ctx context.Context) (string, error)
	// Lane reports which orchestration lane this fetcher runs in
	Lane() Lane
}

// Endpoint is one URL plus the parser that extracts a version from its
// response.
type Endpoint struct {
	URL    string
	Parser Parser
}

// HTTPSource fetches a URL and extracts a version with a parser, with an
// optional fallback endpoint tried when the primary fails. A fallback
// with an empty URL reuses the primary response body with its own parser.
type HTTPSource struct {
	Client   *HTTPClient
	Primary  Endpoint
	Fallback *Endpoint
	// Normalize optionally post-processes the extracted version
	// (e.g. stripping a trailing "esr")
	Normalize func(string) (string, error)
}

// Fetch retrieves the version, trying the fallback endpoint if the
// primary extraction fails.
func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	body, err := s.Client.GetBody(ctx, s.Primary.URL)
	var version string
	if err == nil {
		version, err = s.Primary.Parser.Parse(body)
	}

	if err != nil && s.Fallback != nil {
		primaryErr := err
		fallbackBody := body
		if s.Fallback.URL != "" {
			fallbackBody, err = s.Client.GetBody(ctx, s.Fallback.URL)
			if err != nil {
				return "", fmt.Errorf("primary failed (%v), fallback fetch failed: %w", primaryErr, err)
			}
		} else if fallbackBody == nil {
			return "", primaryErr
		}
		version, err = s.Fallback.Parser.Parse(fallbackBody)
		if err != nil {
			return "", fmt.Errorf("%w: primary: %v, fallback: %v", ErrNoVersionFound, primaryErr, err)
		}
	}
	if err != nil {
		return "", err
	}

	return s.finish(version)
}

func (s *HTTPSource) finish(version string) (string, error) {
	version = strings.TrimSpace(version)
	if s.Normalize != nil {
		var err error
		version, err = s.Normalize(version)
		if err != nil {
			return "", err
		}
		version = strings.TrimSpace(version)
	}
	if version == "" {
		return "", ErrNoVersionFound
	}
	return version, nil
}

// Lane always reports the default lane; GitHub fetchers have their own types
func (s *HTTPSource) Lane() Lane {
	return LaneDefault
}

// StaticVersion is a frozen version for software whose upstream no longer
// publishes releases (or whose tracked line is pinned on purpose).
type StaticVersion string

// Fetch returns the frozen version
func (v StaticVersion) Fetch(ctx context.Context) (string, error) {
	return string(v), nil
}

// Lane reports the default lane
func (v StaticVersion) Lane() Lane {
	return LaneDefault
}

// DirectoryListing scans the anchors of a release directory listing page
// for tarball names matching Pattern (first capture group is the version)
// and returns the highest version found.
type DirectoryListing struct {
	Client  *HTTPClient
	URL     string
	Pattern *regexp.Regexp
}

// Fetch returns the highest version linked from the listing
func (d *DirectoryListing) Fetch(ctx context.Context) (string, error) {
	body, err := d.Client.GetBody(ctx, d.URL)
	if err != nil {
		return "", err
	}

	links, err := htmlLinks(body)
	if err != nil {
		return "", err
	}

	var best string
	for _, link := range links {
		m := d.Pattern.FindStringSubmatch(link)
		if m == nil || len(m) < 2 {
			continue
		}
		if best == "" || compareVersions(m[1], best) > 0 {
			best = m[1]
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: no matching link at %s", ErrNoVersionFound, d.URL)
	}
	return best, nil
}

// Lane reports the default lane
func (d *DirectoryListing) Lane() Lane {
	return LaneDefault
}

// stripVPrefix removes a single leading "v" from a tag
func stripVPrefix(tag string) string {
	tag = strings.TrimSpace(tag)
	return strings.TrimPrefix(tag, "v")
}
