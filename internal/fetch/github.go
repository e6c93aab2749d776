package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Error variables for GitHub fetchers
var (
	// ErrEmptyTag is returned when a release has no usable tag name
	ErrEmptyTag = errors.New("release has empty tag name")
	// ErrNoStableRelease is returned when no release matches the stable-line rule
	ErrNoStableRelease = errors.New("no release found for stable line")
)

// GitHubClient talks to the GitHub releases API. Authentication is
// handled by the underlying HTTPClient (Bearer token on api.github.com
// requests when configured).
type GitHubClient struct {
	BaseURL string
	HTTP    *HTTPClient
}

// NewGitHubClient creates a client against api.github.com
func NewGitHubClient(httpClient *HTTPClient) *GitHubClient {
	return &GitHubClient{
		BaseURL: "https://api.github.com",
		HTTP:    httpClient,
	}
}

// Release is the subset of the GitHub release object the fetchers need
type Release struct {
	TagName    string `json:"tag_name"`
	Prerelease bool   `json:"prerelease"`
	Draft      bool   `json:"draft"`
}

// LatestRelease fetches the release GitHub marks as latest
func (c *GitHubClient) LatestRelease(ctx context.Context, owner, repo string) (Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.BaseURL, owner, repo)
	body, err := c.HTTP.GetBody(ctx, url)
	if err != nil {
		return Release{}, err
	}

	var rel Release
	if err := json.Unmarshal(body, &rel); err != nil {
		return Release{}, fmt.Errorf("failed to parse GitHub response: %w", err)
	}
	return rel, nil
}

// Releases fetches up to perPage recent releases
func (c *GitHubClient) Releases(ctx context.Context, owner, repo string, perPage int) ([]Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d", c.BaseURL, owner, repo, perPage)
	body, err := c.HTTP.GetBody(ctx, url)
	if err != nil {
		return nil, err
	}

	var releases []Release
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("failed to parse GitHub response: %w", err)
	}
	return releases, nil
}

// GitHubLatest fetches the latest release tag of a repository.
// By default the leading "v" is stripped; KeepTag returns the tag
// verbatim; TrimPattern extracts its first capture group from the tag
// (e.g. "2.52.0" out of "2.52.0.windows.1").
type GitHubLatest struct {
	Client      *GitHubClient
	Owner       string
	Repo        string
	KeepTag     bool
	TrimPattern string
}

// Fetch returns the normalized latest release tag
func (f *GitHubLatest) Fetch(ctx context.Context) (string, error) {
	rel, err := f.Client.LatestRelease(ctx, f.Owner, f.Repo)
	if err != nil {
		return "", err
	}

	tag := strings.TrimSpace(rel.TagName)
	if tag == "" {
		return "", fmt.Errorf("%w: %s/%s", ErrEmptyTag, f.Owner, f.Repo)
	}
	if f.KeepTag {
		return tag, nil
	}

	tag = stripVPrefix(tag)
	if f.TrimPattern != "" {
		re, err := regexp.Compile(f.TrimPattern)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidRegexPattern, err)
		}
		m := re.FindStringSubmatch(tag)
		if m == nil || len(m) < 2 {
			return "", fmt.Errorf("%w: tag %q", ErrRegexNoMatch, tag)
		}
		tag = m[1]
	}
	return tag, nil
}

// Lane reports the GitHub lane
func (f *GitHubLatest) Lane() Lane {
	return LaneGitHub
}

// GitHubStableMinor fetches the newest release of the minor line one
// below the newest minor line. Some deployments intentionally trail the
// freshest minor by one for stability; prereleases and drafts are
// excluded.
type GitHubStableMinor struct {
	Client  *GitHubClient
	Owner   string
	Repo    string
	PerPage int
}

type minorRelease struct {
	major   int
	minor   int
	version string
}

// Fetch returns the trailing stable-line version
func (f *GitHubStableMinor) Fetch(ctx context.Context) (string, error) {
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = 50
	}

	releases, err := f.Client.Releases(ctx, f.Owner, f.Repo, perPage)
	if err != nil {
		return "", err
	}

	var versions []minorRelease
	for _, rel := range releases {
		if rel.Prerelease || rel.Draft {
			continue
		}
		tag := strings.TrimSpace(rel.TagName)
		if tag == "" {
			continue
		}
		ver := stripVPrefix(tag)
		parts := strings.Split(ver, ".")
		if len(parts) < 2 {
			continue
		}
		major, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		minor, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		versions = append(versions, minorRelease{major: major, minor: minor, version: ver})
	}

	if len(versions) == 0 {
		return "", fmt.Errorf("%w: %s/%s", ErrNoStableRelease, f.Owner, f.Repo)
	}

	sort.SliceStable(versions, func(i, j int) bool {
		a, b := versions[i], versions[j]
		if a.major != b.major {
			return a.major > b.major
		}
		if a.minor != b.minor {
			return a.minor > b.minor
		}
		return compareVersions(a.version, b.version) > 0
	})

	latestMajor := versions[0].major
	latestMinor := versions[0].minor
	for _, v := range versions {
		// One minor below the newest line, or one major below when the
		// newest line is the first minor of a new major
		if v.major == latestMajor && v.minor == latestMinor-1 {
			return v.version, nil
		}
		if v.major == latestMajor-1 {
			return v.version, nil
		}
	}

	return "", fmt.Errorf("%w: %s/%s", ErrNoStableRelease, f.Owner, f.Repo)
}

// Lane reports the GitHub lane
func (f *GitHubStableMinor) Lane() Lane {
	return LaneGitHub
}
