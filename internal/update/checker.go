// Package update checks the project's release feed for a newer console
// build. The check is advisory: nothing downloads or installs, the settings
// view just shows whether an update exists.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
)

const maxResponseSize = 1 * 1024 * 1024 // 1MB

var (
	ErrNon200Status   = errors.New("non-200 HTTP status")
	ErrResponseTooBig = errors.New("response exceeds 1MB limit")
	ErrInvalidJSON    = errors.New("invalid JSON response")
)

// Release is the subset of the GitHub release payload the check reads.
type Release struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// Status is the outcome of one release check.
type Status struct {
	CurrentVersion  string
	LatestVersion   string
	ReleaseURL      string
	UpdateAvailable bool
}

// Checker fetches and compares release versions.
type Checker struct {
	httpClient *http.Client
	feedURL    string
	current    string
}

// NewChecker creates a release checker for the given feed URL and the
// running build's version string.
func NewChecker(feedURL, currentVersion string, timeout time.Duration) *Checker {
	return &Checker{
		httpClient: &http.Client{Timeout: timeout},
		feedURL:    feedURL,
		current:    currentVersion,
	}
}

// Check fetches the latest release and compares it against the running
// version. Development builds ("dev" or empty) always report up to date.
func (c *Checker) Check(ctx context.Context) (Status, error) {
	release, err := c.fetch(ctx)
	if err != nil {
		return Status{}, err
	}

	status := Status{
		CurrentVersion: c.current,
		LatestVersion:  NormalizeVersion(release.TagName),
		ReleaseURL:     release.HTMLURL,
	}

	current := NormalizeVersion(c.current)
	if current == "" || current == "dev" {
		return status, nil
	}

	currentVer, err := version.NewVersion(current)
	if err != nil {
		return Status{}, fmt.Errorf("invalid current version %q: %w", current, err)
	}
	latestVer, err := version.NewVersion(status.LatestVersion)
	if err != nil {
		return Status{}, fmt.Errorf("invalid release version %q: %w", status.LatestVersion, err)
	}

	status.UpdateAvailable = currentVer.LessThan(latestVer)
	return status, nil
}

func (c *Checker) fetch(ctx context.Context) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: got %d", ErrNon200Status, resp.StatusCode)
	}

	limitedReader := io.LimitReader(resp.Body, maxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > maxResponseSize {
		return nil, ErrResponseTooBig
	}

	var release Release
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("%w: release feed lacks tag_name", ErrInvalidJSON)
	}

	return &release, nil
}

// NormalizeVersion trims whitespace and a leading "v" prefix.
func NormalizeVersion(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "v")
	return value
}
