// Package mitre fetches MITRE ATT&CK data (the STIX feed published in the
// mitre/cti repository and the attack.mitre.org tables) and extracts
// techniques and tactics from it.
package mitre

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"threatkit/internal/config"
	"threatkit/internal/logging"
)

// FetchError is returned when an upstream responds with a non-200 status
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: status %d", e.URL, e.StatusCode)
}

// Client issues the upstream GETs. It holds no state besides configuration and
// is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	attack     config.AttackConfig
	userAgent  string
}

// NewClient builds a client from configuration. A nil httpClient gets a
// default one using the configured timeout.
func NewClient(cfg *config.Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTP.Timeout}
	}
	return &Client{
		httpClient: httpClient,
		attack:     cfg.Attack,
		userAgent:  cfg.HTTP.UserAgent,
	}
}

// SiteURL returns the attack.mitre.org base used to build absolute links
func (c *Client) SiteURL() string {
	return strings.TrimSuffix(c.attack.SiteURL, "/")
}

// get performs a single GET with no retry. Any non-200 response is a *FetchError.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.LogAPICall(url, 0, false, time.Since(start), err)
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fetchErr := &FetchError{URL: url, StatusCode: resp.StatusCode}
		logging.LogAPICall(url, resp.StatusCode, false, time.Since(start), fetchErr)
		return nil, fetchErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.LogAPICall(url, resp.StatusCode, false, time.Since(start), err)
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	logging.LogAPICall(url, resp.StatusCode, true, time.Since(start), nil)
	return body, nil
}

// FetchBundle downloads the enterprise ATT&CK STIX bundle for a branch or tag.
// An empty version uses the configured default branch.
func (c *Client) FetchBundle(ctx context.Context, version string) (*Bundle, error) {
	url := c.attack.BundleURLFor(version)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var bundle Bundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return nil, fmt.Errorf("failed to decode bundle from %s: %w", url, err)
	}
	logging.LogDebug("Fetched ATT&CK bundle", map[string]interface{}{
		"url":     url,
		"objects": len(bundle.Objects),
	})
	return &bundle, nil
}

type gitTag struct {
	Name string `json:"name"`
}

// FetchTags lists the release tags of the cti repository that name an ATT&CK release
func (c *Client) FetchTags(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, c.attack.TagsURL)
	if err != nil {
		return nil, err
	}

	var tags []gitTag
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tag list: %w", err)
	}

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		if strings.Contains(tag.Name, tagPrefix) {
			names = append(names, tag.Name)
		}
	}
	return names, nil
}

// FetchPage downloads an HTML page from the ATT&CK site
func (c *Client) FetchPage(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url)
}
