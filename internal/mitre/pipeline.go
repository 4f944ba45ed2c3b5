package mitre

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"threatkit/internal/domain"
	"threatkit/internal/logging"
)

// FilterResult is the outcome of FilterByPage
type FilterResult struct {
	Tag        string
	Version    string
	Scraped    int
	Techniques domain.FilteredTechniques
}

// FilterByPage exports the techniques listed on a versioned ATT&CK techniques
// page, using the STIX bundle of the newest matching release. Scraping the page
// runs alongside tag resolution and the bundle download.
func (c *Client) FilterByPage(ctx context.Context, pageURL string, skipRevoked bool) (*FilterResult, error) {
	start := time.Now()
	logging.LogOperationStart("filter_techniques", map[string]interface{}{"url": pageURL})

	result, err := c.filterByPage(ctx, pageURL, skipRevoked)
	found := 0
	if result != nil {
		found = len(result.Techniques.Mitre)
	}
	logging.LogOperationEnd("filter_techniques", time.Since(start), err == nil, found, found, err)
	return result, err
}

func (c *Client) filterByPage(ctx context.Context, pageURL string, skipRevoked bool) (*FilterResult, error) {
	version, err := VersionFromURL(pageURL)
	if err != nil {
		return nil, err
	}

	var (
		rows   []domain.PageTechnique
		bundle *Bundle
		tag    string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = c.ScrapeTechniques(gctx, pageURL)
		if err != nil {
			return fmt.Errorf("failed to scrape %s: %w", pageURL, err)
		}
		return nil
	})
	g.Go(func() error {
		tags, err := c.FetchTags(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch version tags: %w", err)
		}
		tag, err = ResolveTag(version, tags)
		if err != nil {
			return err
		}
		bundle, err = c.FetchBundle(gctx, tag)
		if err != nil {
			return fmt.Errorf("failed to fetch bundle %s: %w", tag, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	catalog, err := Extract(bundle, ExtractOptions{
		IDs:         TechniqueIDs(rows),
		KillChain:   c.attack.KillChain,
		SiteURL:     c.SiteURL(),
		SiteVersion: version,
		SkipRevoked: skipRevoked,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract techniques: %w", err)
	}

	return &FilterResult{
		Tag:        tag,
		Version:    version,
		Scraped:    len(rows),
		Techniques: domain.FilteredTechniques{Mitre: catalog.Ordered()},
	}, nil
}
