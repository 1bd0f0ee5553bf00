package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/scrumlink/internal/client/apimap"
	"github.com/dmitrijs2005/scrumlink/internal/client/models"
	"github.com/dmitrijs2005/scrumlink/internal/client/transport"
	"github.com/dmitrijs2005/scrumlink/internal/linkx"
)

// RelSprints names the link from a project to its sprint collection.
const RelSprints = "sprints"

// committed returns the host and map of the last successful connect, failing
// fast when there is none.
func (c *Client) committed() (string, apimap.Map, error) {
	c.mu.RLock()
	host, m := c.hostURL, c.apiMap
	c.mu.RUnlock()

	if m == nil {
		return "", nil, apimap.ErrMapNotLoaded
	}
	if host == "" {
		return "", nil, apimap.ErrHostNotSet
	}
	return host, m, nil
}

// FetchProjects lists the projects visible to the logged-in user.
func (c *Client) FetchProjects(ctx context.Context) ([]models.Project, error) {
	host, m, err := c.committed()
	if err != nil {
		return nil, err
	}
	uri, err := apimap.ResolveAbsolute(host, m, apimap.IDProjects, apimap.RelCollection)
	if err != nil {
		return nil, err
	}

	var env models.ItemsEnvelope[models.Project]
	if err := c.transport.Get(ctx, uri, &env); err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	return env.Items, nil
}

// FetchSprintByURI loads a sprint. A sprint that no longer exists (404) is
// reported as found == false with a nil error.
func (c *Client) FetchSprintByURI(ctx context.Context, uri string) (models.Sprint, bool, error) {
	if _, _, err := c.committed(); err != nil {
		return models.Sprint{}, false, err
	}
	if err := validateAbsoluteURI(uri); err != nil {
		return models.Sprint{}, false, err
	}

	var env models.ItemEnvelope[models.Sprint]
	err := c.transport.Get(ctx, uri, &env)
	if transport.IsStatus(err, http.StatusNotFound) {
		return models.Sprint{}, false, nil
	}
	if err != nil {
		return models.Sprint{}, false, fmt.Errorf("fetch sprint: %w", err)
	}
	return env.Item, true, nil
}

// FetchSprintBacklogItemsByURI loads the backlog items at uri.
func (c *Client) FetchSprintBacklogItemsByURI(ctx context.Context, uri string) ([]models.BacklogItem, error) {
	if _, _, err := c.committed(); err != nil {
		return nil, err
	}
	if err := validateAbsoluteURI(uri); err != nil {
		return nil, err
	}

	var env models.ItemsEnvelope[models.BacklogItem]
	if err := c.transport.Get(ctx, uri, &env); err != nil {
		return nil, fmt.Errorf("fetch sprint backlog items: %w", err)
	}
	return env.Items, nil
}

// FetchProjectSprints follows the project's "sprints" link.
func (c *Client) FetchProjectSprints(ctx context.Context, p models.Project) ([]models.Sprint, error) {
	host, _, err := c.committed()
	if err != nil {
		return nil, err
	}
	uri, ok, err := FindLinkURIByRel(p.Links, RelSprints)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("project %s: %q link: %w", p.ID, RelSprints, linkx.ErrNotFound)
	}

	abs := AbsoluteURI(host, uri)
	if err := validateAbsoluteURI(abs); err != nil {
		return nil, err
	}

	var env models.ItemsEnvelope[models.Sprint]
	if err := c.transport.Get(ctx, abs, &env); err != nil {
		return nil, fmt.Errorf("fetch project sprints: %w", err)
	}
	return env.Items, nil
}

// AbsoluteURI prefixes a host-relative link URI with host; absolute URIs are
// returned unchanged. It agrees with apimap.ResolveAbsolute.
func AbsoluteURI(host, uri string) string {
	return apimap.JoinURI(host, uri)
}

// FindLinkByRel returns the single link with relation rel. No match gives
// found == false; more than one match is an error wrapping ErrAmbiguousLink.
func FindLinkByRel(links []models.Link, rel string) (models.Link, bool, error) {
	l, err := linkx.FindUnique(links, func(l models.Link) bool { return l.Rel == rel })
	switch {
	case errors.Is(err, linkx.ErrNotFound):
		return models.Link{}, false, nil
	case err != nil:
		return models.Link{}, false, fmt.Errorf("%w %q: %w", ErrAmbiguousLink, rel, err)
	}
	return l, true, nil
}

// FindLinkURIByRel is FindLinkByRel returning only the URI.
func FindLinkURIByRel(links []models.Link, rel string) (string, bool, error) {
	l, ok, err := FindLinkByRel(links, rel)
	return l.URI, ok, err
}
