package apimap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/scrumlink/internal/client/models"
	"github.com/dmitrijs2005/scrumlink/internal/common"
	"github.com/dmitrijs2005/scrumlink/internal/linkx"
)

// Well-known entry ids and relations used by the session client.
const (
	IDUserAuth        = "user-auth"
	IDUserAuthRefresh = "user-auth-refresh"
	IDProjects        = "projects"

	RelAction     = "action"
	RelCollection = "collection"
)

var (
	ErrMapNotLoaded = fmt.Errorf("%w: api map not loaded", common.ErrPrecondition)
	ErrHostNotSet   = fmt.Errorf("%w: canonical host not set", common.ErrPrecondition)
)

// Entry is one resource of the endpoint map.
type Entry struct {
	ID    string        `json:"id"`
	Links []models.Link `json:"links"`
}

// Map indexes entries by id.
type Map map[string]Entry

// Build indexes entries by id. Later entries with a repeated id replace
// earlier ones. The result is a new map; it never aliases a previous one.
func Build(entries []Entry) Map {
	m := make(Map, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	return m
}

// ResolutionError reports that (ID, Rel) does not name exactly one link.
type ResolutionError struct {
	ID  string
	Rel string
	Err error
}

func (e *ResolutionError) Error() string {
	if e.Rel == "" {
		return fmt.Sprintf("resolve %q: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("resolve %q rel %q: %v", e.ID, e.Rel, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

var errUnknownID = fmt.Errorf("%w: unknown id", linkx.ErrNotFound)

// ResolveRelative returns the URI of the single link with relation rel in
// entry id, exactly as the server published it.
func ResolveRelative(m Map, id, rel string) (string, error) {
	if m == nil {
		return "", ErrMapNotLoaded
	}
	entry, ok := m[id]
	if !ok {
		return "", &ResolutionError{ID: id, Err: errUnknownID}
	}
	link, err := linkx.FindUnique(entry.Links, func(l models.Link) bool { return l.Rel == rel })
	if err != nil {
		return "", &ResolutionError{ID: id, Rel: rel, Err: err}
	}
	return link.URI, nil
}

// ResolveAbsolute is ResolveRelative prefixed with the canonical host.
func ResolveAbsolute(host string, m Map, id, rel string) (string, error) {
	if host == "" {
		return "", ErrHostNotSet
	}
	uri, err := ResolveRelative(m, id, rel)
	if err != nil {
		return "", err
	}
	return JoinURI(host, uri), nil
}

// JoinURI makes a published link URI absolute against host. Absolute http(s)
// URIs are returned unchanged and a missing leading slash is supplied.
func JoinURI(host, uri string) string {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri
	}
	if !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}
	return host + uri
}

// IsResolutionError reports whether err is a *ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
