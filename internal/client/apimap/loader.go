package apimap

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/scrumlink/internal/client/models"
)

// MapPath is the well-known location of the endpoint map under a host.
const MapPath = "/api/v1/map"

// Getter is the part of the transport Load needs.
type Getter interface {
	Get(ctx context.Context, uri string, out any) error
}

// Load fetches the endpoint map from hostBaseURL. Transport errors are
// returned unchanged.
func Load(ctx context.Context, g Getter, hostBaseURL string) ([]Entry, error) {
	var env models.ItemsEnvelope[Entry]
	if err := g.Get(ctx, Canonicalize(hostBaseURL)+MapPath, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}

// Canonicalize strips trailing path separators from a host URL, so
// "https://h/" and "https://h" name the same host. Applying it twice gives
// the same result as applying it once.
func Canonicalize(u string) string {
	return strings.TrimRight(u, "/")
}
