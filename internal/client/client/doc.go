// Package client is the public entry point of the scrumlink session layer.
//
// # Overview
//
// A Client connects to a scrum-planning API that publishes its endpoints
// through a discoverable map. Connect:
//  1. canonicalizes the host URL and loads the endpoint map (see apimap),
//  2. resolves the login action and logs in (see auth.Session),
//  3. commits host, map and notification handler, and
//  4. registers the session as the transport's auth-failure hook, so an
//     expired access token is refreshed transparently on the next request.
//
// Resource fetches (FetchProjects, FetchSprintByURI, ...) resolve URIs through
// the committed map and delegate to the transport.
//
// # Error Handling
//
// Connect-style operations split failures in two:
//   - runtime conditions the user can act on (server answered non-2xx,
//     server unreachable, request canceled) come back as a human-readable
//     message with a nil error;
//   - contract violations come back as error: misuse (errors.Is
//     common.ErrPrecondition, e.g. ErrBusy), endpoint map inconsistencies
//     (*apimap.ResolutionError) and undecodable responses
//     (transport.ErrMalformedResponse).
//
// Fetches return every failure as error, except that a 404 from
// FetchSprintByURI is reported as found == false.
//
// # Concurrency & Contexts
//
// A Client is safe for concurrent use. Connect attempts never overlap: a
// second attempt fails with ErrBusy instead of queuing. Fetches may run
// concurrently with each other and with the auth-failure hook. Every network
// operation takes a context.Context; cancellation is reported, never masked
// as an empty result.
package client
