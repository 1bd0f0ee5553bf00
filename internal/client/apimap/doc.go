// Package apimap discovers and navigates the server's endpoint map.
//
// # Overview
//
// The API does not publish fixed URL paths. Instead, a well-known endpoint
// (MapPath) returns a directory of entries, each identified by a logical id
// and carrying a list of relation-tagged links:
//
//	{"items": [
//	  {"id": "user-auth", "links": [{"rel": "action", "uri": "/api/v1/actions/login"}]},
//	  {"id": "projects",  "links": [{"rel": "collection", "uri": "/api/v1/projects"}]}
//	]}
//
// Load fetches the directory, Build indexes it into a Map, and
// ResolveRelative/ResolveAbsolute turn an (id, rel) pair into a URI.
//
// # Errors
//
//   - ErrMapNotLoaded, ErrHostNotSet: resolution attempted too early; both
//     wrap common.ErrPrecondition.
//   - *ResolutionError: unknown id, missing relation (wrapping
//     linkx.ErrNotFound) or duplicated relation (wrapping linkx.ErrAmbiguous).
//
// The functions are pure and safe for concurrent use; a Map must not be
// modified after Build returns it.
package apimap
