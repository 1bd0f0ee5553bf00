// Package cli provides the interactive scrumlink command-line client.
//
// It wires configuration, the REST transport and the session client into a
// small REPL. Typical flow: resume a saved session or connect with
// credentials, then browse projects, sprints and backlog items.
//
// Key features:
//   - connect / resume / disconnect
//   - projects, sprints <project-id>, sprint <uri>, backlog <uri>
//   - status, including the access token expiry when the server issues JWTs
//   - background token refresh reported through notifications
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
