package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/scrumlink/internal/client/auth"
	"github.com/dmitrijs2005/scrumlink/internal/client/models"
	"github.com/dmitrijs2005/scrumlink/internal/common"
)

// Indirections over the interactive input helpers, swapped in tests.
var (
	getTextWithDefault = GetTextWithDefault
	getPassword        = GetPassword
)

var errNotConnected = errors.New("not connected, use 'connect' or 'resume' first")

// Connect prompts for server, username and password and logs in. A server
// side rejection is printed, not returned.
func (a *App) Connect(ctx context.Context) error {
	host, err := getTextWithDefault(a.reader, "Server URL", a.defaultHost(), a.out)
	if err != nil {
		return err
	}
	user, err := getTextWithDefault(a.reader, "Username", a.config.Username, a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	msg, err := a.client.Connect(ctx, host, user, string(password), a.onNotification)
	if err != nil {
		return err
	}
	if msg != "" {
		fmt.Fprintln(a.out, msg)
		return nil
	}

	a.userName = user
	a.projects = nil
	a.logger.Info(ctx, "connected", "host", a.client.HostURL(), "user", user)
	fmt.Fprintf(a.out, "Connected to %s\n", a.client.HostURL())
	return nil
}

// Resume reconnects using the held refresh token.
func (a *App) Resume(ctx context.Context) error {
	msg, err := a.client.ConnectWithRefreshToken(ctx, a.defaultHost(), a.onNotification)
	if errors.Is(err, auth.ErrNoRefreshToken) {
		fmt.Fprintln(a.out, "No saved session, use 'connect'")
		return nil
	}
	if err != nil {
		return err
	}
	if msg != "" {
		fmt.Fprintln(a.out, msg)
		return nil
	}

	a.projects = nil
	a.logger.Info(ctx, "session resumed", "host", a.client.HostURL())
	fmt.Fprintf(a.out, "Resumed session on %s\n", a.client.HostURL())
	return nil
}

func (a *App) Projects(ctx context.Context) error {
	if !a.client.IsConnected() {
		return errNotConnected
	}
	projects, err := a.client.FetchProjects(ctx)
	if err != nil {
		return err
	}
	a.projects = projects

	if len(projects) == 0 {
		fmt.Fprintln(a.out, "No projects")
		return nil
	}
	for _, p := range projects {
		fmt.Fprintln(a.out, p.String())
	}
	return nil
}

// Sprints lists the sprints of the project with projectID. The project list
// is fetched when it has not been loaded yet.
func (a *App) Sprints(ctx context.Context, projectID string) error {
	if !a.client.IsConnected() {
		return errNotConnected
	}
	if a.projects == nil {
		projects, err := a.client.FetchProjects(ctx)
		if err != nil {
			return err
		}
		a.projects = projects
	}

	var project *models.Project
	for i := range a.projects {
		if a.projects[i].ID == projectID {
			project = &a.projects[i]
			break
		}
	}
	if project == nil {
		return fmt.Errorf("unknown project %q", projectID)
	}

	sprints, err := a.client.FetchProjectSprints(ctx, *project)
	if err != nil {
		return err
	}
	if len(sprints) == 0 {
		fmt.Fprintln(a.out, "No sprints")
		return nil
	}
	for _, s := range sprints {
		fmt.Fprintln(a.out, s.String())
	}
	return nil
}

func (a *App) Sprint(ctx context.Context, uri string) error {
	if !a.client.IsConnected() {
		return errNotConnected
	}
	sprint, found, err := a.client.FetchSprintByURI(ctx, uri)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(a.out, "Sprint not found")
		return nil
	}

	fmt.Fprintln(a.out, sprint.String())
	if sprint.Goal != "" {
		fmt.Fprintln(a.out, "Goal:", sprint.Goal)
	}
	for _, l := range sprint.Links {
		fmt.Fprintf(a.out, "  %s -> %s\n", l.Rel, l.URI)
	}
	return nil
}

func (a *App) Backlog(ctx context.Context, uri string) error {
	if !a.client.IsConnected() {
		return errNotConnected
	}
	items, err := a.client.FetchSprintBacklogItemsByURI(ctx, uri)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Backlog is empty")
		return nil
	}
	for _, it := range items {
		fmt.Fprintln(a.out, it.String())
	}
	return nil
}

func (a *App) Status(_ context.Context) error {
	if !a.client.IsConnected() {
		fmt.Fprintln(a.out, "Disconnected")
		if a.client.RefreshToken() != "" {
			fmt.Fprintln(a.out, "A saved session can be resumed with 'resume'")
		}
		return nil
	}

	fmt.Fprintln(a.out, "Connected to", a.client.HostURL())
	if a.userName != "" {
		fmt.Fprintln(a.out, "User:", a.userName)
	}
	if exp, ok := a.client.SessionExpiry(); ok {
		fmt.Fprintf(a.out, "Access token expires at %s (in %s)\n",
			exp.Format(time.RFC3339), time.Until(exp).Round(time.Second))
	}
	return nil
}

func (a *App) Disconnect(ctx context.Context) error {
	if err := a.client.Disconnect(); err != nil {
		return err
	}
	a.userName = ""
	a.projects = nil
	a.logger.Info(ctx, "disconnected")
	fmt.Fprintln(a.out, "Disconnected")
	return nil
}

// defaultHost prefers the host of the current session over the configured
// one.
func (a *App) defaultHost() string {
	if h := a.client.HostURL(); h != "" {
		return h
	}
	return a.config.ServerURL
}
