package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/scrumlink/internal/client/apimap"
	"github.com/dmitrijs2005/scrumlink/internal/client/auth/authtest"
	"github.com/dmitrijs2005/scrumlink/internal/client/models"
	"github.com/dmitrijs2005/scrumlink/internal/client/notify"
	"github.com/dmitrijs2005/scrumlink/internal/client/transport"
	"github.com/dmitrijs2005/scrumlink/internal/common"
	"github.com/dmitrijs2005/scrumlink/internal/linkx"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a minimal scrum-planning server speaking the real wire format.
type fakeAPI struct {
	t testing.TB

	mu           sync.Mutex
	authToken    string
	refreshToken string
	generation   int
	refreshCalls int
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *fakeAPI) issue() models.TokenPair {
	a.generation++
	a.authToken = authtest.MustIssueToken(a.t, "alice", 15*time.Minute)
	a.refreshToken = "r" + strconv.Itoa(a.generation)
	return models.TokenPair{AuthToken: a.authToken, RefreshToken: a.refreshToken}
}

// expire invalidates the current access token, keeping the refresh token.
func (a *fakeAPI) expire() {
	a.mu.Lock()
	a.authToken = "expired"
	a.mu.Unlock()
}

func (a *fakeAPI) authorized(r *http.Request) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return r.Header.Get(common.AuthHeaderName) == common.BearerPrefix+a.authToken
}

func (a *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/map", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, endpointMap())
	})

	mux.HandleFunc("POST /api/v1/actions/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
			return
		}
		a.mu.Lock()
		defer a.mu.Unlock()
		writeJSON(w, http.StatusOK, a.issue())
	})

	mux.HandleFunc("POST /api/v1/actions/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		var req models.RefreshTokenRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		a.mu.Lock()
		defer a.mu.Unlock()
		a.refreshCalls++
		if req.RefreshToken != a.refreshToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "refresh token expired"})
			return
		}
		writeJSON(w, http.StatusOK, a.issue())
	})

	guarded := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !a.authorized(r) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
				return
			}
			h(w, r)
		}
	}

	mux.HandleFunc("GET /api/v1/projects", guarded(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.ItemsEnvelope[models.Project]{Items: []models.Project{
			{ID: "p1", Name: "Atoll", Links: []models.Link{{Rel: RelSprints, URI: "/api/v1/projects/p1/sprints"}}},
			{ID: "p2", Name: "Orphan"},
		}})
	}))
	mux.HandleFunc("GET /api/v1/projects/p1/sprints", guarded(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.ItemsEnvelope[models.Sprint]{Items: []models.Sprint{{ID: "s1", ProjectID: "p1", Name: "Sprint 1"}}})
	}))
	mux.HandleFunc("GET /api/v1/sprints/s1", guarded(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.ItemEnvelope[models.Sprint]{Item: models.Sprint{ID: "s1", ProjectID: "p1", Name: "Sprint 1"}})
	}))
	mux.HandleFunc("GET /api/v1/sprints/broken", guarded(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "database offline"})
	}))
	mux.HandleFunc("GET /api/v1/sprints/s1/backlog-items", guarded(func(w http.ResponseWriter, r *http.Request) {
		est := 5
		writeJSON(w, http.StatusOK, models.ItemsEnvelope[models.BacklogItem]{Items: []models.BacklogItem{
			{ID: "b1", FriendlyID: "US-1", Title: "Login page", Estimate: &est},
		}})
	}))

	return mux
}

func startAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{t: t}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return api, srv
}

func connectREST(t *testing.T, srv *httptest.Server, h notify.Handler) *Client {
	t.Helper()
	c := New(transport.NewREST())
	msg, err := c.Connect(context.Background(), srv.URL+"/", "alice", "secret", h)
	require.NoError(t, err)
	require.Empty(t, msg)
	return c
}

func TestREST_ConnectAndFetch(t *testing.T) {
	_, srv := startAPI(t)
	c := connectREST(t, srv, nil)
	ctx := context.Background()

	exp, ok := c.SessionExpiry()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, time.Minute)

	projects, err := c.FetchProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	sprints, err := c.FetchProjectSprints(ctx, projects[0])
	require.NoError(t, err)
	require.Len(t, sprints, 1)

	sprint, found, err := c.FetchSprintByURI(ctx, srv.URL+"/api/v1/sprints/s1")
	require.NoError(t, err)
	require.True(t, found)
	if diff := cmp.Diff(models.Sprint{ID: "s1", ProjectID: "p1", Name: "Sprint 1"}, sprint); diff != "" {
		t.Fatalf("sprint mismatch (-want +got):\n%s", diff)
	}

	items, err := c.FetchSprintBacklogItemsByURI(ctx, srv.URL+"/api/v1/sprints/s1/backlog-items")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "US-1", items[0].FriendlyID)
}

// Scenario E.
func TestREST_FetchSprintByURI_NotFoundAndErrors(t *testing.T) {
	_, srv := startAPI(t)
	c := connectREST(t, srv, nil)
	ctx := context.Background()

	sprint, found, err := c.FetchSprintByURI(ctx, srv.URL+"/api/v1/sprints/gone")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, models.Sprint{}, sprint)

	_, found, err = c.FetchSprintByURI(ctx, srv.URL+"/api/v1/sprints/broken")
	require.Error(t, err)
	assert.False(t, found)
	assert.True(t, transport.IsStatus(err, http.StatusInternalServerError))
	assert.Contains(t, err.Error(), "database offline")
}

func TestREST_ExpiredTokenRefreshedTransparently(t *testing.T) {
	api, srv := startAPI(t)
	var msgs []string
	var mu sync.Mutex
	c := connectREST(t, srv, func(_ context.Context, m string, _ notify.Level) {
		mu.Lock()
		msgs = append(msgs, m)
		mu.Unlock()
	})

	api.expire()

	projects, err := c.FetchProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, []string{notify.MsgReconnecting, notify.MsgReconnected}, msgs)
	assert.Equal(t, "r2", c.RefreshToken())
	assert.Equal(t, 1, api.refreshCalls)
}

func TestREST_ConcurrentFetchesWithExpiredToken(t *testing.T) {
	api, srv := startAPI(t)
	c := connectREST(t, srv, nil)
	api.expire()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.FetchProjects(context.Background())
		}(i)
	}
	wg.Wait()

	// A fetch may still lose the race with a later token rotation; what must
	// hold is that the session ends up connected with a refreshed token.
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Positive(t, succeeded)
	assert.True(t, c.IsConnected())
	assert.NotEqual(t, "r1", c.RefreshToken())
}

func TestREST_ServerUnreachable(t *testing.T) {
	_, srv := startAPI(t)
	url := srv.URL
	srv.Close()

	c := New(transport.NewREST())
	msg, err := c.Connect(context.Background(), url, "alice", "secret", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg, "loading api map failed: "), msg)
	assert.False(t, c.IsConnected())
}

func TestFetch_BeforeConnect(t *testing.T) {
	c := New(transport.NewREST())
	ctx := context.Background()

	_, err := c.FetchProjects(ctx)
	require.ErrorIs(t, err, apimap.ErrMapNotLoaded)
	require.ErrorIs(t, err, common.ErrPrecondition)

	_, _, err = c.FetchSprintByURI(ctx, "https://host/api/v1/sprints/s1")
	require.ErrorIs(t, err, common.ErrPrecondition)

	_, err = c.FetchSprintBacklogItemsByURI(ctx, "https://host/api/v1/sprints/s1/backlog-items")
	require.ErrorIs(t, err, common.ErrPrecondition)

	_, err = c.FetchProjectSprints(ctx, models.Project{ID: "p1"})
	require.ErrorIs(t, err, common.ErrPrecondition)
}

func TestFetch_InvalidURIs(t *testing.T) {
	f := newServer()
	c := connected(t, f, nil)
	ctx := context.Background()
	before := len(f.Calls())

	for _, uri := range []string{"", "/api/v1/sprints/s1", "sprints/s1", "mailto:x@y", "http://", "https://h/%zz"} {
		_, _, err := c.FetchSprintByURI(ctx, uri)
		require.ErrorIs(t, err, ErrInvalidURI, "uri %q", uri)

		_, err = c.FetchSprintBacklogItemsByURI(ctx, uri)
		require.ErrorIs(t, err, ErrInvalidURI, "uri %q", uri)
	}
	assert.Len(t, f.Calls(), before, "invalid uris never reach the transport")
}

func TestFetchProjectSprints_MissingOrAmbiguousLink(t *testing.T) {
	c := connected(t, newServer(), nil)
	ctx := context.Background()

	_, err := c.FetchProjectSprints(ctx, models.Project{ID: "p2"})
	require.ErrorIs(t, err, linkx.ErrNotFound)

	_, err = c.FetchProjectSprints(ctx, models.Project{ID: "p3", Links: []models.Link{
		{Rel: RelSprints, URI: "/a"}, {Rel: RelSprints, URI: "/b"},
	}})
	require.ErrorIs(t, err, ErrAmbiguousLink)
}

func TestFetchProjects_TransportErrorPropagates(t *testing.T) {
	f := newServer()
	c := connected(t, f, nil)
	f.HandleError(http.MethodGet, projectURI, &transport.StatusError{StatusCode: http.StatusForbidden, Message: "no access"})

	_, err := c.FetchProjects(context.Background())
	require.True(t, transport.IsStatus(err, http.StatusForbidden))
}

func TestFetch_CanceledContextIsAnError(t *testing.T) {
	f := newServer()
	f.HandleJSON(http.MethodGet, itemsURI, models.ItemsEnvelope[models.BacklogItem]{})
	c := connected(t, f, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, err := c.FetchSprintBacklogItemsByURI(ctx, itemsURI)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, items)

	_, found, err := c.FetchSprintByURI(ctx, sprintURI)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, found)
}

func TestFindLinkByRel(t *testing.T) {
	one := models.Link{Rel: "self", URI: "/api/v1/sprints/s1"}
	links := []models.Link{
		one,
		{Rel: "backlog-items", URI: "/api/v1/sprints/s1/backlog-items"},
		{Rel: "dup", URI: "/a"},
		{Rel: "dup", URI: "/b"},
	}

	got, ok, err := FindLinkByRel(nil, "self")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, models.Link{}, got)

	got, ok, err = FindLinkByRel(links, "self")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, one, got)

	_, ok, err = FindLinkByRel(links, "dup")
	require.ErrorIs(t, err, ErrAmbiguousLink)
	require.ErrorIs(t, err, linkx.ErrAmbiguous)
	assert.False(t, ok)

	uri, ok, err := FindLinkURIByRel(links, "backlog-items")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/api/v1/sprints/s1/backlog-items", uri)

	uri, ok, err = FindLinkURIByRel(links, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, uri)
}

func TestAbsoluteURI(t *testing.T) {
	assert.Equal(t, "https://h/a", AbsoluteURI("https://h", "/a"))
	assert.Equal(t, "https://h/a", AbsoluteURI("https://h", "a"))
	assert.Equal(t, "http://other/a", AbsoluteURI("https://h", "http://other/a"))
}
