package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/scrumlink/internal/common"
	"github.com/dmitrijs2005/scrumlink/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct {
	calls  atomic.Int32
	result bool
	onCall func()
}

func (s *stubRefresher) RefreshAuth(context.Context) bool {
	s.calls.Add(1)
	if s.onCall != nil {
		s.onCall()
	}
	return s.result
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestREST_Get_DecodesBodyAndSendsDefaultHeaders(t *testing.T) {
	var gotAuth, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get(common.AuthHeaderName)
		gotReqID = r.Header.Get(common.RequestIDHeaderName)
		writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]string{{"id": "p1"}}})
	}))
	defer srv.Close()

	tr := NewREST()
	tr.SetDefaultHeader(common.AuthHeaderName, "Bearer t1")

	var out struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, tr.Get(context.Background(), srv.URL+"/api/v1/projects", &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "p1", out.Items[0].ID)
	assert.Equal(t, "Bearer t1", gotAuth)
	assert.NotEmpty(t, gotReqID)
}

func TestREST_SetDefaultHeader_EmptyValueRemoves(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get(common.AuthHeaderName))
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	defer srv.Close()

	tr := NewREST()
	tr.SetDefaultHeader(common.AuthHeaderName, "Bearer t1")
	require.NoError(t, tr.Get(context.Background(), srv.URL, nil))
	tr.SetDefaultHeader(common.AuthHeaderName, "")
	require.NoError(t, tr.Get(context.Background(), srv.URL, nil))

	assert.Equal(t, []string{"Bearer t1", ""}, gotAuth)
}

func TestREST_ExecAction_PostsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(w, http.StatusOK, map[string]string{"echo": in["username"]})
	}))
	defer srv.Close()

	var out map[string]string
	err := NewREST().ExecAction(context.Background(), srv.URL, map[string]string{"username": "alice"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "alice", out["echo"])
}

func TestREST_NonSuccessBecomesStatusError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		body    string
		wantMsg string
	}{
		{name: "json message", code: http.StatusForbidden, body: `{"message":"no access"}`, wantMsg: "no access"},
		{name: "json error", code: http.StatusBadRequest, body: `{"error":"bad input"}`, wantMsg: "bad input"},
		{name: "plain text", code: http.StatusInternalServerError, body: "boom\n", wantMsg: "boom"},
		{name: "empty", code: http.StatusNotFound, body: "", wantMsg: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewREST().Get(context.Background(), srv.URL, nil)

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.code, se.StatusCode)
			assert.Equal(t, tt.wantMsg, se.Message)
			assert.True(t, IsStatus(err, tt.code))
		})
	}
}

func TestREST_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	var out map[string]any
	err := NewREST().Get(context.Background(), srv.URL, &out)
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestREST_EmptyBodyWithTarget_IsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var out map[string]any
	require.ErrorIs(t, NewREST().Get(context.Background(), srv.URL, &out), ErrMalformedResponse)
	require.NoError(t, NewREST().Get(context.Background(), srv.URL, nil))
}

func TestREST_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewREST().Get(context.Background(), url, nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestRestyLogger_RoutesToTransportLogger(t *testing.T) {
	var buf bytes.Buffer
	rl := restyLogger{logging.NewTextLogger(&buf, "debug")}

	rl.Errorf("dial %s", "refused")
	rl.Debugf("attempt %d", 2)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "resty: dial refused")
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "resty: attempt 2")
}

func TestREST_CancellationPropagates(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out map[string]any
	err := NewREST().Get(ctx, srv.URL, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Nil(t, out)
}

func TestREST_AuthFailure_RefreshesAndRetriesWithNewHeader(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get(common.AuthHeaderName)
		seen = append(seen, auth)
		if auth != "Bearer t2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	}))
	defer srv.Close()

	tr := NewREST()
	tr.SetDefaultHeader(common.AuthHeaderName, "Bearer t1")
	ref := &stubRefresher{result: true, onCall: func() {
		tr.SetDefaultHeader(common.AuthHeaderName, "Bearer t2")
	}}
	tr.SetAuthRefresher(ref)

	var out map[string]string
	require.NoError(t, tr.Get(context.Background(), srv.URL, &out))
	assert.Equal(t, "yes", out["ok"])
	assert.Equal(t, int32(1), ref.calls.Load())
	assert.Equal(t, []string{"Bearer t1", "Bearer t2"}, seen)
}

func TestREST_AuthFailure_RefresherDeclines(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr := NewREST()
	ref := &stubRefresher{result: false}
	tr.SetAuthRefresher(ref)

	err := tr.Get(context.Background(), srv.URL, nil)
	require.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, int32(1), ref.calls.Load())
	assert.Equal(t, 1, hits)
}

func TestREST_AuthFailure_SkipRetryOption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr := NewREST()
	ref := &stubRefresher{result: true}
	tr.SetAuthRefresher(ref)

	err := tr.ExecAction(context.Background(), srv.URL, map[string]string{"refreshToken": "r1"}, nil, SkipRetryOnAuthFailure())
	require.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, int32(0), ref.calls.Load())
}

func TestResolveCallOptions(t *testing.T) {
	assert.False(t, ResolveCallOptions(nil).SkipRetryOnAuthFailure)
	assert.True(t, ResolveCallOptions([]CallOption{SkipRetryOnAuthFailure()}).SkipRetryOnAuthFailure)
}

func TestStatusError_Error(t *testing.T) {
	assert.Equal(t, "server responded with 404 Not Found", (&StatusError{StatusCode: 404}).Error())
	assert.Equal(t, "server responded with 409: stale", (&StatusError{StatusCode: 409, Message: "stale"}).Error())
}
