package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sakif/ysws-hunt/internal/auth"
	"github.com/sakif/ysws-hunt/internal/handler"
	"github.com/sakif/ysws-hunt/internal/model"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPost, "/auth/register", "",
		`{"email":"Maker@Example.com","password":"hunter2hunter2","display_name":"Maker"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	cookie := sessionCookie(rr)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)

	registered := decode[model.User](t, rr)
	assert.Equal(t, "maker@example.com", registered.Email)
	assert.Equal(t, "Maker", registered.DisplayName)

	t.Run("duplicate email", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/auth/register", "",
			`{"email":"maker@example.com","password":"another-password"}`)
		require.Equal(t, http.StatusConflict, rr.Code)
		body := decode[handler.ErrorResponse](t, rr)
		assert.Equal(t, "conflict", body.Error)
		assert.Equal(t, "email", body.Field)
	})

	t.Run("short password", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/auth/register", "",
			`{"email":"other@example.com","password":"short"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("login", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/auth/login", "",
			`{"email":"maker@example.com","password":"hunter2hunter2"}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		cookie := sessionCookie(rr)
		require.NotNil(t, cookie)
		assert.Equal(t, registered.ID, decode[model.User](t, rr).ID)

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(cookie)
		me := httptest.NewRecorder()
		env.router.ServeHTTP(me, req)
		require.Equal(t, http.StatusOK, me.Code)
		assert.Equal(t, registered.ID, decode[model.User](t, me).ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/auth/login", "",
			`{"email":"maker@example.com","password":"not-the-password"}`)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, sessionCookie(rr))
	})

	t.Run("unknown email", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/auth/login", "",
			`{"email":"nobody@example.com","password":"hunter2hunter2"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/auth/login", "", `{"email":"maker@example.com"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPost, "/auth/logout", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	cookie := sessionCookie(rr)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestMe_Unauthenticated(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/me/votes", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGitHub_Disabled(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/auth/github/login", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodGet, "/auth/github/callback?code=x&state=y", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func newFakeGitHub(t *testing.T) *auth.GitHubProvider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.FormValue("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "gho_test", "token_type": "bearer"})
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": 42, "login": "Octocat", "name": "The Octocat"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return auth.NewGitHubProvider("client-id", "client-secret", "http://localhost/auth/github/callback",
		auth.WithGitHubEndpoints(oauth2.Endpoint{
			AuthURL:   srv.URL + "/login/oauth/authorize",
			TokenURL:  srv.URL + "/login/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		}, srv.URL+"/user"),
	)
}

func TestGitHub_Flow(t *testing.T) {
	env := newTestEnv(t, newFakeGitHub(t))

	rr := env.do(t, http.MethodGet, "/auth/github/login", "", "")
	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)

	var state *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "oauth_state" {
			state = c
		}
	}
	require.NotNil(t, state)

	location, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state.Value, location.Query().Get("state"))
	assert.Equal(t, "client-id", location.Query().Get("client_id"))

	callback := func(query string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?"+query, nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("state mismatch", func(t *testing.T) {
		rec := callback("code=good&state=forged", state)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, sessionCookie(rec))
	})

	t.Run("missing state cookie", func(t *testing.T) {
		rec := callback("code=good&state="+state.Value, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("denied", func(t *testing.T) {
		rec := callback("error=access_denied&state="+state.Value, state)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/?auth=denied", rec.Header().Get("Location"))
	})

	t.Run("bad code", func(t *testing.T) {
		rec := callback("code=bad&state="+state.Value, state)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		rec := callback("code=good&state="+state.Value, state)
		require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
		assert.Equal(t, "/", rec.Header().Get("Location"))

		cookie := sessionCookie(rec)
		require.NotNil(t, cookie)

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(cookie)
		me := httptest.NewRecorder()
		env.router.ServeHTTP(me, req)
		require.Equal(t, http.StatusOK, me.Code)

		user := decode[model.User](t, me)
		assert.Equal(t, "octocat", user.Username)
		assert.Equal(t, "The Octocat", user.DisplayName)
		assert.Equal(t, auth.ProviderGitHub, user.Provider)
	})
}
