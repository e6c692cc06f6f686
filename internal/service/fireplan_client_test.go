package service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/config"
)

const loginPage = `<html><body>
<form method="post" action="/fr/login">
  <input type="text" name="auth_login[login]">
  <input type="password" name="auth_login[password]">
  <input type="hidden" name="_csrf_token" value="tok-123">
  <button type="submit">Se connecter</button>
</form>
</body></html>`

func TestExtractInputValue(t *testing.T) {
	val, err := extractInputValue(loginPage, "_csrf_token")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", val)

	_, err = extractInputValue(loginPage, "missing")
	require.Error(t, err)
}

func TestFireplanLogin(t *testing.T) {
	var postedCSRF, postedUser string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fr/login" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(loginPage))
		case http.MethodPost:
			require.NoError(t, r.ParseForm())
			postedCSRF = r.PostFormValue("_csrf_token")
			postedUser = r.PostFormValue("auth_login[login]")
			w.Write([]byte("<html>Bienvenue</html>"))
		}
	}))
	defer srv.Close()

	client := NewFireplanClient(config.FireplanConfig{
		BaseURL:  srv.URL,
		Username: "cic",
		Password: "secret",
	}, zap.NewNop())

	require.NoError(t, client.Login())
	assert.Equal(t, "tok-123", postedCSRF)
	assert.Equal(t, "cic", postedUser)
}

func TestFireplanLoginBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(loginPage))
			return
		}
		w.Write([]byte("<html>Identifiants invalides</html>"))
	}))
	defer srv.Close()

	client := NewFireplanClient(config.FireplanConfig{BaseURL: srv.URL}, zap.NewNop())
	assert.ErrorIs(t, client.Login(), ErrBadCredentials)
}

func TestFireplanPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fr/api/charroi/view" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"records":[{"id":7,"number":"P01","plate":"1-ABC-123"}]}`))
	}))
	defer srv.Close()

	client := NewFireplanClient(config.FireplanConfig{BaseURL: srv.URL}, zap.NewNop())

	var resp charroiResponse
	require.NoError(t, client.PostJSON("/fr/api/charroi/view", map[string]any{"page": 1}, &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, int64(7), resp.Records[0].ID)
	assert.Equal(t, "P01", resp.Records[0].Number)
}

func TestResourcesoffLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a failed login lands back on the login page
		w.Write([]byte("<html><title>Login</title></html>"))
	}))
	defer srv.Close()

	client := NewResourcesoffClient(config.ResourcesoffConfig{BaseURL: srv.URL}, zap.NewNop())
	assert.ErrorIs(t, client.Login(), ErrBadCredentials)
}
