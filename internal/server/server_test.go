package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metroviz/crimedash/internal/auth"
	"github.com/metroviz/crimedash/internal/boundary"
	"github.com/metroviz/crimedash/internal/config"
	"github.com/metroviz/crimedash/internal/loader"
)

const testCSV = `categoria_delito,alcaldia_hecho,fecha_hecho,hora_hecho,latitud,longitud
HOMICIDIO DOLOSO,Iztapalapa,2021-06-18,23:45:00,19.35,-99.09
ROBO A TRANSEUNTE,Cuauhtémoc,2021-06-19,14:00:00,19.43,-99.13
FRAUDE,Coyoacán,2021-06-20,10:00:00,19.30,-99.15
`

// One square region covering every test coordinate.
const testBoundaries = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"NOMGEO": "Ciudad"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[-99.5, 19.0], [-98.5, 19.0], [-98.5, 20.0], [-99.5, 20.0], [-99.5, 19.0]]]
      }
    }
  ]
}`

const testUsers = `
users:
  - username: analyst
    password_hash: df733656293a19c54f69093ba916f0a1a2a3c151fc95c13f3a794c2631eeb3a6
    role: privileged
  - username: viewer
    password_hash: 5994471abb01112afcc18159f6cc74b4f511b99806da59b3caf5a9c173cacfc5
    role: general
`

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "incidents.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(testCSV), 0o644))

	cfg := &config.Config{}
	cfg.Data.ReducedPath = csvPath
	cfg.Data.FullPath = filepath.Join(dir, "missing_full.csv")
	cfg.Data.MinYear = 2016
	cfg.Auth.LoginRate = 100
	cfg.Auth.LoginBurst = 100
	cfg.Auth.AllowedOrigins = []string{"*"}

	creds, err := auth.ParseCredentials([]byte(testUsers))
	require.NoError(t, err)

	boundaries, err := boundary.Load(t.Context(), nil, boundary.Config{
		LocalPath:    writeTempFile(t, dir, "boundaries.geojson", testBoundaries),
		NameProperty: "NOMGEO",
	})
	require.NoError(t, err)

	s := New(cfg, loader.NewManager("", nil), boundaries, creds)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testEnv{srv: ts, client: &http.Client{Jar: jar}}
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e *testEnv) login(t *testing.T, username, password string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := e.client.Post(e.srv.URL+"/api/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.client.Get(e.srv.URL + path)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	resp := env.get(t, "/api/incidents/summary")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	// Bad credentials.
	resp := env.login(t, "viewer", "wrong")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Good credentials set the session cookie.
	resp = env.login(t, "viewer", "12345")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	sess := decode[map[string]any](t, env.get(t, "/api/session"))
	assert.Equal(t, "viewer", sess["username"])
	assert.Equal(t, false, sess["privileged"])

	// Logout invalidates the session.
	req, _ := http.NewRequest(http.MethodPost, env.srv.URL+"/api/logout", nil)
	lresp, err := env.client.Do(req)
	require.NoError(t, err)
	lresp.Body.Close()

	resp = env.get(t, "/api/session")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGuestLogin(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.client.Post(env.srv.URL+"/api/login/guest", "application/json", nil)
	require.NoError(t, err)
	sess := decode[map[string]any](t, resp)
	assert.Equal(t, true, sess["guest"])
	assert.Equal(t, "general", sess["role"])

	// Guests reach the standard charts.
	cresp := env.get(t, "/api/charts/hourly-volume")
	defer cresp.Body.Close()
	assert.Equal(t, http.StatusOK, cresp.StatusCode)

	// But not the privileged analysis.
	presp := env.get(t, "/api/analysis/detailed")
	presp.Body.Close()
	assert.Equal(t, http.StatusForbidden, presp.StatusCode)
}

func TestChartEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "viewer", "12345").Body.Close()

	for _, path := range []string{
		"/api/incidents/summary",
		"/api/charts/hourly-categories",
		"/api/charts/hourly-volume",
		"/api/charts/hourly-ratio",
		"/api/charts/heatmap",
		"/api/charts/polar",
		"/api/charts/by-area",
	} {
		body := decode[map[string]any](t, env.get(t, path))
		assert.Equal(t, false, body["no_data"], "path %s", path)
		assert.Contains(t, body, "data", "path %s", path)
	}
}

func TestEmptySelectionIsNoData(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "viewer", "12345").Body.Close()

	resp := env.get(t, "/api/incidents/summary?area=XOCHIMILCO")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, true, body["no_data"])
}

func TestFailedDatasetIs503(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "viewer", "12345").Body.Close()

	// The full dataset path does not exist.
	resp := env.get(t, "/api/incidents/summary?dataset=full")
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDatasetsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "viewer", "12345").Body.Close()

	body := decode[map[string]any](t, env.get(t, "/api/datasets"))
	assert.EqualValues(t, 3, body["rows"])
	assert.Len(t, body["areas"], 3)
	assert.Len(t, body["categories"], 6)
}

func TestMapPoints(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "viewer", "12345").Body.Close()

	body := decode[map[string]any](t, env.get(t, "/api/map/points"))
	assert.Equal(t, false, body["no_data"])
	assert.Len(t, body["points"], 3)
	assert.InDelta(t, 19.36, body["center_lat"].(float64), 0.01)

	// Invalid sampling fraction is a client error.
	resp := env.get(t, "/api/map/points?sample=1.5")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChoropleth(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "viewer", "12345").Body.Close()

	body := decode[map[string]any](t, env.get(t, "/api/map/choropleth"))
	data := body["data"].([]any)
	require.Len(t, data, 1)
	region := data[0].(map[string]any)
	assert.Equal(t, "Ciudad", region["region"])
	assert.EqualValues(t, 3, region["total"])

	// Out-of-range hour is a client error.
	resp := env.get(t, "/api/map/choropleth?hour=24")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBoundariesPassthrough(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "viewer", "12345").Body.Close()

	resp := env.get(t, "/api/boundaries")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
}

func TestDetailedAnalysisPrivileged(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "analyst", "secreto").Body.Close()

	body := decode[map[string]any](t, env.get(t, "/api/analysis/detailed"))
	assert.Equal(t, false, body["no_data"])
	data := body["data"].(map[string]any)
	assert.Contains(t, data, "yearly_trends")
	assert.Contains(t, data, "summary")
}

func TestLoginThrottling(t *testing.T) {
	// The shared fixture allows a generous burst; build a server with a
	// strict limit instead.
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Data.ReducedPath = writeTempFile(t, dir, "i.csv", testCSV)
	cfg.Data.MinYear = 2016
	cfg.Auth.LoginRate = 0.01
	cfg.Auth.LoginBurst = 1
	cfg.Auth.AllowedOrigins = []string{"*"}

	creds, err := auth.ParseCredentials([]byte(testUsers))
	require.NoError(t, err)
	boundaries, err := boundary.Load(t.Context(), nil, boundary.Config{
		LocalPath:    writeTempFile(t, dir, "b.geojson", testBoundaries),
		NameProperty: "NOMGEO",
	})
	require.NoError(t, err)

	s := New(cfg, loader.NewManager("", nil), boundaries, creds)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	body := []byte(`{"username":"viewer","password":"wrong"}`)
	first, err := http.Post(ts.URL+"/api/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, first.StatusCode)

	second, err := http.Post(ts.URL+"/api/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}
