package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/index"
)

func newTestServer(t *testing.T, logs *bytes.Buffer) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	stops := geo.NewPointSet(geo.WGS84,
		geo.Point{Lat: 59.9139, Lon: 10.7522},
		geo.Point{Lat: 60.3913, Lon: 5.3221},
		geo.Point{Lat: 63.4305, Lon: 10.3951},
		geo.Point{Lat: 58.9700, Lon: 5.7331},
	)
	for i, id := range []string{"oslo", "bergen", "trondheim", "stavanger"} {
		stops.Records[i].ID = id
	}
	idx, err := index.Build(index.VPTree, stops, index.Options{})
	require.NoError(t, err)
	srv, err := New(idx, Options{MaxK: 3, MaxBatch: 2, Logger: zerolog.New(logs)})
	require.NoError(t, err)
	return srv.Handler()
}

func do(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	var logs bytes.Buffer
	handler := newTestServer(t, &logs)
	rec := do(handler, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","stops":4}`, rec.Body.String())
	assert.Contains(t, logs.String(), `"path":"/healthz"`)
	assert.Contains(t, logs.String(), `"status":200`)
}

func TestServer_Nearest(t *testing.T) {
	handler := newTestServer(t, &bytes.Buffer{})
	rec := do(handler, http.MethodGet, "/v1/nearest?lat=60&lon=10&k=2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stops []Stop
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stops))
	require.Len(t, stops, 2)
	assert.Equal(t, "oslo", stops[0].ID)
	assert.Equal(t, 0, stops[0].Rank)
	assert.Equal(t, "bergen", stops[1].ID)
	assert.Equal(t, 1, stops[1].Position)
	assert.InDelta(t, geo.Haversine(geo.Point{Lat: 60, Lon: 10}, geo.Point{Lat: 60.3913, Lon: 5.3221}), stops[1].Distance, 1e-6)

	rec = do(handler, http.MethodGet, "/v1/nearest?lat=63.4&lon=10.4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stops))
	require.Len(t, stops, 1)
	assert.Equal(t, "trondheim", stops[0].ID)
}

func TestServer_NearestErrors(t *testing.T) {
	handler := newTestServer(t, &bytes.Buffer{})
	var testCases = []struct {
		description string
		target      string
	}{
		{description: "missing lat", target: "/v1/nearest?lon=10"},
		{description: "bad lon", target: "/v1/nearest?lat=1&lon=east"},
		{description: "latitude out of range", target: "/v1/nearest?lat=91&lon=0"},
		{description: "k zero", target: "/v1/nearest?lat=1&lon=1&k=0"},
		{description: "k above candidates", target: "/v1/nearest?lat=1&lon=1&k=5"},
		{description: "k above limit", target: "/v1/nearest?lat=1&lon=1&k=4"},
		{description: "k not a number", target: "/v1/nearest?lat=1&lon=1&k=two"},
		{description: "negative radius", target: "/v1/within?lat=1&lon=1&radius=-5"},
		{description: "missing radius", target: "/v1/within?lat=1&lon=1"},
	}
	for _, testCase := range testCases {
		rec := do(handler, http.MethodGet, testCase.target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, testCase.description)
		assert.Contains(t, rec.Body.String(), `"error"`, testCase.description)
	}
}

func TestServer_NearestBatch(t *testing.T) {
	handler := newTestServer(t, &bytes.Buffer{})
	rec := do(handler, http.MethodPost, "/v1/nearest", `{"k":2,"points":[{"lat":59,"lon":5.8},{"lat":63,"lon":10}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "stavanger", resp.Results[0][0].ID)
	assert.Equal(t, "bergen", resp.Results[0][1].ID)
	assert.Equal(t, "trondheim", resp.Results[1][0].ID)
	assert.Equal(t, 1, resp.Results[1][1].Rank)

	rec = do(handler, http.MethodPost, "/v1/nearest", `{"points":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
}

func TestServer_NearestBatchErrors(t *testing.T) {
	handler := newTestServer(t, &bytes.Buffer{})
	var testCases = []struct {
		description string
		body        string
		position    bool
	}{
		{description: "malformed json", body: `{"points":`},
		{description: "missing lon", body: `{"points":[{"lat":1,"lon":1},{"lat":1}]}`, position: true},
		{description: "out of range", body: `{"points":[{"lat":1,"lon":181}]}`, position: true},
		{description: "missing both", body: `{"points":[{}]}`, position: true},
		{description: "k above limit", body: `{"k":4,"points":[{"lat":1,"lon":1}]}`},
		{description: "negative k", body: `{"k":-1,"points":[{"lat":1,"lon":1}]}`},
		{description: "batch too large", body: `{"points":[{"lat":1,"lon":1},{"lat":1,"lon":1},{"lat":1,"lon":1}]}`},
	}
	for _, testCase := range testCases {
		rec := do(handler, http.MethodPost, "/v1/nearest", testCase.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, testCase.description)
		if testCase.position {
			assert.Contains(t, rec.Body.String(), `"position"`, testCase.description)
		}
	}
}

func TestServer_Within(t *testing.T) {
	handler := newTestServer(t, &bytes.Buffer{})
	rec := do(handler, http.MethodGet, "/v1/within?lat=60&lon=10&radius=264000", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stops []Stop
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stops))
	require.Len(t, stops, 2)
	assert.Equal(t, "oslo", stops[0].ID)
	assert.Equal(t, "bergen", stops[1].ID)

	rec = do(handler, http.MethodGet, "/v1/within?lat=0&lon=0&radius=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)
}
