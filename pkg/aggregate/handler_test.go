package aggregate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sternrassler/pokegrid/internal/testutil"
	"github.com/Sternrassler/pokegrid/pkg/pokeapi"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockHandler(t *testing.T, mock *testutil.MockPokeAPI) *Handler {
	t.Helper()

	cfg := pokeapi.DefaultConfig()
	cfg.BaseURL = mock.BaseURL()
	cfg.Timeout = 5 * time.Second
	client, err := pokeapi.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewHandler(NewAggregator(client), HandlerConfig{CacheMaxAge: time.Hour})
}

func TestHandler_Success(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetPokemon(testutil.Named("bulbasaur", "ivysaur", "venusaur")...)
	mock.SetPageSize(2)

	h := newMockHandler(t, mock)

	req := httptest.NewRequest(http.MethodGet, Route+"?offset=1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600", resp.Header.Get("Cache-Control"))

	var cards []Card
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cards))
	want := []Card{
		{Name: "ivysaur", ImageURL: testutil.SpriteURL(2)},
		{Name: "venusaur", ImageURL: testutil.SpriteURL(3)},
	}
	if diff := cmp.Diff(want, cards); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_WireFormat(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetPokemon(testutil.Named("bulbasaur")...)

	h := newMockHandler(t, mock)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, Route, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"bulbasaur","imgUrl":"`+testutil.SpriteURL(1)+`"}]`, w.Body.String())
	assert.Equal(t, []string{testutil.ListingPath(), testutil.DetailPath(1)}, mock.Paths())
}

func TestHandler_EmptyPage(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetPokemon(testutil.Named("bulbasaur")...)

	h := newMockHandler(t, mock)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, Route+"?offset=20", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHandler_UpstreamFailure(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()
	mock.SetPokemon(testutil.Named("bulbasaur", "ivysaur")...)
	mock.SetResponse(testutil.DetailPath(2), testutil.MockResponse{StatusCode: http.StatusOK, Body: "not json"})

	h := newMockHandler(t, mock)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, Route+"?offset=0", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get("Cache-Control"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "decode")

	// No partial array sneaks into the body.
	var asArray []Card
	assert.Error(t, json.Unmarshal(w.Body.Bytes(), &asArray))
}

func TestHandler_InvalidOffset(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()

	h := newMockHandler(t, mock)

	for _, q := range []string{"?offset=-1", "?offset=abc", "?offset=1.5"} {
		t.Run(q, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, Route+q, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body.Error, "offset")
		})
	}
	assert.Zero(t, mock.RequestCount(), "invalid input must not reach upstream")
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	mock := testutil.NewMockPokeAPI()
	defer mock.Close()

	h := newMockHandler(t, mock)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, Route, nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"", ""},
		{"offset=0", "0"},
		{"offset=20", "20"},
		{"offset=007", "7"},
		{"other=1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, Route+"?"+tt.query, nil)
			got, err := parseOffset(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
