package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/itohio/noisey/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostJSON(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/device", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Noisey ab12", r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"shortID":"ab12cd"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "Noisey", time.Second)
	c.SetUserAgent("Noisey ab12")

	var out struct {
		ShortID string `json:"shortID"`
	}
	code, err := c.PostJSON(context.Background(), "/api/device", map[string]string{"id": "aa:bb"}, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ab12cd", out.ShortID)
	assert.Equal(t, map[string]string{"id": "aa:bb"}, got)
}

func TestClient_PostJSON_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "Noisey", time.Second)
	code, err := c.PostJSON(context.Background(), "/api/data/", struct{}{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
	assert.Equal(t, http.StatusForbidden, code)
}

func TestClient_PostJSON_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "Noisey", time.Second)
	code, err := c.PostJSON(context.Background(), "/api/data/", struct{}{}, nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrStatus))
	assert.Equal(t, 0, code)
}

func TestClient_PostJSON_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "Noisey", time.Second)
	var out map[string]any
	code, err := c.PostJSON(context.Background(), "/x", struct{}{}, &out)
	require.Error(t, err)
	assert.Equal(t, http.StatusOK, code)
}

func TestHTTPSender_Send(t *testing.T) {
	var got []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/data/", r.URL.Path)
		var m map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		got = append(got, m)
	}))
	defer srv.Close()

	s := NewHTTPSender(NewClient(srv.URL, "Noisey ab12", time.Second), "/api/data/")
	err := s.Send(context.Background(), telemetry.Message{
		ID:         "ab12",
		Interval:   1920,
		NbElements: 3,
		First:      true,
		Noise:      []int16{5, -2, 7},
	})
	require.NoError(t, err)

	err = s.Send(context.Background(), telemetry.Message{ID: "ab12", Noise: []int16{}})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "ab12", got[0]["id"])
	assert.Equal(t, float64(1920), got[0]["interval"])
	assert.Equal(t, float64(3), got[0]["nbElements"])
	assert.Equal(t, true, got[0]["first"])
	assert.Equal(t, []any{float64(5), float64(-2), float64(7)}, got[0]["noise"])
	assert.Equal(t, []any{}, got[1]["noise"])
}
