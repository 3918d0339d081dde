package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAuth struct {
	token string
	err   error
}

func (a staticAuth) SetAuthHeader(r *http.Request) error {
	if a.err != nil {
		return a.err
	}
	r.Header.Set("Authorization", "Bearer "+a.token)
	return nil
}

func TestFetchJSON(t *testing.T) {
	demo := Demo(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(demo)
	}))
	defer srv.Close()

	ds, err := Fetch(context.Background(), srv.Client(), srv.URL+"/fleet", staticAuth{token: "tok"})
	require.NoError(t, err)
	assert.Len(t, ds.Rakes, 8)
	assert.Len(t, ds.Routes, 6)

	_, err = Fetch(context.Background(), srv.Client(), srv.URL+"/fleet", nil)
	assert.ErrorContains(t, err, "401")
}

type rotatingAuth struct {
	token     string
	refreshes int
}

func (a *rotatingAuth) SetAuthHeader(r *http.Request) error {
	r.Header.Set("Authorization", "Bearer "+a.token)
	return nil
}

func (a *rotatingAuth) ForceRefresh(context.Context) (string, error) {
	a.refreshes++
	a.token = "fresh"
	return a.token, nil
}

func TestFetchRefreshesOnUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			http.Error(w, "expired", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(fleetYAML))
	}))
	defer srv.Close()

	authz := &rotatingAuth{token: "stale"}
	ds, err := Fetch(context.Background(), srv.Client(), srv.URL+"/fleet", authz)
	require.NoError(t, err)
	assert.Equal(t, 1, authz.refreshes)
	assert.Len(t, ds.Rakes, 1)
}

func TestFetchYAMLByExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(fleetYAML))
	}))
	defer srv.Close()

	ds, err := Fetch(context.Background(), nil, srv.URL+"/fleet.yaml", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, ds.Routes)
}

func TestFetchAuthError(t *testing.T) {
	_, err := Fetch(context.Background(), nil, "http://127.0.0.1:1/fleet", staticAuth{err: errors.New("no token")})
	assert.ErrorContains(t, err, "dataset auth")
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, "yaml", formatOf("application/yaml", "http://x/fleet"))
	assert.Equal(t, "json", formatOf("application/json", "http://x/fleet.yaml"))
	assert.Equal(t, "yaml", formatOf("", "http://x/fleet.yml?v=1"))
	assert.Equal(t, "json", formatOf("", "http://x/fleet"))
}
