package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token%d","token_type":"bearer","expires_in":3600}`, n)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetTokenIsCached(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls)
	client := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})

	token, err := client.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token1", token)

	token, err = client.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token1", token)
	assert.Equal(t, int32(1), calls.Load())

	token, err = client.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token2", token)
}

func TestSetAuthHeader(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls)
	client := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})

	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, client.SetAuthHeader(req))
	assert.Equal(t, "Bearer token1", req.Header.Get("Authorization"))
}

func TestGetTokenError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer srv.Close()
	client := NewClientCred(Conf{ClientID: "id", TokenURL: srv.URL})
	_, err := client.GetToken(context.Background())
	assert.ErrorContains(t, err, "failed to get token")
}

func TestEnabled(t *testing.T) {
	assert.False(t, Conf{}.Enabled())
	assert.False(t, Conf{ClientID: "id"}.Enabled())
	assert.True(t, Conf{ClientID: "id", TokenURL: "http://x"}.Enabled())
}
