package dataset

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Authorizer adds credentials to outgoing requests. *auth.ClientCred
// implements it.
type Authorizer interface {
	SetAuthHeader(r *http.Request) error
}

type refresher interface {
	ForceRefresh(ctx context.Context) (string, error)
}

// Fetch downloads a dataset from rawURL. The format is taken from the
// response content type, then from the URL extension, and defaults to JSON.
// authz may be nil for public endpoints. When authz can refresh its token a
// 401 response is retried once with a fresh token.
func Fetch(ctx context.Context, client *http.Client, rawURL string, authz Authorizer) (*Dataset, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := get(ctx, client, rawURL, authz)
	if err != nil {
		return nil, err
	}
	if r, ok := authz.(refresher); ok && resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		if _, err := r.ForceRefresh(ctx); err != nil {
			return nil, fmt.Errorf("dataset auth: %w", err)
		}
		if resp, err = get(ctx, client, rawURL, authz); err != nil {
			return nil, err
		}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch dataset: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	ds, err := Decode(resp.Body, formatOf(resp.Header.Get("Content-Type"), rawURL))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rawURL, err)
	}
	return ds, nil
}

func get(ctx context.Context, client *http.Client, rawURL string, authz Authorizer) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dataset request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml")
	if authz != nil {
		if err := authz.SetAuthHeader(req); err != nil {
			return nil, fmt.Errorf("dataset auth: %w", err)
		}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	return resp, nil
}

func formatOf(contentType, rawURL string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case strings.Contains(mt, "yaml"):
			return "yaml"
		case strings.Contains(mt, "json"):
			return "json"
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".yaml", ".yml":
			return "yaml"
		}
	}
	return "json"
}
