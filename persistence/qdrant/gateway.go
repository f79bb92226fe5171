package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/flarexio/pointgate/secrets"
	"github.com/flarexio/pointgate/vector"
)

func NewGateway(store secrets.Store, client *http.Client) vector.Gateway {
	if client == nil {
		client = http.DefaultClient
	}

	return &gateway{
		secrets: store,
		client:  client,
	}
}

type gateway struct {
	secrets secrets.Store
	client  *http.Client
}

func (g *gateway) Get(ctx context.Context, path string, out any) error {
	return g.do(ctx, http.MethodGet, path, nil, out)
}

func (g *gateway) Put(ctx context.Context, path string, body any, out any) error {
	return g.do(ctx, http.MethodPut, path, body, out)
}

func (g *gateway) Post(ctx context.Context, path string, body any, out any) error {
	return g.do(ctx, http.MethodPost, path, body, out)
}

// Endpoint joins the configured base URL and a relative path.
func (g *gateway) Endpoint(path string) (string, error) {
	base, err := g.secrets.Get(secrets.QdrantURL)
	if err != nil {
		return "", err
	}

	return JoinURL(base, path), nil
}

func JoinURL(base string, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func (g *gateway) do(ctx context.Context, method string, path string, body any, out any) error {
	url, err := g.Endpoint(path)
	if err != nil {
		return err
	}

	key, err := g.secrets.Get(secrets.QdrantKey)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return err
		}

		reader = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", vector.ErrTransport, err)
	}

	req.Header.Set("api-key", key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", vector.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %s %s: status %d: %s",
			vector.ErrTransport, method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", vector.ErrDecode, method, path, err)
	}

	return nil
}
