package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/flarexio/pointgate/secrets"
)

var (
	ErrTransport = errors.New("embedding request failed")
	ErrDecode    = errors.New("embedding response malformed")
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type request struct {
	Input string `json:"input"`
}

type response struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// NewHTTPEmbedder calls the endpoint stored under EMBEDDING_URL.
// The URL is resolved on every call so a missing secret fails the request,
// not the process.
func NewHTTPEmbedder(store secrets.Store, client *http.Client) Embedder {
	if client == nil {
		client = http.DefaultClient
	}

	return &httpEmbedder{
		secrets: store,
		client:  client,
	}
}

type httpEmbedder struct {
	secrets secrets.Store
	client  *http.Client
}

func (e *httpEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	url, err := e.secrets.Get(secrets.EmbeddingURL)
	if err != nil {
		return nil, err
	}

	bs, err := json.Marshal(request{Input: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if len(result.Data) == 0 || len(result.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embedding in response", ErrDecode)
	}

	return result.Data[0].Embedding, nil
}
