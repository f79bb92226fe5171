// Package qdranttest provides an in-memory stand-in for the vector database
// and the embedding service for use in tests.
package qdranttest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/flarexio/pointgate/secrets"
)

const APIKey = "test-key"

type Request struct {
	Method string
	Path   string
	Query  string
	APIKey string
	Body   map[string]any
}

// Server answers the subset of the REST API pointgate uses. Searches and
// scrolls return every stored point; the interesting part for tests is the
// recorded request body.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	points   map[string]map[string]any
	order    []string
	requests []Request
}

func NewServer() *Server {
	s := &Server{
		points: make(map[string]map[string]any),
	}

	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *Server) Secrets() secrets.Store {
	return secrets.New(map[string]string{
		secrets.QdrantURL: s.URL,
		secrets.QdrantKey: APIKey,
	})
}

// Seed stores a payload under id as if it had been upserted.
func (s *Server) Seed(id string, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store(id, payload)
}

func (s *Server) Payload(id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, ok := s.points[id]
	return payload, ok
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests := make([]Request, len(s.requests))
	copy(requests, s.requests)
	return requests
}

// Last returns the most recent request whose path ends with suffix.
func (s *Server) Last(suffix string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.requests) - 1; i >= 0; i-- {
		if strings.HasSuffix(s.requests[i].Path, suffix) {
			return s.requests[i], true
		}
	}

	return Request{}, false
}

func (s *Server) store(id string, payload map[string]any) {
	if _, ok := s.points[id]; !ok {
		s.order = append(s.order, id)
	}

	s.points[id] = payload
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if r.Body != nil {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		dec.Decode(&body)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		APIKey: r.Header.Get("api-key"),
		Body:   body,
	})

	if r.Header.Get("api-key") != APIKey {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 || parts[0] != "collections" || parts[2] != "points" {
		http.NotFound(w, r)
		return
	}

	action := strings.Join(parts[3:], "/")

	var result any
	switch {
	case action == "" && r.Method == http.MethodPost:
		result = s.retrieve(body)

	case action == "" && r.Method == http.MethodPut:
		for _, p := range list(body["points"]) {
			point, _ := p.(map[string]any)
			payload, _ := point["payload"].(map[string]any)
			s.store(key(point["id"]), payload)
		}
		result = map[string]any{"operation_id": 1, "status": "completed"}

	case action == "payload":
		payload, _ := body["payload"].(map[string]any)
		for _, id := range list(body["points"]) {
			existing := s.points[key(id)]
			if existing == nil {
				existing = make(map[string]any)
			}

			for k, v := range payload {
				existing[k] = v
			}

			s.store(key(id), existing)
		}
		result = map[string]any{"operation_id": 2, "status": "completed"}

	case action == "delete":
		for _, id := range list(body["points"]) {
			delete(s.points, key(id))
		}
		result = map[string]any{"operation_id": 3, "status": "completed"}

	case action == "search":
		result = s.all(true)

	case action == "search/groups", action == "query/groups":
		groups := make([]any, 0)
		for _, hit := range s.all(true) {
			groups = append(groups, map[string]any{"hits": []any{hit}})
		}
		result = map[string]any{"groups": groups}

	case action == "scroll":
		result = map[string]any{"points": s.all(false), "next_page_offset": nil}

	default:
		http.NotFound(w, r)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"time":   0.001,
		"status": "ok",
		"result": result,
	})
}

func (s *Server) retrieve(body map[string]any) []any {
	results := make([]any, 0)
	for _, id := range list(body["ids"]) {
		payload, ok := s.points[key(id)]
		if !ok {
			continue
		}

		if fields, ok := body["with_payload"].([]any); ok {
			selected := make(map[string]any)
			for _, f := range fields {
				name := fmt.Sprint(f)
				if v, ok := payload[name]; ok {
					selected[name] = v
				}
			}
			payload = selected
		}

		results = append(results, map[string]any{
			"id":      id,
			"version": 0,
			"payload": payload,
		})
	}

	return results
}

func (s *Server) all(scored bool) []any {
	results := make([]any, 0)
	for _, id := range s.order {
		payload, ok := s.points[id]
		if !ok {
			continue
		}

		hit := map[string]any{
			"id":      id,
			"version": 0,
			"payload": payload,
		}

		if scored {
			hit["score"] = 0.9
		}

		results = append(results, hit)
	}

	return results
}

func list(v any) []any {
	items, _ := v.([]any)
	return items
}

func key(id any) string {
	return fmt.Sprint(id)
}

// Embedder returns a one-dimensional vector holding the text length and
// remembers every text it was asked to embed.
type Embedder struct {
	mu    sync.Mutex
	Texts []string
	Err   error
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}

	e.Texts = append(e.Texts, text)
	return []float32{float32(len(text))}, nil
}

// Marshal is a test shortcut for building JSON request bodies.
func Marshal(v any) *bytes.Reader {
	bs, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return bytes.NewReader(bs)
}
