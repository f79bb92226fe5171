package vector

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrTransport = errors.New("vector database request failed")
	ErrDecode    = errors.New("vector database response malformed")
)

type Config struct {
	Collection     string `yaml:"collection"`
	CounterPointID string `yaml:"counterPointID"`
}

// Gateway issues authenticated requests against the vector database.
// Paths are relative to the configured base URL; every call is exactly one
// HTTP round trip and the response body is decoded into out when out is
// not nil.
type Gateway interface {
	Get(ctx context.Context, path string, out any) error
	Put(ctx context.Context, path string, body any, out any) error
	Post(ctx context.Context, path string, body any, out any) error
}

type Payload map[string]any

type Response struct {
	Time   *float64      `json:"time,omitempty"`
	Status *string       `json:"status,omitempty"`
	Result []PointResult `json:"result"`
}

type PointResult struct {
	ID       *PointID        `json:"id,omitempty"`
	Version  int64           `json:"version"`
	Score    float32         `json:"score"`
	Payload  Payload         `json:"payload,omitempty"`
	Vector   json.RawMessage `json:"vector,omitempty"`
	ShardKey json.RawMessage `json:"shard_key,omitempty"`
}

// RawResponse keeps the result untouched for relaying to callers.
type RawResponse struct {
	Time   *float64        `json:"time,omitempty"`
	Status json.RawMessage `json:"status,omitempty"`
	Result json.RawMessage `json:"result"`
}

type Point struct {
	ID      PointID   `json:"id"`
	Payload Payload   `json:"payload"`
	Vector  []float32 `json:"vector"`
}
