package pointgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/flarexio/pointgate/vector"
)

var ErrNegativeSequence = errors.New("negative sequence counter")

// Sequence mints ids from the sc counter stored on a single well-known point.
//
// Next is a plain read-modify-write against the vector database: two callers
// racing between the read and the write can be handed the same value.
type Sequence struct {
	gateway    vector.Gateway
	collection string
	counter    vector.PointID
}

func NewSequence(gateway vector.Gateway, cfg vector.Config) *Sequence {
	return &Sequence{
		gateway:    gateway,
		collection: cfg.Collection,
		counter:    vector.ParsePointID(cfg.CounterPointID),
	}
}

// Next returns the current counter value and stores its successor.
func (s *Sequence) Next(ctx context.Context) (int64, error) {
	current, err := s.current(ctx)
	if err != nil {
		return 0, err
	}

	// ids double as numeric point ids, which are unsigned
	if current < 0 {
		return 0, fmt.Errorf("%w: sc=%d", ErrNegativeSequence, current)
	}

	req := vector.SetPayloadRequest{
		Payload: vector.Payload{"sc": current + 1},
		Points:  []vector.PointID{s.counter},
	}

	path := pointsPath(s.collection, "payload?wait=true")
	if err := s.gateway.Post(ctx, path, req, nil); err != nil {
		return 0, err
	}

	return current, nil
}

func (s *Sequence) current(ctx context.Context) (int64, error) {
	req := vector.RetrievePointsRequest{
		IDs:         []vector.PointID{s.counter},
		WithPayload: []string{"sc"},
	}

	var resp vector.Response
	if err := s.gateway.Post(ctx, pointsPath(s.collection), req, &resp); err != nil {
		return 0, err
	}

	if len(resp.Result) == 0 {
		return 0, nil
	}

	return asInt64(resp.Result[0].Payload["sc"]), nil
}

// asInt64 accepts only integral JSON numbers, everything else counts as 0.
func asInt64(v any) int64 {
	f, ok := v.(float64)
	if !ok || f != float64(int64(f)) {
		return 0
	}

	return int64(f)
}
