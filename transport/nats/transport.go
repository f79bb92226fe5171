package nats

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/pointgate"
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, pointgate.ErrNotFound):
		return "404"
	case errors.Is(err, pointgate.ErrUnauthorized):
		return "401"
	case errors.Is(err, pointgate.ErrInvalidRequest):
		return "400"
	default:
		return "500"
	}
}

func respondError(r micro.Request, err error) {
	r.Error(errorCode(err), err.Error(), nil)
}

func GetItemHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var query pointgate.ItemQuery
		if err := json.Unmarshal(r.Data(), &query); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, query)
		if err != nil {
			respondError(r, err)
			return
		}

		r.RespondJSON(resp)
	}
}

// RawHandler decodes the message into T and relays the endpoint's raw JSON
// result.
func RawHandler[T any](endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		var req T
		if err := json.Unmarshal(r.Data(), &req); err != nil {
			r.Error("400", err.Error(), nil)
			return
		}

		ctx := context.Background()
		resp, err := endpoint(ctx, req)
		if err != nil {
			respondError(r, err)
			return
		}

		raw, ok := resp.(json.RawMessage)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.Respond(raw)
	}
}

func NextIDHandler(endpoint endpoint.Endpoint) micro.HandlerFunc {
	return func(r micro.Request) {
		ctx := context.Background()
		resp, err := endpoint(ctx, nil)
		if err != nil {
			respondError(r, err)
			return
		}

		id, ok := resp.(int64)
		if !ok {
			r.Error("500", "invalid response type", nil)
			return
		}

		r.Respond([]byte(strconv.FormatInt(id, 10)))
	}
}
