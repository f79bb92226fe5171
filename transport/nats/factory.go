package nats

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/pointgate"
)

// MakeEndpoints builds client endpoints that reach a pointgate service
// registered under prefix. Operations not served over NATS stay nil.
func MakeEndpoints(nc *nats.Conn, prefix string) *pointgate.EndpointSet {
	return &pointgate.EndpointSet{
		GetItem:     GetItemEndpoint(nc, prefix+"."+SubjectGetItem),
		Search:      RawEndpoint[pointgate.SearchRequest](nc, prefix+"."+SubjectSearch),
		GroupSearch: RawEndpoint[pointgate.GroupSearchRequest](nc, prefix+"."+SubjectGroupSearch),
		SearchByIP:  RawEndpoint[pointgate.IPSearchRequest](nc, prefix+"."+SubjectSearchByIP),
		ListChats:   RawEndpoint[pointgate.PageRequest](nc, prefix+"."+SubjectListChats),
		NextID:      NextIDEndpoint(nc, prefix+"."+SubjectNextID),
	}
}

func doRequest(ctx context.Context, nc *nats.Conn, topic string, data []byte) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, nats.DefaultTimeout)
		defer cancel()
	}

	msg, err := nc.RequestWithContext(ctx, topic, data)
	if err != nil {
		return nil, err
	}

	if err := Error(msg); err != nil {
		return nil, err
	}

	return msg.Data, nil
}

func GetItemEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		query, ok := request.(pointgate.ItemQuery)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&query)
		if err != nil {
			return nil, err
		}

		resp, err := doRequest(ctx, nc, topic, data)
		if err != nil {
			return nil, err
		}

		var item any
		if err := json.Unmarshal(resp, &item); err != nil {
			return nil, err
		}

		return item, nil
	}
}

func RawEndpoint[T any](nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(T)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := doRequest(ctx, nc, topic, data)
		if err != nil {
			return nil, err
		}

		return json.RawMessage(resp), nil
	}
}

func NextIDEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		resp, err := doRequest(ctx, nc, topic, nil)
		if err != nil {
			return nil, err
		}

		return strconv.ParseInt(string(resp), 10, 64)
	}
}

// Error maps a micro error reply back onto the service's sentinel errors.
func Error(msg *nats.Msg) error {
	if msg == nil {
		return errors.New("nil message")
	}

	code := msg.Header.Get(micro.ErrorCodeHeader)
	if code == "" {
		return nil
	}

	description := msg.Header.Get(micro.ErrorHeader)
	if description == "" {
		description = "unknown error"
	}

	switch code {
	case "404":
		return pointgate.ErrNotFound
	case "401":
		return pointgate.ErrUnauthorized
	case "400":
		return errors.Join(pointgate.ErrInvalidRequest, errors.New(description))
	default:
		return errors.New(code + ":" + description)
	}
}
