package pointgate

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-kit/kit/endpoint"

	"github.com/flarexio/pointgate/vector"
)

var (
	ErrMethodNotImplemented = errors.New("method not implemented")
	ErrInvalidResponseType  = errors.New("invalid response type")
)

// ProxyMiddleware serves Service calls through remote endpoints. Methods
// whose endpoint is nil fail with ErrMethodNotImplemented.
func ProxyMiddleware(endpoints *EndpointSet) ServiceMiddleware {
	return func(next Service) Service {
		return &proxyMiddleware{
			endpoints: endpoints,
		}
	}
}

type proxyMiddleware struct {
	endpoints *EndpointSet
}

func call(ctx context.Context, e endpoint.Endpoint, request any) (any, error) {
	if e == nil {
		return nil, ErrMethodNotImplemented
	}

	return e(ctx, request)
}

func rawResponse(resp any, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, err
	}

	raw, ok := resp.(json.RawMessage)
	if !ok {
		return nil, ErrInvalidResponseType
	}

	return raw, nil
}

func stringResponse(resp any, err error) (string, error) {
	if err != nil {
		return "", err
	}

	s, ok := resp.(string)
	if !ok {
		return "", ErrInvalidResponseType
	}

	return s, nil
}

func (mw *proxyMiddleware) GetItem(ctx context.Context, query ItemQuery) (any, error) {
	return call(ctx, mw.endpoints.GetItem, query)
}

func (mw *proxyMiddleware) CreateItem(ctx context.Context, payload vector.Payload) (string, error) {
	return stringResponse(call(ctx, mw.endpoints.CreateItem, payload))
}

func (mw *proxyMiddleware) SetItem(ctx context.Context, req SetRequest) (SetResult, error) {
	result, err := stringResponse(call(ctx, mw.endpoints.SetItem, req))
	return SetResult(result), err
}

func (mw *proxyMiddleware) DeleteItem(ctx context.Context, query ItemQuery) error {
	_, err := call(ctx, mw.endpoints.DeleteItem, query)
	return err
}

func (mw *proxyMiddleware) AddMessages(ctx context.Context, req AddRequest) (string, error) {
	return stringResponse(call(ctx, mw.endpoints.AddMessages, req))
}

func (mw *proxyMiddleware) Search(ctx context.Context, req SearchRequest) (json.RawMessage, error) {
	return rawResponse(call(ctx, mw.endpoints.Search, req))
}

func (mw *proxyMiddleware) GroupSearch(ctx context.Context, req GroupSearchRequest) (json.RawMessage, error) {
	return rawResponse(call(ctx, mw.endpoints.GroupSearch, req))
}

func (mw *proxyMiddleware) SearchByIP(ctx context.Context, req IPSearchRequest) (json.RawMessage, error) {
	return rawResponse(call(ctx, mw.endpoints.SearchByIP, req))
}

func (mw *proxyMiddleware) ListChats(ctx context.Context, page int) (json.RawMessage, error) {
	return rawResponse(call(ctx, mw.endpoints.ListChats, PageRequest{Page: page}))
}

func (mw *proxyMiddleware) ListChatsFrom(ctx context.Context, from string) (json.RawMessage, error) {
	return rawResponse(call(ctx, mw.endpoints.ListChatsFrom, PageRequest{From: from}))
}

func (mw *proxyMiddleware) ListMessages(ctx context.Context, thread string, page int) (json.RawMessage, error) {
	req := PageRequest{Thread: thread, Page: page}
	return rawResponse(call(ctx, mw.endpoints.ListMessages, req))
}

func (mw *proxyMiddleware) ListMessagesFrom(ctx context.Context, thread string, from string) (json.RawMessage, error) {
	req := PageRequest{Thread: thread, From: from}
	return rawResponse(call(ctx, mw.endpoints.ListMessagesFrom, req))
}

func (mw *proxyMiddleware) NextID(ctx context.Context) (int64, error) {
	resp, err := call(ctx, mw.endpoints.NextID, nil)
	if err != nil {
		return 0, err
	}

	id, ok := resp.(int64)
	if !ok {
		return 0, ErrInvalidResponseType
	}

	return id, nil
}
