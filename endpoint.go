package pointgate

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"

	"github.com/flarexio/pointgate/vector"
)

type EndpointSet struct {
	GetItem          endpoint.Endpoint
	CreateItem       endpoint.Endpoint
	SetItem          endpoint.Endpoint
	DeleteItem       endpoint.Endpoint
	AddMessages      endpoint.Endpoint
	Search           endpoint.Endpoint
	GroupSearch      endpoint.Endpoint
	SearchByIP       endpoint.Endpoint
	ListChats        endpoint.Endpoint
	ListChatsFrom    endpoint.Endpoint
	ListMessages     endpoint.Endpoint
	ListMessagesFrom endpoint.Endpoint
	NextID           endpoint.Endpoint
}

func MakeEndpoints(svc Service) EndpointSet {
	return EndpointSet{
		GetItem:          GetItemEndpoint(svc),
		CreateItem:       CreateItemEndpoint(svc),
		SetItem:          SetItemEndpoint(svc),
		DeleteItem:       DeleteItemEndpoint(svc),
		AddMessages:      AddMessagesEndpoint(svc),
		Search:           SearchEndpoint(svc),
		GroupSearch:      GroupSearchEndpoint(svc),
		SearchByIP:       SearchByIPEndpoint(svc),
		ListChats:        ListChatsEndpoint(svc),
		ListChatsFrom:    ListChatsFromEndpoint(svc),
		ListMessages:     ListMessagesEndpoint(svc),
		ListMessagesFrom: ListMessagesFromEndpoint(svc),
		NextID:           NextIDEndpoint(svc),
	}
}

var errInvalidRequestType = errors.New("invalid request type")

func GetItemEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(ItemQuery)
		if !ok {
			return nil, errInvalidRequestType
		}

		return svc.GetItem(ctx, req)
	}
}

func CreateItemEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		payload, ok := request.(vector.Payload)
		if !ok {
			return nil, errInvalidRequestType
		}

		return svc.CreateItem(ctx, payload)
	}
}

func SetItemEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(SetRequest)
		if !ok {
			return nil, errInvalidRequestType
		}

		return svc.SetItem(ctx, req)
	}
}

func DeleteItemEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(ItemQuery)
		if !ok {
			return nil, errInvalidRequestType
		}

		err := svc.DeleteItem(ctx, req)
		return nil, err
	}
}

func AddMessagesEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(AddRequest)
		if !ok {
			return nil, errInvalidRequestType
		}

		return svc.AddMessages(ctx, req)
	}
}

func SearchEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(SearchRequest)
		if !ok {
			return nil, errInvalidRequestType
		}

		return svc.Search(ctx, req)
	}
}

func GroupSearchEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(GroupSearchRequest)
		if !ok {
			return nil, errInvalidRequestType
		}

		return svc.GroupSearch(ctx, req)
	}
}

func SearchByIPEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(IPSearchRequest)
		if !ok {
			return nil, errInvalidRequestType
		}

		return svc.SearchByIP(ctx, req)
	}
}

// PageRequest addresses either a numbered page or a d cursor, optionally
// inside one conversation.
type PageRequest struct {
	Thread string `json:"i,omitempty"`
	Page   int    `json:"page,omitempty"`
	From   string `json:"from,omitempty"`
}

func ListChatsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(PageRequest)
		if !ok {
			return nil, errInvalidRequestType
		}

		return svc.ListChats(ctx, req.Page)
	}
}

func ListChatsFromEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(PageRequest)
		if !ok {
			return nil, errInvalidRequestType
		}

		return svc.ListChatsFrom(ctx, req.From)
	}
}

func ListMessagesEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(PageRequest)
		if !ok {
			return nil, errInvalidRequestType
		}

		return svc.ListMessages(ctx, req.Thread, req.Page)
	}
}

func ListMessagesFromEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(PageRequest)
		if !ok {
			return nil, errInvalidRequestType
		}

		return svc.ListMessagesFrom(ctx, req.Thread, req.From)
	}
}

func NextIDEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return svc.NextID(ctx)
	}
}
