package nats

import (
	"github.com/nats-io/nats.go/micro"

	"github.com/flarexio/pointgate"
)

const (
	SubjectGetItem     = "get_item"
	SubjectSearch      = "search"
	SubjectGroupSearch = "group_search"
	SubjectSearchByIP  = "search_by_ip"
	SubjectListChats   = "list_chats"
	SubjectNextID      = "next_id"
)

func AddEndpoints(group micro.Group, endpoints pointgate.EndpointSet) {
	group.AddEndpoint(SubjectGetItem, GetItemHandler(endpoints.GetItem))
	group.AddEndpoint(SubjectSearch, RawHandler[pointgate.SearchRequest](endpoints.Search))
	group.AddEndpoint(SubjectGroupSearch, RawHandler[pointgate.GroupSearchRequest](endpoints.GroupSearch))
	group.AddEndpoint(SubjectSearchByIP, RawHandler[pointgate.IPSearchRequest](endpoints.SearchByIP))
	group.AddEndpoint(SubjectListChats, RawHandler[pointgate.PageRequest](endpoints.ListChats))
	group.AddEndpoint(SubjectNextID, NextIDHandler(endpoints.NextID))
}
