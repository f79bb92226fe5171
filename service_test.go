package pointgate

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/flarexio/pointgate/internal/qdranttest"
	"github.com/flarexio/pointgate/persistence/qdrant"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

type serviceTestSuite struct {
	suite.Suite
	db       *qdranttest.Server
	embedder *qdranttest.Embedder
	svc      Service
}

func (suite *serviceTestSuite) SetupTest() {
	suite.db = qdranttest.NewServer()
	suite.embedder = &qdranttest.Embedder{}

	cfg := DefaultConfig()
	cfg.PrivateCategories = []string{"secret"}

	gateway := qdrant.NewGateway(suite.db.Secrets(), suite.db.Client())
	suite.svc = NewService(cfg, gateway, suite.embedder)
}

func (suite *serviceTestSuite) TearDownTest() {
	suite.db.Close()
}

func (suite *serviceTestSuite) TestCreateThenGet() {
	ctx := context.WithValue(context.Background(), ClientIP, "1.2.3.4")

	id, err := suite.svc.CreateItem(ctx, map[string]any{"text": "hello"})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Regexp(uuidPattern, id)
	suite.Equal([]string{`{"a":"1.2.3.4","text":"hello"}`}, suite.embedder.Texts)

	item, err := suite.svc.GetItem(context.Background(), ItemQuery{User: "bob", ID: id, Category: "m"})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	bs, _ := json.Marshal(item)
	suite.JSONEq(`{"text":"hello","a":"1.2.3.4"}`, string(bs))
}

func (suite *serviceTestSuite) TestCreateUniqueIDs() {
	ctx := context.Background()

	seen := make(map[string]bool)
	for range 5 {
		id, err := suite.svc.CreateItem(ctx, map[string]any{"v": "x"})
		suite.NoError(err)
		suite.False(seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func (suite *serviceTestSuite) TestGetPrivateItem() {
	ctx := context.Background()

	suite.db.Seed("7", map[string]any{"c": "secret", "u": "alice", "v": "diary"})

	item, err := suite.svc.GetItem(ctx, ItemQuery{User: "alice", ID: "7"})
	suite.NoError(err)
	suite.Equal("diary", item)

	_, err = suite.svc.GetItem(ctx, ItemQuery{User: "mallory", ID: "7"})
	suite.ErrorIs(err, ErrUnauthorized)
}

func (suite *serviceTestSuite) TestGetMissingItem() {
	_, err := suite.svc.GetItem(context.Background(), ItemQuery{User: "bob", ID: "404"})
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *serviceTestSuite) TestDeleteItem() {
	ctx := context.Background()

	suite.db.Seed("9", map[string]any{"c": "m", "u": "alice", "v": "note"})

	err := suite.svc.DeleteItem(ctx, ItemQuery{User: "mallory", ID: "9"})
	suite.ErrorIs(err, ErrUnauthorized)

	_, err = suite.svc.GetItem(ctx, ItemQuery{User: "mallory", ID: "9"})
	suite.NoError(err, "point must survive a rejected delete")

	err = suite.svc.DeleteItem(ctx, ItemQuery{User: "alice", ID: "9"})
	suite.NoError(err)

	req, ok := suite.db.Last("/points/delete")
	suite.True(ok)
	suite.Equal("wait=true", req.Query)
	suite.Equal([]any{json.Number("9")}, req.Body["points"])

	_, err = suite.svc.GetItem(ctx, ItemQuery{User: "alice", ID: "9"})
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *serviceTestSuite) TestSetItem() {
	ctx := context.Background()

	result, err := suite.svc.SetItem(ctx, SetRequest{ID: "11", Value: "first"})
	suite.NoError(err)
	suite.Equal(Inserted, result)

	suite.db.Seed("11", map[string]any{"u": "alice", "v": "first", "c": "m"})

	result, err = suite.svc.SetItem(ctx, SetRequest{ID: "11", Value: "second"})
	suite.NoError(err)
	suite.Equal(Updated, result)

	payload, ok := suite.db.Payload("11")
	suite.True(ok)
	suite.Equal("second", payload["v"])
	suite.Equal("alice", payload["u"])
	suite.Equal([]string{"first", "second"}, suite.embedder.Texts)
}

func (suite *serviceTestSuite) TestNextIDSequential() {
	ctx := context.Background()

	first, err := suite.svc.NextID(ctx)
	suite.NoError(err)

	second, err := suite.svc.NextID(ctx)
	suite.NoError(err)

	suite.Equal(int64(0), first)
	suite.Equal(first+1, second)

	payload, _ := suite.db.Payload("0")
	suite.Equal(json.Number("2"), payload["sc"])
}

func (suite *serviceTestSuite) TestNextIDIgnoresNonInteger() {
	suite.db.Seed("0", map[string]any{"sc": "seven"})

	id, err := suite.svc.NextID(context.Background())
	suite.NoError(err)
	suite.Equal(int64(0), id)
}

func (suite *serviceTestSuite) TestNextIDRejectsNegativeCounter() {
	suite.db.Seed("0", map[string]any{"sc": -1})

	_, err := suite.svc.NextID(context.Background())
	suite.ErrorIs(err, ErrNegativeSequence)

	payload, _ := suite.db.Payload("0")
	suite.Equal(-1, payload["sc"])
}

func (suite *serviceTestSuite) TestAddMessagesRejectsNegativeCounter() {
	suite.db.Seed("0", map[string]any{"sc": -1})

	_, err := suite.svc.AddMessages(context.Background(), AddRequest{
		U: "question",
		A: "answer",
	})
	suite.ErrorIs(err, ErrNegativeSequence)

	for _, req := range suite.db.Requests() {
		suite.NotEqual("PUT", req.Method, "no point may be written")
	}
}

func (suite *serviceTestSuite) TestAddMessages() {
	ctx := context.WithValue(context.Background(), ClientIP, "5.6.7.8")

	suite.db.Seed("0", map[string]any{"sc": 40})

	id, err := suite.svc.AddMessages(ctx, AddRequest{
		U:       "question",
		UDate:   "2024-01-01T00:00:00Z",
		A:       "answer",
		ADate:   "2024-01-01T00:00:05Z",
		Thread:  "t1",
		Project: "p1",
	})
	suite.NoError(err)
	suite.Equal("40", id)

	user, ok := suite.db.Payload("40")
	suite.True(ok)
	suite.Equal(json.Number("1"), user["u"])
	suite.Equal("question", user["m"])
	suite.Equal("5.6.7.8", user["ip"])
	suite.Equal("t1", user["i"])

	answer, ok := suite.db.Payload("41")
	suite.True(ok)
	suite.Equal(json.Number("0"), answer["u"])
	suite.Equal("answer", answer["m"])
	suite.Equal("2024-01-01T00:00:05Z", answer["d"])
	suite.NotContains(answer, "ip")
}

func (suite *serviceTestSuite) TestSearchWithoutFilter() {
	_, err := suite.svc.Search(context.Background(), SearchRequest{Query: "cats"})
	suite.NoError(err)

	req, ok := suite.db.Last("/points/search")
	suite.True(ok)
	suite.NotContains(req.Body, "filter")
	suite.Equal(json.Number(strconv.Itoa(ResultLimit)), req.Body["limit"])
	suite.Equal([]any{"m", "u"}, req.Body["with_payload"])
}

func (suite *serviceTestSuite) TestSearchWithFilter() {
	suite.db.Seed("1", map[string]any{"m": "hi", "u": 1})

	result, err := suite.svc.Search(context.Background(), SearchRequest{
		Query:   "cats",
		Filters: map[string]any{"i": "t1", "c": "m"},
	})
	suite.NoError(err)

	var hits []map[string]any
	suite.NoError(json.Unmarshal(result, &hits))
	suite.Len(hits, 1)

	req, _ := suite.db.Last("/points/search")

	bs, _ := json.Marshal(req.Body["filter"])
	suite.JSONEq(`{"must":[
		{"key":"c","match":{"value":"m"}},
		{"key":"i","match":{"value":"t1"}}
	]}`, string(bs))
}

func (suite *serviceTestSuite) TestGroupSearch() {
	_, err := suite.svc.GroupSearch(context.Background(), GroupSearchRequest{Key: "i", Query: "cats"})
	suite.NoError(err)

	req, ok := suite.db.Last("/points/search/groups")
	suite.True(ok)
	suite.Equal("i", req.Body["group_by"])
	suite.Equal(json.Number("1"), req.Body["group_size"])

	_, err = suite.svc.GroupSearch(context.Background(), GroupSearchRequest{Query: "cats"})
	suite.ErrorIs(err, ErrInvalidRequest)
}

func (suite *serviceTestSuite) TestSearchByIP() {
	suite.db.Seed("1", map[string]any{"ip": "1.1.1.1", "u": 1})

	result, err := suite.svc.SearchByIP(context.Background(), IPSearchRequest{Since: "2024-01-01"})
	suite.NoError(err)

	var groups []any
	suite.NoError(json.Unmarshal(result, &groups))
	suite.Len(groups, 1)

	req, ok := suite.db.Last("/points/query/groups")
	suite.True(ok)

	bs, _ := json.Marshal(req.Body)
	suite.JSONEq(`{
		"query": {"order_by": {"key": "d", "direction": "asc"}},
		"filter": {"must": [
			{"key": "u", "match": {"value": 1}},
			{"key": "d", "range": {"gte": "2024-01-01"}}
		]},
		"group_by": "ip",
		"limit": 7,
		"group_size": 1
	}`, string(bs))
}

func (suite *serviceTestSuite) TestSearchByIPRequiresSince() {
	_, err := suite.svc.SearchByIP(context.Background(), IPSearchRequest{Project: "p1"})
	suite.ErrorIs(err, ErrInvalidRequest)

	_, ok := suite.db.Last("/points/query/groups")
	suite.False(ok)
}

func (suite *serviceTestSuite) TestListMessagesPaging() {
	result, err := suite.svc.ListMessages(context.Background(), "t1", 3)
	suite.NoError(err)
	suite.JSONEq(`[]`, string(result))

	req, ok := suite.db.Last("/points/scroll")
	suite.True(ok)

	bs, _ := json.Marshal(req.Body)
	suite.JSONEq(`{
		"offset": 14,
		"limit": 7,
		"order_by": {"key": "d", "direction": "desc"},
		"filter": {"must": [
			{"key": "c", "match": {"value": "scm"}},
			{"key": "i", "match": {"value": "t1"}}
		]}
	}`, string(bs))
}

func (suite *serviceTestSuite) TestListChatsFrom() {
	suite.db.Seed("3", map[string]any{"c": "lucid", "d": 5})

	result, err := suite.svc.ListChatsFrom(context.Background(), "1700000000")
	suite.NoError(err)

	var points []map[string]any
	suite.NoError(json.Unmarshal(result, &points))
	suite.Len(points, 1)

	req, _ := suite.db.Last("/points/scroll")
	suite.NotContains(req.Body, "offset")

	bs, _ := json.Marshal(req.Body["order_by"])
	suite.JSONEq(`{"key":"d","direction":"desc","start_from":1700000000}`, string(bs))
}

func (suite *serviceTestSuite) TestListChatsFirstPage() {
	_, err := suite.svc.ListChats(context.Background(), 0)
	suite.NoError(err)

	req, _ := suite.db.Last("/points/scroll")
	suite.Equal(json.Number("0"), req.Body["offset"])
}

func (suite *serviceTestSuite) TestEmbeddingFailure() {
	suite.embedder.Err = errors.New("model offline")

	_, err := suite.svc.Search(context.Background(), SearchRequest{Query: "cats"})
	suite.Error(err)

	_, ok := suite.db.Last("/points/search")
	suite.False(ok, "no search may be issued without a vector")
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(serviceTestSuite))
}
