package pointgate

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flarexio/pointgate/embedding"
	"github.com/flarexio/pointgate/vector"
)

type ContextKey string

// ClientIP carries the caller's address from the transport into the service.
const ClientIP ContextKey = "client_ip"

// Service defines the operations pointgate exposes on top of the vector
// database.
type Service interface {

	// GetItem returns the payload of a point, or only its v field when the
	// point belongs to a private category and the caller owns it.
	GetItem(ctx context.Context, query ItemQuery) (any, error)

	// CreateItem stores a free-form payload under a fresh UUID.
	CreateItem(ctx context.Context, payload vector.Payload) (string, error)

	// SetItem overwrites the value of an existing point or inserts it.
	SetItem(ctx context.Context, req SetRequest) (SetResult, error)

	// DeleteItem removes a point owned by the caller.
	DeleteItem(ctx context.Context, query ItemQuery) error

	// AddMessages stores both sides of an exchange as two message points.
	AddMessages(ctx context.Context, req AddRequest) (string, error)

	// Search runs a similarity search for free text.
	Search(ctx context.Context, req SearchRequest) (json.RawMessage, error)

	// GroupSearch runs a similarity search grouped by a payload key.
	GroupSearch(ctx context.Context, req GroupSearchRequest) (json.RawMessage, error)

	// SearchByIP lists distinct client addresses seen since a given date.
	SearchByIP(ctx context.Context, req IPSearchRequest) (json.RawMessage, error)

	// ListChats pages through chat summaries, newest first.
	ListChats(ctx context.Context, page int) (json.RawMessage, error)

	// ListChatsFrom lists chat summaries starting at a d cursor.
	ListChatsFrom(ctx context.Context, from string) (json.RawMessage, error)

	// ListMessages pages through the messages of one conversation.
	ListMessages(ctx context.Context, thread string, page int) (json.RawMessage, error)

	// ListMessagesFrom lists messages of one conversation from a d cursor.
	ListMessagesFrom(ctx context.Context, thread string, from string) (json.RawMessage, error)

	// NextID allocates the next sequence number.
	NextID(ctx context.Context) (int64, error)
}

type ServiceMiddleware func(Service) Service

func NewService(cfg Config, gateway vector.Gateway, embedder embedding.Embedder) Service {
	cfg = cfg.Normalize()

	return &service{
		cfg:      cfg,
		gateway:  gateway,
		embedder: embedder,
		sequence: NewSequence(gateway, cfg.Vector),
		log: zap.L().With(
			zap.String("service", "pointgate"),
		),
	}
}

type service struct {
	cfg      Config
	gateway  vector.Gateway
	embedder embedding.Embedder
	sequence *Sequence
	log      *zap.Logger
}

func pointsPath(collection string, parts ...string) string {
	path := "collections/" + collection + "/points"
	if len(parts) > 0 {
		path += "/" + strings.Join(parts, "/")
	}

	return path
}

func (svc *service) path(parts ...string) string {
	return pointsPath(svc.cfg.Vector.Collection, parts...)
}

func (svc *service) getPoint(ctx context.Context, id vector.PointID) (*vector.PointResult, error) {
	req := vector.RetrievePointsRequest{
		IDs:         []vector.PointID{id},
		WithPayload: true,
	}

	var resp vector.Response
	if err := svc.gateway.Post(ctx, svc.path(), req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Result) == 0 {
		return nil, ErrNotFound
	}

	return &resp.Result[0], nil
}

func (svc *service) upsert(ctx context.Context, points ...vector.Point) error {
	req := vector.UpsertPointsRequest{
		Points: points,
	}

	return svc.gateway.Put(ctx, svc.path()+"?wait=true", req, nil)
}

func (svc *service) GetItem(ctx context.Context, query ItemQuery) (any, error) {
	point, err := svc.getPoint(ctx, vector.ParsePointID(query.ID))
	if err != nil {
		return nil, err
	}

	payload := point.Payload
	if payload == nil {
		return nil, ErrNotFound
	}

	category, ok := payload["c"].(string)
	if !ok {
		category = query.Category
	}

	if !svc.cfg.IsPrivate(category) {
		return payload, nil
	}

	if !Owner(payload, query.User) {
		return nil, ErrUnauthorized
	}

	return payload["v"], nil
}

func (svc *service) CreateItem(ctx context.Context, payload vector.Payload) (string, error) {
	if payload == nil {
		payload = make(vector.Payload)
	}

	if ip, ok := ctx.Value(ClientIP).(string); ok && ip != "" {
		payload["a"] = ip
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	text, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	vec, err := svc.embedder.Embed(ctx, string(text))
	if err != nil {
		return "", err
	}

	point := vector.Point{
		ID:      vector.StringID(id.String()),
		Payload: payload,
		Vector:  vec,
	}

	if err := svc.upsert(ctx, point); err != nil {
		return "", err
	}

	return id.String(), nil
}

// SetItem does not check ownership: any caller may overwrite an existing
// item's value.
func (svc *service) SetItem(ctx context.Context, req SetRequest) (SetResult, error) {
	if req.ID == "" {
		return "", ErrInvalidRequest
	}

	id := vector.ParsePointID(req.ID)

	result := Updated
	payload := make(vector.Payload)

	existing, err := svc.getPoint(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		result = Inserted

	case err != nil:
		return "", err

	default:
		for k, v := range existing.Payload {
			payload[k] = v
		}
	}

	payload["v"] = req.Value

	vec, err := svc.embedder.Embed(ctx, req.Value)
	if err != nil {
		return "", err
	}

	point := vector.Point{
		ID:      id,
		Payload: payload,
		Vector:  vec,
	}

	if err := svc.upsert(ctx, point); err != nil {
		return "", err
	}

	return result, nil
}

func (svc *service) DeleteItem(ctx context.Context, query ItemQuery) error {
	id := vector.ParsePointID(query.ID)

	point, err := svc.getPoint(ctx, id)
	if err != nil {
		return err
	}

	if !Owner(point.Payload, query.User) {
		return ErrUnauthorized
	}

	req := vector.DeletePointsRequest{
		Points: []vector.PointID{id},
	}

	return svc.gateway.Post(ctx, svc.path("delete?wait=true"), req, nil)
}

func (svc *service) AddMessages(ctx context.Context, req AddRequest) (string, error) {
	first, err := svc.sequence.Next(ctx)
	if err != nil {
		return "", err
	}

	second, err := svc.sequence.Next(ctx)
	if err != nil {
		return "", err
	}

	userVec, err := svc.embedder.Embed(ctx, req.U)
	if err != nil {
		return "", err
	}

	answerVec, err := svc.embedder.Embed(ctx, req.A)
	if err != nil {
		return "", err
	}

	user := vector.Payload{
		"u": 1,
		"m": req.U,
		"c": svc.cfg.Categories.Message,
		"i": req.Thread,
		"p": req.Project,
		"d": req.UDate,
	}

	if ip, ok := ctx.Value(ClientIP).(string); ok && ip != "" {
		user["ip"] = ip
	}

	answer := vector.Payload{
		"u": 0,
		"m": req.A,
		"c": svc.cfg.Categories.Message,
		"i": req.Thread,
		"p": req.Project,
		"d": req.ADate,
	}

	points := []vector.Point{
		{ID: vector.NumericID(uint64(first)), Payload: user, Vector: userVec},
		{ID: vector.NumericID(uint64(second)), Payload: answer, Vector: answerVec},
	}

	if err := svc.upsert(ctx, points...); err != nil {
		return "", err
	}

	return strconv.FormatInt(first, 10), nil
}

func (svc *service) Search(ctx context.Context, req SearchRequest) (json.RawMessage, error) {
	vec, err := svc.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	body := vector.SearchPointsRequest{
		Vector:      vec,
		Filter:      BuildFilter(req.Filters),
		Limit:       ResultLimit,
		WithPayload: []string{"m", "u"},
	}

	var resp vector.RawResponse
	if err := svc.gateway.Post(ctx, svc.path("search"), body, &resp); err != nil {
		return nil, err
	}

	return orEmpty(resp.Result), nil
}

func (svc *service) GroupSearch(ctx context.Context, req GroupSearchRequest) (json.RawMessage, error) {
	if req.Key == "" {
		return nil, ErrInvalidRequest
	}

	vec, err := svc.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	body := vector.SearchPointsRequest{
		Vector:      vec,
		Filter:      BuildFilter(req.Filters),
		Limit:       ResultLimit,
		WithPayload: []string{"m", "u"},
		GroupBy:     req.Key,
		GroupSize:   GroupSize,
	}

	return svc.groups(ctx, svc.path("search", "groups"), body)
}

func (svc *service) SearchByIP(ctx context.Context, req IPSearchRequest) (json.RawMessage, error) {
	if req.Since == nil {
		return nil, ErrInvalidRequest
	}

	must := []vector.Condition{
		vector.MatchValue("u", 1),
		{Key: "d", Range: &vector.Range{Gte: req.Since}},
	}

	if req.Project != "" {
		must = append(must, vector.MatchValue("p", req.Project))
	}

	body := vector.QueryGroupsRequest{
		Query: vector.QueryOrderBy{
			OrderBy: vector.OrderBy{Key: "d", Direction: vector.Ascending},
		},
		Filter:    &vector.Filter{Must: must},
		GroupBy:   "ip",
		Limit:     ResultLimit,
		GroupSize: GroupSize,
	}

	return svc.groups(ctx, svc.path("query", "groups"), body)
}

func (svc *service) groups(ctx context.Context, path string, body any) (json.RawMessage, error) {
	var resp struct {
		Result struct {
			Groups json.RawMessage `json:"groups"`
		} `json:"result"`
	}

	if err := svc.gateway.Post(ctx, path, body, &resp); err != nil {
		return nil, err
	}

	return orEmpty(resp.Result.Groups), nil
}

func (svc *service) ListChats(ctx context.Context, page int) (json.RawMessage, error) {
	filter := BuildFilter(map[string]any{
		"c": svc.cfg.Categories.Chat,
	})

	return svc.scroll(ctx, pageOffset(page), vector.OrderBy{Key: "d", Direction: vector.Descending}, filter)
}

func (svc *service) ListChatsFrom(ctx context.Context, from string) (json.RawMessage, error) {
	filter := BuildFilter(map[string]any{
		"c": svc.cfg.Categories.Chat,
	})

	order := vector.OrderBy{
		Key:       "d",
		Direction: vector.Descending,
		StartFrom: cursor(from),
	}

	return svc.scroll(ctx, nil, order, filter)
}

func (svc *service) ListMessages(ctx context.Context, thread string, page int) (json.RawMessage, error) {
	filter := BuildFilter(map[string]any{
		"c": svc.cfg.Categories.ChatMessage,
		"i": thread,
	})

	return svc.scroll(ctx, pageOffset(page), vector.OrderBy{Key: "d", Direction: vector.Descending}, filter)
}

func (svc *service) ListMessagesFrom(ctx context.Context, thread string, from string) (json.RawMessage, error) {
	filter := BuildFilter(map[string]any{
		"c": svc.cfg.Categories.ChatMessage,
		"i": thread,
	})

	order := vector.OrderBy{
		Key:       "d",
		Direction: vector.Descending,
		StartFrom: cursor(from),
	}

	return svc.scroll(ctx, nil, order, filter)
}

func (svc *service) scroll(ctx context.Context, offset *int, order vector.OrderBy, filter *vector.Filter) (json.RawMessage, error) {
	body := vector.ScrollPointsRequest{
		Offset:  offset,
		Limit:   ResultLimit,
		OrderBy: &order,
		Filter:  filter,
	}

	var resp struct {
		Result struct {
			Points json.RawMessage `json:"points"`
		} `json:"result"`
	}

	if err := svc.gateway.Post(ctx, svc.path("scroll"), body, &resp); err != nil {
		return nil, err
	}

	return orEmpty(resp.Result.Points), nil
}

func (svc *service) NextID(ctx context.Context) (int64, error) {
	id, err := svc.sequence.Next(ctx)
	if err != nil {
		return 0, err
	}

	svc.log.Debug("sequence advanced", zap.Int64("id", id))
	return id, nil
}

// pageOffset maps a 1-based page number to a scroll offset.
func pageOffset(page int) *int {
	if page < 1 {
		page = 1
	}

	offset := (page - 1) * ResultLimit
	return &offset
}

// cursor keeps numeric cursors numeric; anything else (e.g. RFC 3339
// dates) is passed as a string.
func cursor(from string) any {
	if n, err := strconv.ParseFloat(from, 64); err == nil {
		return n
	}

	return from
}

func orEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage("[]")
	}

	return raw
}
