package pointgate

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/flarexio/pointgate/vector"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	log = log.With(
		zap.String("service", "pointgate"),
	)

	return func(next Service) Service {
		log.Info("service initialized")

		return &loggingMiddleware{
			log:  log,
			next: next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) GetItem(ctx context.Context, query ItemQuery) (any, error) {
	log := mw.log.With(
		zap.String("action", "get_item"),
		zap.String("id", query.ID),
		zap.String("user", query.User),
	)

	item, err := mw.next.GetItem(ctx, query)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("item fetched")
	return item, nil
}

func (mw *loggingMiddleware) CreateItem(ctx context.Context, payload vector.Payload) (string, error) {
	log := mw.log.With(
		zap.String("action", "create_item"),
	)

	if ip, ok := ctx.Value(ClientIP).(string); ok {
		log = log.With(
			zap.String("client_ip", ip),
		)
	}

	id, err := mw.next.CreateItem(ctx, payload)
	if err != nil {
		log.Error(err.Error())
		return "", err
	}

	log.Info("item created", zap.String("id", id))
	return id, nil
}

func (mw *loggingMiddleware) SetItem(ctx context.Context, req SetRequest) (SetResult, error) {
	log := mw.log.With(
		zap.String("action", "set_item"),
		zap.String("id", req.ID),
	)

	result, err := mw.next.SetItem(ctx, req)
	if err != nil {
		log.Error(err.Error())
		return "", err
	}

	log.Info("item set", zap.String("result", string(result)))
	return result, nil
}

func (mw *loggingMiddleware) DeleteItem(ctx context.Context, query ItemQuery) error {
	log := mw.log.With(
		zap.String("action", "delete_item"),
		zap.String("id", query.ID),
		zap.String("user", query.User),
	)

	err := mw.next.DeleteItem(ctx, query)
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("item deleted")
	return nil
}

func (mw *loggingMiddleware) AddMessages(ctx context.Context, req AddRequest) (string, error) {
	log := mw.log.With(
		zap.String("action", "add_messages"),
		zap.String("thread", req.Thread),
	)

	id, err := mw.next.AddMessages(ctx, req)
	if err != nil {
		log.Error(err.Error())
		return "", err
	}

	log.Info("messages added", zap.String("id", id))
	return id, nil
}

func (mw *loggingMiddleware) Search(ctx context.Context, req SearchRequest) (json.RawMessage, error) {
	log := mw.log.With(
		zap.String("action", "search"),
		zap.String("query", req.Query),
		zap.Int("filters", len(req.Filters)),
	)

	result, err := mw.next.Search(ctx, req)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("points searched")
	return result, nil
}

func (mw *loggingMiddleware) GroupSearch(ctx context.Context, req GroupSearchRequest) (json.RawMessage, error) {
	log := mw.log.With(
		zap.String("action", "group_search"),
		zap.String("query", req.Query),
		zap.String("group_by", req.Key),
	)

	result, err := mw.next.GroupSearch(ctx, req)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("points searched")
	return result, nil
}

func (mw *loggingMiddleware) SearchByIP(ctx context.Context, req IPSearchRequest) (json.RawMessage, error) {
	log := mw.log.With(
		zap.String("action", "search_by_ip"),
		zap.Any("since", req.Since),
	)

	result, err := mw.next.SearchByIP(ctx, req)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("addresses listed")
	return result, nil
}

func (mw *loggingMiddleware) ListChats(ctx context.Context, page int) (json.RawMessage, error) {
	log := mw.log.With(
		zap.String("action", "list_chats"),
		zap.Int("page", page),
	)

	result, err := mw.next.ListChats(ctx, page)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("chats listed")
	return result, nil
}

func (mw *loggingMiddleware) ListChatsFrom(ctx context.Context, from string) (json.RawMessage, error) {
	log := mw.log.With(
		zap.String("action", "list_chats_from"),
		zap.String("from", from),
	)

	result, err := mw.next.ListChatsFrom(ctx, from)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("chats listed")
	return result, nil
}

func (mw *loggingMiddleware) ListMessages(ctx context.Context, thread string, page int) (json.RawMessage, error) {
	log := mw.log.With(
		zap.String("action", "list_messages"),
		zap.String("thread", thread),
		zap.Int("page", page),
	)

	result, err := mw.next.ListMessages(ctx, thread, page)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("messages listed")
	return result, nil
}

func (mw *loggingMiddleware) ListMessagesFrom(ctx context.Context, thread string, from string) (json.RawMessage, error) {
	log := mw.log.With(
		zap.String("action", "list_messages_from"),
		zap.String("thread", thread),
		zap.String("from", from),
	)

	result, err := mw.next.ListMessagesFrom(ctx, thread, from)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("messages listed")
	return result, nil
}

func (mw *loggingMiddleware) NextID(ctx context.Context) (int64, error) {
	log := mw.log.With(
		zap.String("action", "next_id"),
	)

	id, err := mw.next.NextID(ctx)
	if err != nil {
		log.Error(err.Error())
		return 0, err
	}

	log.Info("id allocated", zap.Int64("id", id))
	return id, nil
}
