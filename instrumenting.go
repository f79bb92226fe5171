package pointgate

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flarexio/pointgate/vector"
)

type Metrics struct {
	RequestCount   metrics.Counter
	RequestLatency metrics.Histogram
}

// NewMetrics registers the request counter and latency histogram on reg.
func NewMetrics(reg prometheus.Registerer) Metrics {
	fieldKeys := []string{"method", "error"}

	count := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pointgate",
		Subsystem: "service",
		Name:      "request_count",
		Help:      "Number of requests received.",
	}, fieldKeys)

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pointgate",
		Subsystem: "service",
		Name:      "request_latency_seconds",
		Help:      "Total duration of requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, fieldKeys)

	reg.MustRegister(count, latency)

	return Metrics{
		RequestCount:   kitprometheus.NewCounter(count),
		RequestLatency: kitprometheus.NewHistogram(latency),
	}
}

func InstrumentingMiddleware(m Metrics) ServiceMiddleware {
	return func(next Service) Service {
		return &instrumentingMiddleware{
			Metrics: m,
			next:    next,
		}
	}
}

type instrumentingMiddleware struct {
	Metrics
	next Service
}

func (mw *instrumentingMiddleware) observe(method string, begin time.Time, err error) {
	lvs := []string{"method", method, "error", strconv.FormatBool(err != nil)}
	mw.RequestCount.With(lvs...).Add(1)
	mw.RequestLatency.With(lvs...).Observe(time.Since(begin).Seconds())
}

func (mw *instrumentingMiddleware) GetItem(ctx context.Context, query ItemQuery) (item any, err error) {
	defer func(begin time.Time) { mw.observe("get_item", begin, err) }(time.Now())
	return mw.next.GetItem(ctx, query)
}

func (mw *instrumentingMiddleware) CreateItem(ctx context.Context, payload vector.Payload) (id string, err error) {
	defer func(begin time.Time) { mw.observe("create_item", begin, err) }(time.Now())
	return mw.next.CreateItem(ctx, payload)
}

func (mw *instrumentingMiddleware) SetItem(ctx context.Context, req SetRequest) (result SetResult, err error) {
	defer func(begin time.Time) { mw.observe("set_item", begin, err) }(time.Now())
	return mw.next.SetItem(ctx, req)
}

func (mw *instrumentingMiddleware) DeleteItem(ctx context.Context, query ItemQuery) (err error) {
	defer func(begin time.Time) { mw.observe("delete_item", begin, err) }(time.Now())
	return mw.next.DeleteItem(ctx, query)
}

func (mw *instrumentingMiddleware) AddMessages(ctx context.Context, req AddRequest) (id string, err error) {
	defer func(begin time.Time) { mw.observe("add_messages", begin, err) }(time.Now())
	return mw.next.AddMessages(ctx, req)
}

func (mw *instrumentingMiddleware) Search(ctx context.Context, req SearchRequest) (result json.RawMessage, err error) {
	defer func(begin time.Time) { mw.observe("search", begin, err) }(time.Now())
	return mw.next.Search(ctx, req)
}

func (mw *instrumentingMiddleware) GroupSearch(ctx context.Context, req GroupSearchRequest) (result json.RawMessage, err error) {
	defer func(begin time.Time) { mw.observe("group_search", begin, err) }(time.Now())
	return mw.next.GroupSearch(ctx, req)
}

func (mw *instrumentingMiddleware) SearchByIP(ctx context.Context, req IPSearchRequest) (result json.RawMessage, err error) {
	defer func(begin time.Time) { mw.observe("search_by_ip", begin, err) }(time.Now())
	return mw.next.SearchByIP(ctx, req)
}

func (mw *instrumentingMiddleware) ListChats(ctx context.Context, page int) (result json.RawMessage, err error) {
	defer func(begin time.Time) { mw.observe("list_chats", begin, err) }(time.Now())
	return mw.next.ListChats(ctx, page)
}

func (mw *instrumentingMiddleware) ListChatsFrom(ctx context.Context, from string) (result json.RawMessage, err error) {
	defer func(begin time.Time) { mw.observe("list_chats_from", begin, err) }(time.Now())
	return mw.next.ListChatsFrom(ctx, from)
}

func (mw *instrumentingMiddleware) ListMessages(ctx context.Context, thread string, page int) (result json.RawMessage, err error) {
	defer func(begin time.Time) { mw.observe("list_messages", begin, err) }(time.Now())
	return mw.next.ListMessages(ctx, thread, page)
}

func (mw *instrumentingMiddleware) ListMessagesFrom(ctx context.Context, thread string, from string) (result json.RawMessage, err error) {
	defer func(begin time.Time) { mw.observe("list_messages_from", begin, err) }(time.Now())
	return mw.next.ListMessagesFrom(ctx, thread, from)
}

func (mw *instrumentingMiddleware) NextID(ctx context.Context) (id int64, err error) {
	defer func(begin time.Time) { mw.observe("next_id", begin, err) }(time.Now())
	return mw.next.NextID(ctx)
}
