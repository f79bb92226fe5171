package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/flarexio/pointgate"
)

type stubService struct {
	pointgate.Service
}

func (stubService) ListChats(ctx context.Context, page int) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func TestMetricsRouter(t *testing.T) {
	assert := assert.New(t)

	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()

	var svc pointgate.Service = stubService{}
	svc = pointgate.InstrumentingMiddleware(pointgate.NewMetrics(reg))(svc)

	r := NewEngine(zap.NewNop())
	AddRouters(r, pointgate.MakeEndpoints(svc))
	AddMetricsRouter(r, reg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chats", nil))
	assert.Equal(http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(http.StatusOK, w.Code)
	assert.Contains(w.Body.String(), `pointgate_service_request_count{error="false",method="list_chats"} 1`)
}
