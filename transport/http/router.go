package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/flarexio/pointgate"

	mcpE "github.com/flarexio/pointgate/mcp"
)

func AddRouters(r *gin.Engine, endpoints pointgate.EndpointSet) {
	r.GET("/", GetItemHandler(endpoints.GetItem))
	r.POST("/", CreateItemHandler(endpoints.CreateItem))
	r.PUT("/", SetItemHandler(endpoints.SetItem))
	r.DELETE("/", DeleteItemHandler(endpoints.DeleteItem))
	r.POST("/add", AddMessagesHandler(endpoints.AddMessages))

	r.POST("/search", SearchHandler[pointgate.SearchRequest](endpoints.Search))
	r.POST("/groupsearch", SearchHandler[pointgate.GroupSearchRequest](endpoints.GroupSearch))
	r.POST("/ip", SearchHandler[pointgate.IPSearchRequest](endpoints.SearchByIP))

	r.GET("/i", NextIDHandler(endpoints.NextID))

	r.GET("/chats", ListChatsHandler(endpoints.ListChats))
	r.GET("/chats/:page", ListChatsHandler(endpoints.ListChats))
	r.GET("/chats_from/:from", ListChatsFromHandler(endpoints.ListChatsFrom))
	r.GET("/chat/:id", ListMessagesHandler(endpoints.ListMessages))
	r.GET("/chat/:id/:page", ListMessagesHandler(endpoints.ListMessages))
	r.GET("/chat_from/:id/:from", ListMessagesFromHandler(endpoints.ListMessagesFrom))
}

func AddStreamableRouters(r *gin.Engine, endpoints map[mcp.MCPMethod]mcpE.MCPEndpoint) {
	r.POST("/mcp", MCPStreamableHandler(endpoints))
}

func AddMetricsRouter(r *gin.Engine, gatherer prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// NewEngine returns a gin engine with panic recovery, error logging and
// permissive CORS for browser clients.
func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		Recovery(log),
		ErrorLogger(log),
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders:    []string{"Content-Type"},
		}),
	)

	return r
}

// Recovery turns a panic into the same 500 response as any other failure.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)

		c.String(http.StatusInternalServerError, InternalErrorMessage)
		c.Abort()
	})
}

func ErrorLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			log.Error(err.Error(),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", c.Writer.Status()),
			)
		}
	}
}
