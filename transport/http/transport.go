package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/endpoint"

	"github.com/flarexio/pointgate"
	"github.com/flarexio/pointgate/vector"
)

// InternalErrorMessage is the only body a client sees for server-side
// failures.
const InternalErrorMessage = "An error occurred on our side"

var errInvalidPage = errors.New("page must be a number")

func fail(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()

	switch {
	case errors.Is(err, pointgate.ErrNotFound):
		c.String(http.StatusNotFound, "Not Found")

	case errors.Is(err, pointgate.ErrUnauthorized):
		c.String(http.StatusUnauthorized, "Unauthorized")

	case errors.Is(err, pointgate.ErrInvalidRequest):
		c.String(http.StatusBadRequest, err.Error())

	default:
		c.String(http.StatusInternalServerError, InternalErrorMessage)
	}
}

func badRequest(c *gin.Context, err error) {
	c.String(http.StatusBadRequest, err.Error())
	c.Error(err)
	c.Abort()
}

func withClientIP(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if ip := c.RemoteIP(); ip != "" {
		ctx = context.WithValue(ctx, pointgate.ClientIP, ip)
	}

	return ctx
}

func rawJSON(c *gin.Context, resp any) {
	raw, ok := resp.(json.RawMessage)
	if !ok {
		fail(c, pointgate.ErrInvalidResponseType)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func GetItemHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query pointgate.ItemQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			badRequest(c, err)
			return
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, query)
		if err != nil {
			fail(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func CreateItemHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload vector.Payload
		if err := c.ShouldBindJSON(&payload); err != nil {
			badRequest(c, err)
			return
		}

		resp, err := endpoint(withClientIP(c), payload)
		if err != nil {
			fail(c, err)
			return
		}

		id, _ := resp.(string)
		c.String(http.StatusCreated, id)
	}
}

func SetItemHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pointgate.SetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			fail(c, err)
			return
		}

		result, _ := resp.(pointgate.SetResult)

		status := http.StatusOK
		if result == pointgate.Inserted {
			status = http.StatusCreated
		}

		c.String(status, string(result))
	}
}

func DeleteItemHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query pointgate.ItemQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			badRequest(c, err)
			return
		}

		ctx := c.Request.Context()
		if _, err := endpoint(ctx, query); err != nil {
			fail(c, err)
			return
		}

		c.String(http.StatusOK, "Deleted")
	}
}

func AddMessagesHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pointgate.AddRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		resp, err := endpoint(withClientIP(c), req)
		if err != nil {
			fail(c, err)
			return
		}

		id, _ := resp.(string)
		c.String(http.StatusOK, id)
	}
}

// SearchHandler decodes the body into T and relays the endpoint's raw JSON
// result.
func SearchHandler[T any](endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req T
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			fail(c, err)
			return
		}

		rawJSON(c, resp)
	}
}

func page(c *gin.Context) (int, error) {
	p := c.Param("page")
	if p == "" {
		p = c.DefaultQuery("page", "1")
	}

	n, err := strconv.Atoi(p)
	if err != nil {
		return 0, errInvalidPage
	}

	return n, nil
}

func ListChatsHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := page(c)
		if err != nil {
			badRequest(c, err)
			return
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, pointgate.PageRequest{Page: n})
		if err != nil {
			fail(c, err)
			return
		}

		rawJSON(c, resp)
	}
}

func ListChatsFromHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := pointgate.PageRequest{
			From: c.Param("from"),
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			fail(c, err)
			return
		}

		rawJSON(c, resp)
	}
}

func ListMessagesHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := page(c)
		if err != nil {
			badRequest(c, err)
			return
		}

		req := pointgate.PageRequest{
			Thread: c.Param("id"),
			Page:   n,
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			fail(c, err)
			return
		}

		rawJSON(c, resp)
	}
}

func ListMessagesFromHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := pointgate.PageRequest{
			Thread: c.Param("id"),
			From:   c.Param("from"),
		}

		ctx := c.Request.Context()
		resp, err := endpoint(ctx, req)
		if err != nil {
			fail(c, err)
			return
		}

		rawJSON(c, resp)
	}
}

func NextIDHandler(endpoint endpoint.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		resp, err := endpoint(ctx, nil)
		if err != nil {
			fail(c, err)
			return
		}

		id, ok := resp.(int64)
		if !ok {
			fail(c, pointgate.ErrInvalidResponseType)
			return
		}

		c.String(http.StatusOK, strconv.FormatInt(id, 10))
	}
}
