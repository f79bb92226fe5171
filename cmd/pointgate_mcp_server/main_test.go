package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"

	"github.com/flarexio/pointgate"

	mcpE "github.com/flarexio/pointgate/mcp"
)

func TestStdioServer(t *testing.T) {
	assert := assert.New(t)

	endpoints := &pointgate.EndpointSet{
		NextID: func(ctx context.Context, request any) (any, error) {
			return int64(9), nil
		},
	}

	var svc pointgate.Service
	svc = pointgate.ProxyMiddleware(endpoints)(svc)

	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"next_id","arguments":{}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"search","arguments":{"q":"x"}}}`,
	}, "\n"))

	var out bytes.Buffer

	s := NewStdioMCPServer(in, &out)
	s.AddEndpoint(mcp.MethodToolsCall, mcpE.CallToolEndpoint(svc))

	err := s.AddEndpoint(mcp.MethodToolsCall, mcpE.CallToolEndpoint(svc))
	assert.Error(err)

	err = s.Listen(context.Background())
	assert.NoError(err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if !assert.Len(lines, 3) {
		return
	}

	var first struct {
		ID     int `json:"id"`
		Result struct {
			IsError bool `json:"isError"`
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}

	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(1, first.ID)
	assert.False(first.Result.IsError)
	if assert.Len(first.Result.Content, 1) {
		assert.Equal("9", first.Result.Content[0].Text)
	}

	var second struct {
		ID    int `json:"id"`
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}

	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(2, second.ID)
	assert.Equal(mcp.METHOD_NOT_FOUND, second.Error.Code)

	// search has no endpoint behind the proxy
	assert.Contains(lines[2], `"isError":true`)
	assert.Contains(lines[2], pointgate.ErrMethodNotImplemented.Error())
}
