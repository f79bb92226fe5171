package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"

	"github.com/flarexio/pointgate"
	"github.com/flarexio/pointgate/internal/qdranttest"
	"github.com/flarexio/pointgate/persistence/qdrant"
)

func newService(t *testing.T) (pointgate.Service, *qdranttest.Server) {
	db := qdranttest.NewServer()
	t.Cleanup(db.Close)

	gateway := qdrant.NewGateway(db.Secrets(), db.Client())
	svc := pointgate.NewService(pointgate.DefaultConfig(), gateway, &qdranttest.Embedder{})

	return svc, db
}

func TestUnmarshalCallToolRequest(t *testing.T) {
	assert := assert.New(t)

	input := []byte(`{
	  "jsonrpc": "2.0",
	  "id": 2,
	  "method": "tools/call",
	  "params": {
	    "name": "search",
	    "arguments": {
	      "q": "weather in taipei",
	      "f": {"c": "m"}
	    }
	  }
	}`)

	var req JSONRPCRequest
	if err := json.Unmarshal(input, &req); err != nil {
		assert.Fail(err.Error())
		return
	}

	var params mcp.CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(mcp.JSONRPC_VERSION, req.JSONRPC)
	assert.Equal(mcp.NewRequestId(int64(2)), req.ID)
	assert.Equal(mcp.MethodToolsCall, req.Method)
	assert.Equal(ToolSearch, params.Name)
}

func TestListTools(t *testing.T) {
	assert := assert.New(t)

	svc, _ := newService(t)

	req := JSONRPCRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      mcp.NewRequestId(int64(1)),
		Method:  mcp.MethodToolsList,
	}

	msg := ListToolsEndpoint(svc)(context.Background(), req)

	resp, ok := msg.(mcp.JSONRPCResponse)
	if !ok {
		assert.Fail("invalid type")
		return
	}

	result, ok := resp.Result.(*mcp.ListToolsResult)
	if !ok {
		assert.Fail("invalid result type")
		return
	}

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}

	assert.Equal([]string{ToolSearch, ToolGroupSearch, ToolGetItem, ToolNextID}, names)
}

func TestCallToolGetItem(t *testing.T) {
	assert := assert.New(t)

	svc, db := newService(t)
	db.Seed("3", map[string]any{"c": "m", "v": "hello"})

	req := JSONRPCRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      mcp.NewRequestId(int64(5)),
		Method:  mcp.MethodToolsCall,
		Params:  json.RawMessage(`{"name":"get_item","arguments":{"i":"3","u":"bob"}}`),
	}

	msg := CallToolEndpoint(svc)(context.Background(), req)

	resp, ok := msg.(mcp.JSONRPCResponse)
	if !ok {
		assert.Fail("invalid type")
		return
	}

	result, ok := resp.Result.(*mcp.CallToolResult)
	if !ok {
		assert.Fail("invalid result type")
		return
	}

	assert.False(result.IsError)
	assert.Len(result.Content, 1)

	content, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		assert.Fail("invalid content type")
		return
	}

	assert.JSONEq(`{"c":"m","v":"hello"}`, content.Text)
}

func TestCallToolMissingItem(t *testing.T) {
	assert := assert.New(t)

	svc, _ := newService(t)

	req := JSONRPCRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      mcp.NewRequestId(int64(6)),
		Method:  mcp.MethodToolsCall,
		Params:  json.RawMessage(`{"name":"get_item","arguments":{"i":"99"}}`),
	}

	msg := CallToolEndpoint(svc)(context.Background(), req)

	resp, ok := msg.(mcp.JSONRPCResponse)
	if !ok {
		assert.Fail("invalid type")
		return
	}

	result, ok := resp.Result.(*mcp.CallToolResult)
	if !ok {
		assert.Fail("invalid result type")
		return
	}

	assert.True(result.IsError)
}

func TestCallUnknownTool(t *testing.T) {
	svc, _ := newService(t)

	req := JSONRPCRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      mcp.NewRequestId(int64(7)),
		Method:  mcp.MethodToolsCall,
		Params:  json.RawMessage(`{"name":"drop_collection"}`),
	}

	msg := CallToolEndpoint(svc)(context.Background(), req)

	_, ok := msg.(mcp.JSONRPCError)
	assert.True(t, ok)
}
